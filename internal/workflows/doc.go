// Package workflows contains latchkey's core operations, decoupled from
// the CLI layer: Setup reconciles the environment into its desired
// state, Doctor verifies it read-only (save for attaching to the agent,
// which is a side-effecting read by nature).
package workflows
