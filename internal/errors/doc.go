// Package errors defines the sentinel errors shared across latchkey.
//
// Call sites wrap these with fmt.Errorf("...: %w", err) so commands can
// classify failures with errors.Is while still printing useful context.
package errors
