// Package ui provides semantic terminal formatting for latchkey's output.
//
// Commands never call color functions directly; they pick a semantic
// formatter (Success, Warning, Error, ...) so the meaning of each color
// stays consistent across the CLI and degrades sensibly when color is
// disabled.
package ui
