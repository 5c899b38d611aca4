// Package logging provides a small leveled logger for CLI output.
//
// Info messages only appear with --verbose, debug messages only with
// --debug. Warnings and errors always print to stderr so they survive
// output redirection.
package logging
