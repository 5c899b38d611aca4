package logging

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// Logger writes leveled, colorized messages. The zero value is a quiet
// logger: warnings and errors only.
type Logger struct {
	Verbose bool
	Debug   bool
}

// Infof prints an informational message when verbose output is enabled.
func (l Logger) Infof(msg string, args ...any) {
	if l.Verbose || l.Debug {
		fmt.Fprintf(os.Stdout, color.GreenString("[info] ")+msg+"\n", args...)
	}
}

// Debugf prints a debug message when debug output is enabled.
func (l Logger) Debugf(msg string, args ...any) {
	if l.Debug {
		fmt.Fprintf(os.Stdout, color.CyanString("[debug] ")+msg+"\n", args...)
	}
}

// Warnf prints a warning to stderr.
func (l Logger) Warnf(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, color.YellowString("[warn] ")+msg+"\n", args...)
}

// Errorf prints an error to stderr.
func (l Logger) Errorf(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, color.RedString("[error] ")+msg+"\n", args...)
}

// ErrorfAndReturn prints an error to stderr and returns it, so command
// handlers can log and propagate in one step.
func (l Logger) ErrorfAndReturn(msg string, args ...any) error {
	err := fmt.Errorf(msg, args...)
	l.Errorf("%v", err)
	return err
}
