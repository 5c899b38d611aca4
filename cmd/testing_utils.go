// Package cmd testing utilities shared between command tests: output
// capture and global-state reset around command execution.
package cmd

import (
	"bytes"
	"io"
	"os"
)

// captureOutput captures both stdout and stderr during function execution.
func captureOutput(fn func() error) (string, error) {
	originalStdout := os.Stdout
	originalStderr := os.Stderr

	stdoutReader, stdoutWriter, _ := os.Pipe()
	stderrReader, stderrWriter, _ := os.Pipe()

	os.Stdout = stdoutWriter
	os.Stderr = stderrWriter

	outputChan := make(chan string, 2)
	go func() {
		var buf bytes.Buffer
		io.Copy(&buf, stdoutReader) //nolint:errcheck
		outputChan <- buf.String()
	}()
	go func() {
		var buf bytes.Buffer
		io.Copy(&buf, stderrReader) //nolint:errcheck
		outputChan <- buf.String()
	}()

	err := fn()

	stdoutWriter.Close()
	stderrWriter.Close()
	os.Stdout = originalStdout
	os.Stderr = originalStderr

	return <-outputChan + <-outputChan, err
}
