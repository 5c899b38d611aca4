package utils

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// IsTerminal returns true if stdin is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// PromptLine prints prompt to stderr and reads one line from stdin.
// Returns an error if stdin is not a terminal, so non-interactive runs
// fail fast instead of hanging on input that will never arrive.
func PromptLine(prompt string) (string, error) {
	if !IsTerminal() {
		return "", fmt.Errorf("cannot prompt: stdin is not a terminal")
	}

	fmt.Fprint(os.Stderr, prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
