package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileContains reports whether the file at path contains substr.
// A missing file simply does not contain anything.
func FileContains(path, substr string) (bool, error) {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	return strings.Contains(string(content), substr), nil
}

// AppendLineOnce appends line to the file at path unless the file already
// contains guard. The file is created (with its parent directory) if it
// does not exist. Returns true if the line was appended.
//
// This is a substring guard, not a merge: the guard must be a stable
// fragment of the appended line so reruns converge without duplicates.
func AppendLineOnce(path, guard, line string) (bool, error) {
	found, err := FileContains(path, guard)
	if err != nil {
		return false, err
	}
	if found {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return false, fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return false, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	if _, err := f.WriteString(line); err != nil {
		return false, fmt.Errorf("appending to %s: %w", path, err)
	}
	return true, nil
}

// ExpandHome replaces a leading ~ or ~/ with the user's home directory.
func ExpandHome(path string) string {
	if path == "~" {
		return HomeDir()
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(HomeDir(), path[2:])
	}
	return path
}

// HomeDir returns the user's home directory, preferring $HOME so tests
// and restricted environments can redirect it.
func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
