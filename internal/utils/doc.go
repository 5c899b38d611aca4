// Package utils holds small filesystem and terminal helpers shared
// across latchkey's internal packages.
package utils
