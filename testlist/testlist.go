// Package testlist decides which test methods of a run are executed.
package testlist

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Filter selects methods by qualified name "<case>::<method>". The zero value
// selects everything.
type Filter struct {
	// Substring must occur in the qualified name.
	Substring string
	// Allow, when not empty, lists the qualified names to run. Entries may
	// carry a trailing "()".
	Allow []string
}

// Matches reports whether the method with the given qualified name is run.
func (f Filter) Matches(qualified string) bool {
	if !strings.Contains(qualified, f.Substring) {
		return false
	}
	if len(f.Allow) == 0 {
		return true
	}
	for _, entry := range f.Allow {
		if entry == qualified || entry == qualified+"()" {
			return true
		}
	}
	return false
}

// LoadFile reads an allow list: one qualified name per line, surrounding
// whitespace trimmed, blank lines and lines starting with '#' ignored.
func LoadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open test list: %w", err)
	}
	defer f.Close()

	var entries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read test list %s: %w", path, err)
	}
	return entries, nil
}
