package compare

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
)

// RemoveMatchingLines rewrites filename in place without the lines matching
// pattern. The remaining lines keep their order and line terminators.
func RemoveMatchingLines(filename, pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid regular expression '%s': %w", pattern, err)
	}
	return RemoveLinesMatching(filename, re)
}

// RemoveLinesMatching is RemoveMatchingLines with a compiled expression.
func RemoveLinesMatching(filename string, re *regexp.Regexp) error {
	info, err := os.Stat(filename)
	if err != nil {
		return fmt.Errorf("could not open file '%s' for reading", filename)
	}

	in, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("could not open file '%s' for reading", filename)
	}
	var kept bytes.Buffer
	r := bufio.NewReader(in)
	for {
		line, err := r.ReadBytes('\n')
		if len(line) > 0 && !re.Match(bytes.TrimRight(line, "\r\n")) {
			kept.Write(line)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			_ = in.Close()
			return fmt.Errorf("could not read file '%s': %w", filename, err)
		}
	}
	_ = in.Close()

	if err := os.WriteFile(filename, kept.Bytes(), info.Mode().Perm()); err != nil {
		return fmt.Errorf("could not open file '%s' for writing", filename)
	}
	return nil
}
