// Package compare implements the file comparisons used by assertions: a line
// oriented text diff with numeric tolerance, a gzip diff and in-place regex
// line removal. All functions report divergence and I/O problems as returned
// errors; a nil error means the inputs are considered equal.
package compare

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// TextFiles compares two text files line by line.
//
// Identical lines are skipped. With delta == 0 the first differing line is
// reported verbatim. Otherwise both lines are split on separator and the
// fields are compared pairwise: differing fields must both be numeric and
// differ by at most delta (absolute), or by at most delta percent of the
// expected value when deltaIsPercentage is set. Trailing content that is only
// whitespace is ignored; any other trailing content is a difference.
func TextFiles(actual, expected string, delta float64, deltaIsPercentage bool, separator rune) error {
	actual = absPath(actual)
	expected = absPath(expected)

	afile, err := os.Open(actual)
	if err != nil {
		return fmt.Errorf("could not open actual file '%s' for reading", actual)
	}
	defer afile.Close()
	efile, err := os.Open(expected)
	if err != nil {
		return fmt.Errorf("could not open expected file '%s' for reading", expected)
	}
	defer efile.Close()

	astream := newLineReader(afile)
	estream := newLineReader(efile)

	lineNr := 1
	for !astream.atEnd() && !estream.atEnd() {
		aline, err := astream.readLine()
		if err != nil {
			return fmt.Errorf("could not read actual file '%s': %w", actual, err)
		}
		eline, err := estream.readLine()
		if err != nil {
			return fmt.Errorf("could not read expected file '%s': %w", expected, err)
		}
		if aline != eline {
			if err := compareLine(lineNr, aline, eline, delta, deltaIsPercentage, separator); err != nil {
				return err
			}
		}
		lineNr++
	}

	arest, err := astream.rest()
	if err != nil {
		return fmt.Errorf("could not read actual file '%s': %w", actual, err)
	}
	if arest != "" {
		return fmt.Errorf("actual file '%s' contains more data than expected file '%s': %s", actual, expected, arest)
	}
	erest, err := estream.rest()
	if err != nil {
		return fmt.Errorf("could not read expected file '%s': %w", expected, err)
	}
	if erest != "" {
		return fmt.Errorf("expected file '%s' contains more data than actual file '%s': %s", expected, actual, erest)
	}
	return nil
}

func compareLine(lineNr int, aline, eline string, delta float64, deltaIsPercentage bool, separator rune) error {
	if delta == 0 {
		return &LineDiff{Line: lineNr, Actual: aline, Expected: eline}
	}

	sep := string(separator)
	aitems := strings.Split(aline, sep)
	eitems := strings.Split(eline, sep)
	if len(aitems) != len(eitems) {
		return &LineDiff{Line: lineNr, Reason: "different token count", Actual: aline, Expected: eline}
	}

	for i := range aitems {
		if aitems[i] == eitems[i] {
			continue
		}
		avalue, aerr := parseNumber(aitems[i])
		evalue, eerr := parseNumber(eitems[i])
		if aerr != nil || eerr != nil {
			return &LineDiff{Line: lineNr, Reason: "non-numeric difference", Actual: aline, Expected: eline}
		}

		diff := math.Abs(avalue - evalue)
		if deltaIsPercentage {
			// no guard for evalue == 0: the ratio becomes Inf or NaN and is reported
			rel := diff / evalue
			if math.IsNaN(rel) || rel > delta/100.0 {
				return &NumericDiff{Line: lineNr, Relative: true, Actual: avalue, Expected: evalue, Delta: rel}
			}
		} else if diff > delta {
			return &NumericDiff{Line: lineNr, Actual: avalue, Expected: evalue, Delta: diff}
		}
	}
	return nil
}

func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// LineDiff describes the first differing line of two files.
type LineDiff struct {
	Line     int
	Reason   string
	Actual   string
	Expected string
}

func (d *LineDiff) Error() string {
	header := fmt.Sprintf("Differing line %d", d.Line)
	if d.Reason != "" {
		header += " (" + d.Reason + ")"
	}
	return header + "\nactual   : " + d.Actual + "\nexpected : " + d.Expected
}

// NumericDiff describes a numeric field that is out of tolerance.
type NumericDiff struct {
	Line     int
	Relative bool
	Actual   float64
	Expected float64
	Delta    float64
}

func (d *NumericDiff) Error() string {
	kind, label := "absolute", "delta abs"
	if d.Relative {
		kind, label = "relative", "delta rel"
	}
	return fmt.Sprintf("Differing numeric value in line %d (%s difference too big)\nactual   : %s\nexpected : %s\n%s: %s",
		d.Line, kind, formatNumber(d.Actual), formatNumber(d.Expected), label, strconv.FormatFloat(d.Delta, 'g', 4, 64))
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// lineReader reads text lines and can tell whether data is left, which the
// lock-step loop needs before it reads the next pair.
type lineReader struct {
	r *bufio.Reader
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReader(r)}
}

func (l *lineReader) atEnd() bool {
	_, err := l.r.Peek(1)
	return err != nil
}

// readLine returns the next line without its terminator ("\n" or "\r\n").
func (l *lineReader) readLine() (string, error) {
	line, err := l.r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}

// rest returns the unread remainder with surrounding whitespace removed.
func (l *lineReader) rest() (string, error) {
	data, err := io.ReadAll(l.r)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
