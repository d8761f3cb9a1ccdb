package compare

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

// GzipLineBuffer is the size of the line buffer used when reading compressed
// files. Lines longer than GzipLineBuffer-1 bytes are compared in chunks.
const GzipLineBuffer = 1024

var gzipMagic = []byte{0x1f, 0x8b}

// GzipFiles compares two gzip compressed files line by line. Lines must be
// byte-identical after stripping trailing CR, LF and NUL characters, and both
// files must have the same number of lines. Files that are not gzip
// compressed are read as plain text.
func GzipFiles(actual, expected string) error {
	actual = absPath(actual)
	expected = absPath(expected)

	astream, err := openGzipLines(actual)
	if err != nil {
		return fmt.Errorf("could not open file '%s' for reading", actual)
	}
	defer astream.Close()
	estream, err := openGzipLines(expected)
	if err != nil {
		return fmt.Errorf("could not open file '%s' for reading", expected)
	}
	defer estream.Close()

	lineNr := 1
	for {
		aline, aok, err := astream.next()
		if err != nil {
			return fmt.Errorf("could not read file '%s': %w", actual, err)
		}
		eline, eok, err := estream.next()
		if err != nil {
			return fmt.Errorf("could not read file '%s': %w", expected, err)
		}
		if !aok || !eok {
			switch {
			case aok:
				return fmt.Errorf("actual file '%s' has more lines than expected file '%s'", actual, expected)
			case eok:
				return fmt.Errorf("actual file '%s' has less lines than expected file '%s'", actual, expected)
			}
			return nil
		}
		if !bytes.Equal(aline, eline) {
			return &LineDiff{Line: lineNr, Actual: string(aline), Expected: string(eline)}
		}
		lineNr++
	}
}

type gzipLines struct {
	file *os.File
	gz   *gzip.Reader
	r    *bufio.Reader
}

func openGzipLines(path string) (*gzipLines, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	src := bufio.NewReader(f)
	l := &gzipLines{file: f}
	magic, _ := src.Peek(len(gzipMagic))
	if bytes.Equal(magic, gzipMagic) {
		gz, err := gzip.NewReader(src)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		l.gz = gz
		l.r = bufio.NewReaderSize(gz, GzipLineBuffer-1)
	} else {
		// hide src's own (larger) buffer so the line bound applies
		l.r = bufio.NewReaderSize(struct{ io.Reader }{src}, GzipLineBuffer-1)
	}
	return l, nil
}

// next returns the next line (or line chunk) with trailing CR/LF/NUL removed.
// ok is false once the stream is exhausted.
func (l *gzipLines) next() (line []byte, ok bool, err error) {
	chunk, err := l.r.ReadSlice('\n')
	switch {
	case err == nil, errors.Is(err, bufio.ErrBufferFull):
	case errors.Is(err, io.EOF):
		if len(chunk) == 0 {
			return nil, false, nil
		}
	default:
		return nil, false, err
	}
	return bytes.TrimRight(chunk, "\r\n\x00"), true, nil
}

func (l *gzipLines) Close() error {
	if l.gz != nil {
		_ = l.gz.Close()
	}
	return l.file.Close()
}
