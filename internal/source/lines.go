package source

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/pkg/errors"
)

// Lines replays raw feed messages from a file of newline-delimited JSON
// documents, one message per line.
type Lines struct {
	f  *os.File
	sc *bufio.Scanner
}

// NewLines opens an existing raw message log for reading.
func NewLines(path string) (*Lines, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "not able to open raw message log %v", path)
	}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &Lines{f: f, sc: sc}, nil
}

// Next yields the next line.
func (s *Lines) Next(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	for s.sc.Scan() {
		line := s.sc.Bytes()
		if len(line) == 0 {
			continue
		}
		out := make([]byte, len(line))
		copy(out, line)
		return out, nil
	}
	if err := s.sc.Err(); err != nil {
		return nil, errors.Wrap(err, "raw message log read")
	}
	return nil, io.EOF
}

// Close closes the log file.
func (s *Lines) Close() error {
	return s.f.Close()
}
