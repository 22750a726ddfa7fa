package sink

import (
	"os"

	"github.com/pkg/errors"

	"github.com/btcarb/tickerplant/internal/tick"
)

// File appends ticks or raw messages to an append-only log file. The same
// sink serves both handler contracts: LogTick writes the fixed-size binary
// record, LogRaw writes the raw document line. A write failure is returned
// to the plant and stops the run; a full disk must not silently drop data.
type File struct {
	f   *os.File
	buf []byte
}

// NewFile opens the log file for appending, creating it if necessary.
func NewFile(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "not able to open sink file %v", path)
	}
	return &File{f: f}, nil
}

// LogTick appends the binary encoding of a tick.
func (s *File) LogTick(t tick.Tick) error {
	s.buf = tick.EncodeRecord(s.buf, t)
	if _, err := s.f.Write(s.buf); err != nil {
		return errors.Wrap(err, "flat sink write")
	}
	return nil
}

// LogRaw appends one raw message as a line.
func (s *File) LogRaw(raw []byte) error {
	if _, err := s.f.Write(raw); err != nil {
		return errors.Wrap(err, "raw sink write")
	}
	if len(raw) == 0 || raw[len(raw)-1] != '\n' {
		if _, err := s.f.Write([]byte{'\n'}); err != nil {
			return errors.Wrap(err, "raw sink write")
		}
	}
	return nil
}

// Close closes the log file.
func (s *File) Close() error {
	return s.f.Close()
}
