package source

import (
	"context"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/btcarb/tickerplant/internal/tick"
)

// FlatFile replays a flat append-only log of fixed-size binary tick
// records, reading sequentially until end of file. A trailing partial
// record is treated as end of stream, the format carries no validity
// marker to recover from.
type FlatFile struct {
	f *os.File
}

// NewFlatFile opens an existing flat tick log for reading.
func NewFlatFile(path string) (*FlatFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "not able to open flat tick log %v", path)
	}
	return &FlatFile{f: f}, nil
}

// Next reads the next fixed-size record.
func (s *FlatFile) Next(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	rec := make([]byte, tick.RecordSize)
	if _, err := io.ReadFull(s.f, rec); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, errors.Wrap(err, "flat tick log read")
	}
	return rec, nil
}

// Close closes the log file.
func (s *FlatFile) Close() error {
	return s.f.Close()
}
