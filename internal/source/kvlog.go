package source

import (
	"context"
	"io"

	"github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"
)

// KVLog replays raw messages from an existing key-value log, iterating all
// records in key order from the first key. Keys are the decimal receive
// timestamps written by the kv sink, so key order is capture order.
type KVLog struct {
	db  *badger.DB
	txn *badger.Txn
	it  *badger.Iterator
}

// NewKVLog opens an existing key-value log read-only. A missing log is a
// configuration error, not a transient condition, so the open fails.
func NewKVLog(path string) (*KVLog, error) {
	opts := badger.DefaultOptions(path).WithReadOnly(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "not able to open kv log %v", path)
	}
	txn := db.NewTransaction(false)
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	it.Rewind()
	return &KVLog{db: db, txn: txn, it: it}, nil
}

// Next yields the value of the next record, or io.EOF when the log is
// exhausted.
func (s *KVLog) Next(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	if !s.it.Valid() {
		return nil, io.EOF
	}
	val, err := s.it.Item().ValueCopy(nil)
	if err != nil {
		return nil, errors.Wrap(err, "kv log read")
	}
	s.it.Next()
	return val, nil
}

// Close releases the iterator and closes the log.
func (s *KVLog) Close() error {
	s.it.Close()
	s.txn.Discard()
	return s.db.Close()
}
