package sink

import (
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v3"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

// KV writes raw messages into a persistent key-value log, keyed by the
// ingestion timestamp as a decimal string. Replaying the log in key order
// reproduces the capture order.
type KV struct {
	db *badger.DB
}

// NewKV opens the key-value log for writing, creating it if necessary.
func NewKV(path string) (*KV, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "not able to open kv sink %v", path)
	}
	return &KV{db: db}, nil
}

// LogRaw stores one raw message. The key is the _received timestamp the
// parser stamped into the document, or the current time if absent.
func (s *KV) LogRaw(raw []byte) error {
	key := jsoniter.Get(raw, "_received").ToString()
	if key == "" {
		key = strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), raw)
	})
	if err != nil {
		return errors.Wrap(err, "kv sink write")
	}
	return nil
}

// Close closes the key-value log.
func (s *KV) Close() error {
	return s.db.Close()
}
