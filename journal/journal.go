package journal

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/gagliardetto/solana-go"
)

const (
	KeyNamespaceRecord uint16 = 1 // [ns][signature] -> record
	KeyNamespaceOrder  uint16 = 2 // [ns][submit time][signature] -> empty
)

// Value format: [version (8 bytes)] [timestamp (8 bytes)] [json record]
const valueHeaderSize = 16

const recordVersion uint64 = 1

type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

type Record struct {
	Signature string    `json:"signature"`
	Method    string    `json:"method"`
	Cluster   string    `json:"cluster"`
	Submitted time.Time `json:"submitted"`
	Status    Status    `json:"status"`
	Slot      uint64    `json:"slot,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Store is a local, append mostly log of the transactions sent by this client.
type Store struct {
	db     *pebble.DB
	mutex  sync.Mutex
	closed bool
}

var ErrClosed = errors.New("journal closed")

func Open(path string, cacheSizeMb int) (*Store, error) {
	return OpenWithOptions(path, cacheSizeMb, nil)
}

// OpenWithOptions allows overriding pebble options (eg. an in-memory fs).
func OpenWithOptions(path string, cacheSizeMb int, opts *pebble.Options) (*Store, error) {
	if opts == nil {
		opts = &pebble.Options{}
	}
	if cacheSizeMb > 0 {
		cache := pebble.NewCache(int64(cacheSizeMb * 1024 * 1024))
		defer cache.Unref()
		opts.Cache = cache
	}

	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("could not open journal %v: %w", path, err)
	}

	return &Store{
		db: db,
	}, nil
}

func (s *Store) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func makeRecordKey(signature solana.Signature) []byte {
	key := make([]byte, 2+len(signature))
	binary.BigEndian.PutUint16(key[:2], KeyNamespaceRecord)
	copy(key[2:], signature[:])
	return key
}

func makeOrderKey(submitted time.Time, signature solana.Signature) []byte {
	key := make([]byte, 2+8+len(signature))
	binary.BigEndian.PutUint16(key[:2], KeyNamespaceOrder)
	binary.BigEndian.PutUint64(key[2:10], uint64(submitted.UnixNano()))
	copy(key[10:], signature[:])
	return key
}

func makeNamespaceRange(namespace uint16) ([]byte, []byte) {
	start := make([]byte, 2)
	binary.BigEndian.PutUint16(start, namespace)
	end := make([]byte, 2)
	binary.BigEndian.PutUint16(end, namespace+1)
	return start, end
}

func encodeRecord(record *Record) ([]byte, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}

	value := make([]byte, valueHeaderSize+len(data))
	binary.BigEndian.PutUint64(value[:8], recordVersion)
	binary.BigEndian.PutUint64(value[8:16], uint64(time.Now().UnixNano()))
	copy(value[valueHeaderSize:], data)
	return value, nil
}

func decodeRecord(value []byte) (*Record, error) {
	if len(value) < valueHeaderSize {
		return nil, fmt.Errorf("journal value too short")
	}
	if version := binary.BigEndian.Uint64(value[:8]); version != recordVersion {
		return nil, fmt.Errorf("unsupported journal record version %v", version)
	}

	record := &Record{}
	if err := json.Unmarshal(value[valueHeaderSize:], record); err != nil {
		return nil, err
	}
	return record, nil
}

// Add stores a new record; an existing record for the same signature is replaced.
func (s *Store) Add(record *Record) error {
	signature, err := solana.SignatureFromBase58(record.Signature)
	if err != nil {
		return fmt.Errorf("invalid signature %q: %w", record.Signature, err)
	}
	if record.Submitted.IsZero() {
		record.Submitted = time.Now()
	}
	if record.Status == "" {
		record.Status = StatusSubmitted
	}

	value, err := encodeRecord(record)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return ErrClosed
	}

	batch := s.db.NewBatch()
	defer batch.Close()

	if old, err := s.get(signature); err == nil && old != nil {
		if err := batch.Delete(makeOrderKey(old.Submitted, signature), nil); err != nil {
			return err
		}
	}
	if err := batch.Set(makeRecordKey(signature), value, nil); err != nil {
		return err
	}
	if err := batch.Set(makeOrderKey(record.Submitted, signature), nil, nil); err != nil {
		return err
	}

	return batch.Commit(pebble.Sync)
}

// UpdateStatus sets the outcome of a previously added record.
func (s *Store) UpdateStatus(signature solana.Signature, status Status, slot uint64, errText string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	record, err := s.get(signature)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("no journal record for %v", signature)
	}

	record.Status = status
	record.Slot = slot
	record.Error = errText

	value, err := encodeRecord(record)
	if err != nil {
		return err
	}
	return s.db.Set(makeRecordKey(signature), value, pebble.Sync)
}

// Get returns nil (without error) if the signature is unknown.
func (s *Store) Get(signature solana.Signature) (*Record, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.get(signature)
}

func (s *Store) get(signature solana.Signature) (*Record, error) {
	if s.closed {
		return nil, ErrClosed
	}

	res, closer, err := s.db.Get(makeRecordKey(signature))
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	return decodeRecord(res)
}

// List returns up to limit records, newest first. limit <= 0 returns all.
func (s *Store) List(limit int) ([]*Record, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	lower, upper := makeNamespaceRange(KeyNamespaceOrder)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: lower,
		UpperBound: upper,
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	records := []*Record{}
	for iter.Last(); iter.Valid(); iter.Prev() {
		if limit > 0 && len(records) >= limit {
			break
		}

		key := iter.Key()
		if len(key) != 2+8+64 {
			continue
		}

		var signature solana.Signature
		copy(signature[:], key[10:])

		record, err := s.get(signature)
		if err != nil {
			return nil, err
		}
		if record != nil {
			records = append(records, record)
		}
	}

	return records, iter.Error()
}

// Count returns the number of journal records.
func (s *Store) Count() (int, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return 0, ErrClosed
	}

	lower, upper := makeNamespaceRange(KeyNamespaceRecord)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: lower,
		UpperBound: upper,
	})
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	count := 0
	for iter.First(); iter.Valid(); iter.Next() {
		count++
	}
	return count, iter.Error()
}
