// Package history keeps a bounded bbolt journal of connectivity transitions
// and probe results.
package history

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.etcd.io/bbolt"
	bolterrors "go.etcd.io/bbolt/errors"
	"go.uber.org/zap"

	"github.com/Suveerkh/CareerMate/internal/connectivity"
)

const (
	// FileName is the journal file inside the data directory
	FileName = "history.db"

	TransitionsBucket = "transitions"
	ProbesBucket      = "probes"
	MetaBucket        = "meta"

	SchemaVersionKey     = "schema_version"
	CurrentSchemaVersion = uint64(1)

	// DefaultMaxRecords bounds each bucket
	DefaultMaxRecords = 5000
)

// ErrInUse is returned when another process holds the journal open
var ErrInUse = errors.New("history database is in use by another process")

// Kind selects which journal to read
type Kind string

const (
	KindTransition Kind = "transition"
	KindProbe      Kind = "probe"
)

// Record is one journal entry. Transition and probe fields are mutually exclusive.
type Record struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id,omitempty"`

	From  string `json:"from,omitempty"`
	To    string `json:"to,omitempty"`
	Event string `json:"event,omitempty"`

	Endpoint   string `json:"endpoint,omitempty"`
	URL        string `json:"url,omitempty"`
	Tier       string `json:"tier,omitempty"`
	Outcome    string `json:"outcome,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	Cause      string `json:"cause,omitempty"`
	LatencyMs  int64  `json:"latency_ms,omitempty"`
}

// Options tune the store
type Options struct {
	SessionID  string
	MaxRecords int
	ReadOnly   bool
	Timeout    time.Duration
}

// Store wraps the bbolt journal
type Store struct {
	db         *bbolt.DB
	logger     *zap.SugaredLogger
	sessionID  string
	maxRecords int

	mu sync.Mutex
}

// Open opens or creates the journal in dataDir
func Open(dataDir string, logger *zap.Logger, opts Options) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxRecords <= 0 {
		opts.MaxRecords = DefaultMaxRecords
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Second
	}

	if !opts.ReadOnly {
		if err := os.MkdirAll(dataDir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	dbPath := filepath.Join(dataDir, FileName)
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{
		Timeout:  opts.Timeout,
		ReadOnly: opts.ReadOnly,
	})
	if err != nil {
		if errors.Is(err, bolterrors.ErrTimeout) {
			return nil, ErrInUse
		}
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	s := &Store{
		db:         db,
		logger:     logger.Sugar().Named("history"),
		sessionID:  opts.SessionID,
		maxRecords: opts.MaxRecords,
	}

	if !opts.ReadOnly {
		if err := s.initBuckets(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize buckets: %w", err)
		}
	}

	return s, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.db.Path()
}

func (s *Store) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range []string{TransitionsBucket, ProbesBucket, MetaBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}

		versionBytes := make([]byte, 8)
		binary.LittleEndian.PutUint64(versionBytes, CurrentSchemaVersion)
		return tx.Bucket([]byte(MetaBucket)).Put([]byte(SchemaVersionKey), versionBytes)
	})
}

// RecordTransition journals a state change
func (s *Store) RecordTransition(t connectivity.Transition) error {
	return s.put(KindTransition, &Record{
		Timestamp: t.Timestamp,
		From:      string(t.From),
		To:        string(t.To),
		Event:     string(t.Event),
		URL:       t.Endpoint,
	})
}

// RecordProbe journals a probe result
func (s *Store) RecordProbe(p connectivity.ProbeRecord) error {
	return s.put(KindProbe, &Record{
		Timestamp:  p.Timestamp,
		Endpoint:   p.Endpoint.Name,
		URL:        p.Endpoint.URL,
		Tier:       p.Endpoint.Tier.String(),
		Outcome:    string(p.Outcome.Kind),
		StatusCode: p.Outcome.StatusCode,
		Cause:      string(p.Outcome.Cause),
		LatencyMs:  p.Outcome.Latency.Milliseconds(),
	})
}

// List returns up to limit records of kind, newest first. limit <= 0 means all.
func (s *Store) List(kind Kind, limit int) ([]Record, error) {
	bucketName, err := bucketFor(kind)
	if err != nil {
		return nil, err
	}

	var records []Record
	err = s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		if bucket == nil {
			return nil
		}

		cursor := bucket.Cursor()
		for k, v := cursor.Last(); k != nil; k, v = cursor.Prev() {
			var r Record
			if err := json.Unmarshal(v, &r); err != nil {
				s.logger.Warnw("Failed to unmarshal history record", "key", string(k), "error", err)
				continue
			}
			records = append(records, r)
			if limit > 0 && len(records) >= limit {
				break
			}
		}
		return nil
	})
	return records, err
}

// Count returns the number of records of kind
func (s *Store) Count(kind Kind) (int, error) {
	bucketName, err := bucketFor(kind)
	if err != nil {
		return 0, err
	}

	var n int
	err = s.db.View(func(tx *bbolt.Tx) error {
		if meta := tx.Bucket([]byte(MetaBucket)); meta != nil {
			n = readCount(meta, bucketName)
		}
		return nil
	})
	return n, err
}

func (s *Store) put(kind Kind, record *Record) error {
	bucketName, err := bucketFor(kind)
	if err != nil {
		return err
	}

	record.ID = ulid.Make().String()
	record.Kind = kind
	record.SessionID = s.sessionID
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	record.Timestamp = record.Timestamp.UTC()

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal history record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketName, err)
		}
		if err := bucket.Put(recordKey(record.Timestamp, record.ID), data); err != nil {
			return fmt.Errorf("failed to store history record: %w", err)
		}

		meta, err := tx.CreateBucketIfNotExists([]byte(MetaBucket))
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", MetaBucket, err)
		}
		n := readCount(meta, bucketName) + 1
		n -= prune(bucket, n-s.maxRecords)
		return writeCount(meta, bucketName, n)
	})
}

// recordKey orders records chronologically: {20-digit unix nanos}_{ulid}
func recordKey(ts time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%020d_%s", ts.UnixNano(), id))
}

// prune deletes up to excess of the oldest records and returns how many went
func prune(bucket *bbolt.Bucket, excess int) int {
	deleted := 0
	cursor := bucket.Cursor()
	for k, _ := cursor.First(); k != nil && deleted < excess; k, _ = cursor.First() {
		if err := cursor.Delete(); err != nil {
			break
		}
		deleted++
	}
	return deleted
}

func countKey(bucketName string) []byte {
	return []byte("count_" + bucketName)
}

func readCount(meta *bbolt.Bucket, bucketName string) int {
	v := meta.Get(countKey(bucketName))
	if len(v) != 8 {
		return 0
	}
	return int(binary.LittleEndian.Uint64(v))
}

func writeCount(meta *bbolt.Bucket, bucketName string, n int) error {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(n))
	return meta.Put(countKey(bucketName), buf)
}

func bucketFor(kind Kind) (string, error) {
	switch kind {
	case KindTransition:
		return TransitionsBucket, nil
	case KindProbe:
		return ProbesBucket, nil
	default:
		return "", fmt.Errorf("unknown history kind %q", kind)
	}
}
