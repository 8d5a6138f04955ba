// Package badger persists job and submission records in BadgerDB.
//
// Records are msgpack-encoded under "job/<id>" and "submission/<id>" keys.
package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"

	cerrors "github.com/vk/taskgrid/internal/errors"
	"github.com/vk/taskgrid/internal/job"
	"github.com/vk/taskgrid/internal/repository"
	"github.com/vk/taskgrid/internal/submission"
)

const (
	jobPrefix        = "job/"
	submissionPrefix = "submission/"
)

// Config holds the database options.
type Config struct {
	// Path is the database directory. Required unless InMemory is set.
	Path string
	// InMemory keeps everything in RAM, for tests.
	InMemory bool
	// SyncWrites fsyncs every commit.
	SyncWrites bool
	// Logger receives BadgerDB's internal logs. Nil silences them.
	Logger *slog.Logger
}

// DefaultConfig returns a persistent configuration rooted at path.
func DefaultConfig(path string) Config {
	return Config{Path: path, SyncWrites: true}
}

// InMemoryConfig returns a configuration for an ephemeral database.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Store is a repository.Store backed by BadgerDB.
type Store struct {
	db *badger.DB
}

var _ repository.Store = (*Store)(nil)

// Open opens (creating if needed) the database described by cfg.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, cerrors.ErrInvalidConfig.GenWithStackByArgs("record store path is required")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, cerrors.WrapError(cerrors.ErrStore, err, "create directory "+cfg.Path)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, cerrors.WrapError(cerrors.ErrStore, err, "open")
	}
	return &Store{db: db}, nil
}

func (s *Store) SaveJob(_ context.Context, rec job.Record) error {
	return s.put(jobPrefix+rec.ID, rec)
}

func (s *Store) Job(_ context.Context, id string) (job.Record, bool, error) {
	var rec job.Record
	ok, err := s.get(jobPrefix+id, &rec)
	return rec, ok, err
}

func (s *Store) Jobs(_ context.Context) ([]job.Record, error) {
	var out []job.Record
	err := s.scan(jobPrefix, func(val []byte) error {
		var rec job.Record
		if err := msgpack.Unmarshal(val, &rec); err != nil {
			return err
		}
		out = append(out, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	repository.SortJobs(out)
	return out, nil
}

func (s *Store) DeleteJob(_ context.Context, id string) error {
	return s.delete(jobPrefix + id)
}

func (s *Store) SaveSubmission(_ context.Context, rec submission.Record) error {
	return s.put(submissionPrefix+rec.ID, rec)
}

func (s *Store) Submission(_ context.Context, id string) (submission.Record, bool, error) {
	var rec submission.Record
	ok, err := s.get(submissionPrefix+id, &rec)
	return rec, ok, err
}

func (s *Store) Submissions(_ context.Context) ([]submission.Record, error) {
	var out []submission.Record
	err := s.scan(submissionPrefix, func(val []byte) error {
		var rec submission.Record
		if err := msgpack.Unmarshal(val, &rec); err != nil {
			return err
		}
		out = append(out, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	repository.SortSubmissions(out)
	return out, nil
}

func (s *Store) DeleteSubmission(_ context.Context, id string) error {
	return s.delete(submissionPrefix + id)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) put(key string, v any) error {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return cerrors.WrapError(cerrors.ErrStore, err, "encode "+key)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	return cerrors.WrapError(cerrors.ErrStore, err, "write "+key)
}

func (s *Store) get(key string, v any) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, v)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, cerrors.WrapError(cerrors.ErrStore, err, "read "+key)
	}
	return true, nil
}

func (s *Store) delete(key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	return cerrors.WrapError(cerrors.ErrStore, err, "delete "+key)
}

func (s *Store) scan(prefix string, fn func(val []byte) error) error {
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			if err := it.Item().Value(fn); err != nil {
				return err
			}
		}
		return nil
	})
	return cerrors.WrapError(cerrors.ErrStore, err, "scan "+prefix)
}
