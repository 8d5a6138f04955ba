package config

import (
	"context"

	"github.com/vmihailenco/msgpack/v5"

	cerrors "github.com/vk/taskgrid/internal/errors"
)

// Snapshot is the configuration handed to a standalone worker along with a
// job, so the worker sees the settings that were current at dispatch time.
type Snapshot struct {
	Execution  Execution         `msgpack:"execution"`
	Properties map[string]string `msgpack:"properties,omitempty"`
}

// Encode serializes the snapshot.
func (s Snapshot) Encode() ([]byte, error) {
	data, err := msgpack.Marshal(s)
	if err != nil {
		return nil, cerrors.ErrSnapshot.GenWithStackByArgs("encode", err)
	}
	return data, nil
}

// DecodeSnapshot restores a snapshot produced by Encode.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return Snapshot{}, cerrors.ErrSnapshot.GenWithStackByArgs("decode", err)
	}
	return s, nil
}

type snapshotKey struct{}

// WithSnapshot stores s on ctx for the task function to read.
func WithSnapshot(ctx context.Context, s Snapshot) context.Context {
	return context.WithValue(ctx, snapshotKey{}, s)
}

// SnapshotFromContext returns the snapshot stored on ctx, if any.
func SnapshotFromContext(ctx context.Context) (Snapshot, bool) {
	s, ok := ctx.Value(snapshotKey{}).(Snapshot)
	return s, ok
}
