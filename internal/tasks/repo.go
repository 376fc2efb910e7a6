package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/s1natex/minitodo/internal/storage"
)

// Repository loads and saves the whole task list as one snapshot.
// Load returns (nil, nil) when nothing has been saved yet.
type Repository interface {
	Load(ctx context.Context) ([]Task, error)
	Save(ctx context.Context, list []Task) error
}

// Slot is a key/value backend; see package storage.
type Slot interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// SnapshotRepo persists the list as a JSON array under StorageKey.
type SnapshotRepo struct {
	slot Slot
	key  string
}

func NewSnapshotRepo(slot Slot) *SnapshotRepo {
	return &SnapshotRepo{slot: slot, key: StorageKey}
}

// NewInMemoryRepo is a SnapshotRepo over process memory.
func NewInMemoryRepo() *SnapshotRepo {
	return NewSnapshotRepo(storage.NewMemory())
}

func (r *SnapshotRepo) Load(ctx context.Context) ([]Task, error) {
	data, err := r.slot.Get(ctx, r.key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", r.key, err)
	}
	return Decode(data)
}

func (r *SnapshotRepo) Save(ctx context.Context, list []Task) error {
	data, err := Encode(list)
	if err != nil {
		return fmt.Errorf("encode %s: %w", r.key, err)
	}
	if err := r.slot.Put(ctx, r.key, data); err != nil {
		return fmt.Errorf("write %s: %w", r.key, err)
	}
	return nil
}
