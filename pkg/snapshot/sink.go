package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ErrNotExist is returned by a Sink when the named snapshot does not exist.
var ErrNotExist = errors.New("snapshot does not exist")

// Sink stores encoded snapshots by name.
type Sink interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
	// List returns snapshot names in ascending order.
	List(ctx context.Context) ([]string, error)
}

// DirSink keeps snapshots in a local directory.
type DirSink struct {
	Dir string
}

func (s DirSink) Put(_ context.Context, name string, data []byte) error {
	if err := os.MkdirAll(s.Dir, 0o750); err != nil {
		return fmt.Errorf("failed to create snapshot dir: %w", err)
	}
	path := filepath.Join(s.Dir, filepath.Base(name))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return os.Rename(tmp, path)
}

func (s DirSink) Get(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir, filepath.Base(name)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, name)
	}
	return data, err
}

func (s DirSink) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	names := []string{}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".cbor") {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

// Save encodes snap and stores it under Name(snap.Manifest.CreatedAt).
func Save(ctx context.Context, sink Sink, snap *Snapshot) (string, error) {
	data, err := Marshal(snap)
	if err != nil {
		return "", err
	}
	name := Name(snap.Manifest.CreatedAt)
	if err := sink.Put(ctx, name, data); err != nil {
		return "", err
	}
	return name, nil
}

// Load fetches and decodes a snapshot. An empty name loads the latest one.
func Load(ctx context.Context, sink Sink, name string) (*Snapshot, error) {
	if name == "" {
		names, err := sink.List(ctx)
		if err != nil {
			return nil, err
		}
		if len(names) == 0 {
			return nil, ErrNotExist
		}
		name = names[len(names)-1]
	}
	data, err := sink.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return Decode(bytes.NewReader(data))
}
