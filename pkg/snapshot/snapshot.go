// Package snapshot dumps raw store documents to a CBOR file and restores
// them. A snapshot is taken before a repair rewrites documents so the
// previous values can be put back.
package snapshot

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"reflect"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/surrealdb/sitecontent/pkg/docstore"
)

// FormatVersion is written in every manifest.
const FormatVersion = 1

// Manifest describes a snapshot.
type Manifest struct {
	Version   int       `cbor:"version"`
	CreatedAt time.Time `cbor:"created_at"`
	// Reason is free text, e.g. "before repair".
	Reason string `cbor:"reason,omitempty"`
	// Counts holds the number of documents per collection.
	Counts map[string]int `cbor:"counts"`
	// SHA256 of the CBOR encoded Collections.
	SHA256 string `cbor:"sha256"`
}

// Validate validates the manifest fields for consistency and completeness.
func (m *Manifest) Validate() error {
	if m.Version != FormatVersion {
		return fmt.Errorf("unsupported snapshot version: %d", m.Version)
	}
	if m.CreatedAt.IsZero() {
		return fmt.Errorf("manifest missing creation time")
	}
	if m.SHA256 == "" {
		return fmt.Errorf("manifest missing checksum")
	}
	return nil
}

// Document is a raw store document.
type Document struct {
	ID     string         `cbor:"id"`
	Fields map[string]any `cbor:"fields"`
}

type Snapshot struct {
	Manifest    Manifest              `cbor:"manifest"`
	Collections map[string][]Document `cbor:"collections"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.EncOptions{
		Sort:    cbor.SortCanonical,
		Time:    cbor.TimeRFC3339Nano,
		TimeTag: cbor.EncTagRequired,
	}.EncMode()
	if err != nil {
		panic(err)
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

// Take reads every document of collections.
func Take(ctx context.Context, store docstore.Store, collections []string, reason string, now time.Time) (*Snapshot, error) {
	snap := &Snapshot{
		Manifest: Manifest{
			Version:   FormatVersion,
			CreatedAt: now.UTC(),
			Reason:    reason,
			Counts:    make(map[string]int, len(collections)),
		},
		Collections: make(map[string][]Document, len(collections)),
	}
	for _, coll := range collections {
		docs, err := store.GetAll(ctx, coll)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", coll, err)
		}
		out := make([]Document, 0, len(docs))
		for _, d := range docs {
			out = append(out, Document{ID: d.ID, Fields: d.Fields})
		}
		snap.Collections[coll] = out
		snap.Manifest.Counts[coll] = len(out)
	}
	return snap, nil
}

// Encode writes snap, filling in the checksum.
func Encode(w io.Writer, snap *Snapshot) error {
	body, err := encMode.Marshal(snap.Collections)
	if err != nil {
		return fmt.Errorf("failed to marshal documents: %w", err)
	}
	sum := sha256.Sum256(body)
	snap.Manifest.SHA256 = hex.EncodeToString(sum[:])

	if err := encMode.NewEncoder(w).Encode(snap); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// Decode reads a snapshot and verifies its manifest and checksum.
func Decode(r io.Reader) (*Snapshot, error) {
	var snap Snapshot
	if err := decMode.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if err := snap.Manifest.Validate(); err != nil {
		return nil, err
	}

	body, err := encMode.Marshal(snap.Collections)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal documents: %w", err)
	}
	sum := sha256.Sum256(body)
	if hex.EncodeToString(sum[:]) != snap.Manifest.SHA256 {
		return nil, fmt.Errorf("snapshot checksum mismatch")
	}
	return &snap, nil
}

// Marshal is Encode into a byte slice.
func Marshal(snap *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, snap); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Restore writes every document back with a full overwrite. Documents
// created after the snapshot are left alone. It returns the number of
// documents written.
func Restore(ctx context.Context, store docstore.Store, snap *Snapshot) (int, error) {
	n := 0
	for coll, docs := range snap.Collections {
		for _, d := range docs {
			if err := store.Set(ctx, coll, d.ID, d.Fields); err != nil {
				return n, fmt.Errorf("failed to restore %s/%s: %w", coll, d.ID, err)
			}
			n++
		}
	}
	return n, nil
}

// Name returns the file name of a snapshot created at t.
func Name(t time.Time) string {
	return "sitecontent-" + t.UTC().Format("20060102T150405.000000000Z") + ".cbor"
}
