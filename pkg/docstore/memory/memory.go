// Package memory provides an in-process [docstore.Store].
//
// Values are stored with the exact Go types they were written with, which
// makes it suitable for reproducing drifted documents in tests. Fetch order is
// insertion order. Failures can be injected per operation and id.
package memory

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/surrealdb/sitecontent/pkg/docstore"
)

// Op names a store operation for fault injection.
type Op string

const (
	OpGetAll Op = "getAll"
	OpGetOne Op = "getOne"
	OpAdd    Op = "add"
	OpSet    Op = "set"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpQuery  Op = "query"
)

// FailFunc decides whether an operation fails. A nil return lets it proceed.
// id is empty for collection-wide operations.
type FailFunc func(op Op, collection, id string) error

// Option configures a Store.
type Option func(*Store)

// WithFailures installs a fault injector.
func WithFailures(fn FailFunc) Option {
	return func(s *Store) { s.fail = fn }
}

// WithIDGenerator replaces the uuid based id generator used by Add.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

type collection struct {
	ids  []string
	docs map[string]map[string]any
}

// Store is an in-memory document store. It is safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
	fail        FailFunc
	newID       func() string
	writes      atomic.Int64
}

var _ docstore.Store = (*Store)(nil)

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		collections: make(map[string]*collection),
		newID:       func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Writes reports how many successful Add, Set, Update and Delete calls the
// store has served.
func (s *Store) Writes() int64 {
	return s.writes.Load()
}

// Seed stores a document verbatim under id, bypassing fault injection and the
// write counter. Tests use it to plant drifted records.
func (s *Store) Seed(coll, id string, fields map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(coll, id, docstore.CloneFields(fields))
}

// Raw returns the stored fields of a document without any conversion.
func (s *Store) Raw(coll, id string) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[coll]
	if !ok {
		return nil, false
	}
	f, ok := c.docs[id]
	if !ok {
		return nil, false
	}
	return docstore.CloneFields(f), true
}

func (s *Store) check(op Op, coll, id string) error {
	if s.fail == nil {
		return nil
	}
	return s.fail(op, coll, id)
}

// put must be called with mu held for writing.
func (s *Store) put(coll, id string, fields map[string]any) {
	c, ok := s.collections[coll]
	if !ok {
		c = &collection{docs: make(map[string]map[string]any)}
		s.collections[coll] = c
	}
	if _, exists := c.docs[id]; !exists {
		c.ids = append(c.ids, id)
	}
	c.docs[id] = fields
}

func (s *Store) GetAll(ctx context.Context, coll string) ([]docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.check(OpGetAll, coll, ""); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot(coll), nil
}

func (s *Store) snapshot(coll string) []docstore.Document {
	c, ok := s.collections[coll]
	if !ok {
		return []docstore.Document{}
	}
	out := make([]docstore.Document, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, docstore.Document{ID: id, Fields: docstore.CloneFields(c.docs[id])})
	}
	return out
}

func (s *Store) GetOne(ctx context.Context, coll, id string) (*docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.check(OpGetOne, coll, id); err != nil {
		return nil, err
	}
	fields, ok := s.Raw(coll, id)
	if !ok {
		return nil, docstore.ErrNotFound
	}
	return &docstore.Document{ID: id, Fields: fields}, nil
}

func (s *Store) Add(ctx context.Context, coll string, fields map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := s.newID()
	if err := s.check(OpAdd, coll, id); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(coll, id, docstore.CloneFields(fields))
	s.writes.Add(1)
	return id, nil
}

func (s *Store) Set(ctx context.Context, coll, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.check(OpSet, coll, id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(coll, id, docstore.CloneFields(fields))
	s.writes.Add(1)
	return nil
}

func (s *Store) Update(ctx context.Context, coll, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.check(OpUpdate, coll, id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[coll]
	if !ok {
		return docstore.ErrNotFound
	}
	current, ok := c.docs[id]
	if !ok {
		return docstore.ErrNotFound
	}
	merged := docstore.CloneFields(current)
	for k, v := range docstore.CloneFields(fields) {
		merged[k] = v
	}
	c.docs[id] = merged
	s.writes.Add(1)
	return nil
}

func (s *Store) Delete(ctx context.Context, coll, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.check(OpDelete, coll, id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes.Add(1)
	c, ok := s.collections[coll]
	if !ok {
		return nil
	}
	if _, ok := c.docs[id]; !ok {
		return nil
	}
	delete(c.docs, id)
	for i, existing := range c.ids {
		if existing == id {
			c.ids = append(c.ids[:i], c.ids[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) Query(ctx context.Context, coll string, filter *docstore.Equals, orderBy string) ([]docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.check(OpQuery, coll, ""); err != nil {
		return nil, err
	}
	s.mu.RLock()
	all := s.snapshot(coll)
	s.mu.RUnlock()

	matched := make([]docstore.Document, 0, len(all))
	for _, d := range all {
		if docstore.MatchEquals(d.Fields, filter) {
			matched = append(matched, d)
		}
	}
	return docstore.SortByField(matched, orderBy), nil
}

func (s *Store) Close(context.Context) error {
	return nil
}
