package content

import (
	"context"
	"slices"
	"strings"

	"github.com/surrealdb/sitecontent/pkg/coerce"
	"github.com/surrealdb/sitecontent/pkg/docstore"
	"github.com/surrealdb/sitecontent/pkg/models"
)

// Repository reads and writes one ordered collection.
//
// Entities returned by a Repository are always canonical. Writes store
// canonical types only, and every mutating write stamps updatedAt. Concurrent
// writers to the same document follow last-writer-wins.
type Repository[E models.Entity] struct {
	store      docstore.Store
	collection string
	schema     schema
	decode     func(docstore.Document) E
	opts       options
}

// NewProjects returns the repository of the projects collection.
func NewProjects(store docstore.Store, opts ...Option) *Repository[models.Project] {
	return &Repository[models.Project]{
		store:      store,
		collection: models.CollectionProjects,
		schema:     projectSchema,
		decode:     decodeProject,
		opts:       newOptions(opts),
	}
}

// Collection returns the store collection name.
func (r *Repository[E]) Collection() string {
	return r.collection
}

// List returns every entity sorted by ascending order. Entities with equal
// order keep the store's fetch order. An empty collection yields an empty,
// non-nil slice.
func (r *Repository[E]) List(ctx context.Context) ([]E, error) {
	docs, err := r.fetchAll(ctx, "list")
	if err != nil {
		return nil, err
	}
	out := make([]E, 0, len(docs))
	for _, d := range docs {
		out = append(out, r.decode(d))
	}
	slices.SortStableFunc(out, func(a, b E) int {
		return a.GetOrder() - b.GetOrder()
	})
	return out, nil
}

// Get returns one entity.
func (r *Repository[E]) Get(ctx context.Context, id string) (E, error) {
	doc, err := r.fetchOne(ctx, "get", id)
	if err != nil {
		var zero E
		return zero, err
	}
	return r.decode(*doc), nil
}

// Create validates fields, appends the entity at the end of the collection
// (order = current size) and returns it with its assigned id.
func (r *Repository[E]) Create(ctx context.Context, fields map[string]any) (E, error) {
	var zero E

	doc, err := r.schema.canonicalize(fields, true)
	if err != nil {
		return zero, err
	}

	existing, err := r.fetchAll(ctx, "create")
	if err != nil {
		return zero, err
	}
	doc[models.FieldOrder] = len(existing)
	doc[models.FieldUpdatedAt] = r.opts.stamp()

	var id string
	err = r.opts.call(ctx, r.collection, "create", func(ctx context.Context) error {
		var err error
		id, err = r.store.Add(ctx, r.collection, doc)
		return err
	})
	if err != nil {
		return zero, storeError("create", r.collection, "", err)
	}

	r.opts.log.Debug().
		Str("collection", r.collection).
		Str("id", id).
		Int("order", len(existing)).
		Msg("created")
	return r.decode(docstore.Document{ID: id, Fields: doc}), nil
}

// Update merges patch into the stored entity. Touched fields are validated
// and converted like on Create. Unknown fields and repository managed fields
// (id, order, updatedAt) are rejected.
func (r *Repository[E]) Update(ctx context.Context, id string, patch map[string]any) (E, error) {
	var zero E
	if len(patch) == 0 {
		return zero, &ValidationError{Reason: "nothing to update"}
	}
	changes, err := r.schema.canonicalize(patch, false)
	if err != nil {
		return zero, err
	}
	return r.merge(ctx, "update", id, changes)
}

// Delete removes an entity. Deleting a missing id succeeds.
func (r *Repository[E]) Delete(ctx context.Context, id string) error {
	err := r.opts.call(ctx, r.collection, "delete", func(ctx context.Context) error {
		return r.store.Delete(ctx, r.collection, id)
	})
	if err != nil {
		return storeError("delete", r.collection, id, err)
	}
	r.opts.log.Debug().Str("collection", r.collection).Str("id", id).Msg("deleted")
	return nil
}

// Reorder assigns order = position in ids. Entities not listed keep their
// relative order after the listed ones. Only entities whose order changes
// are written.
func (r *Repository[E]) Reorder(ctx context.Context, ids []string) ([]E, error) {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return nil, &ValidationError{Field: "ids", Reason: "contains duplicate id " + quote(id)}
		}
		seen[id] = true
	}

	current, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]E, len(current))
	for _, e := range current {
		byID[e.GetID()] = e
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, &NotFoundError{Collection: r.collection, ID: id}
		}
	}

	target := make([]string, 0, len(current))
	target = append(target, ids...)
	for _, e := range current {
		if !seen[e.GetID()] {
			target = append(target, e.GetID())
		}
	}

	for pos, id := range target {
		if byID[id].GetOrder() == pos {
			continue
		}
		if _, err := r.merge(ctx, "reorder", id, map[string]any{models.FieldOrder: pos}); err != nil {
			return nil, err
		}
	}
	return r.List(ctx)
}

// AddItem appends value to a list field. Adding an item that is already
// present is a ValidationError.
func (r *Repository[E]) AddItem(ctx context.Context, id, field, value string) (E, error) {
	var zero E
	if !r.schema.isList(field) {
		return zero, &ValidationError{Field: field, Reason: "is not a list field"}
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return zero, &ValidationError{Field: field, Reason: "item must not be empty"}
	}

	doc, err := r.fetchOne(ctx, "add_item", id)
	if err != nil {
		return zero, err
	}
	items := coerce.Strings(doc.Get(field))
	if slices.Contains(items, value) {
		return zero, &ValidationError{Field: field, Reason: "already contains " + quote(value)}
	}
	return r.merge(ctx, "add_item", id, map[string]any{field: append(items, value)})
}

// RemoveItem removes value from a list field. Removing an absent item
// leaves the entity unchanged.
func (r *Repository[E]) RemoveItem(ctx context.Context, id, field, value string) (E, error) {
	var zero E
	if !r.schema.isList(field) {
		return zero, &ValidationError{Field: field, Reason: "is not a list field"}
	}

	doc, err := r.fetchOne(ctx, "remove_item", id)
	if err != nil {
		return zero, err
	}
	items := coerce.Strings(doc.Get(field))
	idx := slices.Index(items, strings.TrimSpace(value))
	if idx < 0 {
		return r.decode(*doc), nil
	}
	return r.merge(ctx, "remove_item", id, map[string]any{field: slices.Delete(items, idx, idx+1)})
}

// merge writes changes plus a fresh updatedAt and returns the merged entity.
func (r *Repository[E]) merge(ctx context.Context, op, id string, changes map[string]any) (E, error) {
	var zero E

	current, err := r.fetchOne(ctx, op, id)
	if err != nil {
		return zero, err
	}

	changes[models.FieldUpdatedAt] = r.opts.stamp()
	err = r.opts.call(ctx, r.collection, op, func(ctx context.Context) error {
		return r.store.Update(ctx, r.collection, id, changes)
	})
	if err != nil {
		return zero, storeError(op, r.collection, id, err)
	}

	merged := docstore.CloneFields(current.Fields)
	for k, v := range changes {
		merged[k] = v
	}
	r.opts.log.Debug().
		Str("collection", r.collection).
		Str("id", id).
		Str("op", op).
		Msg("updated")
	return r.decode(docstore.Document{ID: id, Fields: merged}), nil
}

func (r *Repository[E]) fetchAll(ctx context.Context, op string) ([]docstore.Document, error) {
	var docs []docstore.Document
	err := r.opts.call(ctx, r.collection, op, func(ctx context.Context) error {
		var err error
		docs, err = r.store.GetAll(ctx, r.collection)
		return err
	})
	if err != nil {
		return nil, storeError(op, r.collection, "", err)
	}
	return docs, nil
}

func (r *Repository[E]) fetchOne(ctx context.Context, op, id string) (*docstore.Document, error) {
	if id == "" {
		return nil, &ValidationError{Field: "id", Reason: "must not be empty"}
	}
	var doc *docstore.Document
	err := r.opts.call(ctx, r.collection, op, func(ctx context.Context) error {
		var err error
		doc, err = r.store.GetOne(ctx, r.collection, id)
		return err
	})
	if err != nil {
		return nil, storeError(op, r.collection, id, err)
	}
	if doc == nil {
		return nil, &NotFoundError{Collection: r.collection, ID: id}
	}
	return doc, nil
}

// ListFields returns the names of the list fields of the collection.
func (r *Repository[E]) ListFields() []string {
	var out []string
	for name := range r.schema.fields {
		if r.schema.isList(name) {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}
