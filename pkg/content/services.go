package content

import (
	"context"

	"github.com/surrealdb/sitecontent/pkg/coerce"
	"github.com/surrealdb/sitecontent/pkg/docstore"
	"github.com/surrealdb/sitecontent/pkg/models"
)

// Services is the repository of the services collection. On top of the
// ordered collection operations it owns the isActive flag.
type Services struct {
	*Repository[models.Service]
}

// NewServices returns the repository of the services collection.
func NewServices(store docstore.Store, opts ...Option) *Services {
	return &Services{
		Repository: &Repository[models.Service]{
			store:      store,
			collection: models.CollectionServices,
			schema:     serviceSchema,
			decode:     decodeService,
			opts:       newOptions(opts),
		},
	}
}

// ListActive returns the services of List whose coerced isActive is true,
// in the same order. It filters in process and never relies on the store's
// native equality filter, which misses drifted values such as "TRUE".
func (s *Services) ListActive(ctx context.Context) ([]models.Service, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Service, 0, len(all))
	for _, svc := range all {
		if svc.IsActive {
			out = append(out, svc)
		}
	}
	return out, nil
}

// ToggleActive flips the coerced isActive flag and stores the result as a
// native boolean.
func (s *Services) ToggleActive(ctx context.Context, id string) (models.Service, error) {
	doc, err := s.fetchOne(ctx, "toggle", id)
	if err != nil {
		return models.Service{}, err
	}
	next := !coerce.Bool(doc.Get(models.FieldIsActive))
	svc, err := s.merge(ctx, "toggle", id, map[string]any{models.FieldIsActive: next})
	if err != nil {
		return models.Service{}, err
	}
	s.opts.log.Info().
		Str("collection", s.collection).
		Str("id", id).
		Bool("isActive", next).
		Msg("toggled service visibility")
	return svc, nil
}
