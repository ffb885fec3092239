package content

import (
	"context"
	"slices"

	"github.com/surrealdb/sitecontent/pkg/docstore"
	"github.com/surrealdb/sitecontent/pkg/models"
)

// AuditReport compares the store's native isActive == true query with the
// coerced flag.
type AuditReport struct {
	// Active are the ids ListActive returns.
	Active []string `json:"active"`
	// Native are the ids the store's own filter returns.
	Native []string `json:"native"`
	// Missed are active ids the native filter left out.
	Missed []string `json:"missed"`
	// Spurious are ids the native filter returned that are not active.
	Spurious []string `json:"spurious"`
}

// Consistent reports whether the native filter agrees with coercion.
func (a AuditReport) Consistent() bool {
	return len(a.Missed) == 0 && len(a.Spurious) == 0
}

// AuditActive runs the native filtered query next to ListActive and reports
// where they disagree. It writes nothing. A non-consistent report means
// Repair has work to do.
func (s *Services) AuditActive(ctx context.Context) (AuditReport, error) {
	active, err := s.ListActive(ctx)
	if err != nil {
		return AuditReport{}, err
	}

	var native []docstore.Document
	err = s.opts.call(ctx, s.collection, "audit", func(ctx context.Context) error {
		var err error
		native, err = s.store.Query(ctx, s.collection,
			&docstore.Equals{Field: models.FieldIsActive, Value: true}, models.FieldOrder)
		return err
	})
	if err != nil {
		return AuditReport{}, storeError("audit", s.collection, "", err)
	}

	report := AuditReport{
		Active:   make([]string, 0, len(active)),
		Native:   make([]string, 0, len(native)),
		Missed:   []string{},
		Spurious: []string{},
	}
	for _, svc := range active {
		report.Active = append(report.Active, svc.ID)
	}
	for _, d := range native {
		report.Native = append(report.Native, d.ID)
	}
	for _, id := range report.Active {
		if !slices.Contains(report.Native, id) {
			report.Missed = append(report.Missed, id)
		}
	}
	for _, id := range report.Native {
		if !slices.Contains(report.Active, id) {
			report.Spurious = append(report.Spurious, id)
		}
	}

	if !report.Consistent() {
		s.opts.log.Warn().
			Str("collection", s.collection).
			Strs("missed", report.Missed).
			Strs("spurious", report.Spurious).
			Msg("native active filter disagrees with coerced values")
	}
	return report, nil
}
