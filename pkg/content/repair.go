package content

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/surrealdb/sitecontent/pkg/coerce"
	"github.com/surrealdb/sitecontent/pkg/docstore"
	"github.com/surrealdb/sitecontent/pkg/models"
)

// RepairOptions tunes a Repair run.
type RepairOptions struct {
	// DryRun reports what would be fixed without writing.
	DryRun bool
}

// RepairResult lists document ids by outcome, each in fetch order.
//
// A run where some writes failed is a partial batch failure. It is reported
// through Failed rather than as an error so callers can show the mixed
// outcome.
type RepairResult struct {
	Fixed          []string `json:"fixed"`
	AlreadyCorrect []string `json:"alreadyCorrect"`
	Failed         []string `json:"failed"`
	DryRun         bool     `json:"dryRun,omitempty"`
}

// Partial reports whether any document could not be repaired.
func (r RepairResult) Partial() bool {
	return len(r.Failed) > 0
}

type repairOutcome int

const (
	outcomeCorrect repairOutcome = iota
	outcomeFixed
	outcomeFailed
)

// Repair rewrites every service whose stored isActive is not a native
// boolean with its coerced value and a fresh updatedAt.
//
// Documents that already hold a boolean are left untouched, so a second run
// writes nothing. A failed write is recorded and the batch continues. Writes
// run with bounded concurrency. The returned error is non-nil only when the
// collection could not be listed.
func (s *Services) Repair(ctx context.Context, opts RepairOptions) (RepairResult, error) {
	docs, err := s.fetchAll(ctx, "repair")
	if err != nil {
		return RepairResult{}, err
	}

	outcomes := make([]repairOutcome, len(docs))
	var g errgroup.Group
	g.SetLimit(s.opts.concurrency)

	for i, doc := range docs {
		raw := doc.Get(models.FieldIsActive)
		if coerce.IsCanonicalBool(raw) {
			outcomes[i] = outcomeCorrect
			continue
		}
		if opts.DryRun {
			outcomes[i] = outcomeFixed
			continue
		}
		g.Go(func() error {
			outcomes[i] = s.repairOne(ctx, doc, raw)
			return nil
		})
	}
	_ = g.Wait()

	res := RepairResult{
		Fixed:          []string{},
		AlreadyCorrect: []string{},
		Failed:         []string{},
		DryRun:         opts.DryRun,
	}
	for i, doc := range docs {
		switch outcomes[i] {
		case outcomeCorrect:
			res.AlreadyCorrect = append(res.AlreadyCorrect, doc.ID)
		case outcomeFixed:
			res.Fixed = append(res.Fixed, doc.ID)
		case outcomeFailed:
			res.Failed = append(res.Failed, doc.ID)
		}
	}

	s.opts.observer.ObserveRepair(s.collection, res)
	ev := s.opts.log.Info()
	if res.Partial() {
		ev = s.opts.log.Warn().Strs("failed_ids", res.Failed)
	}
	ev.Str("collection", s.collection).
		Int("fixed", len(res.Fixed)).
		Int("already_correct", len(res.AlreadyCorrect)).
		Int("failed", len(res.Failed)).
		Bool("dry_run", opts.DryRun).
		Msg("repair finished")
	return res, nil
}

func (s *Services) repairOne(ctx context.Context, doc docstore.Document, raw any) repairOutcome {
	fix := map[string]any{
		models.FieldIsActive:  coerce.Bool(raw),
		models.FieldUpdatedAt: s.opts.stamp(),
	}
	err := s.opts.call(ctx, s.collection, "repair_write", func(ctx context.Context) error {
		return s.store.Update(ctx, s.collection, doc.ID, fix)
	})
	if err != nil {
		s.opts.log.Warn().Err(err).
			Str("collection", s.collection).
			Str("id", doc.ID).
			Msg("repair write failed")
		return outcomeFailed
	}
	s.opts.log.Debug().
		Str("collection", s.collection).
		Str("id", doc.ID).
		Interface("from", raw).
		Bool("to", fix[models.FieldIsActive].(bool)).
		Msg("repaired isActive")
	return outcomeFixed
}
