package processing

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/notebookbobu/backend/internal/core"
	"github.com/notebookbobu/backend/internal/models"
)

// Sweeper re-runs documents that were left in the processing state by
// an interrupted run (a crashed or cancelled invocation). A document
// stuck in processing is not an error state; reprocessing is the
// documented recovery path.
type Sweeper struct {
	orch     *Orchestrator
	docs     core.DocumentRepository
	interval time.Duration
	// olderThan guards against sweeping documents that are legitimately
	// mid-flight right now.
	olderThan time.Duration
	limit     int
	workers   int
	log       *logrus.Entry
}

func NewSweeper(orch *Orchestrator, docs core.DocumentRepository, interval, olderThan time.Duration) *Sweeper {
	return &Sweeper{
		orch:      orch,
		docs:      docs,
		interval:  interval,
		olderThan: olderThan,
		limit:     100,
		workers:   4,
		log:       logrus.WithField("component", "sweeper"),
	}
}

// Run blocks until ctx is cancelled, sweeping once per interval.
// Passes run strictly sequentially from this goroutine, so the sweeper
// never double-invokes one document id within or across passes.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.sweep(ctx); err != nil {
				s.log.WithField("error", err.Error()).Warn("sweep pass failed")
			}
		}
	}
}

// sweep reprocesses stale documents, fanning out across distinct
// documents only; each document still runs its pipeline sequentially.
func (s *Sweeper) sweep(ctx context.Context) error {
	stuck, err := s.docs.ListDocumentsByStatus(ctx, models.StatusProcessing, s.limit)
	if err != nil {
		return err
	}

	cutoff := time.Now().UTC().Add(-s.olderThan)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	swept := 0
	for i := range stuck {
		doc := stuck[i]
		if doc.UpdatedAt.After(cutoff) {
			continue
		}
		swept++
		g.Go(func() error {
			s.log.WithField("document_id", doc.ID).Info("reprocessing stale document")
			if _, err := s.orch.Process(gctx, doc.ID); err != nil {
				// The document is now terminal (failed); nothing more
				// for the sweeper to do with it.
				s.log.WithFields(logrus.Fields{
					"document_id": doc.ID,
					"error":       err.Error(),
				}).Warn("stale document reprocess failed")
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if swept > 0 {
		s.log.WithField("count", swept).Info("sweep pass complete")
	}
	return nil
}
