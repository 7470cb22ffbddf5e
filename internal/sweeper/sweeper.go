// Package sweeper removes uploaded files that no row references any more.
// Such files appear when the process dies between storing an upload and
// committing the row that points at it.
package sweeper

import (
	"context"
	"time"

	"github.com/AlenaMolokova/bazario/internal/files"
	"github.com/AlenaMolokova/bazario/internal/models"
	"github.com/sirupsen/logrus"
)

type FileStore interface {
	List() ([]files.Entry, error)
	Delete(ref string) error
}

type Sweeper struct {
	files FileStore
	refs  models.FileReferenceStorage
	grace time.Duration
	now   func() time.Time
}

// NewSweeper builds a sweeper that leaves alone files younger than grace, so
// uploads whose row is still being written survive.
func NewSweeper(files FileStore, refs models.FileReferenceStorage, grace time.Duration) *Sweeper {
	return &Sweeper{files: files, refs: refs, grace: grace, now: time.Now}
}

// Start sweeps every interval until ctx is done.
func (s *Sweeper) Start(ctx context.Context, interval time.Duration) {
	logrus.WithField("interval", interval.String()).Info("Starting orphaned upload sweeper")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logrus.Info("Orphaned upload sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				logrus.WithError(err).Warn("Upload sweep failed")
			}
		}
	}
}

// Sweep deletes unreferenced files older than the grace period and returns
// how many it removed.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	entries, err := s.files.List()
	if err != nil {
		return 0, err
	}
	refs, err := s.refs.ListFileReferences(ctx)
	if err != nil {
		return 0, err
	}

	live := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		live[ref] = struct{}{}
	}

	cutoff := s.now().Add(-s.grace)
	removed := 0
	for _, e := range entries {
		if _, ok := live[e.Ref]; ok || e.ModTime.After(cutoff) {
			continue
		}
		if err := s.files.Delete(e.Ref); err != nil {
			logrus.WithError(err).WithField("ref", e.Ref).Warn("Failed to remove orphaned upload")
			continue
		}
		removed++
		logrus.WithField("ref", e.Ref).Info("Removed orphaned upload")
	}
	return removed, nil
}
