package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/studynest/internal/common"
	"github.com/dmitrijs2005/studynest/internal/keylock"
	"github.com/dmitrijs2005/studynest/internal/logging"
	"github.com/dmitrijs2005/studynest/internal/server/blobstore"
	"github.com/dmitrijs2005/studynest/internal/server/config"
	"github.com/dmitrijs2005/studynest/internal/server/repositories/repomanager"
)

// ReconcileReport counts what one sweep removed.
type ReconcileReport struct {
	OrphanRecords int64
	OrphanBlobs   int
}

// Reconciler repairs what an interrupted DeletePage or UploadFile leaves
// behind: file records whose page is gone, and stored blobs no record
// references. Blobs younger than the grace period are left alone since
// their upload may still be in flight.
type Reconciler struct {
	attachments *AttachmentService
	repomanager repomanager.RepositoryManager
	store       blobstore.Store
	locks       *keylock.Locker
	log         logging.Logger
	interval    time.Duration
	grace       time.Duration
	now         func() time.Time
}

func NewReconciler(attachments *AttachmentService, cfg *config.Config, log logging.Logger) *Reconciler {
	return &Reconciler{
		attachments: attachments,
		repomanager: attachments.repomanager,
		store:       attachments.store,
		locks:       attachments.locks,
		log:         log.With("module", "reconciler"),
		interval:    cfg.ReconcileInterval,
		grace:       cfg.ReconcileGracePeriod,
		now:         time.Now,
	}
}

// Run sweeps every interval until ctx is done. A zero interval disables it.
func (r *Reconciler) Run(ctx context.Context) error {
	if r.interval <= 0 {
		r.log.Info(ctx, "reconciler disabled")
		return nil
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
				r.log.Error(ctx, "reconcile failed", "error", err)
			}
		}
	}
}

// RunOnce performs a single sweep.
func (r *Reconciler) RunOnce(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport

	n, err := r.reapOrphanRecords(ctx)
	report.OrphanRecords = n
	if err != nil {
		return report, err
	}

	m, err := r.reapOrphanBlobs(ctx)
	report.OrphanBlobs = m
	if err != nil {
		return report, err
	}

	if report.OrphanRecords > 0 || report.OrphanBlobs > 0 {
		r.log.Info(ctx, "reconcile done", "orphanRecords", report.OrphanRecords, "orphanBlobs", report.OrphanBlobs)
	} else {
		r.log.Debug(ctx, "reconcile done, nothing to do")
	}
	return report, nil
}

func (r *Reconciler) reapOrphanRecords(ctx context.Context) (int64, error) {
	names, err := r.repomanager.Files().OrphanedPageNames(ctx)
	if err != nil {
		return 0, fmt.Errorf("error listing orphaned pages: %w", err)
	}

	var total int64
	for _, name := range names {
		n, err := r.reapPage(ctx, name)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (r *Reconciler) reapPage(ctx context.Context, name string) (int64, error) {
	unlock := r.locks.Lock(pageLockKey(name))
	defer unlock()

	// the page may have been recreated since the orphan query
	if _, err := r.repomanager.Pages().GetByName(ctx, name); err == nil {
		return 0, nil
	} else if !errors.Is(err, common.ErrorNotFound) {
		return 0, fmt.Errorf("error looking up page: %w", err)
	}

	n, err := r.attachments.purgeFiles(ctx, name)
	if err != nil {
		return 0, err
	}
	r.log.Info(ctx, "orphan records removed", "page", name, "files", n)
	return n, nil
}

func (r *Reconciler) reapOrphanBlobs(ctx context.Context) (int, error) {
	lister, ok := r.store.(blobstore.Lister)
	if !ok {
		return 0, nil
	}

	// keys are read before the listing, so a blob recorded in between looks
	// orphaned; the grace period keeps it safe
	keys, err := r.repomanager.Files().StorageKeys(ctx, r.store.Kind())
	if err != nil {
		return 0, fmt.Errorf("error listing storage keys: %w", err)
	}
	referenced := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		referenced[k] = struct{}{}
	}

	objects, err := lister.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("error listing blobs: %w", err)
	}

	cutoff := r.now().Add(-r.grace)
	var n int
	for _, obj := range objects {
		if _, ok := referenced[obj.Key]; ok || obj.ModTime.After(cutoff) {
			continue
		}
		err := r.store.Delete(ctx, blobstore.Handle{Backend: r.store.Kind(), Key: obj.Key})
		if err != nil && !errors.Is(err, common.ErrorNotFound) {
			r.log.Warn(ctx, "orphan blob not deleted", "key", obj.Key, "error", err)
			continue
		}
		n++
	}
	return n, nil
}
