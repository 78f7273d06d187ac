package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dugout/internal/api"
	"dugout/internal/library"
	"dugout/internal/logging"
	"dugout/internal/queue"
	"dugout/internal/staging"
)

// importExtensions lists the container formats accepted by add and the watch
// folder. ffmpeg handles all of them; anything else is almost certainly not a
// clip.
var importExtensions = map[string]struct{}{
	".mp4": {},
	".mov": {},
	".mkv": {},
	".avi": {},
}

// AddFileRequest describes a video file to enqueue from outside the camera
// path, with optional annotation details supplied up front.
type AddFileRequest struct {
	SourcePath        string
	ClipTitle         string
	AthleteID         int64
	GameID            int64
	PracticeID        int64
	TrimStartSec      float64
	TrimEndSec        float64
	HoldForAnnotation bool
	PlayResult        string
	SpeedMPH          float64
	Highlight         bool
}

// ListQueue returns queue items filtered by the supplied statuses.
func (d *Daemon) ListQueue(ctx context.Context, statuses ...queue.Status) ([]api.QueueItem, error) {
	return api.NewQueueService(d.store).List(ctx, statuses...)
}

// QueueStats returns item counts by status.
func (d *Daemon) QueueStats(ctx context.Context) (map[string]int, error) {
	return api.NewQueueService(d.store).Stats(ctx)
}

// DescribeQueueItem fetches a single queue item, nil when missing.
func (d *Daemon) DescribeQueueItem(ctx context.Context, id int64) (*api.QueueItem, error) {
	return api.NewQueueService(d.store).Describe(ctx, id)
}

// ClearQueue removes all queue items. Staging artifacts left behind are
// reclaimed by the sweeper once the rows are gone.
func (d *Daemon) ClearQueue(ctx context.Context) (int64, error) {
	return d.store.Clear(ctx)
}

// ClearCompleted removes completed queue items.
func (d *Daemon) ClearCompleted(ctx context.Context) (int64, error) {
	return d.store.ClearCompleted(ctx)
}

// ClearFailed removes failed queue items.
func (d *Daemon) ClearFailed(ctx context.Context) (int64, error) {
	return d.store.ClearFailed(ctx)
}

// ResetStuckProcessing returns mid-pipeline items to pending.
func (d *Daemon) ResetStuckProcessing(ctx context.Context) (int64, error) {
	return d.store.ResetStuckProcessing(ctx)
}

// RetryQueueItems retries failed items. With no ids every failed item is
// requeued; otherwise only the failed rows among ids change.
func (d *Daemon) RetryQueueItems(ctx context.Context, ids []int64) (api.RetryItemsResult, error) {
	if len(ids) == 0 {
		updated, err := d.store.RetryFailed(ctx)
		if err != nil {
			return api.RetryItemsResult{}, err
		}
		return api.RetryItemsResult{UpdatedCount: updated}, nil
	}
	return api.RetryFailedItemsByID(ctx, queueActions{d}, ids)
}

// StopQueueItems parks the given items for review unless already terminal.
func (d *Daemon) StopQueueItems(ctx context.Context, ids []int64) (api.StopItemsResult, error) {
	return api.StopItemsByID(ctx, queueActions{d}, ids)
}

// RemoveQueueItems deletes the given items and their staging artifacts.
func (d *Daemon) RemoveQueueItems(ctx context.Context, ids []int64) (api.RemoveItemsResult, error) {
	return api.RemoveItemsByID(ctx, queueActions{d}, ids)
}

// QueueHealth summarizes queue counts for diagnostics.
func (d *Daemon) QueueHealth(ctx context.Context) (queue.HealthSummary, error) {
	return d.store.Health(ctx)
}

// DatabaseHealth runs queue database diagnostics.
func (d *Daemon) DatabaseHealth(ctx context.Context) (queue.DatabaseHealth, error) {
	return d.store.CheckHealth(ctx)
}

// queueActions adapts the daemon to the api per-item action interfaces.
type queueActions struct {
	d *Daemon
}

func (a queueActions) Describe(ctx context.Context, id int64) (*api.QueueItem, error) {
	return a.d.DescribeQueueItem(ctx, id)
}

func (a queueActions) Retry(ctx context.Context, id int64) (bool, error) {
	updated, err := a.d.store.RetryFailed(ctx, id)
	if err != nil {
		return false, err
	}
	return updated > 0, nil
}

// Stop parks an in-flight item for review. The processing stage notices the
// status flip at its next checkpoint and abandons the item.
func (a queueActions) Stop(ctx context.Context, id int64) (bool, error) {
	item, err := a.d.store.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if item == nil {
		return false, nil
	}
	switch item.Status {
	case queue.StatusCompleted, queue.StatusFailed, queue.StatusReview:
		return false, nil
	}
	item.SetReview(queue.UserStopReason)
	if err := a.d.store.Update(ctx, item); err != nil {
		return false, err
	}
	return true, nil
}

func (a queueActions) Remove(ctx context.Context, id int64) (bool, error) {
	item, err := a.d.store.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if item == nil {
		return false, nil
	}
	staging.RemoveItemArtifacts(a.d.logger, a.d.cfg, item)
	return a.d.store.Remove(ctx, id)
}

// AddFile validates a local video file and enqueues it for processing.
func (d *Daemon) AddFile(ctx context.Context, req AddFileRequest) (*queue.Item, error) {
	path := strings.TrimSpace(req.SourcePath)
	if path == "" {
		return nil, errors.New("source path is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path %q: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat %q: %w", abs, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%q is a directory, expected a video file", abs)
	}
	ext := strings.ToLower(filepath.Ext(abs))
	if _, ok := importExtensions[ext]; !ok {
		return nil, fmt.Errorf("unsupported file type %q (expected one of: mp4, mov, mkv, avi)", ext)
	}

	if existing, err := d.store.FindBySourcePath(ctx, abs); err != nil {
		return nil, err
	} else if existing != nil && existing.IsInWorkflow() {
		return nil, fmt.Errorf("%q is already queued as item %d (%s)", abs, existing.ID, existing.Status)
	}

	if req.PlayResult != "" {
		if _, err := library.ParsePlayResult(req.PlayResult); err != nil {
			return nil, err
		}
	}
	if req.AthleteID != 0 {
		if _, err := d.library.GetAthlete(ctx, req.AthleteID); err != nil {
			if errors.Is(err, library.ErrNotFound) {
				return nil, fmt.Errorf("athlete %d not found", req.AthleteID)
			}
			return nil, err
		}
	}
	if req.TrimEndSec > 0 && req.TrimEndSec <= req.TrimStartSec {
		return nil, fmt.Errorf("trim end %.1fs must be after trim start %.1fs", req.TrimEndSec, req.TrimStartSec)
	}

	item, err := d.store.NewClip(ctx, queue.NewClipRequest{
		SourcePath:        abs,
		ClipTitle:         req.ClipTitle,
		Origin:            queue.OriginImport,
		AthleteID:         req.AthleteID,
		GameID:            req.GameID,
		PracticeID:        req.PracticeID,
		TrimStartSec:      req.TrimStartSec,
		TrimEndSec:        req.TrimEndSec,
		HoldForAnnotation: req.HoldForAnnotation,
		PlayResult:        req.PlayResult,
		SpeedMPH:          req.SpeedMPH,
		Highlight:         req.Highlight,
	})
	if err != nil {
		return nil, err
	}
	d.logger.Info("file queued for processing",
		logging.Int64("item_id", item.ID),
		logging.String("source", abs),
		logging.String("title", item.ClipTitle),
	)
	return item, nil
}
