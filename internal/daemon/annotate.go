package daemon

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dugout/internal/library"
	"dugout/internal/logging"
	"dugout/internal/notifications"
	"dugout/internal/queue"
)

// AnnotateRequest records a play outcome against a queue item. AthleteID and
// ReleaseHold only apply before cataloging; afterwards the clip's library row
// is the source of truth and only the play result can still be attached.
type AnnotateRequest struct {
	ID          int64
	PlayResult  string
	SpeedMPH    float64
	AthleteID   int64
	ReleaseHold bool
}

// Annotate applies an annotation to a queue item. Before cataloging it edits
// the queue row and releases annotation review parks once the missing pieces
// are supplied. After cataloging it writes the play result into the library,
// updating statistics, and mirrors the outcome back onto the queue row.
func (d *Daemon) Annotate(ctx context.Context, req AnnotateRequest) (*queue.Item, error) {
	item, err := d.store.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("queue item %d not found", req.ID)
	}

	result := strings.TrimSpace(req.PlayResult)
	var parsed library.PlayResult
	if result != "" {
		parsed, err = library.ParsePlayResult(result)
		if err != nil {
			return nil, err
		}
	}

	if item.ClipID != 0 {
		return d.annotateCatalogedItem(ctx, item, parsed, req)
	}
	return d.annotateQueuedItem(ctx, item, parsed, req)
}

// annotateQueuedItem edits a not-yet-cataloged row in place. The catalog
// stage picks the annotation up when the item reaches it.
func (d *Daemon) annotateQueuedItem(ctx context.Context, item *queue.Item, result library.PlayResult, req AnnotateRequest) (*queue.Item, error) {
	if req.AthleteID != 0 {
		if _, err := d.library.GetAthlete(ctx, req.AthleteID); err != nil {
			if errors.Is(err, library.ErrNotFound) {
				return nil, fmt.Errorf("athlete %d not found", req.AthleteID)
			}
			return nil, err
		}
		item.AthleteID = req.AthleteID
	}
	if result != "" {
		item.PlayResult = string(result)
		if result.IsHighlight() {
			item.Highlight = true
		}
	}
	if req.SpeedMPH > 0 {
		item.SpeedMPH = req.SpeedMPH
	}
	if req.ReleaseHold {
		item.HoldForAnnotation = false
	}
	if err := d.store.Update(ctx, item); err != nil {
		return nil, err
	}

	// Annotation parks release themselves once the item has an athlete and
	// either a recorded result or no hold. Validation failures and user
	// stops stay parked until resolved explicitly.
	if item.Status == queue.StatusReview && queue.IsAnnotationReviewReason(item.ReviewReason) && annotationComplete(item) {
		if err := d.store.ResolveReview(ctx, item.ID); err != nil {
			return nil, err
		}
		d.logger.Info("annotation review released",
			logging.Int64("item_id", item.ID),
			logging.String("play_result", item.PlayResult),
		)
		return d.store.GetByID(ctx, item.ID)
	}
	return item, nil
}

func annotationComplete(item *queue.Item) bool {
	if item.AthleteID == 0 {
		return false
	}
	return !item.HoldForAnnotation || item.HasPlayResult()
}

// annotateCatalogedItem records the play against the library clip so the
// statistics counters move, then mirrors the outcome onto the queue row.
func (d *Daemon) annotateCatalogedItem(ctx context.Context, item *queue.Item, result library.PlayResult, req AnnotateRequest) (*queue.Item, error) {
	if req.AthleteID != 0 && req.AthleteID != item.AthleteID {
		return nil, fmt.Errorf("clip %d is already cataloged; the athlete assignment can no longer change", item.ClipID)
	}
	if result == "" {
		return nil, errors.New("a play result is required to annotate a cataloged clip")
	}

	clip, err := d.library.AnnotateClip(ctx, item.ClipID, result, req.SpeedMPH)
	if err != nil {
		return nil, err
	}

	item.PlayResult = string(clip.Result)
	item.SpeedMPH = clip.SpeedMPH
	item.Highlight = clip.Highlight
	if err := d.store.Update(ctx, item); err != nil {
		return nil, err
	}

	athleteName := fmt.Sprintf("athlete %d", clip.AthleteID)
	if athlete, err := d.library.GetAthlete(ctx, clip.AthleteID); err == nil {
		athleteName = athlete.Name
	}
	if err := d.notifier.Publish(ctx, notifications.EventPlayRecorded, notifications.Payload{
		"athlete":    athleteName,
		"playResult": string(clip.Result),
		"speedMPH":   clip.SpeedMPH,
	}); err != nil {
		d.logger.Warn("play-recorded notification failed", logging.Error(err))
	}
	d.logger.Info("play recorded",
		logging.Int64("clip_id", clip.ID),
		logging.String("play_result", string(clip.Result)),
		logging.Float64("speed_mph", clip.SpeedMPH),
	)
	return item, nil
}

// ResolveReviewItem returns a parked item to pending regardless of reason.
func (d *Daemon) ResolveReviewItem(ctx context.Context, id int64) (*queue.Item, error) {
	item, err := d.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("queue item %d not found", id)
	}
	if item.Status != queue.StatusReview {
		return nil, fmt.Errorf("queue item %d is %s, not parked for review", id, item.Status)
	}
	if err := d.store.ResolveReview(ctx, id); err != nil {
		return nil, err
	}
	return d.store.GetByID(ctx, id)
}
