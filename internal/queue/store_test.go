package queue_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"dugout/internal/queue"
	"dugout/internal/testsupport"
)

func TestOpenInitializesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item, err := store.NewClip(ctx, queue.NewClipRequest{
		SourcePath: "/videos/at_bat_003.mp4",
		ClipTitle:  "Line drive to left",
		AthleteID:  7,
	})
	if err != nil {
		t.Fatalf("NewClip failed: %v", err)
	}
	if item.ID == 0 {
		t.Fatal("expected item ID to be assigned")
	}
	if item.Status != queue.StatusPending {
		t.Fatalf("expected pending status, got %s", item.Status)
	}
	if item.Origin != queue.OriginImport {
		t.Fatalf("expected import origin by default, got %s", item.Origin)
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.ClipTitle != "Line drive to left" {
		t.Fatalf("unexpected fetched item: %#v", fetched)
	}
	if fetched.AthleteID != 7 {
		t.Fatalf("expected athlete ID persisted, got %d", fetched.AthleteID)
	}

	found, err := store.FindBySourcePath(ctx, "/videos/at_bat_003.mp4")
	if err != nil {
		t.Fatalf("FindBySourcePath failed: %v", err)
	}
	if found == nil || found.ID != item.ID {
		t.Fatalf("expected to find inserted item, got %#v", found)
	}
}

func TestNewClipRequiresSourcePath(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	if _, err := store.NewClip(ctx, queue.NewClipRequest{ClipTitle: "No Source"}); err == nil {
		t.Fatal("expected error when source path missing")
	}
}

func TestNewClipInfersTitle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item, err := store.NewClip(ctx, queue.NewClipRequest{SourcePath: "/videos/double_off_wall.mp4"})
	if err != nil {
		t.Fatalf("NewClip failed: %v", err)
	}
	if item.ClipTitle != "double off wall" {
		t.Fatalf("expected inferred title, got %q", item.ClipTitle)
	}
}

func TestNewCaptureSetsCameraOrigin(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item, err := store.NewCapture(ctx, queue.NewClipRequest{
		SourcePath: "/staging/rec-001.mp4",
		ClipTitle:  "Bullpen session",
		Origin:     queue.OriginImport,
		AthleteID:  7,
	})
	if err != nil {
		t.Fatalf("NewCapture failed: %v", err)
	}
	if item.Origin != queue.OriginCamera {
		t.Fatalf("expected camera origin, got %s", item.Origin)
	}
	if item.AthleteID != 7 {
		t.Fatalf("expected athlete carried through, got %d", item.AthleteID)
	}
}

func TestResetStuckProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	cases := []struct {
		name          string
		initialStatus queue.Status
		expected      queue.Status
	}{
		{"validating", queue.StatusValidating, queue.StatusPending},
		{"exporting", queue.StatusExporting, queue.StatusValidated},
		{"cataloging", queue.StatusCataloging, queue.StatusExported},
		{"thumbnailing", queue.StatusThumbnailing, queue.StatusCataloged},
	}
	var ids []int64
	for i, tc := range cases {
		item, err := store.NewClip(ctx, queue.NewClipRequest{
			SourcePath: fmt.Sprintf("/videos/reset-%d.mp4", i),
			ClipTitle:  fmt.Sprintf("Clip-%s", tc.name),
		})
		if err != nil {
			t.Fatalf("NewClip failed: %v", err)
		}
		item.Status = tc.initialStatus
		item.ProgressStage = tc.name
		if err := store.Update(ctx, item); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		ids = append(ids, item.ID)
	}

	count, err := store.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckProcessing failed: %v", err)
	}
	if int(count) != len(cases) {
		t.Fatalf("expected %d items reset, got %d", len(cases), count)
	}

	for idx, tc := range cases {
		updated, err := store.GetByID(ctx, ids[idx])
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if updated.Status != tc.expected {
			t.Fatalf("%s: expected status %s, got %s", tc.name, tc.expected, updated.Status)
		}
		if updated.LastHeartbeat != nil {
			t.Fatalf("%s: expected heartbeat cleared", tc.name)
		}
	}
}

func TestItemsByStatusOrdering(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	if _, err := store.NewClip(ctx, queue.NewClipRequest{SourcePath: "/videos/a.mp4", ClipTitle: "Clip A"}); err != nil {
		t.Fatalf("NewClip failed: %v", err)
	}
	b, err := store.NewClip(ctx, queue.NewClipRequest{SourcePath: "/videos/b.mp4", ClipTitle: "Clip B"})
	if err != nil {
		t.Fatalf("NewClip failed: %v", err)
	}
	b.Status = queue.StatusValidated
	if err := store.Update(ctx, b); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	items, err := store.ItemsByStatus(ctx, queue.StatusValidated)
	if err != nil {
		t.Fatalf("ItemsByStatus failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected one validated item, got %d", len(items))
	}
	if items[0].ClipTitle != "Clip B" {
		t.Fatalf("expected Clip B, got %s", items[0].ClipTitle)
	}
}

func TestListSupportsStatusFilter(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	a, err := store.NewClip(ctx, queue.NewClipRequest{SourcePath: "/videos/a.mp4", ClipTitle: "Clip A"})
	if err != nil {
		t.Fatalf("NewClip failed: %v", err)
	}
	b, err := store.NewClip(ctx, queue.NewClipRequest{SourcePath: "/videos/b.mp4", ClipTitle: "Clip B"})
	if err != nil {
		t.Fatalf("NewClip failed: %v", err)
	}
	b.Status = queue.StatusValidated
	if err := store.Update(ctx, b); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	c, err := store.NewClip(ctx, queue.NewClipRequest{SourcePath: "/videos/c.mp4", ClipTitle: "Clip C"})
	if err != nil {
		t.Fatalf("NewClip failed: %v", err)
	}
	c.Status = queue.StatusFailed
	c.ErrorMessage = "boom"
	if err := store.Update(ctx, c); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	items, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].ID != a.ID || items[1].ID != b.ID || items[2].ID != c.ID {
		t.Fatalf("expected order A,B,C, got IDs %d,%d,%d", items[0].ID, items[1].ID, items[2].ID)
	}

	filtered, err := store.List(ctx, queue.StatusValidated, queue.StatusFailed)
	if err != nil {
		t.Fatalf("Filtered list failed: %v", err)
	}
	if len(filtered) != 2 {
		t.Fatalf("expected 2 items, got %d", len(filtered))
	}
	if filtered[0].ID != b.ID || filtered[1].ID != c.ID {
		t.Fatalf("unexpected filtered order: got %d,%d", filtered[0].ID, filtered[1].ID)
	}
}

func TestRetryFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	a, err := store.NewClip(ctx, queue.NewClipRequest{SourcePath: "/videos/a.mp4", ClipTitle: "ClipA"})
	if err != nil {
		t.Fatalf("NewClip: %v", err)
	}
	b, err := store.NewClip(ctx, queue.NewClipRequest{SourcePath: "/videos/b.mp4", ClipTitle: "ClipB"})
	if err != nil {
		t.Fatalf("NewClip: %v", err)
	}
	for _, item := range []*queue.Item{a, b} {
		item.Status = queue.StatusFailed
		item.ErrorMessage = "boom"
		if err := store.Update(ctx, item); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}

	updated, err := store.RetryFailed(ctx)
	if err != nil {
		t.Fatalf("RetryFailed all: %v", err)
	}
	if updated != 2 {
		t.Fatalf("expected 2 items retried, got %d", updated)
	}

	item, err := store.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if item.Status != queue.StatusPending {
		t.Fatalf("expected item A pending, got %s", item.Status)
	}

	// Mark B failed again and retry targeted selection.
	b.Status = queue.StatusFailed
	if err := store.Update(ctx, b); err != nil {
		t.Fatalf("Update: %v", err)
	}
	updated, err = store.RetryFailed(ctx, b.ID)
	if err != nil {
		t.Fatalf("RetryFailed targeted: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected 1 item retried, got %d", updated)
	}
}

func TestUpdateHeartbeat(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item := testsupport.NewClip(t, store, "Heartbeat", "/videos/hb.mp4")
	item.Status = queue.StatusValidating
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if err := store.UpdateHeartbeat(ctx, item.ID); err != nil {
		t.Fatalf("UpdateHeartbeat: %v", err)
	}

	updated, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if updated.LastHeartbeat == nil {
		t.Fatal("expected last heartbeat to be set")
	}
}

func TestReclaimStaleProcessing(t *testing.T) {
	t.Run("all statuses", func(t *testing.T) {
		cfg := testsupport.NewConfig(t)
		store := testsupport.MustOpenStore(t, cfg)

		ctx := context.Background()
		past := time.Now().Add(-2 * time.Hour).UTC()
		cases := []struct {
			name       string
			processing queue.Status
			expected   queue.Status
		}{
			{"validating", queue.StatusValidating, queue.StatusPending},
			{"exporting", queue.StatusExporting, queue.StatusValidated},
			{"cataloging", queue.StatusCataloging, queue.StatusExported},
			{"thumbnailing", queue.StatusThumbnailing, queue.StatusCataloged},
		}
		var ids []int64
		for i, tc := range cases {
			item, err := store.NewClip(ctx, queue.NewClipRequest{
				SourcePath: fmt.Sprintf("/videos/stale-%d.mp4", i),
				ClipTitle:  fmt.Sprintf("Stale-%s", tc.name),
			})
			if err != nil {
				t.Fatalf("NewClip: %v", err)
			}
			item.Status = tc.processing
			item.LastHeartbeat = &past
			if err := store.Update(ctx, item); err != nil {
				t.Fatalf("Update: %v", err)
			}
			ids = append(ids, item.ID)
		}

		count, err := store.ReclaimStaleProcessing(
			ctx,
			time.Now().Add(-1*time.Hour),
			queue.StatusValidating,
			queue.StatusExporting,
			queue.StatusCataloging,
			queue.StatusThumbnailing,
		)
		if err != nil {
			t.Fatalf("ReclaimStaleProcessing: %v", err)
		}
		if int(count) != len(cases) {
			t.Fatalf("expected %d items reclaimed, got %d", len(cases), count)
		}

		for idx, tc := range cases {
			updated, err := store.GetByID(ctx, ids[idx])
			if err != nil {
				t.Fatalf("GetByID: %v", err)
			}
			if updated.Status != tc.expected {
				t.Fatalf("%s: expected status %s after reclaim, got %s", tc.name, tc.expected, updated.Status)
			}
			if updated.LastHeartbeat != nil {
				t.Fatalf("%s: expected heartbeat cleared, got %v", tc.name, updated.LastHeartbeat)
			}
		}
	})

	t.Run("filtered statuses", func(t *testing.T) {
		cfg := testsupport.NewConfig(t)
		store := testsupport.MustOpenStore(t, cfg)

		ctx := context.Background()
		past := time.Now().Add(-2 * time.Hour).UTC()

		exporting, err := store.NewClip(ctx, queue.NewClipRequest{SourcePath: "/videos/stale-export.mp4", ClipTitle: "Stale-Exporting"})
		if err != nil {
			t.Fatalf("NewClip exporting: %v", err)
		}
		exporting.Status = queue.StatusExporting
		exporting.LastHeartbeat = &past
		if err := store.Update(ctx, exporting); err != nil {
			t.Fatalf("Update exporting: %v", err)
		}

		thumbnailing, err := store.NewClip(ctx, queue.NewClipRequest{SourcePath: "/videos/stale-thumb.mp4", ClipTitle: "Stale-Thumbnailing"})
		if err != nil {
			t.Fatalf("NewClip thumbnailing: %v", err)
		}
		thumbnailing.Status = queue.StatusThumbnailing
		thumbnailing.LastHeartbeat = &past
		if err := store.Update(ctx, thumbnailing); err != nil {
			t.Fatalf("Update thumbnailing: %v", err)
		}

		count, err := store.ReclaimStaleProcessing(ctx, time.Now().Add(-1*time.Hour), queue.StatusThumbnailing)
		if err != nil {
			t.Fatalf("ReclaimStaleProcessing filtered: %v", err)
		}
		if count != 1 {
			t.Fatalf("expected 1 item reclaimed, got %d", count)
		}

		reclaimed, err := store.GetByID(ctx, thumbnailing.ID)
		if err != nil {
			t.Fatalf("GetByID thumbnailing: %v", err)
		}
		if reclaimed.Status != queue.StatusCataloged {
			t.Fatalf("expected thumbnailing item rolled back to cataloged, got %s", reclaimed.Status)
		}
		if reclaimed.LastHeartbeat != nil {
			t.Fatalf("expected thumbnailing heartbeat cleared, got %v", reclaimed.LastHeartbeat)
		}

		unchanged, err := store.GetByID(ctx, exporting.ID)
		if err != nil {
			t.Fatalf("GetByID exporting: %v", err)
		}
		if unchanged.Status != queue.StatusExporting {
			t.Fatalf("expected exporting item untouched, got %s", unchanged.Status)
		}
		if unchanged.LastHeartbeat == nil || !unchanged.LastHeartbeat.Equal(past) {
			t.Fatalf("expected exporting heartbeat unchanged, got %v", unchanged.LastHeartbeat)
		}
	})
}

func TestUpdateProgressPreservesHeartbeat(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item := testsupport.NewClip(t, store, "Heartbeat Progress", "/videos/hb-progress.mp4")
	item.Status = queue.StatusExporting
	past := time.Now().Add(-5 * time.Minute).UTC()
	item.LastHeartbeat = &past
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if err := store.UpdateHeartbeat(ctx, item.ID); err != nil {
		t.Fatalf("UpdateHeartbeat: %v", err)
	}

	before, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID before progress: %v", err)
	}
	if before.LastHeartbeat == nil {
		t.Fatal("expected heartbeat set before progress update")
	}
	origHeartbeat := *before.LastHeartbeat

	before.ProgressStage = "Export"
	before.ProgressPercent = 42.5
	before.ProgressMessage = "Trimming"
	if err := store.UpdateProgress(ctx, before); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}

	after, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID after progress: %v", err)
	}
	if after.LastHeartbeat == nil {
		t.Fatal("expected heartbeat preserved after progress update")
	}
	if !after.LastHeartbeat.Equal(origHeartbeat) {
		t.Fatalf("expected heartbeat unchanged, before %v after %v", origHeartbeat, after.LastHeartbeat)
	}
	if after.ProgressStage != "Export" || after.ProgressMessage != "Trimming" {
		t.Fatalf("expected progress fields persisted, got stage=%q message=%q", after.ProgressStage, after.ProgressMessage)
	}
	if after.ProgressPercent != 42.5 {
		t.Fatalf("expected progress percent 42.5, got %f", after.ProgressPercent)
	}
}

func TestAnnotationRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item, err := store.NewClip(ctx, queue.NewClipRequest{
		SourcePath:        "/videos/at_bat.mp4",
		ClipTitle:         "At bat",
		HoldForAnnotation: true,
	})
	if err != nil {
		t.Fatalf("NewClip: %v", err)
	}
	if !item.HoldForAnnotation {
		t.Fatal("expected hold flag persisted")
	}

	item.SetReview(queue.AnnotationPendingReason)
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	parked, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if parked.Status != queue.StatusReview || !parked.NeedsReview {
		t.Fatalf("expected review status, got %s needsReview=%v", parked.Status, parked.NeedsReview)
	}

	parked.PlayResult = "double"
	parked.SpeedMPH = 62.4
	parked.HoldForAnnotation = false
	if err := store.Update(ctx, parked); err != nil {
		t.Fatalf("Update annotation: %v", err)
	}
	if err := store.ResolveReview(ctx, parked.ID); err != nil {
		t.Fatalf("ResolveReview: %v", err)
	}

	resolved, err := store.GetByID(ctx, parked.ID)
	if err != nil {
		t.Fatalf("GetByID resolved: %v", err)
	}
	if resolved.Status != queue.StatusPending {
		t.Fatalf("expected pending after resolve, got %s", resolved.Status)
	}
	if resolved.NeedsReview || resolved.ReviewReason != "" {
		t.Fatalf("expected review flags cleared, got needsReview=%v reason=%q", resolved.NeedsReview, resolved.ReviewReason)
	}
	if resolved.PlayResult != "double" || resolved.SpeedMPH != 62.4 {
		t.Fatalf("expected annotation persisted, got result=%q speed=%v", resolved.PlayResult, resolved.SpeedMPH)
	}
}
