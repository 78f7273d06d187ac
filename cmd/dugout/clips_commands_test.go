package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"dugout/internal/library"
	"dugout/internal/testsupport"
)

func TestClipsListAndDescribe(t *testing.T) {
	env := setupCLITestEnv(t)

	athlete := testsupport.NewAthlete(t, env.lib, "Riley Park")
	clipPath := filepath.Join(env.cfg.Paths.StagingDir, "double.mp4")
	testsupport.WriteFile(t, clipPath, 4096)

	clip, err := env.lib.SaveClip(context.Background(), library.SaveClipRequest{
		AthleteID: athlete.ID,
		Title:     "Gap shot",
		FilePath:  clipPath,
		Result:    library.PlayDouble,
	})
	if err != nil {
		t.Fatalf("SaveClip: %v", err)
	}

	out, _, err := runCLI(t, []string{"clips", "list", "--athlete", "Riley Park"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("clips list: %v", err)
	}
	requireContains(t, out, "Gap shot")
	requireContains(t, out, "Double")

	out, _, err = runCLI(t, []string{"clips", "describe", "1"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("clips describe: %v", err)
	}
	requireContains(t, out, "Gap shot")
	requireContains(t, out, clip.FilePath)
}

func TestClipsHighlightToggle(t *testing.T) {
	env := setupCLITestEnv(t)

	athlete := testsupport.NewAthlete(t, env.lib, "Riley Park")
	clipPath := filepath.Join(env.cfg.Paths.StagingDir, "clip.mp4")
	testsupport.WriteFile(t, clipPath, 1024)

	if _, err := env.lib.SaveClip(context.Background(), library.SaveClipRequest{
		AthleteID: athlete.ID,
		FilePath:  clipPath,
	}); err != nil {
		t.Fatalf("SaveClip: %v", err)
	}

	out, _, err := runCLI(t, []string{"clips", "highlight", "1"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("clips highlight: %v", err)
	}
	requireContains(t, out, "flagged as a highlight")

	out, _, err = runCLI(t, []string{"clips", "highlight", "1", "--off"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("clips highlight --off: %v", err)
	}
	requireContains(t, out, "no longer a highlight")
}

// Removing a clip deletes the file and the record but keeps the statistics it
// produced; recompute is the explicit repair path.
func TestClipsRemoveKeepsStatistics(t *testing.T) {
	env := setupCLITestEnv(t)

	athlete := testsupport.NewAthlete(t, env.lib, "Riley Park")
	clipPath := filepath.Join(env.cfg.Paths.StagingDir, "single.mp4")
	testsupport.WriteFile(t, clipPath, 1024)

	clip, err := env.lib.SaveClip(context.Background(), library.SaveClipRequest{
		AthleteID: athlete.ID,
		FilePath:  clipPath,
		Result:    library.PlaySingle,
	})
	if err != nil {
		t.Fatalf("SaveClip: %v", err)
	}

	out, _, err := runCLI(t, []string{"clips", "remove", "1"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("clips remove: %v", err)
	}
	requireContains(t, out, "Clip 1 removed")

	if _, err := os.Stat(clip.FilePath); !os.IsNotExist(err) {
		t.Fatalf("expected clip file %s to be deleted", clip.FilePath)
	}

	line, err := env.lib.StatsForAthlete(context.Background(), athlete.ID)
	if err != nil {
		t.Fatalf("StatsForAthlete: %v", err)
	}
	if line.Hits != 1 || line.AtBats != 1 {
		t.Fatalf("stats after delete = %d H / %d AB, want 1/1 (no decrement on delete)", line.Hits, line.AtBats)
	}
}
