package library_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dugout/internal/library"
	"dugout/internal/testsupport"
)

func writeClipFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	testsupport.WriteFile(t, path, 2048)
	return path
}

func TestSaveClipWithPlayResultUpdatesEveryScope(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLibrary(t, cfg)
	ctx := context.Background()

	athlete := testsupport.NewAthlete(t, store, "Casey Ramirez")
	season, err := store.CreateSeason(ctx, athlete.ID, "Spring 2026", time.Now())
	if err != nil {
		t.Fatalf("CreateSeason: %v", err)
	}
	game, err := store.CreateGame(ctx, library.GameRequest{AthleteID: athlete.ID, Opponent: "River Hawks"})
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if game.SeasonID != season.ID {
		t.Fatalf("game should link active season %d, got %d", season.ID, game.SeasonID)
	}

	clipPath := writeClipFile(t, cfg.Paths.LibraryDir, "double.mp4")
	clip, err := store.SaveClip(ctx, library.SaveClipRequest{
		AthleteID:       athlete.ID,
		GameID:          game.ID,
		Title:           "Double off the wall",
		FilePath:        clipPath,
		DurationSeconds: 14.5,
		Result:          library.PlayDouble,
		SpeedMPH:        68,
	})
	if err != nil {
		t.Fatalf("SaveClip: %v", err)
	}
	if clip.PlayResultID == 0 {
		t.Fatal("clip should link its play result")
	}
	if clip.SeasonID != season.ID {
		t.Fatalf("clip should link active season %d, got %d", season.ID, clip.SeasonID)
	}
	if clip.Result != library.PlayDouble {
		t.Fatalf("clip result = %q, want double", clip.Result)
	}
	if clip.SizeBytes != 2048 {
		t.Fatalf("clip size should come from disk, got %d", clip.SizeBytes)
	}

	career, err := store.StatsForAthlete(ctx, athlete.ID)
	if err != nil {
		t.Fatalf("StatsForAthlete: %v", err)
	}
	if career.Doubles != 1 || career.Hits != 1 || career.AtBats != 1 {
		t.Fatalf("career stats wrong: %+v", career)
	}

	gameStats, err := store.StatsForGame(ctx, game.ID)
	if err != nil {
		t.Fatalf("StatsForGame: %v", err)
	}
	if gameStats.Doubles != 1 {
		t.Fatalf("game stats wrong: %+v", gameStats)
	}

	seasonStats, err := store.StatsForSeason(ctx, season.ID)
	if err != nil {
		t.Fatalf("StatsForSeason: %v", err)
	}
	if seasonStats.Doubles != 1 {
		t.Fatalf("season stats wrong: %+v", seasonStats)
	}
}

func TestSaveClipRequiresExistingFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLibrary(t, cfg)
	ctx := context.Background()

	athlete := testsupport.NewAthlete(t, store, "Jordan Lee")

	_, err := store.SaveClip(ctx, library.SaveClipRequest{
		AthleteID: athlete.ID,
		Title:     "Ghost clip",
		FilePath:  filepath.Join(cfg.Paths.LibraryDir, "missing.mp4"),
		Result:    library.PlaySingle,
	})
	if err == nil {
		t.Fatal("SaveClip should fail when the file does not exist")
	}

	clips, err := store.ListClips(ctx, library.ClipFilter{AthleteID: athlete.ID})
	if err != nil {
		t.Fatalf("ListClips: %v", err)
	}
	if len(clips) != 0 {
		t.Fatalf("no clip row should exist after a failed save, got %d", len(clips))
	}
	stats, err := store.StatsForAthlete(ctx, athlete.ID)
	if err != nil {
		t.Fatalf("StatsForAthlete: %v", err)
	}
	if !stats.IsZero() {
		t.Fatalf("stats must stay empty after a failed save: %+v", stats)
	}
}

func TestSaveClipRejectsConflictingLinks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLibrary(t, cfg)
	ctx := context.Background()

	athlete := testsupport.NewAthlete(t, store, "Sam Ortiz")
	game, err := store.CreateGame(ctx, library.GameRequest{AthleteID: athlete.ID, Opponent: "Thunder"})
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	practice, err := store.CreatePractice(ctx, library.PracticeRequest{AthleteID: athlete.ID})
	if err != nil {
		t.Fatalf("CreatePractice: %v", err)
	}

	_, err = store.SaveClip(ctx, library.SaveClipRequest{
		AthleteID:  athlete.ID,
		GameID:     game.ID,
		PracticeID: practice.ID,
		FilePath:   writeClipFile(t, cfg.Paths.LibraryDir, "both.mp4"),
	})
	if err == nil {
		t.Fatal("SaveClip should reject a clip linked to both a game and a practice")
	}
}

func TestDeleteClipKeepsStatsAndPlayResult(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLibrary(t, cfg)
	ctx := context.Background()

	athlete := testsupport.NewAthlete(t, store, "Riley Chen")
	clipPath := writeClipFile(t, cfg.Paths.LibraryDir, "homer.mp4")
	thumbPath := filepath.Join(cfg.Paths.LibraryDir, "homer.jpg")
	testsupport.WriteFile(t, thumbPath, 128)

	clip, err := store.SaveClip(ctx, library.SaveClipRequest{
		AthleteID: athlete.ID,
		Title:     "No doubter",
		FilePath:  clipPath,
		Result:    library.PlayHomeRun,
	})
	if err != nil {
		t.Fatalf("SaveClip: %v", err)
	}
	if !clip.Highlight {
		t.Fatal("home run clip should be auto-highlighted")
	}
	if err := store.AttachThumbnail(ctx, clip.ID, thumbPath); err != nil {
		t.Fatalf("AttachThumbnail: %v", err)
	}

	if err := store.DeleteClip(ctx, clip.ID); err != nil {
		t.Fatalf("DeleteClip: %v", err)
	}

	if _, err := os.Stat(clipPath); !os.IsNotExist(err) {
		t.Fatal("clip file should be removed from disk")
	}
	if _, err := os.Stat(thumbPath); !os.IsNotExist(err) {
		t.Fatal("thumbnail should be removed from disk")
	}
	if _, err := store.GetClip(ctx, clip.ID); !errors.Is(err, library.ErrNotFound) {
		t.Fatalf("GetClip after delete = %v, want ErrNotFound", err)
	}

	stats, err := store.StatsForAthlete(ctx, athlete.ID)
	if err != nil {
		t.Fatalf("StatsForAthlete: %v", err)
	}
	if stats.HomeRuns != 1 || stats.Hits != 1 || stats.AtBats != 1 {
		t.Fatalf("deleting the clip must not decrement stats: %+v", stats)
	}
	if got := stats.BattingAverage(); got != 1.0 {
		t.Fatalf("BattingAverage = %v, want 1.000", got)
	}
}

func TestRecomputeStatsRebuildsFromPlayResults(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLibrary(t, cfg)
	ctx := context.Background()

	athlete := testsupport.NewAthlete(t, store, "Avery Brooks")
	game, err := store.CreateGame(ctx, library.GameRequest{AthleteID: athlete.ID, Opponent: "Comets"})
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}

	results := []library.PlayResult{library.PlaySingle, library.PlayStrikeout, library.PlayTriple}
	for i, result := range results {
		clip, err := store.SaveClip(ctx, library.SaveClipRequest{
			AthleteID: athlete.ID,
			GameID:    game.ID,
			FilePath:  writeClipFile(t, cfg.Paths.LibraryDir, string(result)+".mp4"),
			Result:    result,
		})
		if err != nil {
			t.Fatalf("SaveClip %d: %v", i, err)
		}
		// Remove one clip mid-stream; the play result must survive.
		if i == 0 {
			if err := store.DeleteClip(ctx, clip.ID); err != nil {
				t.Fatalf("DeleteClip: %v", err)
			}
		}
	}

	before, err := store.StatsForGame(ctx, game.ID)
	if err != nil {
		t.Fatalf("StatsForGame: %v", err)
	}

	if err := store.RecomputeStats(ctx); err != nil {
		t.Fatalf("RecomputeStats: %v", err)
	}

	after, err := store.StatsForGame(ctx, game.ID)
	if err != nil {
		t.Fatalf("StatsForGame after recompute: %v", err)
	}
	if *after != *before {
		t.Fatalf("recompute changed totals: before %+v after %+v", before, after)
	}
	if after.Singles != 1 || after.Triples != 1 || after.Strikeouts != 1 || after.AtBats != 3 {
		t.Fatalf("recomputed stats wrong: %+v", after)
	}
}

func TestSeasonActivationRetiresPrevious(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLibrary(t, cfg)
	ctx := context.Background()

	athlete := testsupport.NewAthlete(t, store, "Drew Park")
	first, err := store.CreateSeason(ctx, athlete.ID, "Spring", time.Now().Add(-90*24*time.Hour))
	if err != nil {
		t.Fatalf("CreateSeason: %v", err)
	}
	second, err := store.CreateSeason(ctx, athlete.ID, "Summer", time.Now())
	if err != nil {
		t.Fatalf("CreateSeason: %v", err)
	}

	active, err := store.ActiveSeason(ctx, athlete.ID)
	if err != nil {
		t.Fatalf("ActiveSeason: %v", err)
	}
	if active == nil || active.ID != second.ID {
		t.Fatalf("newest season should be active, got %+v", active)
	}

	refreshed, err := store.GetSeason(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetSeason: %v", err)
	}
	if refreshed.Active {
		t.Fatal("creating a season must retire the previous active one")
	}

	if err := store.SetActiveSeason(ctx, first.ID); err != nil {
		t.Fatalf("SetActiveSeason: %v", err)
	}
	active, err = store.ActiveSeason(ctx, athlete.ID)
	if err != nil {
		t.Fatalf("ActiveSeason: %v", err)
	}
	if active == nil || active.ID != first.ID {
		t.Fatalf("SetActiveSeason should switch back, got %+v", active)
	}
}

func TestFindAthleteByName(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLibrary(t, cfg)
	ctx := context.Background()

	casey := testsupport.NewAthlete(t, store, "Casey Ramirez")
	testsupport.NewAthlete(t, store, "Jordan Washington")

	exact, err := store.FindAthleteByName(ctx, "casey ramirez")
	if err != nil {
		t.Fatalf("exact lookup: %v", err)
	}
	if exact.ID != casey.ID {
		t.Fatalf("exact lookup resolved athlete %d, want %d", exact.ID, casey.ID)
	}

	fuzzy, err := store.FindAthleteByName(ctx, "Ramirez, Casey")
	if err != nil {
		t.Fatalf("fuzzy lookup: %v", err)
	}
	if fuzzy.ID != casey.ID {
		t.Fatalf("fuzzy lookup resolved athlete %d, want %d", fuzzy.ID, casey.ID)
	}

	if _, err := store.FindAthleteByName(ctx, "Nobody Inparticular"); !errors.Is(err, library.ErrNotFound) {
		t.Fatalf("unknown name should yield ErrNotFound, got %v", err)
	}
}

func TestListAthletesSortedByName(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLibrary(t, cfg)
	ctx := context.Background()

	testsupport.NewAthlete(t, store, "zoe adams")
	testsupport.NewAthlete(t, store, "Ángel Cruz")
	testsupport.NewAthlete(t, store, "Billie Nguyen")

	athletes, err := store.ListAthletes(ctx)
	if err != nil {
		t.Fatalf("ListAthletes: %v", err)
	}
	if len(athletes) != 3 {
		t.Fatalf("expected 3 athletes, got %d", len(athletes))
	}
	want := []string{"Ángel Cruz", "Billie Nguyen", "zoe adams"}
	for i, athlete := range athletes {
		if athlete.Name != want[i] {
			t.Fatalf("roster order %d = %q, want %q", i, athlete.Name, want[i])
		}
	}
}

func TestDeleteAthleteRemovesClipFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLibrary(t, cfg)
	ctx := context.Background()

	athlete := testsupport.NewAthlete(t, store, "Taylor Reed")
	clipPath := writeClipFile(t, cfg.Paths.LibraryDir, "swing.mp4")
	clip, err := store.SaveClip(ctx, library.SaveClipRequest{
		AthleteID: athlete.ID,
		FilePath:  clipPath,
	})
	if err != nil {
		t.Fatalf("SaveClip: %v", err)
	}

	if err := store.DeleteAthlete(ctx, athlete.ID); err != nil {
		t.Fatalf("DeleteAthlete: %v", err)
	}

	if _, err := os.Stat(clipPath); !os.IsNotExist(err) {
		t.Fatal("athlete deletion should remove clip files")
	}
	if _, err := store.GetClip(ctx, clip.ID); !errors.Is(err, library.ErrNotFound) {
		t.Fatalf("clip row should cascade away, got %v", err)
	}
	if _, err := store.GetAthlete(ctx, athlete.ID); !errors.Is(err, library.ErrNotFound) {
		t.Fatalf("athlete should be gone, got %v", err)
	}
}

func TestListClipsFilters(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLibrary(t, cfg)
	ctx := context.Background()

	athlete := testsupport.NewAthlete(t, store, "Morgan Diaz")
	game, err := store.CreateGame(ctx, library.GameRequest{AthleteID: athlete.ID, Opponent: "Storm"})
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}

	if _, err := store.SaveClip(ctx, library.SaveClipRequest{
		AthleteID: athlete.ID,
		GameID:    game.ID,
		FilePath:  writeClipFile(t, cfg.Paths.LibraryDir, "triple.mp4"),
		Result:    library.PlayTriple,
	}); err != nil {
		t.Fatalf("SaveClip: %v", err)
	}
	if _, err := store.SaveClip(ctx, library.SaveClipRequest{
		AthleteID: athlete.ID,
		FilePath:  writeClipFile(t, cfg.Paths.LibraryDir, "grounder.mp4"),
		Result:    library.PlayGroundOut,
	}); err != nil {
		t.Fatalf("SaveClip: %v", err)
	}

	highlights, err := store.ListClips(ctx, library.ClipFilter{AthleteID: athlete.ID, HighlightOnly: true})
	if err != nil {
		t.Fatalf("ListClips highlights: %v", err)
	}
	if len(highlights) != 1 || highlights[0].Result != library.PlayTriple {
		t.Fatalf("highlight filter wrong: %+v", highlights)
	}

	gameClips, err := store.ListClips(ctx, library.ClipFilter{GameID: game.ID})
	if err != nil {
		t.Fatalf("ListClips game: %v", err)
	}
	if len(gameClips) != 1 {
		t.Fatalf("expected 1 game clip, got %d", len(gameClips))
	}

	byResult, err := store.ListClips(ctx, library.ClipFilter{AthleteID: athlete.ID, Result: library.PlayGroundOut})
	if err != nil {
		t.Fatalf("ListClips result: %v", err)
	}
	if len(byResult) != 1 {
		t.Fatalf("expected 1 ground-out clip, got %d", len(byResult))
	}
}
