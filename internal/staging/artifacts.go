package staging

import (
	"errors"
	"os"
	"strings"

	"log/slog"

	"dugout/internal/config"
	"dugout/internal/fileutil"
	"dugout/internal/logging"
	"dugout/internal/queue"
)

// RemoveItemArtifacts deletes the staging files belonging to one queue item:
// the exported intermediate, plus the source when dugout owns it (staged
// captures, and watch-folder pickups). Files outside the staging and import
// directories are the user's and are never touched, nor is the library copy.
// Failures are logged and otherwise ignored.
func RemoveItemArtifacts(logger *slog.Logger, cfg *config.Config, item *queue.Item) {
	if item == nil || cfg == nil {
		return
	}
	stagingDir := strings.TrimSpace(cfg.Paths.StagingDir)
	importDir := strings.TrimSpace(cfg.Paths.ImportDir)

	candidates := make([]string, 0, 2)
	if exported := strings.TrimSpace(item.ExportedFile); exported != "" && exported != item.SourcePath {
		candidates = append(candidates, exported)
	}
	if source := strings.TrimSpace(item.SourcePath); source != "" {
		if fileutil.Contains(stagingDir, source) || (item.Origin == queue.OriginWatch && fileutil.Contains(importDir, source)) {
			candidates = append(candidates, source)
		}
	}

	for _, path := range candidates {
		if path == item.FinalFile {
			continue
		}
		if !fileutil.Contains(stagingDir, path) && !fileutil.Contains(importDir, path) {
			continue
		}
		if err := os.Remove(path); err != nil {
			if !errors.Is(err, os.ErrNotExist) && logger != nil {
				logger.Warn("failed to remove staging file", logging.String("path", path), logging.Error(err))
			}
			continue
		}
		if logger != nil {
			logger.Info("removed staging file", logging.String("path", path))
		}
	}
}
