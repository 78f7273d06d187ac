package workflow

import "dugout/internal/queue"

// ConfigureStages registers the concrete stage handlers the workflow will run.
// The foreground lane carries a clip from pending to cataloged; the background
// lane finishes it with a thumbnail. When no thumbnailer is registered the
// cataloger completes items directly, since thumbnails are enrichment rather
// than a requirement.
func (m *Manager) ConfigureStages(set StageSet) {
	foreground := &laneState{kind: laneForeground, name: "foreground", notificationsEnabled: true}
	background := &laneState{kind: laneBackground, name: "background", notificationsEnabled: false}

	if set.Validator != nil {
		foreground.stages = append(foreground.stages, pipelineStage{
			name:             "validator",
			handler:          set.Validator,
			startStatus:      queue.StatusPending,
			processingStatus: queue.StatusValidating,
			doneStatus:       queue.StatusValidated,
		})
	}
	if set.Exporter != nil {
		foreground.stages = append(foreground.stages, pipelineStage{
			name:             "exporter",
			handler:          set.Exporter,
			startStatus:      queue.StatusValidated,
			processingStatus: queue.StatusExporting,
			doneStatus:       queue.StatusExported,
		})
	}
	catalogerDone := queue.StatusCataloged
	if set.Thumbnailer == nil {
		catalogerDone = queue.StatusCompleted
	}
	if set.Cataloger != nil {
		foreground.stages = append(foreground.stages, pipelineStage{
			name:             "cataloger",
			handler:          set.Cataloger,
			startStatus:      queue.StatusExported,
			processingStatus: queue.StatusCataloging,
			doneStatus:       catalogerDone,
		})
	}
	if set.Thumbnailer != nil {
		background.stages = append(background.stages, pipelineStage{
			name:             "thumbnailer",
			handler:          set.Thumbnailer,
			startStatus:      queue.StatusCataloged,
			processingStatus: queue.StatusThumbnailing,
			doneStatus:       queue.StatusCompleted,
		})
	}

	lanes := make(map[laneKind]*laneState)
	order := make([]laneKind, 0, 2)

	if len(foreground.stages) > 0 {
		foreground.finalize()
		lanes[foreground.kind] = foreground
		order = append(order, foreground.kind)
	}
	if len(background.stages) > 0 {
		background.finalize()
		lanes[background.kind] = background
		order = append(order, background.kind)
	}

	for _, lane := range lanes {
		if lane == nil {
			continue
		}
		lane.runReclaimer = len(lane.processingStatuses) > 0
	}

	m.mu.Lock()
	m.lanes = lanes
	m.laneOrder = order
	m.mu.Unlock()
}
