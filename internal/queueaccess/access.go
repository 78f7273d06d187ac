package queueaccess

import (
	"context"
	"fmt"
	"log/slog"

	"dugout/internal/api"
	"dugout/internal/config"
	"dugout/internal/ipc"
	"dugout/internal/logging"
	"dugout/internal/queue"
	"dugout/internal/staging"
)

// Access provides queue operations regardless of IPC or direct store backing.
// Per-item actions report the same outcome values either way, so command
// output does not depend on whether the daemon happened to be running.
type Access interface {
	Stats(ctx context.Context) (map[string]int, error)
	List(ctx context.Context, statuses []string) ([]api.QueueItem, error)
	Describe(ctx context.Context, id int64) (*api.QueueItem, error)
	ClearAll(ctx context.Context) (int64, error)
	ClearCompleted(ctx context.Context) (int64, error)
	ClearFailed(ctx context.Context) (int64, error)
	ResetStuck(ctx context.Context) (int64, error)
	RetryAll(ctx context.Context) (int64, error)
	Retry(ctx context.Context, ids []int64) (api.RetryItemsResult, error)
	Stop(ctx context.Context, ids []int64) (api.StopItemsResult, error)
	Remove(ctx context.Context, ids []int64) (api.RemoveItemsResult, error)
	Resolve(ctx context.Context, id int64) (*api.QueueItem, error)
	Health(ctx context.Context) (queue.HealthSummary, error)
}

// NewIPCAccess returns an Access backed by daemon IPC.
func NewIPCAccess(client *ipc.Client) Access {
	return &ipcAccess{client: client}
}

// NewStoreAccess returns an Access backed by direct database access. The
// config is needed so removals can discard staging artifacts the way the
// daemon would.
func NewStoreAccess(cfg *config.Config, store *queue.Store, logger *slog.Logger) Access {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &storeAccess{
		cfg:     cfg,
		store:   store,
		logger:  logger,
		service: api.NewQueueService(store),
	}
}

type ipcAccess struct {
	client *ipc.Client
}

func (a *ipcAccess) Stats(_ context.Context) (map[string]int, error) {
	resp, err := a.client.Status()
	if err != nil {
		return nil, err
	}
	return resp.QueueStats, nil
}

func (a *ipcAccess) List(_ context.Context, statuses []string) ([]api.QueueItem, error) {
	resp, err := a.client.QueueList(statuses)
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (a *ipcAccess) Describe(_ context.Context, id int64) (*api.QueueItem, error) {
	resp, err := a.client.QueueDescribe(id)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}
	return &resp.Item, nil
}

func (a *ipcAccess) ClearAll(_ context.Context) (int64, error) {
	resp, err := a.client.QueueClear()
	if err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

func (a *ipcAccess) ClearCompleted(_ context.Context) (int64, error) {
	resp, err := a.client.QueueClearCompleted()
	if err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

func (a *ipcAccess) ClearFailed(_ context.Context) (int64, error) {
	resp, err := a.client.QueueClearFailed()
	if err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

func (a *ipcAccess) ResetStuck(_ context.Context) (int64, error) {
	resp, err := a.client.QueueReset()
	if err != nil {
		return 0, err
	}
	return resp.Updated, nil
}

func (a *ipcAccess) RetryAll(_ context.Context) (int64, error) {
	resp, err := a.client.QueueRetry(nil)
	if err != nil {
		return 0, err
	}
	return resp.Updated, nil
}

func (a *ipcAccess) Retry(_ context.Context, ids []int64) (api.RetryItemsResult, error) {
	resp, err := a.client.QueueRetry(ids)
	if err != nil {
		return api.RetryItemsResult{}, err
	}
	return api.RetryItemsResult{UpdatedCount: resp.Updated, Items: resp.Items}, nil
}

func (a *ipcAccess) Stop(_ context.Context, ids []int64) (api.StopItemsResult, error) {
	resp, err := a.client.QueueStop(ids)
	if err != nil {
		return api.StopItemsResult{}, err
	}
	return api.StopItemsResult{UpdatedCount: resp.Updated, Items: resp.Items}, nil
}

func (a *ipcAccess) Remove(_ context.Context, ids []int64) (api.RemoveItemsResult, error) {
	resp, err := a.client.QueueRemove(ids)
	if err != nil {
		return api.RemoveItemsResult{}, err
	}
	return api.RemoveItemsResult{RemovedCount: resp.Removed, Items: resp.Items}, nil
}

func (a *ipcAccess) Resolve(_ context.Context, id int64) (*api.QueueItem, error) {
	resp, err := a.client.QueueResolve(id)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}
	return &resp.Item, nil
}

func (a *ipcAccess) Health(_ context.Context) (queue.HealthSummary, error) {
	resp, err := a.client.QueueHealth()
	if err != nil {
		return queue.HealthSummary{}, err
	}
	return queue.HealthSummary{
		Total:      resp.Total,
		Pending:    resp.Pending,
		Processing: resp.Processing,
		Failed:     resp.Failed,
		Review:     resp.Review,
		Completed:  resp.Completed,
	}, nil
}

type storeAccess struct {
	cfg     *config.Config
	store   *queue.Store
	logger  *slog.Logger
	service *api.QueueService
}

func (a *storeAccess) Stats(ctx context.Context) (map[string]int, error) {
	return a.service.Stats(ctx)
}

func (a *storeAccess) List(ctx context.Context, statuses []string) ([]api.QueueItem, error) {
	var filters []queue.Status
	for _, s := range statuses {
		if parsed, ok := queue.ParseStatus(s); ok {
			filters = append(filters, parsed)
		}
	}
	return a.service.List(ctx, filters...)
}

func (a *storeAccess) Describe(ctx context.Context, id int64) (*api.QueueItem, error) {
	return a.service.Describe(ctx, id)
}

func (a *storeAccess) ClearAll(ctx context.Context) (int64, error) {
	return a.store.Clear(ctx)
}

func (a *storeAccess) ClearCompleted(ctx context.Context) (int64, error) {
	return a.store.ClearCompleted(ctx)
}

func (a *storeAccess) ClearFailed(ctx context.Context) (int64, error) {
	return a.store.ClearFailed(ctx)
}

func (a *storeAccess) ResetStuck(ctx context.Context) (int64, error) {
	return a.store.ResetStuckProcessing(ctx)
}

func (a *storeAccess) RetryAll(ctx context.Context) (int64, error) {
	return a.store.RetryFailed(ctx)
}

func (a *storeAccess) Retry(ctx context.Context, ids []int64) (api.RetryItemsResult, error) {
	return api.RetryFailedItemsByID(ctx, storeActions{a}, ids)
}

func (a *storeAccess) Stop(ctx context.Context, ids []int64) (api.StopItemsResult, error) {
	return api.StopItemsByID(ctx, storeActions{a}, ids)
}

func (a *storeAccess) Remove(ctx context.Context, ids []int64) (api.RemoveItemsResult, error) {
	return api.RemoveItemsByID(ctx, storeActions{a}, ids)
}

func (a *storeAccess) Resolve(ctx context.Context, id int64) (*api.QueueItem, error) {
	item, err := a.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("queue item %d not found", id)
	}
	if item.Status != queue.StatusReview {
		return nil, fmt.Errorf("queue item %d is %s, not parked for review", id, item.Status)
	}
	if err := a.store.ResolveReview(ctx, id); err != nil {
		return nil, err
	}
	return a.service.Describe(ctx, id)
}

func (a *storeAccess) Health(ctx context.Context) (queue.HealthSummary, error) {
	return a.store.Health(ctx)
}

// storeActions adapts storeAccess to the api per-item action interfaces.
// Stop parks items for review with the user-stop reason; Remove discards
// staging artifacts before deleting the row, matching the daemon's behavior.
type storeActions struct {
	a *storeAccess
}

func (s storeActions) Describe(ctx context.Context, id int64) (*api.QueueItem, error) {
	return s.a.service.Describe(ctx, id)
}

func (s storeActions) Retry(ctx context.Context, id int64) (bool, error) {
	updated, err := s.a.store.RetryFailed(ctx, id)
	if err != nil {
		return false, err
	}
	return updated > 0, nil
}

func (s storeActions) Stop(ctx context.Context, id int64) (bool, error) {
	item, err := s.a.store.GetByID(ctx, id)
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
	if err := s.a.store.Update(ctx, item); err != nil {
		return false, err
	}
	return true, nil
}

func (s storeActions) Remove(ctx context.Context, id int64) (bool, error) {
	item, err := s.a.store.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if item == nil {
		return false, nil
	}
	staging.RemoveItemArtifacts(s.a.logger, s.a.cfg, item)
	return s.a.store.Remove(ctx, id)
}
