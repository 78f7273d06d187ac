package ipc_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dugout/internal/daemon"
	"dugout/internal/ipc"
	"dugout/internal/logging"
	"dugout/internal/queue"
	"dugout/internal/stage"
	"dugout/internal/testsupport"
	"dugout/internal/workflow"
)

type noopStage struct{}

func (noopStage) Prepare(context.Context, *queue.Item) error { return nil }
func (noopStage) Execute(context.Context, *queue.Item) error { return nil }
func (noopStage) HealthCheck(context.Context) stage.Health {
	return stage.Healthy("noop")
}

func TestIPCServerClient(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	lib := testsupport.MustOpenLibrary(t, cfg)
	logger := logging.NewNop()
	mgr := workflow.NewManager(cfg, store, logger)
	mgr.ConfigureStages(workflow.StageSet{Validator: noopStage{}})
	d, err := daemon.New(cfg, store, lib, logger, mgr)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(d.Stop)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	socket := filepath.Join(cfg.Paths.LogDir, "dugout.sock")
	srv, err := ipc.NewServer(ctx, socket, d, logger)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)

	time.Sleep(50 * time.Millisecond)

	client, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})

	startResp, err := client.Start()
	if err != nil {
		t.Fatalf("Start RPC failed: %v", err)
	}
	if !startResp.Started {
		t.Fatalf("expected Started=true, message=%s", startResp.Message)
	}

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if !status.Running {
		t.Fatal("expected daemon to be running")
	}
	if status.PID <= 0 {
		t.Fatalf("expected daemon PID, got %d", status.PID)
	}
	if status.Capture == nil || status.Capture.Active {
		t.Fatalf("expected idle capture status, got %#v", status.Capture)
	}
	if len(status.Capabilities) == 0 {
		t.Fatal("expected capability report in status")
	}
	if len(status.Dependencies) == 0 {
		t.Fatal("expected dependency report in status")
	}
	if !strings.HasSuffix(status.QueueDBPath, "queue.db") {
		t.Fatalf("unexpected queue db path: %s", status.QueueDBPath)
	}
	if !strings.HasSuffix(status.LockPath, "dugout.lock") {
		t.Fatalf("unexpected lock path: %s", status.LockPath)
	}

	recordStatus, err := client.RecordStatus()
	if err != nil {
		t.Fatalf("RecordStatus failed: %v", err)
	}
	if recordStatus.Session.Active {
		t.Fatal("expected no active recording session")
	}

	logPath := filepath.Join(cfg.Paths.LogDir, "dugout.log")
	if err := os.WriteFile(logPath, []byte("first\nsecond\nthird\n"), 0o644); err != nil {
		t.Fatalf("write log file: %v", err)
	}

	logResp, err := client.LogTail(ipc.LogTailRequest{Offset: -1, Limit: 2})
	if err != nil {
		t.Fatalf("LogTail initial failed: %v", err)
	}
	if len(logResp.Lines) != 2 || logResp.Lines[0] != "second" || logResp.Lines[1] != "third" {
		t.Fatalf("unexpected log tail response: %#v", logResp.Lines)
	}

	followDone := make(chan struct{})
	go func(offset int64) {
		resp, err := client.LogTail(ipc.LogTailRequest{Offset: offset, Follow: true, WaitMillis: 500})
		if err != nil {
			t.Errorf("LogTail follow error: %v", err)
			return
		}
		if len(resp.Lines) != 1 || resp.Lines[0] != "fourth" {
			t.Errorf("unexpected follow lines: %#v", resp.Lines)
		}
		close(followDone)
	}(logResp.Offset)

	time.Sleep(100 * time.Millisecond)
	if f, err := os.OpenFile(logPath, os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
		_, _ = f.WriteString("fourth\n")
		_ = f.Close()
	} else {
		t.Fatalf("append log: %v", err)
	}

	select {
	case <-followDone:
	case <-time.After(10 * time.Second):
		t.Fatal("log tail follow timed out")
	}

	stopDuring, err := client.Stop()
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if !stopDuring.Stopped {
		t.Fatalf("expected Stop to report stopped, got: %#v", stopDuring)
	}

	if _, err := client.RecordStart(ipc.RecordStartRequest{ClipTitle: "BP Round 1"}); err == nil || !strings.Contains(err.Error(), "daemon is not running") {
		t.Fatalf("expected RecordStart to fail while stopped, got %v", err)
	}

	clipA := testsupport.NewClip(t, store, "Game 4 At-Bat 12", filepath.Join(cfg.Paths.StagingDir, "a.mp4"))
	clipB := testsupport.NewClip(t, store, "Bullpen Session", filepath.Join(cfg.Paths.StagingDir, "b.mp4"))
	clipB.Status = queue.StatusFailed
	if err := store.Update(ctx, clipB); err != nil {
		t.Fatalf("Update clipB: %v", err)
	}
	clipC := testsupport.NewClip(t, store, "Scrimmage Cut", filepath.Join(cfg.Paths.StagingDir, "c.mp4"))
	clipC.Status = queue.StatusExporting
	if err := store.Update(ctx, clipC); err != nil {
		t.Fatalf("Update clipC: %v", err)
	}

	listResp, err := client.QueueList(nil)
	if err != nil {
		t.Fatalf("QueueList failed: %v", err)
	}
	if len(listResp.Items) != 3 {
		t.Fatalf("expected 3 queue items, got %d", len(listResp.Items))
	}

	failedResp, err := client.QueueList([]string{string(queue.StatusFailed)})
	if err != nil {
		t.Fatalf("QueueList failed filter: %v", err)
	}
	if len(failedResp.Items) != 1 || failedResp.Items[0].ID != clipB.ID {
		t.Fatalf("expected failed item %d, got %#v", clipB.ID, failedResp.Items)
	}

	describeResp, err := client.QueueDescribe(clipA.ID)
	if err != nil {
		t.Fatalf("QueueDescribe failed: %v", err)
	}
	if describeResp.Item.ClipTitle != "Game 4 At-Bat 12" {
		t.Fatalf("unexpected described item: %#v", describeResp.Item)
	}
	if _, err := client.QueueDescribe(999999); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected describe of missing item to fail, got %v", err)
	}

	resetResp, err := client.QueueReset()
	if err != nil {
		t.Fatalf("QueueReset failed: %v", err)
	}
	if resetResp.Updated != 1 {
		t.Fatalf("expected 1 item reset, got %d", resetResp.Updated)
	}
	updatedC, err := store.GetByID(ctx, clipC.ID)
	if err != nil {
		t.Fatalf("GetByID clipC: %v", err)
	}
	if updatedC.Status != queue.StatusValidated {
		t.Fatalf("expected exporting item to resume from validated checkpoint, got %s", updatedC.Status)
	}

	retryResp, err := client.QueueRetry([]int64{clipB.ID})
	if err != nil {
		t.Fatalf("QueueRetry failed: %v", err)
	}
	if retryResp.Updated != 1 || len(retryResp.Items) != 1 {
		t.Fatalf("unexpected retry response: %#v", retryResp)
	}
	if string(retryResp.Items[0].Outcome) != "retried" || retryResp.Items[0].NewStatus != string(queue.StatusPending) {
		t.Fatalf("unexpected retry outcome: %#v", retryResp.Items[0])
	}

	retryAllResp, err := client.QueueRetry(nil)
	if err != nil {
		t.Fatalf("QueueRetry all failed: %v", err)
	}
	if retryAllResp.Updated != 0 {
		t.Fatalf("expected no failed items left to retry, got %d", retryAllResp.Updated)
	}

	stopItemsResp, err := client.QueueStop([]int64{clipA.ID})
	if err != nil {
		t.Fatalf("QueueStop failed: %v", err)
	}
	if stopItemsResp.Updated != 1 || len(stopItemsResp.Items) != 1 {
		t.Fatalf("unexpected stop response: %#v", stopItemsResp)
	}
	if string(stopItemsResp.Items[0].Outcome) != "stopped" || stopItemsResp.Items[0].PriorStatus != string(queue.StatusPending) {
		t.Fatalf("unexpected stop outcome: %#v", stopItemsResp.Items[0])
	}
	stoppedA, err := store.GetByID(ctx, clipA.ID)
	if err != nil {
		t.Fatalf("GetByID clipA: %v", err)
	}
	if stoppedA.Status != queue.StatusReview || stoppedA.ReviewReason != queue.UserStopReason {
		t.Fatalf("expected clipA parked by user stop, got %s (%s)", stoppedA.Status, stoppedA.ReviewReason)
	}

	stopAgainResp, err := client.QueueStop([]int64{clipA.ID})
	if err != nil {
		t.Fatalf("QueueStop repeat failed: %v", err)
	}
	if stopAgainResp.Updated != 0 || string(stopAgainResp.Items[0].Outcome) != "already_parked" {
		t.Fatalf("unexpected repeat stop outcome: %#v", stopAgainResp.Items)
	}

	resolveResp, err := client.QueueResolve(clipA.ID)
	if err != nil {
		t.Fatalf("QueueResolve failed: %v", err)
	}
	if resolveResp.Item.Status != string(queue.StatusPending) || resolveResp.Item.NeedsReview {
		t.Fatalf("expected resolved item back to pending, got %#v", resolveResp.Item)
	}

	athlete := testsupport.NewAthlete(t, lib, "Jordan Hayes")
	annotateResp, err := client.Annotate(ipc.AnnotateRequest{
		ID:         clipA.ID,
		PlayResult: "double",
		SpeedMPH:   64.2,
		AthleteID:  athlete.ID,
	})
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	if annotateResp.Item.PlayResult != "double" || annotateResp.Item.AthleteID != athlete.ID {
		t.Fatalf("unexpected annotate result: %#v", annotateResp.Item)
	}
	if annotateResp.Item.SpeedMPH != 64.2 {
		t.Fatalf("expected speed recorded, got %v", annotateResp.Item.SpeedMPH)
	}
	if _, err := client.Annotate(ipc.AnnotateRequest{ID: clipA.ID, AthleteID: 9999}); err == nil || !strings.Contains(err.Error(), "athlete 9999 not found") {
		t.Fatalf("expected unknown athlete to be rejected, got %v", err)
	}

	importPath := filepath.Join(testsupport.BaseDir(cfg), "incoming", "Scrimmage Highlights.mp4")
	testsupport.WriteFile(t, importPath, 2048)
	addResp, err := client.Add(ipc.AddRequest{SourcePath: importPath, ClipTitle: "Scrimmage Highlights"})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if addResp.Item.Origin != string(queue.OriginImport) || addResp.Item.Status != string(queue.StatusPending) {
		t.Fatalf("unexpected added item: %#v", addResp.Item)
	}
	if addResp.Item.SourcePath != importPath {
		t.Fatalf("expected absolute source path %s, got %s", importPath, addResp.Item.SourcePath)
	}
	if _, err := client.Add(ipc.AddRequest{SourcePath: importPath}); err == nil || !strings.Contains(err.Error(), "already queued") {
		t.Fatalf("expected duplicate add to fail, got %v", err)
	}
	notesPath := filepath.Join(testsupport.BaseDir(cfg), "incoming", "notes.txt")
	testsupport.WriteFile(t, notesPath, 16)
	if _, err := client.Add(ipc.AddRequest{SourcePath: notesPath}); err == nil || !strings.Contains(err.Error(), "unsupported file type") {
		t.Fatalf("expected unsupported extension to fail, got %v", err)
	}

	removeResp, err := client.QueueRemove([]int64{addResp.Item.ID})
	if err != nil {
		t.Fatalf("QueueRemove failed: %v", err)
	}
	if removeResp.Removed != 1 || string(removeResp.Items[0].Outcome) != "removed" {
		t.Fatalf("unexpected remove response: %#v", removeResp)
	}

	storageResp, err := client.StorageStatus()
	if err != nil {
		t.Fatalf("StorageStatus failed: %v", err)
	}
	if storageResp.Storage.Path != cfg.Paths.StagingDir {
		t.Fatalf("unexpected storage path: %s", storageResp.Storage.Path)
	}
	if storageResp.Storage.TotalBytes == 0 {
		t.Fatal("expected storage probe to report capacity")
	}

	healthResp, err := client.QueueHealth()
	if err != nil {
		t.Fatalf("QueueHealth failed: %v", err)
	}
	if healthResp.Total != 3 || healthResp.Pending != 2 || healthResp.Failed != 0 || healthResp.Review != 0 {
		t.Fatalf("unexpected health response: %#v", healthResp)
	}

	dbHealth, err := client.DatabaseHealth()
	if err != nil {
		t.Fatalf("DatabaseHealth failed: %v", err)
	}
	if !strings.HasSuffix(dbHealth.DBPath, "queue.db") {
		t.Fatalf("unexpected db path: %s", dbHealth.DBPath)
	}
	if !dbHealth.DatabaseExists || !dbHealth.TableExists {
		t.Fatalf("expected healthy database, got %#v", dbHealth)
	}
	if dbHealth.TotalItems != 3 {
		t.Fatalf("expected 3 items in database, got %d", dbHealth.TotalItems)
	}

	notifyResp, err := client.TestNotification()
	if err != nil {
		t.Fatalf("TestNotification failed: %v", err)
	}
	if notifyResp.Sent || notifyResp.Message != "ntfy topic not configured" {
		t.Fatalf("unexpected notification response: %#v", notifyResp)
	}

	clearResp, err := client.QueueClear()
	if err != nil {
		t.Fatalf("QueueClear failed: %v", err)
	}
	if clearResp.Removed != 3 {
		t.Fatalf("expected 3 items cleared, got %d", clearResp.Removed)
	}

	status2, err := client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if status2.Running {
		t.Fatal("expected daemon to be stopped")
	}
}
