package ffmpeg

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func setHelperCommand(t *testing.T, mode, output string) *[]string {
	t.Helper()
	var captured []string
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		captured = append([]string(nil), args...)
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(),
			"GO_WANT_HELPER_PROCESS=1",
			fmt.Sprintf("FFMPEG_HELPER_MODE=%s", mode),
			fmt.Sprintf("FFMPEG_HELPER_OUTPUT=%s", output),
		)
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
	return &captured
}

func TestNewCLIWithBinary(t *testing.T) {
	cli := NewCLI(WithBinary("/opt/ffmpeg"))
	if cli.binary != "/opt/ffmpeg" {
		t.Fatalf("expected binary override, got %q", cli.binary)
	}
}

func TestTrimValidatesSpec(t *testing.T) {
	cli := NewCLI()
	ctx := context.Background()
	if err := cli.Trim(ctx, TrimSpec{Output: "/tmp/out.mp4", StartSeconds: 0, EndSeconds: 5}, nil); err == nil {
		t.Fatal("expected error for missing input")
	}
	if err := cli.Trim(ctx, TrimSpec{Input: "/tmp/in.mp4", StartSeconds: 0, EndSeconds: 5}, nil); err == nil {
		t.Fatal("expected error for missing output")
	}
	if err := cli.Trim(ctx, TrimSpec{Input: "/tmp/in.mp4", Output: "/tmp/out.mp4", StartSeconds: 5, EndSeconds: 5}, nil); err == nil {
		t.Fatal("expected error for empty window")
	}
}

func TestTrimSuccess(t *testing.T) {
	tempDir := t.TempDir()
	output := filepath.Join(tempDir, "trimmed.mp4")
	captured := setHelperCommand(t, "trim-success", output)

	cli := NewCLI()
	var updates []ProgressUpdate
	err := cli.Trim(context.Background(), TrimSpec{
		Input:        filepath.Join(tempDir, "source.mp4"),
		Output:       output,
		StartSeconds: 2,
		EndSeconds:   8,
	}, func(update ProgressUpdate) {
		updates = append(updates, update)
	})
	if err != nil {
		t.Fatalf("Trim: %v", err)
	}

	if len(updates) == 0 {
		t.Fatal("expected progress updates")
	}
	if final := updates[len(updates)-1]; final.Percent != 100 {
		t.Fatalf("final percent = %v, want 100", final.Percent)
	}
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("output should exist: %v", err)
	}

	args := *captured
	if idx := findArg(args, "-ss"); idx == -1 || args[idx+1] != "2.000" {
		t.Fatalf("expected -ss 2.000 in args %v", args)
	}
	if idx := findArg(args, "-t"); idx == -1 || args[idx+1] != "6.000" {
		t.Fatalf("expected -t 6.000 in args %v", args)
	}
	if idx := findArg(args, "-c"); idx == -1 || args[idx+1] != "copy" {
		t.Fatalf("expected stream copy in args %v", args)
	}
}

func TestTrimOmitsSeekAtZeroStart(t *testing.T) {
	tempDir := t.TempDir()
	output := filepath.Join(tempDir, "head.mp4")
	captured := setHelperCommand(t, "trim-success", output)

	cli := NewCLI()
	if err := cli.Trim(context.Background(), TrimSpec{
		Input:        filepath.Join(tempDir, "source.mp4"),
		Output:       output,
		StartSeconds: 0,
		EndSeconds:   5,
	}, nil); err != nil {
		t.Fatalf("Trim: %v", err)
	}
	if findArg(*captured, "-ss") != -1 {
		t.Fatalf("zero start should omit -ss, got %v", *captured)
	}
}

func TestTrimFailureRemovesPartialOutput(t *testing.T) {
	tempDir := t.TempDir()
	output := filepath.Join(tempDir, "broken.mp4")
	setHelperCommand(t, "trim-fail", output)

	cli := NewCLI()
	err := cli.Trim(context.Background(), TrimSpec{
		Input:        filepath.Join(tempDir, "source.mp4"),
		Output:       output,
		StartSeconds: 1,
		EndSeconds:   4,
	}, nil)
	if err == nil {
		t.Fatal("expected trim failure")
	}
	if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
		t.Fatal("partial output should be removed after failure")
	}
}

func TestThumbnailArgs(t *testing.T) {
	tempDir := t.TempDir()
	output := filepath.Join(tempDir, "thumb.jpg")
	captured := setHelperCommand(t, "thumbnail", output)

	cli := NewCLI()
	if err := cli.Thumbnail(context.Background(), ThumbnailSpec{
		Input:     filepath.Join(tempDir, "clip.mp4"),
		Output:    output,
		AtSeconds: 1.5,
	}); err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}

	args := *captured
	if idx := findArg(args, "-frames:v"); idx == -1 || args[idx+1] != "1" {
		t.Fatalf("expected single frame extraction, got %v", args)
	}
	if idx := findArg(args, "-vf"); idx == -1 || args[idx+1] != "scale=640:-2" {
		t.Fatalf("expected default width scale, got %v", args)
	}
	if idx := findArg(args, "-ss"); idx == -1 || args[idx+1] != "1.500" {
		t.Fatalf("expected -ss 1.500, got %v", args)
	}
}

func TestThumbnailValidatesSpec(t *testing.T) {
	cli := NewCLI()
	if err := cli.Thumbnail(context.Background(), ThumbnailSpec{Output: "x.jpg"}); err == nil {
		t.Fatal("expected error for missing input")
	}
	if err := cli.Thumbnail(context.Background(), ThumbnailSpec{Input: "x.mp4"}); err == nil {
		t.Fatal("expected error for missing output")
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	output := os.Getenv("FFMPEG_HELPER_OUTPUT")

	switch os.Getenv("FFMPEG_HELPER_MODE") {
	case "trim-success":
		_ = os.WriteFile(output, []byte("trimmed"), 0o644)
		fmt.Println("out_time_us=3000000")
		fmt.Println("progress=continue")
		fmt.Println("out_time_us=6000000")
		fmt.Println("progress=end")
		os.Exit(0)
	case "trim-fail":
		_ = os.WriteFile(output, []byte("partial"), 0o644)
		fmt.Fprintln(os.Stderr, "Invalid data found when processing input")
		os.Exit(1)
	case "thumbnail":
		_ = os.WriteFile(output, []byte("jpeg"), 0o644)
		os.Exit(0)
	case "record":
		_ = os.WriteFile(output, []byte("recording"), 0o644)
		fmt.Println("out_time_us=1000000")
		fmt.Println("progress=continue")
		reader := bufio.NewReader(os.Stdin)
		for {
			b, err := reader.ReadByte()
			if err != nil {
				os.Exit(0)
			}
			if b == 'q' {
				os.Exit(0)
			}
		}
	default:
		os.Exit(0)
	}
}

func findArg(args []string, target string) int {
	for i, arg := range args {
		if arg == target {
			return i
		}
	}
	return -1
}
