package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// TestResults stores results from all tests for final summary
type TestResults struct {
	ExecutorPath string
	ProbeResults *VideoInfo
	FramesRead   int
	StillWritten bool
	Errors       []string
}

var globalResults = &TestResults{
	Errors: make([]string, 0),
}

// skipIfNoFFmpeg skips the test if ffmpeg is not available
func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH - install with: brew install ffmpeg")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not found in PATH - install with: brew install ffmpeg")
	}
}

// makeTestVideo renders a 2 second 320x240 clip at 25 fps
func makeTestVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.mp4")
	cmd := exec.Command("ffmpeg", "-f", "lavfi", "-i", "testsrc=duration=2:size=320x240:rate=25",
		"-pix_fmt", "yuv420p", "-y", path)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Skipf("could not generate test video: %v\n%s", err, out)
	}
	return path
}

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	e, err := New(logger, Options{Threads: 2})
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}
	return e
}

func TestExecutorCreation(t *testing.T) {
	skipIfNoFFmpeg(t)

	e := newTestExecutor(t)
	if e.ffmpegPath == "" {
		t.Error("ffmpeg path is empty")
	}
	if e.ffprobePath == "" {
		t.Error("ffprobe path is empty")
	}

	globalResults.ExecutorPath = e.ffmpegPath
	t.Logf("ffmpeg: %s", e.ffmpegPath)
}

func TestExecutorMissingTool(t *testing.T) {
	_, err := New(zerolog.Nop(), Options{FFmpegPath: "definitely-not-ffmpeg-xyz"})
	if err == nil {
		t.Fatal("expected error for missing binary")
	}

	var notFound *ToolNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ToolNotFoundError, got %T: %v", err, err)
	}
	if notFound.Tool != "definitely-not-ffmpeg-xyz" {
		t.Errorf("unexpected tool name %q", notFound.Tool)
	}
}

func TestCommandLine(t *testing.T) {
	e := &Executor{logger: zerolog.Nop(), ffmpegPath: "/usr/bin/ffmpeg", threads: 3}

	got := strings.Join(e.CommandLine([]string{"-i", "in.mp4", "out.jpg"}), " ")
	want := "/usr/bin/ffmpeg -y -hide_banner -loglevel error -threads 3 -progress pipe:2 -i in.mp4 out.jpg"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestStillArgs(t *testing.T) {
	jpg := StillArgs(StillOptions{
		Input:       "in.mp4",
		Output:      "out/keyFrame.1500.jpg",
		TimestampMs: 1500,
		Width:       640,
		Codec:       StillJPEG,
		QScale:      2,
	})
	want := "-ss 1.500 -i in.mp4 -frames:v 1 -vf scale=640:-1:flags=bicubic -q:v 2 out/keyFrame.1500.jpg"
	if got := strings.Join(jpg, " "); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	png := StillArgs(StillOptions{
		Input:       "in.mp4",
		Output:      "f.png",
		TimestampMs: 0,
		Codec:       StillPNG,
		Compression: 1,
	})
	want = "-ss 0.000 -i in.mp4 -frames:v 1 -compression_level 1 f.png"
	if got := strings.Join(png, " "); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestDryRunExecutorSkipsLookup(t *testing.T) {
	e, err := New(zerolog.Nop(), Options{FFmpegPath: "ffmpeg-not-installed", DryRun: true})
	if err != nil {
		t.Fatalf("dry-run executor should not resolve binaries: %v", err)
	}

	argv := e.CommandLine(StillArgs(StillOptions{
		Input: "in.mp4", Output: "out.jpg", TimestampMs: 1500, Codec: StillJPEG, QScale: 2,
	}))
	if argv[0] != "ffmpeg-not-installed" {
		t.Errorf("expected the configured binary name, got %q", argv[0])
	}

	if _, err := New(zerolog.Nop(), Options{FFmpegPath: "ffmpeg-not-installed"}); err == nil {
		t.Error("expected ToolNotFoundError without dry run")
	}
}

func TestFilterBuilder(t *testing.T) {
	filter := NewFilterBuilder().ScaleWidth(640).SelectFrame(42).Build()

	expected := `scale=640:-1:flags=bicubic,select=eq(n\,42)`
	if filter != expected {
		t.Errorf("expected %q, got %q", expected, filter)
	}
}

func TestFilterBuilderEmpty(t *testing.T) {
	filter := NewFilterBuilder().ScaleWidth(0).ScaleWidth(-5).SelectFrame(-1).Build()

	if filter != "" {
		t.Errorf("expected empty string, got %q", filter)
	}
}

func TestProbeVideo(t *testing.T) {
	skipIfNoFFmpeg(t)

	path := makeTestVideo(t)
	e := newTestExecutor(t)

	start := time.Now()
	info, err := e.ProbeVideo(context.Background(), path)
	if err != nil {
		globalResults.Errors = append(globalResults.Errors, fmt.Sprintf("ProbeVideo failed: %v", err))
		t.Fatalf("ProbeVideo failed: %v", err)
	}

	globalResults.ProbeResults = info

	if info.Width != 320 {
		t.Errorf("expected width 320, got %d", info.Width)
	}
	if info.Height != 240 {
		t.Errorf("expected height 240, got %d", info.Height)
	}
	if info.FPS < 24.9 || info.FPS > 25.1 {
		t.Errorf("expected 25 fps, got %.3f", info.FPS)
	}

	t.Logf("Video info: %dx%d, %.2f fps, duration: %v (probed in %v)",
		info.Width, info.Height, info.FPS, info.Duration, time.Since(start))
}

func TestProbeVideoInvalidFile(t *testing.T) {
	skipIfNoFFmpeg(t)

	e := newTestExecutor(t)
	ctx := context.Background()

	if _, err := e.ProbeVideo(ctx, "nonexistent.mp4"); err == nil {
		t.Error("ProbeVideo should fail for non-existent file")
	}

	invalidPath := filepath.Join(t.TempDir(), "invalid.txt")
	os.WriteFile(invalidPath, []byte("not a video"), 0644)

	if _, err := e.ProbeVideo(ctx, invalidPath); err == nil {
		t.Error("ProbeVideo should fail for invalid video file")
	}
}

func TestVideoFrameReads(t *testing.T) {
	skipIfNoFFmpeg(t)

	path := makeTestVideo(t)
	e := newTestExecutor(t)
	ctx := context.Background()

	video, err := e.OpenVideo(ctx, path)
	if err != nil {
		t.Fatalf("OpenVideo failed: %v", err)
	}
	defer video.Close()

	if d := video.Duration(); d < 1900*time.Millisecond || d > 2100*time.Millisecond {
		t.Errorf("expected a 2s duration, got %v", d)
	}

	img, err := video.FrameAt(ctx, 1000)
	if err != nil {
		t.Fatalf("FrameAt failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 240 {
		t.Errorf("unexpected frame size %v", b)
	}
	globalResults.FramesRead++

	img, err = video.FrameAtIndex(ctx, 10)
	if err != nil {
		t.Fatalf("FrameAtIndex failed: %v", err)
	}
	if img.Bounds().Dx() != 320 {
		t.Errorf("unexpected frame width %d", img.Bounds().Dx())
	}
	globalResults.FramesRead++

	if _, err := video.FrameAt(ctx, 60_000); err == nil {
		t.Error("expected no frame past the end of the video")
	}
}

func TestExportStill(t *testing.T) {
	skipIfNoFFmpeg(t)

	path := makeTestVideo(t)
	e := newTestExecutor(t)

	out := filepath.Join(t.TempDir(), "still.jpg")
	err := e.ExportStill(context.Background(), StillOptions{
		Input:       path,
		Output:      out,
		TimestampMs: 500,
		Width:       160,
		Codec:       StillJPEG,
		QScale:      2,
	})
	if err != nil {
		globalResults.Errors = append(globalResults.Errors, fmt.Sprintf("ExportStill failed: %v", err))
		t.Fatalf("ExportStill failed: %v", err)
	}

	stat, err := os.Stat(out)
	if err != nil {
		t.Fatalf("still was not created: %v", err)
	}
	globalResults.StillWritten = true
	t.Logf("Still created: %s (size: %d bytes)", out, stat.Size())
}

func TestExportStillPastEnd(t *testing.T) {
	skipIfNoFFmpeg(t)

	path := makeTestVideo(t)
	e := newTestExecutor(t)

	out := filepath.Join(t.TempDir(), "late.jpg")
	err := e.ExportStill(context.Background(), StillOptions{
		Input:       path,
		Output:      out,
		TimestampMs: 600000,
		Codec:       StillJPEG,
		QScale:      2,
	})
	if err == nil {
		t.Fatal("expected an error for a timestamp past the end of the video")
	}
}

// TestMain runs after all tests and prints summary
func TestMain(m *testing.M) {
	code := m.Run()

	printTestSummary()

	os.Exit(code)
}

func printTestSummary() {
	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("TEST SUMMARY - FFmpeg Layer")
	fmt.Println(strings.Repeat("=", 60))

	if globalResults.ExecutorPath != "" {
		fmt.Printf("FFmpeg Binary: %s\n", globalResults.ExecutorPath)
	}
	if globalResults.ProbeResults != nil {
		fmt.Printf("Probe: %dx%d @ %.2f fps, %v\n",
			globalResults.ProbeResults.Width,
			globalResults.ProbeResults.Height,
			globalResults.ProbeResults.FPS,
			globalResults.ProbeResults.Duration)
	}
	fmt.Printf("Frames decoded: %d\n", globalResults.FramesRead)
	fmt.Printf("Still export:   %v\n", globalResults.StillWritten)

	for i, err := range globalResults.Errors {
		fmt.Printf("  %d. %s\n", i+1, err)
	}

	fmt.Println(strings.Repeat("=", 60))
}
