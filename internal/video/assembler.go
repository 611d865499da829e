// Package video turns an ordered batch of still images into an encoded
// slideshow clip. The stills cycle at a slow input rate while ffmpeg
// re-times them to a smooth output rate, so a handful of captures fills
// the full clip duration.
package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/tholee-studio/camera-service/internal/errors"
	"github.com/tholee-studio/camera-service/internal/metrics"
)

// OrientationLandscape selects the wide output geometry; any other
// orientation value produces the portrait geometry.
const OrientationLandscape = "landscape"

const outputFile = "video.mp4"

// runFunc executes the ffmpeg binary.
type runFunc func(ctx context.Context, bin string, args ...string) error

// Assembler encodes still batches into video clips via ffmpeg.
type Assembler struct {
	bin        string
	inputRate  int
	outputRate int
	duration   time.Duration
	preset     string
	run        runFunc
}

// NewAssembler creates an Assembler. inputRate is how many stills advance
// per second in the clip, outputRate the encoded frame rate, duration the
// clip length.
func NewAssembler(bin string, inputRate, outputRate int, duration time.Duration, preset string) *Assembler {
	return &Assembler{
		bin:        bin,
		inputRate:  inputRate,
		outputRate: outputRate,
		duration:   duration,
		preset:     preset,
		run:        runFFmpeg,
	}
}

// Result is a finished clip on disk. Cleanup removes the workspace holding
// it and must be called once the file has been served.
type Result struct {
	Path    string
	Cleanup func()
}

// Assemble validates the stills, lays them out in a fresh workspace and
// encodes the clip. Zero stills or an undecodable still reject the batch
// with InvalidParameter before any encoder work happens.
func (a *Assembler) Assemble(ctx context.Context, stills [][]byte, orientation string) (*Result, error) {
	start := time.Now()

	result, err := a.assemble(ctx, stills, orientation)
	if err != nil {
		status := "error"
		var svcErr *apperrors.Error
		if errors.As(err, &svcErr) && svcErr.Type == apperrors.TypeInvalidParameter {
			status = "rejected"
		}
		metrics.VideoJobsTotal.WithLabelValues(status).Inc()
		return nil, err
	}

	metrics.VideoJobsTotal.WithLabelValues("success").Inc()
	metrics.VideoJobDuration.Observe(time.Since(start).Seconds())
	slog.InfoContext(ctx, "Video assembled",
		"stills", len(stills),
		"orientation", orientation,
		"duration", a.duration,
		"elapsed", time.Since(start))
	return result, nil
}

func (a *Assembler) assemble(ctx context.Context, stills [][]byte, orientation string) (*Result, error) {
	if len(stills) == 0 {
		return nil, apperrors.InvalidParameter("no images uploaded")
	}

	if err := validateStills(ctx, stills); err != nil {
		return nil, err
	}

	dir := filepath.Join(os.TempDir(), "camera-video-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.InternalError("failed to create video workspace", err)
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	paths := make([]string, len(stills))
	for i, data := range stills {
		paths[i] = filepath.Join(dir, fmt.Sprintf("%04d.jpg", i))
		if err := os.WriteFile(paths[i], data, 0o644); err != nil {
			cleanup()
			return nil, apperrors.InternalError("failed to write still image", err)
		}
	}

	listPath := filepath.Join(dir, "frames.txt")
	plan := a.plan()
	if err := os.WriteFile(listPath, []byte(concatList(paths, plan)), 0o644); err != nil {
		cleanup()
		return nil, apperrors.InternalError("failed to write concat list", err)
	}

	width, height := outputSize(orientation)
	outPath := filepath.Join(dir, outputFile)
	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-vf", fmt.Sprintf("scale=%d:%d", width, height),
		"-r", fmt.Sprintf("%d", a.outputRate),
		"-c:v", "libx264",
		"-preset", a.preset,
		"-pix_fmt", "yuv420p",
		"-y",
		outPath,
	}
	if err := a.run(ctx, a.bin, args...); err != nil {
		cleanup()
		return nil, apperrors.InternalError("video encoding failed", err)
	}

	return &Result{Path: outPath, Cleanup: cleanup}, nil
}

// validateStills decodes every upload header in parallel; the first
// undecodable still rejects the whole batch, naming its position.
func validateStills(ctx context.Context, stills [][]byte) error {
	g, _ := errgroup.WithContext(ctx)
	for i, data := range stills {
		g.Go(func() error {
			if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
				return apperrors.InvalidParameter(fmt.Sprintf("upload %d is not a decodable image", i)).
					WithContext("index", i)
			}
			return nil
		})
	}
	return g.Wait()
}

// framePlan is the timing layout of one clip.
type framePlan struct {
	// Entries is how many concat list rows the clip has; the stills cycle
	// to fill them.
	Entries int
	// EntryDuration is how long each row is shown.
	EntryDuration time.Duration
	// Repeats is how many encoded frames each row yields.
	Repeats int
	// TotalFrames is the encoded frame count of the clip.
	TotalFrames int
}

func (a *Assembler) plan() framePlan {
	entries := int(a.duration.Seconds() * float64(a.inputRate))
	repeats := a.outputRate / a.inputRate
	return framePlan{
		Entries:       entries,
		EntryDuration: time.Second / time.Duration(a.inputRate),
		Repeats:       repeats,
		TotalFrames:   entries * repeats,
	}
}

// concatList renders the ffmpeg concat demuxer input: plan.Entries rows
// cycling the stills, each held for plan.EntryDuration. The final file is
// repeated without a duration, which the demuxer needs to time the last
// entry correctly.
func concatList(paths []string, plan framePlan) string {
	var b strings.Builder
	seconds := plan.EntryDuration.Seconds()

	var last string
	for i := 0; i < plan.Entries; i++ {
		last = paths[i%len(paths)]
		fmt.Fprintf(&b, "file '%s'\nduration %.6f\n", last, seconds)
	}
	if last != "" {
		fmt.Fprintf(&b, "file '%s'\n", last)
	}
	return b.String()
}

func outputSize(orientation string) (width, height int) {
	if orientation == OrientationLandscape {
		return 1080, 720
	}
	return 720, 1080
}

// runFFmpeg runs one ffmpeg invocation. ffmpeg writes its diagnosis at the
// end of stderr, so the tail is folded into the error.
func runFFmpeg(ctx context.Context, bin string, args ...string) error {
	cmd := exec.CommandContext(ctx, bin, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w: %s", bin, err, lastLine(stderr.String()))
	}
	return nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
