// Package pipeline turns a render configuration into an encoded MP4:
// precompute the static assets, compose frames in parallel and stream them
// to the encoder in presentation order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/linuxmatters/jivereel/internal/audio"
	"github.com/linuxmatters/jivereel/internal/config"
	"github.com/linuxmatters/jivereel/internal/encoder"
	"github.com/linuxmatters/jivereel/internal/renderer"
)

// Progress is reported after each batch of frames is written.
type Progress struct {
	Frame       int // Frames written so far
	TotalFrames int
	Elapsed     time.Duration
	Amplitudes  []float64       // Row of the last written frame, nil without a waveform
	Preview     *renderer.Frame // Last written frame, set every PreviewEvery frames
	FileSize    int64
}

// Options control a render beyond what RenderConfig describes.
type Options struct {
	Workers      int // Parallel compositors, 0 for GOMAXPROCS
	BatchSize    int // Frames composed before writing, 0 for 4 per worker
	Encoder      *encoder.HWEncoder
	PreviewEvery int // 0 disables preview frames

	PosterPath  string // Written after precompute when set
	PosterTitle string

	AnalysisProgress audio.ProgressCallback
	Precomputed      func(*renderer.Assets)
	Progress         func(Progress)
}

// Result describes a finished render.
type Result struct {
	SessionID   string
	OutputPath  string
	Frames      int
	FileSize    int64
	EncoderName string

	Assets *renderer.Assets
	Output *encoder.OutputInfo // Nil when the MP4 could not be probed

	PrecomputeTime time.Duration
	PosterTime     time.Duration
	ComposeTime    time.Duration
	EncodeTime     time.Duration
	FinalizeTime   time.Duration
	TotalTime      time.Duration
}

// ResolveAudioWindow replaces End with the length of the audio file when
// UseAudioDuration is set. An unreadable file keeps the configured End.
func ResolveAudioWindow(c config.RenderConfig) config.RenderConfig {
	if !c.UseAudioDuration {
		return c
	}
	d, err := audio.Duration(c.AudioPath)
	if err != nil || d <= 0 {
		warnf("cannot read audio duration, keeping end %.3fs: %v", c.End, err)
		return c
	}
	c.End = d
	return c
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (o Options) batchSize() int {
	if o.BatchSize > 0 {
		return o.BatchSize
	}
	return o.workers() * 4
}

// Render produces c.OutputPath. The file is encoded under a temporary name
// in the same directory and renamed once ffmpeg has finished, so a failed
// or cancelled render never leaves a truncated output behind.
func Render(ctx context.Context, c config.RenderConfig, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.OutputPath == "" {
		return nil, fmt.Errorf("%w: no output path", config.ErrInvalidConfig)
	}

	startTime := time.Now()
	res := &Result{SessionID: uuid.NewString(), OutputPath: c.OutputPath}
	debugf("pipeline: session %s rendering %s", res.SessionID, c.OutputPath)

	assets, err := renderer.Precompute(ResolveAudioWindow(c), opts.AnalysisProgress)
	if err != nil {
		return nil, err
	}
	res.Assets = assets
	res.Frames = assets.Frames
	res.PrecomputeTime = assets.PrecomputeTime
	if opts.Precomputed != nil {
		opts.Precomputed(assets)
	}

	if opts.PosterPath != "" {
		t0 := time.Now()
		if err := renderer.GeneratePoster(opts.PosterPath, assets, opts.PosterTitle); err != nil {
			return nil, fmt.Errorf("failed to generate poster: %w", err)
		}
		res.PosterTime = time.Since(t0)
	}

	cfg := assets.Config
	tmpPath := filepath.Join(filepath.Dir(cfg.OutputPath), ".jivereel-"+res.SessionID+".mp4")

	encCfg := encoder.Config{
		OutputPath:    tmpPath,
		Width:         cfg.Width,
		Height:        cfg.Height,
		Framerate:     cfg.FPS,
		AudioStart:    cfg.Start,
		AudioDuration: cfg.Duration(),
		Encoder:       opts.Encoder,
	}
	total := assets.Frames
	if _, err := os.Stat(cfg.AudioPath); err != nil {
		warnf("audio file %s not found, encoding without sound", cfg.AudioPath)
	} else if n, ok := audioFrames(assets); !ok {
		warnf("audio %s ends before %.3fs, encoding without sound", cfg.AudioPath, cfg.Start)
	} else {
		encCfg.AudioPath = cfg.AudioPath
		if n < total {
			warnf("audio ends %.3fs into the clip, video shortened to %d frames", float64(n)/float64(cfg.FPS), n)
			total = n
		}
	}
	res.Frames = total
	res.EncoderName = "libx264"
	if opts.Encoder != nil {
		res.EncoderName = opts.Encoder.Name
	}

	enc, err := encoder.New(encCfg)
	if err != nil {
		return nil, fmt.Errorf("creating encoder: %w", err)
	}
	if err := enc.Initialize(); err != nil {
		return nil, fmt.Errorf("initializing encoder: %w", err)
	}

	if err := streamFrames(ctx, assets, total, enc, tmpPath, opts, res, startTime); err != nil {
		enc.Abort()
		os.Remove(tmpPath)
		return nil, err
	}
	res.Frames = enc.FramesWritten()

	t0 := time.Now()
	if err := enc.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("finalizing video: %w", err)
	}
	if err := os.Rename(tmpPath, cfg.OutputPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to move video into place: %w", err)
	}
	res.FinalizeTime = time.Since(t0)

	if info, err := os.Stat(cfg.OutputPath); err == nil {
		res.FileSize = info.Size()
	}
	if out, err := encoder.ProbeOutput(cfg.OutputPath); err != nil {
		warnf("cannot verify %s: %v", cfg.OutputPath, err)
	} else {
		res.Output = out
	}

	res.TotalTime = time.Since(startTime)
	debugf("pipeline: session %s wrote %d frames in %s", res.SessionID, res.Frames, res.TotalTime)
	return res, nil
}

// audioFrames is the number of frames covered by the audio that remains
// after the clip start, capped at a.Frames. ok is false when no audio is
// left at all. An audio length that cannot be determined leaves the frame
// count alone and relies on ffmpeg's -shortest.
func audioFrames(a *renderer.Assets) (int, bool) {
	c := a.Config

	var avail float64
	if an := a.Analysis; an != nil && !an.Degraded && an.Duration > 0 {
		avail = an.Duration
	} else {
		d, err := audio.Duration(c.AudioPath)
		if err != nil {
			debugf("pipeline: audio length unknown: %v", err)
			return a.Frames, true
		}
		avail = d - c.Start
	}

	switch {
	case avail <= 0:
		return 0, false
	case avail >= c.Duration()-0.5/float64(c.FPS):
		return a.Frames, true
	}
	return max(1, min(a.Frames, config.FrameCount(0, avail, c.FPS))), true
}

// streamFrames composes frames batch by batch. Within a batch frames are
// composed concurrently; batches are written strictly in order. If ffmpeg
// stops reading early the remaining frames are dropped and Close reports
// whether the file is usable.
func streamFrames(ctx context.Context, a *renderer.Assets, total int, enc *encoder.Encoder, path string, opts Options, res *Result, startTime time.Time) error {
	batch := opts.batchSize()
	frames := make([]*renderer.Frame, batch)

	for first := 0; first < total; first += batch {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := min(batch, total-first)

		t0 := time.Now()
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.workers())
		for i := 0; i < n; i++ {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				frames[i] = renderer.ComposeIndex(first+i, a)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		res.ComposeTime += time.Since(t0)

		t0 = time.Now()
		for i := 0; i < n; i++ {
			err := enc.WriteFrame(frames[i].Pix)
			if errors.Is(err, encoder.ErrInputClosed) {
				res.EncodeTime += time.Since(t0)
				warnf("ffmpeg finished after %d of %d frames", first+i, total)
				return nil
			}
			if err != nil {
				return fmt.Errorf("error encoding frame %d: %w", first+i, err)
			}
		}
		res.EncodeTime += time.Since(t0)

		if opts.Progress != nil {
			opts.Progress(batchProgress(a, frames[:n], first, total, opts, path, startTime))
		}
		clear(frames)
	}
	return nil
}

func batchProgress(a *renderer.Assets, frames []*renderer.Frame, first, total int, opts Options, path string, startTime time.Time) Progress {
	last := frames[len(frames)-1]
	p := Progress{
		Frame:       first + len(frames),
		TotalFrames: total,
		Elapsed:     time.Since(startTime),
	}
	if row := a.Amplitudes.Row(last.Index); row != nil {
		p.Amplitudes = append([]float64(nil), row...)
	}
	if opts.PreviewEvery > 0 {
		for _, f := range frames {
			if f.Index%opts.PreviewEvery == 0 {
				p.Preview = f
			}
		}
	}
	if info, err := os.Stat(path); err == nil {
		p.FileSize = info.Size()
	}
	return p
}
