package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"

	"github.com/linuxmatters/jivereel/internal/audio"
	"github.com/linuxmatters/jivereel/internal/cli"
	"github.com/linuxmatters/jivereel/internal/config"
	"github.com/linuxmatters/jivereel/internal/encoder"
	"github.com/linuxmatters/jivereel/internal/pipeline"
	"github.com/linuxmatters/jivereel/internal/renderer"
	"github.com/linuxmatters/jivereel/internal/ui"
)

// version is set via ldflags at build time
// Local dev builds: "dev"
// Release builds: git tag (e.g. "v0.1.0")
var version = "dev"

// warnings buffers recoverable problems while the TUI owns the terminal.
type warnings struct {
	mu   sync.Mutex
	msgs []string
}

func (w *warnings) add(format string, args ...interface{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, fmt.Sprintf(format, args...))
}

func (w *warnings) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, m := range w.msgs {
		cli.PrintWarning(m)
	}
	w.msgs = nil
}

var warn = &warnings{}

func fatal(format string, args ...interface{}) {
	warn.flush()
	cli.PrintError(fmt.Sprintf(format, args...))
	os.Exit(1)
}

func main() {
	// .env only fills variables that are not already set
	_ = godotenv.Load()

	var opts Options
	kctx := kong.Parse(&opts,
		kong.Name("jivereel"),
		kong.Description(cli.Tagline),
		kong.Vars{"version": version},
		kong.UsageOnError(),
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	if opts.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	config.WarnLog = warn.add
	audio.WarnLog = warn.add
	renderer.WarnLog = warn.add
	pipeline.WarnLog = warn.add
	defer warn.flush()

	if opts.Debug != "" {
		f, err := os.Create(opts.Debug)
		if err != nil {
			fatal("opening debug log: %v", err)
		}
		defer f.Close()
		logger := log.New(f, "", log.LstdFlags|log.Lmicroseconds)
		audio.DebugLog = logger.Printf
		renderer.DebugLog = logger.Printf
		pipeline.DebugLog = logger.Printf
	}

	if opts.ListEncoders {
		fmt.Print(encoder.GetEncoderStatus())
		return
	}

	cfg, profileName := resolveConfig(&opts, explicitFlags(kctx))

	if opts.DumpProfile {
		warn.flush()
		if err := config.DumpProfile(os.Stdout, profileName, cfg); err != nil {
			fatal("%v", err)
		}
		return
	}

	if cfg.ImagePath == "" || cfg.AudioPath == "" {
		fatal("<image> and <audio> are required")
	}
	if cfg.OutputPath == "" {
		fatal("<output> is required unless the profile sets output_filename")
	}
	for _, path := range missingInputs(cfg) {
		warn.add("input file does not exist, rendering without it: %s", path)
	}

	if opts.Snapshot {
		writeSnapshot(cfg, opts.At)
		return
	}

	accel, ok := encoder.ParseHWAccel(opts.Encoder)
	if !ok {
		fatal("unknown encoder %q", opts.Encoder)
	}
	hw := encoder.SelectBestEncoder(accel)
	if hw == nil && accel != encoder.HWAccelAuto && accel != encoder.HWAccelNone {
		warn.add("%s encoder not available, using libx264", accel)
	}

	renderOpts := pipeline.Options{
		Workers:      opts.Workers,
		Encoder:      hw,
		PreviewEvery: cfg.FPS / 5,
	}
	if opts.NoPreview {
		renderOpts.PreviewEvery = 0
	}
	if !opts.NoPoster {
		renderOpts.PosterPath = posterPath(cfg.OutputPath)
		renderOpts.PosterTitle = opts.Title
		if renderOpts.PosterTitle == "" {
			meta, _ := audio.GetAudioMetadata(cfg.AudioPath)
			renderOpts.PosterTitle = meta.DisplayTitle(cfg.AudioPath)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var res *pipeline.Result
	var err error
	if isatty.IsTerminal(os.Stdout.Fd()) {
		res, err = renderWithUI(ctx, cfg, renderOpts, opts.NoPreview)
	} else {
		res, err = renderPlain(ctx, cfg, renderOpts)
	}

	warn.flush()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fatal("render cancelled")
		}
		fatal("%v", err)
	}
	if renderOpts.PosterPath != "" {
		cli.PrintSuccess(fmt.Sprintf("Poster: %s", renderOpts.PosterPath))
	}
	cli.PrintSuccess(fmt.Sprintf("Done! Output: %s", res.OutputPath))
}

// missingInputs lists the image and audio paths that do not exist. The
// render still runs: a missing image gives a plain background and missing
// audio gives flat bars and a silent video.
func missingInputs(cfg config.RenderConfig) []string {
	var missing []string
	for _, path := range []string{cfg.ImagePath, cfg.AudioPath} {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			missing = append(missing, path)
		}
	}
	return missing
}

// explicitFlags returns the long names of flags given on the command line
// or through the environment.
func explicitFlags(kctx *kong.Context) map[string]bool {
	set := make(map[string]bool)
	for _, f := range kctx.Flags() {
		if f.Set {
			set[f.Name] = true
		}
	}
	return set
}

// resolveConfig layers defaults, the selected profile and explicit flags.
func resolveConfig(opts *Options, set map[string]bool) (config.RenderConfig, string) {
	cfg := config.Default()
	name := "custom"

	switch {
	case opts.Profiles != "":
		profiles, err := config.LoadProfiles(opts.Profiles)
		if err != nil {
			fatal("%v", err)
		}
		if opts.ListProfiles {
			listProfiles(profiles)
			os.Exit(0)
		}
		p, err := profiles.Get(opts.Profile)
		if err != nil {
			fatal("%v", err)
		}
		if cfg, err = p.Apply(cfg); err != nil {
			fatal("%v", err)
		}
		name = p.Name
	case opts.ListProfiles || opts.Profile != "":
		fatal("--profiles is required to select or list profiles")
	}

	cfg, err := applyFlags(cfg, opts, set)
	if err != nil {
		fatal("%v", err)
	}
	return cfg, name
}

func listProfiles(s *config.ProfileSet) {
	cli.PrintSection("Profiles")
	for _, name := range s.Names() {
		label := s.Profiles[name].DisplayName
		if name == s.Default {
			label += " (default)"
		}
		cli.PrintInfo(name, label)
	}
}

func writeSnapshot(cfg config.RenderConfig, at string) {
	start := time.Now()
	assets, err := renderer.Precompute(pipeline.ResolveAudioWindow(cfg), nil)
	if err != nil {
		fatal("%v", err)
	}

	out := cfg.OutputPath
	if filepath.Ext(out) != ".png" {
		out = posterPath(out)
	}
	t := config.ParseTimecode(at)
	if err := renderer.WriteSnapshot(out, t, assets); err != nil {
		fatal("writing snapshot: %v", err)
	}
	cli.PrintSuccess(fmt.Sprintf("Snapshot at %s: %s (%s)", config.FormatTimecode(t), out, cli.FormatDuration(time.Since(start))))
}

func codecLabels(cfg config.RenderConfig, opts pipeline.Options) (string, string) {
	name := "libx264"
	if opts.Encoder != nil {
		name = opts.Encoder.Name
	}
	return fmt.Sprintf("H.264 %d×%d (%s)", cfg.Width, cfg.Height, name), "AAC 192 kb/s"
}

func renderWithUI(ctx context.Context, cfg config.RenderConfig, opts pipeline.Options, noPreview bool) (*pipeline.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := ui.NewModel(noPreview, cfg.FPS)
	p := tea.NewProgram(model)
	videoCodec, audioCodec := codecLabels(cfg, opts)

	lastSent := -1
	opts.AnalysisProgress = func(frame, total int, elapsed time.Duration) {
		// Throttle to whole percent steps
		if pct := frame * 100 / max(total, 1); pct != lastSent {
			lastSent = pct
			p.Send(ui.AnalysisProgress{Frame: frame, TotalFrames: total, Elapsed: elapsed})
		}
	}
	opts.Precomputed = func(a *renderer.Assets) {
		msg := ui.AnalysisComplete{
			Bars:         a.Config.Waveform.Bars,
			Mode:         string(a.Config.Waveform.Mode),
			BarColor:     a.BarColor.Hex(),
			AnalysisTime: a.PrecomputeTime,
			Degraded:     a.Analysis == nil || a.Analysis.Degraded,
		}
		if an := a.Analysis; an != nil {
			msg.Duration = time.Duration(an.Duration * float64(time.Second))
			msg.PeakDB = an.PeakDB()
			msg.RMSDB = an.RMSDB()
			msg.SampleRate = an.SampleRate
			msg.HopLength = an.HopLength
		}
		p.Send(msg)
	}
	opts.Progress = func(pr pipeline.Progress) {
		p.Send(ui.RenderProgress{
			Frame:       pr.Frame,
			TotalFrames: pr.TotalFrames,
			Elapsed:     pr.Elapsed,
			BarHeights:  pr.Amplitudes,
			FileSize:    pr.FileSize,
			FrameData:   pr.Preview,
			VideoCodec:  videoCodec,
			AudioCodec:  audioCodec,
		})
	}

	var res *pipeline.Result
	var renderErr error
	done := make(chan struct{})

	go func() {
		defer close(done)
		res, renderErr = pipeline.Render(ctx, cfg, opts)
		if renderErr != nil {
			p.Send(ui.RenderFailed{Err: renderErr})
			return
		}
		complete := ui.RenderComplete{
			OutputFile:     res.OutputPath,
			FileSize:       res.FileSize,
			TotalFrames:    res.Frames,
			PrecomputeTime: res.PrecomputeTime,
			PosterTime:     res.PosterTime,
			ComposeTime:    res.ComposeTime,
			EncodeTime:     res.EncodeTime,
			FinalizeTime:   res.FinalizeTime,
			TotalTime:      res.TotalTime,
			EncoderName:    res.EncoderName,
		}
		if res.Output != nil {
			complete.VideoDuration = time.Duration(res.Output.Duration * float64(time.Second))
		}
		p.Send(complete)
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return nil, fmt.Errorf("running UI: %w", err)
	}

	// Ctrl+C in the UI quits before the render finishes
	cancel()
	<-done
	return res, renderErr
}

func renderPlain(ctx context.Context, cfg config.RenderConfig, opts pipeline.Options) (*pipeline.Result, error) {
	cli.PrintBanner()
	opts.PreviewEvery = 0

	lastDecile := -1
	opts.Progress = func(pr pipeline.Progress) {
		if d := pr.Frame * 10 / max(pr.TotalFrames, 1); d != lastDecile {
			lastDecile = d
			cli.PrintInfo("Progress", fmt.Sprintf("%3d%%  frame %d of %d", d*10, pr.Frame, pr.TotalFrames))
		}
	}

	res, err := pipeline.Render(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}

	videoCodec, audioCodec := codecLabels(cfg, opts)
	duration := float64(res.Frames) / float64(cfg.FPS)
	if res.Output != nil && res.Output.Duration > 0 {
		duration = res.Output.Duration
	}
	if res.Output == nil || !res.Output.HasAudio() {
		audioCodec = "none"
	}
	cli.PrintSummary("Render complete", []cli.Row{
		{Key: "Output", Value: res.OutputPath},
		{Key: "Duration", Value: fmt.Sprintf("%.1fs", duration)},
		{Key: "Speed", Value: cli.FormatSpeed(duration / res.TotalTime.Seconds())},
		{Key: "File size", Value: cli.FormatBytes(res.FileSize)},
		{},
		{Key: "Video", Value: fmt.Sprintf("%s, %d frames", videoCodec, res.Frames)},
		{Key: "Audio", Value: audioCodec},
	})
	return res, nil
}
