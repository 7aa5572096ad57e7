package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/linuxmatters/jivereel/internal/cli"
	"github.com/linuxmatters/jivereel/internal/renderer"
)

// Phase represents the current processing phase
type Phase int

const (
	PhaseAnalysis Phase = iota
	PhaseRendering
	PhaseComplete
)

// AnalysisProgress represents progress of the audio feature extraction
type AnalysisProgress struct {
	Frame       int
	TotalFrames int
	Elapsed     time.Duration
}

// AnalysisComplete signals that every static asset and the amplitude table
// are ready
type AnalysisComplete struct {
	Duration     time.Duration // Audio actually decoded
	PeakDB       float64
	RMSDB        float64
	Mode         string
	Bars         int
	SampleRate   int
	HopLength    int
	Degraded     bool
	BarColor     string
	AnalysisTime time.Duration // Whole precompute, not only the audio
}

// RenderProgress represents progress of frame composition and encoding
type RenderProgress struct {
	Frame       int
	TotalFrames int
	Elapsed     time.Duration
	BarHeights  []float64
	FileSize    int64
	FrameData   *renderer.Frame
	VideoCodec  string
	AudioCodec  string
}

// RenderComplete signals a finished render
type RenderComplete struct {
	OutputFile     string
	FileSize       int64
	TotalFrames    int
	VideoDuration  time.Duration // From the MP4 when it could be probed
	PrecomputeTime time.Duration
	PosterTime     time.Duration
	ComposeTime    time.Duration
	EncodeTime     time.Duration
	FinalizeTime   time.Duration
	TotalTime      time.Duration
	EncoderName    string // Video encoder used (e.g., "h264_nvenc", "libx264")
}

// RenderFailed stops the UI; the caller reports the error
type RenderFailed struct {
	Err error
}

// AudioProfile holds the audio analysis results for display
type AudioProfile struct {
	Duration     time.Duration
	PeakLevel    float64 // in dB
	RMSLevel     float64 // in dB
	Mode         string
	Bars         int
	SampleRate   int
	HopLength    int
	Degraded     bool
	BarColor     string
	AnalysisTime time.Duration
}

// progressQuitMsg is sent when it's time to quit after showing completion
type progressQuitMsg struct{}

// Model implements the Bubbletea model for the whole render
type Model struct {
	progressBar progress.Model
	summaryBar  progress.Model
	phase       Phase
	fps         int

	audioProfile *AudioProfile

	analysisProgress AnalysisProgress

	renderState RenderProgress
	complete    *RenderComplete
	failed      error

	// Timing
	renderStartTime time.Time

	// UI state
	width           int
	noPreview       bool
	cachedPreview   string
	cachedFrameNum  int
	completionDelay time.Duration
}

// NewModel creates a new progress UI model for a video at fps
func NewModel(noPreview bool, fps int) *Model {
	p := progress.New(
		progress.WithGradient(string(cli.ReelViolet), string(cli.ReelGold)),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	// Smaller progress bar for summary performance charts
	summaryBar := progress.New(
		progress.WithGradient(string(cli.ReelViolet), string(cli.ReelGold)),
		progress.WithWidth(30),
		progress.WithoutPercentage(),
	)

	if fps <= 0 {
		fps = 1
	}

	return &Model{
		progressBar:     p,
		summaryBar:      summaryBar,
		phase:           PhaseAnalysis,
		fps:             fps,
		completionDelay: 2 * time.Second,
		noPreview:       noPreview,
		cachedFrameNum:  -1,
	}
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progressBar.Width = max(10, min(msg.Width-30, 50))
		return m, nil

	case AnalysisProgress:
		m.analysisProgress = msg
		return m, nil

	case AnalysisComplete:
		m.audioProfile = &AudioProfile{
			Duration:     msg.Duration,
			PeakLevel:    msg.PeakDB,
			RMSLevel:     msg.RMSDB,
			Mode:         msg.Mode,
			Bars:         msg.Bars,
			SampleRate:   msg.SampleRate,
			HopLength:    msg.HopLength,
			Degraded:     msg.Degraded,
			BarColor:     msg.BarColor,
			AnalysisTime: msg.AnalysisTime,
		}
		m.phase = PhaseRendering
		m.renderStartTime = time.Now()
		return m, nil

	case RenderProgress:
		m.renderState = msg
		return m, nil

	case RenderComplete:
		m.complete = &msg
		m.phase = PhaseComplete

		return m, tea.Tick(m.completionDelay, func(t time.Time) tea.Msg {
			return progressQuitMsg{}
		})

	case RenderFailed:
		m.failed = msg.Err
		return m, tea.Quit

	case progressQuitMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		if m.complete != nil {
			return m, tea.Quit
		}
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the UI
func (m *Model) View() string {
	if m.phase == PhaseComplete {
		return m.CompletionSummary()
	}
	return m.renderProgress()
}

// Complete reports whether the render finished
func (m *Model) Complete() bool {
	return m.complete != nil
}

// Err returns the error carried by RenderFailed, if any
func (m *Model) Err() error {
	return m.failed
}

// CompletionSummary returns the final completion summary for printing after alt screen exits.
// Returns empty string if rendering is not complete.
func (m *Model) CompletionSummary() string {
	if m.complete == nil {
		return ""
	}
	return m.renderFinalProgress() + "\n" + m.renderComplete()
}

func titleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(cli.ReelGold)
}

// renderFinalProgress renders the progress UI in its final completed state
func (m *Model) renderFinalProgress() string {
	var s strings.Builder

	s.WriteString(titleStyle().Render("Jivereel 🎞"))
	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().Foreground(cli.ReelCoral).Render("Rendering & Encoding"))
	s.WriteString("\n\n")

	s.WriteString("Progress: ")
	s.WriteString(m.progressBar.ViewAs(1.0))
	s.WriteString("  100%")
	s.WriteString("\n\n")

	s.WriteString(lipgloss.NewStyle().Faint(true).Render(
		fmt.Sprintf("Time: %s  │  Speed: %.1fx realtime  │  Complete",
			cli.FormatDuration(m.complete.TotalTime),
			realtimeSpeed(m.videoDuration(), m.complete.TotalTime))))
	s.WriteString("\n\n")
	m.renderAudioProfile(&s)

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(cli.ReelCoral).
		Padding(1, 2).
		Render(s.String())
}

func (m *Model) renderProgress() string {
	var s strings.Builder

	s.WriteString(titleStyle().Render("Jivereel 🎞"))
	s.WriteString("\n")

	phaseLabel := "Rendering & Encoding"
	if m.phase == PhaseAnalysis {
		phaseLabel = "Preparing Assets & Analysing Audio"
	}
	s.WriteString(lipgloss.NewStyle().Foreground(cli.ReelCoral).Render(phaseLabel))
	s.WriteString("\n\n")

	if m.phase == PhaseAnalysis {
		m.renderAnalysisProgress(&s)
	} else {
		m.renderRenderingProgress(&s)
	}

	s.WriteString("\n")
	m.renderAudioProfile(&s)

	if m.phase == PhaseRendering && (len(m.renderState.BarHeights) > 0 || m.renderState.FrameData != nil) {
		s.WriteString("\n\n")
		m.renderSpectrumAndStats(&s)
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(cli.ReelMagenta).
		Padding(1, 2).
		Render(s.String())
}

func (m *Model) renderAnalysisProgress(s *strings.Builder) {
	if m.analysisProgress.TotalFrames > 0 {
		percent := float64(m.analysisProgress.Frame) / float64(m.analysisProgress.TotalFrames)
		s.WriteString("Progress: ")
		s.WriteString(m.progressBar.ViewAs(percent))
		s.WriteString(fmt.Sprintf("  %d%%", int(percent*100)))
		s.WriteString("\n\n")
		return
	}
	s.WriteString(lipgloss.NewStyle().Faint(true).Render("Starting analysis...\n\n"))
}

func (m *Model) renderRenderingProgress(s *strings.Builder) {
	if m.renderState.TotalFrames == 0 {
		s.WriteString(lipgloss.NewStyle().Faint(true).Render("Starting render...\n\n"))
		return
	}

	percent := float64(m.renderState.Frame) / float64(m.renderState.TotalFrames)
	currentPhase := fmt.Sprintf("Frame %d of %d", m.renderState.Frame, m.renderState.TotalFrames)

	s.WriteString("Progress: ")
	s.WriteString(m.progressBar.ViewAs(percent))
	s.WriteString(fmt.Sprintf("  %d%%", int(percent*100)))
	s.WriteString("\n\n")

	elapsed := time.Since(m.renderStartTime)

	var estimatedTotal, eta time.Duration
	var speed float64
	if percent > 0 {
		estimatedTotal = time.Duration(float64(elapsed) / percent)
		eta = estimatedTotal - elapsed
		speed = realtimeSpeed(m.framesDuration(m.renderState.Frame), elapsed)
	}

	timingInfo := fmt.Sprintf("Time: %s / %s  │  Speed: %.1fx realtime  │  ETA: %s",
		cli.FormatDuration(elapsed),
		cli.FormatDuration(estimatedTotal),
		speed,
		cli.FormatDuration(eta))

	s.WriteString(lipgloss.NewStyle().Faint(true).Render(timingInfo))
	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().Faint(true).Italic(true).Render(currentPhase))
	s.WriteString("\n")
}

func (m *Model) renderAudioProfile(s *strings.Builder) {
	labelStyle := lipgloss.NewStyle().Faint(true)
	valueStyle := lipgloss.NewStyle()
	headerStyle := lipgloss.NewStyle().Faint(true).Bold(true)

	s.WriteString(headerStyle.Render("Audio"))
	s.WriteString(" │ ")

	p := m.audioProfile
	if p == nil {
		s.WriteString(lipgloss.NewStyle().Faint(true).Italic(true).Render("Analysing..."))
		return
	}
	if p.Degraded {
		s.WriteString(lipgloss.NewStyle().Foreground(cli.ReelCoral).Render("unavailable, rendering a flat waveform"))
		return
	}

	pairs := [][2]string{
		{"", fmt.Sprintf("%.1fs", p.Duration.Seconds())},
		{"Peak:", formatDB(p.PeakLevel)},
		{"RMS:", formatDB(p.RMSLevel)},
		{"Mode:", p.Mode},
		{"Bars:", fmt.Sprintf("%d", p.Bars)},
	}
	for i, kv := range pairs {
		if i > 0 {
			s.WriteString("  ")
		}
		if kv[0] != "" {
			s.WriteString(labelStyle.Render(kv[0]))
			s.WriteString(" ")
		}
		s.WriteString(valueStyle.Render(kv[1]))
	}
	if p.BarColor != "" {
		s.WriteString("  ")
		s.WriteString(labelStyle.Render("Colour:"))
		s.WriteString(" ")
		s.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(p.BarColor)).Render("██ " + p.BarColor))
	}
}

func (m *Model) renderSpectrumAndStats(s *strings.Builder) {
	s.WriteString(lipgloss.NewStyle().Foreground(cli.ReelCoral).Render("Live Waveform:"))
	s.WriteString("\n")

	spectrumWidth := 64
	if m.width > 10 {
		spectrumWidth = min(m.width-10, 64)
	}
	spectrum := renderSpectrum(m.renderState.BarHeights, spectrumWidth)

	var rightCol strings.Builder
	labelStyle := lipgloss.NewStyle().Foreground(cli.SlateGray)
	valueStyle := lipgloss.NewStyle().Bold(true)

	rightCol.WriteString(labelStyle.Render("File:  "))
	rightCol.WriteString(valueStyle.Render(cli.FormatBytes(m.renderState.FileSize)))
	rightCol.WriteString("\n")
	if m.renderState.VideoCodec != "" {
		rightCol.WriteString(labelStyle.Render("Video: "))
		rightCol.WriteString(valueStyle.Render(m.renderState.VideoCodec))
		rightCol.WriteString("\n")
	}
	if m.renderState.AudioCodec != "" {
		rightCol.WriteString(labelStyle.Render("Audio: "))
		rightCol.WriteString(valueStyle.Render(m.renderState.AudioCodec))
	}

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, spectrum, "  ", rightCol.String()))

	if !m.noPreview {
		if f := m.renderState.FrameData; f != nil && f.Index != m.cachedFrameNum {
			m.cachedPreview = RenderPreview(DownsampleFrame(f, DefaultPreviewConfig()))
			m.cachedFrameNum = f.Index
		}
		if m.cachedPreview != "" {
			s.WriteString("\n")
			s.WriteString(m.cachedPreview)
		}
	}
}

func (m *Model) renderComplete() string {
	var s strings.Builder

	s.WriteString(lipgloss.NewStyle().Bold(true).Foreground(cli.ReelGold).Render("✓ Render Complete!"))
	s.WriteString("\n\n")

	dimLabel := lipgloss.NewStyle().Faint(true)
	c := m.complete
	videoDuration := m.videoDuration()

	s.WriteString(fmt.Sprintf("%s%s\n", dimLabel.Render("Output:   "), c.OutputFile))
	if c.EncoderName != "" {
		s.WriteString(fmt.Sprintf("%s%s\n", dimLabel.Render("Encoder:  "), c.EncoderName))
	}
	s.WriteString(fmt.Sprintf("%s%d frames at %d fps\n", dimLabel.Render("Video:    "), c.TotalFrames, m.fps))
	s.WriteString(fmt.Sprintf("%s%.1fs video in %.1fs\n",
		dimLabel.Render("Duration: "),
		videoDuration.Seconds(),
		c.TotalTime.Seconds()))
	s.WriteString(fmt.Sprintf("%s%s\n\n", dimLabel.Render("Size:     "), cli.FormatBytes(c.FileSize)))

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(cli.ReelCoral)
	labelStyle := lipgloss.NewStyle().Faint(true)
	valueStyle := lipgloss.NewStyle()
	highlightValueStyle := lipgloss.NewStyle().Foreground(cli.ReelCoral)

	if p := m.audioProfile; p != nil && !p.Degraded {
		s.WriteString(headerStyle.Render("Audio Analysis"))
		s.WriteString("\n")
		row := func(label, value string) {
			s.WriteString(fmt.Sprintf("  %s%s\n", labelStyle.Render(fmt.Sprintf("%-18s", label)), valueStyle.Render(value)))
		}
		row("Duration:", fmt.Sprintf("%.1fs", p.Duration.Seconds()))
		row("Peak Level:", formatDB(p.PeakLevel))
		row("RMS Level:", formatDB(p.RMSLevel))
		row("Features:", fmt.Sprintf("%s, %d bars", p.Mode, p.Bars))
		row("Hop:", fmt.Sprintf("%d samples at %d Hz", p.HopLength, p.SampleRate))
		s.WriteString("\n")
	}

	s.WriteString(headerStyle.Render("Performance"))
	s.WriteString("\n")

	totalMs := c.TotalTime.Milliseconds()
	if totalMs == 0 {
		totalMs = 1
	}
	stage := func(label string, d time.Duration) {
		ratio := float64(d.Milliseconds()) / float64(totalMs)
		s.WriteString(fmt.Sprintf("  %s%s (~%2d%%)  %s\n",
			labelStyle.Render(fmt.Sprintf("%-18s", label)),
			valueStyle.Render(fmt.Sprintf("~%-6s", cli.FormatDuration(d))),
			int(ratio*100),
			m.summaryBar.ViewAs(math.Min(ratio, 1))))
	}

	stage("Precompute:", c.PrecomputeTime)
	if c.PosterTime > 0 {
		stage("Poster:", c.PosterTime)
	}
	stage("Compositing:", c.ComposeTime)
	stage("Encoding:", c.EncodeTime)
	stage("Finalising:", c.FinalizeTime)

	s.WriteString(fmt.Sprintf("  %s%s", labelStyle.Render(fmt.Sprintf("%-18s", "Total time:")), highlightValueStyle.Render(cli.FormatDuration(c.TotalTime))))

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(cli.ReelCoral).
		Padding(1, 1).
		Render(s.String()) + "\n"
}

// videoDuration prefers the probed MP4 duration over the frame count
func (m *Model) videoDuration() time.Duration {
	if m.complete.VideoDuration > 0 {
		return m.complete.VideoDuration
	}
	return m.framesDuration(m.complete.TotalFrames)
}

func (m *Model) framesDuration(frames int) time.Duration {
	return time.Duration(frames) * time.Second / time.Duration(m.fps)
}

func realtimeSpeed(video, wall time.Duration) float64 {
	if wall <= 0 {
		return 0
	}
	return float64(video) / float64(wall)
}

func formatDB(db float64) string {
	if math.IsInf(db, -1) || math.IsNaN(db) {
		return "-inf dB"
	}
	return fmt.Sprintf("%.1f dB", db)
}

// renderSpectrum draws amplitudes in [0, 1] as a two row block chart
func renderSpectrum(barHeights []float64, width int) string {
	if len(barHeights) == 0 || width == 0 {
		return ""
	}

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	// Gradient colours from low to high intensity
	reelColors := []lipgloss.Color{
		lipgloss.Color("#3B2A7A"),
		cli.ReelViolet,
		lipgloss.Color("#A23B9E"),
		cli.ReelMagenta,
		lipgloss.Color("#F0506E"),
		cli.ReelCoral,
		lipgloss.Color("#FB9240"),
		cli.ReelGold,
	}

	// Sample bars to fit width
	stride := len(barHeights) / width
	if stride == 0 {
		stride = 1
	}

	displayHeights := make([]float64, 0, width)
	for i := 0; i < len(barHeights) && len(displayHeights) < width; i += stride {
		displayHeights = append(displayHeights, math.Max(0, math.Min(1, barHeights[i])))
	}

	colorFor := func(v float64) lipgloss.Color {
		return reelColors[min(int(v*float64(len(reelColors)-1)), len(reelColors)-1)]
	}

	var result strings.Builder

	// Top row shows the portion above 0.5
	for _, v := range displayHeights {
		if v > 0.5 {
			blockIdx := min(int((v-0.5)*2.0*float64(len(blocks)-1)), len(blocks)-1)
			result.WriteString(lipgloss.NewStyle().Foreground(colorFor(v)).Render(string(blocks[blockIdx])))
		} else {
			result.WriteString(" ")
		}
	}

	result.WriteString("\n")

	for _, v := range displayHeights {
		blockIdx := len(blocks) - 1
		if v < 0.5 {
			blockIdx = min(int(v*2.0*float64(len(blocks)-1)), len(blocks)-1)
		}
		result.WriteString(lipgloss.NewStyle().Foreground(colorFor(v)).Render(string(blocks[blockIdx])))
	}

	return result.String()
}
