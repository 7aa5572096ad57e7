package encoder

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"
	"syscall"
)

// FFmpegPath is the ffmpeg executable used for encoding and probing.
var FFmpegPath = "ffmpeg"

// ErrFFmpegNotFound is returned when FFmpegPath cannot be resolved.
var ErrFFmpegNotFound = errors.New("ffmpeg executable not found")

// ErrInputClosed is returned by WriteFrame once ffmpeg has stopped reading
// frames, for example when -shortest ends the output at the end of the
// audio. Close then reports whether ffmpeg succeeded.
var ErrInputClosed = errors.New("ffmpeg stopped reading frames")

// Config holds the encoder configuration
type Config struct {
	OutputPath string // Path to output MP4 file
	Width      int    // Video width in pixels
	Height     int    // Video height in pixels
	Framerate  int    // Frames per second

	AudioPath     string  // Optional audio source, muxed as AAC
	AudioStart    float64 // Seconds into AudioPath where the clip starts
	AudioDuration float64 // Clip length in seconds, 0 for the rest of the file

	Encoder *HWEncoder // Nil selects libx264
}

// Encoder streams packed RGB24 frames into an ffmpeg process that encodes
// H.264 and muxes the trimmed audio into an MP4 file.
type Encoder struct {
	config Config

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr *tailBuffer

	frameSize int
	frames    int

	closeOnce sync.Once
	closeErr  error
}

// New validates the configuration and checks ffmpeg is available
func New(config Config) (*Encoder, error) {
	if config.Width <= 0 || config.Height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", config.Width, config.Height)
	}
	if config.Framerate <= 0 {
		return nil, fmt.Errorf("invalid frame rate %d", config.Framerate)
	}
	if config.OutputPath == "" {
		return nil, errors.New("no output path")
	}
	if _, err := exec.LookPath(FFmpegPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFFmpegNotFound, err)
	}

	return &Encoder{
		config:    config,
		frameSize: config.Width * config.Height * 3,
		stderr:    newTailBuffer(8 << 10),
	}, nil
}

// Initialize starts the ffmpeg process
func (e *Encoder) Initialize() error {
	e.cmd = exec.Command(FFmpegPath, BuildArgs(e.config)...)
	e.cmd.Stderr = e.stderr

	stdin, err := e.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to open ffmpeg stdin: %w", err)
	}
	e.stdin = stdin

	if err := e.cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	return nil
}

// WriteFrame sends one packed RGB24 frame. Frames must arrive in
// presentation order.
func (e *Encoder) WriteFrame(rgb []byte) error {
	if e.stdin == nil {
		return errors.New("encoder not initialized")
	}
	if len(rgb) != e.frameSize {
		return fmt.Errorf("frame has %d bytes, want %d", len(rgb), e.frameSize)
	}
	if _, err := e.stdin.Write(rgb); err != nil {
		if errors.Is(err, syscall.EPIPE) {
			return fmt.Errorf("%w after %d frames", ErrInputClosed, e.frames)
		}
		return fmt.Errorf("failed to write frame %d: %w%s", e.frames, err, e.stderrSuffix())
	}
	e.frames++
	return nil
}

// FramesWritten returns the number of frames sent to ffmpeg
func (e *Encoder) FramesWritten() int {
	return e.frames
}

// Close flushes the stream and waits for ffmpeg to finalise the file.
// It is safe to call more than once.
func (e *Encoder) Close() error {
	e.closeOnce.Do(func() {
		if e.cmd == nil || e.cmd.Process == nil {
			return
		}
		if err := e.stdin.Close(); err != nil {
			e.closeErr = fmt.Errorf("failed to close ffmpeg stdin: %w", err)
		}
		if err := e.cmd.Wait(); err != nil {
			e.closeErr = fmt.Errorf("ffmpeg failed: %w%s", err, e.stderrSuffix())
		}
	})
	return e.closeErr
}

// Abort kills ffmpeg and leaves any partial output behind
func (e *Encoder) Abort() {
	e.closeOnce.Do(func() {
		if e.cmd == nil || e.cmd.Process == nil {
			return
		}
		_ = e.stdin.Close()
		_ = e.cmd.Process.Kill()
		_ = e.cmd.Wait()
		e.closeErr = errors.New("encoding aborted")
	})
}

func (e *Encoder) stderrSuffix() string {
	if s := e.stderr.String(); s != "" {
		return "\n" + s
	}
	return ""
}

// BuildArgs returns the ffmpeg command line for config. Video arrives as
// raw RGB24 on stdin; audio, when present, is trimmed with input seeking.
func BuildArgs(config Config) []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-y"}

	if config.Encoder != nil {
		args = append(args, config.Encoder.inputArgs()...)
	}

	args = append(args,
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-s", fmt.Sprintf("%dx%d", config.Width, config.Height),
		"-r", strconv.Itoa(config.Framerate),
		"-i", "pipe:0",
	)

	hasAudio := config.AudioPath != ""
	if hasAudio {
		if config.AudioStart > 0 {
			args = append(args, "-ss", formatSeconds(config.AudioStart))
		}
		if config.AudioDuration > 0 {
			args = append(args, "-t", formatSeconds(config.AudioDuration))
		}
		args = append(args, "-i", config.AudioPath)
	}

	args = append(args, "-map", "0:v:0")
	if hasAudio {
		args = append(args, "-map", "1:a:0?")
	}

	if config.Encoder != nil {
		args = append(args, config.Encoder.outputArgs()...)
	} else {
		args = append(args, "-c:v", "libx264", "-preset", "medium", "-crf", "20", "-pix_fmt", "yuv420p")
	}

	if hasAudio {
		args = append(args, "-c:a", "aac", "-b:a", "192k", "-shortest")
	} else {
		args = append(args, "-an")
	}

	return append(args, "-movflags", "+faststart", config.OutputPath)
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
