package audio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Executables used for formats without a native decoder.
var (
	FFmpegPath  = "ffmpeg"
	FFprobePath = "ffprobe"
)

// ProbeInfo describes the first audio stream of a file as reported by ffprobe.
type ProbeInfo struct {
	FormatName string
	Duration   float64
	SampleRate int
	Channels   int
}

// FFprobe inspects path with ffprobe.
func FFprobe(path string) (ProbeInfo, error) {
	cmd := exec.Command(FFprobePath,
		"-v", "error",
		"-select_streams", "a:0",
		"-show_format", "-show_streams",
		"-of", "json",
		path,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return ProbeInfo{}, fmt.Errorf("ffprobe %s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}

	var ff struct {
		Format struct {
			FormatName string `json:"format_name"`
			Duration   string `json:"duration"`
		} `json:"format"`
		Streams []struct {
			CodecType  string `json:"codec_type"`
			SampleRate string `json:"sample_rate"`
			Channels   int    `json:"channels"`
		} `json:"streams"`
	}
	if err := json.Unmarshal(out, &ff); err != nil {
		return ProbeInfo{}, fmt.Errorf("parsing ffprobe output: %w", err)
	}

	info := ProbeInfo{FormatName: ff.Format.FormatName}
	info.Duration, _ = strconv.ParseFloat(ff.Format.Duration, 64)
	for _, s := range ff.Streams {
		if s.CodecType != "audio" {
			continue
		}
		info.SampleRate, _ = strconv.Atoi(s.SampleRate)
		info.Channels = s.Channels
		break
	}
	if info.SampleRate == 0 {
		return ProbeInfo{}, fmt.Errorf("no audio stream in %s", path)
	}
	return info, nil
}

// FFmpegDecoder implements Decoder by piping mono float32 PCM out of an
// ffmpeg subprocess at the source's native rate.
type FFmpegDecoder struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	reader *bufio.Reader
	stderr bytes.Buffer
	info   ProbeInfo
	buf    []byte
	done   bool
}

// NewFFmpegDecoder probes path and starts the decoding subprocess
func NewFFmpegDecoder(path string) (*FFmpegDecoder, error) {
	info, err := FFprobe(path)
	if err != nil {
		return nil, err
	}

	d := &FFmpegDecoder{info: info}
	d.cmd = exec.Command(FFmpegPath,
		"-v", "error",
		"-i", path,
		"-vn",
		"-f", "f32le",
		"-acodec", "pcm_f32le",
		"-ac", "1",
		"pipe:1",
	)
	d.cmd.Stderr = &d.stderr

	d.stdout, err = d.cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	if err := d.cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting ffmpeg: %w", err)
	}
	d.reader = bufio.NewReaderSize(d.stdout, 64*1024)
	return d, nil
}

// ReadChunk reads up to numSamples decoded samples
func (d *FFmpegDecoder) ReadChunk(numSamples int) ([]float64, error) {
	if d.done {
		return nil, io.EOF
	}
	if numSamples <= 0 {
		return nil, nil
	}

	want := numSamples * 4
	if cap(d.buf) < want {
		d.buf = make([]byte, want)
	}
	buf := d.buf[:want]

	n, err := io.ReadFull(d.reader, buf)
	if err != nil {
		if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("reading ffmpeg output: %w", err)
		}
		d.done = true
	}

	count := n / 4
	if count == 0 {
		if err := d.wait(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}

	samples := make([]float64, count)
	for i := range samples {
		samples[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:])))
	}
	return samples, nil
}

func (d *FFmpegDecoder) wait() error {
	if d.cmd == nil || d.cmd.ProcessState != nil {
		return nil
	}
	if err := d.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg decode failed: %w: %s", err, strings.TrimSpace(d.stderr.String()))
	}
	return nil
}

func (d *FFmpegDecoder) SampleRate() int  { return d.info.SampleRate }
func (d *FFmpegDecoder) NumChannels() int { return d.info.Channels }

// NumSamples estimates the length from the container duration
func (d *FFmpegDecoder) NumSamples() int64 {
	return int64(math.Round(d.info.Duration * float64(d.info.SampleRate)))
}

// Close stops the subprocess if it is still running
func (d *FFmpegDecoder) Close() error {
	if d.cmd == nil || d.cmd.Process == nil || d.cmd.ProcessState != nil {
		return nil
	}
	_ = d.stdout.Close()
	_ = d.cmd.Process.Kill()
	_ = d.cmd.Wait()
	return nil
}
