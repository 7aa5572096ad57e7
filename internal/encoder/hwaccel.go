package encoder

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// HWAccelType represents a hardware acceleration type
type HWAccelType string

const (
	HWAccelNone         HWAccelType = "none"         // Software encoding (libx264)
	HWAccelAuto         HWAccelType = "auto"         // Auto-detect best available
	HWAccelNVENC        HWAccelType = "nvenc"        // NVIDIA NVENC
	HWAccelQSV          HWAccelType = "qsv"          // Intel Quick Sync Video
	HWAccelVAAPI        HWAccelType = "vaapi"        // VA-API (AMD, Intel, older hardware)
	HWAccelVideoToolbox HWAccelType = "videotoolbox" // Apple VideoToolbox (macOS)
)

// vaapiDevice is the render node used for VA-API encoding
const vaapiDevice = "/dev/dri/renderD128"

// probeTimeout bounds each encoder capability test
const probeTimeout = 10 * time.Second

// HWEncoder represents a detected hardware encoder
type HWEncoder struct {
	Name        string      // Encoder name (e.g., "h264_nvenc")
	Type        HWAccelType // Hardware acceleration type
	Listed      bool        // Whether ffmpeg was built with this encoder
	Available   bool        // Whether hardware is present and working
	Description string      // Human-readable description
}

// encoderSpec defines a hardware encoder configuration for priority lists
type encoderSpec struct {
	name      string
	accelType HWAccelType
	desc      string
}

// linuxEncoderPriority defines the encoder preference order for Linux
// Priority: nvenc > qsv > vaapi > software
var linuxEncoderPriority = []encoderSpec{
	{"h264_nvenc", HWAccelNVENC, "NVIDIA NVENC"},
	{"h264_qsv", HWAccelQSV, "Intel Quick Sync Video"},
	{"h264_vaapi", HWAccelVAAPI, "VA-API"},
}

// macOSEncoderPriority defines the encoder preference order for macOS
// Priority: videotoolbox > software
var macOSEncoderPriority = []encoderSpec{
	{"h264_videotoolbox", HWAccelVideoToolbox, "Apple VideoToolbox"},
}

// inputArgs are placed before the first input
func (e *HWEncoder) inputArgs() []string {
	if e.Type == HWAccelVAAPI {
		return []string{"-vaapi_device", vaapiDevice}
	}
	return nil
}

// outputArgs select the codec and pixel format handling for the video stream
func (e *HWEncoder) outputArgs() []string {
	switch e.Type {
	case HWAccelVAAPI:
		return []string{"-vf", "format=nv12,hwupload", "-c:v", e.Name, "-qp", "20"}
	case HWAccelNVENC:
		return []string{"-c:v", e.Name, "-preset", "p4", "-cq", "20", "-pix_fmt", "yuv420p"}
	case HWAccelQSV:
		return []string{"-c:v", e.Name, "-global_quality", "20", "-pix_fmt", "nv12"}
	default:
		return []string{"-c:v", e.Name, "-q:v", "60", "-pix_fmt", "yuv420p"}
	}
}

// parseEncoderList extracts encoder names from `ffmpeg -encoders` output.
// Entries follow the separator line and start with a six character flag
// field such as "V....D".
func parseEncoderList(output []byte) map[string]bool {
	names := make(map[string]bool)
	inList := false

	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !inList {
			inList = strings.HasPrefix(line, "------")
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || len(fields[0]) != 6 {
			continue
		}
		names[fields[1]] = true
	}
	return names
}

// listEncoders runs `ffmpeg -encoders`. A missing ffmpeg yields an empty set.
func listEncoders() map[string]bool {
	out, err := exec.Command(FFmpegPath, "-hide_banner", "-encoders").Output()
	if err != nil {
		return map[string]bool{}
	}
	return parseEncoderList(out)
}

// testEncoderAvailable performs a full encoder capability test by encoding a
// few synthetic frames to the null muxer. This catches cases where ffmpeg
// lists the encoder but the hardware is absent or unsupported.
func testEncoderAvailable(enc HWEncoder) bool {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	args := []string{"-hide_banner", "-loglevel", "quiet"}
	args = append(args, enc.inputArgs()...)
	args = append(args, "-f", "lavfi", "-i", "color=black:s=256x256:r=30:d=0.1")
	args = append(args, enc.outputArgs()...)
	args = append(args, "-f", "null", "-")

	cmd := exec.CommandContext(ctx, FFmpegPath, args...)
	// VA-API has its own logging separate from FFmpeg
	cmd.Env = append(os.Environ(), "LIBVA_MESSAGING_LEVEL=0")
	return cmd.Run() == nil
}

// DetectHWEncoders probes for available hardware encoders
// Returns a list of detected encoders in priority order
func DetectHWEncoders() []HWEncoder {
	var priority []encoderSpec
	switch runtime.GOOS {
	case "darwin":
		priority = macOSEncoderPriority
	default: // Linux and others
		priority = linuxEncoderPriority
	}

	listed := listEncoders()

	encoders := make([]HWEncoder, 0, len(priority))
	for _, spec := range priority {
		encoder := HWEncoder{
			Name:        spec.name,
			Type:        spec.accelType,
			Description: spec.desc,
			Listed:      listed[spec.name],
		}
		if encoder.Listed {
			encoder.Available = testEncoderAvailable(encoder)
		}
		encoders = append(encoders, encoder)
	}

	return encoders
}

// ParseHWAccel maps a --encoder value to an acceleration type. Encoder
// names such as "h264_nvenc" are accepted alongside the type names.
func ParseHWAccel(s string) (HWAccelType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "auto":
		return HWAccelAuto, true
	case "none", "software", "libx264":
		return HWAccelNone, true
	}
	for _, list := range [][]encoderSpec{linuxEncoderPriority, macOSEncoderPriority} {
		for _, spec := range list {
			if s == string(spec.accelType) || s == spec.name {
				return spec.accelType, true
			}
		}
	}
	return HWAccelNone, false
}

// SelectBestEncoder returns the best available encoder based on priority
// If requestedType is HWAccelAuto, it selects the first available hardware encoder
// If requestedType is HWAccelNone, it returns nil (use software)
// Otherwise, it attempts to use the requested type if available
func SelectBestEncoder(requestedType HWAccelType) *HWEncoder {
	if requestedType == HWAccelNone {
		return nil
	}
	return selectFrom(DetectHWEncoders(), requestedType)
}

func selectFrom(encoders []HWEncoder, requestedType HWAccelType) *HWEncoder {
	for i := range encoders {
		if !encoders[i].Available {
			continue
		}
		if requestedType == HWAccelAuto || encoders[i].Type == requestedType {
			return &encoders[i]
		}
	}
	return nil
}

// GetEncoderStatus returns a human-readable status of all hardware encoders
func GetEncoderStatus() string {
	return formatEncoderStatus(DetectHWEncoders())
}

func formatEncoderStatus(encoders []HWEncoder) string {
	var sb strings.Builder
	sb.WriteString("Hardware Encoder Status:\n")

	for _, enc := range encoders {
		status := "not available"
		switch {
		case enc.Available:
			status = "available"
		case !enc.Listed:
			status = "not built into ffmpeg"
		}
		sb.WriteString("  ")
		sb.WriteString(enc.Description)
		sb.WriteString(" (")
		sb.WriteString(enc.Name)
		sb.WriteString("): ")
		sb.WriteString(status)
		sb.WriteString("\n")
	}

	return sb.String()
}
