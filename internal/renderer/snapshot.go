package renderer

import "fmt"

// WriteSnapshot composes the frame at t and saves it as a PNG.
func WriteSnapshot(path string, t float64, a *Assets) error {
	if err := SavePNG(path, ComposeImage(t, a)); err != nil {
		return fmt.Errorf("writing snapshot at %.3fs: %w", t, err)
	}
	debugf("renderer: snapshot of frame %d written to %s", FrameIndex(t, a.Config.FPS), path)
	return nil
}
