// Package snapshot encodes a read-back framebuffer to an image file with ffmpeg.
package snapshot

import (
	"bytes"
	"fmt"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Command returns the ffmpeg invocation that turns width x height bottom-up RGBA pixels
// read from stdin into a single upright frame at out. The format follows out's extension.
func Command(pixels []byte, width, height int, out, ffmpegPath string) (*ffmpeg.Stream, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("snapshot: invalid size %dx%d", width, height)
	}
	if want := width * height * 4; len(pixels) != want {
		return nil, fmt.Errorf("snapshot: have %d bytes of pixels, want %d", len(pixels), want)
	}
	if out == "" {
		return nil, fmt.Errorf("snapshot: no output file")
	}

	inputArgs := ffmpeg.KwArgs{
		"f":       "rawvideo",
		"pix_fmt": "rgba",
		"s":       fmt.Sprintf("%dx%d", width, height),
	}
	// GL rows start at the bottom of the image.
	outputArgs := ffmpeg.KwArgs{
		"vf":       "vflip",
		"frames:v": 1,
		"update":   1,
	}

	cmd := ffmpeg.Input("pipe:", inputArgs).
		Output(out, outputArgs).
		OverWriteOutput().WithInput(bytes.NewReader(pixels))
	if ffmpegPath != "" {
		cmd = cmd.SetFfmpegPath(ffmpegPath)
	}
	return cmd, nil
}

// Write runs ffmpeg and reports its diagnostics if it fails.
func Write(pixels []byte, width, height int, out, ffmpegPath string) error {
	cmd, err := Command(pixels, width, height, out, ffmpegPath)
	if err != nil {
		return err
	}
	var stderr bytes.Buffer
	if err := cmd.WithErrorOutput(&stderr).Run(); err != nil {
		return fmt.Errorf("snapshot: ffmpeg failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
