package enrich

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// Frame is a single captured camera image.
type Frame struct {
	// Path is where the JPEG was saved, usable as a stable reference in the
	// turn log.
	Path string

	// JPEG is the encoded image data.
	JPEG []byte
}

// Camera captures still frames for vision queries.
type Camera interface {
	// Capture grabs a single frame. Implementations should release the
	// device between captures; vision queries are seconds apart at most.
	Capture(ctx context.Context) (Frame, error)
}

// ExecCamera captures frames by shelling out to a platform capture tool
// (fswebcam, libcamera-jpeg, ffmpeg). The command is invoked with the output
// path appended as its final argument.
type ExecCamera struct {
	command  string
	args     []string
	imageDir string
}

// Compile-time interface assertion.
var _ Camera = (*ExecCamera)(nil)

// NewExecCamera creates an ExecCamera writing frames into imageDir, creating
// the directory if needed.
func NewExecCamera(command string, args []string, imageDir string) (*ExecCamera, error) {
	if command == "" {
		return nil, fmt.Errorf("enrich: camera command must not be empty")
	}
	if err := os.MkdirAll(imageDir, 0o755); err != nil {
		return nil, fmt.Errorf("enrich: create image dir: %w", err)
	}
	return &ExecCamera{command: command, args: args, imageDir: imageDir}, nil
}

// Capture implements [Camera]. Frames get timestamped filenames so earlier
// captures stay referenceable from the turn log.
func (c *ExecCamera) Capture(ctx context.Context) (Frame, error) {
	path := filepath.Join(c.imageDir,
		fmt.Sprintf("img_%s.jpg", time.Now().Format("20060102_150405")))

	args := append(append([]string{}, c.args...), path)
	cmd := exec.CommandContext(ctx, c.command, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return Frame{}, fmt.Errorf("enrich: capture via %s: %w: %s", c.command, err, out)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Frame{}, fmt.Errorf("enrich: read captured frame: %w", err)
	}
	if len(data) == 0 {
		return Frame{}, fmt.Errorf("enrich: %s produced an empty frame", c.command)
	}
	return Frame{Path: path, JPEG: data}, nil
}
