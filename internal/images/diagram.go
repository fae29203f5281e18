package images

import (
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// MermaidCLI renders mermaid diagrams by shelling out to the mermaid CLI
// (mmdc). Rendering is bounded by Timeout; a missing binary surfaces as a
// load error on the diagram's placeholder, never as a crash.
type MermaidCLI struct {
	Command string
	Timeout time.Duration
}

func NewMermaidCLI() *MermaidCLI {
	return &MermaidCLI{Command: "mmdc", Timeout: 15 * time.Second}
}

func (m *MermaidCLI) Render(source string) (image.Image, error) {
	if _, err := exec.LookPath(m.Command); err != nil {
		return nil, fmt.Errorf("%s not installed: %w", m.Command, err)
	}
	dir, err := os.MkdirTemp("", "markless-mermaid-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "diagram.mmd")
	out := filepath.Join(dir, "diagram.png")
	if err := os.WriteFile(in, []byte(source), 0o600); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.Timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, m.Command, "-i", in, "-o", out, "-b", "transparent")
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("mmdc: %w: %s", err, string(output))
	}
	return readImage(out)
}
