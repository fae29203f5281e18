// Package config loads viewer settings. Settings come from three layers,
// unioned in order: the global config file, a ./.marklessrc in the working
// directory, then CLI flags. Boolean fields OR across layers; scalar
// fields take the last non-empty value.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Config carries every tunable the CLI exposes. The config file uses the
// same token syntax as the command line.
type Config struct {
	Watch     bool
	TOC       bool
	NoTOC     bool
	NoImages  bool
	Perf      bool
	ForceHalf bool

	Theme          string // auto, light, dark
	ImageMode      string // kitty, sixel, iterm2, halfblock
	RenderDebugLog string
}

// TOCVisible resolves the --toc / --no-toc pair; the TOC shows by default.
func (c Config) TOCVisible() bool {
	if c.NoTOC {
		return false
	}
	return true
}

// EffectiveImageMode folds the --force-half-cell alias into the mode.
func (c Config) EffectiveImageMode() string {
	if c.ForceHalf {
		return "halfblock"
	}
	return c.ImageMode
}

// Merge unions two layers: booleans OR, scalars from o win when set.
func Merge(base, o Config) Config {
	out := Config{
		Watch:     base.Watch || o.Watch,
		TOC:       base.TOC || o.TOC,
		NoTOC:     base.NoTOC || o.NoTOC,
		NoImages:  base.NoImages || o.NoImages,
		Perf:      base.Perf || o.Perf,
		ForceHalf: base.ForceHalf || o.ForceHalf,

		Theme:          base.Theme,
		ImageMode:      base.ImageMode,
		RenderDebugLog: base.RenderDebugLog,
	}
	if o.Theme != "" {
		out.Theme = o.Theme
	}
	if o.ImageMode != "" {
		out.ImageMode = o.ImageMode
	}
	if o.RenderDebugLog != "" {
		out.RenderDebugLog = o.RenderDebugLog
	}
	return out
}

// ParseTokens interprets a flag-token stream, the shared syntax of config
// files and the command line.
func ParseTokens(tokens []string) (Config, error) {
	var cfg Config
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		value := func() (string, error) {
			if i+1 >= len(tokens) {
				return "", fmt.Errorf("%s needs a value", tok)
			}
			i++
			return tokens[i], nil
		}
		var err error
		switch tok {
		case "--watch":
			cfg.Watch = true
		case "--toc":
			cfg.TOC = true
		case "--no-toc":
			cfg.NoTOC = true
		case "--no-images":
			cfg.NoImages = true
		case "--perf":
			cfg.Perf = true
		case "--force-half-cell":
			cfg.ForceHalf = true
		case "--theme":
			cfg.Theme, err = value()
		case "--image-mode":
			cfg.ImageMode, err = value()
		case "--render-debug-log":
			cfg.RenderDebugLog, err = value()
		default:
			err = fmt.Errorf("unknown option %q", tok)
		}
		if err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// Tokens serializes a config back to the token syntax, one flag per token.
func Tokens(cfg Config) []string {
	var out []string
	if cfg.Watch {
		out = append(out, "--watch")
	}
	if cfg.TOC {
		out = append(out, "--toc")
	}
	if cfg.NoTOC {
		out = append(out, "--no-toc")
	}
	if cfg.NoImages {
		out = append(out, "--no-images")
	}
	if cfg.Perf {
		out = append(out, "--perf")
	}
	if cfg.ForceHalf {
		out = append(out, "--force-half-cell")
	}
	if cfg.Theme != "" {
		out = append(out, "--theme", cfg.Theme)
	}
	if cfg.ImageMode != "" {
		out = append(out, "--image-mode", cfg.ImageMode)
	}
	if cfg.RenderDebugLog != "" {
		out = append(out, "--render-debug-log", cfg.RenderDebugLog)
	}
	return out
}

// ParseFile reads a token config file: # starts a comment, whitespace
// separates tokens. A missing file is an empty layer, not an error.
func ParseFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, err
	}
	return parseText(string(data))
}

func parseText(text string) (Config, error) {
	var tokens []string
	for _, line := range strings.Split(text, "\n") {
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		tokens = append(tokens, strings.Fields(line)...)
	}
	return ParseTokens(tokens)
}

// GlobalPath is the per-OS location of the global config file.
func GlobalPath() (string, error) {
	switch runtime.GOOS {
	case "windows":
		appdata := os.Getenv("APPDATA")
		if appdata == "" {
			return "", errors.New("APPDATA not set")
		}
		return filepath.Join(appdata, "markless", "config"), nil
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", "markless", "config"), nil
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "markless", "config"), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "markless", "config"), nil
	}
}

// Load resolves the three layers: global file, ./.marklessrc, CLI overlay.
func Load(cli Config) (Config, error) {
	var cfg Config
	if path, err := GlobalPath(); err == nil {
		layer, err := ParseFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("global config: %w", err)
		}
		cfg = Merge(cfg, layer)
	}
	layer, err := ParseFile(".marklessrc")
	if err != nil {
		return Config{}, fmt.Errorf(".marklessrc: %w", err)
	}
	cfg = Merge(cfg, layer)
	return Merge(cfg, cli), nil
}

// Save persists a config to the global path.
func Save(cfg Config) error {
	path, err := GlobalPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data := strings.Join(Tokens(cfg), " ") + "\n"
	return os.WriteFile(path, []byte(data), 0o600)
}

// Clear removes the global config file; a missing file is not an error.
func Clear() error {
	path, err := GlobalPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
