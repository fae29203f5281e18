// Command markless renders Markdown, source code, and binary files in the
// terminal with inline images, search, and a table of contents.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/marklessapp/markless/internal/app"
	"github.com/marklessapp/markless/internal/config"
	"github.com/marklessapp/markless/internal/images"
	"github.com/marklessapp/markless/internal/logging"
	"github.com/marklessapp/markless/internal/theme"
)

const (
	exitOK       = 0
	exitRuntime  = 1
	exitNotFound = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		cli       config.Config
		saveFlags bool
		clearCfg  bool
	)

	root := &cobra.Command{
		Use:           "markless FILE",
		Short:         "a terminal viewer for Markdown, code, and binary files",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearCfg {
				return config.Clear()
			}
			if saveFlags {
				return config.Save(cli)
			}
			if len(args) != 1 {
				return errors.New("exactly one FILE argument is required")
			}
			return view(args[0], cli)
		},
	}

	fl := root.Flags()
	fl.BoolVar(&cli.Watch, "watch", false, "reload when the file changes on disk")
	fl.BoolVar(&cli.TOC, "toc", false, "show the table of contents")
	fl.BoolVar(&cli.NoTOC, "no-toc", false, "hide the table of contents")
	fl.BoolVar(&cli.NoImages, "no-images", false, "skip image loading and rendering")
	fl.BoolVar(&cli.Perf, "perf", false, "show frame timing in the status bar")
	fl.BoolVar(&cli.ForceHalf, "force-half-cell", false, "force half-cell image rendering")
	fl.StringVar(&cli.Theme, "theme", "", "color theme: auto, light, or dark")
	fl.StringVar(&cli.ImageMode, "image-mode", "", "image protocol: kitty, sixel, iterm2, or halfblock")
	fl.StringVar(&cli.RenderDebugLog, "render-debug-log", "", "append debug logs to this file")
	fl.BoolVar(&saveFlags, "save", false, "save the given flags as defaults and exit")
	fl.BoolVar(&clearCfg, "clear", false, "remove the saved defaults and exit")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "markless:", err)
		if errors.Is(err, os.ErrNotExist) {
			return exitNotFound
		}
		return exitRuntime
	}
	return exitOK
}

func view(path string, cli config.Config) error {
	cfg, err := config.Load(cli)
	if err != nil {
		return err
	}

	if cfg.Perf {
		logging.SetLevel("debug")
	}
	if cfg.RenderDebugLog != "" {
		f, err := os.OpenFile(cfg.RenderDebugLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("render debug log: %w", err)
		}
		defer f.Close()
		logging.SetOutput(f)
		logging.SetLevel("debug")
	}

	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return errors.New("stdout is not a terminal")
	}

	palette := theme.Choose(cfg.Theme)
	picker := images.Detect(cfg.EffectiveImageMode(), trueColorTerm())

	m, err := app.New(path, cfg, palette, picker)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())
	_, err = p.Run()
	return err
}

// trueColorTerm reports whether the terminal advertises 24-bit color.
func trueColorTerm() bool {
	colorterm := strings.ToLower(os.Getenv("COLORTERM"))
	if strings.Contains(colorterm, "truecolor") || strings.Contains(colorterm, "24bit") {
		return true
	}
	term := os.Getenv("TERM")
	return strings.Contains(term, "direct") || strings.Contains(term, "truecolor")
}
