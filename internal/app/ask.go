package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cfo-copilot/internal/render"
)

// Ask answers a single question and prints the narrative to stdout.
func (a *App) Ask(ctx context.Context, query string, opts AskOptions) error {
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("question must not be empty")
	}

	data, err := a.loadDataset(ctx)
	if err != nil {
		return err
	}

	result := a.newCopilot(data).Answer(query)
	fmt.Fprintln(os.Stdout, render.Text(result))

	if opts.PNGPath != "" {
		if len(result.Series) == 0 {
			a.Logger.Warn().Str("template", result.Template).Msg("result has no series; skipping chart")
			return nil
		}
		if err := writeChart(result, opts.PNGPath, a.Config.Chart); err != nil {
			return err
		}
		a.Logger.Info().Str("path", opts.PNGPath).Msg("chart written")
	}

	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
