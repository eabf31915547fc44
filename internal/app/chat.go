package app

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"cfo-copilot/internal/render"
)

// Chat runs a line-oriented question loop on stdin. The dataset is loaded
// once; every line is classified and answered independently, with no
// conversation state carried between questions.
func (a *App) Chat(ctx context.Context) error {
	data, err := a.loadDataset(ctx)
	if err != nil {
		return err
	}

	pilot := a.newCopilot(data)

	fmt.Fprintf(os.Stdout, "CFO copilot ready. Dataset through %s. Ask a question, or \"exit\" to quit.\n",
		data.LatestPeriod().Label())

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(os.Stdout, "> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fmt.Fprintln(os.Stdout, render.Text(pilot.Answer(line)))
	}

	return scanner.Err()
}
