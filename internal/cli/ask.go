package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"cfo-copilot/internal/app"
)

var askPNGPath string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a single finance question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.AskOptions{
			PNGPath: askPNGPath,
		}

		return getApp().Ask(cmd.Context(), strings.Join(args, " "), opts)
	},
}

func init() {
	askCmd.Flags().StringVar(&askPNGPath, "png", "", "Path to write a chart of the answer")
}
