package cli

import (
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Run an interactive question loop on stdin",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Chat(cmd.Context())
	},
}
