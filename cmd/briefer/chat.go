package main

import (
	"time"

	"github.com/mohammad-safakhou/briefer/internal/app"
	"github.com/mohammad-safakhou/briefer/internal/tui"
	"github.com/spf13/cobra"
)

func chatCMD() *cobra.Command {
	var timeout time.Duration
	var chat = &cobra.Command{
		Use:   "chat",
		Short: "Chat with the briefing assistant in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				return tui.Run(a, timeout)
			})
		},
	}
	chat.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "per-message timeout")
	return chat
}
