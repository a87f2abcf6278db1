package main

import (
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/briefer/internal/app"
	"github.com/spf13/cobra"
)

func briefCMD() *cobra.Command {
	var n int
	var country string
	var brief = &cobra.Command{
		Use:   "brief <prompt>",
		Short: "Ask the briefing agent and print the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.Join(args, " ")
			return withApp(cmd.Context(), func(a *app.App) error {
				if country == "" {
					country = a.Config.General.DefaultCountry
				}
				if n <= 0 {
					n = a.Config.General.SynonymRange
				}
				b, err := a.Brief(cmd.Context(), prompt, n, country)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for i, it := range b.Items {
					fmt.Fprintf(out, "%d. **[%s](%s)**\n - %s\n\n", i+1, it.Title, it.URL, it.Summary)
				}
				if len(b.Items) == 0 {
					fmt.Fprintln(out, b.Answer)
				}
				if b.ID != "" {
					fmt.Fprintf(out, "saved %s\n", a.Files.Path(b.ID))
				}
				return nil
			})
		},
	}
	brief.Flags().IntVar(&n, "n", 0, "synonym range 1-5 (default general.synonym_range)")
	brief.Flags().StringVar(&country, "country", "", "Korea, Japan, China, USA or Europe")
	return brief
}
