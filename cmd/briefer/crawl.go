package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mohammad-safakhou/briefer/internal/app"
	"github.com/mohammad-safakhou/briefer/internal/pipeline"
	"github.com/mohammad-safakhou/briefer/models"
	"github.com/spf13/cobra"
)

func crawlCMD() *cobra.Command {
	var days, n int
	var country string
	var save bool
	var crawl = &cobra.Command{
		Use:   "crawl <news|blog|paper> <keyword>",
		Short: "Run one crawl pipeline without the agent",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := models.ParseKind(args[0])
			if err != nil {
				return err
			}
			keyword := strings.Join(args[1:], " ")
			return withApp(cmd.Context(), func(a *app.App) error {
				if country == "" {
					country = a.Config.General.DefaultCountry
				}
				req := pipeline.Request{Keyword: keyword, Days: days, N: n, Country: country}
				items, err := a.Crawl(cmd.Context(), kind, req)
				if err != nil {
					return err
				}
				if save {
					id, err := a.SaveItems(cmd.Context(), keyword, country, items)
					if err != nil {
						return err
					}
					if id != "" {
						fmt.Fprintf(os.Stderr, "saved %s\n", a.Files.Path(id))
					}
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetEscapeHTML(false)
				enc.SetIndent("", "  ")
				return enc.Encode(items)
			})
		},
	}
	crawl.Flags().IntVar(&days, "days", 1, "look back this many days")
	crawl.Flags().IntVar(&n, "n", 1, "number of keywords including synonyms (1-5)")
	crawl.Flags().StringVar(&country, "country", "", "country for synonym lookup (default general.default_country)")
	crawl.Flags().BoolVar(&save, "save", true, "save the items as a briefing")
	return crawl
}
