package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/briefer/internal/app"
	"github.com/mohammad-safakhou/briefer/internal/index"
	"github.com/mohammad-safakhou/briefer/models"
	"github.com/spf13/cobra"
)

func indexCMD() *cobra.Command {
	var ix = &cobra.Command{
		Use:   "index",
		Short: "Rebuild the vector index from saved briefings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				n, err := a.Rebuild(cmd.Context())
				if errors.Is(err, index.ErrEmptyCorpus) {
					fmt.Fprintln(cmd.OutOrStdout(), "no saved briefings to index")
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "indexed %d chunks\n", n)
				return nil
			})
		},
	}
	ix.AddCommand(indexSearchCMD())
	return ix
}

func indexSearchCMD() *cobra.Command {
	var k int
	var source, mode string
	var search = &cobra.Command{
		Use:   "search <query>",
		Short: "Query the saved file index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := strings.Join(args, " ")
			var filter models.Kind
			if source != "" {
				kind, err := models.ParseKind(source)
				if err != nil {
					return err
				}
				filter = kind
			}
			return withApp(cmd.Context(), func(a *app.App) error {
				ix, err := index.Load(a.Config.Index.Path, a.Embedder)
				if err != nil {
					return err
				}
				defer ix.Close()
				var hits []index.Hit
				switch mode {
				case "similarity":
					hits, err = ix.Similarity(cmd.Context(), q, k, filter)
				case "mmr":
					hits, err = ix.MMR(cmd.Context(), q, k, a.Config.Index.FetchK, a.Config.Index.MMRLambda, filter)
				case "hybrid":
					hits, err = ix.Hybrid(cmd.Context(), q, k, filter)
				default:
					return fmt.Errorf("unknown mode %q", mode)
				}
				if err != nil {
					return err
				}
				for _, h := range hits {
					fmt.Fprintf(cmd.OutOrStdout(), "%d. [%s] %.3f %s\n", h.Rank, h.Source, h.Score, strings.ReplaceAll(h.Text, "\n", " "))
				}
				return nil
			})
		},
	}
	search.Flags().IntVar(&k, "k", 3, "number of results")
	search.Flags().StringVar(&source, "source", "", "news, blog or paper")
	search.Flags().StringVar(&mode, "mode", "hybrid", "similarity, mmr or hybrid")
	return search
}
