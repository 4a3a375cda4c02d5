package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/metroviz/crimedash/internal/loader"
	"github.com/metroviz/crimedash/internal/stats"
	"github.com/metroviz/crimedash/internal/store"
)

var loadInvalidate bool

var loadCmd = &cobra.Command{
	Use:   "load [path]",
	Short: "Run the preparation pipeline on a source file and print a summary",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Data.ReducedPath
		if len(args) == 1 {
			path = args[0]
		}

		var persist *store.Cache
		if cfg.Data.CacheDB != "" {
			var err error
			persist, err = store.Open(cfg.Data.CacheDB)
			if err != nil {
				return err
			}
			defer persist.Close()
			if err := persist.Migrate(cmd.Context()); err != nil {
				return err
			}
		}

		m := loader.NewManager(cfg.Data.Charset, persist)
		if loadInvalidate {
			m.Invalidate(cmd.Context(), path)
		}

		ds := m.Load(cmd.Context(), path)
		if ds.Empty() {
			return eris.Errorf("dataset %s could not be prepared", path)
		}

		sum := stats.Summarize(ds.Incidents())
		fmt.Printf("source:   %s\n", path)
		fmt.Printf("rows:     %d\n", sum.Total)
		fmt.Printf("violent:  %d (%.1f%%)\n", sum.Violent, 100*sum.Ratio)
		fmt.Printf("areas:    %d\n", len(ds.Areas()))
		if years := ds.Years(); len(years) > 0 {
			fmt.Printf("years:    %d-%d\n", years[0], years[len(years)-1])
		}
		return nil
	},
}

func init() {
	loadCmd.Flags().BoolVar(&loadInvalidate, "invalidate", false, "drop cached results before loading")
	rootCmd.AddCommand(loadCmd)
}
