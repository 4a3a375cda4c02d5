package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/metroviz/crimedash/internal/boundary"
)

var boundariesCmd = &cobra.Command{
	Use:   "boundaries",
	Short: "Fetch the boundary polygons and list the regions",
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := boundary.Load(cmd.Context(), nil, boundary.Config{
			URL:          cfg.Boundary.URL,
			LocalPath:    cfg.Boundary.LocalPath,
			NameProperty: cfg.Boundary.NameProperty,
			Timeout:      time.Duration(cfg.Boundary.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return err
		}

		for i := range set.Regions {
			fmt.Printf("%-40s %d polygon(s)\n", set.Regions[i].Name, len(set.Regions[i].Polygons))
		}
		fmt.Printf("\n%d regions\n", len(set.Regions))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(boundariesCmd)
}
