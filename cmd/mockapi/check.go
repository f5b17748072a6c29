package main

import (
	"fmt"
	"os"

	"github.com/platinummonkey/mockapi/pkg/catalog"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the data files and print record counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log.SetOutput(os.Stderr)

		repo, err := openResources(cfg, log, nil)
		if err != nil {
			return err
		}
		list, err := repo.GetAll(0, 1)
		if err != nil {
			return fmt.Errorf("invalid resources file %s: %w", repo.Path(), err)
		}

		store, err := openCatalog(cmd.Context(), cfg, log, nil)
		if err != nil {
			return err
		}
		current := store.Current()
		counts := current.Counts()

		fmt.Printf("resources (%s): %d\n", repo.Path(), list.Count)
		fmt.Printf("catalog (%s):\n", current.Source())
		for _, c := range catalog.All() {
			fmt.Printf("  %-26s %d\n", c.String(), counts[c])
		}
		return nil
	},
}
