package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"alpaca-morph/internal/distribution"
)

var checkDistCmd = &cobra.Command{
	Use:   "check-dist <file.dist>",
	Args:  cobra.ExactArgs(1),
	Short: "Validate a .dist file and print its parsed rows",
	Long:  `Parses a custom empirical distribution file, runs its structural and semantic validation, and prints the resulting rows.`,
	RunE:  runCheckDist,
}

func runCheckDist(_ *cobra.Command, args []string) error {
	path := args[0]

	d, err := distribution.Parse(path)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if err := d.Validate(); err != nil {
		return fmt.Errorf("validate %s: %w", path, err)
	}

	fmt.Printf("name: %s\n", d.Name)
	for i, row := range d.Values {
		fmt.Printf("  p=%v  values=%v\n", d.Params[i], row)
	}
	return nil
}
