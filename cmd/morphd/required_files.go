package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"alpaca-morph/internal/morph"
)

var requiredFilesCmd = &cobra.Command{
	Use:   "required-files <page.html>",
	Args:  cobra.ExactArgs(1),
	Short: "List the local sub-resources an HTML page references",
	Long:  `Parses an HTML file and prints every local image, stylesheet, and script URI it references, without fetching or morphing any of them.`,
	RunE:  runRequiredFiles,
}

func runRequiredFiles(_ *cobra.Command, args []string) error {
	content, err := os.ReadFile(args[0]) //nolint:gosec // path is an explicit CLI argument
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	uris, err := morph.GetHTMLRequiredFiles(content)
	if err != nil {
		return fmt.Errorf("parse %s: %w", args[0], err)
	}

	for _, uri := range uris {
		fmt.Println(uri)
	}

	return nil
}
