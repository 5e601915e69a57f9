// Command morphd is the reference ALPaCA morphing host. It serves static
// files from a configured document root, morphing HTML pages and padding
// annotated sub-resources on the way out, using the alpaca-padding query
// parameter to carry each resource's target size.
//
// Usage:
//
//	morphd serve
//	morphd required-files page.html
//	morphd check-dist obj_num.dist
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev" // set by build flags

var rootCmd = &cobra.Command{
	Use:     "morphd",
	Short:   "ALPaCA HTML/CSS/object morphing host",
	Long:    `morphd serves a document root and reshapes HTML length, object counts, and object sizes to resist website-fingerprinting attacks.`,
	Version: version,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(requiredFilesCmd)
	rootCmd.AddCommand(checkDistCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
