package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "weft",
		Short: "Weft - declarative template compiler",
		Long: `Weft compiles declarative JSON component templates into textual
source code. The same template renders as plain markup or, through dialect
backends, as framework components, with styling and naming extensions
applied along the way.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	}

	rootCmd.AddCommand(newBuildCommand())
	rootCmd.AddCommand(newDevCommand())
	rootCmd.AddCommand(newCreateCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
