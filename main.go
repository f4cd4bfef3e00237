package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "persistgen",
		Short:   "Generate entity descriptors and CRUD statements for the orm package",
		Version: version,
		Long: `persistgen reads a Go struct and emits the orm.Entity descriptor and
orm.Mapping accessors a Repository needs, so that no reflection is
required at run time. It can also print the statements a Builder
produces for the struct.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newSQLCmd())
	return rootCmd
}
