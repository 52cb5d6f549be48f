package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of tabula",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("tabula %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
