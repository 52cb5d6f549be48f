package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print environment diagnostics",
	Long: `Info reports the wrapper version, Go runtime, platform, resolved jar
path and the installed Java version. Attach its output to bug reports.`,
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, _ []string) error {
	client, log, clientErr := newClient()
	if clientErr != nil {
		return clientErr
	}
	defer closeLogger(log)

	fmt.Println(client.EnvironmentInfo(cmd.Context()))

	return nil
}
