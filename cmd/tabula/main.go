// Package main is the entry point for the tabula CLI, a command-line
// front end for the tabula-java table extractor.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/book-expert/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/book-expert/tabula-client/tabula"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the tabula CLI.
var rootCmd = &cobra.Command{
	Use:   "tabula",
	Short: "Extract tables from PDF documents",
	Long: `tabula drives the tabula-java extractor to pull tables out of PDF
documents. Sources may be local paths or http(s) URLs; remote documents are
downloaded before extraction.

Each operation is a subcommand: read prints tables, convert writes them to a
file, batch converts whole directories, template replays regions saved by the
Tabula App, and info reports environment diagnostics.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.Version = version

	persistent := rootCmd.PersistentFlags()
	persistent.String(
		"config",
		"",
		"config file (default: ./tabula.yaml or ~/.config/tabula/tabula.yaml)",
	)
	persistent.String("jar", "", "path to the tabula-java jar (default: $TABULA_JAR)")
	persistent.String("java", "", "java executable to invoke")
	persistent.StringSlice("java-options", nil, "extra JVM options, e.g. -Xmx256m")
	persistent.String("encoding", "", "IANA name of the jar's output encoding")
	persistent.String("user-agent", "", "User-Agent header for URL downloads")
	persistent.String("log-dir", "", "directory for the CLI log file (default: OS temp dir)")
	persistent.Bool("quiet", false, "suppress jar logging chatter")

	bound := []string{
		"jar", "java", "java-options", "encoding",
		"user-agent", "log-dir", "quiet",
	}
	for _, name := range bound {
		_ = viper.BindPFlag(name, persistent.Lookup(name))
	}
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("tabula")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "tabula"))
		}
	}

	viper.SetEnvPrefix("TABULA")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newClient builds the extraction client and its logger from the resolved
// configuration.
func newClient() (*tabula.Client, *logger.Logger, error) {
	logDir := viper.GetString("log-dir")
	if logDir == "" {
		logDir = os.TempDir()
	}

	log, logErr := logger.New(logDir, "tabula-cli.log")
	if logErr != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", logErr)
	}

	client := tabula.New(tabula.Config{
		JavaBin:     viper.GetString("java"),
		JarPath:     viper.GetString("jar"),
		JavaOptions: viper.GetStringSlice("java-options"),
		Encoding:    viper.GetString("encoding"),
		UserAgent:   viper.GetString("user-agent"),
	}, log)

	return client, log, nil
}

func closeLogger(log *logger.Logger) {
	if err := log.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to close logger: %v\n", err)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
