package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gk-tools/imconvt"
	"github.com/gk-tools/imconvt/internal/config"
)

// envLogLevel enables debug logging when set to "debug"
const envLogLevel = "IMCONVT_LOG_LEVEL"

var configPath string

var rootCmd = &cobra.Command{
	Use:     "imconvt",
	Short:   "Convert, resize and color-adjust images, one at a time or whole folders",
	Version: imconvt.Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetOutput(os.Stderr)
		log.SetFlags(log.Ldate | log.Ltime)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $"+config.EnvConfigPath+" or ~/.config/imconvt/config.json)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, falling back to defaults when missing
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.GetConfigPath()
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	debugf("using config %s", path)
	return cfg, nil
}

func debugf(format string, args ...any) {
	if strings.EqualFold(os.Getenv(envLogLevel), "debug") {
		log.Printf("debug: "+format, args...)
	}
}
