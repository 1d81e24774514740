// robot looks up phone numbers in eFlyt for the cases mailed to the robot
// mailbox and mails the results back.
//
// Usage:
//
//	robot run [--config=<path>] [--max-records=<n>]
//	robot serve [--config=<path>]
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"eflyt-phone-lookup/internal/common/config"
)

// version is set at build time via -ldflags.
var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "robot",
	Short: "eFlyt phone number lookup robot",
	Long:  "Reads lookup requests from the robot mailbox, finds phone numbers in eFlyt\nand mails an XLSX report back to the requester.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: ./configs/config.yaml)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.Version = version
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
