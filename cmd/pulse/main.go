package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/teampulse/pulse/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "pulse",
	Short: "Pulse team mood tracker",
	Long:  "Pulse is a multi-tenant backend where company members record one mood entry per day and admins manage teams and users.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.LoadDotEnv(".env")
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: built-in defaults plus environment)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
