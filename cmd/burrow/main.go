package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/fentz26/burrow/internal/config"
	"github.com/fentz26/burrow/internal/controlplane"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "burrow",
	Short: "burrow - colony labor scheduler",
	Long:  `burrow assigns a colony's minions to prioritised tasks, keeps combat and workplace tasks staffed, and journals every scheduling decision.`,
	// No RunE - defaults to showing help when no subcommand is provided
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of burrow",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("burrow version %s\n", controlplane.Version)
		fmt.Printf("  OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		fmt.Printf("  Go version: %s\n", runtime.Version())
	},
}

var (
	apiAddr    string
	configPath string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&apiAddr, "api", "http://127.0.0.1:7468", "API server address")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Path to the daemon config file")

	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(minionCmd)
	rootCmd.AddCommand(bedCmd)
	rootCmd.AddCommand(enemyCmd)
	rootCmd.AddCommand(entranceCmd)
	rootCmd.AddCommand(passCmd)
	rootCmd.AddCommand(workplaceCmd)
	rootCmd.AddCommand(decisionsCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
