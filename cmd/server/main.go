// Package main is the entry point for the expedition service
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "expedition-api",
	Short: "Dungeon Expedition Service",
	Long:  `Runs turn-based dungeon expeditions: the server role admits and queues runs, the worker role simulates them and paces the narrative events.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(workerCmd)
}
