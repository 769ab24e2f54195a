// Package main provides the entry point for the resumind CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "resumind",
	Short: "Job application assistant",
	Long:  "Resumind researches a company, then generates a tailored resume and cover letter for a job application through an agentic pipeline backed by PostgreSQL.",
}

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to JSON config file (optional; env vars win)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
