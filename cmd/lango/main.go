package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:   "lango",
	Short: "Local language-tutor orchestrator",
	Long: `lango orchestrates per-language tutor workspaces around an external
agent CLI. Each language gets its own directory with tutor instructions
and spaced-repetition study files; every chat message also dispatches a
background tracker run that keeps those files current.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(bootstrapCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(languagesCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(vocabCmd)
	rootCmd.AddCommand(grammarCmd)
	rootCmd.AddCommand(dueCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(activityCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
