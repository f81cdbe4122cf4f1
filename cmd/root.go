package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "eduforge",
	Short: "Generate and review grade-appropriate lessons",
	Long: "EduForge generates a short explanation and three multiple-choice questions for a grade and topic,\n" +
		"has a reviewer check them, and refines the content once when the reviewer asks for changes.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd)
	},
}

// Execute runs the root command; ctx is cancelled on interrupt.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to a config file (default ./eduforge.yaml or $XDG_CONFIG_HOME/eduforge/eduforge.yaml)")
	pf.String("db", "", "Path to SQLite database file (overrides EDUFORGE_DB env var)")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("provider", "", "LLM provider: groq, openai, anthropic, gemini, openrouter")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}
