package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/eduforge/internal/app"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive terminal UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd)
	},
}

// runTUI builds the runtime and hands it to the terminal UI. Logs go to
// stderr, so they are silenced below error while the alt screen is up.
func runTUI(cmd *cobra.Command) error {
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl == "" {
		_ = cmd.Flags().Set("log-level", "error")
	}

	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	return app.Run(app.Options{
		Runner: rt.recorder,
		Runs:   rt.store.RunRepo(),
		Status: rt.statusLine(),
	})
}
