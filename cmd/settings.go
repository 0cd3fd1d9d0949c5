package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadfinder/internal/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change saved settings",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the saved generation prompt",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("settings"); err != nil {
			return err
		}
		s, err := settings.NewFile(cfg.Settings.Path).Get()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), s.Prompt())
		return err
	},
}

var settingsSetPromptCmd = &cobra.Command{
	Use:   "set-prompt [prompt]",
	Short: "Save the generation prompt (reads stdin when no argument is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("settings"); err != nil {
			return err
		}
		reset, _ := cmd.Flags().GetBool("reset")

		var prompt string
		switch {
		case reset:
		case len(args) == 1:
			prompt = args[0]
		default:
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return eris.Wrap(err, "settings: read stdin")
			}
			prompt = strings.TrimSpace(string(data))
		}

		if _, err := settings.NewFile(cfg.Settings.Path).Update(func(s *settings.Settings) {
			s.SystemPrompt = prompt
		}); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved settings to %s\n", cfg.Settings.Path)
		return nil
	},
}

func init() {
	settingsSetPromptCmd.Flags().Bool("reset", false, "restore the default prompt")
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetPromptCmd)
	rootCmd.AddCommand(settingsCmd)
}
