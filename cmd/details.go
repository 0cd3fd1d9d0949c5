package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var detailsCmd = &cobra.Command{
	Use:   "details <place-id>",
	Short: "Fetch phone, website and rating for one place",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("details"); err != nil {
			return err
		}

		a, err := initApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		d, err := a.gate.Details(ctx, args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	},
}

func init() {
	rootCmd.AddCommand(detailsCmd)
}
