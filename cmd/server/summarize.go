package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"intake-assistant/internal/core"
	"intake-assistant/pkg"
)

func newSummarizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summarize <phone>",
		Short: "Print a clinician summary of a patient's stored history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStorage(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer st.Close(logger)

			summary, err := core.NewSummarizer(st.profiles, newSummaryClient(cfg)).Summarize(cmd.Context(), args[0])
			if errors.Is(err, pkg.ErrNotFound) {
				return fmt.Errorf("no patient found with phone number %s", args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), summary)
			return nil
		},
	}
}
