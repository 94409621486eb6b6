package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"intake-assistant/pkg"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow profile changes published on the Postgres notify channel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := openStorage(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer st.Close(logger)
			if st.notifier == nil {
				return errors.New("watch requires DB_DRIVER=postgres and a NOTIFY_CHANNEL")
			}

			updates, err := st.notifier.Listen(ctx)
			if err != nil {
				return err
			}
			logger.Info("Watching profile updates", "channel", st.notifier.Channel)
			for phone := range updates {
				rec, err := st.profiles.FindProfile(ctx, phone)
				switch {
				case errors.Is(err, pkg.ErrNotFound):
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t(deleted)\n", phone)
				case err != nil:
					logger.Warn("Failed to load updated profile", "phone_number", phone, "error", err)
				default:
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", rec.PhoneNumber, rec.Name, rec.Language, rec.UpdatedAt.Format(time.RFC3339))
				}
			}
			return nil
		},
	}
}
