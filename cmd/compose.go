package cmd

import (
	"camera-ingest/config"
	"camera-ingest/pkg/logger"
	"camera-ingest/pkg/notify"
	"camera-ingest/service"
	"fmt"
	"github.com/spf13/cobra"
)

func compose(config *config.Config) *cobra.Command {
	var (
		row  int
		send bool
	)
	cmd := &cobra.Command{
		Use:   "compose <metadata.csv>",
		Short: "compose accident alerts from a frames metadata table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logger.ConsoleContext(config.App.Environment)

			rows, err := service.LoadMetadata(args[0])
			if err != nil {
				return err
			}
			if row >= len(rows) {
				return fmt.Errorf("row %d out of range, table has %d rows", row, len(rows))
			}
			if row >= 0 {
				rows = rows[row : row+1]
			}

			var sender *notify.Sender
			if send {
				sender, err = notify.NewSender(config.Notification.URLs, config.Notification.Timeout)
				if err != nil {
					return err
				}
			}

			composer := service.NewComposer(service.CoordinateResolver{})
			for _, r := range rows {
				message := composer.ComposeOrFallback(ctx, r)
				fmt.Fprintln(cmd.OutOrStdout(), message)
				if sender != nil {
					if err := sender.Send(ctx, message); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&row, "row", 0, "row to compose, -1 for every row")
	cmd.Flags().BoolVar(&send, "send", false, "deliver the alert to the configured notification urls")
	return cmd
}
