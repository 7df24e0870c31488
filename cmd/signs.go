package cmd

import (
	"camera-ingest/config"
	"camera-ingest/pkg/logger"
	"camera-ingest/service"
	"fmt"
	"github.com/spf13/cobra"
)

func signs(config *config.Config) *cobra.Command {
	var (
		road  string
		index int
	)
	cmd := &cobra.Command{
		Use:   "signs [camera id]",
		Short: "show the message signs on a camera's roadway",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logger.ConsoleContext(config.App.Environment)
			components, err := service.NewComponents(config)
			if err != nil {
				return err
			}

			if len(args) == 0 && road == "" {
				fmt.Fprintln(cmd.OutOrStdout(), service.FormatSigns(nil, nil))
				return nil
			}

			id := ""
			if len(args) > 0 {
				id = args[0]
			}
			camera, err := findCamera(ctx, components.Directory, id, road, index)
			if err != nil {
				return err
			}

			found, err := components.Directory.AssociatedSigns(ctx, &camera)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), service.FormatSigns(&camera, found))
			return nil
		},
	}
	cmd.Flags().StringVar(&road, "road", "", "select the camera from a road search instead of by id")
	cmd.Flags().IntVar(&index, "index", 0, "index into the road search results")
	return cmd
}
