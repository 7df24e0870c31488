package cmd

import (
	"camera-ingest/config"
	"camera-ingest/pkg/logger"
	"camera-ingest/service"
	"fmt"
	"github.com/spf13/cobra"
	"os/signal"
	"syscall"
	"time"
)

func record(config *config.Config) *cobra.Command {
	var (
		road           string
		index          int
		seconds        int
		extractFPS     int
		extractSeconds int
	)
	cmd := &cobra.Command{
		Use:   "record [camera id]",
		Short: "record one clip, extract frames and upload everything",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(logger.ConsoleContext(config.App.Environment), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			components, err := service.NewComponents(config)
			if err != nil {
				return err
			}

			id := ""
			if len(args) > 0 {
				id = args[0]
			}
			if id == "" && road == "" {
				return service.ErrNoCameraSelected
			}
			camera, err := findCamera(ctx, components.Directory, id, road, index)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), service.FormatCamera(camera))

			opts := components.Defaults
			if seconds > 0 {
				opts.RecordDuration = time.Duration(seconds) * time.Second
			}
			if extractFPS > 0 {
				opts.ExtractFPS = extractFPS
			}
			if extractSeconds > 0 {
				opts.ExtractSeconds = extractSeconds
			}

			report, err := components.Pipeline.Run(ctx, camera, opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.Summary())
			if report.MetadataKey != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Metadata uploaded to s3://%s/%s\n", components.Uploader.Bucket(), report.MetadataKey)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&road, "road", "", "select the camera from a road search instead of by id")
	cmd.Flags().IntVar(&index, "index", 0, "index into the road search results")
	cmd.Flags().IntVar(&seconds, "seconds", 0, "recording length in seconds (default from config)")
	cmd.Flags().IntVar(&extractFPS, "extract-fps", 0, "frames sampled per second of video (default from config)")
	cmd.Flags().IntVar(&extractSeconds, "extract-seconds", 0, "seconds of video to sample (default from config)")
	return cmd
}
