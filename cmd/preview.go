package cmd

import (
	"camera-ingest/config"
	"camera-ingest/pkg/logger"
	"camera-ingest/pkg/media"
	"camera-ingest/service"
	"fmt"
	"github.com/spf13/cobra"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
)

func preview(config *config.Config) *cobra.Command {
	var (
		road    string
		index   int
		seconds int
		fps     int
		out     string
	)
	cmd := &cobra.Command{
		Use:   "preview [camera id]",
		Short: "save a few live frames as numbered JPEGs",
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

			if err := os.MkdirAll(out, os.ModePerm); err != nil {
				return err
			}

			shown, err := components.Recorder.Preview(ctx, camera, time.Duration(seconds)*time.Second, fps, func(i int, frame media.Frame) error {
				path := filepath.Join(out, fmt.Sprintf("%s_preview_%03d.jpg", camera.ID, i))
				if err := components.Backend.WriteImage(path, frame); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d preview frames written\n", shown)
			return nil
		},
	}
	cmd.Flags().StringVar(&road, "road", "", "select the camera from a road search instead of by id")
	cmd.Flags().IntVar(&index, "index", 0, "index into the road search results")
	cmd.Flags().IntVar(&seconds, "seconds", 5, "preview length in seconds")
	cmd.Flags().IntVar(&fps, "fps", 1, "frames kept per second")
	cmd.Flags().StringVar(&out, "out", filepath.Join("temp", "preview"), "output directory")
	return cmd
}
