package cmd

import (
	"camera-ingest/config"
	"camera-ingest/entities"
	"camera-ingest/pkg/logger"
	"camera-ingest/service"
	"context"
	"fmt"
	"github.com/spf13/cobra"
	"io"
)

func cameras(config *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cameras <road name>",
		Short: "list cameras whose name contains the road name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logger.ConsoleContext(config.App.Environment)
			components, err := service.NewComponents(config)
			if err != nil {
				return err
			}

			found, err := components.Directory.Search(ctx, args[0])
			if err != nil {
				return err
			}
			printCameras(cmd.OutOrStdout(), args[0], found)
			return nil
		},
	}
	return cmd
}

func printCameras(w io.Writer, road string, cameras []entities.Camera) {
	if len(cameras) == 0 {
		fmt.Fprintf(w, "No cameras found for %q\n", road)
		return
	}
	for i, camera := range cameras {
		fmt.Fprintf(w, "[%d] %s (%s)\n", i, camera.Name, camera.ID)
	}
}

// findCamera resolves a camera by id, or by index into the search results
// for road when road is set.
func findCamera(ctx context.Context, directory *service.Directory, id, road string, index int) (entities.Camera, error) {
	if road == "" {
		return directory.Camera(ctx, id)
	}
	found, err := directory.Search(ctx, road)
	if err != nil {
		return entities.Camera{}, err
	}
	if index < 0 || index >= len(found) {
		return entities.Camera{}, fmt.Errorf("invalid selection %d, %d cameras match %q", index, len(found), road)
	}
	return found[index], nil
}
