package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdillis/earthview/internal/process"
)

var cropCmd = &cobra.Command{
	Use:   "crop",
	Short: "Split full-resolution images into fixed-size square crops",
	Long: `Split every JPEG in a directory into overlapping square crops.

For each image, a grid of --size square tiles is derived from the image
dimensions: each axis larger than the tile is subdivided into its rounded
size/tile ratio of steps, with the step width chosen so the tiles spread
evenly from one edge to the other. Crops are written as <name>_<index>.jpg;
outputs that already exist are skipped, and images smaller than the tile on
either axis are skipped with a notice.

Examples:
  # Split the downloaded full-resolution images into 1024x1024 tiles
  earthview crop --in ./images/all/full_resolution --out ./images/cropped

  # Smaller tiles, more parallel images
  earthview crop --in ./images/all/full_resolution --out ./images/cropped_512 --size 512 --workers 8`,
	RunE: runCrop,
}

func init() {
	rootCmd.AddCommand(cropCmd)

	cropCmd.Flags().String("in", "", "directory of source JPEG images (required)")
	cropCmd.Flags().String("out", "", "directory for cropped tiles (required)")
	cropCmd.Flags().Int("size", process.DefaultTargetSize, "tile side length in pixels")
	cropCmd.Flags().Int("workers", process.DefaultWorkers, "images processed in parallel")
	cropCmd.MarkFlagRequired("in")
	cropCmd.MarkFlagRequired("out")

	viper.BindPFlag("crop.in", cropCmd.Flags().Lookup("in"))
	viper.BindPFlag("crop.out", cropCmd.Flags().Lookup("out"))
	viper.BindPFlag("crop.size", cropCmd.Flags().Lookup("size"))
	viper.BindPFlag("crop.workers", cropCmd.Flags().Lookup("workers"))
}

func runCrop(cmd *cobra.Command, args []string) error {
	cropper := process.NewCropper()
	cropper.TargetSize = viper.GetInt("crop.size")
	cropper.Workers = viper.GetInt("crop.workers")

	summary, err := cropper.Run(cmd.Context(), viper.GetString("crop.in"), viper.GetString("crop.out"))
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Cropping finished: %s\n", summary)
	if summary.Failed > 0 {
		return fmt.Errorf("%d images failed to crop", summary.Failed)
	}
	return nil
}
