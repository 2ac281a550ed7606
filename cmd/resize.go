package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdillis/earthview/internal/process"
)

var resizeCmd = &cobra.Command{
	Use:   "resize",
	Short: "Resize square crops to a target size",
	Long: `Resize every square JPEG in a directory to --size pixels on both sides
using linear filtering. Outputs are written as <name>_resized<size>.jpg;
existing outputs are skipped and non-square inputs are skipped with a notice.

Examples:
  # Shrink 1024x1024 crops to 512x512
  earthview resize --in ./images/cropped --out ./images/resized/512 --size 512`,
	RunE: runResize,
}

func init() {
	rootCmd.AddCommand(resizeCmd)

	resizeCmd.Flags().String("in", "", "directory of square JPEG images (required)")
	resizeCmd.Flags().String("out", "", "directory for resized images (required)")
	resizeCmd.Flags().Int("size", process.DefaultTargetSize, "output side length in pixels")
	resizeCmd.Flags().Int("workers", process.DefaultWorkers, "images processed in parallel")
	resizeCmd.MarkFlagRequired("in")
	resizeCmd.MarkFlagRequired("out")

	viper.BindPFlag("resize.in", resizeCmd.Flags().Lookup("in"))
	viper.BindPFlag("resize.out", resizeCmd.Flags().Lookup("out"))
	viper.BindPFlag("resize.size", resizeCmd.Flags().Lookup("size"))
	viper.BindPFlag("resize.workers", resizeCmd.Flags().Lookup("workers"))
}

func runResize(cmd *cobra.Command, args []string) error {
	resizer := process.NewResizer()
	resizer.TargetSize = viper.GetInt("resize.size")
	resizer.Workers = viper.GetInt("resize.workers")

	summary, err := resizer.Run(cmd.Context(), viper.GetString("resize.in"), viper.GetString("resize.out"))
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Resizing finished: %s\n", summary)
	if summary.Failed > 0 {
		return fmt.Errorf("%d images failed to resize", summary.Failed)
	}
	return nil
}
