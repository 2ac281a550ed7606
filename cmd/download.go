package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdillis/earthview/internal/download"
	"github.com/pdillis/earthview/pkg/index"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download the full-resolution images referenced by the index",
	Long: `Download every image in the earthview.json index at full resolution.

Images land under <out>/all/full_resolution named by their listing id, or
under <out>/countries/full_resolution/<country>/ with --by-country. Files
already present are skipped, so an interrupted run can simply be restarted.
In country mode, images already downloaded into the flat tree are copied
instead of fetched again.

If no local index exists, the published static index is downloaded first.

Examples:
  # Download everything into ./images
  earthview download

  # Group by country and archive the resulting tree
  earthview download --by-country --zip`,
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().Bool("by-country", false, "group images into one directory per country")
	downloadCmd.Flags().String("out", "./images", "root directory for downloaded images")
	downloadCmd.Flags().Bool("zip", false, "archive the output tree into <out>/zip_files")
	downloadCmd.Flags().Int("workers", download.DefaultWorkers, "concurrent downloads")

	viper.BindPFlag("download.by-country", downloadCmd.Flags().Lookup("by-country"))
	viper.BindPFlag("download.out", downloadCmd.Flags().Lookup("out"))
	viper.BindPFlag("download.zip", downloadCmd.Flags().Lookup("zip"))
	viper.BindPFlag("download.workers", downloadCmd.Flags().Lookup("workers"))
}

func runDownload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	records, err := loadOrFetchIndex(ctx)
	if err != nil {
		return err
	}

	out := viper.GetString("download.out")

	d := download.New(viper.GetString("user-agent"))
	d.Workers = viper.GetInt("download.workers")

	var summary *download.Summary
	var zipSrc, zipDest string

	if viper.GetBool("download.by-country") {
		saveDir := filepath.Join(out, "countries", "full_resolution")
		allDir := filepath.Join(out, "all", "full_resolution")

		summary, err = d.ByCountry(ctx, records.ByCountry(), saveDir, allDir)
		zipSrc = filepath.Join(out, "countries", "full_resolution")
		zipDest = filepath.Join(out, "zip_files", "imgs_by_country_full_resolution.zip")
	} else {
		saveDir := filepath.Join(out, "all", "full_resolution")

		summary, err = d.All(ctx, records.ImageURLs(), saveDir)
		zipSrc = filepath.Join(out, "all", "full_resolution")
		zipDest = filepath.Join(out, "zip_files", "all_imgs_full_resolution.zip")
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Download finished: %s\n", summary)

	if viper.GetBool("download.zip") {
		fmt.Fprintln(os.Stderr, "Making ZIP file...")
		if err := download.Zip(zipSrc, zipDest); err != nil {
			return fmt.Errorf("archiving %s: %w", zipSrc, err)
		}
		fmt.Fprintf(os.Stderr, "ZIP file saved at %s\n", zipDest)
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%d images failed to download", summary.Failed)
	}
	return nil
}

// loadOrFetchIndex loads the local index, pulling the published static
// copy first if no local file exists yet.
func loadOrFetchIndex(ctx context.Context) (index.Records, error) {
	path := filepath.Join(viper.GetString("json-path"), index.FileName)

	records, err := index.Load(path)
	if err == nil {
		return records, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	fmt.Fprintf(os.Stderr, "Local index %s does not exist, downloading the static one...\n", path)
	records, err = index.Fetch(ctx, &http.Client{}, index.StaticURL)
	if err != nil {
		return nil, fmt.Errorf("fetching static index: %w", err)
	}

	if err := index.Save(path, records); err != nil {
		return nil, fmt.Errorf("saving index: %w", err)
	}
	return records, nil
}
