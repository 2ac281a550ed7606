package cmd

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdillis/earthview/internal/scrape"
	"github.com/pdillis/earthview/pkg/index"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Build or refresh the JSON image index",
	Long: `Build the earthview.json index of image URLs and metadata.

By default the Earth View listing is crawled page by page up to --max-index,
extracting region, country, a maps link and the full-resolution image URL for
every id that exists. With --static, the published copy of the index is
downloaded instead; it is faster but may lag behind the live listing.

Examples:
  # Crawl the listing with the default id range
  earthview fetch

  # Crawl a larger id range with more workers
  earthview fetch --max-index 30000 --workers 128

  # Pull the published static index
  earthview fetch --static`,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().Bool("static", false, "download the published static index instead of crawling")
	fetchCmd.Flags().Int("max-index", 20000, "max listing id to probe (increase as time progresses)")
	fetchCmd.Flags().Int("workers", runtime.NumCPU()*8, "concurrent page fetches")

	viper.BindPFlag("fetch.static", fetchCmd.Flags().Lookup("static"))
	viper.BindPFlag("fetch.max-index", fetchCmd.Flags().Lookup("max-index"))
	viper.BindPFlag("fetch.workers", fetchCmd.Flags().Lookup("workers"))
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dest := filepath.Join(viper.GetString("json-path"), index.FileName)

	var records index.Records
	var err error

	if viper.GetBool("fetch.static") {
		fmt.Fprintln(os.Stderr, "Downloading static index...")
		records, err = index.Fetch(ctx, &http.Client{}, index.StaticURL)
		if err != nil {
			return fmt.Errorf("fetching static index: %w", err)
		}
	} else {
		scraper := scrape.New(viper.GetString("user-agent"))
		scraper.Workers = viper.GetInt("fetch.workers")

		records, err = scraper.Crawl(ctx, viper.GetInt("fetch.max-index"))
		if err != nil {
			return fmt.Errorf("crawling listing: %w", err)
		}
	}

	if err := index.Save(dest, records); err != nil {
		return fmt.Errorf("saving index: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Found %d images, index saved to %s\n", len(records), dest)
	return nil
}
