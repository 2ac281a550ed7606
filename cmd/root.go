package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is the toolkit version reported by the server and User-Agent.
const Version = "1.0.0"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "earthview",
	Short: "Build and process the Earth View image dataset",
	Long: `earthview prepares the Google Earth View image collection for use as a
training dataset. It scrapes the listing into a JSON index, downloads the
referenced full-resolution images (optionally grouped by country), and
post-processes them locally into fixed-size square crops and resized copies.

Examples:
  # Build the JSON index by crawling the listing
  earthview fetch --max-index 20000

  # Pull the published static index instead of crawling
  earthview fetch --static

  # Download every image in the index
  earthview download --out ./images

  # Download images grouped by country and zip the tree
  earthview download --by-country --zip --out ./images

  # Split full-resolution images into 1024x1024 crops
  earthview crop --in ./images/all/full_resolution --out ./images/cropped

  # Resize square crops to 512x512
  earthview resize --in ./images/cropped --out ./images/resized/512 --size 512

  # Serve the index and crop planner over HTTP
  earthview serve --port 8080`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.earthview.yaml)")
	rootCmd.PersistentFlags().String("json-path", ".", "directory holding the earthview.json index")
	rootCmd.PersistentFlags().String("user-agent", "earthview/"+Version, "HTTP User-Agent header")

	viper.BindPFlag("json-path", rootCmd.PersistentFlags().Lookup("json-path"))
	viper.BindPFlag("user-agent", rootCmd.PersistentFlags().Lookup("user-agent"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".earthview" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".earthview")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
