package main

import (
	"github.com/spf13/cobra"

	"github.com/broadsheet-archive/broadsheet/internal/api"
	"github.com/broadsheet-archive/broadsheet/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "broadsheet",
	Short: "Historical newspaper digitization pipeline with OCR and article segmentation",
	Long: `Broadsheet is a digitization pipeline that transforms scanned newspaper
pages into searchable text and segmented articles.

The pipeline includes:
  - Image preprocessing tuned for aged newsprint (denoise, deskew, binarize)
  - OCR with pluggable engines and per-page language selection
  - Column and region detection from positional markup
  - Article segmentation with title and continuation handling`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.broadsheet/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "broadsheet home directory (default: ~/.broadsheet)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
