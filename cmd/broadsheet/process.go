package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/broadsheet-archive/broadsheet/internal/api"
	"github.com/broadsheet-archive/broadsheet/internal/config"
	"github.com/broadsheet-archive/broadsheet/internal/ocr"
	"github.com/broadsheet-archive/broadsheet/internal/pipeline"
	"github.com/broadsheet-archive/broadsheet/internal/press"
)

var (
	processEngine   string
	processLanguage string
	processProfile  string
	processTextOnly bool
)

// processOutput is the structured result of a one-shot page run.
type processOutput struct {
	SourcePath string           `json:"source_path" yaml:"source_path"`
	Engine     string           `json:"engine" yaml:"engine"`
	Language   string           `json:"language" yaml:"language"`
	Confidence float64          `json:"confidence" yaml:"confidence"`
	Elapsed    string           `json:"elapsed" yaml:"elapsed"`
	Regions    int              `json:"regions" yaml:"regions"`
	Articles   []processArticle `json:"articles" yaml:"articles"`
}

type processArticle struct {
	Title      string  `json:"title,omitempty" yaml:"title,omitempty"`
	Type       string  `json:"type" yaml:"type"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	Content    string  `json:"content" yaml:"content"`
}

var processCmd = &cobra.Command{
	Use:   "process <image>",
	Short: "Process a single page image locally",
	Long: `Run one page image through the full pipeline without a server:
preprocessing, OCR, layout analysis and article segmentation.

Processing defaults come from the config file; flags override them.

Examples:
  broadsheet process page.png                      # Articles as YAML
  broadsheet process page.png --text               # Plain text only
  broadsheet process page.png --language deu       # German newsprint
  broadsheet process page.png --profile archival   # Full preprocessing`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cm, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		pcfg := cm.Get().ProcessingDefaults()
		if processEngine != "" {
			pcfg.EngineMode = processEngine
		}
		if processLanguage != "" {
			pcfg.Language = processLanguage
		}
		if processProfile != "" {
			p := press.Profile(processProfile)
			if !p.IsValid() {
				return fmt.Errorf("invalid profile: %s (valid: %v)", processProfile, press.ValidProfiles)
			}
			pcfg.ApplyProfile(p)
		}
		if err := pcfg.Validate(); err != nil {
			return err
		}

		// Logs go to stderr so structured output stays parseable.
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelWarn,
		}))
		engines := ocr.NewRegistry()
		engines.SetLogger(logger)
		engines.Register(ocr.NewTesseractEngine())

		res, err := pipeline.ProcessPage(ctx, engines, pcfg, args[0])
		if err != nil {
			return err
		}

		if processTextOnly {
			fmt.Println(res.PlainText)
			return nil
		}

		out := processOutput{
			SourcePath: args[0],
			Engine:     pcfg.EngineMode,
			Language:   pcfg.Language,
			Confidence: res.Confidence,
			Elapsed:    res.Elapsed.Round(time.Millisecond).String(),
			Regions:    len(res.Regions),
			Articles:   make([]processArticle, 0, len(res.Articles)),
		}
		for _, a := range res.Articles {
			out.Articles = append(out.Articles, processArticle{
				Title:      a.Title,
				Type:       string(a.Type),
				Confidence: a.Confidence,
				Content:    a.Content,
			})
		}
		return api.Output(out)
	},
}

func init() {
	processCmd.Flags().StringVar(&processEngine, "engine", "", "OCR engine to use (default from config)")
	processCmd.Flags().StringVar(&processLanguage, "language", "", "OCR language, e.g. eng, deu, fin (default from config)")
	processCmd.Flags().StringVar(&processProfile, "profile", "", "processing profile: fast, standard, quality or archival")
	processCmd.Flags().BoolVar(&processTextOnly, "text", false, "print recognized plain text instead of structured output")

	rootCmd.AddCommand(processCmd)
}
