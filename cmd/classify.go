package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/paidsearchlab/searchintent/internal/cache"
	"github.com/paidsearchlab/searchintent/internal/classifier"
	"github.com/paidsearchlab/searchintent/internal/config"
	"github.com/paidsearchlab/searchintent/internal/domain"
	"github.com/paidsearchlab/searchintent/internal/llm"
	"github.com/paidsearchlab/searchintent/internal/logger"
	"github.com/paidsearchlab/searchintent/internal/metrics"
	"github.com/paidsearchlab/searchintent/internal/source"
)

func newClassifyCommand() *cobra.Command {
	var (
		inputPath   string
		outputPath  string
		runLLM      bool
		maxLLMTerms int
		rebuild     bool
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a search term report",
		Long: `Reads a CSV search term report, runs the classification pipeline, and
writes the same rows augmented with intent_category, intent_confidence, and
intent_method columns. Without --run-llm the pipeline only reports the
estimated LLM cost and classifies with the free stages.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			return runClassify(cmd, cfg, log, inputPath, outputPath, runLLM, maxLLMTerms, rebuild)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "input CSV report (required)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output CSV path (default: stdout)")
	cmd.Flags().BoolVar(&runLLM, "run-llm", false, "opt in to paid LLM classification")
	cmd.Flags().IntVar(&maxLLMTerms, "max-llm-terms", 0, "cap on terms sent to the LLM (default from config)")
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "clear the account's cache before classifying")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runClassify(cmd *cobra.Command, cfg *config.Config, log logger.Logger,
	inputPath, outputPath string, runLLM bool, maxLLMTerms int, rebuild bool,
) error {
	ctx := cmd.Context()

	in, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	report, err := source.Read(in)
	if err != nil {
		return err
	}
	terms := report.Terms()
	log.Info("report loaded",
		logger.Int("rows", len(report.Rows)),
		logger.Int("distinct_terms", len(terms)),
	)

	store, err := cache.Open(cfg.Cache.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	if rebuild {
		removed, err := store.DeleteAccount(ctx, cfg.Account.ID)
		if err != nil {
			return err
		}
		log.Info("cache rebuilt", logger.Int64("removed", removed))
	}

	rec := metrics.NewRecorder(nil)
	gateway := buildGateway(cfg, rec, log)

	if maxLLMTerms == 0 {
		maxLLMTerms = cfg.LLM.MaxTerms
	}
	pipeline, err := classifier.NewPipeline(classifier.PipelineConfig{
		AccountID:           cfg.Account.ID,
		BrandStrings:        cfg.Account.BrandStrings,
		CompetitorStrings:   cfg.Account.CompetitorStrings,
		SoldBrands:          cfg.Account.SoldBrands,
		RunLLM:              runLLM,
		MaxLLMTerms:         maxLLMTerms,
		VolumeShare:         cfg.Pipeline.VolumeShare,
		SimilarityThreshold: cfg.Pipeline.SimilarityThreshold,
	}, store, gateway, rec, log)
	if err != nil {
		return err
	}

	result, err := pipeline.Run(ctx, terms)
	if err != nil {
		return err
	}
	printSummary(cmd, result, runLLM)

	out := cmd.OutOrStdout()
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}
	return source.WriteAugmented(out, report, result.Classifications)
}

// buildGateway constructs the configured LLM provider, or returns nil when
// no API key is available (the pipeline then skips the LLM stage entirely).
func buildGateway(cfg *config.Config, rec *metrics.Recorder, log logger.Logger) classifier.LLMClassifier {
	if cfg.LLM.APIKey == "" {
		log.Warn("no llm api key configured, llm stage disabled")
		return nil
	}

	pricing := llm.Pricing{
		InputPerMillion:  cfg.LLM.InputPerMillion,
		OutputPerMillion: cfg.LLM.OutputPerMillion,
	}
	var provider llm.Provider
	if cfg.LLM.Provider == "anthropic" {
		provider = llm.NewAnthropicProvider(cfg.LLM.APIKey, cfg.LLM.Model, pricing)
	} else {
		provider = llm.NewOpenAIProvider(cfg.LLM.APIKey, cfg.LLM.Model, pricing)
	}

	return llm.NewGateway(provider, llm.GatewayOptions{
		BatchSize:    cfg.LLM.BatchSize,
		BusinessType: cfg.Account.BusinessType,
		Metrics:      rec,
	}, log)
}

func printSummary(cmd *cobra.Command, result *classifier.RunResult, ranLLM bool) {
	w := cmd.ErrOrStderr()
	fmt.Fprintf(w, "run %s\n", result.RunID)
	for _, stage := range classifier.StageOrder {
		if n := result.StageCounts[stage]; n > 0 {
			fmt.Fprintf(w, "  %-18s %6d\n", stage, n)
		}
	}

	cats := make([]domain.IntentCategory, 0, len(result.Distribution))
	for cat := range result.Distribution {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	fmt.Fprintln(w, "categories:")
	for _, cat := range cats {
		fmt.Fprintf(w, "  %-20s %6d\n", cat, result.Distribution[cat])
	}

	if result.EstimatedCost.Terms > 0 {
		fmt.Fprintf(w, "llm estimate: %d terms, %d batches, $%.4f (%s/%s)\n",
			result.EstimatedCost.Terms, result.EstimatedCost.Batches, result.EstimatedCost.USD,
			result.EstimatedCost.Provider, result.EstimatedCost.Model)
		if !ranLLM {
			fmt.Fprintln(w, "llm stage skipped; pass --run-llm to spend this")
		}
	}
	fmt.Fprintf(w, "llm: %d, propagated: %d, defaulted: %d, reclassified: %d\n",
		result.LLMClassified, result.Propagated, result.Defaulted, result.Reclassified)
}
