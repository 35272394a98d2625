package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"receipt-batch-service/cmd/receiptbatch/config"
	"receipt-batch-service/internal/batch"
	"receipt-batch-service/internal/extract"
	"receipt-batch-service/internal/models"
	"receipt-batch-service/internal/reporter"
	"receipt-batch-service/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the process command
var (
	inputDir     string
	inputFiles   []string
	outputFormat string
	outputFile   string

	processingMode string
	windowSize     int
	maxFiles       int
	extractTimeout time.Duration

	detectDuplicates bool
	crossValidate    bool
	generateReport   bool

	matchProfile    string
	amountTolerance float64
	dateTolerance   int

	geminiModel  string
	showProgress bool
)

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process a batch of scanned documents",
	Long: `Process extracts a transaction from every document in the batch,
groups likely duplicates, runs advisory consistency checks, and builds an
expense report over the extracted records.

Input is either a directory of documents or an explicit file list.
Supported types: JPEG, PNG, WebP, and PDF.

The Gemini API key is read from the RECEIPTBATCH_GEMINI_API_KEY
environment variable.

Examples:
  # Process every supported document in a directory
  receiptbatch process --input-dir ./receipts

  # Explicit files with JSON output
  receiptbatch process --files a.jpg,b.png --output-format json --output-file result.json

  # Sequential processing with a strict duplicate profile
  receiptbatch process --input-dir ./receipts --mode sequential --profile strict

  # Bound each extraction call to 30 seconds
  receiptbatch process --input-dir ./receipts --extract-timeout 30s`,

	PreRunE: validateProcessFlags,
	RunE:    runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	// Input flags
	processCmd.Flags().StringVarP(&inputDir, "input-dir", "i", "", "directory of documents to process")
	processCmd.Flags().StringSliceVar(&inputFiles, "files", []string{}, "comma-separated document paths")

	// Output flags
	processCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv")
	processCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")

	// Processing flags
	processCmd.Flags().StringVar(&processingMode, "mode", "parallel", "processing mode: parallel, sequential")
	processCmd.Flags().IntVar(&windowSize, "window-size", 5, "max concurrent extractions in parallel mode")
	processCmd.Flags().IntVar(&maxFiles, "max-files", 50, "max documents per batch")
	processCmd.Flags().DurationVar(&extractTimeout, "extract-timeout", 0, "per-document extraction timeout (0 disables)")

	// Stage toggles
	processCmd.Flags().BoolVar(&detectDuplicates, "detect-duplicates", true, "detect duplicate transactions")
	processCmd.Flags().BoolVar(&crossValidate, "cross-validate", true, "run advisory cross-document checks")
	processCmd.Flags().BoolVar(&generateReport, "generate-report", true, "generate the expense report")

	// Matching flags
	processCmd.Flags().StringVar(&matchProfile, "profile", "default", "duplicate matching profile: default, strict, relaxed")
	processCmd.Flags().Float64VarP(&amountTolerance, "amount-tolerance", "a", -1, "amount tolerance as a fraction (e.g. 0.01)")
	processCmd.Flags().IntVarP(&dateTolerance, "date-tolerance", "d", -1, "date matching tolerance in days")

	// Extraction flags
	processCmd.Flags().StringVar(&geminiModel, "model", extract.DefaultModelName, "recognition model name")

	// UI flags
	processCmd.Flags().BoolVar(&showProgress, "progress", false, "show progress indicators")

	// Bind flags to viper
	viper.BindPFlag("input-dir", processCmd.Flags().Lookup("input-dir"))
	viper.BindPFlag("files", processCmd.Flags().Lookup("files"))
	viper.BindPFlag("output-format", processCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", processCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("mode", processCmd.Flags().Lookup("mode"))
	viper.BindPFlag("window-size", processCmd.Flags().Lookup("window-size"))
	viper.BindPFlag("max-files", processCmd.Flags().Lookup("max-files"))
	viper.BindPFlag("extract-timeout", processCmd.Flags().Lookup("extract-timeout"))
	viper.BindPFlag("detect-duplicates", processCmd.Flags().Lookup("detect-duplicates"))
	viper.BindPFlag("cross-validate", processCmd.Flags().Lookup("cross-validate"))
	viper.BindPFlag("generate-report", processCmd.Flags().Lookup("generate-report"))
	viper.BindPFlag("profile", processCmd.Flags().Lookup("profile"))
	viper.BindPFlag("amount-tolerance", processCmd.Flags().Lookup("amount-tolerance"))
	viper.BindPFlag("date-tolerance", processCmd.Flags().Lookup("date-tolerance"))
	viper.BindPFlag("model", processCmd.Flags().Lookup("model"))
	viper.BindPFlag("progress", processCmd.Flags().Lookup("progress"))
}

func validateProcessFlags(cmd *cobra.Command, args []string) error {
	// Viper values win so config files and env vars can override flags
	inputDir = viper.GetString("input-dir")
	inputFiles = viper.GetStringSlice("files")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	processingMode = viper.GetString("mode")
	windowSize = viper.GetInt("window-size")
	maxFiles = viper.GetInt("max-files")
	extractTimeout = viper.GetDuration("extract-timeout")
	detectDuplicates = viper.GetBool("detect-duplicates")
	crossValidate = viper.GetBool("cross-validate")
	generateReport = viper.GetBool("generate-report")
	matchProfile = viper.GetString("profile")
	amountTolerance = viper.GetFloat64("amount-tolerance")
	dateTolerance = viper.GetInt("date-tolerance")
	geminiModel = viper.GetString("model")
	showProgress = viper.GetBool("progress")

	if inputDir == "" && len(inputFiles) == 0 {
		return fmt.Errorf("either --input-dir or --files is required")
	}
	if inputDir != "" && len(inputFiles) > 0 {
		return fmt.Errorf("--input-dir and --files are mutually exclusive")
	}

	return nil
}

func runProcess(cmd *cobra.Command, args []string) error {
	errorHandler := NewCLIErrorHandler()

	if err := setupLogging(); err != nil {
		os.Exit(errorHandler.HandleError(err))
	}

	if err := executeProcess(cmd.Context()); err != nil {
		os.Exit(errorHandler.HandleError(err))
	}

	return nil
}

func setupLogging() error {
	log, err := logger.NewLogger(config.CreateLoggerConfig(verbose))
	if err != nil {
		return err
	}
	logger.SetGlobalLogger(log)
	return nil
}

func executeProcess(ctx context.Context) error {
	log := logger.GetGlobalLogger().WithComponent("cli")

	// Load input documents
	var files []*models.BatchFile
	var err error
	if inputDir != "" {
		files, err = batch.LoadDirectory(inputDir)
	} else {
		files, err = batch.LoadFiles(inputFiles)
	}
	if err != nil {
		return err
	}

	log.WithFields(logger.Fields{
		"files": len(files),
		"mode":  processingMode,
	}).Info("Loaded batch input")

	// Build component configurations
	batchConfig, err := config.CreateBatchConfig(config.BatchOptions{
		Mode:             processingMode,
		WindowSize:       windowSize,
		MaxFiles:         maxFiles,
		ExtractTimeout:   extractTimeout,
		DetectDuplicates: detectDuplicates,
		CrossValidate:    crossValidate,
		GenerateReport:   generateReport,
		Profile:          matchProfile,
		AmountTolerance:  amountTolerance,
		DateTolerance:    dateTolerance,
	})
	if err != nil {
		return err
	}

	reportConfig, err := config.CreateReportConfig(outputFormat)
	if err != nil {
		return err
	}

	// Wire the pipeline
	extractor, err := extract.NewGeminiExtractor(ctx, config.CreateExtractorConfig(
		geminiModel, viper.GetString("gemini-api-key")))
	if err != nil {
		return err
	}

	coordinator, err := batch.NewCoordinator(batchConfig, extractor)
	if err != nil {
		return err
	}

	var progress batch.ProgressFunc
	if showProgress {
		progress = func(p batch.Progress) {
			if p.CurrentFile != "" {
				fmt.Fprintf(os.Stderr, "[%d/%d] %s: %s\n", p.Completed, p.Total, p.Stage, p.CurrentFile)
			} else {
				fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", p.Completed, p.Total, p.Stage)
			}
		}
	}

	result, err := coordinator.ProcessBatch(ctx, files, progress)
	if err != nil {
		return err
	}

	// Render the result
	rep, err := reporter.NewReporter(reportConfig)
	if err != nil {
		return err
	}

	output := os.Stdout
	if outputFile != "" {
		output, err = os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer output.Close()
	}

	if err := rep.Render(result, output); err != nil {
		return err
	}

	if outputFile != "" {
		fmt.Fprintf(os.Stderr, "Result written to %s\n", outputFile)
	}

	return nil
}
