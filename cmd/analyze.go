package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kozaktomas/facefit/internal/acquisition"
	"github.com/kozaktomas/facefit/internal/analysis"
	"github.com/kozaktomas/facefit/internal/faceapi"
	"github.com/kozaktomas/facefit/internal/logging"
	"github.com/kozaktomas/facefit/internal/presentation"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image> [image...]",
	Short: "Analyze face photos",
	Long: `Send one or more face photos to the analysis service and print the
detected face shape with recommended glasses styles.

Each photo is sent exactly once. Files that are not images are skipped
without contacting the service.

Example:
  facefit analyze selfie.jpg
  facefit analyze --json selfie.jpg other.png
  facefit analyze --concurrency 4 photos/*.jpg`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().Bool("json", false, "Print the raw analysis results as JSON")
	analyzeCmd.Flags().Int("concurrency", 2, "Number of photos analyzed in parallel")
}

// fileOutcome is the settled analysis state for one input file.
type fileOutcome struct {
	Path     string            `json:"path"`
	Snapshot analysis.Snapshot `json:"state"`
	Skipped  string            `json:"skipped,omitempty"`
	result   *faceapi.AnalysisResult
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	asJSON := mustGetBool(cmd, "json")
	concurrency := max(mustGetInt(cmd, "concurrency"), 1)

	cfg := loadConfig()
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	client, err := newAPIClient(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	bar := progressbar.NewOptions(len(args),
		progressbar.OptionSetDescription("Analyzing"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionFullWidth(),
	)

	outcomes := make([]fileOutcome, len(args))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, path := range args {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			outcomes[i] = analyzeFile(ctx, client, logger, path)
			bar.Add(1)
		}(i, path)
	}
	wg.Wait()
	bar.Finish()
	fmt.Fprintln(os.Stderr)

	return printOutcomes(outcomes, asJSON)
}

// analyzeFile drives one file through the analysis state machine.
func analyzeFile(ctx context.Context, client *faceapi.Client, logger *zap.Logger, path string) fileOutcome {
	out := fileOutcome{Path: path}
	log := logging.WithOperation(logger, "analyze", "").With(zap.String("file", path))

	img, err := acquisition.FromFile(path)
	if err == nil {
		err = acquisition.Validate(img)
	}
	if err != nil {
		log.Debug("skipping file", zap.Error(err))
		out.Skipped = acquisition.NoticeNotImage
		out.Snapshot = analysis.NewMachine().Snapshot()
		return out
	}

	machine := analysis.NewMachine()
	ticket, err := machine.Begin()
	if err != nil {
		out.Snapshot = machine.Snapshot()
		return out
	}

	result, err := client.AnalyzeImage(ctx, img)
	if err != nil {
		log.Warn("analysis failed", zap.Error(logging.NewOperationError("analyze", "", err)))
		machine.Fail(ticket, err)
	} else {
		machine.Succeed(ticket, result)
		out.result = result
	}
	out.Snapshot = machine.Snapshot()
	return out
}

func printOutcomes(outcomes []fileOutcome, asJSON bool) error {
	failed := 0
	for _, o := range outcomes {
		if o.Skipped != "" || o.Snapshot.Phase == analysis.PhaseFailed {
			failed++
		}
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(outcomes); err != nil {
			return fmt.Errorf("failed to encode results: %w", err)
		}
	} else {
		for _, o := range outcomes {
			fmt.Printf("== %s\n", o.Path)
			switch {
			case o.Skipped != "":
				fmt.Printf("Skipped: %s\n\n", o.Skipped)
			case o.Snapshot.Phase == analysis.PhaseFailed:
				fmt.Printf("Error: %s\n\n", o.Snapshot.Error)
			default:
				if err := presentation.RenderText(os.Stdout, o.result); err != nil {
					return err
				}
				fmt.Println()
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d photos could not be analyzed", failed, len(outcomes))
	}
	return nil
}
