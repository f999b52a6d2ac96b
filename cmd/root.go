package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kozaktomas/facefit/internal/config"
	"github.com/kozaktomas/facefit/internal/faceapi"
	"github.com/kozaktomas/facefit/internal/logging"
)

var (
	captureDir string
	apiURL     string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "facefit",
	Short: "Find glasses that suit your face shape",
	Long: `FaceFit sends a photo of your face to the analysis service, which
classifies the face shape and recommends glasses styles with a match
confidence for each. Use the web UI (serve) or analyze photos directly
from the command line.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&captureDir, "capture", "", "Directory to save API responses for testing")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Analysis service URL (overrides FACEFIT_API_URL)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// loadConfig reads the environment and applies the global flag overrides.
func loadConfig() *config.Config {
	cfg := config.Load()
	if apiURL != "" {
		cfg.API.URL = apiURL
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg
}

// newLogger builds the process logger from cfg.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logger, err := logging.NewLogger(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

// newAPIClient creates the analysis service client, capturing responses when --capture is set.
func newAPIClient(cfg *config.Config) (*faceapi.Client, error) {
	client, err := faceapi.NewClientWithCapture(cfg.API.URL, cfg.API.Timeout, captureDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis client: %w", err)
	}
	return client, nil
}
