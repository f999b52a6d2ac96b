package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/facefit/internal/analysis"
	"github.com/kozaktomas/facefit/internal/camera"
	"github.com/kozaktomas/facefit/internal/presentation"
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture a photo from the network camera and analyze it",
	Long: `Take one still frame from the configured network camera (an MJPEG
stream), release the camera and send the frame for analysis.

Example:
  facefit capture --camera-url http://192.168.1.20:8081/stream
  facefit capture --save capture.jpg`,
	Args: cobra.NoArgs,
	RunE: runCapture,
}

func init() {
	rootCmd.AddCommand(captureCmd)
	captureCmd.Flags().String("camera-url", "", "MJPEG stream of a network camera (overrides FACEFIT_CAMERA_URL)")
	captureCmd.Flags().String("save", "", "Also write the captured frame to this file")
}

func runCapture(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if cameraURL := mustGetString(cmd, "camera-url"); cameraURL != "" {
		cfg.Camera.URL = cameraURL
	}
	if !cfg.Camera.Enabled() {
		return errors.New("FACEFIT_CAMERA_URL environment variable or --camera-url is required")
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	client, err := newAPIClient(cfg)
	if err != nil {
		return err
	}
	device, err := camera.NewMJPEGDevice(cfg.Camera.URL)
	if err != nil {
		return fmt.Errorf("invalid camera URL: %w", err)
	}

	ctx := cmd.Context()
	session := camera.NewSession(device)
	if err := session.Start(ctx); err != nil {
		return fmt.Errorf("%s: %w", camera.NoticeUnavailable, err)
	}
	img, err := session.Capture(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", camera.NoticeUnavailable, err)
	}

	if path := mustGetString(cmd, "save"); path != "" {
		if err := os.WriteFile(path, img.Data, 0o644); err != nil {
			return fmt.Errorf("failed to save frame: %w", err)
		}
	}

	spinner := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("Analyzing your face shape..."),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
	)

	machine := analysis.NewMachine()
	ticket, err := machine.Begin()
	if err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		result, err := client.AnalyzeImage(ctx, img)
		if err != nil {
			machine.Fail(ticket, err)
			return
		}
		machine.Succeed(ticket, result)
	}()

	events, unsubscribe := machine.Subscribe()
	defer unsubscribe()
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

wait:
	for {
		select {
		case <-ticker.C:
			spinner.Add(1)
		case snap := <-events:
			if !snap.IsLoading && snap.Phase != analysis.PhaseIdle {
				break wait
			}
		}
	}
	<-done
	spinner.Finish()

	switch state := machine.State().(type) {
	case analysis.Succeeded:
		return presentation.RenderText(os.Stdout, state.Result)
	case analysis.Failed:
		return errors.New(state.Message)
	default:
		return fmt.Errorf("unexpected analysis state %q", state.Phase())
	}
}
