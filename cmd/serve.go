package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kozaktomas/facefit/internal/camera"
	"github.com/kozaktomas/facefit/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the FaceFit web server.
The web UI lets you upload, drop or photograph your face and shows the
detected face shape with recommended glasses styles.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides WEB_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides WEB_HOST)")
	serveCmd.Flags().String("session-secret", "", "Secret for signing session cookies (overrides WEB_SESSION_SECRET)")
	serveCmd.Flags().String("camera-url", "", "MJPEG stream of a network camera (overrides FACEFIT_CAMERA_URL)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if port := mustGetInt(cmd, "port"); port > 0 {
		cfg.Web.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Web.Host = host
	}
	if secret := mustGetString(cmd, "session-secret"); secret != "" {
		cfg.Web.SessionSecret = secret
	}
	if cameraURL := mustGetString(cmd, "camera-url"); cameraURL != "" {
		cfg.Camera.URL = cameraURL
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

	var device camera.Device
	if cfg.Camera.Enabled() {
		mjpeg, err := camera.NewMJPEGDevice(cfg.Camera.URL)
		if err != nil {
			return fmt.Errorf("invalid camera URL: %w", err)
		}
		device = mjpeg
	}

	server, err := web.NewServer(cfg, client, device, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Starting FaceFit Web UI on http://%s:%d\n", cfg.Web.Host, cfg.Web.Port)
	fmt.Println("Press Ctrl+C to stop")

	// In-flight analyses may take up to the client timeout
	if err := server.Run(ctx, client.Timeout()+5*time.Second); err != nil {
		logger.Error("web server stopped with error", zap.Error(err))
		return fmt.Errorf("running server: %w", err)
	}
	fmt.Println("Server stopped")
	return nil
}
