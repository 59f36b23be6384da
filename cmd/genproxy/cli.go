package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/liuzl/genproxy"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"zliu.org/goutil/rest"
)

const shutdownTimeout = 30 * time.Second

func newRootCmd() *cobra.Command {
	var (
		envFile string
		verbose bool
	)
	root := &cobra.Command{
		Use:          "genproxy",
		Short:        "Generation proxy for Gemini text, image and video models",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			return loadEnvFile(envFile)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to .env file (optional)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(newServeCmd(), newGenerateCmd(), newOperationCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var (
		listenAddr string
		configFile string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP proxy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfigOrDefault(configFile)
			if err != nil {
				return err
			}
			server, err := NewProxyServer(cfg, &ServerConfig{ListenAddr: listenAddr})
			if err != nil {
				return fmt.Errorf("failed to create proxy server: %w", err)
			}
			return runServer(cmd.Context(), server)
		},
	}
	cmd.Flags().StringVarP(&listenAddr, "listen", "l", ":8080", "Server listen address")
	cmd.Flags().StringVarP(&configFile, "config", "c", "config/genproxy.yaml", "Path to YAML configuration file; empty uses built-in defaults")
	return cmd
}

func loadConfigOrDefault(path string) (*ProxyConfig, error) {
	if path == "" {
		cfg := DefaultConfig()
		cfg.applyEnv()
		return cfg, nil
	}
	rest.Log().Info().Msgf("Loading configuration from %s", path)
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// runServer serves until ctx is cancelled or a termination signal arrives,
// then drains in-flight requests.
func runServer(ctx context.Context, server *ProxyServer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		rest.Log().Info().Msg("Server stopped gracefully")
		return nil
	})
	return g.Wait()
}

// generateFlags are the options of the generate command.
type generateFlags struct {
	model       string
	images      []string
	aspectRatio string
	preferText  bool
	output      string
	apiKey      string
	wait        bool
	interval    time.Duration
}

func newGenerateCmd() *cobra.Command {
	var f generateFlags
	cmd := &cobra.Command{
		Use:   "generate <prompt>",
		Short: "Run one generation request against the upstream",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := DefaultConfig()
			cfg.applyEnv()
			return runGenerate(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, strings.Join(args, " "), f)
		},
	}
	cmd.Flags().StringVarP(&f.model, "model", "m", "", "Model name (default "+genproxy.DefaultModel+")")
	cmd.Flags().StringSliceVarP(&f.images, "image", "i", nil, "Reference image file; may be repeated")
	cmd.Flags().StringVar(&f.aspectRatio, "aspect-ratio", "", "Requested aspect ratio such as 16:9")
	cmd.Flags().BoolVar(&f.preferText, "prefer-text", false, "Ask for text even from an image model")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Write a generated image to this file instead of printing its data URI")
	cmd.Flags().StringVar(&f.apiKey, "api-key", "", "API key; defaults to $"+defaultAPIKeyEnv)
	cmd.Flags().BoolVar(&f.wait, "wait", false, "For video models, poll the operation until it is done")
	cmd.Flags().DurationVar(&f.interval, "interval", 10*time.Second, "Polling interval used with --wait")
	return cmd
}

func runGenerate(ctx context.Context, stdout, stderr io.Writer, cfg *ProxyConfig, prompt string, f generateFlags) error {
	req := &genproxy.Request{
		Prompt:      prompt,
		APIKey:      f.apiKey,
		Model:       f.model,
		PreferText:  f.preferText,
		AspectRatio: f.aspectRatio,
	}
	for _, path := range f.images {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read image: %w", err)
		}
		req.Images = append(req.Images, genproxy.EncodeDataURI(genproxy.DetectMimeType("", path), data))
	}

	opts := cfg.Options()
	res, err := genproxy.NewDispatcher(opts...).Generate(ctx, req)
	if err != nil {
		return err
	}

	switch res.Type {
	case genproxy.ResultText:
		if res.Warning != "" {
			fmt.Fprintln(stderr, "warning: model returned text instead of an image")
		}
		_, err = fmt.Fprintln(stdout, res.Text)
		return err
	case genproxy.ResultImage:
		return writeImage(stdout, res.DataURI, f.output)
	default:
		fmt.Fprintf(stderr, "operation started: %s\n", res.OperationID)
		if !f.wait {
			return printJSON(stdout, res)
		}
		key := genproxy.ResolveAPIKey(f.apiKey, cfg.APIKey())
		return waitForOperation(ctx, stdout, genproxy.NewPoller(opts...), res.OperationID, key, f.interval)
	}
}

func writeImage(stdout io.Writer, dataURI, output string) error {
	if output == "" {
		_, err := fmt.Fprintln(stdout, dataURI)
		return err
	}
	img, ok := genproxy.ParseDataURI(dataURI)
	if !ok {
		return fmt.Errorf("model returned a non-inline image: %s", dataURI)
	}
	data, err := base64.StdEncoding.DecodeString(img.Data)
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	_, err = fmt.Fprintf(stdout, "wrote %s (%s, %d bytes)\n", output, img.MimeType, len(data))
	return err
}

// waitForOperation polls until the operation is done and prints its final
// state. An operation that finishes with an error is reported as one.
func waitForOperation(ctx context.Context, stdout io.Writer, p *genproxy.Poller, operationID, apiKey string, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		raw, err := p.Poll(ctx, operationID, apiKey)
		if err != nil {
			return err
		}
		if state := genproxy.ReadOperationState(raw); state.Done {
			if _, err := fmt.Fprintln(stdout, string(raw)); err != nil {
				return err
			}
			if state.Error != "" {
				return fmt.Errorf("operation %s failed: %s", operationID, state.Error)
			}
			return nil
		}
		rest.Log().Debug().Str("operation_id", operationID).Msg("operation still running")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func newOperationCmd() *cobra.Command {
	var apiKey string
	cmd := &cobra.Command{
		Use:   "operation <id>",
		Short: "Fetch the current state of a video operation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := DefaultConfig()
			cfg.applyEnv()
			raw, err := genproxy.NewPoller(cfg.Options()...).
				Poll(cmd.Context(), args[0], genproxy.ResolveAPIKey(apiKey, cfg.APIKey()))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(raw))
			return err
		},
	}
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key; defaults to $"+defaultAPIKeyEnv)
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
