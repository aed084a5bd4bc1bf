package serve

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mpapenbr/f1-telemetry-lab/log"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/cmd/util"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/config"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/endpoints/api"
)

var errNoKeyPair = errors.New("could not load TLS key pair")

func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "starts the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startServer(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&config.ServerAddr,
		"addr",
		"a",
		"localhost:8080",
		"HTTP server listen address")
	cmd.Flags().StringVar(&config.TLSCertFile,
		"tls-cert-file",
		"",
		"path to the TLS certificate. Enables https together with --tls-key-file")
	cmd.Flags().StringVar(&config.TLSKeyFile,
		"tls-key-file",
		"",
		"path to the TLS key")
	return cmd
}

func startServer(ctx context.Context) error {
	env, err := util.NewEnv(ctx)
	if err != nil {
		log.Error("could not setup backend", log.ErrorField(err))
		return err
	}
	defer env.Close()
	watchLogLevel()

	var handler http.Handler = api.NewServer(env.Service)
	if config.EnableTelemetry {
		handler = otelhttp.NewHandler(handler, "ftl")
	}
	//nolint:gosec // by design
	server := &http.Server{
		Addr:    config.ServerAddr,
		Handler: h2c.NewHandler(newCORS().Handler(handler), &http2.Server{}),
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	useTLS := config.TLSCertFile != "" && config.TLSKeyFile != ""
	if useTLS {
		server.TLSConfig = newTLSConfig(ctx, config.TLSCertFile, config.TLSKeyFile)
		if server.TLSConfig == nil {
			return errNoKeyPair
		}
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server",
			log.String("addr", config.ServerAddr),
			log.Bool("tls", useTLS))
		if useTLS {
			errChan <- server.ListenAndServeTLS("", "")
		} else {
			errChan <- server.ListenAndServe()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errChan:
		log.Error("server could not be started", log.ErrorField(err))
		return err
	case v := <-sigChan:
		log.Debug("Got signal ", log.Any("signal", v))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Warn("server shutdown", log.ErrorField(err))
	}
	log.Info("Server terminated")
	return nil
}

// watchLogLevel applies log level changes of the config file without restart
func watchLogLevel() {
	if viper.ConfigFileUsed() == "" {
		return
	}
	viper.OnConfigChange(func(e fsnotify.Event) {
		level := viper.GetString("log-level")
		if level == "" {
			return
		}
		parsed, err := log.ParseLevel(level)
		if err != nil {
			log.Warn("invalid log level in config", log.String("level", level))
			return
		}
		if parsed != log.Default().Level() {
			log.Default().SetLevel(parsed)
			log.Info("log level changed",
				log.String("level", parsed.String()),
				log.String("file", e.Name))
		}
	})
	viper.WatchConfig()
}

func newCORS() *cors.Cors {
	// the API is read-only, any origin may access it
	return cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
		},
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{api.RequestIDHeader},
	})
}
