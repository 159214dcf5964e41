package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/yoshino-s/cloudlogging/collector"
	"github.com/yoshino-s/cloudlogging/config"
	"github.com/yoshino-s/cloudlogging/httplog"
	"github.com/yoshino-s/cloudlogging/logging"
	"github.com/yoshino-s/cloudlogging/runtime"
)

func runServe(args []string) error {
	var configPath, addr string

	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	flags.StringVarP(&configPath, "config", "c", "", "YAML config file")
	flags.StringVar(&addr, "addr", ":8080", "listen address")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{Addr: addr, Handler: newMux(cfg, logger)}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	logger.Info("listening", zap.String("addr", addr), zap.String("logName", cfg.LogName()))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	cfg := config.Default()
	cfg.ProjectID = "local"
	return cfg, cfg.Validate()
}

// newMux wires the demo echo endpoint behind the logging middleware and,
// when configured, a collector endpoint.
func newMux(cfg *config.Config, logger *zap.Logger) *http.ServeMux {
	writer := logging.NewZapWriter(logger)
	if cfg.Collector.URL != "" {
		writer = logging.MultiWriter(writer, collector.NewClient(cfg.Collector.URL, collector.WithProjectID(cfg.ProjectID)))
	}
	hooks := runtime.NewHookSet()
	if len(cfg.Labels) > 0 {
		hooks.AddHook(runtime.LabelHook(cfg.Labels))
	}

	mux := http.NewServeMux()
	if cfg.Collector.Serve {
		mux.Handle(collector.NewHandler(logging.NewZapWriter(logger), collector.WithLogger(logger), collector.WithHooks(hooks)))
	}
	if !cfg.Enabled {
		writer = logging.Discard
	}

	m := httplog.New(writer, append(cfg.MiddlewareOptions(logger), httplog.WithHooks(hooks))...)
	mux.Handle("/", m.Handler(http.HandlerFunc(echo)))
	return mux
}

func echo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", r.Header.Get("Content-Type"))
	_, _ = io.Copy(w, r.Body)
}
