package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	"scorefive/internal/app"
	"scorefive/internal/config"
	"scorefive/internal/events"
	"scorefive/internal/logger"
	"scorefive/internal/metrics"
	"scorefive/internal/ports"
	"scorefive/internal/store/memory"
	"scorefive/internal/store/postgres"
	"scorefive/internal/store/sqlite"
)

// cliApp holds what setup opened for the running command.
type cliApp struct {
	out     io.Writer
	cfg     *config.Config
	store   ports.RecordStore
	svc     *app.Service
	closers []func() error
}

func newApp(out io.Writer) *cli.App {
	a := &cliApp{out: out}
	return &cli.App{
		Name:   "fivectl",
		Usage:  "keep score for games of Five",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "scorefive.yaml",
				EnvVars: []string{"SCOREFIVE_CONFIG"},
				Usage:   "path to the configuration file",
			},
			&cli.StringFlag{
				Name:    "owner",
				Value:   "local",
				EnvVars: []string{"SCOREFIVE_OWNER"},
				Usage:   "owner the games are stored under",
			},
		},
		Before:   a.setup,
		After:    a.teardown,
		Commands: a.commands(),
	}
}

func (a *cliApp) setup(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return err
	}
	a.cfg = cfg

	store, err := openStore(cfg.Storage)
	if err != nil {
		return err
	}
	a.store = store
	if closer, ok := store.(io.Closer); ok {
		a.closers = append(a.closers, closer.Close)
	}

	reg := prometheus.NewRegistry()
	opts := []app.Option{
		app.WithMetrics(metrics.NewRecorder(reg)),
		app.WithListLimit(cfg.Game.ListLimit),
	}
	if cfg.Metrics.Address != "" {
		srv := serveMetrics(cfg.Metrics.Address, reg)
		a.closers = append(a.closers, srv.Close)
	}
	if cfg.NATS.URL != "" {
		pub, err := events.ConnectNATS(cfg.NATS.URL, cfg.NATS.SubjectPrefix)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, pub.Close)
		opts = append(opts, app.WithPublisher(pub))
	}
	a.svc = app.NewService(store, opts...)
	return nil
}

// teardown closes in reverse order of opening.
func (a *cliApp) teardown(*cli.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func openStore(cfg config.StorageConfig) (ports.RecordStore, error) {
	switch cfg.Driver {
	case "memory":
		logger.Warn("memory storage does not persist between runs")
		return memory.New(), nil
	case "sqlite":
		s, err := sqlite.Open(cfg.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		return postgres.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", "addr", addr, "error", err)
		}
	}()
	return srv
}
