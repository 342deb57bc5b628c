package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/ppiankov/leakprobe/internal/cache"
	"github.com/ppiankov/leakprobe/internal/lexicon"
	"github.com/ppiankov/leakprobe/internal/llm"
	"github.com/ppiankov/leakprobe/internal/logging"
	"github.com/ppiankov/leakprobe/internal/metrics"
	"github.com/ppiankov/leakprobe/internal/model"
	"github.com/ppiankov/leakprobe/internal/pipeline"
	"github.com/ppiankov/leakprobe/internal/store"
	"github.com/ppiankov/leakprobe/internal/validate"
	"github.com/ppiankov/leakprobe/internal/worker"
)

const judgeCheckTimeout = 10 * time.Second

// engine wires a pipeline and the resources it owns
type engine struct {
	pipeline *pipeline.Pipeline
	logger   logging.Logger
	store    *store.Store
	server   *http.Server
}

func newEngine(cfg *model.Config, metricsAddr string) (*engine, error) {
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	e := &engine{logger: logger}

	lex, err := lexicon.Load(cfg.Lexicon.Path)
	if err != nil {
		return nil, err
	}

	opts := pipeline.Options{Logger: logger.Named("pipeline")}

	if cfg.Validation.Enabled {
		provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			return nil, fmt.Errorf("init judge: %w", err)
		}
		if provider != nil {
			opts.Judge = provider
			limiter := worker.NewLimiter(cfg.Validation.RequestsPerSecond, cfg.Validation.Burst)
			opts.Validator = append(opts.Validator, validate.WithLimiter(limiter, provider.Name()))
			if cfg.Cache.Enabled {
				vc := cache.NewVerdictCache(cache.New(cfg.Cache), cfg.Cache.TTL)
				opts.Validator = append(opts.Validator, validate.WithCache(vc))
			}
			logger.Debug("semantic judge enabled",
				logging.String("provider", provider.Name()),
				logging.String("model", cfg.LLM.Model))
			checkJudge(context.Background(), provider, logger, judgeCheckTimeout)
		} else {
			logger.Debug("no judge provider configured, rule-based scoring only")
		}
	}

	if cfg.Store.Path != "" {
		s, err := store.Open(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		e.store = s
		opts.Store = s
	}

	if metricsAddr != "" {
		collector := metrics.NewCollector()
		opts.Metrics = collector
		if err := e.serveMetrics(metricsAddr, collector); err != nil {
			e.Close()
			return nil, err
		}
	}

	e.pipeline = pipeline.New(cfg, lex, opts)
	return e, nil
}

// checkJudge warns when the judge cannot be reached. Scoring still runs and
// batches that fail keep their rule scores.
func checkJudge(ctx context.Context, provider llm.Provider, logger logging.Logger, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := provider.CheckAvailable(ctx); err != nil {
		logger.Warn("semantic judge unreachable, failed batches keep rule scores",
			logging.String("provider", provider.Name()),
			logging.Err(err))
		return false
	}
	return true
}

func (e *engine) serveMetrics(addr string, collector *metrics.Collector) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen metrics: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	e.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := e.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.logger.Warn("metrics server stopped", logging.Err(err))
		}
	}()
	e.logger.Info("serving metrics", logging.String("addr", ln.Addr().String()))
	return nil
}

// Close releases the store and stops the metrics server
func (e *engine) Close() {
	if e.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = e.server.Shutdown(ctx)
		cancel()
	}
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			e.logger.Warn("close store", logging.Err(err))
		}
	}
	_ = e.logger.Sync()
}
