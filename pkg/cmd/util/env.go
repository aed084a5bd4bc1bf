package util

import (
	"context"
	"errors"
	"sync"
	"time"

	otlpruntime "go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/mpapenbr/f1-telemetry-lab/log"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/compare"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/config"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/source/archive"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/source/factory"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/source/openf1"
	"github.com/mpapenbr/f1-telemetry-lab/pkg/utils"
)

// Env holds everything a command needs to query the configured backend.
type Env struct {
	Service   *compare.Service
	result    *factory.Result
	telemetry *config.Telemetry
}

// NewEnv sets up logging, telemetry and the client chain from the resolved config.
func NewEnv(ctx context.Context) (*Env, error) {
	sqlLogger, err := SetupLogger()
	if err != nil {
		return nil, err
	}
	ret := &Env{}
	if config.EnableTelemetry {
		log.Info("Enabling telemetry")
		if ret.telemetry, err = config.SetupTelemetry(ctx); err != nil {
			log.Warn("Could not setup telemetry", log.ErrorField(err))
		}
		err = otlpruntime.Start(otlpruntime.WithMinimumReadMemStatsInterval(time.Second))
		if err != nil {
			log.Warn("Could not start runtime metrics", log.ErrorField(err))
		}
	}
	if err = WaitForRequiredServices(ctx); err != nil {
		ret.Close()
		return nil, err
	}

	cfg := config.ClientConfig()
	cfg.SQLLogger = sqlLogger
	log.Debug("Config:",
		log.String("backend", cfg.Backend),
		log.String("openf1", cfg.OpenF1URL),
		log.String("cacheStorage", cfg.CacheStorage),
		log.Duration("timeout", cfg.Timeout),
		log.Duration("cacheTTL", cfg.CacheTTL))
	if ret.result, err = factory.New(ctx, cfg); err != nil {
		ret.Close()
		return nil, err
	}
	ret.Service = compare.NewService(ret.result.Client)
	return ret, nil
}

func (e *Env) Close() {
	if e.result != nil {
		e.result.Close()
	}
	if e.telemetry != nil {
		e.telemetry.Shutdown()
	}
}

// WaitForRequiredServices waits for the archive database and the NATS server
// if the configuration makes use of them.
func WaitForRequiredServices(ctx context.Context) error {
	timeout := config.ParseDuration(config.WaitForServices, 0)
	if timeout <= 0 {
		return nil
	}
	var checks []func() error
	if config.Backend == archive.BackendName {
		if addr := utils.ExtractFromDBURL(config.ArchiveURL); addr != "" {
			checks = append(checks, func() error { return utils.WaitForTCP(ctx, addr, timeout) })
		}
	}
	if config.CacheStorage == factory.StorageNATS {
		if addr := utils.ExtractFromNATSURL(config.NATSURL); addr != "" {
			checks = append(checks, func() error { return utils.WaitForTCP(ctx, addr, timeout) })
		}
	}
	if config.Backend == openf1.BackendName && config.OpenF1URL != "" {
		checks = append(checks, func() error {
			return utils.WaitForHTTPResponse(ctx, config.OpenF1URL, timeout)
		})
	}

	wg := sync.WaitGroup{}
	errs := make([]error, len(checks))
	for i, check := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = check()
		}()
	}
	log.Debug("Waiting for connection checks to return")
	wg.Wait()
	if err := errors.Join(errs...); err != nil {
		return err
	}
	log.Debug("Required services are available")
	return nil
}
