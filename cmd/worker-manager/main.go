// cmd/worker-manager/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"lead-workers/internal/common/aws"
	"lead-workers/internal/common/camunda"
	"lead-workers/internal/common/config"
	"lead-workers/internal/common/database"
	"lead-workers/internal/common/health"
	"lead-workers/internal/common/logger"
	"lead-workers/internal/common/observability"
	"lead-workers/internal/common/zoho"
	"lead-workers/internal/leads/repository"
	"lead-workers/internal/leads/views"
	"lead-workers/internal/workers/leads/leadjob"

	cac "lead-workers/internal/workers/leads/check-auto-convert"
	fl "lead-workers/internal/workers/leads/filter-leads"
	mv "lead-workers/internal/workers/leads/manage-views"
	nlo "lead-workers/internal/workers/leads/notify-lead-owner"
	rl "lead-workers/internal/workers/leads/route-lead"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// pingCloser is a backend client that can be health-checked and released.
type pingCloser interface {
	Ping(ctx context.Context) error
	Close() error
}

// connectOnce is one retryWithBackoff attempt: it opens a client, pings it
// and stores it in out. A client that fails its ping is closed.
func connectOnce[C pingCloser](ctx context.Context, open func() (C, error), out *C) func() error {
	return func() error {
		c, err := open()
		if err != nil {
			return err
		}
		if err := c.Ping(ctx); err != nil {
			_ = c.Close()
			return err
		}
		*out = c
		return nil
	}
}

// backends holds the optional stores; nil fields are not configured.
type backends struct {
	pg    *database.PostgresClient
	es    *database.ElasticsearchClient
	redis *database.RedisClient
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service":     cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	zapLog.Info("Starting worker manager...", zap.String("leadSource", cfg.Leads.Source))

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client (retries internally) ---
	zeebe, err := camunda.NewClientWithConfig(&camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
	})
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zeebe.Close()
	zapLog.Info("Zeebe client connected successfully")

	b := connectBackends(ctx, cfg, zapLog)
	if b.pg != nil {
		defer b.pg.Close()
	}
	defer b.redis.Close()

	// --- Lead stores ---
	var leadRepo *repository.PostgresRepository
	if b.pg != nil {
		leadRepo = repository.NewPostgresRepository(b.pg.DB)
	}

	var leadSource repository.LeadSource
	switch cfg.Leads.Source {
	case config.LeadSourceElasticsearch:
		leadSource = repository.NewElasticsearchSource(b.es.Client, cfg.Leads.Index)
	default:
		if leadRepo != nil {
			leadSource = leadRepo
		}
	}

	viewStore := views.NewRedisStore(b.redis.Client, time.Duration(cfg.Leads.ViewTTL)*time.Second)

	// --- External service clients ---
	var converter cac.Converter
	if zc := cfg.Integrations.Zoho; zc.AuthToken != "" {
		var opts []zoho.Option
		if zc.BaseURL != "" {
			opts = append(opts, zoho.WithBaseURL(zc.BaseURL))
		}
		converter = zoho.NewCRMClient(zc.APIKey, zc.AuthToken, opts...)
	} else if cfg.Leads.AutoConvert {
		zapLog.Warn("auto_convert is enabled but no Zoho token is configured; eligible leads will only be reported")
	}

	var publisher nlo.Publisher
	if cfg.Integrations.AWS.SNS.Enabled {
		sns, err := aws.NewSNSClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
		publisher = sns
	}

	var mailer nlo.Mailer
	if cfg.Integrations.AWS.SES.Enabled {
		ses, err := aws.NewSESClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client init failed", zap.Error(err))
		}
		mailer = ses
	}

	zapLog.Info("All external service clients initialized")

	// --- Register workers ---
	var workers []*camunda.Worker
	start := func(taskType string, handler camunda.JobHandler) {
		workers = append(workers, camunda.StartWorker(zeebe.GetClient(), taskType, cfg.Workers[taskType], handler, log))
	}

	if cfg.Workers[rl.TaskType].Enabled {
		var store rl.Store
		if leadRepo != nil {
			store = leadRepo
		}
		start(rl.TaskType, rl.NewHandler(rl.LoadConfig(cfg), store, obs, log))
	}

	if cfg.Workers[cac.TaskType].Enabled {
		var store cac.Store
		if leadRepo != nil {
			store = leadRepo
		}
		start(cac.TaskType, cac.NewHandler(cac.LoadConfig(cfg), store, converter, obs, log))
	}

	if cfg.Workers[fl.TaskType].Enabled {
		start(fl.TaskType, fl.NewHandler(fl.LoadConfig(cfg), viewStore, leadSource, obs, log))
	}

	if cfg.Workers[mv.TaskType].Enabled {
		start(mv.TaskType, mv.NewHandler(mv.LoadConfig(cfg), viewStore, obs, log))
	}

	if cfg.Workers[nlo.TaskType].Enabled {
		var store leadjob.LeadGetter
		if leadRepo != nil {
			store = leadRepo
		}
		start(nlo.TaskType, nlo.NewHandler(nlo.LoadConfig(cfg), store, publisher, mailer, obs, log))
	}

	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	srv := health.NewServer(cfg.Server.Address(), log)
	srv.AddCheck("zeebe", zeebe.HealthCheck)
	srv.AddCheck("redis", b.redis.Ping)
	if b.pg != nil {
		srv.AddCheck("postgres", b.pg.Ping)
	}
	if b.es != nil {
		srv.AddCheck("elasticsearch", b.es.Ping)
	}
	srv.Start()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped")
}

// connectBackends dials Redis and whichever lead stores the config needs.
func connectBackends(ctx context.Context, cfg *config.Config, zapLog *zap.Logger) backends {
	var b backends

	if cfg.Database.Postgres.Host != "" {
		err := retryWithBackoff(connectOnce(ctx, func() (*database.PostgresClient, error) {
			return database.NewPostgres(cfg.Database.Postgres)
		}, &b.pg), 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		zapLog.Info("PostgreSQL connected successfully")
	}

	if cfg.Leads.Source == config.LeadSourceElasticsearch {
		err := retryWithBackoff(func() error {
			var err error
			b.es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return b.es.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")
	}

	err := retryWithBackoff(connectOnce(ctx, func() (*database.RedisClient, error) {
		return database.NewRedis(cfg.Database.Redis)
	}, &b.redis), 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	zapLog.Info("Redis connected successfully")

	return b
}
