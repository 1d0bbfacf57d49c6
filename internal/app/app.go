package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jboss-openshift/openshift-kieserver/internal/config"
	"github.com/jboss-openshift/openshift-kieserver/internal/deployment"
	"github.com/jboss-openshift/openshift-kieserver/internal/httpserver"
	"github.com/jboss-openshift/openshift-kieserver/internal/httpserver/deps"
	"github.com/jboss-openshift/openshift-kieserver/internal/httpserver/handlers"
	"github.com/jboss-openshift/openshift-kieserver/internal/logger"
	"github.com/jboss-openshift/openshift-kieserver/internal/lookup"
	"github.com/jboss-openshift/openshift-kieserver/internal/messaging"
	"github.com/jboss-openshift/openshift-kieserver/internal/metrics"
	"github.com/jboss-openshift/openshift-kieserver/internal/pathtemplate"
	"github.com/jboss-openshift/openshift-kieserver/internal/redirect"
	"github.com/jboss-openshift/openshift-kieserver/internal/redis"
	"github.com/jboss-openshift/openshift-kieserver/internal/scheduler"
	"github.com/jboss-openshift/openshift-kieserver/internal/servicemethod"
	redisstore "github.com/jboss-openshift/openshift-kieserver/internal/store/redis"
	sqlstore "github.com/jboss-openshift/openshift-kieserver/internal/store/sql"
	"github.com/jboss-openshift/openshift-kieserver/internal/utils"
	"github.com/jboss-openshift/openshift-kieserver/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	sqlStore    *sqlstore.Store
	syncer      *scheduler.LookupSyncer
	relay       *messaging.Relay
}

// New loads the configuration and builds every component. Nothing runs until Run.
func New() (*App, error) {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	registry, err := newRegistry(cfg, loggerClient)
	if err != nil {
		return nil, err
	}
	loggerClient.Info("deployment registry ready",
		logger.String("state_file", registry.StateFile()),
		logger.Strings("aliases", registry.Aliases()),
		logger.Bool("redirect_enabled", registry.IsRedirectEnabled()))

	a := &App{cfg: cfg, logger: loggerClient}

	// Connect backing stores early - fail fast if unavailable
	ctx := context.Background()
	if cfg.LookupBackend == config.BackendSQL || cfg.LookupSyncEnabled() {
		a.sqlStore, err = sqlstore.Open(ctx, cfg.DatabaseURL, loggerClient)
		if err != nil {
			return nil, fmt.Errorf("failed to open lookup database: %w", err)
		}
	}
	if cfg.RedisRequired() {
		a.redisClient, err = redis.New(ctx, redis.OptionsFromConfig(cfg), loggerClient)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		loggerClient.Info("Redis initialized successfully")
	}

	var backend lookup.Backend
	switch cfg.LookupBackend {
	case config.BackendSQL:
		backend = a.sqlStore
	case config.BackendRedis:
		store := redisstore.NewStore(a.redisClient)
		backend = store
		if cfg.LookupSyncEnabled() {
			a.syncer = scheduler.NewLookupSyncer(a.sqlStore, store, loggerClient,
				cfg.LookupSyncInterval, cfg.LookupTTL)
		}
	}
	lookupClient := lookup.NewClient(backend, cfg.ConversationSupported, loggerClient)

	guard, err := redirect.ParseGuard(cfg.ConversationGuard)
	if err != nil {
		a.close()
		return nil, err
	}
	resolver := redirect.New(registry, lookupClient, guard, loggerClient)
	methods := servicemethod.Default(loggerClient)
	m := metrics.New()

	if cfg.RelayEnabled() {
		interceptor := messaging.NewInterceptor(resolver, methods, messaging.NewMarshallers(), m, loggerClient)
		a.relay, err = messaging.NewRelay(a.redisClient, interceptor, messaging.RelayOptions{
			In:           cfg.StreamIn,
			Out:          cfg.StreamOut,
			DeadLetter:   cfg.StreamDeadLetter,
			Group:        cfg.StreamGroup,
			Consumer:     cfg.StreamConsumer,
			Block:        cfg.StreamBlock,
			ClaimIdle:    cfg.StreamClaimIdle,
			RecoverEvery: cfg.StreamRecover,
		}, loggerClient)
		if err != nil {
			a.close()
			return nil, err
		}
	}

	upstream, err := handlers.NewUpstream(cfg.UpstreamURL, loggerClient)
	if err != nil {
		a.close()
		return nil, err
	}

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:             loggerClient,
		StartTime:          time.Now(),
		Version:            version.Version,
		Commit:             version.Commit,
		BuildDate:          version.BuildDate,
		GoVersion:          version.GoVersion,
		TimeNow:            time.Now,
		AllowedHosts:       cfg.AllowedHosts,
		AllowedCIDRS:       cfg.AllowedCIDRS,
		TrustProxy:         cfg.TrustProxy,
		RestBase:           cfg.RestBase,
		ConversationHeader: cfg.ConversationHeader,
		Registry:           registry,
		Templates:          pathtemplate.NewRegistry(pathtemplate.DefaultRoutes()),
		Methods:            methods,
		Resolver:           resolver,
		Lookup:             lookupClient,
		LookupBackend:      cfg.LookupBackend,
		RedisClient:        a.redisClient,
		RelayEnabled:       a.relay != nil,
		Metrics:            m,
		Upstream:           upstream,
	}

	a.server = httpserver.New(cfg, loggerClient, d)
	return a, nil
}

// newRegistry merges the inline mapping spec with the optional mapping file.
func newRegistry(cfg *config.Config, log logger.Logger) (*deployment.Registry, error) {
	mappings := deployment.ParseMappings(cfg.ContainerDeployment)
	if cfg.ContainerDeploymentFile != "" {
		more, err := deployment.LoadMappingFile(cfg.ContainerDeploymentFile)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, more...)
	}
	return deployment.New(deployment.Options{
		Repo:            cfg.ServerRepo,
		ServerID:        cfg.ServerID,
		StateFile:       cfg.StateFile,
		Mappings:        mappings,
		RedirectEnabled: cfg.RedirectEnabled,
	}, log)
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting KIE redirect v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("KIE redirect %s", version.String())

	defer a.close()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.syncer != nil {
		if err := a.syncer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start lookup syncer: %w", err)
		}
		a.logger.Info("lookup syncer started",
			logger.Duration("interval", a.cfg.LookupSyncInterval))
	}

	if a.relay != nil {
		if err := a.relay.Start(ctx); err != nil {
			return fmt.Errorf("failed to start message relay: %w", err)
		}
		a.logger.Info("message relay started",
			logger.String("in", a.cfg.StreamIn),
			logger.String("out", a.cfg.StreamOut))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	if a.relay != nil {
		a.relay.Stop()
	}
	if a.syncer != nil {
		a.syncer.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.logger.Info("✅ KIE redirect stopped cleanly")
	return nil
}

// close releases the store connections. Safe to call more than once.
func (a *App) close() {
	for _, c := range a.closers() {
		utils.MustClose(c)
	}
	a.redisClient, a.sqlStore = nil, nil
}

func (a *App) closers() []io.Closer {
	var out []io.Closer
	if a.redisClient != nil {
		out = append(out, a.redisClient)
	}
	if a.sqlStore != nil {
		out = append(out, a.sqlStore)
	}
	return out
}
