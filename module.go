package qualityhooks

import (
	"context"
	"fmt"
	"net/http"

	persistence "github.com/goliatone/go-persistence-bun"
	gologgeradapter "github.com/goliatone/go-quality-hooks/adapters/gologger"
	qhprometheus "github.com/goliatone/go-quality-hooks/adapters/prometheus"
	"github.com/goliatone/go-quality-hooks/core"
	"github.com/goliatone/go-quality-hooks/issuechange"
	"github.com/goliatone/go-quality-hooks/posttask"
	sqlstore "github.com/goliatone/go-quality-hooks/store/sql"
	"github.com/goliatone/go-quality-hooks/transport"
	"github.com/goliatone/go-quality-hooks/webhooks"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/uptrace/bun"
)

const metricsNamespace = "quality_hooks"

type Option func(*moduleOptions)

type moduleOptions struct {
	logger            core.Logger
	loggerProvider    core.LoggerProvider
	configProvider    core.ConfigProvider
	optionsResolver   core.OptionsResolver
	persistenceClient *persistence.Client
	db                *bun.DB
	repositoryFactory *sqlstore.RepositoryFactory
	httpClient        transport.HTTPDoer
	metrics           core.MetricsRecorder
	registerer        prometheus.Registerer
	cacheService      repositorycache.CacheService
	settings          core.SettingsProvider
	tasks             []posttask.Task
	extensions        *ExtensionHooks
}

func WithLogger(logger core.Logger) Option {
	return func(o *moduleOptions) { o.logger = logger }
}

func WithLoggerProvider(provider core.LoggerProvider) Option {
	return func(o *moduleOptions) { o.loggerProvider = provider }
}

func WithConfigProvider(provider core.ConfigProvider) Option {
	return func(o *moduleOptions) { o.configProvider = provider }
}

func WithOptionsResolver(resolver core.OptionsResolver) Option {
	return func(o *moduleOptions) { o.optionsResolver = resolver }
}

func WithPersistenceClient(client *persistence.Client) Option {
	return func(o *moduleOptions) { o.persistenceClient = client }
}

func WithDB(db *bun.DB) Option {
	return func(o *moduleOptions) { o.db = db }
}

func WithRepositoryFactory(factory *sqlstore.RepositoryFactory) Option {
	return func(o *moduleOptions) { o.repositoryFactory = factory }
}

// WithHTTPClient replaces the client used to call webhook endpoints.
func WithHTTPClient(client transport.HTTPDoer) Option {
	return func(o *moduleOptions) { o.httpClient = client }
}

// WithMetrics takes precedence over WithPrometheusRegisterer.
func WithMetrics(recorder core.MetricsRecorder) Option {
	return func(o *moduleOptions) { o.metrics = recorder }
}

func WithPrometheusRegisterer(registerer prometheus.Registerer) Option {
	return func(o *moduleOptions) { o.registerer = registerer }
}

func WithCacheService(service repositorycache.CacheService) Option {
	return func(o *moduleOptions) { o.cacheService = service }
}

// WithSettingsProvider replaces the properties table as settings source.
func WithSettingsProvider(provider core.SettingsProvider) Option {
	return func(o *moduleOptions) { o.settings = provider }
}

// WithPostAnalysisTasks appends tasks run after the webhook task.
func WithPostAnalysisTasks(tasks ...posttask.Task) Option {
	return func(o *moduleOptions) { o.tasks = append(o.tasks, tasks...) }
}

func WithExtensionHooks(hooks *ExtensionHooks) Option {
	return func(o *moduleOptions) { o.extensions = hooks }
}

// Module is the wired webhook pipeline: stores, dispatcher, both triggers
// and the command/query handlers over them.
type Module struct {
	config     Config
	loggers    gologgeradapter.Loggers
	stores     *sqlstore.RepositoryFactory
	settings   core.SettingsProvider
	activities core.ActivityReader
	metrics    core.MetricsRecorder
	dispatcher *webhooks.Dispatcher
	payloads   *webhooks.PayloadBuilder
	executor   *posttask.Executor
	notifier   *issuechange.Notifier
	commands   Commands
	queries    Queries
	bundles    map[string]any
}

// NewModule resolves configuration over runtime and wires every component.
// A database, through WithDB, WithPersistenceClient or
// WithRepositoryFactory, is required.
func NewModule(ctx context.Context, runtime Config, opts ...Option) (*Module, error) {
	options := moduleOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&options)
	}

	cfg, err := core.ResolveConfig(ctx, runtime, options.configProvider, options.optionsResolver)
	if err != nil {
		return nil, err
	}
	loggers := gologgeradapter.ResolveLoggers(options.loggerProvider, options.logger)

	stores, err := resolveStores(options)
	if err != nil {
		return nil, err
	}

	settingsProvider := options.settings
	if settingsProvider == nil {
		settingsProvider = stores.PropertyStore()
	}

	activities, err := resolveActivities(cfg, stores, options.cacheService)
	if err != nil {
		return nil, err
	}

	metrics, err := resolveMetrics(options)
	if err != nil {
		return nil, err
	}

	httpClient := options.httpClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	caller := webhooks.NewHTTPCaller(transport.NewRESTAdapter(httpClient), cfg.Webhooks.CallTimeout)
	dispatcher := webhooks.NewDispatcher(cfg, caller, stores.DeliveryStore(),
		webhooks.WithDispatcherLogger(loggers.Webhooks),
		webhooks.WithDispatcherMetrics(metrics),
	)
	payloads := webhooks.NewPayloadBuilder(cfg)

	tasks := []posttask.Task{
		posttask.NewWebhookTask(settingsProvider, activities, dispatcher, payloads, loggers.PostTask),
	}
	tasks = append(tasks, options.extensions.PostAnalysisTasks()...)
	tasks = append(tasks, options.tasks...)
	executor := posttask.NewExecutor(tasks, posttask.WithLogger(loggers.PostTask))

	notifier := issuechange.NewNotifier(cfg,
		issuechange.Lookups{
			Components: stores.ComponentStore(),
			Branches:   stores.BranchStore(),
			Snapshots:  stores.SnapshotStore(),
			Activities: activities,
		},
		settingsProvider,
		dispatcher,
		payloads,
		issuechange.WithLogger(loggers.IssueChange),
	)

	module := &Module{
		config:     cfg,
		loggers:    loggers,
		stores:     stores,
		settings:   settingsProvider,
		activities: activities,
		metrics:    metrics,
		dispatcher: dispatcher,
		payloads:   payloads,
		executor:   executor,
		notifier:   notifier,
	}
	module.commands, module.queries = buildHandlers(module)

	bundles, err := options.extensions.BuildBundles(module)
	if err != nil {
		return nil, err
	}
	module.bundles = bundles

	core.LogFields(ctx, loggers.Module, core.LogLevelDebug, "Quality hooks module ready", map[string]any{
		"service":          cfg.ServiceName,
		"webhooks_enabled": cfg.Webhooks.Enabled,
		"post_tasks":       len(tasks),
	})
	return module, nil
}

func resolveStores(options moduleOptions) (*sqlstore.RepositoryFactory, error) {
	switch {
	case options.repositoryFactory != nil:
		var source any
		if options.db != nil {
			source = options.db
		} else if options.persistenceClient != nil {
			source = options.persistenceClient
		}
		if err := options.repositoryFactory.BuildStores(source); err != nil {
			return nil, err
		}
		return options.repositoryFactory, nil
	case options.db != nil:
		return sqlstore.NewRepositoryFactoryFromDB(options.db)
	case options.persistenceClient != nil:
		return sqlstore.NewRepositoryFactoryFromPersistence(options.persistenceClient)
	default:
		return nil, core.NotConfiguredError("qualityhooks: a database is required")
	}
}

func resolveActivities(
	cfg Config,
	stores *sqlstore.RepositoryFactory,
	cacheService repositorycache.CacheService,
) (core.ActivityReader, error) {
	base := stores.ActivityStore()
	if cacheService == nil {
		if cfg.Webhooks.ActivityCacheTTL <= 0 {
			return base, nil
		}
		cacheConfig := repositorycache.DefaultConfig()
		cacheConfig.TTL = cfg.Webhooks.ActivityCacheTTL
		service, err := repositorycache.NewCacheService(cacheConfig)
		if err != nil {
			return nil, fmt.Errorf("qualityhooks: activity cache: %w", err)
		}
		cacheService = service
	}
	return sqlstore.NewCachedActivityReader(base, cacheService)
}

func resolveMetrics(options moduleOptions) (core.MetricsRecorder, error) {
	if options.metrics != nil {
		return options.metrics, nil
	}
	if options.registerer == nil {
		return core.NopMetricsRecorder{}, nil
	}
	recorder, err := qhprometheus.NewRecorder(options.registerer, metricsNamespace)
	if err != nil {
		return nil, err
	}
	return recorder, nil
}

func (m *Module) Config() Config {
	if m == nil {
		return Config{}
	}
	return m.config
}

func (m *Module) Logger() core.Logger {
	if m == nil {
		return nil
	}
	return m.loggers.Module
}

func (m *Module) Stores() *sqlstore.RepositoryFactory {
	if m == nil {
		return nil
	}
	return m.stores
}

func (m *Module) Settings() core.SettingsProvider {
	if m == nil {
		return nil
	}
	return m.settings
}

func (m *Module) Dispatcher() *webhooks.Dispatcher {
	if m == nil {
		return nil
	}
	return m.dispatcher
}

func (m *Module) PayloadBuilder() *webhooks.PayloadBuilder {
	if m == nil {
		return nil
	}
	return m.payloads
}

func (m *Module) PostAnalysis() *posttask.Executor {
	if m == nil {
		return nil
	}
	return m.executor
}

func (m *Module) IssueChanges() *issuechange.Notifier {
	if m == nil {
		return nil
	}
	return m.notifier
}

// Bundle returns the command/query bundle an extension registered by name.
func (m *Module) Bundle(name string) (any, bool) {
	if m == nil {
		return nil, false
	}
	bundle, ok := m.bundles[name]
	return bundle, ok
}
