package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"sigcopy/internal/commands"
	sccfg "sigcopy/internal/config"
	"sigcopy/internal/executor"
	"sigcopy/internal/feed"
	"sigcopy/internal/gateway/notifier"
	"sigcopy/internal/gateway/platform"
	"sigcopy/internal/ledger"
	"sigcopy/internal/logger"
	"sigcopy/internal/market"
	"sigcopy/internal/pipeline"
	"sigcopy/internal/pkg/circuit"
	"sigcopy/internal/report"
	"sigcopy/internal/signal"
	"sigcopy/internal/store/sqlite"
	"sigcopy/internal/strategy"
	statushttp "sigcopy/internal/transport/http/status"
)

// AppBuilder assembles the copier from config. The constructor functions are
// swappable so tests can substitute fakes without touching the build order.
type AppBuilder struct {
	cfg *sccfg.Config

	platformFn func(sccfg.PlatformConfig) (platform.Platform, error)
	ledgerFn   func(sccfg.StoreConfig) (ledger.Ledger, error)
	notifierFn func(sccfg.NotifyConfig) notifier.TextNotifier
	sourceFn   func(sccfg.FeedConfig) (feed.Source, error)
}

type AppBuilderOption func(*AppBuilder)

func WithPlatform(p platform.Platform) AppBuilderOption {
	return func(b *AppBuilder) {
		b.platformFn = func(sccfg.PlatformConfig) (platform.Platform, error) { return p, nil }
	}
}

func WithLedger(led ledger.Ledger) AppBuilderOption {
	return func(b *AppBuilder) {
		b.ledgerFn = func(sccfg.StoreConfig) (ledger.Ledger, error) { return led, nil }
	}
}

func WithSource(src feed.Source) AppBuilderOption {
	return func(b *AppBuilder) {
		b.sourceFn = func(sccfg.FeedConfig) (feed.Source, error) { return src, nil }
	}
}

func NewAppBuilder(cfg *sccfg.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:        cfg,
		platformFn: buildPlatform,
		ledgerFn:   buildLedger,
		notifierFn: buildNotifier,
		sourceFn:   buildSource,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := b.cfg
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)

	led, err := b.ledgerFn(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("building ledger: %w", err)
	}
	plat, err := b.platformFn(cfg.Platform)
	if err != nil {
		return nil, fmt.Errorf("building platform gateway: %w", err)
	}
	source, err := b.sourceFn(cfg.Feed)
	if err != nil {
		return nil, fmt.Errorf("building feed source: %w", err)
	}

	registry, err := buildRegistry(cfg.Trading)
	if err != nil {
		return nil, fmt.Errorf("building strategy registry: %w", err)
	}

	reporter := report.NewReporter(b.notifierFn(cfg.Notify))
	timeout := time.Duration(cfg.Platform.TimeoutSeconds) * time.Second

	p := pipeline.New(pipeline.Params{
		Extractor:    signal.NewExtractor(cfg.Trading.RangeCeiling),
		Registry:     registry,
		Ledger:       led,
		Platform:     plat,
		Observer:     market.NewObserver(0),
		Reporter:     reporter,
		Executor:     executor.NewManager(led, plat, timeout),
		Commands:     commands.NewManager(plat, reporter, cfg.Trading.BEPartialVolume, cfg.Trading.PartialFraction),
		SymbolSuffix: cfg.Trading.SymbolSuffix,
	})

	httpSrv, err := statushttp.NewServer(statushttp.ServerConfig{
		Addr:     cfg.App.HTTPAddr,
		Ledger:   led,
		Reporter: reporter,
	})
	if err != nil {
		return nil, fmt.Errorf("building status http server: %w", err)
	}

	return &App{
		cfg:      cfg,
		service:  pipeline.NewService(source, p, 0),
		httpSrv:  httpSrv,
		reporter: reporter,
		ledger:   led,
	}, nil
}

func buildPlatform(cfg sccfg.PlatformConfig) (platform.Platform, error) {
	if cfg.DryRun {
		logger.Infof("dry-run mode: orders stay local")
		return platform.NewSimulatedPlatform(), nil
	}
	breaker := circuit.NewCircuitBreaker("mt5-bridge",
		cfg.BreakerThreshold,
		time.Duration(cfg.BreakerCooldown)*time.Second)
	client := &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}
	return platform.NewBridgeClient(cfg.BridgeURL,
		platform.WithBridgeHTTPClient(client),
		platform.WithBridgeBreaker(breaker))
}

func buildLedger(cfg sccfg.StoreConfig) (ledger.Ledger, error) {
	if cfg.Path == "" {
		logger.Warnf("no store path configured, ledger is in-memory and dedup will not survive restarts")
		return ledger.NewMemoryLedger(), nil
	}
	st, err := sqlite.NewSqliteStore(cfg.Path)
	if err != nil {
		return nil, err
	}
	return ledger.NewPersistentLedger(st), nil
}

func buildNotifier(cfg sccfg.NotifyConfig) notifier.TextNotifier {
	if !cfg.Telegram.Enabled {
		return notifier.Noop{}
	}
	return notifier.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
}

func buildSource(cfg sccfg.FeedConfig) (feed.Source, error) {
	decoder, err := feed.NewEnvelopeDecoder(cfg.StrictEnvelope)
	if err != nil {
		return nil, err
	}
	return feed.NewWebSocketSource(cfg.URL, cfg.Token, cfg.AllowedChats, decoder), nil
}

func buildRegistry(cfg sccfg.TradingConfig) (*strategy.Registry, error) {
	kind, ok := strategy.ParseKind(cfg.Strategy)
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q", cfg.Strategy)
	}
	if cfg.ProfilesPath == "" {
		return strategy.NewStaticRegistry(kind, cfg.DefaultVolume), nil
	}
	return strategy.NewRegistry(cfg.ProfilesPath, kind, cfg.DefaultVolume)
}
