package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/auriga-audio/auriga/internal/adapters/catalog"
	"github.com/auriga-audio/auriga/internal/adapters/clock"
	"github.com/auriga-audio/auriga/internal/adapters/mqttlink"
	"github.com/auriga-audio/auriga/internal/adapters/notify"
	"github.com/auriga-audio/auriga/internal/audio"
	"github.com/auriga-audio/auriga/internal/audio/beepdriver"
	"github.com/auriga-audio/auriga/internal/aurigad"
	embeddedbroker "github.com/auriga-audio/auriga/internal/modules/embedded_broker"
	zoneplayer "github.com/auriga-audio/auriga/internal/modules/zone_player"
	"github.com/auriga-audio/auriga/internal/ports"
	"github.com/auriga-audio/auriga/pkg/aw"
	"go.uber.org/zap"
)

func main() {
	var (
		configPath  string
		broker      string
		identity    string
		topicBase   string
		logLevel    string
		logFormat   string
		logOutput   string
		logSource   bool
		logUTC      bool
		daemonize   bool
		printConfig bool
		dryRun      bool
		moduleOnly  string
	)

	defaultConfig, err := aurigad.DefaultConfigPath()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	flag.StringVar(&configPath, "config", defaultConfig, "config file path")
	flag.StringVar(&broker, "broker", "", "MQTT broker URL override")
	flag.StringVar(&identity, "identity", "", "daemon identity override")
	flag.StringVar(&topicBase, "topic-base", "", "topic base override")
	flag.StringVar(&logLevel, "log-level", "", "log level override")
	flag.StringVar(&logFormat, "log-format", "", "log format override (text|json)")
	flag.StringVar(&logOutput, "log-output", "", "log output override (stdout|stderr)")
	flag.BoolVar(&logSource, "log-source", false, "include source file in logs")
	flag.BoolVar(&logUTC, "log-utc", false, "use UTC timestamps in logs")
	flag.BoolVar(&daemonize, "daemonize", false, "run as daemon")
	flag.StringVar(&moduleOnly, "module", "", "limit to a single module")
	flag.BoolVar(&printConfig, "print-config", false, "print resolved config and exit")
	flag.BoolVar(&dryRun, "dry-run", false, "validate config and exit")
	flag.Parse()

	cfg, err := aurigad.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	applyOverrides(&cfg, broker, identity, topicBase, logLevel, logFormat, logOutput, logSource, logUTC, daemonize)

	if printConfig {
		printResolvedConfig(cfg)
		return
	}
	if dryRun {
		return
	}

	logCfg := aurigad.LogConfig{
		Level:     cfg.Server.LogLevel,
		Format:    cfg.Server.LogFormat,
		Output:    cfg.Server.LogOutput,
		AddSource: cfg.Server.LogSource,
		UTC:       cfg.Server.LogUTC,
	}
	logger := aurigad.NewLogger(logCfg)
	modLogger, err := aurigad.NewModuleLogger(logCfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer modLogger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	embeddedURL := embeddedBrokerURL(cfg)
	skipEmbedded := false

	if moduleOnly != "embedded_broker" && cfg.Modules.EmbeddedBroker.Enabled && cfg.Server.Broker == embeddedURL {
		if err := startEmbeddedBroker(ctx, cfg, logger, modLogger, cancel); err != nil {
			logger.Error("embedded broker failed", "error", err)
			os.Exit(1)
		}
		skipEmbedded = true
	}

	if cfg.Server.Broker == "" && !(moduleOnly == "embedded_broker" && cfg.Modules.EmbeddedBroker.Enabled) {
		logger.Error("broker is required")
		os.Exit(1)
	}
	logger.Info("aurigad starting",
		"broker", cfg.Server.Broker,
		"identity", cfg.Server.Identity,
		"topic_base", cfg.Server.TopicBase,
		"log_level", cfg.Server.LogLevel,
		"modules", enabledModules(cfg),
	)

	if cfg.Server.Daemonize {
		logger.Warn("daemonize flag is set; running in foreground (not implemented)")
	}

	var client *mqttlink.Client
	if moduleOnly != "embedded_broker" {
		var err error
		client, err = mqttlink.NewClient(mqttlink.Options{
			BrokerURL: cfg.Server.Broker,
			ClientID:  fmt.Sprintf("aurigad-%d", time.Now().UnixNano()),
			Username:  cfg.Server.Auth.User,
			Password:  cfg.Server.Auth.Pass,
			TLSCA:     cfg.Server.TLS.CA,
			TLSCert:   cfg.Server.TLS.Cert,
			TLSKey:    cfg.Server.TLS.Key,
			Timeout:   2 * time.Second,
			Logger:    modLogger.With(zap.String("component", "mqtt")),
		})
		if err != nil {
			logger.Error("mqtt connection failed", "error", err)
			os.Exit(1)
		}
	}

	modules, err := buildModules(cfg, client, modLogger, moduleOnly, skipEmbedded)
	if err != nil {
		logger.Error("failed to build modules", "error", err)
		os.Exit(1)
	}

	if err := aurigad.WatchConfig(ctx, logger, configPath, func(aurigad.Config) {
		logger.Info("config changed on disk; restart to apply", "path", configPath)
	}); err != nil {
		logger.Warn("config watch unavailable", "error", err)
	}

	supervisor := aurigad.Supervisor{Logger: logger}
	if err := supervisor.Run(ctx, modules); err != nil {
		logger.Error("supervisor error", "error", err)
		os.Exit(1)
	}
}

func applyOverrides(cfg *aurigad.Config, broker string, identity string, topicBase string, logLevel string, logFormat string, logOutput string, logSource bool, logUTC bool, daemonize bool) {
	if broker != "" {
		cfg.Server.Broker = broker
	}
	if identity != "" {
		cfg.Server.Identity = identity
	}
	if topicBase != "" {
		cfg.Server.TopicBase = topicBase
	}
	if logLevel != "" {
		cfg.Server.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.Server.LogFormat = logFormat
	}
	if logOutput != "" {
		cfg.Server.LogOutput = logOutput
	}
	if logSource {
		cfg.Server.LogSource = true
	}
	if logUTC {
		cfg.Server.LogUTC = true
	}
	if daemonize {
		cfg.Server.Daemonize = true
	}
	if cfg.Server.TopicBase == "" {
		cfg.Server.TopicBase = aw.BaseTopic
	}
	if cfg.Server.Broker == "" && cfg.Modules.EmbeddedBroker.Enabled {
		cfg.Server.Broker = embeddedBrokerURL(*cfg)
	}
}

func buildModules(cfg aurigad.Config, client *mqttlink.Client, logger *zap.Logger, moduleOnly string, skipEmbedded bool) ([]aurigad.ModuleRunner, error) {
	modules := []aurigad.ModuleRunner{}
	if cfg.Modules.EmbeddedBroker.Enabled && !skipEmbedded {
		if moduleOnly == "" || moduleOnly == "embedded_broker" {
			mod, err := embeddedbroker.NewModule(logger.With(zap.String("module", "embedded_broker")), embeddedbroker.Config{
				Listen:         cfg.Modules.EmbeddedBroker.Listen,
				AllowAnonymous: cfg.Modules.EmbeddedBroker.AllowAnonymous,
				Username:       cfg.Modules.EmbeddedBroker.Username,
				Password:       cfg.Modules.EmbeddedBroker.Password,
				TLSCA:          cfg.Modules.EmbeddedBroker.TLSCA,
				TLSCert:        cfg.Modules.EmbeddedBroker.TLSCert,
				TLSKey:         cfg.Modules.EmbeddedBroker.TLSKey,
			})
			if err != nil {
				return nil, err
			}
			modules = append(modules, aurigad.ModuleRunner{
				Name: "embedded_broker",
				Run:  mod.Run,
			})
		}
	}

	if cfg.Modules.ZonePlayer.Enabled {
		if moduleOnly == "" || moduleOnly == "zone_player" {
			zlog := logger.With(zap.String("module", "zone_player"))
			zp := cfg.Modules.ZonePlayer

			cat, err := catalog.NewClient(catalog.Options{
				BaseURL: cfg.Catalog.BaseURL,
				APIKey:  cfg.Catalog.APIKey,
				Timeout: time.Duration(cfg.Catalog.TimeoutMS) * time.Millisecond,
			})
			if err != nil {
				return nil, err
			}

			bridgeOpts := []audio.Option{}
			if zp.DuckVolume > 0 {
				bridgeOpts = append(bridgeOpts, audio.WithDuckFraction(zp.DuckVolume))
			}
			bridge := audio.New(zlog.With(zap.String("component", "bridge")), bridgeOpts...)
			bridge.Bind(beepdriver.New(zlog.With(zap.String("component", "output"))))
			if !beepdriver.Available {
				zlog.Warn("audio output not supported on this platform; playback commands will be accepted but silent")
			}
			if zp.BackgroundOnBoot {
				if err := bridge.EnableBackground(); err != nil {
					zlog.Warn("background playback unavailable", zap.Error(err))
				}
			}

			var notifier ports.Notifier = notify.Log{Logger: zlog}
			if zp.DesktopNotify {
				// Desktop already falls back to the log on delivery failure
				notifier = notify.Desktop{Logger: zlog}
			}

			mod, err := zoneplayer.NewModule(zlog, client, cat, clock.Clock{}, bridge, notifier, zoneplayer.Config{
				ZoneID:          zp.ZoneID,
				TopicBase:       cfg.Server.TopicBase,
				Name:            zp.Name,
				Volume:          zp.Volume,
				PublishState:    !zp.DisablePublish,
				RefreshInterval: time.Duration(zp.RefreshMS) * time.Millisecond,
			})
			if err != nil {
				return nil, err
			}
			modules = append(modules, aurigad.ModuleRunner{
				Name: "zone_player",
				Run:  mod.Run,
			})
		}
	}

	if moduleOnly != "" && len(modules) == 0 {
		return nil, errors.New("no modules enabled")
	}
	return modules, nil
}

func enabledModules(cfg aurigad.Config) []string {
	out := []string{}
	if cfg.Modules.EmbeddedBroker.Enabled {
		out = append(out, "embedded_broker")
	}
	if cfg.Modules.ZonePlayer.Enabled {
		out = append(out, "zone_player")
	}
	return out
}

func printResolvedConfig(cfg aurigad.Config) {
	fmt.Fprintf(os.Stdout,
		"broker=%s identity=%s topic_base=%s log_level=%s log_format=%s log_output=%s log_source=%t log_utc=%t daemonize=%t\n",
		cfg.Server.Broker,
		cfg.Server.Identity,
		cfg.Server.TopicBase,
		cfg.Server.LogLevel,
		cfg.Server.LogFormat,
		cfg.Server.LogOutput,
		cfg.Server.LogSource,
		cfg.Server.LogUTC,
		cfg.Server.Daemonize,
	)
}

func embeddedBrokerURL(cfg aurigad.Config) string {
	listen := cfg.Modules.EmbeddedBroker.Listen
	if listen == "" {
		listen = "127.0.0.1:1883"
	}
	tlsEnabled := cfg.Modules.EmbeddedBroker.TLSCert != "" || cfg.Modules.EmbeddedBroker.TLSKey != "" || cfg.Modules.EmbeddedBroker.TLSCA != ""
	return embeddedbroker.BrokerURL(listen, tlsEnabled)
}

func startEmbeddedBroker(ctx context.Context, cfg aurigad.Config, logger *slog.Logger, modLogger *zap.Logger, cancel context.CancelFunc) error {
	mod, err := embeddedbroker.NewModule(modLogger.With(zap.String("module", "embedded_broker")), embeddedbroker.Config{
		Listen:         cfg.Modules.EmbeddedBroker.Listen,
		AllowAnonymous: cfg.Modules.EmbeddedBroker.AllowAnonymous,
		Username:       cfg.Modules.EmbeddedBroker.Username,
		Password:       cfg.Modules.EmbeddedBroker.Password,
		TLSCA:          cfg.Modules.EmbeddedBroker.TLSCA,
		TLSCert:        cfg.Modules.EmbeddedBroker.TLSCert,
		TLSKey:         cfg.Modules.EmbeddedBroker.TLSKey,
	})
	if err != nil {
		return err
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- mod.Run(ctx)
	}()
	go func() {
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("embedded broker exited", "error", err)
			cancel()
		}
	}()

	listen := cfg.Modules.EmbeddedBroker.Listen
	if listen == "" {
		listen = "127.0.0.1:1883"
	}
	return waitForListen(listen, 3*time.Second)
}

func waitForListen(listen string, timeout time.Duration) error {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return err
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	addr := net.JoinHostPort(host, port)
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 200*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("embedded broker not ready at %s", addr)
}
