package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/user"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/auriga-audio/auriga/internal/adapters/catalog"
	"github.com/auriga-audio/auriga/internal/adapters/clock"
	"github.com/auriga-audio/auriga/internal/adapters/config"
	"github.com/auriga-audio/auriga/internal/adapters/idgen"
	"github.com/auriga-audio/auriga/internal/adapters/output"
	"github.com/auriga-audio/auriga/internal/adapters/push"
	"github.com/auriga-audio/auriga/internal/audio"
	"github.com/auriga-audio/auriga/internal/core"
	"github.com/auriga-audio/auriga/internal/player"
	"github.com/auriga-audio/auriga/internal/ports"
	"github.com/auriga-audio/auriga/internal/zone"
	"github.com/auriga-audio/auriga/pkg/aw"
)

type app struct {
	service core.Service
	orch    *zone.Orchestrator
	printer output.Printer
	quiet   bool
	json    bool
	timeout time.Duration
}

func main() {
	root := &cobra.Command{
		Use:   "auriga",
		Short: "Auriga in-store audio CLI",
	}

	var (
		broker     string
		topicBase  string
		identity   string
		timeout    time.Duration
		quiet      bool
		jsonOut    bool
		tlsCA      string
		tlsCert    string
		tlsKey     string
		userOpt    string
		passOpt    string
		catalogURL string
		apiKey     string
	)

	root.PersistentFlags().StringVarP(&broker, "broker", "b", "", "MQTT broker URL")
	root.PersistentFlags().StringVar(&topicBase, "topic-base", aw.BaseTopic, "MQTT topic base")
	root.PersistentFlags().StringVarP(&identity, "identity", "i", "", "controller identity")
	root.PersistentFlags().DurationVarP(&timeout, "timeout", "t", 2*time.Second, "command timeout")
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
	root.PersistentFlags().BoolVarP(&jsonOut, "json", "j", false, "output json")
	root.PersistentFlags().StringVar(&tlsCA, "tls-ca", "", "TLS CA path")
	root.PersistentFlags().StringVar(&tlsCert, "tls-cert", "", "TLS cert path")
	root.PersistentFlags().StringVar(&tlsKey, "tls-key", "", "TLS key path")
	root.PersistentFlags().StringVar(&userOpt, "user", "", "MQTT username")
	root.PersistentFlags().StringVar(&passOpt, "pass", "", "MQTT password")
	root.PersistentFlags().StringVar(&catalogURL, "catalog-url", "", "management backend base URL")
	root.PersistentFlags().StringVar(&apiKey, "api-key", "", "management backend API key")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		identity = defaultIdentity(identity, cfg.Identity)
		if broker == "" {
			broker = cfg.Broker
		}
		if topicBase == aw.BaseTopic && cfg.TopicBase != "" {
			topicBase = cfg.TopicBase
		}
		if catalogURL == "" {
			catalogURL = cfg.Catalog.BaseURL
		}
		if apiKey == "" {
			apiKey = cfg.Catalog.APIKey
		}
		if broker == "" {
			return errors.New("broker is required (set --broker or config)")
		}
		if cfg.Aliases == nil {
			cfg.Aliases = map[string]string{}
		}

		clientID := fmt.Sprintf("auriga-%d", time.Now().UnixNano())
		pushClient, err := push.NewClient(push.Options{
			BrokerURL: broker,
			ClientID:  clientID,
			Username:  userOpt,
			Password:  passOpt,
			TLSCA:     tlsCA,
			TLSCert:   tlsCert,
			TLSKey:    tlsKey,
			TopicBase: topicBase,
			Timeout:   timeout,
		})
		if err != nil {
			return err
		}

		var cat ports.Catalog = emptyCatalog{}
		if catalogURL != "" {
			client, err := catalog.NewClient(catalog.Options{
				BaseURL: catalogURL,
				APIKey:  apiKey,
			})
			if err != nil {
				return err
			}
			cat = client
		}

		coreCfg := core.Config{
			Broker:      broker,
			Identity:    identity,
			TopicBase:   topicBase,
			DefaultZone: cfg.DefaultZone,
			Aliases:     cfg.Aliases,
		}
		resolver := core.Resolver{Presence: pushClient, Config: coreCfg}

		orch := zone.New(zone.Options{
			Log:      zap.NewNop(),
			Broker:   pushClient,
			Catalog:  cat,
			Clock:    clock.Clock{},
			IDGen:    idgen.Generator{},
			Notifier: stderrNotifier{quiet: quiet},
			Identity: identity,
			Queue:    player.NewQueue(),
			Bridge:   audio.New(zap.NewNop()),
		})

		service := core.Service{
			Orch:     orch,
			Broker:   pushClient,
			Catalog:  cat,
			Resolver: resolver,
			Config:   coreCfg,
		}

		var printer output.Printer
		if jsonOut {
			printer = output.JSONPrinter{}
		} else {
			printer = output.HumanPrinter{}
		}

		cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, &app{
			service: service,
			orch:    orch,
			printer: printer,
			quiet:   quiet,
			json:    jsonOut,
			timeout: timeout,
		}))
		return nil
	}

	root.AddCommand(zonesCommand())
	root.AddCommand(statusCommand())
	root.AddCommand(watchCommand())
	root.AddCommand(startCommand())
	root.AddCommand(stopCommand())
	root.AddCommand(toggleCommand())
	root.AddCommand(nextCommand())
	root.AddCommand(prevCommand())
	root.AddCommand(volumeCommand())
	root.AddCommand(shuffleCommand())
	root.AddCommand(repeatCommand())
	root.AddCommand(playlistCommand())
	root.AddCommand(announceCommand())
	root.AddCommand(scheduleCommand())

	if err := root.Execute(); err != nil {
		os.Exit(core.ExitCode(err))
	}
}

type appKey struct{}

func fromContext(cmd *cobra.Command) *app {
	val := cmd.Context().Value(appKey{})
	if val == nil {
		return nil
	}
	return val.(*app)
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}

func defaultIdentity(flagVal string, cfgVal string) string {
	if flagVal != "" {
		return flagVal
	}
	if cfgVal != "" {
		return cfgVal
	}
	usr, _ := user.Current()
	host, _ := os.Hostname()
	if usr != nil && host != "" {
		return fmt.Sprintf("%s@%s", usr.Username, host)
	}
	if host != "" {
		return host
	}
	return "auriga-unknown"
}

// stderrNotifier surfaces orchestrator warnings on stderr so command
// failures against individual zones are visible without structured
// logging.
type stderrNotifier struct {
	quiet bool
}

func (n stderrNotifier) Notify(level string, message string) {
	if n.quiet && level == ports.LevelInfo {
		return
	}
	fmt.Fprintf(os.Stderr, "%s: %s\n", level, message)
}

// emptyCatalog stands in when no management backend is configured.
// Playlist selection then falls back to whatever the zones already
// carry.
type emptyCatalog struct{}

func (emptyCatalog) ListPlaylists(context.Context) ([]aw.Playlist, error) { return nil, nil }

func (emptyCatalog) ListAnnouncements(context.Context) ([]aw.Announcement, error) { return nil, nil }

func (emptyCatalog) ListZones(context.Context) ([]aw.Zone, error) { return nil, nil }

func (emptyCatalog) ListSchedules(context.Context) ([]aw.ScheduledAnnouncement, error) {
	return nil, nil
}
