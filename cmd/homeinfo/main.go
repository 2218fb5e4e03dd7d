package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/homeinfo"
	"github.com/bft-labs/homeinfo/internal/adapters/fs"
	"github.com/bft-labs/homeinfo/internal/cliconfig"
	"github.com/bft-labs/homeinfo/internal/domain"
	lib "github.com/bft-labs/homeinfo/pkg/homeinfo"
	pkglog "github.com/bft-labs/homeinfo/pkg/log"
)

const longHelp = `Keep the home info cache fresh and in sync across processes.

Without a subcommand, homeinfo shows the cached home info immediately,
refreshes it once from the service and then mirrors every change another
process makes to the cache until interrupted.

Configuration is read from $HOME/.homeinfo/config.toml, then HOMEINFO_*
environment variables, then flags.`

var exampleUsage = strings.TrimSpace(`
  homeinfo --service-url https://api.example.com --auth-key <api-key>
  homeinfo --once --json
  homeinfo show
  echo '{"name":"home"}' | homeinfo put --file -
  homeinfo clear
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	log := cliconfig.Logger()

	root := &cobra.Command{
		Use:           "homeinfo",
		Short:         "Keep the home info cache fresh and in sync across processes",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd, &cfg, cfgPath); err != nil {
				return err
			}
			log = cliconfig.NewLogger(cfg, os.Stderr)
			log.Info().Interface("config", cfg.Masked()).Msg("configuration")
			return watch(cfg, log)
		},
	}

	// Flags shared by every command
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.homeinfo/config.toml)")
	root.PersistentFlags().StringVar(&cfg.CacheDir, "cache-dir", cfg.CacheDir, "directory holding the cached snapshot")
	root.PersistentFlags().StringVar(&cfg.CacheKey, "cache-key", cfg.CacheKey, "name of the cached entry")
	root.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&cfg.JSON, "json", cfg.JSON, "log as JSON lines instead of console output")

	// Fetch flags
	root.Flags().StringVar(&cfg.ServiceURL, "service-url", cfg.ServiceURL, "base service URL")
	root.Flags().StringVar(&cfg.Path, "path", cfg.Path, "endpoint path appended to the service URL")
	root.Flags().StringVar(&cfg.AuthKey, "auth-key", cfg.AuthKey, "API key for authentication")
	root.Flags().DurationVar(&cfg.HTTPTimeout, "timeout", cfg.HTTPTimeout, "HTTP timeout")
	root.Flags().DurationVar(&cfg.DebounceDelay, "debounce", cfg.DebounceDelay, "delay used to coalesce cache change events")
	root.Flags().BoolVar(&cfg.Once, "once", cfg.Once, "exit after the first fetch settles")

	root.AddCommand(
		showCmd(&cfg, &cfgPath),
		putCmd(&cfg, &cfgPath),
		clearCmd(&cfg, &cfgPath),
	)

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("homeinfo")
		os.Exit(1)
	}
}

// loadConfig layers the config file and HOMEINFO_* variables under the
// flags explicitly set on cmd, then validates the result.
func loadConfig(cmd *cobra.Command, cfg *cliconfig.Config, cfgPath string) error {
	cfgFile := cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	// Build set of changed flags
	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(cfg, fc, changed); err != nil {
			return err
		}
	} else if cfgPath != "" {
		return fmt.Errorf("config file %s not found", cfgPath)
	}

	if err := cliconfig.ApplyEnvConfig(cfg, changed); err != nil {
		return err
	}

	return cfg.Validate()
}

// watch mounts a client and logs every state change. In once mode it exits
// after the fetch settles with an error if the fetch failed.
func watch(cfg cliconfig.Config, log zerolog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
			log.Info().Msg("received signal, stopping...")
			cancel()
		case <-ctx.Done():
		}
	}()

	opts := []homeinfo.Option{
		lib.WithLogger(pkglog.NewZerologAdapterWithLogger(log)),
		lib.WithEventHandler(&stateLogger{log: log}),
	}

	if !cfg.Once {
		if err := homeinfo.Run(ctx, cfg.Library(), opts...); err != nil {
			return fmt.Errorf("run homeinfo: %w", err)
		}
		return nil
	}

	st, err := homeinfo.RunOnce(ctx, cfg.Library(), opts...)
	if err != nil {
		return fmt.Errorf("run homeinfo: %w", err)
	}
	if st.Err != nil {
		return st.Err
	}
	return writeJSON(os.Stdout, st.Resource)
}

// stateLogger logs client state changes.
type stateLogger struct {
	lib.BaseEventHandler
	log zerolog.Logger
}

func (s *stateLogger) OnStateChange(ev lib.StateChangeEvent) {
	event := s.log.Info()
	if ev.Current.Err != nil {
		event = s.log.Warn().Err(ev.Current.Err)
	}
	event.
		Str("reason", ev.Reason).
		Bool("loading", ev.Current.Loading).
		Interface("resource", ev.Current.Resource).
		Msg("home info state changed")
}

func showCmd(cfg *cliconfig.Config, cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the cached home info as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd, cfg, *cfgPath); err != nil {
				return err
			}
			storage := fs.NewFileStorage(cfg.CacheDir, nil)

			raw, ok, err := storage.Get(cmd.Context(), cfg.CacheKey)
			if err != nil {
				return err
			}
			var res domain.Resource
			if ok {
				res = domain.ParseSnapshot(raw)
			}
			if res == nil {
				return fmt.Errorf("no cached home info in %s", storage.Path(cfg.CacheKey))
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
}

func putCmd(cfg *cliconfig.Config, cfgPath *string) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "put",
		Short: "Write a home info value to the cache",
		Long: `Write a home info value (a JSON object or array) to the cache.

Running homeinfo processes sharing the cache directory pick the new value up
immediately.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd, cfg, *cfgPath); err != nil {
				return err
			}

			var r io.Reader = cmd.InOrStdin()
			if file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			raw, err := io.ReadAll(r)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			res := domain.DecodeResource(raw)
			if res == nil {
				return fmt.Errorf("input must be a non-empty JSON object or array")
			}

			value, err := domain.NewSnapshot(res, time.Now()).Encode()
			if err != nil {
				return err
			}
			storage := fs.NewFileStorage(cfg.CacheDir, nil)
			return storage.Set(cmd.Context(), cfg.CacheKey, value)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "JSON file to read, - for stdin")
	return cmd
}

func clearCmd(cfg *cliconfig.Config, cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the cached home info",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd, cfg, *cfgPath); err != nil {
				return err
			}
			storage := fs.NewFileStorage(cfg.CacheDir, nil)
			return storage.Remove(cmd.Context(), cfg.CacheKey)
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
