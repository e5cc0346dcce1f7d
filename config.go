package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind      string
	clientDir string
	port      int
	prefix    string
	profile   bool
	tlsCert   string
	tlsKey    string
	verbose   bool
	version   bool
	wsPort    int
}

func validPort(name string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid %s (must be between 1-65535 inclusive): %d", name, port)
	}
	return nil
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if err := validPort("port", c.port); err != nil {
		return err
	}
	if err := validPort("ws-port", c.wsPort); err != nil {
		return err
	}
	if c.port == c.wsPort {
		return fmt.Errorf("--port and --ws-port must differ: %d", c.port)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func (c *Config) wsScheme() string {
	if c.scheme() == "https" {
		return "wss"
	}
	return "ws"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("BATTLEJONG")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "battlejong",
		Short:         "A two-player race to clear a shuffled tile board, served over WebSockets.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServeGame(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: BATTLEJONG_BIND)")
	fs.StringVar(&cfg.clientDir, "client-dir", "", "serve the client bundle from this directory instead of the embedded one (env: BATTLEJONG_CLIENT_DIR)")
	fs.IntVarP(&cfg.port, "port", "p", 8001, "port to serve the client on (env: BATTLEJONG_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all client URLs, for use behind reverse proxy (env: BATTLEJONG_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: BATTLEJONG_PROFILE)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: BATTLEJONG_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: BATTLEJONG_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: BATTLEJONG_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: BATTLEJONG_VERSION)")
	fs.IntVarP(&cfg.wsPort, "ws-port", "w", 8080, "port to accept game connections on (env: BATTLEJONG_WS_PORT)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("battlejong v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
