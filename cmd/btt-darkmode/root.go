package main

import (
	"fmt"
	"strings"

	bttdarkmode "github.com/btt-go/btt-darkmode"
	"github.com/go-viper/mapstructure/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app carries the state shared by all subcommands.
type app struct {
	v       *viper.Viper
	cfgFile string
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "btt-darkmode",
		Short: "Dark theme color remapping and site rule tables",
		Long: `btt-darkmode remaps page colors for dark and light themes, formats and
resolves per-site rule tables, and publishes rule tables to redis.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initialize()
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			_ = a.logger.Sync()
		},
	}
	root.SetVersionTemplate(`{{printf "btt-darkmode version %s\n" .Version}}`)

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "config file (default is ./btt-darkmode.yaml)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("redis-addr", "127.0.0.1:6379", "redis address")
	flags.String("prefix", "btt-darkmode:", "redis key prefix")
	flags.Int("table-version", 1, "rule table version")

	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("redis.addr", flags.Lookup("redis-addr"))
	_ = a.v.BindPFlag("redis.prefix", flags.Lookup("prefix"))
	_ = a.v.BindPFlag("version", flags.Lookup("table-version"))

	root.AddCommand(
		newFmtCmd(a),
		newResolveCmd(a),
		newColorCmd(a),
		newPublishCmd(a),
		newWatchCmd(a),
	)
	return root
}

// initialize reads the config file and environment, then installs the logger.
func (a *app) initialize() error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		a.v.AddConfigPath(".")
		a.v.SetConfigName("btt-darkmode")
	}

	a.v.SetEnvPrefix("BTT_DARKMODE")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	logger, err := newLogger(a.v.GetString("log.level"))
	if err != nil {
		return err
	}
	a.logger = logger
	zap.ReplaceGlobals(logger)
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// filterConfig returns the defaults overlaid with the "filter" section of the config.
func (a *app) filterConfig() (bttdarkmode.FilterConfig, error) {
	cfg := bttdarkmode.DefaultFilterConfig()
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := a.v.UnmarshalKey("filter", &cfg, hook); err != nil {
		return cfg, fmt.Errorf("unmarshal filter config failed: %w", err)
	}
	return cfg, nil
}

// redisClient connects to the configured redis and applies the key prefix.
func (a *app) redisClient() *redis.Client {
	bttdarkmode.SetPrefix(a.v.GetString("redis.prefix"))
	return redis.NewClient(&redis.Options{Addr: a.v.GetString("redis.addr")})
}

// schemaFor resolves the rule table schema by name, or by the file's base name when name is empty.
func schemaFor(name, path string) (bttdarkmode.Schema, error) {
	if name == "" && path != "" {
		base := path[strings.LastIndexAny(path, `/\`)+1:]
		if i := strings.Index(base, "."); i > 0 {
			base = base[:i]
		}
		name = base
	}
	s, ok := bttdarkmode.SchemaByName(name)
	if !ok {
		return bttdarkmode.Schema{}, fmt.Errorf("unknown rule table schema %q (use --schema)", name)
	}
	return s, nil
}
