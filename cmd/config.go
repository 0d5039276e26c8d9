package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/MShoaei/HeadlineMiner/bots"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type settings struct {
	LogLevel string `mapstructure:"log-level"`
	LogJSON  bool   `mapstructure:"log-json"`

	DB   string `mapstructure:"db"`
	Conn string `mapstructure:"conn"`

	Days           int           `mapstructure:"days"`
	Max            int           `mapstructure:"max"`
	Workers        int           `mapstructure:"workers"`
	MaxPages       int           `mapstructure:"max-pages"`
	Delay          time.Duration `mapstructure:"delay"`
	TermTimeout    time.Duration `mapstructure:"term-timeout"`
	RequestTimeout time.Duration `mapstructure:"request-timeout"`
	Retries        int           `mapstructure:"retries"`
	SearchURL      string        `mapstructure:"search-url"`

	LabelerURL   string `mapstructure:"labeler-url"`
	LabelerToken string `mapstructure:"labeler-token"`
}

// loadSettings merges flags, HEADLINEMINER_* environment variables and the
// optional config file, in that order of precedence.
func loadSettings(cmd *cobra.Command) (settings, error) {
	cfg := viper.New()
	if err := cfg.BindPFlags(cmd.Flags()); err != nil {
		return settings{}, err
	}
	cfg.SetEnvPrefix("HEADLINEMINER")
	cfg.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	cfg.AutomaticEnv()

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg.SetConfigFile(path)
		if err := cfg.ReadInConfig(); err != nil {
			return settings{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var s settings
	if err := cfg.Unmarshal(&s); err != nil {
		return settings{}, fmt.Errorf("decode config: %w", err)
	}
	return s, nil
}

func newLogger(s settings) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(s.LogLevel)
	if err != nil {
		return nil, err
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(level)
	if s.LogJSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log, nil
}

func (s settings) botConfig() (bots.Config, error) {
	c := bots.DefaultConfig()
	c.SearchURL = s.SearchURL
	c.PageDelay = s.Delay
	c.MaxPages = s.MaxPages
	c.TermTimeout = s.TermTimeout
	c.Workers = s.Workers
	return c, c.Validate()
}

func (s settings) fetcher(log logrus.FieldLogger) *bots.CollyFetcher {
	retry := bots.DefaultRetryPolicy
	retry.MaxAttempts = s.Retries + 1
	return bots.NewCollyFetcher(log,
		bots.WithRequestTimeout(s.RequestTimeout),
		bots.WithRetryPolicy(retry),
	)
}

func (s settings) from(now time.Time) time.Time {
	return now.AddDate(0, 0, -s.Days)
}
