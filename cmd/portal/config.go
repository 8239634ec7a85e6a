package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"citizen-portal/internal/infrastructure/live"
	"citizen-portal/internal/infrastructure/state"
)

const (
	storeFile   = "file"
	storeDynamo = "dynamodb"
)

type config struct {
	BaseURL        string
	StateStore     string
	StateFile      string
	Profile        string
	TableName      string
	Region         string
	Live           live.Mode
	AMQPURL        string
	SignalInterval time.Duration
	LogLevel       string
	Tracing        bool
	Quiet          bool
}

// loadConfig reads the global flags that precede the command, then falls
// back to the environment for anything not given. It returns the command
// line left for the command tree.
func loadConfig(args []string, getenv func(string) string) (config, []string, error) {
	var (
		cfg      config
		liveMode string
		interval string
		tracing  string
	)
	fs := pflag.NewFlagSet("portal", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.StringVar(&cfg.BaseURL, "base-url", "", "backend address (PORTAL_BASE_URL)")
	fs.StringVar(&cfg.Profile, "profile", "", "name of the stored session (PORTAL_PROFILE)")
	fs.StringVar(&cfg.StateStore, "state", "", "where the session lives: file or dynamodb (PORTAL_STATE_STORE)")
	fs.StringVar(&cfg.StateFile, "state-file", "", "session file for the file store (PORTAL_STATE_FILE)")
	fs.StringVar(&liveMode, "live", "", "live update transport: sse, amqp or none (PORTAL_LIVE_TRANSPORT)")
	fs.StringVar(&cfg.LogLevel, "log-level", "", "debug, info, warn or error (PORTAL_LOG_LEVEL)")
	fs.StringVar(&tracing, "trace", "", "record X-Ray segments: true or false (PORTAL_TRACING)")
	fs.BoolVarP(&cfg.Quiet, "quiet", "q", false, "hide confirmations; alerts are still shown")
	if err := fs.Parse(args); err != nil {
		return config{}, nil, err
	}

	env := func(v *string, key string) {
		if *v == "" {
			*v = strings.TrimSpace(getenv(key))
		}
	}
	env(&cfg.BaseURL, "PORTAL_BASE_URL")
	env(&cfg.Profile, "PORTAL_PROFILE")
	env(&cfg.StateStore, "PORTAL_STATE_STORE")
	env(&cfg.StateFile, "PORTAL_STATE_FILE")
	env(&liveMode, "PORTAL_LIVE_TRANSPORT")
	env(&cfg.LogLevel, "PORTAL_LOG_LEVEL")
	env(&tracing, "PORTAL_TRACING")
	env(&interval, "PORTAL_SIGNAL_INTERVAL")
	cfg.TableName = strings.TrimSpace(getenv("TABLE_NAME"))
	cfg.Region = strings.TrimSpace(getenv("AWS_REGION"))
	cfg.AMQPURL = strings.TrimSpace(getenv("AMQP_URL"))

	if cfg.BaseURL == "" {
		return config{}, nil, errors.New("missing backend address: set PORTAL_BASE_URL or --base-url")
	}
	if cfg.Profile == "" {
		cfg.Profile = "default"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "warn"
	}

	switch strings.ToLower(cfg.StateStore) {
	case "", storeFile:
		cfg.StateStore = storeFile
		if cfg.StateFile == "" {
			cfg.StateFile = state.DefaultFilePath(cfg.Profile)
		}
	case storeDynamo:
		cfg.StateStore = storeDynamo
		if cfg.TableName == "" || cfg.Region == "" {
			return config{}, nil, errors.New("TABLE_NAME and AWS_REGION are required for the dynamodb state store")
		}
	default:
		return config{}, nil, fmt.Errorf("unknown state store %q", cfg.StateStore)
	}

	mode, err := live.ParseMode(liveMode)
	if err != nil {
		return config{}, nil, err
	}
	if mode == live.ModeAMQP && cfg.AMQPURL == "" {
		return config{}, nil, errors.New("AMQP_URL is required for the amqp transport")
	}
	cfg.Live = mode

	cfg.SignalInterval = live.DefaultSignalInterval
	if interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil || d <= 0 {
			return config{}, nil, fmt.Errorf("invalid PORTAL_SIGNAL_INTERVAL %q", interval)
		}
		cfg.SignalInterval = d
	}

	if tracing != "" {
		on, err := strconv.ParseBool(tracing)
		if err != nil {
			return config{}, nil, fmt.Errorf("invalid PORTAL_TRACING %q", tracing)
		}
		cfg.Tracing = on
	}
	return cfg, fs.Args(), nil
}
