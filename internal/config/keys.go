package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "LANGO_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "agent.binary", typ: kString, env: "LANGO_AGENT_BINARY",
		apply:   func(cfg *Config, v any) { cfg.Agent.Binary = v.(string) },
		extract: func(cfg Config) any { return cfg.Agent.Binary },
	},
	{
		key: "agent.tracker_timeout", typ: kString, env: "LANGO_AGENT_TRACKER_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Agent.TrackerTimeout = v.(string) },
		extract: func(cfg Config) any { return cfg.Agent.TrackerTimeout },
	},
	{
		key: "storage.data_root", typ: kString, env: "LANGO_STORAGE_DATA_ROOT",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataRoot = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataRoot },
	},
	{
		key: "log.level", typ: kString, env: "LANGO_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
