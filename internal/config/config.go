package config

import "path/filepath"

type Config struct {
	Server  ServerConfig
	Agent   AgentConfig
	Storage StorageConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port int
}

// AgentConfig controls how the external agent CLI is invoked.
type AgentConfig struct {
	Binary         string
	TrackerTimeout string
}

type StorageConfig struct {
	DataRoot string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4600,
		},
		Agent: AgentConfig{
			Binary:         "claude",
			TrackerTimeout: "45s",
		},
		Storage: StorageConfig{
			DataRoot: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LanguagesDir returns the directory all per-language workspaces live
// under. The journal database sits next to it in the data root.
func (c Config) LanguagesDir() string {
	return filepath.Join(c.Storage.DataRoot, "languages")
}

// Load reads configuration from the platform-native backend and
// environment variables.
//
// On macOS the backend is UserDefaults (domain: com.lango.app).
// On Linux the backend is a JSON file at $XDG_CONFIG_HOME/lango/config.json.
//
// Environment variables (LANGO_*) override backend values on all platforms.
func Load() (Config, error) {
	return loadWith(newPlatformBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()
	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}
