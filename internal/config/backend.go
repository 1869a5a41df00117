package config

// ConfigBackend abstracts where lango settings live on each platform:
// UserDefaults (domain com.lango.app, via the `defaults` CLI) on macOS,
// a JSON file under $XDG_CONFIG_HOME/lango elsewhere. A key absent from
// the backend leaves the compiled-in default in place.
type ConfigBackend interface {
	GetString(key string) (val string, ok bool, err error)
	GetInt(key string) (val int, ok bool, err error)
	SetString(key, val string) error
	SetInt(key string, val int) error
	Delete(key string) error
}
