// Package config provides configuration loading, defaults, and validation
// for CiteGuard.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix for all service settings.
const envPrefix = "CITEGUARD"

// newViper builds a pre-configured Viper instance: YAML files, CITEGUARD_
// env prefix, automatic env binding, and a key replacer so that nested keys
// like "courtlistener.api_key" resolve to "CITEGUARD_COURTLISTENER_API_KEY".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// Load reads the YAML file at configPath, merges CITEGUARD_* environment
// overrides, applies defaults for unset fields, and validates the result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from CITEGUARD_* environment
// variables with no config file, the preferred strategy for containerised
// deployments.
func LoadFromEnv() (*Config, error) {
	v := newViper()
	return unmarshalAndFinalize(v)
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// MustLoad wraps Load and panics on error.  For main() only, where a config
// failure is always fatal.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}

// Watch monitors configPath and invokes onChange with a freshly parsed and
// validated Config whenever the file changes on disk.  It is meant for
// hot-reloading the safe subset of settings (log level, pipeline thresholds);
// callers decide which fields to actually apply at runtime.
//
// A change that fails to parse or validate is dropped and onChange is not
// called, so the application never observes a broken configuration.  Watch
// returns a stop function that releases the underlying watcher.
func Watch(configPath string, onChange func(*Config)) (stop func(), err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: failed to create watcher: %w", err)
	}

	// Watch the directory, not the file: editors and configmap updates
	// replace the file via rename, which would otherwise drop the watch.
	dir := filepath.Dir(configPath)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("config: failed to watch %q: %w", dir, err)
	}

	target := filepath.Clean(configPath)
	done := make(chan struct{})

	go func() {
		// Debounce: editors emit bursts of WRITE/CREATE events per save.
		var lastReload time.Time
		for {
			select {
			case <-done:
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if time.Since(lastReload) < 100*time.Millisecond {
					continue
				}
				lastReload = time.Now()

				cfg, loadErr := Load(configPath)
				if loadErr != nil {
					continue
				}
				onChange(cfg)
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return func() {
		close(done)
		watcher.Close()
	}, nil
}
