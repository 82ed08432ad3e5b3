package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fsnotify/fsnotify"
	"github.com/titanous/json5"

	"github.com/nextlevelbuilder/ikigai/internal/id"
)

// Default returns a Config with every documented default applied.
func Default() *Config {
	return &Config{
		DefaultProvider: "openai",

		OpenAIModel:               "gpt-4o",
		OpenAITemperature:         0.7,
		OpenAIMaxCompletionTokens: 4096,

		ListenAddress: "127.0.0.1",
		ListenPort:    18790,

		DBHost: "localhost",
		DBPort: 5432,
		DBName: "ikigai",
		DBUser: "ikigai",

		MaxToolTurns:  20,
		MaxOutputSize: 64 * 1024,
		HistorySize:   200,
	}
}

// applyDefaults fills any zero-valued field with its documented default.
// Called both when a field was simply absent from the file and when it was
// present but explicitly "" or null — spec §6 treats both as "use default".
func (c *Config) applyDefaults() {
	d := Default()
	if c.DefaultProvider == "" {
		c.DefaultProvider = d.DefaultProvider
	}
	if c.OpenAIModel == "" {
		c.OpenAIModel = d.OpenAIModel
	}
	if c.OpenAITemperature == 0 {
		c.OpenAITemperature = d.OpenAITemperature
	}
	if c.OpenAIMaxCompletionTokens == 0 {
		c.OpenAIMaxCompletionTokens = d.OpenAIMaxCompletionTokens
	}
	if c.ListenAddress == "" {
		c.ListenAddress = d.ListenAddress
	}
	if c.ListenPort == 0 {
		c.ListenPort = d.ListenPort
	}
	if c.DBHost == "" {
		c.DBHost = d.DBHost
	}
	if c.DBPort == 0 {
		c.DBPort = d.DBPort
	}
	if c.DBName == "" {
		c.DBName = d.DBName
	}
	if c.DBUser == "" {
		c.DBUser = d.DBUser
	}
	if c.MaxToolTurns == 0 {
		c.MaxToolTurns = d.MaxToolTurns
	}
	if c.MaxOutputSize == 0 {
		c.MaxOutputSize = d.MaxOutputSize
	}
	if c.HistorySize == 0 {
		c.HistorySize = d.HistorySize
	}
}

// Load reads <data_dir>/config.json5, applies documented defaults for any
// field left empty/null, then overlays secrets and overrides from the
// environment. A missing file is not an error: it yields all-default config.
func Load(dataDir string) (*Config, error) {
	cfg := Default()
	cfg.DataDir = dataDir

	path := filepath.Join(dataDir, "config.json5")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, id.Wrap(id.KindIO, err, "read config %s", path)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, id.Wrap(id.KindParse, err, "parse config %s", path)
	}
	cfg.DataDir = dataDir
	cfg.applyDefaults()
	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides overlays secrets and operator overrides from the
// environment. These always win over the file, and are the only source for
// fields marked "-" in the json tag (never persisted to config.json5).
func (c *Config) applyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	envStr("IKIGAI_ANTHROPIC_API_KEY", &c.AnthropicAPIKey)
	envStr("IKIGAI_ANTHROPIC_BASE_URL", &c.AnthropicAPIBase)
	envStr("IKIGAI_OPENAI_API_KEY", &c.OpenAIAPIKey)
	envStr("IKIGAI_DB_PASSWORD", &c.DBPass)

	envStr("IKIGAI_DEFAULT_PROVIDER", &c.DefaultProvider)
	envStr("IKIGAI_DB_HOST", &c.DBHost)
	envStr("IKIGAI_DB_NAME", &c.DBName)
	envStr("IKIGAI_DB_USER", &c.DBUser)

	if v := os.Getenv("IKIGAI_DB_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			c.DBPort = p
		}
	}
	if v := os.Getenv("IKIGAI_LISTEN_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			c.ListenPort = p
		}
	}
}

// Watcher re-parses the config file whenever it changes on disk and
// delivers the new value on C. Errors encountered while re-parsing are
// delivered on Errs rather than crashing the watch loop; the last
// successfully parsed config remains in effect until the next good parse.
type Watcher struct {
	C    <-chan *Config
	Errs <-chan error

	watcher *fsnotify.Watcher
}

// Watch starts watching <data_dir>/config.json5 for changes. Call Close
// when done to stop the underlying fsnotify watcher and goroutine.
func Watch(ctx context.Context, dataDir string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, id.Wrap(id.KindIO, err, "create config watcher")
	}
	if err := fw.Add(dataDir); err != nil {
		fw.Close()
		return nil, id.Wrap(id.KindIO, err, "watch %s", dataDir)
	}

	path := filepath.Join(dataDir, "config.json5")
	out := make(chan *Config, 1)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				if ev.Name != path {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := Load(dataDir)
				if err != nil {
					select {
					case errs <- err:
					default:
					}
					continue
				}
				select {
				case out <- cfg:
				default:
				}
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				select {
				case errs <- fmt.Errorf("config watch: %w", err):
				default:
				}
			}
		}
	}()

	return &Watcher{C: out, Errs: errs, watcher: fw}, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
