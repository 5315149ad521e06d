package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/octohelm/tabledb/pkg/kv"
)

const MemoryPath = ":memory:"

type Config struct {
	// Name of the database, passed to store sessions.
	Name string `yaml:"name"`
	// Engine is a registered kv engine, pebble or badger.
	Engine       string  `yaml:"engine"`
	Path         string  `yaml:"path"`
	MaxBatchSize int     `yaml:"maxBatchSize,omitempty"`
	Journal      Journal `yaml:"journal,omitempty"`
	Log          Log     `yaml:"log,omitempty"`
}

type Journal struct {
	// Path of the journal directory. Empty disables journaling.
	Path   string `yaml:"path,omitempty"`
	NoSync bool   `yaml:"noSync,omitempty"`
}

type Log struct {
	Verbosity int `yaml:"verbosity,omitempty"`
}

func Default() Config {
	return Config{
		Name:   "tabledb",
		Engine: "pebble",
		Path:   MemoryPath,
	}
}

// Load reads a yaml file on top of Default.
func Load(filename string) (Config, error) {
	c := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		return c, errors.Wrapf(err, "read config %s", filename)
	}

	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, errors.Wrapf(err, "parse config %s", filename)
	}

	return c, c.Validate()
}

func (c *Config) Validate() error {
	if c.Name == "" {
		return errors.New("name is required")
	}
	if c.Path == "" {
		return errors.New("path is required")
	}
	if c.MaxBatchSize < 0 {
		return errors.Errorf("maxBatchSize must not be negative, got %d", c.MaxBatchSize)
	}

	for _, e := range kv.Engines() {
		if e == c.Engine {
			return nil
		}
	}
	return errors.Errorf("unknown engine %q, available: %v", c.Engine, kv.Engines())
}

func (c *Config) StoreOptions() kv.Options {
	return kv.Options{
		MaxBatchSize: c.MaxBatchSize,
		Extra: map[string]string{
			"path": c.Path,
		},
	}
}

func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
