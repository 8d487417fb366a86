package converter

import (
	"runtime"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "CHUNKFMT"

type Config struct {
	Workers           int           `envconfig:"WORKERS"`
	CompressionLevel  int           `envconfig:"COMPRESSION_LEVEL" default:"3"`
	DataVersion       int32         `envconfig:"DATA_VERSION" default:"1343"`
	Backend           string        `envconfig:"BACKEND" default:"sqlite"`
	ProgressInterval  time.Duration `envconfig:"PROGRESS_INTERVAL" default:"1s"`
	RegionCompression string        `envconfig:"REGION_COMPRESSION" default:"zlib"`
	Fixers            string        `envconfig:"FIXERS"`
}

func GetConfig() (*Config, error) {
	var cfg Config
	err := envconfig.Process(EnvPrefix, &cfg)
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

// WorkerCount returns the configured pool size, defaulting to the number of CPUs.
func (c *Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}

	return runtime.NumCPU()
}
