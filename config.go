package hyperaio

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	// DefaultCapacity is the number of submission entries of the ring and
	// the largest accepted batch.
	DefaultCapacity uint32 = 512
	// DefaultBatchSize is the number of filled slots after which a batch
	// is flushed to the kernel.
	DefaultBatchSize uint32 = 128
	// DefaultRetries is the number of attempts to get a free slot.
	DefaultRetries = 3
	// DefaultRetryDelay is the pause between slot attempts.
	DefaultRetryDelay = 20 * time.Millisecond
	// DefaultHarvestTimeout bounds a single completion wait so the
	// harvester can observe a stop request.
	DefaultHarvestTimeout = 100 * time.Millisecond

	maxCapacity = 4096
)

// Environment keys read by LoadConfig.
const (
	EnvRingEntries    = "HYPERAIO_RING_ENTRIES"
	EnvBatchSize      = "HYPERAIO_BATCH_SIZE"
	EnvRetries        = "HYPERAIO_RETRIES"
	EnvRetryDelay     = "HYPERAIO_RETRY_DELAY"
	EnvHarvestTimeout = "HYPERAIO_HARVEST_TIMEOUT"
)

// Config holds the tunables of an Engine.
type Config struct {
	Capacity       uint32
	BatchSize      uint32
	Retries        int
	RetryDelay     time.Duration
	HarvestTimeout time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Capacity:       DefaultCapacity,
		BatchSize:      DefaultBatchSize,
		Retries:        DefaultRetries,
		RetryDelay:     DefaultRetryDelay,
		HarvestTimeout: DefaultHarvestTimeout,
	}
}

// Validate checks the configuration ranges.
func (c Config) Validate() error {
	if c.Capacity == 0 || c.Capacity > maxCapacity || c.Capacity&(c.Capacity-1) != 0 {
		return errors.Wrapf(ErrInvalidConfig, "capacity %d must be a power of 2 from 1 to %d", c.Capacity, maxCapacity)
	}
	if c.BatchSize == 0 || c.BatchSize > c.Capacity {
		return errors.Wrapf(ErrInvalidConfig, "batch size %d must be from 1 to %d", c.BatchSize, c.Capacity)
	}
	if c.Retries < 1 {
		return errors.Wrapf(ErrInvalidConfig, "retries %d must be positive", c.Retries)
	}
	if c.RetryDelay < 0 {
		return errors.Wrapf(ErrInvalidConfig, "retry delay %s must not be negative", c.RetryDelay)
	}
	// An unbounded wait would keep Destroy from ever stopping the harvester.
	if c.HarvestTimeout <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "harvest timeout %s must be positive", c.HarvestTimeout)
	}
	return nil
}

// LoadConfig returns the validated result of ParseConfig.
func LoadConfig(files ...string) (Config, error) {
	c, err := ParseConfig(files...)
	if err != nil {
		return Config{}, err
	}
	return c, c.Validate()
}

// ParseConfig returns DefaultConfig overridden by the given env files and
// then by the process environment. Values are parsed but the result is not
// validated, so callers may apply further overrides first.
func ParseConfig(files ...string) (Config, error) {
	vals := map[string]string{}
	if len(files) > 0 {
		read, err := godotenv.Read(files...)
		if err != nil {
			return Config{}, errors.Wrap(err, "failed to read env files")
		}
		vals = read
	}
	for _, key := range []string{EnvRingEntries, EnvBatchSize, EnvRetries, EnvRetryDelay, EnvHarvestTimeout} {
		if v, ok := os.LookupEnv(key); ok {
			vals[key] = v
		}
	}

	c := DefaultConfig()
	if v, ok := vals[EnvRingEntries]; ok {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return Config{}, errors.Wrapf(ErrInvalidConfig, "%s=%q", EnvRingEntries, v)
		}
		c.Capacity = uint32(n)
	}
	if v, ok := vals[EnvBatchSize]; ok {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return Config{}, errors.Wrapf(ErrInvalidConfig, "%s=%q", EnvBatchSize, v)
		}
		c.BatchSize = uint32(n)
	}
	if v, ok := vals[EnvRetries]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, errors.Wrapf(ErrInvalidConfig, "%s=%q", EnvRetries, v)
		}
		c.Retries = n
	}
	if v, ok := vals[EnvRetryDelay]; ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, errors.Wrapf(ErrInvalidConfig, "%s=%q", EnvRetryDelay, v)
		}
		c.RetryDelay = d
	}
	if v, ok := vals[EnvHarvestTimeout]; ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, errors.Wrapf(ErrInvalidConfig, "%s=%q", EnvHarvestTimeout, v)
		}
		c.HarvestTimeout = d
	}
	return c, nil
}
