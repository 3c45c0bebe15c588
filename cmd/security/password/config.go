package password

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/caarlos0/env/v11"
)

// Argon2idParams controls Argon2id hashing cost.
// MemoryKiB is in KiB as required by argon2.IDKey.
type Argon2idParams struct {
	MemoryKiB   uint32 `env:"ARGON2_MEMORY_KIB"`
	Iterations  uint32 `env:"ARGON2_ITERATIONS"`
	Parallelism uint8  `env:"ARGON2_PARALLELISM"`
	SaltLength  uint32 `env:"ARGON2_SALT_LEN"`
	KeyLength   uint32 `env:"ARGON2_KEY_LEN"`
}

// Policy controls password validation and anti-DoS boundaries.
type Policy struct {
	MinLength int `env:"PASSWORD_MIN_LEN"`
	MaxLength int `env:"PASSWORD_MAX_LEN"`
	// If true, enable an extra, minimal weak-pattern rejection.
	RejectVeryWeak bool `env:"PASSWORD_REJECT_VERY_WEAK"`
}

// Config is the single configuration surface for this package.
type Config struct {
	Params Argon2idParams
	Policy Policy
}

// DefaultConfig returns a strong baseline for an interactive login gate.
func DefaultConfig() Config {
	// CPU-aware parallelism, clamped to [1..4] to keep resource usage predictable in containers.
	threads := runtime.NumCPU()
	if threads <= 0 {
		threads = 1
	}
	if threads > 4 {
		threads = 4
	}

	return Config{
		Params: Argon2idParams{
			MemoryKiB:   64 * 1024,      // 64 MiB
			Iterations:  3,              // reasonable default for interactive logins
			Parallelism: uint8(threads), // #nosec G115 -- clamped to [1..4] above; safe conversion.
			SaltLength:  16,
			KeyLength:   32,
		},
		Policy: Policy{
			MinLength:      12,
			MaxLength:      256,
			RejectVeryWeak: false,
		},
	}
}

// FromEnv loads config from environment variables on top of DefaultConfig.
//
// Env surface:
// - PASSWORD_MIN_LEN
// - PASSWORD_MAX_LEN
// - PASSWORD_REJECT_VERY_WEAK (true/false)
// - ARGON2_MEMORY_KIB
// - ARGON2_ITERATIONS
// - ARGON2_PARALLELISM
// - ARGON2_SALT_LEN
// - ARGON2_KEY_LEN
func FromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Join(ErrConfig, err)
	}
	if err := cfg.Check(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Check enforces the cost and policy ranges.
func (c Config) Check() error {
	if err := inRange("PASSWORD_MIN_LEN", c.Policy.MinLength, 1, 1024); err != nil {
		return err
	}
	if err := inRange("PASSWORD_MAX_LEN", c.Policy.MaxLength, 1, 4096); err != nil {
		return err
	}
	if err := inRange("ARGON2_MEMORY_KIB", int(c.Params.MemoryKiB), 8*1024, 1024*1024); err != nil { // 8 MiB .. 1 GiB
		return err
	}
	if err := inRange("ARGON2_ITERATIONS", int(c.Params.Iterations), 1, 20); err != nil {
		return err
	}
	if err := inRange("ARGON2_PARALLELISM", int(c.Params.Parallelism), 1, 64); err != nil {
		return err
	}
	if err := inRange("ARGON2_SALT_LEN", int(c.Params.SaltLength), 8, 64); err != nil {
		return err
	}
	if err := inRange("ARGON2_KEY_LEN", int(c.Params.KeyLength), 16, 64); err != nil {
		return err
	}

	if c.Policy.MinLength > c.Policy.MaxLength {
		return fmt.Errorf(
			"%w: min_len(%d) > max_len(%d)",
			ErrConfig,
			c.Policy.MinLength,
			c.Policy.MaxLength,
		)
	}
	return nil
}

func inRange(key string, v, minVal, maxVal int) error {
	if v < minVal || v > maxVal {
		return fmt.Errorf("%w: %s out of range [%d..%d]", ErrConfig, key, minVal, maxVal)
	}
	return nil
}
