package password

import "fmt"

type Algorithm string

const (
	AlgorithmBcrypt   Algorithm = "bcrypt"
	AlgorithmArgon2id Algorithm = "argon2id"
)

// Config selects and tunes the hashing algorithm.
type Config struct {
	Algorithm  Algorithm
	BcryptCost int
}

func (c *Config) ApplyDefaults() {
	if c.Algorithm == "" {
		c.Algorithm = AlgorithmBcrypt
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = 12
	}
}

func (c *Config) Validate() error {
	switch c.Algorithm {
	case AlgorithmBcrypt, AlgorithmArgon2id:
	default:
		return fmt.Errorf("unsupported password algorithm %q (use bcrypt or argon2id)", c.Algorithm)
	}
	if c.Algorithm == AlgorithmBcrypt && (c.BcryptCost < 4 || c.BcryptCost > 31) {
		return fmt.Errorf("bcrypt cost must be between 4 and 31 (got %d)", c.BcryptCost)
	}
	return nil
}

// NewHasher builds the configured Hasher.
func NewHasher(cfg Config) (Hasher, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Algorithm == AlgorithmArgon2id {
		return NewArgon2Hasher(), nil
	}
	return NewBcryptHasher(WithCost(cfg.BcryptCost)), nil
}
