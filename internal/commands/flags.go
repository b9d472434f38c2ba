package commands

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/colonyops/backdate/internal/core/config"
)

// DefaultConfigName is the config file looked for in the working directory.
const DefaultConfigName = "backdate.yaml"

// Flags holds global flag values and state shared across commands.
type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string

	cfg *config.Config
}

// Config loads the configuration on first use and caches it.
func (f *Flags) Config() (*config.Config, error) {
	if f.cfg != nil {
		return f.cfg, nil
	}

	cfg, err := config.Load(f.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", f.ConfigPath, err)
	}

	f.cfg = cfg
	return cfg, nil
}

// Rand returns the random source for planning: seeded from config when a
// seed is set (reproducible plans), otherwise from the clock.
func (f *Flags) Rand(cfg *config.Config) *rand.Rand {
	seed := time.Now().UnixNano()
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}
	return rand.New(rand.NewSource(seed))
}
