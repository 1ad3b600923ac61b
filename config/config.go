// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/ava-labs/avalanchego/utils/profiler"
	"gopkg.in/yaml.v2"

	"github.com/ava-labs/guardianwallet/actions"
	"github.com/ava-labs/guardianwallet/guardian"
	"github.com/ava-labs/guardianwallet/internal/logging"
	"github.com/ava-labs/guardianwallet/pebble"
	"github.com/ava-labs/guardianwallet/pubsub"
	"github.com/ava-labs/guardianwallet/quota"
	"github.com/ava-labs/guardianwallet/security"
	"github.com/ava-labs/guardianwallet/server"
	"github.com/ava-labs/guardianwallet/trace"
)

const DefaultChainID = 43114

var (
	ErrInvalidChainID  = errors.New("chain id must be positive")
	ErrInvalidDataDir  = errors.New("data directory must be set")
	ErrInvalidPolicy   = errors.New("invalid policy")
	ErrInvalidProfiler = errors.New("invalid profiler config")
)

type Config struct {
	ChainID uint64 `yaml:"chainID"`
	DataDir string `yaml:"dataDir"`

	// AllowDeposits exposes the unauthenticated deposit endpoint.
	AllowDeposits bool `yaml:"allowDeposits"`

	Guardian guardian.Policy `yaml:"guardian"`
	Quota    quota.Policy    `yaml:"quota"`
	Security security.Policy `yaml:"security"`

	Database pebble.Config       `yaml:"database"`
	Log      logging.Config      `yaml:"log"`
	Trace    trace.Config        `yaml:"trace"`
	HTTP     server.Config       `yaml:"http"`
	PubSub   pubsub.ServerConfig `yaml:"pubsub"`
	Profiler profiler.Config     `yaml:"profiler"`
}

func NewDefaultConfig() Config {
	return Config{
		ChainID:  DefaultChainID,
		DataDir:  ".guardianwallet",
		Guardian: guardian.DefaultPolicy(),
		Quota:    quota.DefaultPolicy(),
		Security: security.DefaultPolicy(),
		Database: pebble.NewDefaultConfig(),
		Log:      logging.NewDefaultConfig(),
		Trace: trace.Config{
			TraceSampleRate: 0.1,
			Endpoint:        trace.DefaultEndpoint,
			AppName:         "guardianwallet",
		},
		HTTP:   server.NewDefaultConfig(),
		PubSub: pubsub.NewDefaultServerConfig(),
		Profiler: profiler.Config{
			Dir:         "profiles",
			Freq:        15 * time.Minute,
			MaxNumFiles: 5,
		},
	}
}

// Load overlays [b] on the defaults. Unknown fields are rejected.
func Load(b []byte) (*Config, error) {
	c := NewDefaultConfig()
	if len(b) > 0 {
		if err := yaml.UnmarshalStrict(b, &c); err != nil {
			return nil, fmt.Errorf("unable to parse config: %w", err)
		}
	}
	if err := c.Verify(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadFile is [Load] on the contents of [path]; an empty path yields the
// defaults.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return Load(nil)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(b)
}

func (c *Config) Verify() error {
	switch {
	case c.ChainID == 0:
		return ErrInvalidChainID
	case c.DataDir == "":
		return ErrInvalidDataDir
	case c.Guardian.Delay < 0 || c.Guardian.Immediate < 0 || c.Guardian.Max < 1:
		return fmt.Errorf("%w: guardian %+v", ErrInvalidPolicy, c.Guardian)
	case c.Quota.Delay < 0 || c.Quota.Window <= 0 || c.Quota.WhitelistDelay < 0:
		return fmt.Errorf("%w: quota %+v", ErrInvalidPolicy, c.Quota)
	case c.Security.MinInheritWaiting < 0 || c.Security.MaxInheritWaiting < c.Security.MinInheritWaiting:
		return fmt.Errorf("%w: security %+v", ErrInvalidPolicy, c.Security)
	case c.Profiler.Enabled && (c.Profiler.Freq <= 0 || c.Profiler.MaxNumFiles <= 0):
		return ErrInvalidProfiler
	}
	return nil
}

func (c *Config) GetChainID() *big.Int {
	return new(big.Int).SetUint64(c.ChainID)
}

// Rules are the wallet policies the dispatcher enforces.
func (c *Config) Rules() *actions.StaticRules {
	return &actions.StaticRules{
		Guardian: c.Guardian,
		Quota:    c.Quota,
		Security: c.Security,
	}
}
