// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWritesFile(t *testing.T) {
	require := require.New(t)

	cfg := NewDefaultConfig()
	cfg.Directory = t.TempDir()
	cfg.DisableDisplay = true
	log, err := New(cfg, "dispatcher")
	require.NoError(err)

	log.Info("wallet created", zap.String("wallet", "0x01"))
	log.Stop()

	b, err := os.ReadFile(filepath.Join(cfg.Directory, "dispatcher.log"))
	require.NoError(err)
	require.Contains(string(b), "wallet created")
}

func TestNewInvalidLevel(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Level = "loud"
	_, err := New(cfg, "dispatcher")
	require.Error(t, err)
}
