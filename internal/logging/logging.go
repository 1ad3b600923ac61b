// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/ava-labs/avalanchego/utils/logging"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Level        string `json:"level"        yaml:"level"`
	DisplayLevel string `json:"displayLevel" yaml:"displayLevel"`
	// Directory enables a rotating log file when set.
	Directory string `json:"directory" yaml:"directory"`
	MaxSize   int    `json:"maxSize"   yaml:"maxSize"`  // megabytes
	MaxFiles  int    `json:"maxFiles"  yaml:"maxFiles"` // files
	MaxAge    int    `json:"maxAge"    yaml:"maxAge"`   // days
	Compress  bool   `json:"compress"  yaml:"compress"`
	// DisableDisplay mutes stderr, mostly for CLI commands that print their
	// own output.
	DisableDisplay bool `json:"disableDisplay" yaml:"disableDisplay"`
}

func NewDefaultConfig() Config {
	return Config{
		Level:        logging.Info.String(),
		DisplayLevel: logging.Info.String(),
		MaxSize:      8,
		MaxFiles:     7,
		MaxAge:       30,
		Compress:     true,
	}
}

// New builds a logger writing to stderr and, if [Config.Directory] is set,
// to a rotating file named after [name].
func New(cfg Config, name string) (logging.Logger, error) {
	level, err := logging.ToLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	displayLevel, err := logging.ToLevel(cfg.DisplayLevel)
	if err != nil {
		return nil, err
	}

	var consoleWriter io.WriteCloser = os.Stderr
	if cfg.DisableDisplay {
		consoleWriter = discardWriteCloser{io.Discard}
	}
	consoleCore := logging.NewWrappedCore(displayLevel, consoleWriter, logging.Colors.ConsoleEncoder())
	consoleCore.WriterDisabled = cfg.DisableDisplay
	cores := []logging.WrappedCore{consoleCore}

	if cfg.Directory != "" {
		rw := &lumberjack.Logger{
			Filename:   filepath.Join(cfg.Directory, name+".log"),
			MaxSize:    cfg.MaxSize,
			MaxAge:     cfg.MaxAge,
			MaxBackups: cfg.MaxFiles,
			Compress:   cfg.Compress,
		}
		cores = append(cores, logging.NewWrappedCore(level, rw, jsonEncoder()))
	}
	return logging.NewLogger(logging.Plain.WrapPrefix(name), cores...), nil
}

func jsonEncoder() zapcore.Encoder {
	return logging.JSON.FileEncoder()
}

type discardWriteCloser struct {
	io.Writer
}

func (discardWriteCloser) Close() error {
	return nil
}
