// Package core holds the pieces every daemon surface shares: parsed config,
// environment and the process logger.
package core

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lmittmann/tint"

	"github.com/victorvelazquez/dev-orchestrator/internals/assert"
	"github.com/victorvelazquez/dev-orchestrator/internals/conf"
	"github.com/victorvelazquez/dev-orchestrator/internals/env"
)

type BaseServer struct {
	Config *conf.Config
	Env    *env.EnvStruct
	Logger *slog.Logger

	logFile *os.File
}

func New() *BaseServer {
	config := conf.GetConfig()
	envs := env.Get()
	logger, logFile := InitLogger(config)

	return &BaseServer{
		Config:  config,
		Env:     envs,
		Logger:  logger,
		logFile: logFile,
	}
}

func (b *BaseServer) Close() {
	if b.logFile != nil {
		_ = b.logFile.Close()
	}
}

// InitLogger writes to stdout and to log.txt under the data dir, and installs
// the logger as the slog default.
func InitLogger(config *conf.Config) (*slog.Logger, *os.File) {
	logPath := filepath.Join(config.Server.DataDir, "log.txt")
	err := os.MkdirAll(filepath.Dir(logPath), 0o755)
	assert.AssertNil(err, "[CORE] Failed to initialize log directory")

	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	assert.AssertNil(err, "[CORE] Failed to open log file")

	logWriter := io.MultiWriter(os.Stdout, logFile)
	handler := tint.NewHandler(logWriter, &tint.Options{
		Level:     slog.LevelDebug,
		AddSource: true,
	})
	logger := slog.New(handler)

	slog.SetDefault(logger)
	return logger, logFile
}
