// Package logging provides the structured diagnostic logger used by the
// transactor. It is distinct from internal/output's user-facing
// error/warning/info/success channels: this logger writes the
// transactor's extraction steps and warnings (forced-past gate warnings,
// hook failures, rollback errors) to a rotating file for postmortem
// debugging, grounded on elastic-io-plus's
// internal/log/log.go zapcore.Tee construction.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Init builds a logger that always writes to a rotating file at path and,
// when console is true, additionally tees to stderr at debug level. The
// CLI commands always pass false.
// The caller should defer logger.Sync().
func Init(path string, console bool) (*zap.Logger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encoder := zapcore.NewConsoleEncoder(encoderCfg)

	fileWriter := zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    10,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})
	cores := []zapcore.Core{
		zapcore.NewCore(encoder, fileWriter, zapcore.DebugLevel),
	}
	if console {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), zapcore.DebugLevel))
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}

// Noop returns a logger that discards everything, used by tests and by
// commands that never touch the transactor.
func Noop() *zap.Logger {
	return zap.NewNop()
}
