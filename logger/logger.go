// Package logger provides structured logging for the notes service.
//
// It wraps Uber's zap logger and keeps a global instance configured from
// LOG_LEVEL:
//
//	logger.InitLogger("debug") // Options: debug, info, warn, error
//
//	logger.Log.Info("note created",
//	    zap.String("note_id", n.ID),
//	    zap.String("owner_id", n.OwnerID),
//	)
//
// Until InitLogger runs, Log discards everything.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Log = zap.NewNop()

func InitLogger(level string) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zap.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	Log = l
}
