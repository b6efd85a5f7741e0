package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var sugar *zap.SugaredLogger

// Init builds the process-wide logger. Production gets JSON output,
// anything else a colored console encoder. Safe to call once at startup;
// call sites before Init fall back to a no-op logger.
func Init(environment string) {
	var cfg zap.Config
	if environment == "production" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	sugar = l.Sugar()
}

func log() *zap.SugaredLogger {
	if sugar == nil {
		sugar = zap.NewNop().Sugar()
	}
	return sugar
}

// Key-value logging helpers; args alternate keys and values.

func Debug(msg string, args ...any) { log().Debugw(msg, args...) }
func Info(msg string, args ...any)  { log().Infow(msg, args...) }
func Warn(msg string, args ...any)  { log().Warnw(msg, args...) }
func Error(msg string, args ...any) { log().Errorw(msg, args...) }
func Fatal(msg string, args ...any) { log().Fatalw(msg, args...) }

// Sync flushes buffered log entries; call on shutdown.
func Sync() {
	if sugar != nil {
		_ = sugar.Sync()
	}
}
