package logging

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// LogFile is the name of the rotated log inside the configured directory.
const LogFile = "vm.log"

var (
	// Logger is a no-op until InitLogging is called, so packages can log
	// unconditionally from tests.
	Logger = zap.NewNop()

	mLogger *MemLogger
)

func isDevelopment(mode string) bool { return mode == "development" }

func isTest(mode string) bool { return mode == "test" || mode == "testing" }

//InitLogging - set up Logger for the given run mode. Entries always reach the
//in-memory ring; outside of tests they are also written to a rotated file
//under logDir and optionally echoed to stdout.
func InitLogging(mode string, logDir string) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if isDevelopment(mode) {
		level.SetLevel(zapcore.DebugLevel)
	}
	if name := viper.GetString("logging.level"); name != "" {
		if err := level.UnmarshalText([]byte(name)); err != nil {
			panic(err)
		}
	}

	ringLevel := zapcore.ErrorLevel
	if isDevelopment(mode) {
		ringLevel = zapcore.DebugLevel
	}
	mLogger = NewMemLogger(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), ringLevel)

	cores := []zapcore.Core{mLogger.GetCore()}
	if !isTest(mode) {
		out := rotatingFile(filepath.Join(logDir, LogFile))
		if viper.GetBool("logging.console") {
			out = zapcore.NewMultiWriteSyncer(zapcore.Lock(os.Stdout), out)
		}
		cores = append(cores, zapcore.NewCore(getEncoder(fileConfig(mode)), out, level))
	}

	var opts []zap.Option
	if isDevelopment(mode) {
		opts = append(opts, zap.AddCaller(), zap.AddStacktrace(zapcore.WarnLevel))
	}
	Logger = zap.New(zapcore.NewTee(cores...), opts...)
}

// GetMemLogger returns the ring buffer logger set up by InitLogging, or nil.
func GetMemLogger() *MemLogger {
	return mLogger
}

// fileConfig describes the human readable format of the rotated file.
func fileConfig(mode string) zap.Config {
	cfg := zap.NewProductionConfig()
	if isDevelopment(mode) {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Encoding = "console"
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

func getEncoder(conf zap.Config) zapcore.Encoder {
	switch conf.Encoding {
	case "json":
		return zapcore.NewJSONEncoder(conf.EncoderConfig)
	case "console":
		return zapcore.NewConsoleEncoder(conf.EncoderConfig)
	}
	panic("logging: unknown encoding " + conf.Encoding)
}

func rotatingFile(path string) zapcore.WriteSyncer {
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    100, // megabytes
		MaxBackups: 5,
		MaxAge:     28, // days
	})
}
