package logger

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// current is read by probe goroutines while the host or a test swaps it.
var current atomic.Pointer[zap.SugaredLogger]

var (
	fileMu  sync.Mutex
	logFile *os.File
)

// Init points the global logger at the log file, truncated per run.
// Debug level is enabled with debug, info otherwise.
func Init(debug bool) error {
	logPath, err := logPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeDuration = zapcore.StringDurationEncoder

	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if debug {
		level.SetLevel(zapcore.DebugLevel)
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(f), level)

	fileMu.Lock()
	closeFileLocked()
	logFile = f
	fileMu.Unlock()

	Replace(zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Named("cypherpad"))
	Info("logger initialized", "path", logPath, "debug", debug)
	return nil
}

// Replace swaps the global logger. Passing nil turns logging off.
func Replace(l *zap.Logger) {
	if l == nil {
		current.Store(nil)
		return
	}
	current.Store(l.Sugar())
}

// Close flushes the logger and releases the log file. Later calls to the
// helpers are no-ops.
func Close() {
	if s := current.Swap(nil); s != nil {
		_ = s.Sync()
	}
	fileMu.Lock()
	closeFileLocked()
	fileMu.Unlock()
}

func closeFileLocked() {
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

// logPath is CYPHERPAD_LOG_FILE, else cypherpad.log in the config dir.
func logPath() (string, error) {
	if v := os.Getenv("CYPHERPAD_LOG_FILE"); v != "" {
		return v, nil
	}
	if v := os.Getenv("CYPHERPAD_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "cypherpad.log"), nil
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "cypherpad", "cypherpad.log"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "cypherpad", "cypherpad.log"), nil
}

func Debug(msg string, kv ...any) {
	if s := current.Load(); s != nil {
		s.Debugw(msg, kv...)
	}
}

func Info(msg string, kv ...any) {
	if s := current.Load(); s != nil {
		s.Infow(msg, kv...)
	}
}

func Warn(msg string, kv ...any) {
	if s := current.Load(); s != nil {
		s.Warnw(msg, kv...)
	}
}

func Error(msg string, kv ...any) {
	if s := current.Load(); s != nil {
		s.Errorw(msg, kv...)
	}
}
