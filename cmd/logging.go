package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/huangsam/repoaudit/internal/contract"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logging configuration keys.
const (
	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"
)

// stderrLogFilename sends log records to stderr instead of a rotating file.
const stderrLogFilename = "-"

func setLogDefaults() {
	viper.SetDefault(logFilenameKey, contract.GetLogFilePath())
	viper.SetDefault(logLevelKey, "info")
	viper.SetDefault(logMaxSizeKey, 10) // megabytes
	viper.SetDefault(logMaxBackupsKey, 3)
	viper.SetDefault(logMaxAgeKey, 28) // days
	viper.SetDefault(logCompressKey, true)
}

// parseLogLevel maps a log.level value to a slog level. It accepts slog's own
// names with offsets ("debug", "WARN", "info+2"), "warning" and plain numbers.
// Unknown values yield info and an error.
func parseLogLevel(level string) (slog.Level, error) {
	level = strings.TrimSpace(level)
	if level == "" {
		return slog.LevelInfo, nil
	}
	if strings.EqualFold(level, "warning") {
		return slog.LevelWarn, nil
	}
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n), nil
	}

	var parsed slog.Level
	if err := parsed.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown %s %q", logLevelKey, level)
	}
	return parsed, nil
}

// logWriter returns the sink for log records at logPath.
func logWriter(logPath string) io.Writer {
	if logPath == stderrLogFilename {
		return os.Stderr
	}
	return &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}
}

// configureLogger configures the global slog logger.
//
// By default it logs at the configured level; if verbose is true it logs at Debug.
// The MCP server owns stdout, so records never go there.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = contract.GetLogFilePath()
	}

	logLevel, levelErr := parseLogLevel(viper.GetString(logLevelKey))
	if verbose {
		logLevel = slog.LevelDebug
	}

	handler := slog.NewTextHandler(logWriter(logPath), &slog.HandlerOptions{
		AddSource: verbose,
		Level:     logLevel,
	})
	slog.SetDefault(slog.New(handler))

	if levelErr != nil {
		contract.LogWarn("Logging at info level", levelErr)
	}
}
