package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"objindent.dev/pkg/objindent/internal/adapter"
	"objindent.dev/pkg/objindent/internal/domain"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "objindent"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	outputFlagName      = "output"
	excludeFlagName     = "exclude"
	extensionsFlagName  = "ext"
	parallelFlagName    = "parallel"
	plainFlagName       = "plain"
	sniffFlagName       = "sniff"
	excludeCodeFlagName = "exclude-code"
	logFileFlagName     = "log-file"
	verboseFlagName     = "verbose"
	noReportFlagName    = "no-report"
	noCacheFlagName     = "no-cache"
	shardFlagName       = "shard"
	dryRunFlagName      = "dry-run"
	maxPassesFlagName   = "max-passes"

	excludeConfigKey      = "paths.exclude"
	extensionsConfigKey   = "paths.extensions"
	parallelConfigKey     = "run.parallel"
	plainConfigKey        = "ui.plain"
	sniffsConfigKey       = "rules.sniffs"
	excludeCodesConfigKey = "rules.exclude_codes"
	noCacheConfigKey      = "check.no_cache"
	noReportConfigKey     = "check.no_report"
	maxPassesConfigKey    = "fix.max_passes"

	defaultReportsDir  = ".objindent-reports"
	defaultRunParallel = 1
	defaultNoCache     = false
	defaultNoReport    = false
	defaultPlain       = false

	envPrefix = "OBJINDENT"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".objindent.log"
	defaultLogLevel      = "info"
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var globalLogger *slog.Logger

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	setDefaults()

	if err := readConfigFile(); err != nil {
		slog.Warn("Ignoring config file", "error", err)
	}
}

// readConfigFile loads the config file into viper. A missing file is not an
// error.
func readConfigFile() error {
	err := viper.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return fmt.Errorf("read config %s: %w", viper.ConfigFileUsed(), err)
}

func setDefaults() {
	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(outputFlagName, defaultReportsDir)
	viper.SetDefault(excludeConfigKey, []string{})
	viper.SetDefault(extensionsConfigKey, adapter.DefaultExtensions)
	viper.SetDefault(parallelConfigKey, defaultRunParallel)
	viper.SetDefault(plainConfigKey, defaultPlain)
	viper.SetDefault(sniffsConfigKey, []string{})
	viper.SetDefault(excludeCodesConfigKey, []string{})
	viper.SetDefault(noCacheConfigKey, defaultNoCache)
	viper.SetDefault(noReportConfigKey, defaultNoReport)
	viper.SetDefault(maxPassesConfigKey, domain.DefaultMaxPasses)

	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Numeric slog levels are accepted too (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger points the global slog logger at a rotating log file.
//
// By default it logs at the configured level; if verbose is true it logs at Debug.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	var logLevel slog.Level
	if verbose || viper.GetBool(logVerboseKey) {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}
