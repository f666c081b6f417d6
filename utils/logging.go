package utils

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/goblinstake/goblin-stake/types"
)

// LogWriter owns the outputs created by InitLogger.
type LogWriter struct {
	logFile *os.File
}

func (lw *LogWriter) Dispose() {
	if lw != nil && lw.logFile != nil {
		lw.logFile.Close()
		lw.logFile = nil
	}
}

type writerHook struct {
	writer    io.Writer
	formatter logger.Formatter
	levels    []logger.Level
}

func (hook *writerHook) Levels() []logger.Level {
	return hook.levels
}

func (hook *writerHook) Fire(entry *logger.Entry) error {
	line, err := hook.formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = hook.writer.Write(line)
	return err
}

func levelsUpTo(level logger.Level) []logger.Level {
	levels := []logger.Level{}
	for _, l := range logger.AllLevels {
		if l <= level {
			levels = append(levels, l)
		}
	}
	return levels
}

func parseLevel(level string, fallback logger.Level) (logger.Level, error) {
	if level == "" {
		return fallback, nil
	}
	return logger.ParseLevel(level)
}

// InitLogger builds the process logger from the logging config section.
// Console and file output are routed through hooks so both can use their own level.
func InitLogger(cfg *types.Config) (*LogWriter, *logger.Logger, error) {
	log := logger.New()
	logWriter := &LogWriter{}

	outputLevel, err := parseLevel(cfg.Logging.OutputLevel, logger.InfoLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid logging.outputLevel: %w", err)
	}

	var consoleOut io.Writer = os.Stdout
	if cfg.Logging.OutputStderr {
		consoleOut = os.Stderr
	}

	maxLevel := outputLevel
	log.SetOutput(io.Discard)
	log.AddHook(&writerHook{
		writer:    consoleOut,
		formatter: &logger.TextFormatter{FullTimestamp: true},
		levels:    levelsUpTo(outputLevel),
	})

	if cfg.Logging.FilePath != "" {
		fileLevel, err := parseLevel(cfg.Logging.FileLevel, outputLevel)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid logging.fileLevel: %w", err)
		}

		logFile, err := os.OpenFile(cfg.Logging.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("could not open log file %v: %w", cfg.Logging.FilePath, err)
		}
		logWriter.logFile = logFile

		log.AddHook(&writerHook{
			writer:    logFile,
			formatter: &logger.JSONFormatter{},
			levels:    levelsUpTo(fileLevel),
		})
		if fileLevel > maxLevel {
			maxLevel = fileLevel
		}
	}

	log.SetLevel(maxLevel)

	return logWriter, log, nil
}

// LogError logs err at error level with the caller's position (skipping callerSkip frames)
// and the context each wrapping layer added.
func LogError(log logger.FieldLogger, err error, errorMsg interface{}, callerSkip int, additionalInfos ...map[string]interface{}) {
	errorEntry(log, err, callerSkip, additionalInfos...).Error(errorMsg)
}

func errorEntry(log logger.FieldLogger, err error, callerSkip int, additionalInfos ...map[string]interface{}) *logger.Entry {
	fields := logger.Fields{}

	if pc, file, line, ok := runtime.Caller(callerSkip + 2); ok {
		fields["_file"] = filepath.Base(file)
		fields["_line"] = line
		if fn := runtime.FuncForPC(pc); fn != nil {
			fields["_function"] = fn.Name()
		}
	}

	if err != nil {
		root, chain := unwrapChain(err)
		if len(chain) > 0 {
			fields["errChain"] = strings.Join(chain, " > ")
		}
		fields["errType"] = fmt.Sprintf("%T", root)
	}

	for _, infos := range additionalInfos {
		for name, value := range infos {
			fields[name] = value
		}
	}

	return log.WithFields(fields).WithError(err)
}

// unwrapChain returns the innermost error and the prefix every wrapping layer put in front of it,
// outermost first. "rpc: send: refused" wrapping "send: refused" wrapping "refused" gives [rpc send].
func unwrapChain(err error) (error, []string) {
	chain := []string{}
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err, chain
		}

		prefix := strings.TrimSuffix(err.Error(), next.Error())
		prefix = strings.TrimRight(strings.TrimSpace(prefix), ":")
		if prefix != "" {
			chain = append(chain, prefix)
		}
		err = next
	}
}
