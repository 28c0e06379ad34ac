/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: logger.go
Description: Logging for the synthesis tools. Structured logrus output to the
console and to a timestamped file, with synthesis specific helpers for grammars,
constraints, candidates and results.
*/

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// LogLevel represents the logging level
type LogLevel string

const (
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warn"
	LogLevelError   LogLevel = "error"
	LogLevelFatal   LogLevel = "fatal"
)

// LogFormat represents the logging format
type LogFormat string

const (
	LogFormatJSON   LogFormat = "json"
	LogFormatText   LogFormat = "text"
	LogFormatCustom LogFormat = "custom"
)

// filePrefix names log files in OutputDir
const filePrefix = "akaylee-synth_"

// LoggerConfig holds the configuration for the logger
type LoggerConfig struct {
	Level     LogLevel  `json:"level"`
	Format    LogFormat `json:"format"`
	OutputDir string    `json:"output_dir"` // empty disables file output
	MaxFiles  int       `json:"max_files"`
	Timestamp bool      `json:"timestamp"`
	Caller    bool      `json:"caller"`
	Colors    bool      `json:"colors"` // only honoured on a terminal
}

// DefaultConfig returns console logging at info level
func DefaultConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:     LogLevelInfo,
		Format:    LogFormatCustom,
		MaxFiles:  10,
		Timestamp: true,
		Colors:    true,
	}
}

// Validate checks the LoggerConfig for invalid or missing values.
func (c *LoggerConfig) Validate() error {
	if c.OutputDir != "" && c.MaxFiles <= 0 {
		return fmt.Errorf("max_files must be positive")
	}
	switch c.Format {
	case LogFormatJSON, LogFormatText, LogFormatCustom:
	default:
		return fmt.Errorf("unsupported log format: %s", c.Format)
	}
	switch c.Level {
	case LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError, LogLevelFatal:
	default:
		return fmt.Errorf("unsupported log level: %s", c.Level)
	}
	return nil
}

// Logger wraps a logrus logger configured from a LoggerConfig
type Logger struct {
	config     *LoggerConfig
	logger     *logrus.Logger
	fileHandle *os.File
	filePath   string
	startTime  time.Time
	console    io.Writer
}

// NewLogger creates a logger writing to stderr and, when configured, a log file
func NewLogger(config *LoggerConfig) (*Logger, error) {
	return newLogger(config, os.Stderr)
}

func newLogger(config *LoggerConfig, console io.Writer) (*Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logger config: %w", err)
	}

	l := &Logger{
		config:    config,
		logger:    logrus.New(),
		startTime: time.Now(),
		console:   console,
	}
	if err := l.setup(); err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}
	return l, nil
}

func (l *Logger) setup() error {
	level, err := logrus.ParseLevel(string(l.config.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.logger.SetLevel(level)
	l.logger.SetReportCaller(l.config.Caller)

	if err := l.setFormatter(); err != nil {
		return err
	}
	l.logger.SetOutput(l.console)
	return l.setupFileOutput()
}

// colors reports whether ANSI colours should be written to the console
func (l *Logger) colors() bool {
	if !l.config.Colors || l.fileHandle != nil {
		return false
	}
	f, ok := l.console.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (l *Logger) setFormatter() error {
	callerPrettyfier := func(f *runtime.Frame) (string, string) {
		return "", fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
	}

	switch l.config.Format {
	case LogFormatJSON:
		l.logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat:  time.RFC3339,
			CallerPrettyfier: callerPrettyfier,
		})
	case LogFormatText:
		l.logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:    l.config.Timestamp,
			TimestampFormat:  time.RFC3339,
			ForceColors:      l.colors(),
			DisableColors:    !l.colors(),
			CallerPrettyfier: callerPrettyfier,
		})
	case LogFormatCustom:
		l.logger.SetFormatter(&SynthFormatter{CustomFormatter{
			Timestamp: l.config.Timestamp,
			Caller:    l.config.Caller,
			Colors:    l.colors(),
		}})
	default:
		return fmt.Errorf("unsupported log format: %s", l.config.Format)
	}
	return nil
}

func (l *Logger) setupFileOutput() error {
	if l.config.OutputDir == "" {
		return nil
	}
	if err := os.MkdirAll(l.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	path := filepath.Join(l.config.OutputDir, fmt.Sprintf("%s%s.log", filePrefix, timestamp))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	l.fileHandle = file
	l.filePath = path

	// Files never carry colour codes
	if err := l.setFormatter(); err != nil {
		return err
	}
	l.logger.SetOutput(io.MultiWriter(l.console, file))

	l.logger.WithFields(logrus.Fields{
		"start_time": l.startTime.Format(time.RFC3339),
		"log_file":   path,
		"level":      l.config.Level,
		"format":     l.config.Format,
	}).Debug("Logging initialized")
	return nil
}

// FilePath returns the active log file, empty without file output
func (l *Logger) FilePath() string { return l.filePath }

// GetLogger returns the underlying logrus logger
func (l *Logger) GetLogger() *logrus.Logger { return l.logger }

// LogGrammar logs the shape of a built grammar
func (l *Logger) LogGrammar(typeRequest string, nonTerminals, productions int, size string, fields logrus.Fields) {
	l.with(fields, logrus.Fields{
		"type_request":  typeRequest,
		"non_terminals": nonTerminals,
		"productions":   productions,
		"size":          size,
	}).Info("Grammar built")
}

// LogConstraint logs the compilation of a constraint set
func (l *Logger) LogConstraint(constraint string, before, after int, fields logrus.Fields) {
	l.with(fields, logrus.Fields{
		"constraint": constraint,
		"before":     before,
		"after":      after,
	}).Info("Constraints compiled")
}

// LogCandidate logs an enumerated program at debug level
func (l *Logger) LogCandidate(taskID, program string, probability float64) {
	l.logger.WithFields(logrus.Fields{
		"task":        taskID,
		"program":     program,
		"probability": probability,
	}).Debug("Candidate")
}

// LogSolution logs a solved task
func (l *Logger) LogSolution(taskID, program string, probability float64, tried int64, elapsed time.Duration) {
	l.logger.WithFields(logrus.Fields{
		"task":        taskID,
		"program":     program,
		"probability": probability,
		"tried":       tried,
		"duration":    elapsed,
	}).Info("Task solved")
}

// LogTimeout logs a task stopped by the timeout
func (l *Logger) LogTimeout(taskID string, tried int64, elapsed time.Duration) {
	l.logger.WithFields(logrus.Fields{
		"task":     taskID,
		"tried":    tried,
		"duration": elapsed,
	}).Warn("Task timed out")
}

// LogUnsolved logs a task whose grammar was exhausted or bounded without a match
func (l *Logger) LogUnsolved(taskID string, tried int64, elapsed time.Duration) {
	l.logger.WithFields(logrus.Fields{
		"task":     taskID,
		"tried":    tried,
		"duration": elapsed,
	}).Info("Task not solved")
}

// LogStats logs run statistics
func (l *Logger) LogStats(tasks, solved, candidates int64, perSec float64, fields logrus.Fields) {
	l.with(fields, logrus.Fields{
		"tasks":                 tasks,
		"solved":                solved,
		"candidates":            candidates,
		"candidates_per_second": perSec,
		"uptime":                time.Since(l.startTime),
	}).Info("Statistics update")
}

func (l *Logger) with(extra, fields logrus.Fields) *logrus.Entry {
	merged := make(logrus.Fields, len(extra)+len(fields))
	for k, v := range extra {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return l.logger.WithFields(merged)
}

// Close closes the log file and removes files beyond MaxFiles
func (l *Logger) Close() error {
	if l.fileHandle == nil {
		return nil
	}
	if err := l.fileHandle.Close(); err != nil {
		return err
	}
	l.fileHandle = nil
	if err := NewLogManager(l.config.OutputDir, l.config.MaxFiles).CleanupOldLogs(); err != nil {
		return fmt.Errorf("failed to cleanup log files: %w", err)
	}
	return nil
}
