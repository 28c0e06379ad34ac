/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utils.go
Description: Log file management and analysis. Retention of old log files and
counting of synthesis events across a log directory.
*/

package logging

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// LogManager applies the retention policy of a log directory
type LogManager struct {
	logDir   string
	maxFiles int
}

// NewLogManager creates a new log manager
func NewLogManager(logDir string, maxFiles int) *LogManager {
	return &LogManager{logDir: logDir, maxFiles: maxFiles}
}

func (lm *LogManager) files() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(lm.logDir, filePrefix+"*.log"))
	if err != nil {
		return nil, fmt.Errorf("failed to glob log files: %w", err)
	}
	return files, nil
}

// CleanupOldLogs removes the oldest log files beyond maxFiles
func (lm *LogManager) CleanupOldLogs() error {
	files, err := lm.files()
	if err != nil {
		return err
	}
	if len(files) <= lm.maxFiles {
		return nil
	}

	// File names embed their creation time
	sort.Strings(files)
	for _, file := range files[:len(files)-lm.maxFiles] {
		if err := os.Remove(file); err != nil {
			return fmt.Errorf("failed to remove file %s: %w", file, err)
		}
	}
	return nil
}

// GetLogStats returns statistics about log files
func (lm *LogManager) GetLogStats() (*LogStats, error) {
	files, err := lm.files()
	if err != nil {
		return nil, err
	}

	stats := &LogStats{TotalFiles: len(files)}
	for _, file := range files {
		stat, err := os.Stat(file)
		if err != nil {
			continue
		}
		stats.TotalSize += stat.Size()
		if stats.OldestFile.IsZero() || stat.ModTime().Before(stats.OldestFile) {
			stats.OldestFile = stat.ModTime()
		}
		if stat.ModTime().After(stats.NewestFile) {
			stats.NewestFile = stat.ModTime()
		}
	}
	return stats, nil
}

// LogStats holds statistics about log files
type LogStats struct {
	TotalFiles int       `json:"total_files"`
	TotalSize  int64     `json:"total_size"`
	OldestFile time.Time `json:"oldest_file"`
	NewestFile time.Time `json:"newest_file"`
}

// LogAnalyzer counts synthesis events in a log directory
type LogAnalyzer struct {
	logDir string
}

// NewLogAnalyzer creates a new log analyzer
func NewLogAnalyzer(logDir string) *LogAnalyzer {
	return &LogAnalyzer{logDir: logDir}
}

// AnalyzeLogs reads every log file of the directory
func (la *LogAnalyzer) AnalyzeLogs() (*LogAnalysis, error) {
	files, err := NewLogManager(la.logDir, 0).files()
	if err != nil {
		return nil, err
	}

	analysis := &LogAnalysis{LogFiles: len(files)}
	for _, file := range files {
		if err := la.analyzeFile(file, analysis); err != nil {
			return nil, fmt.Errorf("failed to analyze file %s: %w", file, err)
		}
	}
	return analysis, nil
}

func (la *LogAnalyzer) analyzeFile(path string, analysis *LogAnalysis) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		analysis.analyzeLine(scanner.Text())
	}
	return scanner.Err()
}

func (a *LogAnalysis) analyzeLine(line string) {
	a.TotalLines++

	switch {
	case strings.Contains(line, "ERROR"), strings.Contains(line, `"level":"error"`):
		a.ErrorCount++
	case strings.Contains(line, "WARN"), strings.Contains(line, `"level":"warning"`):
		a.WarningCount++
	}

	switch {
	case strings.Contains(line, "Task solved"):
		a.SolvedCount++
	case strings.Contains(line, "Task timed out"):
		a.TimeoutCount++
	case strings.Contains(line, "Task not solved"):
		a.UnsolvedCount++
	case strings.Contains(line, "Candidate"):
		a.CandidateCount++
	case strings.Contains(line, "Grammar built"):
		a.GrammarCount++
	}
}

// LogAnalysis holds the results of log analysis
type LogAnalysis struct {
	LogFiles       int   `json:"log_files"`
	TotalLines     int64 `json:"total_lines"`
	WarningCount   int64 `json:"warning_count"`
	ErrorCount     int64 `json:"error_count"`
	GrammarCount   int64 `json:"grammar_count"`
	CandidateCount int64 `json:"candidate_count"`
	SolvedCount    int64 `json:"solved_count"`
	TimeoutCount   int64 `json:"timeout_count"`
	UnsolvedCount  int64 `json:"unsolved_count"`
}

// GetLogSummary returns a summary of the log analysis
func (a *LogAnalysis) GetLogSummary() string {
	return fmt.Sprintf(
		"Log Analysis Summary:\n"+
			"  Files: %d\n"+
			"  Total Lines: %d\n"+
			"  Warnings: %d\n"+
			"  Errors: %d\n"+
			"  Grammars: %d\n"+
			"  Candidates: %d\n"+
			"  Solved: %d\n"+
			"  Timed out: %d\n"+
			"  Not solved: %d",
		a.LogFiles, a.TotalLines, a.WarningCount, a.ErrorCount, a.GrammarCount,
		a.CandidateCount, a.SolvedCount, a.TimeoutCount, a.UnsolvedCount,
	)
}
