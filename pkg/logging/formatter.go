/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: formatter.go
Description: Log formatters for the synthesis tools. Line oriented output with
optional colours, sorted fields and a category prefix for synthesis events.
*/

package logging

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// CustomFormatter writes one readable line per entry
type CustomFormatter struct {
	Timestamp bool
	Caller    bool
	Colors    bool
}

// Format formats a log entry
func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	return f.format(entry, "", f.formatValue), nil
}

func (f *CustomFormatter) format(entry *logrus.Entry, prefix string, value func(string, interface{}) string) []byte {
	var output strings.Builder

	if f.Timestamp {
		f.write(&output, 36, entry.Time.Format("2006-01-02 15:04:05.000"))
	}

	f.write(&output, f.getLevelColor(entry.Level), strings.ToUpper(entry.Level.String()))

	if prefix != "" {
		f.write(&output, 35, "["+prefix+"]")
	}

	if f.Caller && entry.HasCaller() {
		f.write(&output, 33, fmt.Sprintf("[%s:%d]", entry.Caller.File, entry.Caller.Line))
	}

	output.WriteString(entry.Message)

	if len(entry.Data) > 0 {
		output.WriteString(" ")
		output.WriteString(f.formatFields(entry.Data, value))
	}

	output.WriteString("\n")
	return []byte(output.String())
}

func (f *CustomFormatter) write(b *strings.Builder, color int, s string) {
	if f.Colors {
		fmt.Fprintf(b, "\033[%dm%s\033[0m ", color, s)
		return
	}
	b.WriteString(s)
	b.WriteString(" ")
}

// getLevelColor returns the ANSI color code for a log level
func (f *CustomFormatter) getLevelColor(level logrus.Level) int {
	switch level {
	case logrus.DebugLevel:
		return 37 // White
	case logrus.InfoLevel:
		return 32 // Green
	case logrus.WarnLevel:
		return 33 // Yellow
	case logrus.ErrorLevel:
		return 31 // Red
	case logrus.FatalLevel, logrus.PanicLevel:
		return 35 // Magenta
	default:
		return 37
	}
}

// formatFields formats fields as key=value pairs in key order
func (f *CustomFormatter) formatFields(fields logrus.Fields, value func(string, interface{}) string) string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		formatted := value(key, fields[key])
		if f.Colors {
			parts = append(parts, fmt.Sprintf("\033[34m%s\033[0m=\033[32m%s\033[0m", key, formatted))
		} else {
			parts = append(parts, fmt.Sprintf("%s=%s", key, formatted))
		}
	}
	return strings.Join(parts, " ")
}

func (f *CustomFormatter) formatValue(_ string, value interface{}) string {
	switch v := value.(type) {
	case time.Duration:
		return v.String()
	case time.Time:
		return v.Format("15:04:05.000")
	case string:
		if len(v) > 80 {
			return v[:80] + "..."
		}
		return v
	case error:
		return v.Error()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// SynthFormatter prefixes synthesis events with their category
type SynthFormatter struct {
	CustomFormatter
}

// Format formats a log entry with a category prefix
func (f *SynthFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	return f.format(entry, Prefix(entry.Message), f.formatSynthValue), nil
}

// Prefix returns the category of a log message, empty for uncategorised ones
func Prefix(message string) string {
	switch {
	case strings.HasPrefix(message, "Grammar"):
		return "GRAMMAR"
	case strings.HasPrefix(message, "Constraint"):
		return "CONSTRAINT"
	case strings.HasPrefix(message, "Candidate"):
		return "CANDIDATE"
	case strings.HasPrefix(message, "Task solved"):
		return "SOLVE"
	case strings.HasPrefix(message, "Task timed out"):
		return "TIMEOUT"
	case strings.Contains(message, "Statistics"):
		return "STATS"
	case strings.Contains(message, "Task"):
		return "TASK"
	default:
		return ""
	}
}

func (f *SynthFormatter) formatSynthValue(key string, value interface{}) string {
	switch key {
	case "probability":
		if p, ok := value.(float64); ok {
			return fmt.Sprintf("%.3g", p)
		}
	case "candidates_per_second":
		if r, ok := value.(float64); ok {
			return fmt.Sprintf("%.2f/sec", r)
		}
	case "duration", "uptime":
		if d, ok := value.(time.Duration); ok {
			return d.Round(time.Millisecond).String()
		}
	case "program":
		// programs are never truncated
		if s, ok := value.(string); ok {
			return s
		}
	case "result_id":
		if s, ok := value.(string); ok && len(s) > 8 {
			return s[:8]
		}
	}
	return f.formatValue(key, value)
}
