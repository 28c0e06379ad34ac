/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: report_writer.go
Description: Writes search reports as JSON files. Reports are grouped by kind
in subdirectories and named with a timestamp and a version.
*/

package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
)

// WriteReport writes result to <dir>/<kind>/<timestamp>_<kind>_v<version>.json
func WriteReport(dir, kind, version string, result interface{}) (string, error) {
	reportDir := filepath.Join(dir, kind)
	if err := os.MkdirAll(reportDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	// 2026-06-11_01-30-00_solve_v1.0.0.json
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	path := filepath.Join(reportDir, fmt.Sprintf("%s_%s_v%s.json", timestamp, kind, version))

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	return path, nil
}

// ReadReport decodes a report written by WriteReport
func ReadReport(path string, into interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read report file: %w", err)
	}
	if err := json.Unmarshal(data, into); err != nil {
		return fmt.Errorf("failed to decode report %s: %w", path, err)
	}
	return nil
}
