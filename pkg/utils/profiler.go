/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: profiler.go
Description: CPU and heap profiling of a synthesis run. Profiles are written as
pprof files under a directory, one pair per run.
*/

package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/sirupsen/logrus"
)

// Profiler records a CPU profile between Start and Stop, then a heap profile
type Profiler struct {
	dir     string
	logger  logrus.FieldLogger
	cpuFile *os.File
	cpuPath string
	start   time.Time
}

// NewProfiler creates a profiler writing to dir
func NewProfiler(dir string, logger logrus.FieldLogger) *Profiler {
	return &Profiler{dir: dir, logger: logger}
}

// Start begins CPU profiling
func (p *Profiler) Start() error {
	if err := os.MkdirAll(p.dir, 0755); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}

	p.start = time.Now()
	p.cpuPath = filepath.Join(p.dir, fmt.Sprintf("cpu_%s.prof", p.start.Format("20060102_150405")))
	file, err := os.Create(p.cpuPath)
	if err != nil {
		return fmt.Errorf("failed to create CPU profile file: %w", err)
	}
	if err := pprof.StartCPUProfile(file); err != nil {
		file.Close()
		return fmt.Errorf("failed to start CPU profile: %w", err)
	}
	p.cpuFile = file
	p.logger.WithField("file", p.cpuPath).Info("CPU profiling started")
	return nil
}

// Stop ends CPU profiling and writes a heap profile. It returns the paths of
// both files.
func (p *Profiler) Stop() ([]string, error) {
	if p.cpuFile == nil {
		return nil, nil
	}
	pprof.StopCPUProfile()
	err := p.cpuFile.Close()
	p.cpuFile = nil
	if err != nil {
		return nil, fmt.Errorf("failed to close CPU profile: %w", err)
	}

	heapPath := filepath.Join(p.dir, fmt.Sprintf("heap_%s.prof", p.start.Format("20060102_150405")))
	file, err := os.Create(heapPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create heap profile file: %w", err)
	}
	defer file.Close()

	runtime.GC()
	if err := pprof.WriteHeapProfile(file); err != nil {
		return nil, fmt.Errorf("failed to write heap profile: %w", err)
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	p.logger.WithFields(logrus.Fields{
		"duration":    time.Since(p.start),
		"heap_alloc":  m.HeapAlloc,
		"num_gc":      m.NumGC,
		"goroutines":  runtime.NumGoroutine(),
		"cpu_profile": p.cpuPath,
	}).Info("Profiling stopped")
	return []string{p.cpuPath, heapPath}, nil
}
