/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: progress.go
Description: Single line progress bar for long running commands. Drawn only
when the output is a terminal.
*/

package utils

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

const (
	defaultWidth = 80
	minBar       = 10
)

// Progress draws done/total as a bar on one terminal line
type Progress struct {
	mu      sync.Mutex
	out     io.Writer
	label   string
	width   int
	enabled bool
	drawn   bool
	done    int
	total   int
}

// ProgressOption configures a Progress
type ProgressOption func(*Progress)

// WithWidth fixes the line width and draws even when out is not a terminal
func WithWidth(width int) ProgressOption {
	return func(p *Progress) {
		p.width = width
		p.enabled = true
	}
}

// NewProgress creates a progress bar writing to out
func NewProgress(out io.Writer, label string, total int, opts ...ProgressOption) *Progress {
	p := &Progress{out: out, label: label, total: total, width: defaultWidth}
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.enabled = true
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			p.width = w
		}
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Enabled reports whether anything is drawn
func (p *Progress) Enabled() bool { return p.enabled }

// Update sets the progress; it matches the constraint compiler's callback
func (p *Progress) Update(done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done, p.total = done, total
	p.draw()
}

// Add advances the progress by n
func (p *Progress) Add(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done += n
	p.draw()
}

// Finish ends the progress line
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.drawn {
		fmt.Fprintln(p.out)
		p.drawn = false
	}
}

func (p *Progress) draw() {
	if !p.enabled {
		return
	}
	done := p.done
	if p.total > 0 && done > p.total {
		done = p.total
	}
	counts := fmt.Sprintf(" %d/%d", done, p.total)
	bar := p.width - len(p.label) - len(counts) - 3
	if bar < minBar {
		bar = minBar
	}
	filled := 0
	if p.total > 0 {
		filled = bar * done / p.total
	}
	fmt.Fprintf(p.out, "\r%s [%s%s]%s", p.label, strings.Repeat("=", filled), strings.Repeat(" ", bar-filled), counts)
	p.drawn = true
}
