package cmd

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/khanhnv2901/seca-recon/internal/checker"
)

type progressPrinter struct {
	out      io.Writer
	total    int
	name     string
	mu       sync.Mutex
	open     int
	closed   int
	failed   int
	updates  chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newProgressPrinter(out io.Writer, total int, name string) *progressPrinter {
	if total <= 0 {
		total = 1
	}
	return &progressPrinter{
		out:     out,
		total:   total,
		name:    name,
		updates: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

func (p *progressPrinter) Start() {
	go p.loop()
}

// Increment records one finished port by its status.
func (p *progressPrinter) Increment(status string) {
	p.mu.Lock()
	switch status {
	case checker.StatusOpen:
		p.open++
	case checker.StatusClosed:
		p.closed++
	default:
		p.failed++
	}
	p.mu.Unlock()

	select {
	case p.updates <- struct{}{}:
	default:
	}
}

func (p *progressPrinter) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
	})
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "\r%s\r", strings.Repeat(" ", 80))
	p.printLocked()
	fmt.Fprintln(p.out)
}

func (p *progressPrinter) loop() {
	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-p.updates:
			p.print()
		case <-ticker.C:
			p.print()
		case <-p.done:
			return
		}
	}
}

func (p *progressPrinter) print() {
	p.mu.Lock()
	defer p.mu.Unlock()
	select {
	case <-p.done:
		return
	default:
	}
	p.printLocked()
}

func (p *progressPrinter) printLocked() {
	completed := p.open + p.closed + p.failed
	if completed > p.total {
		p.total = completed
	}
	percent := (float64(completed) / float64(p.total)) * 100

	fmt.Fprintf(p.out, "\r[%s] Progress: %d/%d (%.1f%%) Open:%d Closed:%d Error:%d",
		p.name, completed, p.total, percent, p.open, p.closed, p.failed)
}
