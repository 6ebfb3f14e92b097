package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/khanhnv2901/seca-recon/internal/checker"
)

func TestProgressPrinterLifecycle(t *testing.T) {
	var out bytes.Buffer
	printer := newProgressPrinter(&out, 0, "scan")
	if printer.total != 1 {
		t.Fatalf("expected total to be clamped to 1, got %d", printer.total)
	}

	printer.Start()
	printer.Increment(checker.StatusOpen)
	printer.Increment(checker.StatusClosed)
	printer.Increment(checker.StatusError)
	time.Sleep(350 * time.Millisecond) // allow ticker to tick at least once
	printer.Stop()

	output := out.String()
	if !strings.Contains(output, "Progress: 3/3") {
		t.Fatalf("expected summary progress, got %q", output)
	}
	if !strings.Contains(output, "Open:1") || !strings.Contains(output, "Closed:1") || !strings.Contains(output, "Error:1") {
		t.Fatalf("expected per-status counts in output, got %q", output)
	}
}
