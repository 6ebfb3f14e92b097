package cmd

import (
	"testing"

	"github.com/fatih/color"
)

func TestFormatStatusWithColor(t *testing.T) {
	original := color.NoColor
	color.NoColor = true
	t.Cleanup(func() {
		color.NoColor = original
	})

	tests := []struct {
		name   string
		status string
		want   string
	}{
		{name: "open", status: "Open", want: "Open"},
		{name: "online", status: "Online", want: "Online"},
		{name: "closed", status: "Closed", want: "Closed"},
		{name: "failure", status: "Connection Error", want: "Connection Error"},
		{name: "unknown", status: "Response: 404", want: "Response: 404"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatStatusWithColor(tt.status); got != tt.want {
				t.Fatalf("formatStatusWithColor(%q) = %q, want %q", tt.status, got, tt.want)
			}
		})
	}
}
