package downloader

import (
	"testing"
	"time"

	"squish/internal/progress"
)

func TestParseProgress(t *testing.T) {
	tests := []struct {
		name        string
		line        string
		wantOK      bool
		wantPercent float64
		wantSpeed   string
		wantETA     time.Duration
	}{
		{
			name:        "typical line",
			line:        "[download]  45.2% of 10.00MiB at  1.50MiB/s ETA 00:04",
			wantOK:      true,
			wantPercent: 45.2,
			wantSpeed:   "1.50MiB/s",
			wantETA:     4 * time.Second,
		},
		{
			name:        "completed",
			line:        "[download] 100.0% of 10.00MiB at  2.00MiB/s ETA 00:00",
			wantOK:      true,
			wantPercent: 100.0,
			wantSpeed:   "2.00MiB/s",
			wantETA:     0,
		},
		{
			name:   "non-download line",
			line:   "[info] Writing video metadata",
			wantOK: false,
		},
		{
			name:   "empty",
			line:   "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, ok := ParseProgress(tt.line, "job-1")
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if u.Stage != progress.StageDownloading {
				t.Errorf("stage = %v, want downloading", u.Stage)
			}
			if u.Percent != tt.wantPercent {
				t.Errorf("percent = %v, want %v", u.Percent, tt.wantPercent)
			}
			if tt.wantSpeed != "" {
				if u.Speed == nil || *u.Speed != tt.wantSpeed {
					t.Errorf("speed = %v, want %q", u.Speed, tt.wantSpeed)
				}
			}
			if u.ETA == nil || *u.ETA != tt.wantETA {
				t.Errorf("eta = %v, want %v", u.ETA, tt.wantETA)
			}
		})
	}
}

func TestParseETA(t *testing.T) {
	tests := []struct {
		s    string
		want time.Duration
	}{
		{s: "00:04", want: 4 * time.Second},
		{s: "01:30", want: 90 * time.Second},
		{s: "01:02:03", want: time.Hour + 2*time.Minute + 3*time.Second},
		{s: "45", want: 45 * time.Second},
	}
	for _, tt := range tests {
		got, err := parseETA(tt.s)
		if err != nil {
			t.Errorf("parseETA(%q) error: %v", tt.s, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseETA(%q) = %v, want %v", tt.s, got, tt.want)
		}
	}

	if _, err := parseETA("bogus"); err == nil {
		t.Error("expected error for non-numeric ETA")
	}
}
