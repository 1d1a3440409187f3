package format

import "testing"

func TestHumanizeBytes(t *testing.T) {
	tests := []struct {
		name string
		b    int64
		want string
	}{
		{name: "bytes", b: 512, want: "512 B"},
		{name: "kilobytes", b: 2048, want: "2.0 KB"},
		{name: "megabytes", b: 5 * 1024 * 1024, want: "5.0 MB"},
		{name: "fractional megabytes", b: 1572864, want: "1.5 MB"},
		{name: "gigabytes", b: 3 * 1024 * 1024 * 1024, want: "3.0 GB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HumanizeBytes(tt.b); got != tt.want {
				t.Errorf("HumanizeBytes(%d) = %q, want %q", tt.b, got, tt.want)
			}
		})
	}
}

func TestMB(t *testing.T) {
	tests := []struct {
		name string
		b    int64
		want int
	}{
		{name: "exact", b: 300 * 1024 * 1024, want: 300},
		{name: "floors down", b: 250*1024*1024 + 900*1024, want: 250},
		{name: "below one MB", b: 1024, want: 0},
		{name: "zero", b: 0, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MB(tt.b); got != tt.want {
				t.Errorf("MB(%d) = %d, want %d", tt.b, got, tt.want)
			}
		})
	}
}
