package media

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOutputBasename(t *testing.T) {
	tests := []struct {
		name         string
		baseName     string
		heightPx     int
		targetSizeMB int
		want         string
	}{
		{name: "plain", baseName: "holiday", heightPx: 720, targetSizeMB: 1000, want: "holiday_720p_1000M"},
		{name: "spaces sanitized", baseName: "my vacation clip", heightPx: 480, targetSizeMB: 300, want: "my_vacation_clip_480p_300M"},
		{name: "forbidden chars sanitized", baseName: "a/b:c*d", heightPx: 360, targetSizeMB: 50, want: "a_b_c_d_360p_50M"},
		{name: "empty falls back", baseName: "", heightPx: 1080, targetSizeMB: 2000, want: "untitled_1080p_2000M"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OutputBasename(tt.baseName, tt.heightPx, tt.targetSizeMB); got != tt.want {
				t.Errorf("OutputBasename(%q, %d, %d) = %q, want %q", tt.baseName, tt.heightPx, tt.targetSizeMB, got, tt.want)
			}
		})
	}
}

func TestRenameForActualSize_Smaller(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "clip_720p_300M.mp4")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := RenameForActualSize(path, 300, 250*1024*1024)
	if err != nil {
		t.Fatalf("RenameForActualSize error: %v", err)
	}
	want := filepath.Join(tmp, "clip_720p_250M.mp4")
	if got != want {
		t.Errorf("renamed path = %q, want %q", got, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("renamed file missing: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("old file still present")
	}
}

func TestRenameForActualSize_LargerKeepsName(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "clip_720p_300M.mp4")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := RenameForActualSize(path, 300, 320*1024*1024)
	if err != nil {
		t.Fatalf("RenameForActualSize error: %v", err)
	}
	if got != path {
		t.Errorf("oversized output renamed to %q, want unchanged", got)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("original file missing: %v", err)
	}
}

func TestRenameForActualSize_ExactSizeKeepsName(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "clip_480p_100M.mp4")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := RenameForActualSize(path, 100, 100*1024*1024)
	if err != nil {
		t.Fatalf("RenameForActualSize error: %v", err)
	}
	if got != path {
		t.Errorf("exact-size output renamed to %q, want unchanged", got)
	}
}

func TestRenameForActualSize_ForeignNameUntouched(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "custom-name.mp4")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := RenameForActualSize(path, 300, 10*1024*1024)
	if err != nil {
		t.Fatalf("RenameForActualSize error: %v", err)
	}
	if got != path {
		t.Errorf("foreign name renamed to %q, want unchanged", got)
	}
}
