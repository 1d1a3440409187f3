package encoder

import (
	"testing"

	"squish/internal/progress"
)

func TestProgressState_UpdateFromLine(t *testing.T) {
	var ps ProgressState

	if _, ok := ps.UpdateFromLine("out_time_ms=30000000", "job-1", 60); ok {
		t.Error("out_time_ms line should not flush an update")
	}
	if _, ok := ps.UpdateFromLine("speed=1.5x", "job-1", 60); ok {
		t.Error("speed line should not flush an update")
	}
	if _, ok := ps.UpdateFromLine("total_size=1048576", "job-1", 60); ok {
		t.Error("total_size line should not flush an update")
	}

	u, ok := ps.UpdateFromLine("progress=continue", "job-1", 60)
	if !ok {
		t.Fatal("progress marker should flush an update")
	}
	if u.Stage != progress.StageEncoding {
		t.Errorf("stage = %v, want encoding", u.Stage)
	}
	// 30s of 60s
	if u.Percent != 50 {
		t.Errorf("percent = %v, want 50", u.Percent)
	}
	if u.Speed == nil || *u.Speed != "1.5x" {
		t.Errorf("speed = %v, want 1.5x", u.Speed)
	}
	if u.Bytes == nil || *u.Bytes != 1048576 {
		t.Errorf("bytes = %v, want 1048576", u.Bytes)
	}
}

func TestProgressState_PercentCappedAt100(t *testing.T) {
	var ps ProgressState
	ps.UpdateFromLine("out_time_ms=90000000", "j", 60)
	u, ok := ps.UpdateFromLine("progress=end", "j", 60)
	if !ok {
		t.Fatal("expected update")
	}
	if u.Percent != 100 {
		t.Errorf("percent = %v, want capped at 100", u.Percent)
	}
}

func TestProgressState_UnknownDuration(t *testing.T) {
	var ps ProgressState
	u, ok := ps.UpdateFromLine("progress=continue", "j", 0)
	if !ok {
		t.Fatal("expected update")
	}
	if u.Percent >= 0 {
		t.Errorf("percent = %v, want negative (unknown)", u.Percent)
	}
}

func TestProgressState_IgnoresMalformedLines(t *testing.T) {
	var ps ProgressState
	for _, line := range []string{"", "frame 10", "noequals"} {
		if _, ok := ps.UpdateFromLine(line, "j", 60); ok {
			t.Errorf("line %q should not produce an update", line)
		}
	}
}
