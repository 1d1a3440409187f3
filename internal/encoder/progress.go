package encoder

import (
	"strconv"
	"strings"

	"squish/internal/progress"
)

// ProgressState accumulates values across ffmpeg -progress key=value lines;
// a "progress" marker line flushes them into an Update.
type ProgressState struct {
	OutTimeMs int64
	SpeedStr  string
	TotalSize int64
}

// UpdateFromLine updates the state from one -progress line and returns an
// Update when the flush marker is seen.
func (ps *ProgressState) UpdateFromLine(line string, jobID string, durationSec float64) (u progress.Update, ok bool) {
	kv := strings.SplitN(line, "=", 2)
	if len(kv) != 2 {
		return progress.Update{}, false
	}

	key := strings.TrimSpace(kv[0])
	val := strings.TrimSpace(kv[1])

	switch key {
	case "out_time_ms":
		if v, err := strconv.ParseInt(val, 10, 64); err == nil {
			ps.OutTimeMs = v
		}
	case "speed":
		ps.SpeedStr = val
	case "total_size":
		if v, err := strconv.ParseInt(val, 10, 64); err == nil {
			ps.TotalSize = v
		}
	case "progress":
		percent := -1.0
		if durationSec > 0 {
			// out_time_ms is in microseconds despite the name.
			den := durationSec * 1_000_000
			percent = (float64(ps.OutTimeMs) / den) * 100.0
			if percent > 100 {
				percent = 100
			}
		}

		var speedPtr *string
		if ps.SpeedStr != "" {
			s := ps.SpeedStr
			speedPtr = &s
		}

		var bytesPtr *int64
		if ps.TotalSize > 0 {
			b := ps.TotalSize
			bytesPtr = &b
		}

		return progress.Update{
			JobID:   jobID,
			Stage:   progress.StageEncoding,
			Percent: percent,
			Speed:   speedPtr,
			Bytes:   bytesPtr,
			Message: "Encoding",
		}, true
	}

	return progress.Update{}, false
}
