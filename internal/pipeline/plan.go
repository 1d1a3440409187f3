package pipeline

import (
	"squish/internal/model"
	"squish/internal/util/bitrate"
)

// PlanHeight resolves the output height: an explicit --resolution wins
// verbatim, otherwise the bitrate ladder decides. The no-upscale check
// happens later, once the source dimensions are probed.
func PlanHeight(opts model.CLIOptions, budgetKbps int) (heightPx int, manual bool) {
	if opts.Resolution > 0 {
		return opts.Resolution, true
	}
	return bitrate.SelectHeight(budgetKbps), false
}
