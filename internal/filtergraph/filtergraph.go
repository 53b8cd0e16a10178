// Package filtergraph builds ffmpeg filter-graph expressions for media jobs.
//
// Everything here is pure string construction: the functions take typed job
// parameters and return the expression passed to -filter_complex or -vf.
// Input stream 0 is always the primary video, so audio segment i is input i+1.
package filtergraph

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// MixLabel is the output label of the audio mix clause.
const MixLabel = "[aout]"

// AudioMix returns the -filter_complex expression that delays each audio
// segment by its offset and mixes all delayed segments into MixLabel.
// delays[i] is the offset in seconds of input i+1. An empty slice yields "".
//
// Example for delays [2.5]:
//
//	[1:a]adelay=2500|2500[a0];[a0]amix=inputs=1[aout]
func AudioMix(delays []float64) string {
	if len(delays) == 0 {
		return ""
	}

	clauses := make([]string, 0, len(delays)+1)
	for i, d := range delays {
		ms := DelayMillis(d)
		clauses = append(clauses, fmt.Sprintf("[%d:a]adelay=%d|%d%s", i+1, ms, ms, segmentLabel(i)))
	}

	labels := lo.Map(delays, func(_ float64, i int) string { return segmentLabel(i) })
	clauses = append(clauses, fmt.Sprintf("%samix=inputs=%d%s", strings.Join(labels, ""), len(delays), MixLabel))

	return strings.Join(clauses, ";")
}

// DelayMillis converts a delay in seconds to whole milliseconds, rounding to
// the nearest millisecond.
func DelayMillis(seconds float64) int64 {
	return int64(math.Round(seconds * 1000))
}

func segmentLabel(i int) string {
	return "[a" + strconv.Itoa(i) + "]"
}

// formatSeconds renders a time value the way a human would write it:
// 1 -> "1", 1.5 -> "1.5".
func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
