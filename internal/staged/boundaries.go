package staged

import (
	"vardrill/domain/spc"
)

// GetStageBoundaries emits one boundary per maximal run of identical stage
// labels in the stage-sorted sequence. Runs of rows without a known stage
// are skipped.
func GetStageBoundaries(indexed []IndexedRow, staged spc.StagedStatsResult) []spc.StageBoundary {
	var out []spc.StageBoundary
	start := 0
	for i := 1; i <= len(indexed); i++ {
		if i < len(indexed) && indexed[i].Stage == indexed[start].Stage {
			continue
		}
		name := indexed[start].Stage
		if st, ok := staged.PerStage[name]; ok {
			out = append(out, spc.StageBoundary{
				Name:   name,
				StartX: start,
				EndX:   i - 1,
				Stats:  st,
			})
		}
		start = i
	}
	return out
}
