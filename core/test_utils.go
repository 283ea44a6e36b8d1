package core

import (
	"fmt"

	"github.com/huichen/huoyan/types"
)

func candidatesToString(candidates []types.CandidateEntity) (output string) {
	for _, c := range candidates {
		output += fmt.Sprintf("[%v %v %v] ", c.EntityId, round(c.OverlapScore, 2), c.PopularityScore)
	}
	return
}

func entriesToString(entries []types.EntityEntry) (output string) {
	for _, e := range entries {
		output += fmt.Sprintf("%v/%v ", e.EntityId, e.CandidateLength)
	}
	return
}

func hitsToString(ids []int, scores []float32) (output string) {
	for i, id := range ids {
		output += fmt.Sprintf("%v:%v ", id, round(scores[i], 2))
	}
	return
}
