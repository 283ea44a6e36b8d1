package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/huichen/huoyan/utils"
)

func TestCandidatesMoscow(t *testing.T) {
	artifacts := testArtifacts(t, 1)
	ranker := testRanker(t)

	output := ranker.Candidates(artifacts, []string{"moscow"})
	utils.Expect(t, "1", len(output))
	assert.True(t, strings.HasPrefix(candidatesToString(output[0].Shortlist), "[E1 1 5] [E2 0.5 2] "),
		candidatesToString(output[0].Shortlist))
	utils.Expect(t, "E1", output[0].EntityIds[0])
	utils.Expect(t, "E2", output[0].EntityIds[1])
	utils.Expect(t, "0.5", round(output[0].Scores["E2"].Overlap, 2))
	utils.Expect(t, "2", output[0].Scores["E2"].Popularity)
}

func TestCandidatesMultiWordMention(t *testing.T) {
	artifacts := testArtifacts(t, 1)
	ranker := testRanker(t)

	output := ranker.Candidates(artifacts, []string{"moscow oblast", "saint petersburg"})
	utils.Expect(t, "2", len(output))
	// "moscow oblast"与E2的名称完全重合，与E1只重合一半
	assert.True(t, strings.HasPrefix(candidatesToString(output[0].Shortlist), "[E2 1 2] [E1 0.5 5] "),
		candidatesToString(output[0].Shortlist))
	utils.Expect(t, "E3", output[1].EntityIds[0])
}

func TestCandidatesStopwordOnlyMention(t *testing.T) {
	artifacts := testArtifacts(t, 1)
	ranker := testRanker(t)

	output := ranker.Candidates(artifacts, []string{"the of", "", "moscow"})
	utils.Expect(t, "3", len(output))
	utils.Expect(t, "0", len(output[0].Shortlist))
	utils.Expect(t, "[]", output[0].EntityIds)
	utils.Expect(t, "0", len(output[1].EntityIds))
	utils.Expect(t, "E1", output[2].EntityIds[0])

	utils.Expect(t, "0", len(ranker.Candidates(artifacts, nil)))
}

func TestCandidatesBounds(t *testing.T) {
	artifacts := testArtifacts(t, 1)
	ranker := NewRanker(RankerOptions{
		NumFaissCandidateEntities: 20,
		NumEntitiesForBertRanking: 3,
		NumEntitiesToReturn:       2,
	}, testStopTokens(t), nil, nil, nil)

	for _, mention := range []string{"moscow", "paris", "petrograd idaho", "zzz"} {
		output := ranker.Candidates(artifacts, []string{mention})[0]
		assert.LessOrEqual(t, len(output.Shortlist), 3, mention)
		assert.LessOrEqual(t, len(output.EntityIds), 2, mention)
		for _, c := range output.Shortlist {
			assert.GreaterOrEqual(t, c.OverlapScore, float32(0), mention)
			assert.LessOrEqual(t, c.OverlapScore, float32(1.0001), mention)
		}
	}
}

func TestCandidatesDeterministic(t *testing.T) {
	mentions := []string{"moscow", "the idaho", "petersburg moskva"}
	first := testRanker(t).Candidates(testArtifacts(t, 1), mentions)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, testRanker(t).Candidates(testArtifacts(t, 1), mentions))
	}
}

func TestCandidatesIVF(t *testing.T) {
	artifacts := testArtifacts(t, 3)
	ranker := testRanker(t)
	output := ranker.Candidates(artifacts, []string{"moscow"})
	utils.Expect(t, "E1", output[0].EntityIds[0])
}
