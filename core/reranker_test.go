package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huichen/huoyan/types"
	"github.com/huichen/huoyan/utils"
)

type fixedReranker struct {
	scores   map[string]float32
	contexts []string
	err      error
}

func (r *fixedReranker) RankEntities(ctx context.Context, context string, entityIds []string) ([]types.RerankResult, error) {
	r.contexts = append(r.contexts, context)
	if r.err != nil {
		return nil, r.err
	}
	results := []types.RerankResult{}
	for _, id := range entityIds {
		if score, found := r.scores[id]; found {
			results = append(results, types.RerankResult{EntityId: id, Score: score})
		}
	}
	return results, nil
}

func mentionCandidates(candidates ...types.CandidateEntity) MentionCandidates {
	output := MentionCandidates{Shortlist: candidates, Scores: map[string]types.EntityScores{}}
	for _, c := range candidates {
		output.Scores[c.EntityId] = types.EntityScores{Overlap: c.OverlapScore, Popularity: c.PopularityScore}
	}
	output.EntityIds = types.EntityIds(candidates)
	return output
}

func TestMentionContext(t *testing.T) {
	tokens := []string{"I", "live", "in", "New", "York", "now"}
	ranker := NewDescriptionRanker(nil, false, 10, nil)
	utils.Expect(t, "I live in [ENT] now", ranker.MentionContext([]int{3, 4}, tokens))
	utils.Expect(t, "[ENT] live in New York now", ranker.MentionContext([]int{0}, tokens))
	utils.Expect(t, "I live in New York now", ranker.MentionContext(nil, tokens))

	ranker = NewDescriptionRanker(nil, true, 10, nil)
	utils.Expect(t, "I live in [ENT] New York [ENT] now", ranker.MentionContext([]int{3, 4}, tokens))
	utils.Expect(t, "I live in New York [ENT] now [ENT]", ranker.MentionContext([]int{5, 9}, tokens))
}

func TestRankByDescription(t *testing.T) {
	reranker := &fixedReranker{scores: map[string]float32{"E1": 0.3, "E2": 0.9, "E3": 0.05, "E4": 0.104}}
	ranker := NewDescriptionRanker(reranker, false, 10, nil)

	candidates := mentionCandidates(
		types.CandidateEntity{EntityId: "E1", OverlapScore: 1, PopularityScore: 5},
		types.CandidateEntity{EntityId: "E2", OverlapScore: 0.999, PopularityScore: 1},
		types.CandidateEntity{EntityId: "E3", OverlapScore: 1, PopularityScore: 9},
		types.CandidateEntity{EntityId: "E4", OverlapScore: 1, PopularityScore: 9},
		types.CandidateEntity{EntityId: "E5", OverlapScore: 1, PopularityScore: 9},
	)
	output, err := ranker.Rank(context.Background(), [][]int{{1}}, []MentionCandidates{candidates},
		[]string{"visit", "moscow", "today"})
	require.NoError(t, err)
	// E2的重合度四舍五入后为1，按重排序得分排在E1前面
	// E3的得分0.05和E4的得分0.10都不高于阈值，E5没有得分
	utils.Expect(t, "[[E2 E1]]", output)
	utils.Expect(t, "[visit [ENT] today]", reranker.contexts)
}

func TestRankByDescriptionBounded(t *testing.T) {
	scores := map[string]float32{}
	candidates := []types.CandidateEntity{}
	for i := 0; i < 30; i++ {
		id := string(rune('a' + i%26)) + string(rune('A'+i/26))
		scores[id] = 0.5
		candidates = append(candidates, types.CandidateEntity{EntityId: id, OverlapScore: 1, PopularityScore: float32(i)})
	}
	ranker := NewDescriptionRanker(&fixedReranker{scores: scores}, false, 10, nil)
	output, err := ranker.Rank(context.Background(), [][]int{{0}}, []MentionCandidates{mentionCandidates(candidates...)}, []string{"x"})
	require.NoError(t, err)
	utils.Expect(t, "10", len(output[0]))
	// 相同重合度和得分时流行度高的在前
	utils.Expect(t, candidates[29].EntityId, output[0][0])

	ranker = NewDescriptionRanker(&fixedReranker{scores: scores}, false, 3, nil)
	output, err = ranker.Rank(context.Background(), [][]int{{0}}, []MentionCandidates{mentionCandidates(candidates...)}, []string{"x"})
	require.NoError(t, err)
	utils.Expect(t, "3", len(output[0]))
}

func TestRankByDescriptionEmptyAndErrors(t *testing.T) {
	reranker := &fixedReranker{}
	ranker := NewDescriptionRanker(reranker, false, 10, nil)
	output, err := ranker.Rank(context.Background(), [][]int{{0}}, []MentionCandidates{mentionCandidates()}, []string{"x"})
	require.NoError(t, err)
	utils.Expect(t, "[[]]", output)
	utils.Expect(t, "0", len(reranker.contexts))

	reranker.err = errors.New("model unavailable")
	_, err = ranker.Rank(context.Background(), [][]int{{0}},
		[]MentionCandidates{mentionCandidates(types.CandidateEntity{EntityId: "E1", OverlapScore: 1})}, []string{"x"})
	assert.True(t, types.IsCode(err, types.ErrCodeCollaborator))
	assert.ErrorIs(t, err, reranker.err)
}

func TestRound(t *testing.T) {
	utils.Expect(t, "0.1", round(0.104, 2))
	utils.Expect(t, "0.11", round(0.105001, 2))
	utils.Expect(t, "0.5", round(0.5, 2))
	utils.Expect(t, "1", round(0.999, 2))
}
