package core

import (
	"context"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/huichen/huoyan/types"
)

const (
	// 重排序后最多保留的实体数
	NumRerankedEntities = 10

	// 相关度不高于该值的实体被丢弃
	minRerankScore = 0.1

	EntityMarker = "[ENT]"
)

// 用提及的上下文对候选重新排序
type DescriptionRanker struct {
	reranker       types.Reranker
	includeMention bool
	numToReturn    int
	logger         *zap.Logger
}

func NewDescriptionRanker(reranker types.Reranker, includeMention bool, numToReturn int, logger *zap.Logger) *DescriptionRanker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DescriptionRanker{
		reranker:       reranker,
		includeMention: includeMention,
		numToReturn:    numToReturn,
		logger:         logger,
	}
}

// 把提及替换为[ENT]标记（或用两个标记包住提及）后的上下文
func (ranker *DescriptionRanker) MentionContext(positions []int, contextTokens []string) string {
	if len(positions) == 0 {
		return strings.Join(contextTokens, " ")
	}
	first := min(max(positions[0], 0), len(contextTokens))
	last := min(max(positions[len(positions)-1]+1, first), len(contextTokens))

	tokens := make([]string, 0, len(contextTokens)+2)
	tokens = append(tokens, contextTokens[:first]...)
	tokens = append(tokens, EntityMarker)
	if ranker.includeMention {
		tokens = append(tokens, contextTokens[first:last]...)
		tokens = append(tokens, EntityMarker)
	}
	tokens = append(tokens, contextTokens[last:]...)
	return strings.Join(tokens, " ")
}

// 对每个提及的候选重新排序，返回每个提及的实体编号
func (ranker *DescriptionRanker) Rank(ctx context.Context, positions [][]int, candidates []MentionCandidates,
	contextTokens []string) ([][]string, error) {
	output := make([][]string, len(candidates))
	for i, mention := range candidates {
		var mentionPositions []int
		if i < len(positions) {
			mentionPositions = positions[i]
		}
		ids, err := ranker.rankMention(ctx, mentionPositions, mention, contextTokens)
		if err != nil {
			return nil, err
		}
		output[i] = ids
	}
	return output, nil
}

func (ranker *DescriptionRanker) rankMention(ctx context.Context, positions []int, mention MentionCandidates,
	contextTokens []string) ([]string, error) {
	if len(mention.Shortlist) == 0 {
		return []string{}, nil
	}
	context := ranker.MentionContext(positions, contextTokens)
	ranker.logger.Debug("rerank context", zap.String("context", context), zap.Int("num_candidates", len(mention.Shortlist)))

	results, err := ranker.reranker.RankEntities(ctx, context, types.EntityIds(mention.Shortlist))
	if err != nil {
		return nil, types.WrapError(err, types.ErrCodeCollaborator, "rerank")
	}

	candidates := types.RerankedCandidates{}
	for _, result := range results {
		scores, found := mention.Scores[result.EntityId]
		if !found {
			continue
		}
		candidate := types.CandidateEntity{
			EntityId:        result.EntityId,
			OverlapScore:    round(scores.Overlap, 2),
			PopularityScore: scores.Popularity,
			RerankScore:     round(result.Score, 2),
		}
		if candidate.RerankScore > minRerankScore {
			candidates = append(candidates, candidate)
		}
	}
	sort.Stable(candidates)

	limit := min(NumRerankedEntities, ranker.numToReturn)
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return types.EntityIds(candidates), nil
}

// 四舍五入到小数点后 digits 位
func round(x float32, digits int) float32 {
	p := math.Pow10(digits)
	return float32(math.Round(float64(x)*p) / p)
}
