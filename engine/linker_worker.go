package engine

import (
	"context"
	"time"

	"github.com/huichen/huoyan/core"
	"github.com/huichen/huoyan/types"
)

type linkerRequest struct {
	ctx                 context.Context
	index               int
	mentions            []types.Mention
	contextTokens       []string
	linkerReturnChannel chan linkerReturnRequest
}

type linkerReturnRequest struct {
	index     int
	entityIds [][]string
	err       error
}

func (engine *Engine) linkerWorker() {
	for {
		select {
		case request := <-engine.linkerChannel:
			entityIds, err := engine.linkEntities(request.ctx, request.mentions, request.contextTokens)
			request.linkerReturnChannel <- linkerReturnRequest{index: request.index, entityIds: entityIds, err: err}
		case <-engine.done:
			return
		}
	}
}

// 链接一个文本块中的全部提及
func (engine *Engine) linkEntities(ctx context.Context, mentions []types.Mention, contextTokens []string) ([][]string, error) {
	texts := make([]string, len(mentions))
	positions := make([][]int, len(mentions))
	for i, mention := range mentions {
		texts[i] = lower(mention.Text)
		positions[i] = mention.Positions
	}

	candidates := engine.candidates(texts)
	for _, c := range candidates {
		if len(c.Shortlist) == 0 {
			engine.metrics.emptyCandidates.Inc()
		}
	}
	engine.metrics.mentions.Add(float64(len(mentions)))

	if engine.descriptionRanker == nil {
		entityIds := make([][]string, len(candidates))
		for i, c := range candidates {
			entityIds[i] = c.EntityIds
		}
		return entityIds, nil
	}

	start := time.Now()
	entityIds, err := engine.descriptionRanker.Rank(ctx, positions, candidates, contextTokens)
	engine.metrics.rerankDuration.Observe(time.Since(start).Seconds())
	return entityIds, err
}

// 生成候选，已缓存的提及直接返回
// 缓存中的候选不可修改，存入和取出时都复制一份
func (engine *Engine) candidates(texts []string) []core.MentionCandidates {
	if engine.candidateCache == nil {
		return engine.ranker.Candidates(engine.artifacts, texts)
	}

	output := make([]core.MentionCandidates, len(texts))
	misses := []string{}
	missIndexes := []int{}
	for i, text := range texts {
		if cached, found := engine.candidateCache.Get(text); found {
			output[i] = cloneCandidates(cached)
			continue
		}
		misses = append(misses, text)
		missIndexes = append(missIndexes, i)
	}
	if len(misses) == 0 {
		return output
	}
	for j, candidates := range engine.ranker.Candidates(engine.artifacts, misses) {
		output[missIndexes[j]] = candidates
		engine.candidateCache.Add(misses[j], cloneCandidates(candidates))
	}
	return output
}

func cloneCandidates(candidates core.MentionCandidates) core.MentionCandidates {
	output := core.MentionCandidates{
		Shortlist: append(candidates.Shortlist[:0:0], candidates.Shortlist...),
		EntityIds: append(candidates.EntityIds[:0:0], candidates.EntityIds...),
	}
	if candidates.Scores != nil {
		output.Scores = make(map[string]types.EntityScores, len(candidates.Scores))
		for id, scores := range candidates.Scores {
			output.Scores[id] = scores
		}
	}
	return output
}
