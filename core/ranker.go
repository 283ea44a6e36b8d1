package core

import (
	"sort"

	"go.uber.org/zap"

	"github.com/huichen/huoyan/nlp"
	"github.com/huichen/huoyan/types"
)

type RankerOptions struct {
	// 每个词检索的近邻数
	NumFaissCandidateEntities int

	// 送入重排序的候选数
	NumEntitiesForBertRanking int

	// 返回的实体数
	NumEntitiesToReturn int
}

// 候选实体生成与评分
type Ranker struct {
	options    RankerOptions
	stopTokens *nlp.StopTokens
	normalizer types.Normalizer

	// 为空时按单个空格切分提及
	tokenizer nlp.Tokenizer

	logger *zap.Logger
}

// 一个提及的候选
type MentionCandidates struct {
	// 排序后的候选，最多 NumEntitiesForBertRanking 个
	Shortlist []types.CandidateEntity

	// 排序后的实体编号，最多 NumEntitiesToReturn 个
	EntityIds []string

	// 全部候选的(重合度, 流行度)
	Scores map[string]types.EntityScores
}

func NewRanker(options RankerOptions, stopTokens *nlp.StopTokens, normalizer types.Normalizer,
	tokenizer nlp.Tokenizer, logger *zap.Logger) *Ranker {
	if stopTokens == nil {
		stopTokens = &nlp.StopTokens{}
	}
	if normalizer == nil {
		normalizer = nlp.IdentityNormalizer{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ranker{
		options:    options,
		stopTokens: stopTokens,
		normalizer: normalizer,
		tokenizer:  tokenizer,
		logger:     logger,
	}
}

// 提及切分后去掉停用词并归一化
func (ranker *Ranker) mentionWords(mention string) []string {
	var tokens []string
	if ranker.tokenizer != nil {
		tokens = ranker.tokenizer.Tokenize(mention)
	} else {
		tokens = nlp.SplitOnSpace(mention)
	}
	words := []string{}
	for _, token := range tokens {
		if token == "" || ranker.stopTokens.IsStopToken(token) {
			continue
		}
		words = append(words, ranker.normalizer.Normalize(token))
	}
	return words
}

// 为一组提及生成候选实体
//
// 全部提及的词在一次批量检索中完成。没有剩余词的提及得到空的候选。
func (ranker *Ranker) Candidates(artifacts *Artifacts, mentions []string) []MentionCandidates {
	output := make([]MentionCandidates, len(mentions))
	if len(mentions) == 0 {
		return output
	}

	words := []string{}
	owners := []int{}
	mentionLengths := make([]int, len(mentions))
	for i, mention := range mentions {
		mentionWords := ranker.mentionWords(mention)
		mentionLengths[i] = len(mentionWords)
		for _, word := range mentionWords {
			words = append(words, word)
			owners = append(owners, i)
		}
	}
	ranker.logger.Debug("mention words", zap.Strings("words", words), zap.Ints("owners", owners))

	var hitIds [][]int
	var hitScores [][]float32
	if len(words) > 0 {
		hitIds, hitScores = artifacts.Index.Search(artifacts.Vectorizer.Transform(words), ranker.options.NumFaissCandidateEntities)
	}

	// 每个提及按出现顺序累加(实体, 词数)的得分
	sums := make([]*orderedScores, len(mentions))
	for i := range sums {
		sums[i] = newOrderedScores()
	}
	for w := range words {
		best := newOrderedScores()
		for h, id := range hitIds[w] {
			if id < 0 || id >= len(artifacts.WordRanges) {
				continue
			}
			score := hitScores[w][h]
			r := artifacts.WordRanges[id]
			for _, entry := range artifacts.EntityList[r.Start:r.End] {
				best.max(entry, score)
			}
		}
		for _, entry := range best.keys {
			sums[owners[w]].add(entry, best.values[entry])
		}
	}

	for i := range mentions {
		output[i] = ranker.scoreMention(artifacts, sums[i], mentionLengths[i])
	}
	return output
}

func (ranker *Ranker) scoreMention(artifacts *Artifacts, sums *orderedScores, mentionLength int) MentionCandidates {
	// 每个实体取重合度最高的名称
	overlaps := make(map[string]float32)
	order := []string{}
	for _, entry := range sums.keys {
		length := float32(entry.CandidateLength)
		sum := sums.values[entry]
		if sum > length {
			sum = length
		}
		denominator := length
		if float32(mentionLength) > denominator {
			denominator = float32(mentionLength)
		}
		overlap := sum / denominator
		if previous, found := overlaps[entry.EntityId]; !found {
			overlaps[entry.EntityId] = overlap
			order = append(order, entry.EntityId)
		} else if overlap > previous {
			overlaps[entry.EntityId] = overlap
		}
	}

	candidates := make(types.ScoredCandidates, len(order))
	scores := make(map[string]types.EntityScores, len(order))
	for i, entityId := range order {
		candidates[i] = types.CandidateEntity{
			EntityId:        entityId,
			OverlapScore:    overlaps[entityId],
			PopularityScore: artifacts.Popularity.Score(entityId),
		}
		scores[entityId] = types.EntityScores{
			Overlap:    candidates[i].OverlapScore,
			Popularity: candidates[i].PopularityScore,
		}
	}
	sort.Stable(candidates)

	shortlist := []types.CandidateEntity(candidates)
	if len(shortlist) > ranker.options.NumEntitiesForBertRanking {
		shortlist = shortlist[:ranker.options.NumEntitiesForBertRanking]
	}
	ids := types.EntityIds(shortlist)
	if len(ids) > ranker.options.NumEntitiesToReturn {
		ids = ids[:ranker.options.NumEntitiesToReturn]
	}
	return MentionCandidates{Shortlist: shortlist, EntityIds: ids, Scores: scores}
}

// 保留插入顺序的得分表
type orderedScores struct {
	keys   []types.EntityEntry
	values map[types.EntityEntry]float32
}

func newOrderedScores() *orderedScores {
	return &orderedScores{values: make(map[types.EntityEntry]float32)}
}

func (s *orderedScores) max(key types.EntityEntry, score float32) {
	if previous, found := s.values[key]; !found {
		s.keys = append(s.keys, key)
		s.values[key] = score
	} else if score > previous {
		s.values[key] = score
	}
}

func (s *orderedScores) add(key types.EntityEntry, score float32) {
	if _, found := s.values[key]; !found {
		s.keys = append(s.keys, key)
	}
	s.values[key] += score
}
