package core

import (
	"context"
	"strings"

	"github.com/huichen/murmur"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/huichen/huoyan/nlp"
	"github.com/huichen/huoyan/types"
)

type IndexBuilderOptions struct {
	LabelRelation       string
	AliasRelations      []string
	DescriptionRelation string

	// 只保留没有语言标签或语言标签与之相同的名称
	Lang string

	NumShards int
}

// 从知识库构建反向索引
type IndexBuilder struct {
	options    IndexBuilderOptions
	tokenizer  nlp.Tokenizer
	stopTokens *nlp.StopTokens
	normalizer types.Normalizer
	logger     *zap.Logger
}

// 构建结果
type IndexData struct {
	WordIndex  types.WordIndex
	EntityList []types.EntityEntry

	// 按区间顺序排列的词，第i个词对应近邻索引的第i个向量
	WordList []string

	Popularity   types.PopularityTable
	Names        map[string]string
	Descriptions map[string]string
}

// 实体的一个名称（标签或别名）
type entityPhrase struct {
	entityId string
	text     string
}

// 一个名称切分后得到的词，所有词共享该名称的词数
type phrasePostings struct {
	words           []string
	candidateLength int
}

func NewIndexBuilder(options IndexBuilderOptions, tokenizer nlp.Tokenizer, stopTokens *nlp.StopTokens,
	normalizer types.Normalizer, logger *zap.Logger) *IndexBuilder {
	if options.NumShards < 1 {
		options.NumShards = 1
	}
	if tokenizer == nil {
		tokenizer = nlp.RegexpTokenizer{}
	}
	if normalizer == nil {
		normalizer = nlp.IdentityNormalizer{}
	}
	if stopTokens == nil {
		stopTokens = &nlp.StopTokens{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IndexBuilder{
		options:    options,
		tokenizer:  tokenizer,
		stopTokens: stopTokens,
		normalizer: normalizer,
		logger:     logger,
	}
}

func (builder *IndexBuilder) Build(ctx context.Context, kb types.KnowledgeBase) (*IndexData, error) {
	phrases, names, err := builder.collectPhrases(ctx, kb)
	if err != nil {
		return nil, err
	}
	builder.logger.Info("collected entity names",
		zap.Int("num_phrases", len(phrases)),
		zap.Int("num_entities", len(names)))

	postings, err := builder.tokenizeShards(ctx, phrases)
	if err != nil {
		return nil, err
	}

	data := &IndexData{Names: names}
	data.WordIndex, data.EntityList, data.WordList = mergePostings(phrases, postings)

	data.Descriptions = make(map[string]string)
	if builder.options.DescriptionRelation != "" {
		triples, err := kb.LookupRelations(ctx, builder.options.DescriptionRelation)
		if err != nil {
			return nil, types.WrapError(err, types.ErrCodeCollaborator, "lookup %s", builder.options.DescriptionRelation)
		}
		for _, triple := range builder.filterLang(triples) {
			if _, found := data.Descriptions[triple.Subject]; !found {
				data.Descriptions[triple.Subject] = triple.Object
			}
		}
	}

	counts, err := kb.RelationCounts(ctx)
	if err != nil {
		return nil, types.WrapError(err, types.ErrCodeCollaborator, "count relations")
	}
	data.Popularity = make(types.PopularityTable, len(counts))
	for entityId, count := range counts {
		data.Popularity[entityId] = float32(count)
	}

	builder.logger.Info("built inverted index",
		zap.Int("num_words", len(data.WordList)),
		zap.Int("num_entity_entries", len(data.EntityList)),
		zap.Int("num_descriptions", len(data.Descriptions)))
	return data, nil
}

// 按知识库返回的顺序收集全部标签和别名
func (builder *IndexBuilder) collectPhrases(ctx context.Context, kb types.KnowledgeBase) ([]entityPhrase, map[string]string, error) {
	phrases := []entityPhrase{}
	names := make(map[string]string)
	relations := append([]string{builder.options.LabelRelation}, builder.options.AliasRelations...)
	for i, relation := range relations {
		triples, err := kb.LookupRelations(ctx, relation)
		if err != nil {
			return nil, nil, types.WrapError(err, types.ErrCodeCollaborator, "lookup %s", relation)
		}
		for _, triple := range builder.filterLang(triples) {
			phrases = append(phrases, entityPhrase{entityId: triple.Subject, text: triple.Object})
			if _, found := names[triple.Subject]; !found && i == 0 {
				names[triple.Subject] = triple.Object
			}
		}
	}
	return phrases, names, nil
}

func (builder *IndexBuilder) filterLang(triples []types.Triple) []types.Triple {
	output := triples[:0:0]
	for _, triple := range triples {
		if triple.Lang == "" || triple.Lang == builder.options.Lang {
			output = append(output, triple)
		}
	}
	return output
}

// 按实体编号的哈希把名称分到各个分片并行切分
// 每个分片只写入属于自己的名称的结果，合并时按原顺序读取
func (builder *IndexBuilder) tokenizeShards(ctx context.Context, phrases []entityPhrase) ([]phrasePostings, error) {
	numShards := builder.options.NumShards
	shards := make([][]int, numShards)
	for i, phrase := range phrases {
		shard := builder.getShard(murmur.Murmur3([]byte(phrase.entityId)))
		shards[shard] = append(shards[shard], i)
	}

	postings := make([]phrasePostings, len(phrases))
	group, ctx := errgroup.WithContext(ctx)
	for shard := 0; shard < numShards; shard++ {
		indices := shards[shard]
		group.Go(func() error {
			for _, i := range indices {
				if err := ctx.Err(); err != nil {
					return err
				}
				words, numTokens := builder.phraseWords(phrases[i].text)
				postings[i] = phrasePostings{words: words, candidateLength: numTokens}
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return postings, nil
}

func (builder *IndexBuilder) getShard(hash uint32) int {
	return int(hash - hash/uint32(builder.options.NumShards)*uint32(builder.options.NumShards))
}

// 小写、切分、去停用词、归一化
// 词数按切分后的全部词计算，停用词也算在内
func (builder *IndexBuilder) phraseWords(text string) ([]string, int) {
	words := []string{}
	numTokens := 0
	for _, token := range builder.tokenizer.Tokenize(strings.ToLower(text)) {
		if token == "" {
			continue
		}
		numTokens++
		if builder.stopTokens.IsStopToken(token) {
			continue
		}
		if word := builder.normalizer.Normalize(token); word != "" {
			words = append(words, word)
		}
	}
	return words, numTokens
}

// 按名称顺序合并，词按首次出现的顺序分配实体区间
// 同一个词下重复的(实体, 词数)只保留一次，没有词的名称被跳过
func mergePostings(phrases []entityPhrase, postings []phrasePostings) (types.WordIndex, []types.EntityEntry, []string) {
	wordList := []string{}
	entries := make(map[string][]types.EntityEntry)
	seen := make(map[string]map[types.EntityEntry]bool)
	for i, phrase := range phrases {
		p := postings[i]
		if len(p.words) == 0 {
			continue
		}
		entry := types.EntityEntry{EntityId: phrase.entityId, CandidateLength: p.candidateLength}
		for _, word := range p.words {
			if _, found := seen[word]; !found {
				seen[word] = make(map[types.EntityEntry]bool)
				wordList = append(wordList, word)
			}
			if seen[word][entry] {
				continue
			}
			seen[word][entry] = true
			entries[word] = append(entries[word], entry)
		}
	}

	wordIndex := make(types.WordIndex, len(wordList))
	entityList := []types.EntityEntry{}
	for _, word := range wordList {
		start := len(entityList)
		entityList = append(entityList, entries[word]...)
		wordIndex[word] = types.EntityRange{Start: start, End: len(entityList)}
	}
	return wordIndex, entityList, wordList
}
