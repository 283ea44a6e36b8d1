package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huichen/huoyan/kb"
	"github.com/huichen/huoyan/types"
	"github.com/huichen/huoyan/utils"
)

func TestBuildIndex(t *testing.T) {
	data, err := testBuilder(t, 4).Build(context.Background(), testKnowledgeBase())
	require.NoError(t, err)

	utils.Expect(t, "[moscow oblast saint petersburg paris idaho moskva petrograd]", data.WordList)
	utils.Expect(t, "E1/1 E2/2 E2/2 E3/2 E3/2 E4/1 E5/2 E1/1 E3/1 ", entriesToString(data.EntityList))
	utils.Expect(t, "{0 2}", data.WordIndex["moscow"])
	utils.Expect(t, "{6 7}", data.WordIndex["idaho"])

	// 只有停用词的名称和其它语言的名称不进入索引
	_, found := data.WordIndex["the"]
	assert.False(t, found)
	_, found = data.WordIndex["париж"]
	assert.False(t, found)

	utils.Expect(t, "Moscow", data.Names["E1"])
	utils.Expect(t, "5", len(data.Names))
	utils.Expect(t, "capital of Russia", data.Descriptions["E1"])
	utils.Expect(t, "5", data.Popularity.Score("E1"))
	utils.Expect(t, "2", data.Popularity.Score("E2"))
	utils.Expect(t, "0", data.Popularity.Score("missing"))
}

func TestBuildIndexRanges(t *testing.T) {
	data, err := testBuilder(t, 2).Build(context.Background(), testKnowledgeBase())
	require.NoError(t, err)

	// 区间按词表顺序首尾相接，覆盖整个实体表，且同一区间内没有重复项
	next := 0
	for _, word := range data.WordList {
		r := data.WordIndex[word]
		assert.Equal(t, next, r.Start, word)
		assert.Greater(t, r.Len(), 0, word)
		seen := map[types.EntityEntry]bool{}
		for _, entry := range data.EntityList[r.Start:r.End] {
			assert.False(t, seen[entry], word)
			seen[entry] = true
		}
		next = r.End
	}
	assert.Equal(t, len(data.EntityList), next)
	assert.Equal(t, len(data.WordList), len(data.WordIndex))
}

func TestBuildIndexDeterministic(t *testing.T) {
	first, err := testBuilder(t, 1).Build(context.Background(), testKnowledgeBase())
	require.NoError(t, err)
	for _, numShards := range []int{2, 3, 8} {
		data, err := testBuilder(t, numShards).Build(context.Background(), testKnowledgeBase())
		require.NoError(t, err)
		assert.Equal(t, first, data)
	}
}

type failingKnowledgeBase struct {
	types.KnowledgeBase
}

func (failingKnowledgeBase) LookupRelations(ctx context.Context, relation string) ([]types.Triple, error) {
	return nil, errors.New("kb offline")
}

func TestBuildIndexKnowledgeBaseError(t *testing.T) {
	_, err := testBuilder(t, 2).Build(context.Background(), failingKnowledgeBase{})
	assert.True(t, types.IsCode(err, types.ErrCodeCollaborator))
	assert.Contains(t, err.Error(), "kb offline")
}

func TestBuildIndexCandidateLength(t *testing.T) {
	store := kb.NewTripleStore([]types.Triple{
		{Subject: "B", Relation: testLabel, Object: "Bank of America", Lang: "en"},
		{Subject: "A", Relation: testLabel, Object: "America", Lang: "en"},
	})
	data, err := testBuilder(t, 2).Build(context.Background(), store)
	require.NoError(t, err)
	// 停用词不进入索引，但计入名称的词数
	utils.Expect(t, "[bank america]", data.WordList)
	utils.Expect(t, "B/3 B/3 A/1 ", entriesToString(data.EntityList))

	vectorizer, err := FitVectorizer(data.WordList, 2, 3, 1000, 0.85)
	require.NoError(t, err)
	index := BuildVectorIndex(vectorizer.Transform(data.WordList), vectorizer.Dim(), 1, 1, nil)
	output := testRanker(t).Candidates(NewArtifacts(data, vectorizer, index), []string{"america"})
	utils.Expect(t, "[A 1 1] [B 0.33 1] ", candidatesToString(output[0].Shortlist))
}

func TestMergePostingsDropsDuplicates(t *testing.T) {
	phrases := []entityPhrase{{entityId: "A"}, {entityId: "A"}, {entityId: "B"}, {entityId: "C"}}
	postings := []phrasePostings{
		{words: []string{"x", "x"}, candidateLength: 2},
		{words: []string{"y", "x"}, candidateLength: 2},
		{words: []string{"y"}, candidateLength: 1},
		{},
	}
	wordIndex, entityList, wordList := mergePostings(phrases, postings)
	utils.Expect(t, "[x y]", wordList)
	utils.Expect(t, "A/2 A/2 B/1 ", entriesToString(entityList))
	utils.Expect(t, "{0 1}", wordIndex["x"])
	utils.Expect(t, "{1 3}", wordIndex["y"])
}
