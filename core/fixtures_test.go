package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/huichen/huoyan/kb"
	"github.com/huichen/huoyan/nlp"
	"github.com/huichen/huoyan/types"
)

const (
	testLabel = "label"
	testAlias = "alias"
	testDescr = "descr"
)

// E1 "Moscow" 流行度5，E2 "Moscow Oblast" 流行度2
func testKnowledgeBase() *kb.TripleStore {
	return kb.NewTripleStore([]types.Triple{
		{Subject: "E1", Relation: testLabel, Object: "Moscow", Lang: "en"},
		{Subject: "E2", Relation: testLabel, Object: "Moscow Oblast", Lang: "en"},
		{Subject: "E3", Relation: testLabel, Object: "Saint Petersburg", Lang: "en"},
		{Subject: "E4", Relation: testLabel, Object: "Paris", Lang: "en"},
		{Subject: "E4", Relation: testLabel, Object: "Париж", Lang: "ru"},
		{Subject: "E5", Relation: testLabel, Object: "The Idaho", Lang: "en"},
		{Subject: "E1", Relation: testAlias, Object: "Moskva"},
		{Subject: "E3", Relation: testAlias, Object: "Petrograd"},
		{Subject: "E6", Relation: testAlias, Object: "the of"},
		{Subject: "E1", Relation: testDescr, Object: "capital of Russia", Lang: "en"},
		{Subject: "E2", Relation: testDescr, Object: "federal subject of Russia", Lang: "en"},
		{Subject: "E1", Relation: "population", Object: "12000000"},
		{Subject: "E1", Relation: "country", Object: "Russia"},
	})
}

func testStopTokens(t *testing.T) *nlp.StopTokens {
	var st nlp.StopTokens
	require.NoError(t, st.Init("en", ""))
	return &st
}

func testBuilder(t *testing.T, numShards int) *IndexBuilder {
	return NewIndexBuilder(IndexBuilderOptions{
		LabelRelation:       testLabel,
		AliasRelations:      []string{testAlias},
		DescriptionRelation: testDescr,
		Lang:                "en",
		NumShards:           numShards,
	}, nlp.RegexpTokenizer{}, testStopTokens(t), nil, nil)
}

func testArtifacts(t *testing.T, numCells int) *Artifacts {
	data, err := testBuilder(t, 3).Build(context.Background(), testKnowledgeBase())
	require.NoError(t, err)
	vectorizer, err := FitVectorizer(data.WordList, 2, 3, 1000, 0.85)
	require.NoError(t, err)
	index := BuildVectorIndex(vectorizer.Transform(data.WordList), vectorizer.Dim(), numCells, 1, nil)
	return NewArtifacts(data, vectorizer, index)
}

func testRanker(t *testing.T) *Ranker {
	return NewRanker(RankerOptions{
		NumFaissCandidateEntities: 20,
		NumEntitiesForBertRanking: 50,
		NumEntitiesToReturn:       10,
	}, testStopTokens(t), nil, nil, nil)
}
