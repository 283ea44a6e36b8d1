package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viterin/vek/vek32"

	"github.com/huichen/huoyan/types"
	"github.com/huichen/huoyan/utils"
)

func TestNgrams(t *testing.T) {
	vectorizer := &Vectorizer{MinN: 2, MaxN: 3}
	utils.Expect(t, "[ a ab b   ab ab ]", vectorizer.ngrams("AB"))
	utils.Expect(t, "[ a a   a ]", vectorizer.ngrams("a"))
	utils.Expect(t, "3", len(vectorizer.ngrams("  a  ")))
}

func TestFitVectorizer(t *testing.T) {
	corpus := []string{"moscow", "moskva", "paris", "oblast", "idaho"}
	vectorizer, err := FitVectorizer(corpus, 2, 3, 1000, 0.85)
	require.NoError(t, err)

	// 特征按字母序排列
	for i := 1; i < len(vectorizer.Features); i++ {
		assert.Less(t, vectorizer.Features[i-1], vectorizer.Features[i])
	}
	assert.Equal(t, len(vectorizer.Features), vectorizer.Dim())

	vectors := vectorizer.Transform([]string{"moscow", "moskva", "zzzz"})
	assert.InDelta(t, 1.0, vek32.Dot(vectors[0], vectors[0]), 1e-5)
	assert.InDelta(t, 1.0, vek32.Dot(vectors[1], vectors[1]), 1e-5)
	assert.Greater(t, vek32.Dot(vectors[0], vectors[1]), float32(0))
	assert.Less(t, vek32.Dot(vectors[0], vectors[1]), float32(1))
	utils.Expect(t, "0", vek32.Dot(vectors[2], vectors[2]))
}

func TestFitVectorizerMaxFeatures(t *testing.T) {
	corpus := []string{"aaa", "aab", "abc", "xyz"}
	vectorizer, err := FitVectorizer(corpus, 2, 2, 3, 1.0)
	require.NoError(t, err)
	// " a"和"aa"各出现3次，"ab"出现2次，其余只出现1次
	utils.Expect(t, "[ a aa ab]", vectorizer.Features)
}

func TestFitVectorizerMaxDocFrequency(t *testing.T) {
	vectorizer, err := FitVectorizer([]string{"ab", "ab", "cd"}, 2, 2, 1000, 0.5)
	require.NoError(t, err)
	utils.Expect(t, "[ c cd d ]", vectorizer.Features)
}

func TestFitVectorizerErrors(t *testing.T) {
	_, err := FitVectorizer([]string{}, 2, 3, 10, 0.85)
	assert.True(t, types.IsCode(err, types.ErrCodeConfig))

	_, err = FitVectorizer([]string{"same"}, 2, 3, 10, 0.85)
	assert.True(t, types.IsCode(err, types.ErrCodeConfig))

	_, err = FitVectorizer([]string{"a"}, 3, 2, 10, 0.85)
	assert.True(t, types.IsCode(err, types.ErrCodeConfig))
}
