package core

import (
	"math"
	"sort"
	"strings"

	"github.com/viterin/vek/vek32"

	"github.com/huichen/huoyan/types"
)

// 字符n元组TF-IDF向量化器
//
// 每个词两侧各补一个空格后切出[MinN, MaxN]的字符n元组，
// 比n短的词只输出一次补齐后的整个词。输出向量经过L2归一化，
// 因此两个向量的内积就是余弦相似度。
type Vectorizer struct {
	MinN int
	MaxN int

	// 特征按字母序排列，Vocabulary 给出特征到下标的映射
	Features   []string
	Vocabulary map[string]int
	Idf        []float32
}

// 从词表训练向量化器
//
// 文档频率高于 maxDocFrequency 比例的n元组被剔除，剩下的按语料中的总频次
// 保留前 maxFeatures 个，频次相同时按字母序。
func FitVectorizer(corpus []string, minN, maxN, maxFeatures int, maxDocFrequency float64) (*Vectorizer, error) {
	if minN < 1 || minN > maxN {
		return nil, types.NewError(types.ErrCodeConfig, "invalid ngram range [%d, %d]", minN, maxN)
	}
	vectorizer := &Vectorizer{MinN: minN, MaxN: maxN}

	termFrequency := make(map[string]int)
	docFrequency := make(map[string]int)
	for _, doc := range corpus {
		seen := make(map[string]bool)
		for _, gram := range vectorizer.ngrams(doc) {
			termFrequency[gram]++
			if !seen[gram] {
				seen[gram] = true
				docFrequency[gram]++
			}
		}
	}
	if len(termFrequency) == 0 {
		return nil, types.NewError(types.ErrCodeConfig, "empty vocabulary; corpus has %d words", len(corpus))
	}

	maxDocCount := maxDocFrequency * float64(len(corpus))
	candidates := make([]string, 0, len(termFrequency))
	for gram := range termFrequency {
		if float64(docFrequency[gram]) <= maxDocCount {
			candidates = append(candidates, gram)
		}
	}
	if len(candidates) == 0 {
		return nil, types.NewError(types.ErrCodeConfig, "after pruning, no n-grams remain; lower max_df")
	}

	sort.Slice(candidates, func(i, j int) bool {
		ti, tj := termFrequency[candidates[i]], termFrequency[candidates[j]]
		if ti != tj {
			return ti > tj
		}
		return candidates[i] < candidates[j]
	})
	if len(candidates) > maxFeatures {
		candidates = candidates[:maxFeatures]
	}
	sort.Strings(candidates)

	n := float64(len(corpus))
	vectorizer.Features = candidates
	vectorizer.Vocabulary = make(map[string]int, len(candidates))
	vectorizer.Idf = make([]float32, len(candidates))
	for i, gram := range candidates {
		vectorizer.Vocabulary[gram] = i
		vectorizer.Idf[i] = float32(math.Log((1+n)/(1+float64(docFrequency[gram]))) + 1)
	}
	return vectorizer, nil
}

// 向量维数
func (vectorizer *Vectorizer) Dim() int {
	return len(vectorizer.Features)
}

// 把词转换为L2归一化的TF-IDF向量，没有已知n元组的词得到零向量
func (vectorizer *Vectorizer) Transform(words []string) [][]float32 {
	output := make([][]float32, len(words))
	for i, word := range words {
		vector := make([]float32, vectorizer.Dim())
		for _, gram := range vectorizer.ngrams(word) {
			if index, ok := vectorizer.Vocabulary[gram]; ok {
				vector[index]++
			}
		}
		vek32.Mul_Inplace(vector, vectorizer.Idf)
		if norm := vek32.Dot(vector, vector); norm > 0 {
			vek32.MulNumber_Inplace(vector, float32(1/math.Sqrt(float64(norm))))
		}
		output[i] = vector
	}
	return output
}

// 词边界内的字符n元组
func (vectorizer *Vectorizer) ngrams(text string) []string {
	grams := []string{}
	for _, word := range strings.Fields(strings.ToLower(text)) {
		padded := []rune(" " + word + " ")
		for n := vectorizer.MinN; n <= vectorizer.MaxN; n++ {
			if len(padded) <= n {
				grams = append(grams, string(padded))
				break
			}
			for offset := 0; offset+n <= len(padded); offset++ {
				grams = append(grams, string(padded[offset:offset+n]))
			}
		}
	}
	return grams
}
