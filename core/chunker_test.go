package core

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/huichen/huoyan/utils"
)

// 按句号切分
type periodSplitter struct{}

func (periodSplitter) Split(text string) []string {
	sentences := []string{}
	for _, s := range strings.SplitAfter(text, ".") {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

func sentenceOfLength(n int) string {
	return strings.Repeat("a", n-1) + "."
}

func TestChunkLongDocument(t *testing.T) {
	sentences := []string{}
	for i := 0; i < 5; i++ {
		sentences = append(sentences, sentenceOfLength(51))
	}
	sentences = append(sentences, sentenceOfLength(50))
	doc := strings.Join(sentences, " ")
	utils.Expect(t, "310", utf8.RuneCountInString(doc))

	chunker := NewChunker(300, 5, periodSplitter{})
	texts, nums := chunker.Chunk([]string{doc})
	utils.Expect(t, "1", len(texts))
	assert.GreaterOrEqual(t, len(texts[0]), 2)
	utils.Expect(t, "[0 0]", nums[0])

	// 每个块都由完整的句子组成
	for _, chunk := range texts[0] {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk), 300)
		for _, s := range (periodSplitter{}).Split(chunk) {
			assert.Contains(t, sentences, s)
		}
	}
	assert.Equal(t, doc, strings.Join(texts[0], " "))
}

func TestChunkBatches(t *testing.T) {
	docs := []string{}
	for i := 0; i < 7; i++ {
		docs = append(docs, sentenceOfLength(8))
	}
	chunker := NewChunker(10, 2, periodSplitter{})
	texts, nums := chunker.Chunk(docs)

	// 每个块只放得下一个句子，块记为触发输出的句子所在的文档
	utils.Expect(t, "4", len(texts))
	utils.Expect(t, "[[1 2] [3 4] [5 6] [6]]", nums)
	for i := range texts {
		assert.Equal(t, len(texts[i]), len(nums[i]))
		assert.LessOrEqual(t, len(texts[i]), 2)
	}
}

func TestChunkTrailingTag(t *testing.T) {
	chunker := NewChunker(300, 5, periodSplitter{})
	texts, nums := chunker.Chunk([]string{"First doc.", "Second doc.", ""})
	utils.Expect(t, "[[First doc. Second doc.]]", texts)
	utils.Expect(t, "[[2]]", nums)
}

func TestChunkEmpty(t *testing.T) {
	chunker := NewChunker(300, 5, periodSplitter{})
	texts, nums := chunker.Chunk(nil)
	utils.Expect(t, "0", len(texts))
	utils.Expect(t, "0", len(nums))

	// 第一个句子就超长时不输出空块
	chunker = NewChunker(5, 5, periodSplitter{})
	texts, nums = chunker.Chunk([]string{"Longer than five. Ok."})
	utils.Expect(t, "[[Longer than five. Ok.]]", texts)
	utils.Expect(t, "[[0 0]]", nums)

	chunks := FlattenChunks(texts[0], nums[0])
	utils.Expect(t, "[{Longer than five. 0} {Ok. 0}]", chunks)
}
