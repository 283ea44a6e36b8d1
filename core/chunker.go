package core

import (
	"strings"
	"unicode/utf8"

	"github.com/huichen/huoyan/types"
)

// 把文档按句子拼接成不超过一定长度的文本块，并分成子批次
type Chunker struct {
	maxChunkLength int
	batchSize      int
	splitter       types.SentenceSplitter
}

func NewChunker(maxChunkLength, batchSize int, splitter types.SentenceSplitter) *Chunker {
	return &Chunker{
		maxChunkLength: maxChunkLength,
		batchSize:      batchSize,
		splitter:       splitter,
	}
}

// 返回按子批次分组的文本块及其所属文档的下标
//
// 句子依次追加到缓冲区（每句后加一个空格），直到长度将要达到上限时输出缓冲区。
// 最后剩余的缓冲区记为最后一个文档的块。
func (chunker *Chunker) Chunk(docs []string) ([][]string, [][]int) {
	textBatches := [][]string{}
	numsBatches := [][]int{}
	textBatch := []string{}
	numsBatch := []int{}

	emit := func(text string, docIndex int) {
		text = strings.Trim(text, " ")
		if text == "" {
			return
		}
		if len(textBatch) == chunker.batchSize {
			textBatches = append(textBatches, textBatch)
			numsBatches = append(numsBatches, numsBatch)
			textBatch, numsBatch = []string{}, []int{}
		}
		textBatch = append(textBatch, text)
		numsBatch = append(numsBatch, docIndex)
	}

	var buffer strings.Builder
	bufferLength := 0
	for n, doc := range docs {
		for _, sentence := range chunker.splitter.Split(doc) {
			sentenceLength := utf8.RuneCountInString(sentence)
			if bufferLength+sentenceLength < chunker.maxChunkLength {
				buffer.WriteString(sentence)
				buffer.WriteString(" ")
				bufferLength += sentenceLength + 1
				continue
			}
			emit(buffer.String(), n)
			buffer.Reset()
			buffer.WriteString(sentence)
			buffer.WriteString(" ")
			bufferLength = sentenceLength + 1
		}
	}
	if bufferLength > 0 {
		emit(buffer.String(), len(docs)-1)
	}
	if len(textBatch) > 0 {
		textBatches = append(textBatches, textBatch)
		numsBatches = append(numsBatches, numsBatch)
	}
	return textBatches, numsBatches
}

// 把子批次展开为带文档下标的文本块
func FlattenChunks(textBatch []string, numsBatch []int) []types.Chunk {
	chunks := make([]types.Chunk, len(textBatch))
	for i, text := range textBatch {
		chunks[i] = types.Chunk{Text: text, DocIndex: numsBatch[i]}
	}
	return chunks
}
