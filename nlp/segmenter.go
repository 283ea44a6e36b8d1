package nlp

import (
	"strings"

	"github.com/huichen/sego"
)

// 中文分词切分器
type SegoTokenizer struct {
	segmenter sego.Segmenter
}

// 载入分词词典，多个词典文件用逗号分隔
func NewSegoTokenizer(dictionaries string) *SegoTokenizer {
	tokenizer := &SegoTokenizer{}
	tokenizer.segmenter.LoadDictionary(dictionaries)
	return tokenizer
}

// 返回分词结果中的单词，丢弃空白和标点
func (tokenizer *SegoTokenizer) Tokenize(text string) []string {
	segments := tokenizer.segmenter.Segment([]byte(text))
	words := []string{}
	for _, token := range sego.SegmentsToSlice(segments, false) {
		token = strings.TrimSpace(token)
		if token != "" && IsWordToken(token) {
			words = append(words, token)
		}
	}
	return words
}
