package nlp

import (
	"strings"

	"github.com/jdkato/prose/v2"
)

// 基于prose的英文分句器
type ProseSplitter struct{}

func (ProseSplitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return []string{}
	}
	doc, err := prose.NewDocument(text,
		prose.WithTokenization(false),
		prose.WithTagging(false),
		prose.WithExtraction(false))
	if err != nil {
		return []string{text}
	}
	sentences := []string{}
	for _, sentence := range doc.Sentences() {
		sentences = append(sentences, sentence.Text)
	}
	return sentences
}
