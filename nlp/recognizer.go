package nlp

import (
	"context"
	"strings"

	"github.com/jdkato/prose/v2"

	"github.com/huichen/huoyan/types"
)

// 基于prose命名实体识别的识别器，只适用于英文
type ProseRecognizer struct{}

func (ProseRecognizer) Recognize(ctx context.Context, chunks []string) ([][]string, [][]types.Mention, error) {
	tokensBatch := make([][]string, len(chunks))
	mentionsBatch := make([][]types.Mention, len(chunks))
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		doc, err := prose.NewDocument(chunk, prose.WithSegmentation(false))
		if err != nil {
			return nil, nil, err
		}
		docTokens := doc.Tokens()
		tokens := make([]string, len(docTokens))
		labels := make([]string, len(docTokens))
		for j, token := range docTokens {
			tokens[j] = token.Text
			labels[j] = token.Label
		}
		tokensBatch[i] = tokens
		mentionsBatch[i] = MentionsFromIOB(tokens, labels)
	}
	return tokensBatch, mentionsBatch, nil
}

// 从IOB标注中提取提及
// "B-X"开始一个提及，紧随的同类"I-X"延续它，其它标注结束它
func MentionsFromIOB(tokens []string, labels []string) []types.Mention {
	mentions := []types.Mention{}
	var current *types.Mention
	currentType := ""
	flush := func() {
		if current != nil {
			texts := make([]string, len(current.Positions))
			for i, pos := range current.Positions {
				texts[i] = tokens[pos]
			}
			current.Text = strings.Join(texts, " ")
			mentions = append(mentions, *current)
			current = nil
		}
	}
	for i, label := range labels {
		switch {
		case strings.HasPrefix(label, "B-"):
			flush()
			current = &types.Mention{Positions: []int{i}}
			currentType = label[2:]
		case strings.HasPrefix(label, "I-") && current != nil && label[2:] == currentType:
			current.Positions = append(current.Positions, i)
		case strings.HasPrefix(label, "I-"):
			// 没有B开头的I标注视为新提及
			flush()
			current = &types.Mention{Positions: []int{i}}
			currentType = label[2:]
		default:
			flush()
		}
	}
	flush()
	return mentions
}
