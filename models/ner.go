package models

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"go.uber.org/zap"

	"github.com/huichen/huoyan/nlp"
	"github.com/huichen/huoyan/types"
)

// 基于ONNX词分类模型的识别器
type HugotRecognizer struct {
	session  *hugot.Session
	pipeline *pipelines.TokenClassificationPipeline
	logger   *zap.Logger

	// 推理调用不可并发
	mu sync.Mutex
}

func NewHugotRecognizer(modelPath string, config SessionConfig, logger *zap.Logger) (*HugotRecognizer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	session, err := newSession(config)
	if err != nil {
		return nil, err
	}
	pipelineConfig := hugot.TokenClassificationConfig{
		ModelPath: modelPath,
		Name:      "ner:" + modelPath,
	}
	pipeline, err := hugot.NewPipeline(session, pipelineConfig)
	if err != nil {
		_ = session.Destroy()
		return nil, fmt.Errorf("create token classification pipeline: %w", err)
	}
	// 把相邻的同类词合并为一个实体
	pipeline.AggregationStrategy = "SIMPLE"
	logger.Info("loaded recognizer model", zap.String("model_path", modelPath))
	return &HugotRecognizer{session: session, pipeline: pipeline, logger: logger}, nil
}

func (r *HugotRecognizer) Recognize(ctx context.Context, chunks []string) ([][]string, [][]types.Mention, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	tokensBatch := make([][]string, len(chunks))
	mentionsBatch := make([][]types.Mention, len(chunks))
	if len(chunks) == 0 {
		return tokensBatch, mentionsBatch, nil
	}

	r.mu.Lock()
	output, err := r.pipeline.RunPipeline(chunks)
	r.mu.Unlock()
	if err != nil {
		return nil, nil, fmt.Errorf("token classification: %w", err)
	}

	for i, chunk := range chunks {
		var entities []pipelines.Entity
		if i < len(output.Entities) {
			entities = output.Entities[i]
		}
		tokensBatch[i], mentionsBatch[i] = MentionsFromSpans(chunk, entities)
		r.logger.Debug("recognized mentions", zap.Int("chunk", i), zap.Int("num_mentions", len(mentionsBatch[i])))
	}
	return tokensBatch, mentionsBatch, nil
}

func (r *HugotRecognizer) Close() error {
	return r.session.Destroy()
}

// 把模型输出的字符区间映射到词下标
// 与实体区间有交集的词属于该实体，没有任何词的实体被丢弃
func MentionsFromSpans(text string, entities []pipelines.Entity) ([]string, []types.Mention) {
	tokens, spans := nlp.TokenSpans(text)
	mentions := []types.Mention{}
	for _, entity := range entities {
		start, end := int(entity.Start), int(entity.End)
		positions := []int{}
		texts := []string{}
		for i, span := range spans {
			if span[0] < end && span[1] > start {
				positions = append(positions, i)
				texts = append(texts, tokens[i])
			}
		}
		if len(positions) == 0 {
			continue
		}
		mentions = append(mentions, types.Mention{Text: strings.Join(texts, " "), Positions: positions})
	}
	return tokens, mentions
}
