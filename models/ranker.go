package models

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"github.com/viterin/vek/vek32"

	"github.com/huichen/huoyan/core"
	"github.com/huichen/huoyan/types"
)

// 把文本转换为向量
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// 基于ONNX特征提取模型的向量化
type HugotEmbedder struct {
	session  *hugot.Session
	pipeline *pipelines.FeatureExtractionPipeline
	mu       sync.Mutex
}

func NewHugotEmbedder(modelPath string, config SessionConfig) (*HugotEmbedder, error) {
	session, err := newSession(config)
	if err != nil {
		return nil, err
	}
	pipelineConfig := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "embed:" + modelPath,
	}
	pipeline, err := hugot.NewPipeline(session, pipelineConfig)
	if err != nil {
		_ = session.Destroy()
		return nil, fmt.Errorf("create feature extraction pipeline: %w", err)
	}
	return &HugotEmbedder{session: session, pipeline: pipeline}, nil
}

func (e *HugotEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	output, err := e.pipeline.RunPipeline(texts)
	if err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	return output.Embeddings, nil
}

func (e *HugotEmbedder) Close() error {
	return e.session.Destroy()
}

// 用上下文与实体名称、描述的向量余弦相似度作为相关度
type EmbeddingReranker struct {
	embedder     Embedder
	names        map[string]string
	descriptions map[string]string
}

func NewEmbeddingReranker(embedder Embedder, names, descriptions map[string]string) *EmbeddingReranker {
	return &EmbeddingReranker{embedder: embedder, names: names, descriptions: descriptions}
}

// 实体的文本：名称和描述，都没有时返回空串
func (r *EmbeddingReranker) entityText(entityId string) string {
	parts := []string{}
	if name := r.names[entityId]; name != "" {
		parts = append(parts, name)
	}
	if descr := r.descriptions[entityId]; descr != "" {
		parts = append(parts, descr)
	}
	return strings.Join(parts, ". ")
}

// 没有名称和描述的实体不返回
func (r *EmbeddingReranker) RankEntities(ctx context.Context, context string, entityIds []string) ([]types.RerankResult, error) {
	texts := []string{strings.ReplaceAll(context, core.EntityMarker, "")}
	ids := []string{}
	for _, entityId := range entityIds {
		if text := r.entityText(entityId); text != "" {
			texts = append(texts, text)
			ids = append(ids, entityId)
		}
	}
	if len(ids) == 0 {
		return []types.RerankResult{}, nil
	}

	embeddings, err := r.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(embeddings), len(texts))
	}

	results := make([]types.RerankResult, len(ids))
	for i, entityId := range ids {
		results[i] = types.RerankResult{
			EntityId: entityId,
			Score:    vek32.CosineSimilarity(embeddings[0], embeddings[i+1]),
		}
	}
	return results, nil
}
