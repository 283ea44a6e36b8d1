package types

import "context"

// 命名实体识别器：输入文本块，返回每块的词序列及其中的提及
type Recognizer interface {
	Recognize(ctx context.Context, chunks []string) (tokens [][]string, mentions [][]Mention, err error)
}

// 重排序器返回的一项
type RerankResult struct {
	EntityId string
	Score    float32
}

// 上下文重排序器
//
// 输入带有[ENT]标记的上下文和候选实体列表，返回实体的相关度。
// 返回的实体可能少于输入。
type Reranker interface {
	RankEntities(ctx context.Context, context string, entityIds []string) ([]RerankResult, error)
}

// 词形归一化，必须是无副作用的纯函数
type Normalizer interface {
	Normalize(word string) string
}

// 分句器
type SentenceSplitter interface {
	Split(text string) []string
}

// 知识库中的一条三元组
type Triple struct {
	Subject  string
	Relation string
	Object   string

	// 字面量的语言标签，比如"en"，没有时为空
	Lang string
}

// 知识库读取接口，只在构建索引时使用
type KnowledgeBase interface {
	// 按知识库中的存储顺序返回某个关系的全部三元组
	LookupRelations(ctx context.Context, relation string) ([]Triple, error)

	// 每个主语参与的三元组数，用作流行度
	RelationCounts(ctx context.Context) (map[string]int, error)

	Close() error
}
