package types

type LinkRequest struct {
	// 待链接的文档
	Docs []string `json:"docs"`

	// 跳过识别器，直接链接给定的提及。此时 Docs 被忽略
	Mentions []Mention `json:"mentions,omitempty"`

	// 与 Mentions 配合使用的上下文词序列
	ContextTokens []string `json:"context_tokens,omitempty"`
}

type LinkResponse struct {
	RequestId string `json:"request_id"`

	// 分块器产生的子批次数
	NumBatches int `json:"num_batches"`

	// 每个含有提及的文本块一项，按子批次和块顺序排列
	Chunks []ChunkResult `json:"chunks"`
}

type ChunkResult struct {
	// 子批次编号
	Batch int `json:"batch"`

	Chunk

	Mentions []MentionResult `json:"mentions"`
}

type MentionResult struct {
	Mention

	// 排序后的实体编号，最多 NumEntitiesToReturn 个
	EntityIds []string `json:"entity_ids"`
}

// 按[子批次][块][提及]分组的实体编号列表
func (response LinkResponse) EntityIds() [][][][]string {
	output := make([][][][]string, response.NumBatches)
	for i := range output {
		output[i] = [][][]string{}
	}
	for _, chunk := range response.Chunks {
		for len(output) <= chunk.Batch {
			output = append(output, [][][]string{})
		}
		ids := make([][]string, len(chunk.Mentions))
		for i, m := range chunk.Mentions {
			ids[i] = m.EntityIds
		}
		output[chunk.Batch] = append(output[chunk.Batch], ids)
	}
	return output
}
