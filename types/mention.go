package types

// 识别器在一段文本中找到的实体提及
type Mention struct {
	// 提及的原文
	Text string `json:"text"`

	// 提及在上下文词序列中的位置（词下标，升序）
	Positions []int `json:"positions,omitempty"`
}

// 文本块，由分块器从一个或多个文档的连续句子拼接而成
type Chunk struct {
	Text string `json:"text"`

	// 所属文档在输入批次中的下标
	DocIndex int `json:"doc_index"`
}
