package types

// 单个提及的候选实体，只在一次链接调用中存在
type CandidateEntity struct {
	EntityId string

	// 提及与实体名称的重合度，取值[0, 1]
	OverlapScore float32

	// 实体流行度
	PopularityScore float32

	// 上下文重排序得分，仅在重排序阶段有效
	RerankScore float32
}

// 检索阶段的评分，重排序阶段按实体编号取用
type EntityScores struct {
	Overlap    float32
	Popularity float32
}

// 按照(重合度, 流行度)从大到小排序
type ScoredCandidates []CandidateEntity

func (cands ScoredCandidates) Len() int {
	return len(cands)
}
func (cands ScoredCandidates) Swap(i, j int) {
	cands[i], cands[j] = cands[j], cands[i]
}

// 为了从大到小排序，这里实现的是More的功能
func (cands ScoredCandidates) Less(i, j int) bool {
	if cands[i].OverlapScore != cands[j].OverlapScore {
		return cands[i].OverlapScore > cands[j].OverlapScore
	}
	return cands[i].PopularityScore > cands[j].PopularityScore
}

// 按照(重合度, 重排序得分, 流行度)从大到小排序
type RerankedCandidates []CandidateEntity

func (cands RerankedCandidates) Len() int {
	return len(cands)
}
func (cands RerankedCandidates) Swap(i, j int) {
	cands[i], cands[j] = cands[j], cands[i]
}
func (cands RerankedCandidates) Less(i, j int) bool {
	if cands[i].OverlapScore != cands[j].OverlapScore {
		return cands[i].OverlapScore > cands[j].OverlapScore
	}
	if cands[i].RerankScore != cands[j].RerankScore {
		return cands[i].RerankScore > cands[j].RerankScore
	}
	return cands[i].PopularityScore > cands[j].PopularityScore
}

// 取出实体编号
func EntityIds(cands []CandidateEntity) []string {
	ids := make([]string, len(cands))
	for i, c := range cands {
		ids[i] = c.EntityId
	}
	return ids
}
