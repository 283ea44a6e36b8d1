package types

// 反向索引表([词]实体区间)
//
// 每个区间都是 EntityList 上的左闭右开区间 [Start, End)，区间之间互不重叠。
// 索引在构建后只读，可被所有查询共享。
type WordIndex map[string]EntityRange

// 反向索引表的一行指向的实体区间
type EntityRange struct {
	Start int
	End   int
}

func (r EntityRange) Len() int {
	return r.End - r.Start
}

// 实体表的一项
type EntityEntry struct {
	// 知识库中的实体编号
	EntityId string

	// 该实体名称（标签或别名）的词数，用于计算重合度
	CandidateLength int
}

// 实体流行度（比如知识库中以该实体为主语的三元组数）
type PopularityTable map[string]float32

// 未知实体的流行度为0
func (table PopularityTable) Score(entityId string) float32 {
	return table[entityId]
}
