package core

import (
	"go.uber.org/zap"
)

// 近邻检索接口
//
// Search 对每个查询返回至多k个向量下标及其内积，按内积从大到小排列，
// 内积相同时下标小的在前。
type VectorIndex interface {
	Search(queries [][]float32, k int) ([][]int, [][]float32)
	Len() int
	Dim() int
}

// numCells 不大于1时构建扁平索引，否则构建倒排文件索引
// 单元数多于向量数时降为向量数
func BuildVectorIndex(vectors [][]float32, dim, numCells, numProbes int, logger *zap.Logger) VectorIndex {
	if logger == nil {
		logger = zap.NewNop()
	}
	if numCells <= 1 {
		index := NewFlatIndex(dim)
		index.Add(vectors)
		return index
	}
	if numCells > len(vectors) {
		logger.Warn("too few vectors for the requested cells; clamping",
			zap.Int("num_faiss_cells", numCells),
			zap.Int("num_vectors", len(vectors)))
		numCells = len(vectors)
	}
	if numCells <= 1 {
		index := NewFlatIndex(dim)
		index.Add(vectors)
		return index
	}
	return TrainIVFIndex(vectors, dim, numCells, numProbes)
}
