package core

import (
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

// 一次矩阵乘法处理的库向量行数
const flatSearchBlockRows = 4096

// 精确的内积检索
type FlatIndex struct {
	Dimension int

	// 行优先存放的向量
	Vectors []float32
}

func NewFlatIndex(dim int) *FlatIndex {
	return &FlatIndex{Dimension: dim}
}

func (index *FlatIndex) Add(vectors [][]float32) {
	for _, vector := range vectors {
		index.Vectors = append(index.Vectors, vector...)
	}
}

func (index *FlatIndex) Len() int {
	if index.Dimension == 0 {
		return 0
	}
	return len(index.Vectors) / index.Dimension
}

func (index *FlatIndex) Dim() int {
	return index.Dimension
}

func (index *FlatIndex) Search(queries [][]float32, k int) ([][]int, [][]float32) {
	ids := make([][]int, len(queries))
	scores := make([][]float32, len(queries))
	n := index.Len()
	if len(queries) == 0 || n == 0 || k <= 0 {
		for i := range queries {
			ids[i], scores[i] = []int{}, []float32{}
		}
		return ids, scores
	}

	dim := index.Dimension
	queryMatrix := flattenRows(queries, dim)
	heaps := make([]*topK, len(queries))
	for i := range heaps {
		heaps[i] = newTopK(k)
	}

	for start := 0; start < n; start += flatSearchBlockRows {
		rows := n - start
		if rows > flatSearchBlockRows {
			rows = flatSearchBlockRows
		}
		dots := innerProducts(queryMatrix, len(queries), index.Vectors[start*dim:(start+rows)*dim], rows, dim)
		for q := range queries {
			row := dots[q*rows : (q+1)*rows]
			for j, score := range row {
				heaps[q].push(start+j, score)
			}
		}
	}

	for q := range queries {
		ids[q], scores[q] = heaps[q].results()
	}
	return ids, scores
}

// 计算 a[m×dim] 与 b[n×dim] 每对行向量的内积，返回 m×n 的矩阵
func innerProducts(a []float32, m int, b []float32, n int, dim int) []float32 {
	dots := make([]float32, m*n)
	if m == 0 || n == 0 || dim == 0 {
		return dots
	}
	blas32.Gemm(
		blas.NoTrans,
		blas.Trans,
		1.0,
		blas32.General{Rows: m, Cols: dim, Stride: dim, Data: a},
		blas32.General{Rows: n, Cols: dim, Stride: dim, Data: b},
		0.0,
		blas32.General{Rows: m, Cols: n, Stride: n, Data: dots},
	)
	return dots
}

func flattenRows(rows [][]float32, dim int) []float32 {
	flat := make([]float32, len(rows)*dim)
	for i, row := range rows {
		copy(flat[i*dim:(i+1)*dim], row)
	}
	return flat
}
