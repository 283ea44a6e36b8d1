package core

import (
	"math/rand"

	"github.com/viterin/vek/vek32"
)

const (
	kmeansSeed       = 1234
	kmeansIterations = 25
)

// 倒排文件索引：向量按最近的聚类中心分到各个单元，检索时只扫描离查询最近的几个单元
type IVFIndex struct {
	Dimension int
	NumProbes int

	// 行优先存放的聚类中心和向量
	Centroids []float32
	Vectors   []float32

	// 每个单元内的向量下标，升序
	Cells [][]int
}

// 用k-means训练聚类中心并插入全部向量
func TrainIVFIndex(vectors [][]float32, dim, numCells, numProbes int) *IVFIndex {
	index := &IVFIndex{
		Dimension: dim,
		NumProbes: numProbes,
		Vectors:   flattenRows(vectors, dim),
	}
	n := len(vectors)
	if numCells > n {
		numCells = n
	}
	if numCells < 1 {
		numCells = 1
	}

	// 用固定种子随机选取初始中心，保证结果可重复
	random := rand.New(rand.NewSource(kmeansSeed))
	index.Centroids = make([]float32, numCells*dim)
	if n > 0 {
		for c, i := range random.Perm(n)[:numCells] {
			copy(index.Centroids[c*dim:(c+1)*dim], vectors[i])
		}
	}

	assignments := make([]int, n)
	for iter := 0; iter < kmeansIterations; iter++ {
		changed := index.assign(assignments, iter == 0)
		if !changed && iter > 0 {
			break
		}
		index.updateCentroids(assignments, numCells)
	}

	index.assign(assignments, false)
	index.Cells = make([][]int, numCells)
	for i, cell := range assignments {
		index.Cells[cell] = append(index.Cells[cell], i)
	}
	return index
}

// 把每个向量分配到内积最大的中心，返回分配是否变化
func (index *IVFIndex) assign(assignments []int, first bool) bool {
	n := len(assignments)
	numCells := index.NumCells()
	dim := index.Dimension
	changed := first
	for start := 0; start < n; start += flatSearchBlockRows {
		rows := n - start
		if rows > flatSearchBlockRows {
			rows = flatSearchBlockRows
		}
		dots := innerProducts(index.Vectors[start*dim:(start+rows)*dim], rows, index.Centroids, numCells, dim)
		for i := 0; i < rows; i++ {
			best := vek32.ArgMax(dots[i*numCells : (i+1)*numCells])
			if assignments[start+i] != best {
				assignments[start+i] = best
				changed = true
			}
		}
	}
	return changed
}

// 中心取单元内向量的均值，空单元保留原来的中心
func (index *IVFIndex) updateCentroids(assignments []int, numCells int) {
	dim := index.Dimension
	sums := make([]float32, numCells*dim)
	counts := make([]int, numCells)
	for i, cell := range assignments {
		vek32.Add_Inplace(sums[cell*dim:(cell+1)*dim], index.Vectors[i*dim:(i+1)*dim])
		counts[cell]++
	}
	for c := 0; c < numCells; c++ {
		if counts[c] == 0 {
			continue
		}
		centroid := sums[c*dim : (c+1)*dim]
		vek32.MulNumber_Inplace(centroid, 1/float32(counts[c]))
		copy(index.Centroids[c*dim:(c+1)*dim], centroid)
	}
}

func (index *IVFIndex) NumCells() int {
	if index.Dimension == 0 {
		return len(index.Cells)
	}
	return len(index.Centroids) / index.Dimension
}

func (index *IVFIndex) Len() int {
	if index.Dimension == 0 {
		return 0
	}
	return len(index.Vectors) / index.Dimension
}

func (index *IVFIndex) Dim() int {
	return index.Dimension
}

func (index *IVFIndex) Search(queries [][]float32, k int) ([][]int, [][]float32) {
	ids := make([][]int, len(queries))
	scores := make([][]float32, len(queries))
	dim := index.Dimension
	numCells := index.NumCells()
	probes := index.NumProbes
	if probes < 1 {
		probes = 1
	}

	for q, query := range queries {
		results := newTopK(k)
		if index.Len() > 0 && k > 0 {
			cells := newTopK(probes)
			for c := 0; c < numCells; c++ {
				cells.push(c, vek32.Dot(query, index.Centroids[c*dim:(c+1)*dim]))
			}
			probed, _ := cells.results()
			for _, cell := range probed {
				for _, id := range index.Cells[cell] {
					results.push(id, vek32.Dot(query, index.Vectors[id*dim:(id+1)*dim]))
				}
			}
		}
		ids[q], scores[q] = results.results()
	}
	return ids, scores
}
