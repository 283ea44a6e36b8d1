package core

import (
	"container/heap"
	"sort"
)

type searchHit struct {
	id    int
	score float32
}

// 排在后面的结果：分数低者在后，分数相同时下标大者在后
func worseHit(a, b searchHit) bool {
	if a.score != b.score {
		return a.score < b.score
	}
	return a.id > b.id
}

// 堆顶是当前最差的结果
type hitHeap []searchHit

func (h hitHeap) Len() int            { return len(h) }
func (h hitHeap) Less(i, j int) bool  { return worseHit(h[i], h[j]) }
func (h hitHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *hitHeap) Push(x interface{}) { *h = append(*h, x.(searchHit)) }
func (h *hitHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// 保留得分最高的k个结果
type topK struct {
	k    int
	hits hitHeap
}

func newTopK(k int) *topK {
	return &topK{k: k, hits: make(hitHeap, 0, k)}
}

func (t *topK) push(id int, score float32) {
	if t.k <= 0 {
		return
	}
	hit := searchHit{id: id, score: score}
	if len(t.hits) < t.k {
		heap.Push(&t.hits, hit)
		return
	}
	if worseHit(t.hits[0], hit) {
		t.hits[0] = hit
		heap.Fix(&t.hits, 0)
	}
}

// 按分数从高到低返回，分数相同时下标小的在前
func (t *topK) results() ([]int, []float32) {
	hits := append(hitHeap{}, t.hits...)
	sort.Slice(hits, func(i, j int) bool { return worseHit(hits[j], hits[i]) })
	ids := make([]int, len(hits))
	scores := make([]float32, len(hits))
	for i, hit := range hits {
		ids[i] = hit.id
		scores[i] = hit.score
	}
	return ids, scores
}
