package kb

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/knakk/rdf"

	"github.com/huichen/huoyan/types"
)

// 内存中的三元组库，保留载入顺序
type TripleStore struct {
	triples    []types.Triple
	byRelation map[string][]int
}

// 用给定的三元组构造
func NewTripleStore(triples []types.Triple) *TripleStore {
	store := &TripleStore{
		triples:    triples,
		byRelation: make(map[string][]int),
	}
	for i, triple := range triples {
		store.byRelation[triple.Relation] = append(store.byRelation[triple.Relation], i)
	}
	return store
}

// 载入N-Triples文件。空行和#开头的注释行被忽略
func OpenTripleStore(path string) (*TripleStore, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, types.WrapError(err, types.ErrCodeConfig, "open kb %s", path)
	}
	defer file.Close()

	triples := []types.Triple{}
	decoder := rdf.NewTripleDecoder(bufio.NewReader(file), rdf.NTriples)
	for {
		triple, err := decoder.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, types.WrapError(err, types.ErrCodeConfig, "kb %s triple %d", path, len(triples)+1)
		}
		triples = append(triples, fromRDF(triple))
	}
	return NewTripleStore(triples), nil
}

func (store *TripleStore) LookupRelations(ctx context.Context, relation string) ([]types.Triple, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	indices := store.byRelation[relation]
	triples := make([]types.Triple, len(indices))
	for i, index := range indices {
		triples[i] = store.triples[index]
	}
	return triples, nil
}

func (store *TripleStore) RelationCounts(ctx context.Context) (map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return countSubjects(store.triples), nil
}

func (store *TripleStore) Len() int {
	return len(store.triples)
}

func (store *TripleStore) Close() error {
	return nil
}
