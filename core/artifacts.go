package core

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/huichen/huoyan/storage"
	"github.com/huichen/huoyan/types"
)

// 存储中的键名
const (
	WordToIdListKey    = "word_to_idlist"
	EntitiesListKey    = "entities_list"
	EntitiesRankingKey = "entities_ranking"
	EntitiesNamesKey   = "entities_names"
	EntitiesDescrKey   = "entities_descr"
	VectorizerKey      = "vectorizer"
	FaissIndexKey      = "faiss_index"
	ManifestKey        = "manifest"

	ArtifactsVersion = 1

	// 大的值被切成若干页分别存放
	artifactPageSize = 32 * 1024
)

const (
	indexKindFlat = "flat"
	indexKindIVF  = "ivf"
)

// 构建完成后只读的索引集合，可被所有查询共享
type Artifacts struct {
	IndexData

	// 与 WordList 一一对应的实体区间
	WordRanges []types.EntityRange

	Vectorizer *Vectorizer
	Index      VectorIndex
}

// 清单，记录索引的基本信息
type Manifest struct {
	Version          int       `yaml:"version"`
	NumWords         int       `yaml:"num_words"`
	NumEntityEntries int       `yaml:"num_entity_entries"`
	NumEntities      int       `yaml:"num_entities"`
	Dimension        int       `yaml:"dimension"`
	IndexKind        string    `yaml:"index_kind"`
	NumCells         int       `yaml:"num_cells"`
	BuildTime        time.Time `yaml:"build_time"`
}

type wordRange struct {
	Word  string
	Range types.EntityRange
}

type vectorIndexSnapshot struct {
	Kind string
	Flat *FlatIndex
	IVF  *IVFIndex
}

func NewArtifacts(data *IndexData, vectorizer *Vectorizer, index VectorIndex) *Artifacts {
	artifacts := &Artifacts{IndexData: *data, Vectorizer: vectorizer, Index: index}
	artifacts.WordRanges = make([]types.EntityRange, len(data.WordList))
	for i, word := range data.WordList {
		artifacts.WordRanges[i] = data.WordIndex[word]
	}
	return artifacts
}

func (artifacts *Artifacts) Manifest() Manifest {
	manifest := Manifest{
		Version:          ArtifactsVersion,
		NumWords:         len(artifacts.WordList),
		NumEntityEntries: len(artifacts.EntityList),
		NumEntities:      len(artifacts.Names),
		BuildTime:        time.Now().UTC(),
	}
	switch index := artifacts.Index.(type) {
	case *FlatIndex:
		manifest.IndexKind, manifest.Dimension, manifest.NumCells = indexKindFlat, index.Dim(), 1
	case *IVFIndex:
		manifest.IndexKind, manifest.Dimension, manifest.NumCells = indexKindIVF, index.Dim(), index.NumCells()
	}
	return manifest
}

// 写入反向索引、实体表、流行度、名称和描述
func SaveIndexData(db storage.Storage, data *IndexData) error {
	words := make([]wordRange, len(data.WordList))
	for i, word := range data.WordList {
		words[i] = wordRange{Word: word, Range: data.WordIndex[word]}
	}
	values := []struct {
		key   string
		value interface{}
	}{
		{WordToIdListKey, words},
		{EntitiesListKey, data.EntityList},
		{EntitiesRankingKey, data.Popularity},
		{EntitiesNamesKey, data.Names},
		{EntitiesDescrKey, data.Descriptions},
	}
	for _, v := range values {
		if err := writeGob(db, v.key, v.value); err != nil {
			return err
		}
	}
	return nil
}

func LoadIndexData(db storage.Storage) (*IndexData, error) {
	var words []wordRange
	data := &IndexData{}
	values := []struct {
		key   string
		value interface{}
	}{
		{WordToIdListKey, &words},
		{EntitiesListKey, &data.EntityList},
		{EntitiesRankingKey, &data.Popularity},
		{EntitiesNamesKey, &data.Names},
		{EntitiesDescrKey, &data.Descriptions},
	}
	for _, v := range values {
		if err := readGob(db, v.key, v.value); err != nil {
			return nil, err
		}
	}

	data.WordIndex = make(types.WordIndex, len(words))
	data.WordList = make([]string, len(words))
	for i, w := range words {
		r := w.Range
		if r.Start < 0 || r.Start >= r.End || r.End > len(data.EntityList) {
			return nil, types.NewError(types.ErrCodeMalformedArtifact,
				"%s: range [%d, %d) of %q outside entity list of %d", WordToIdListKey, r.Start, r.End, w.Word, len(data.EntityList))
		}
		data.WordIndex[w.Word] = r
		data.WordList[i] = w.Word
	}
	if data.Popularity == nil {
		data.Popularity = types.PopularityTable{}
	}
	if data.Names == nil {
		data.Names = map[string]string{}
	}
	if data.Descriptions == nil {
		data.Descriptions = map[string]string{}
	}
	return data, nil
}

// 写入向量化器和近邻索引
func SaveVectorData(db storage.Storage, vectorizer *Vectorizer, index VectorIndex) error {
	var snapshot vectorIndexSnapshot
	switch index := index.(type) {
	case *FlatIndex:
		snapshot = vectorIndexSnapshot{Kind: indexKindFlat, Flat: index}
	case *IVFIndex:
		snapshot = vectorIndexSnapshot{Kind: indexKindIVF, IVF: index}
	default:
		return fmt.Errorf("unsupported vector index %T", index)
	}
	if err := writeGob(db, VectorizerKey, vectorizer); err != nil {
		return err
	}
	return writeGob(db, FaissIndexKey, snapshot)
}

func LoadVectorData(db storage.Storage) (*Vectorizer, VectorIndex, error) {
	vectorizer := &Vectorizer{}
	if err := readGob(db, VectorizerKey, vectorizer); err != nil {
		return nil, nil, err
	}
	var snapshot vectorIndexSnapshot
	if err := readGob(db, FaissIndexKey, &snapshot); err != nil {
		return nil, nil, err
	}

	var index VectorIndex
	switch {
	case snapshot.Kind == indexKindFlat && snapshot.Flat != nil:
		index = snapshot.Flat
	case snapshot.Kind == indexKindIVF && snapshot.IVF != nil:
		index = snapshot.IVF
	default:
		return nil, nil, types.NewError(types.ErrCodeMalformedArtifact, "%s: unknown index kind %q", FaissIndexKey, snapshot.Kind)
	}
	if index.Len() > 0 && index.Dim() != vectorizer.Dim() {
		return nil, nil, types.NewError(types.ErrCodeMalformedArtifact,
			"%s: dimension %d does not match vectorizer dimension %d", FaissIndexKey, index.Dim(), vectorizer.Dim())
	}
	return vectorizer, index, nil
}

func SaveManifest(db storage.Storage, manifest Manifest) error {
	value, err := yaml.Marshal(manifest)
	if err != nil {
		return err
	}
	return writeValue(db, ManifestKey, value)
}

func LoadManifest(db storage.Storage) (Manifest, error) {
	var manifest Manifest
	value, err := readValue(db, ManifestKey)
	if err != nil {
		return manifest, err
	}
	if err := yaml.Unmarshal(value, &manifest); err != nil {
		return manifest, types.WrapError(err, types.ErrCodeMalformedArtifact, "%s", ManifestKey)
	}
	return manifest, nil
}

// 载入全部索引并检查一致性
func LoadArtifacts(db storage.Storage) (*Artifacts, error) {
	data, err := LoadIndexData(db)
	if err != nil {
		return nil, err
	}
	vectorizer, index, err := LoadVectorData(db)
	if err != nil {
		return nil, err
	}
	if index.Len() != len(data.WordList) {
		return nil, types.NewError(types.ErrCodeMalformedArtifact,
			"%s holds %d vectors but %s has %d words", FaissIndexKey, index.Len(), WordToIdListKey, len(data.WordList))
	}
	return NewArtifacts(data, vectorizer, index), nil
}

func SaveArtifacts(db storage.Storage, artifacts *Artifacts) error {
	if err := SaveIndexData(db, &artifacts.IndexData); err != nil {
		return err
	}
	if err := SaveVectorData(db, artifacts.Vectorizer, artifacts.Index); err != nil {
		return err
	}
	return SaveManifest(db, artifacts.Manifest())
}

func writeGob(db storage.Storage, key string, value interface{}) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(value); err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return writeValue(db, key, buf.Bytes())
}

func readGob(db storage.Storage, key string, value interface{}) error {
	b, err := readValue(db, key)
	if err != nil {
		return err
	}
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(value); err != nil {
		return types.WrapError(err, types.ErrCodeMalformedArtifact, "decode %s", key)
	}
	return nil
}

func pageKey(key string, page int) []byte {
	return []byte(fmt.Sprintf("%s#%06d", key, page))
}

// 键本身存放页数，各页存放在 key#000000、key#000001 ……
func writeValue(db storage.Storage, key string, value []byte) error {
	numPages := (len(value) + artifactPageSize - 1) / artifactPageSize
	for page := 0; page < numPages; page++ {
		end := (page + 1) * artifactPageSize
		if end > len(value) {
			end = len(value)
		}
		if err := db.Set(pageKey(key, page), value[page*artifactPageSize:end]); err != nil {
			return fmt.Errorf("write %s: %w", key, err)
		}
	}
	header := make([]byte, 8)
	binary.BigEndian.PutUint64(header, uint64(numPages))
	if err := db.Set([]byte(key), header); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func readValue(db storage.Storage, key string) ([]byte, error) {
	header, err := db.Get([]byte(key))
	if err != nil {
		return nil, types.WrapError(err, types.ErrCodeMissingArtifact, "read %s", key)
	}
	if header == nil {
		return nil, types.NewError(types.ErrCodeMissingArtifact, "artifact %s not found", key)
	}
	if len(header) != 8 {
		return nil, types.NewError(types.ErrCodeMalformedArtifact, "artifact %s has a bad header", key)
	}
	numPages := int(binary.BigEndian.Uint64(header))
	var value []byte
	for page := 0; page < numPages; page++ {
		b, err := db.Get(pageKey(key, page))
		if err != nil || b == nil {
			return nil, types.NewError(types.ErrCodeMalformedArtifact, "artifact %s is missing page %d", key, page)
		}
		value = append(value, b...)
	}
	return value, nil
}
