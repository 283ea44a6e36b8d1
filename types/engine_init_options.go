package types

import (
	"runtime"

	"go.uber.org/zap"
)

var (
	// 默认的字符n元组范围
	defaultNGramRange = []int{2, 3}

	// 默认的别名关系
	defaultAliasRelations = []string{}
)

const (
	defaultMaxChunkLength            = 300
	defaultChunkBatchSize            = 5
	defaultNumFaissCandidateEntities = 20
	defaultNumEntitiesForBertRanking = 50
	defaultNumEntitiesToReturn       = 10
	defaultNumFaissCells             = 50
	defaultNumFaissProbes            = 1
	defaultMaxTfidfFeatures          = 1000
	defaultMaxDocFrequency           = 0.85
	defaultLang                      = "en"
	defaultStorageEngine             = "bolt"
	defaultNumShards                 = 4
	defaultLinkerBufferLength        = 64
	defaultLabelRelation             = "http://www.w3.org/2000/01/rdf-schema#label"
)

type EngineInitOptions struct {
	// 文本块的最大字符数
	MaxChunkLength int `mapstructure:"max_chunk_len" yaml:"max_chunk_len"`

	// 每个子批次最多包含的文本块数
	ChunkBatchSize int `mapstructure:"batch_size" yaml:"batch_size"`

	// 每个词向量近邻检索返回的词数
	NumFaissCandidateEntities int `mapstructure:"num_faiss_candidate_entities" yaml:"num_faiss_candidate_entities"`

	// 送入重排序阶段的候选实体数
	NumEntitiesForBertRanking int `mapstructure:"num_entities_for_bert_ranking" yaml:"num_entities_for_bert_ranking"`

	// 每个提及最终返回的实体数
	NumEntitiesToReturn int `mapstructure:"num_entities_to_return" yaml:"num_entities_to_return"`

	// 近邻索引的聚类单元数，为1时使用精确的扁平索引
	NumFaissCells int `mapstructure:"num_faiss_cells" yaml:"num_faiss_cells"`

	// 检索时探查的聚类单元数
	NumFaissProbes int `mapstructure:"num_faiss_probes" yaml:"num_faiss_probes"`

	// 向量化器的最大特征数
	MaxTfidfFeatures int `mapstructure:"max_tfidf_features" yaml:"max_tfidf_features"`

	// 字符n元组的范围[min, max]
	NGramRange []int `mapstructure:"ngram_range" yaml:"ngram_range"`

	// 文档频率高于此比例的n元组不作为特征
	MaxDocFrequency float64 `mapstructure:"max_df" yaml:"max_df"`

	// 语言，决定停用词表和词形归一化方式：en、ru、zh
	Lang string `mapstructure:"lang" yaml:"lang"`

	// 是否做词形归一化
	Lemmatize bool `mapstructure:"lemmatize" yaml:"lemmatize"`

	// 额外的停用词文件，每行一个词
	StopTokenFile string `mapstructure:"stop_token_file" yaml:"stop_token_file"`

	// 中文分词词典，多个文件用逗号分隔，仅在 Lang 为 zh 时使用
	SegmenterDictionaries string `mapstructure:"segmenter_dictionaries" yaml:"segmenter_dictionaries"`

	// 是否用上下文重排序
	UseDescriptions bool `mapstructure:"use_descriptions" yaml:"use_descriptions"`

	// 重排序上下文中是否保留提及原文
	IncludeMention bool `mapstructure:"include_mention" yaml:"include_mention"`

	// ONNX模型目录，设置后且未注入对应协作者时由引擎创建
	RecognizerModelPath string `mapstructure:"ner_model_path" yaml:"ner_model_path"`
	RerankerModelPath   string `mapstructure:"ranker_model_path" yaml:"ranker_model_path"`
	OnnxLibraryPath     string `mapstructure:"onnx_library_path" yaml:"onnx_library_path"`

	// 初始化时是否从知识库构建反向索引
	BuildIndex bool `mapstructure:"build_inverted_index" yaml:"build_inverted_index"`

	// 初始化时是否重新训练向量化器和近邻索引
	FitVectorizer bool `mapstructure:"fit_vectorizer" yaml:"fit_vectorizer"`

	// 知识库中的名称关系、别名关系和描述关系
	LabelRelation       string   `mapstructure:"label_rel" yaml:"label_rel"`
	AliasRelations      []string `mapstructure:"aliases_rels" yaml:"aliases_rels"`
	DescriptionRelation string   `mapstructure:"descr_rel" yaml:"descr_rel"`

	// 并行构建索引的分片数
	NumShards int `mapstructure:"num_shards" yaml:"num_shards"`

	// 索引文件所在目录及存储引擎(bolt或kv)
	StorageFolder string `mapstructure:"load_path" yaml:"load_path"`
	StorageEngine string `mapstructure:"storage_engine" yaml:"storage_engine"`

	// 链接工作协程数及其通道长度
	NumLinkerThreads   int `mapstructure:"num_linker_threads" yaml:"num_linker_threads"`
	LinkerBufferLength int `mapstructure:"linker_buffer_length" yaml:"linker_buffer_length"`

	// 按提及文本缓存的候选数，不大于0时不缓存
	CandidateCacheSize int `mapstructure:"candidate_cache_size" yaml:"candidate_cache_size"`

	// 以下协作者不从配置文件读入，由调用方注入

	KnowledgeBase KnowledgeBase    `mapstructure:"-" yaml:"-"`
	Recognizer    Recognizer       `mapstructure:"-" yaml:"-"`
	Reranker      Reranker         `mapstructure:"-" yaml:"-"`
	Normalizer    Normalizer       `mapstructure:"-" yaml:"-"`
	Splitter      SentenceSplitter `mapstructure:"-" yaml:"-"`
	Logger        *zap.Logger      `mapstructure:"-" yaml:"-"`
}

// 初始化EngineInitOptions，当用户未设定某个选项的值时用默认值取代
func (options *EngineInitOptions) Init() {
	if options.MaxChunkLength == 0 {
		options.MaxChunkLength = defaultMaxChunkLength
	}
	if options.ChunkBatchSize == 0 {
		options.ChunkBatchSize = defaultChunkBatchSize
	}
	if options.NumFaissCandidateEntities == 0 {
		options.NumFaissCandidateEntities = defaultNumFaissCandidateEntities
	}
	if options.NumEntitiesForBertRanking == 0 {
		options.NumEntitiesForBertRanking = defaultNumEntitiesForBertRanking
	}
	if options.NumEntitiesToReturn == 0 {
		options.NumEntitiesToReturn = defaultNumEntitiesToReturn
	}
	if options.NumFaissCells == 0 {
		options.NumFaissCells = defaultNumFaissCells
	}
	if options.NumFaissProbes == 0 {
		options.NumFaissProbes = defaultNumFaissProbes
	}
	if options.MaxTfidfFeatures == 0 {
		options.MaxTfidfFeatures = defaultMaxTfidfFeatures
	}
	if len(options.NGramRange) == 0 {
		options.NGramRange = append([]int{}, defaultNGramRange...)
	}
	if options.MaxDocFrequency == 0 {
		options.MaxDocFrequency = defaultMaxDocFrequency
	}
	if options.Lang == "" {
		options.Lang = defaultLang
	}
	if options.LabelRelation == "" {
		options.LabelRelation = defaultLabelRelation
	}
	if options.AliasRelations == nil {
		options.AliasRelations = defaultAliasRelations
	}
	if options.NumShards == 0 {
		options.NumShards = defaultNumShards
	}
	if options.StorageEngine == "" {
		options.StorageEngine = defaultStorageEngine
	}
	if options.NumLinkerThreads == 0 {
		options.NumLinkerThreads = runtime.NumCPU()
	}
	if options.LinkerBufferLength == 0 {
		options.LinkerBufferLength = defaultLinkerBufferLength
	}
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}
}

// 检查选项是否合法，应在 Init 之后调用
func (options *EngineInitOptions) Validate() error {
	switch {
	case options.MaxChunkLength < 1:
		return NewError(ErrCodeConfig, "max_chunk_len must be positive, got %d", options.MaxChunkLength)
	case options.ChunkBatchSize < 1:
		return NewError(ErrCodeConfig, "batch_size must be positive, got %d", options.ChunkBatchSize)
	case options.NumFaissCandidateEntities < 1:
		return NewError(ErrCodeConfig, "num_faiss_candidate_entities must be positive, got %d", options.NumFaissCandidateEntities)
	case options.NumEntitiesForBertRanking < 1:
		return NewError(ErrCodeConfig, "num_entities_for_bert_ranking must be positive, got %d", options.NumEntitiesForBertRanking)
	case options.NumEntitiesToReturn < 1:
		return NewError(ErrCodeConfig, "num_entities_to_return must be positive, got %d", options.NumEntitiesToReturn)
	case options.NumFaissCells < 1:
		return NewError(ErrCodeConfig, "num_faiss_cells must be positive, got %d", options.NumFaissCells)
	case options.NumFaissProbes < 1:
		return NewError(ErrCodeConfig, "num_faiss_probes must be positive, got %d", options.NumFaissProbes)
	case options.MaxTfidfFeatures < 1:
		return NewError(ErrCodeConfig, "max_tfidf_features must be positive, got %d", options.MaxTfidfFeatures)
	case len(options.NGramRange) != 2 || options.NGramRange[0] < 1 || options.NGramRange[0] > options.NGramRange[1]:
		return NewError(ErrCodeConfig, "ngram_range must be [min, max] with 1 <= min <= max, got %v", options.NGramRange)
	case options.MaxDocFrequency <= 0 || options.MaxDocFrequency > 1:
		return NewError(ErrCodeConfig, "max_df must be in (0, 1], got %v", options.MaxDocFrequency)
	case options.NumShards < 1:
		return NewError(ErrCodeConfig, "num_shards must be positive, got %d", options.NumShards)
	case options.NumLinkerThreads < 1:
		return NewError(ErrCodeConfig, "num_linker_threads must be positive, got %d", options.NumLinkerThreads)
	}
	switch options.Lang {
	case "en", "ru", "zh":
	default:
		return NewError(ErrCodeConfig, "unsupported lang %q", options.Lang)
	}
	if options.StorageFolder == "" {
		return NewError(ErrCodeConfig, "load_path is required")
	}
	if options.BuildIndex && options.KnowledgeBase == nil {
		return NewError(ErrCodeConfig, "build_inverted_index requires a knowledge base")
	}
	return nil
}
