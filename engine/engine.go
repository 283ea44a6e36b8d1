package engine

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/huichen/huoyan/core"
	"github.com/huichen/huoyan/models"
	"github.com/huichen/huoyan/nlp"
	"github.com/huichen/huoyan/storage"
	"github.com/huichen/huoyan/types"
)

const (
	NumNanosecondsInAMillisecond = 1000000
	StorageFilePrefix            = "huoyan"
)

type Engine struct {
	// 计数器，用来统计链接了多少请求、文本块和提及
	numLinkRequests  uint64
	numChunksLinked  uint64
	numMentionsFound uint64

	// 记录初始化参数
	initOptions types.EngineInitOptions
	initialized bool

	artifacts         *core.Artifacts
	chunker           *core.Chunker
	ranker            *core.Ranker
	candidateCache    *lru.Cache[string, core.MentionCandidates]
	descriptionRanker *core.DescriptionRanker
	recognizer        types.Recognizer
	stopTokens        nlp.StopTokens
	db                storage.Storage
	metrics           *Metrics
	logger            *zap.Logger

	// 引擎自己创建的模型，关闭时释放
	closers []io.Closer

	// 链接器使用的通信通道
	linkerChannel chan linkerRequest
	done          chan struct{}

	// 链接调用持有读锁，初始化和关闭持有写锁
	sync.RWMutex
}

func (engine *Engine) Init(options types.EngineInitOptions) (err error) {
	engine.Lock()
	defer engine.Unlock()

	// 初始化初始参数
	if engine.initialized {
		return types.NewError(types.ErrCodeConfig, "engine is already initialized")
	}
	options.Init()
	if err := options.Validate(); err != nil {
		return err
	}
	engine.initOptions = options
	engine.logger = options.Logger

	// 失败时释放已打开的资源，不留下半初始化的引擎
	defer func() {
		if err != nil {
			engine.release()
		}
	}()

	// 初始化停用词
	if err := engine.stopTokens.Init(options.Lang, options.StopTokenFile); err != nil {
		return types.WrapError(err, types.ErrCodeConfig, "load stop tokens")
	}

	normalizer := options.Normalizer
	if normalizer == nil {
		if normalizer, err = nlp.NewNormalizer(options.Lang, options.Lemmatize); err != nil {
			return types.WrapError(err, types.ErrCodeConfig, "create normalizer")
		}
	}

	// 中文需要分词，其他语言按空格切分提及
	var tokenizer nlp.Tokenizer
	if options.Lang == "zh" {
		tokenizer = nlp.NewSegoTokenizer(options.SegmenterDictionaries)
	}

	// 打开或者创建数据库
	if err := os.MkdirAll(options.StorageFolder, 0700); err != nil {
		return types.WrapError(err, types.ErrCodeConfig, "create storage folder %s", options.StorageFolder)
	}
	dbPath := filepath.Join(options.StorageFolder, StorageFilePrefix+"."+options.StorageEngine)
	if engine.db, err = storage.OpenStorage(dbPath, options.StorageEngine); err != nil {
		return types.WrapError(err, types.ErrCodeConfig, "open storage %s", dbPath)
	}

	if err := engine.loadArtifacts(tokenizer, normalizer); err != nil {
		return err
	}

	engine.ranker = core.NewRanker(core.RankerOptions{
		NumFaissCandidateEntities: options.NumFaissCandidateEntities,
		NumEntitiesForBertRanking: options.NumEntitiesForBertRanking,
		NumEntitiesToReturn:       options.NumEntitiesToReturn,
	}, &engine.stopTokens, normalizer, tokenizer, engine.logger)
	if options.CandidateCacheSize > 0 {
		if engine.candidateCache, err = lru.New[string, core.MentionCandidates](options.CandidateCacheSize); err != nil {
			return types.WrapError(err, types.ErrCodeConfig, "create candidate cache")
		}
	}

	if err := engine.initRecognizer(); err != nil {
		return err
	}
	if err := engine.initReranker(); err != nil {
		return err
	}

	splitter := options.Splitter
	if splitter == nil {
		splitter = nlp.ProseSplitter{}
	}
	engine.chunker = core.NewChunker(options.MaxChunkLength, options.ChunkBatchSize, splitter)

	engine.metrics = newMetrics()

	// 启动链接器
	engine.linkerChannel = make(chan linkerRequest, options.LinkerBufferLength)
	engine.done = make(chan struct{})
	for i := 0; i < options.NumLinkerThreads; i++ {
		go engine.linkerWorker()
	}

	engine.initialized = true
	engine.logger.Info("engine initialized",
		zap.String("storage", dbPath),
		zap.Int("num_words", len(engine.artifacts.WordList)),
		zap.Int("num_entities", len(engine.artifacts.Names)),
		zap.Bool("use_descriptions", engine.descriptionRanker != nil))
	return nil
}

// 按选项构建或载入索引
func (engine *Engine) loadArtifacts(tokenizer nlp.Tokenizer, normalizer types.Normalizer) error {
	options := &engine.initOptions
	ctx := context.Background()

	var data *core.IndexData
	var err error
	if options.BuildIndex {
		builder := core.NewIndexBuilder(core.IndexBuilderOptions{
			LabelRelation:       options.LabelRelation,
			AliasRelations:      options.AliasRelations,
			DescriptionRelation: options.DescriptionRelation,
			Lang:                options.Lang,
			NumShards:           options.NumShards,
		}, tokenizer, &engine.stopTokens, normalizer, engine.logger)
		if data, err = builder.Build(ctx, options.KnowledgeBase); err != nil {
			return err
		}
		if err := core.SaveIndexData(engine.db, data); err != nil {
			return types.WrapError(err, types.ErrCodeConfig, "save inverted index")
		}
	} else if data, err = core.LoadIndexData(engine.db); err != nil {
		return err
	}

	var vectorizer *core.Vectorizer
	var index core.VectorIndex
	if options.FitVectorizer {
		vectorizer, err = core.FitVectorizer(data.WordList, options.NGramRange[0], options.NGramRange[1],
			options.MaxTfidfFeatures, options.MaxDocFrequency)
		if err != nil {
			return types.WrapError(err, types.ErrCodeConfig, "fit vectorizer")
		}
		index = core.BuildVectorIndex(vectorizer.Transform(data.WordList), vectorizer.Dim(),
			options.NumFaissCells, options.NumFaissProbes, engine.logger)
		if err := core.SaveVectorData(engine.db, vectorizer, index); err != nil {
			return types.WrapError(err, types.ErrCodeConfig, "save vectorizer")
		}
	} else if vectorizer, index, err = core.LoadVectorData(engine.db); err != nil {
		return err
	}

	if index.Len() != len(data.WordList) {
		return types.NewError(types.ErrCodeMalformedArtifact,
			"%s holds %d vectors but %s has %d words", core.FaissIndexKey, index.Len(), core.WordToIdListKey, len(data.WordList))
	}
	engine.artifacts = core.NewArtifacts(data, vectorizer, index)

	if options.BuildIndex || options.FitVectorizer {
		if err := core.SaveManifest(engine.db, engine.artifacts.Manifest()); err != nil {
			return types.WrapError(err, types.ErrCodeConfig, "save manifest")
		}
	}
	return nil
}

// 识别器：注入的优先，其次是ONNX模型，英文时退回到prose
func (engine *Engine) initRecognizer() error {
	options := &engine.initOptions
	switch {
	case options.Recognizer != nil:
		engine.recognizer = options.Recognizer
	case options.RecognizerModelPath != "":
		recognizer, err := models.NewHugotRecognizer(options.RecognizerModelPath, engine.sessionConfig(), engine.logger)
		if err != nil {
			return types.WrapError(err, types.ErrCodeConfig, "load recognizer model")
		}
		engine.recognizer = recognizer
		engine.closers = append(engine.closers, recognizer)
	case options.Lang == "en":
		engine.recognizer = nlp.ProseRecognizer{}
	default:
		engine.logger.Warn("no recognizer configured, only mention linking is available", zap.String("lang", options.Lang))
	}
	return nil
}

func (engine *Engine) initReranker() error {
	options := &engine.initOptions
	if !options.UseDescriptions {
		return nil
	}
	reranker := options.Reranker
	if reranker == nil {
		if options.RerankerModelPath == "" {
			return types.NewError(types.ErrCodeConfig, "use_descriptions requires a reranker or ranker_model_path")
		}
		embedder, err := models.NewHugotEmbedder(options.RerankerModelPath, engine.sessionConfig())
		if err != nil {
			return types.WrapError(err, types.ErrCodeConfig, "load reranker model")
		}
		engine.closers = append(engine.closers, embedder)
		reranker = models.NewEmbeddingReranker(embedder, engine.artifacts.Names, engine.artifacts.Descriptions)
	}
	engine.descriptionRanker = core.NewDescriptionRanker(reranker, options.IncludeMention, options.NumEntitiesToReturn, engine.logger)
	return nil
}

func (engine *Engine) sessionConfig() models.SessionConfig {
	return models.SessionConfig{OnnxLibraryPath: engine.initOptions.OnnxLibraryPath}
}

// 链接一批文档
//
// 文档先被切分为文本块和子批次，每个子批次送入识别器，含有提及的文本块分发给链接器。
// 返回结果按子批次和文本块的顺序排列。
func (engine *Engine) Link(ctx context.Context, docs []string) (response types.LinkResponse, err error) {
	engine.RLock()
	defer engine.RUnlock()
	if !engine.initialized {
		return response, types.NewError(types.ErrCodeNotInitialized, "engine is not initialized")
	}
	if engine.recognizer == nil {
		return response, types.NewError(types.ErrCodeConfig, "no recognizer configured")
	}
	atomic.AddUint64(&engine.numLinkRequests, 1)

	response.RequestId = uuid.NewString()
	logger := engine.logger.With(zap.String("request_id", response.RequestId))
	startTime := time.Now()
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		engine.metrics.linkRequests.WithLabelValues(status).Inc()
		engine.metrics.linkDuration.Observe(time.Since(startTime).Seconds())
	}()

	textBatches, numsBatches := engine.chunker.Chunk(docs)
	response.NumBatches = len(textBatches)
	response.Chunks = []types.ChunkResult{}
	logger.Debug("chunked documents", zap.Int("num_docs", len(docs)), zap.Int("num_batches", len(textBatches)))

	for batch, textBatch := range textBatches {
		engine.metrics.chunks.Add(float64(len(textBatch)))
		tokens, mentions, err := engine.recognizer.Recognize(ctx, textBatch)
		if err != nil {
			return types.LinkResponse{}, types.WrapError(err, types.ErrCodeCollaborator, "recognize batch %d", batch)
		}

		chunks := core.FlattenChunks(textBatch, numsBatches[batch])
		requests := []linkerRequest{}
		for i, chunk := range chunks {
			if i >= len(mentions) || len(mentions[i]) == 0 {
				continue
			}
			var contextTokens []string
			if i < len(tokens) {
				contextTokens = tokens[i]
			}
			response.Chunks = append(response.Chunks, types.ChunkResult{Batch: batch, Chunk: chunk})
			requests = append(requests, linkerRequest{mentions: mentions[i], contextTokens: contextTokens})
			atomic.AddUint64(&engine.numMentionsFound, uint64(len(mentions[i])))
		}

		entityIds, err := engine.dispatch(ctx, requests)
		if err != nil {
			return types.LinkResponse{}, err
		}
		offset := len(response.Chunks) - len(requests)
		for i, request := range requests {
			results := make([]types.MentionResult, len(request.mentions))
			for j, mention := range request.mentions {
				mention.Text = lower(mention.Text)
				results[j] = types.MentionResult{Mention: mention, EntityIds: entityIds[i][j]}
			}
			response.Chunks[offset+i].Mentions = results
		}
		atomic.AddUint64(&engine.numChunksLinked, uint64(len(requests)))
	}

	logger.Debug("linked documents",
		zap.Int("num_chunks", len(response.Chunks)),
		zap.Float64("elapsed_ms", float64(time.Since(startTime).Nanoseconds())/NumNanosecondsInAMillisecond))
	return response, nil
}

// 链接给定的提及，跳过分块和识别
func (engine *Engine) LinkEntities(ctx context.Context, mentions []types.Mention, contextTokens []string) ([][]string, error) {
	engine.RLock()
	defer engine.RUnlock()
	if !engine.initialized {
		return nil, types.NewError(types.ErrCodeNotInitialized, "engine is not initialized")
	}
	atomic.AddUint64(&engine.numMentionsFound, uint64(len(mentions)))
	entityIds, err := engine.dispatch(ctx, []linkerRequest{{mentions: mentions, contextTokens: contextTokens}})
	if err != nil {
		return nil, err
	}
	return entityIds[0], nil
}

// 把请求分发给链接器，按原顺序收集结果
func (engine *Engine) dispatch(ctx context.Context, requests []linkerRequest) ([][][]string, error) {
	output := make([][][]string, len(requests))
	if len(requests) == 0 {
		return output, nil
	}

	// 通道有足够的缓冲，提前返回时链接器不会阻塞
	returnChannel := make(chan linkerReturnRequest, len(requests))
	sent := 0
	for i := range requests {
		request := requests[i]
		request.ctx = ctx
		request.index = i
		request.linkerReturnChannel = returnChannel
		select {
		case engine.linkerChannel <- request:
			sent++
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	var firstErr error
	for received := 0; received < sent; received++ {
		select {
		case result := <-returnChannel:
			if result.err != nil && firstErr == nil {
				firstErr = result.err
			}
			output[result.index] = result.entityIds
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return output, nil
}

// 只读的索引集合
func (engine *Engine) Artifacts() *core.Artifacts {
	return engine.artifacts
}

func (engine *Engine) Metrics() *Metrics {
	return engine.metrics
}

func (engine *Engine) NumLinkRequests() uint64 {
	return atomic.LoadUint64(&engine.numLinkRequests)
}

func (engine *Engine) NumChunksLinked() uint64 {
	return atomic.LoadUint64(&engine.numChunksLinked)
}

func (engine *Engine) NumMentionsFound() uint64 {
	return atomic.LoadUint64(&engine.numMentionsFound)
}

// 关闭引擎，等待正在进行的链接调用返回
func (engine *Engine) Close() error {
	engine.Lock()
	defer engine.Unlock()
	if !engine.initialized {
		return nil
	}
	close(engine.done)
	engine.initialized = false
	return engine.release()
}

func (engine *Engine) release() error {
	var firstErr error
	for _, closer := range engine.closers {
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	engine.closers = nil
	if engine.db != nil {
		if err := engine.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		engine.db = nil
	}
	return firstErr
}

func lower(text string) string {
	return strings.ToLower(text)
}
