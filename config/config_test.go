package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/huichen/huoyan/types"
	"github.com/huichen/huoyan/utils"
)

const testConfigYAML = `
engine:
  load_path: /tmp/huoyan
  max_chunk_len: 200
  ngram_range: [1, 4]
  label_rel: http://www.w3.org/2000/01/rdf-schema#label
  aliases_rels:
    - http://www.w3.org/2004/02/skos/core#altLabel
  build_inverted_index: true
  fit_vectorizer: true
knowledge_base:
  kb_format: sqlite3
  kb_filename: /tmp/kb.sqlite
  sql_table_name: triples
server:
  addr: ":9090"
log:
  level: debug
`

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "huoyan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, testConfigYAML))
	require.NoError(t, err)

	utils.Expect(t, "/tmp/huoyan", cfg.Engine.StorageFolder)
	utils.Expect(t, "200", cfg.Engine.MaxChunkLength)
	utils.Expect(t, "[1 4]", cfg.Engine.NGramRange)
	utils.Expect(t, "[http://www.w3.org/2004/02/skos/core#altLabel]", cfg.Engine.AliasRelations)
	utils.Expect(t, "true", cfg.Engine.BuildIndex)
	utils.Expect(t, "sqlite3", cfg.KnowledgeBase.Format)
	utils.Expect(t, "triples", cfg.KnowledgeBase.SQLTableName)
	utils.Expect(t, ":9090", cfg.Server.Addr)
	utils.Expect(t, "debug", cfg.Log.Level)

	// 未设置的选项使用默认值
	utils.Expect(t, "5", cfg.Engine.ChunkBatchSize)
	utils.Expect(t, "50", cfg.Engine.NumEntitiesForBertRanking)
	utils.Expect(t, "0.85", cfg.Engine.MaxDocFrequency)
	utils.Expect(t, "bolt", cfg.Engine.StorageEngine)
	utils.Expect(t, "en", cfg.Engine.Lang)
	utils.Expect(t, "json", cfg.Log.Format)
	assert.NotNil(t, cfg.Engine.Logger)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HUOYAN_ENGINE_LOAD_PATH", "/data/index")
	t.Setenv("HUOYAN_ENGINE_LANG", "ru")
	t.Setenv("HUOYAN_SERVER_ADDR", ":7000")

	cfg, err := Load("")
	require.NoError(t, err)
	utils.Expect(t, "/data/index", cfg.Engine.StorageFolder)
	utils.Expect(t, "ru", cfg.Engine.Lang)
	utils.Expect(t, ":7000", cfg.Server.Addr)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, types.IsCode(err, types.ErrCodeConfig), "%v", err)

	// 缺少 load_path
	_, err = Load(writeConfig(t, "engine:\n  lang: en\n"))
	assert.True(t, types.IsCode(err, types.ErrCodeConfig), "%v", err)

	_, err = Load(writeConfig(t, "engine:\n  load_path: /tmp/x\n  lang: fr\n"))
	assert.True(t, types.IsCode(err, types.ErrCodeConfig), "%v", err)

	_, err = Load(writeConfig(t, "engine:\n  load_path: /tmp/x\n  build_inverted_index: true\n"))
	assert.True(t, types.IsCode(err, types.ErrCodeConfig), "%v", err)

	_, err = Load(writeConfig(t, "engine:\n  load_path: /tmp/x\nlog:\n  level: verbose\n"))
	assert.True(t, types.IsCode(err, types.ErrCodeConfig), "%v", err)
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LogConfig{Level: "warn", Format: "console"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))

	utils.Expect(t, "info", parseLevel("bogus"))
}
