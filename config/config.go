// Package config 从YAML文件和环境变量读入引擎、知识库、服务和日志的配置
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/huichen/huoyan/kb"
	"github.com/huichen/huoyan/types"
)

// 环境变量前缀，比如 HUOYAN_ENGINE_LOAD_PATH
const envPrefix = "HUOYAN"

type Config struct {
	Engine        types.EngineInitOptions `mapstructure:"engine" yaml:"engine"`
	KnowledgeBase kb.Options              `mapstructure:"knowledge_base" yaml:"knowledge_base"`
	Server        ServerConfig            `mapstructure:"server" yaml:"server"`
	Log           LogConfig               `mapstructure:"log" yaml:"log"`
}

type ServerConfig struct {
	// 监听地址
	Addr string `mapstructure:"addr" yaml:"addr"`

	// debug 或 release
	Mode string `mapstructure:"mode" yaml:"mode"`
}

type LogConfig struct {
	// debug、info、warn 或 error
	Level string `mapstructure:"level" yaml:"level"`

	// json 或 console
	Format string `mapstructure:"format" yaml:"format"`
}

// 只有viper知道的键才会从环境变量读入，因此这里为常用的键设置默认值
var defaults = map[string]interface{}{
	"engine.load_path":            "",
	"engine.storage_engine":       "bolt",
	"engine.lang":                 "en",
	"engine.build_inverted_index": false,
	"engine.fit_vectorizer":       false,
	"engine.use_descriptions":     false,
	"engine.include_mention":      false,
	"engine.ner_model_path":       "",
	"engine.ranker_model_path":    "",
	"engine.onnx_library_path":    "",
	"engine.num_linker_threads":   0,
	"engine.candidate_cache_size": 0,
	"knowledge_base.kb_format":    kb.FormatNTriples,
	"knowledge_base.kb_filename":  "",
	"server.addr":                 ":8080",
	"server.mode":                 "release",
	"log.level":                   "info",
	"log.format":                  "json",
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	return v
}

// 读入配置文件，合并环境变量，填充默认值并检查
//
// path 为空时只使用环境变量和默认值。
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, types.WrapError(err, types.ErrCodeConfig, "read config file %q", path)
		}
	}
	return unmarshalAndFinalize(v)
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, types.WrapError(err, types.ErrCodeConfig, "unmarshal configuration")
	}
	cfg.Engine.Init()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	// 知识库在配置之外打开，这里只检查路径
	engine := cfg.Engine
	engine.BuildIndex = false
	if err := engine.Validate(); err != nil {
		return err
	}
	if cfg.Engine.BuildIndex && cfg.KnowledgeBase.Path == "" {
		return types.NewError(types.ErrCodeConfig, "build_inverted_index requires knowledge_base.kb_filename")
	}
	switch cfg.Server.Mode {
	case "debug", "release", "test":
	default:
		return types.NewError(types.ErrCodeConfig, "unsupported server mode %q", cfg.Server.Mode)
	}
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return types.NewError(types.ErrCodeConfig, "unsupported log level %q", cfg.Log.Level)
	}
	return nil
}

// 配置摘要，用于日志
func (cfg *Config) String() string {
	return fmt.Sprintf("engine=%s/%s lang=%s kb=%s server=%s log=%s",
		cfg.Engine.StorageFolder, cfg.Engine.StorageEngine, cfg.Engine.Lang,
		cfg.KnowledgeBase.Path, cfg.Server.Addr, cfg.Log.Level)
}
