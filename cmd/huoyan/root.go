package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/huichen/huoyan/config"
	"github.com/huichen/huoyan/engine"
	"github.com/huichen/huoyan/kb"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "huoyan",
	Short:         "Huoyan - an entity linking engine",
	Long:          `Huoyan links entity mentions in text to knowledge base entities.`,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level: debug, info, warn, error")
	rootCmd.AddCommand(buildCmd, linkCmd, serveCmd)
}

// 读入配置并创建日志
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	cfg.Engine.Logger = logger
	logger.Debug("loaded config", zap.Stringer("config", cfg))
	return cfg, logger, nil
}

// 初始化引擎，需要构建索引时打开知识库，构建完即关闭
func openEngine(cfg *config.Config) (*engine.Engine, error) {
	options := cfg.Engine
	if options.BuildIndex {
		knowledgeBase, err := kb.Open(cfg.KnowledgeBase)
		if err != nil {
			return nil, err
		}
		defer knowledgeBase.Close()
		options.KnowledgeBase = knowledgeBase
	}

	var searcher engine.Engine
	if err := searcher.Init(options); err != nil {
		return nil, err
	}
	return &searcher, nil
}
