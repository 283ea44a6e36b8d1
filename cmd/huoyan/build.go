package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var buildFitOnly bool

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the inverted index and vector index from the knowledge base",
	Long: `Build reads entity labels, aliases and descriptions from the configured
knowledge base, writes the inverted index, fits the character n-gram vectorizer
and trains the nearest neighbour index. The manifest is printed on success.

Examples:
  huoyan build -c huoyan.yaml
  huoyan build -c huoyan.yaml --fit-only   # refit the vectorizer over the stored index`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().BoolVar(&buildFitOnly, "fit-only", false, "only refit the vectorizer and vector index")
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg.Engine.BuildIndex = !buildFitOnly
	cfg.Engine.FitVectorizer = true
	if err := cfg.Validate(); err != nil {
		return err
	}

	searcher, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer searcher.Close()

	manifest := searcher.Artifacts().Manifest()
	logger.Info("build finished",
		zap.Int("num_words", manifest.NumWords),
		zap.Int("num_entities", manifest.NumEntities),
		zap.String("index_kind", manifest.IndexKind))
	return yaml.NewEncoder(os.Stdout).Encode(manifest)
}
