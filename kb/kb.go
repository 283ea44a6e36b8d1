// Package kb 读取知识库中的三元组，用于构建反向索引
package kb

import (
	"strings"

	"github.com/knakk/rdf"

	"github.com/huichen/huoyan/types"
)

const (
	FormatNTriples = "ntriples"
	FormatSQLite   = "sqlite3"
)

var defaultSQLColumnNames = []string{"subject", "relation", "object"}

type Options struct {
	// 知识库格式：ntriples 或 sqlite3
	Format string `mapstructure:"kb_format" yaml:"kb_format"`

	// 知识库文件路径
	Path string `mapstructure:"kb_filename" yaml:"kb_filename"`

	// 关系型知识库的表名和(主语, 关系, 宾语)列名
	SQLTableName   string   `mapstructure:"sql_table_name" yaml:"sql_table_name"`
	SQLColumnNames []string `mapstructure:"sql_column_names" yaml:"sql_column_names"`
}

// 按格式打开知识库，格式只在这里选择一次
func Open(options Options) (types.KnowledgeBase, error) {
	if options.Path == "" {
		return nil, types.NewError(types.ErrCodeConfig, "kb_filename is required")
	}
	switch options.Format {
	case FormatNTriples, "":
		return OpenTripleStore(options.Path)
	case FormatSQLite:
		columns := options.SQLColumnNames
		if len(columns) == 0 {
			columns = defaultSQLColumnNames
		}
		return OpenRelational(options.Path, options.SQLTableName, columns)
	}
	return nil, types.NewError(types.ErrCodeConfig, "unsupported kb_format %q", options.Format)
}

func fromRDF(triple rdf.Triple) types.Triple {
	object, lang := termValue(triple.Obj)
	subject, _ := termValue(triple.Subj)
	relation, _ := termValue(triple.Pred)
	return types.Triple{Subject: subject, Relation: relation, Object: object, Lang: lang}
}

// IRI去掉尖括号，空白节点保留_:前缀，字面量返回词法值和语言标签
func termValue(term rdf.Term) (string, string) {
	switch t := term.(type) {
	case rdf.Literal:
		return t.String(), t.Lang()
	case rdf.Blank:
		return "_:" + strings.TrimPrefix(t.String(), "_:"), ""
	}
	return term.String(), ""
}

// 解析单独存放的宾语项，如 "Moscow"@en 或 <http://x/y>
func parseObject(text string) (string, string, error) {
	line := "<urn:huoyan:s> <urn:huoyan:p> " + text + " .\n"
	triple, err := rdf.NewTripleDecoder(strings.NewReader(line), rdf.NTriples).Decode()
	if err != nil {
		return "", "", err
	}
	value, lang := termValue(triple.Obj)
	return value, lang, nil
}

// 统计每个主语参与的三元组数
func countSubjects(triples []types.Triple) map[string]int {
	counts := make(map[string]int)
	for _, triple := range triples {
		counts[triple.Subject]++
	}
	return counts
}
