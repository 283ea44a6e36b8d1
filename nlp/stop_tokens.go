package nlp

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/registry"

	_ "github.com/blevesearch/bleve/v2/analysis/lang/en"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/ru"
)

// 各语言内置停用词表在bleve注册表中的名字
var stopTokenMapNames = map[string]string{
	"en": "stop_en",
	"ru": "stop_ru",
}

type StopTokens struct {
	stopTokens map[string]bool
}

// 载入语言内置的停用词表和停用词文件
// 文件中每行一个词，空行忽略。lang 没有内置表时只使用文件
func (st *StopTokens) Init(lang string, stopTokenFile string) error {
	st.stopTokens = make(map[string]bool)

	if name, ok := stopTokenMapNames[lang]; ok {
		tokenMap, err := registry.NewCache().TokenMapNamed(name)
		if err != nil {
			return fmt.Errorf("load stop words %s: %w", name, err)
		}
		st.addTokenMap(tokenMap)
	}

	if stopTokenFile == "" {
		return nil
	}

	file, err := os.Open(stopTokenFile)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text != "" {
			st.stopTokens[text] = true
		}
	}
	return scanner.Err()
}

func (st *StopTokens) addTokenMap(tokenMap analysis.TokenMap) {
	for token := range tokenMap {
		st.stopTokens[token] = true
	}
}

// 添加额外的停用词
func (st *StopTokens) Add(tokens ...string) {
	if st.stopTokens == nil {
		st.stopTokens = make(map[string]bool)
	}
	for _, token := range tokens {
		st.stopTokens[token] = true
	}
}

// 判断一个词是否是停用词
func (st *StopTokens) IsStopToken(token string) bool {
	_, found := st.stopTokens[token]
	return found
}

func (st *StopTokens) Len() int {
	return len(st.stopTokens)
}
