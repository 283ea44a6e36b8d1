package nlp

import (
	"fmt"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/registry"

	"github.com/huichen/huoyan/types"
)

var stemmerNames = map[string]string{
	"en": "stemmer_en_snowball",
	"ru": "stemmer_ru_snowball",
}

// 不做任何变换
type IdentityNormalizer struct{}

func (IdentityNormalizer) Normalize(word string) string {
	return word
}

// 用snowball词干提取把词归一化
// bleve的词干过滤器是无状态的，可以被多个协程同时使用
type SnowballNormalizer struct {
	filter analysis.TokenFilter
}

func NewSnowballNormalizer(lang string) (*SnowballNormalizer, error) {
	name, ok := stemmerNames[lang]
	if !ok {
		return nil, fmt.Errorf("no snowball stemmer for lang %q", lang)
	}
	filter, err := registry.NewCache().TokenFilterNamed(name)
	if err != nil {
		return nil, err
	}
	return &SnowballNormalizer{filter: filter}, nil
}

func (n *SnowballNormalizer) Normalize(word string) string {
	if word == "" {
		return word
	}
	output := n.filter.Filter(analysis.TokenStream{&analysis.Token{Term: []byte(word)}})
	if len(output) == 0 {
		return word
	}
	return string(output[0].Term)
}

// 按语言选择归一化器，不做词形归一化或语言没有词干提取器时返回 IdentityNormalizer
func NewNormalizer(lang string, lemmatize bool) (types.Normalizer, error) {
	if !lemmatize {
		return IdentityNormalizer{}, nil
	}
	if _, ok := stemmerNames[lang]; !ok {
		return IdentityNormalizer{}, nil
	}
	return NewSnowballNormalizer(lang)
}
