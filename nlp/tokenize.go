package nlp

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// 单词（字母、数字、下划线、撇号）或单个非空白符号
var tokenRegexp = regexp.MustCompile(`[\p{L}\p{N}_']+|[^\p{L}\p{N}_'\s]`)

// 把文本切分为词和符号
type Tokenizer interface {
	Tokenize(text string) []string
}

// 基于正则表达式的切分器，只保留单词
type RegexpTokenizer struct{}

func (RegexpTokenizer) Tokenize(text string) []string {
	return WordTokens(text)
}

// 返回文本中的全部词和符号
func Tokenize(text string) []string {
	return tokenRegexp.FindAllString(text, -1)
}

// 返回文本中的全部词和符号及其字节区间[start, end)
func TokenSpans(text string) ([]string, [][2]int) {
	indices := tokenRegexp.FindAllStringIndex(text, -1)
	tokens := make([]string, len(indices))
	spans := make([][2]int, len(indices))
	for i, index := range indices {
		tokens[i] = text[index[0]:index[1]]
		spans[i] = [2]int{index[0], index[1]}
	}
	return tokens, spans
}

// 返回文本中的单词，丢弃标点符号
func WordTokens(text string) []string {
	tokens := Tokenize(text)
	words := tokens[:0]
	for _, token := range tokens {
		if IsWordToken(token) {
			words = append(words, token)
		}
	}
	return words
}

// 首字符为字母、数字、下划线或撇号的词
func IsWordToken(token string) bool {
	r, _ := utf8.DecodeRuneInString(token)
	return unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' || r == '\''
}

// 按单个空格切分，丢弃空串
func SplitOnSpace(text string) []string {
	parts := strings.Split(text, " ")
	words := parts[:0]
	for _, part := range parts {
		if part != "" {
			words = append(words, part)
		}
	}
	return words
}
