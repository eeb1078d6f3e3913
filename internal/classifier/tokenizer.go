package classifier

import (
	"strings"
	"unicode"
)

// Tokenize 将消息转为小写并按非字母数字字符切分，标点符号被丢弃。
// 空字符串返回空切片。
func Tokenize(message string) []string {
	return strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
