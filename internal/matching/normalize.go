package matching

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize 统一大小写与标点，供所有模糊比较使用：
// 小写、去首尾空白、合并连续空白，并删除字母数字与空白以外的字符。
// 先做 NFD 分解，变音符号作为非字母数字一并去掉（"Zürich" -> "zurich"）。
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	// transform.Chain 带内部状态，不能跨 goroutine 复用。
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// containsEither 双向子串包含，空串不参与匹配。
func containsEither(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
