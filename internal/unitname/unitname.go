package unitname

import "strings"

// Canonicalize 把单位/建筑类型名规范化为查找键：小写，并去掉所有空格与下划线。
// 例如 " Missile_Turret "、"missileturret"、"Missile Turret" 得到同一个键。
func Canonicalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if r == ' ' || r == '_' {
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

// Vocabulary 是 规范化键 -> 原始写法 的只读映射。
// 构造后不可修改；可以安全地在多个 goroutine 间共享。
type Vocabulary struct {
	byKey map[string]string
	names []string
}

// NewVocabulary 按给定顺序构建词表。
// 同一个键出现多次时，保留第一次登记的原始写法（后续写法被忽略）。
func NewVocabulary(names ...string) Vocabulary {
	v := Vocabulary{
		byKey: make(map[string]string, len(names)),
		names: make([]string, 0, len(names)),
	}
	for _, n := range names {
		k := Canonicalize(n)
		if _, ok := v.byKey[k]; ok {
			continue
		}
		v.byKey[k] = n
		v.names = append(v.names, n)
	}
	return v
}

// Resolve 返回 name 在词表中的原始写法；不在词表中返回 ("", false)。
func (v Vocabulary) Resolve(name string) (string, bool) {
	if v.byKey == nil {
		return "", false
	}
	s, ok := v.byKey[Canonicalize(name)]
	return s, ok
}

// Contains 报告 name 是否能在词表中解析。
func (v Vocabulary) Contains(name string) bool {
	_, ok := v.Resolve(name)
	return ok
}

func (v Vocabulary) Len() int { return len(v.names) }
