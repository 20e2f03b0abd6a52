package decoder

import (
	"errors"

	"github.com/John-Robertt/sc2idx/internal/domain"
)

// Decoder 把一个回放文件解码为结构化对局。
//
// 实现必须是无状态的（或自行保证并发安全）；失败时返回 error，
// 扫描引擎会把它转换为索引中的单文件错误字符串。
type Decoder interface {
	Decode(path string) (domain.Match, error)
}

// Func 让普通函数满足 Decoder（测试中常用）。
type Func func(path string) (domain.Match, error)

func (f Func) Decode(path string) (domain.Match, error) { return f(path) }

var ErrNoDecoder = errors.New("decoder: 未配置解码器")
