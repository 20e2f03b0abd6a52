package indexer

import (
	"github.com/bits-and-blooms/bloom/v3"

	"github.com/John-Robertt/sc2idx/internal/domain"
)

// Baseline 是 delta 扫描的“已知路径”集合，只保存一个 bloom 过滤器。
//
// 过滤器的阴性结果是确定的；阳性结果由扫描用本次调用开始时读到的索引确认（Known），
// 所以 Baseline 本身不保存路径，watch 长期持有它也只占过滤器的内存。
type Baseline struct {
	filter *bloom.BloomFilter
	n      int
}

// 过滤器按至少这么多条目估算容量，避免小集合的误判率过高。
const minBaselineCapacity = 1024

// NewBaseline 用给定路径构建 baseline。
func NewBaseline(paths []string) *Baseline {
	n := uint(len(paths))
	if n < minBaselineCapacity {
		n = minBaselineCapacity
	}
	b := &Baseline{filter: bloom.NewWithEstimates(n, 0.001)}
	for _, p := range paths {
		b.Add(p)
	}
	return b
}

// Add 把路径加入 baseline（watch 在每轮之后把新记录并入）。
func (b *Baseline) Add(path string) {
	if path == "" {
		return
	}
	b.filter.AddString(path)
	b.n++
}

// MayContain 为 false 时 path 一定不在 baseline 中；为 true 时可能是误判。
func (b *Baseline) MayContain(path string) bool {
	if b == nil || path == "" {
		return false
	}
	return b.filter.TestString(path)
}

// Known 报告 path 是否已知：过滤器命中，且 indexed（扫描开始时的索引）中确有该路径。
func (b *Baseline) Known(path string, indexed map[string]domain.ReplayRecord) bool {
	if !b.MayContain(path) {
		return false
	}
	_, ok := indexed[path]
	return ok
}

// Len 返回加入过的路径数（重复加入会重复计数）。
func (b *Baseline) Len() int {
	if b == nil {
		return 0
	}
	return b.n
}
