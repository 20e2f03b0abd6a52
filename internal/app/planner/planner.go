package planner

import (
	"github.com/John-Robertt/sc2idx/internal/domain"
)

// Reason 说明一次缓存决策的原因（写入 debug 日志）。
type Reason string

const (
	ReasonHit              Reason = "hit"
	ReasonCacheDisabled    Reason = "cache_disabled"
	ReasonNotIndexed       Reason = "not_indexed"
	ReasonFileChanged      Reason = "file_changed"
	ReasonThresholdChanged Reason = "threshold_changed"
	ReasonFolderChanged    Reason = "folder_changed"
)

// Decision 是对单个文件的缓存决策（只读，不做任何 IO）。
type Decision struct {
	Reuse  bool
	Reason Reason
}

// Key 是缓存键中除 path 以外的部分。
//
// Folder 只在多目录扫描时参与比较（StrictFolder=true）。
type Key struct {
	MTime        float64
	Size         int64
	Threshold    float64
	Folder       string
	StrictFolder bool
}

// KeyFor 用扫描到的文件生成缓存键。
func KeyFor(f domain.ReplayFile, threshold float64, strictFolder bool) Key {
	return Key{
		MTime:        f.MTime,
		Size:         f.Size,
		Threshold:    threshold,
		Folder:       f.SourceFolder,
		StrictFolder: strictFolder,
	}
}

// Decide 判断 cached 能否原样复用。
//
// cached=nil 表示索引中没有该路径。比较都是精确相等：
// mtime 以 JSON 数字落盘，float64 往返后保持不变。
func Decide(useCache bool, k Key, cached *domain.ReplayRecord) Decision {
	if !useCache {
		return Decision{Reason: ReasonCacheDisabled}
	}
	if cached == nil {
		return Decision{Reason: ReasonNotIndexed}
	}
	if cached.MTime != k.MTime || cached.Size != k.Size {
		return Decision{Reason: ReasonFileChanged}
	}
	if cached.ProxyThreshold != k.Threshold {
		return Decision{Reason: ReasonThresholdChanged}
	}
	if k.StrictFolder && cached.SourceFolder != k.Folder {
		return Decision{Reason: ReasonFolderChanged}
	}
	return Decision{Reuse: true, Reason: ReasonHit}
}

// Stats 汇总一批决策（用于阶段统计输出）。
type Stats struct {
	Hits   int
	Misses map[Reason]int
}

func (s *Stats) Add(d Decision) {
	if d.Reuse {
		s.Hits++
		return
	}
	if s.Misses == nil {
		s.Misses = map[Reason]int{}
	}
	s.Misses[d.Reason]++
}

// MissTotal 返回需要重新解析的文件数。
func (s Stats) MissTotal() int {
	n := 0
	for _, v := range s.Misses {
		n += v
	}
	return n
}
