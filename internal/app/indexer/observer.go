package indexer

import (
	"time"

	"github.com/John-Robertt/sc2idx/internal/app/planner"
	"github.com/John-Robertt/sc2idx/internal/domain"
)

// StartInfo 描述一次扫描的输入（OnStart 时发出）。
type StartInfo struct {
	ScanID    string
	Folders   []string
	Threshold float64
	UseCache  bool
	Delta     bool
}

// ItemStatus 是单个文件的处理结果。
type ItemStatus string

const (
	ItemHit    ItemStatus = "hit"
	ItemParsed ItemStatus = "parsed"
	ItemFailed ItemStatus = "failed"
)

// ItemResult 是 OnItemDone 的载荷。
type ItemResult struct {
	Path   string
	Status ItemStatus
	Reason planner.Reason
	Error  string
}

// Observer 用于把“扫描进度/阶段/条目结果”从引擎中解耦出来。
//
// 约束：
// - indexer 包只负责发事件，不做任何输出（避免污染 stdout 的 JSON 契约）
// - 回调在扫描调用路径上同步执行，必须足够快
// - 实现应并发安全：CLI 的 keepalive ticker 可能在另一个 goroutine 读取状态
type Observer interface {
	OnStart(info StartInfo)
	// OnPhaseDone 在阶段结束时调用（enumerate / analyze / persist）。
	OnPhaseDone(name string, fields map[string]any, dur time.Duration)
	// OnItemDone 在每个文件处理完成时调用（命中或解析都会调用）。
	OnItemDone(idx, total int, res ItemResult, dur time.Duration)
	// OnFinish 在索引落盘后调用。
	OnFinish(sum domain.Summary, dur time.Duration)
}

// ProgressFunc 在每个文件处理完成后以 (已处理数, 总数) 调用。
type ProgressFunc func(done, total int)
