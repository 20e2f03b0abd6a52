package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/John-Robertt/sc2idx/internal/app/indexer"
	"github.com/John-Robertt/sc2idx/internal/domain"
)

var _ indexer.Observer = (*progressUI)(nil)

// progressUI 是交互终端下的扫描进度输出。
//
// - 所有过程信息写到 stderr（或 fallback 到 stdout），不污染 stdout 的 JSON 输出契约
// - 事件驱动：扫描引擎只发事件，CLI 决定如何展示
// - 缓存命中不逐条打印；长时间没有输出时定期打印一行进度
type progressUI struct {
	w io.Writer

	mu          sync.Mutex
	startedAt   time.Time
	lastPrinted time.Time

	total  int
	done   int
	hits   int
	parsed int
	fail   int

	keepaliveThreshold time.Duration
	tickerInterval     time.Duration

	stopCh        chan struct{}
	tickerStarted bool
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{
		w:                  w,
		keepaliveThreshold: 6 * time.Second,
		tickerInterval:     2 * time.Second,
	}
}

func (p *progressUI) OnStart(info indexer.StartInfo) {
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.startedAt = now
	p.total, p.done, p.hits, p.parsed, p.fail = 0, 0, 0, 0, 0

	mode := "full"
	if info.Delta {
		mode = "delta"
	}
	fmt.Fprintf(p.w, "[%s] sc2idx scan (%s)\n", now.Format("15:04:05"), mode)
	fmt.Fprintln(p.w, "配置（生效）:")
	fmt.Fprintf(p.w, "  folders: %s\n", formatFolders(info.Folders))
	fmt.Fprintf(p.w, "  proxy_threshold: %s\n", formatThreshold(info.Threshold))
	fmt.Fprintf(p.w, "  use_cache: %s\n", onOff(info.UseCache))
	fmt.Fprintf(p.w, "  scan_id: %s\n\n", info.ScanID)

	p.lastPrinted = time.Now()
}

func (p *progressUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch name {
	case "enumerate":
		p.total = intField(fields, "files")
		fmt.Fprintf(p.w, "枚举: folders=%d files=%d errors=%d (%s)\n",
			intField(fields, "folders"), p.total, intField(fields, "errors"), formatShortDuration(dur),
		)
		if p.total > 0 && !p.tickerStarted {
			p.startTickerLocked()
		}
	case "analyze":
		p.stopTickerLocked()
		fmt.Fprintf(p.w, "分析: cache_hits=%d parsed=%d failed=%d (%s)\n",
			intField(fields, "cache_hits"), intField(fields, "parsed"), intField(fields, "failed"), formatShortDuration(dur),
		)
	case "persist":
		fmt.Fprintf(p.w, "写入: records=%d errors=%d (%s)\n",
			intField(fields, "records"), intField(fields, "errors"), formatShortDuration(dur),
		)
	default:
		fmt.Fprintf(p.w, "%s (%s)\n", name, formatShortDuration(dur))
	}

	p.lastPrinted = time.Now()
}

func (p *progressUI) OnItemDone(idx, total int, res indexer.ItemResult, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = idx
	p.total = total

	name := filepath.Base(res.Path)
	switch res.Status {
	case indexer.ItemHit:
		p.hits++
		return
	case indexer.ItemParsed:
		p.parsed++
		fmt.Fprintf(p.w, "[%d/%d] OK %s reason=%s (%s)\n", idx, total, name, res.Reason, formatShortDuration(dur))
	case indexer.ItemFailed:
		p.fail++
		fmt.Fprintf(p.w, "[%d/%d] FAIL %s: %s (%s)\n", idx, total, name, truncate(res.Error, 160), formatShortDuration(dur))
	}
	p.lastPrinted = time.Now()
}

func (p *progressUI) OnFinish(sum domain.Summary, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopTickerLocked()
	fmt.Fprintf(p.w, "用时: %s\n", formatElapsed(dur))
	p.lastPrinted = time.Now()
}

func (p *progressUI) startTickerLocked() {
	p.stopCh = make(chan struct{})
	p.tickerStarted = true

	interval := p.tickerInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	threshold := p.keepaliveThreshold
	if threshold <= 0 {
		threshold = 6 * time.Second
	}
	stop := p.stopCh

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-t.C:
				p.mu.Lock()
				if p.total > 0 && p.done >= p.total {
					p.mu.Unlock()
					return
				}
				if time.Since(p.lastPrinted) > threshold {
					fmt.Fprintf(p.w, "进度: done=%d/%d hits=%d parsed=%d fail=%d elapsed=%s\n",
						p.done, p.total, p.hits, p.parsed, p.fail, formatElapsed(time.Since(p.startedAt)),
					)
					p.lastPrinted = time.Now()
				}
				p.mu.Unlock()
			case <-stop:
				return
			}
		}
	}()
}

func (p *progressUI) stopTickerLocked() {
	if !p.tickerStarted {
		return
	}
	close(p.stopCh)
	p.tickerStarted = false
}

// summaryObserver 记录扫描摘要，并把事件转发给 next（可为 nil）。
type summaryObserver struct {
	next indexer.Observer
	sum  domain.Summary
}

func (o *summaryObserver) OnStart(info indexer.StartInfo) {
	if o.next != nil {
		o.next.OnStart(info)
	}
}

func (o *summaryObserver) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	if o.next != nil {
		o.next.OnPhaseDone(name, fields, dur)
	}
}

func (o *summaryObserver) OnItemDone(idx, total int, res indexer.ItemResult, dur time.Duration) {
	if o.next != nil {
		o.next.OnItemDone(idx, total, res, dur)
	}
}

func (o *summaryObserver) OnFinish(sum domain.Summary, dur time.Duration) {
	o.sum = sum
	if o.next != nil {
		o.next.OnFinish(sum, dur)
	}
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func formatFolders(xs []string) string {
	if len(xs) == 0 {
		return "(none)"
	}
	return strings.Join(xs, ", ")
}

func formatThreshold(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func intField(fields map[string]any, key string) int {
	if fields == nil {
		return 0
	}
	v, ok := fields[key]
	if !ok {
		return 0
	}
	switch x := v.(type) {
	case int:
		return x
	case int32:
		return int(x)
	case int64:
		return int(x)
	case uint:
		return int(x)
	case uint32:
		return int(x)
	case uint64:
		return int(x)
	default:
		return 0
	}
}
