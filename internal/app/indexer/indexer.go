package indexer

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/John-Robertt/sc2idx/internal/analyze"
	"github.com/John-Robertt/sc2idx/internal/app/planner"
	"github.com/John-Robertt/sc2idx/internal/decoder"
	"github.com/John-Robertt/sc2idx/internal/domain"
	"github.com/John-Robertt/sc2idx/internal/infra/cache"
	"github.com/John-Robertt/sc2idx/internal/logging"
	"github.com/John-Robertt/sc2idx/internal/scan"
)

// ErrInvalidThreshold 表示 proxy 阈值不是有限正数。
var ErrInvalidThreshold = errors.New("indexer: proxy 阈值必须是大于 0 的有限数")

// Options 是 Indexer 的依赖。
type Options struct {
	Store       cache.Store
	Decoder     decoder.Decoder
	Logger      *log.Logger // nil => 丢弃
	ExcludeDirs []string
	Observer    Observer // 可选

	// Now 仅用于测试注入；nil => time.Now。
	Now func() time.Time
}

// Indexer 是扫描/缓存引擎。
//
// 约束：
// - 同步、单线程：一次调用处理完所有文件才返回，没有取消
// - 不加锁：调用方负责保证同一索引文件同一时间只有一个扫描
// - 单个文件失败只记录为错误字符串，不会中断扫描
type Indexer struct {
	store   cache.Store
	dec     decoder.Decoder
	log     *log.Logger
	exclude []string
	obs     Observer
	now     func() time.Time
}

func New(opts Options) *Indexer {
	lg := opts.Logger
	if lg == nil {
		lg = logging.Discard()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Indexer{
		store:   opts.Store,
		dec:     opts.Decoder,
		log:     lg,
		exclude: opts.ExcludeDirs,
		obs:     opts.Observer,
		now:     now,
	}
}

// IndexPath 返回索引文件路径。
func (ix *Indexer) IndexPath() string { return ix.store.IndexPath() }

// LoadIndex 读取已持久化的索引；不存在、无法读取或已损坏时返回空索引。
func (ix *Indexer) LoadIndex() domain.Index {
	x, _, err := ix.store.Load()
	if err != nil {
		ix.log.Warn("读取索引失败，按空索引处理", "path", ix.store.IndexPath(), "err", err)
	}
	return x
}

// SaveIndex 原子替换写入索引。
func (ix *Indexer) SaveIndex(x domain.Index) error {
	return ix.store.Save(x)
}

// Scan 全量扫描单个目录。
//
// useCache=false 时所有文件都重新解析（之前的记录仍用于失败时保留）。
func (ix *Indexer) Scan(folder string, useCache bool, threshold float64, progress ProgressFunc) (domain.Index, error) {
	res, err := ix.run(request{
		folders:   []string{folder},
		single:    true,
		useCache:  useCache,
		threshold: threshold,
		progress:  progress,
	})
	return res.Index, err
}

// ScanMulti 全量扫描多个目录；缓存键额外包含记录的来源目录。
func (ix *Indexer) ScanMulti(folders []string, useCache bool, threshold float64, progress ProgressFunc) (domain.Index, error) {
	res, err := ix.run(request{
		folders:   folders,
		useCache:  useCache,
		threshold: threshold,
		progress:  progress,
	})
	return res.Index, err
}

// DeltaResult 是 delta 扫描的结果：完整索引 + 不在 baseline 中的新记录。
type DeltaResult struct {
	Index domain.Index
	New   []domain.ReplayRecord
}

// ScanDelta 与 Scan 相同（始终使用缓存），额外报告 baseline 之外的新记录。
//
// 一条记录“已知”当且仅当它在 baseline 中，且在本次调用开始时读取到的索引中；
// baseline=nil 时只看后者。与全量扫描一样，已不存在的文件对应的记录会被移除。
func (ix *Indexer) ScanDelta(folder string, threshold float64, baseline *Baseline, progress ProgressFunc) (DeltaResult, error) {
	return ix.run(request{
		folders:   []string{folder},
		single:    true,
		useCache:  true,
		threshold: threshold,
		progress:  progress,
		delta:     true,
		baseline:  baseline,
	})
}

// ScanMultiDelta 是 ScanMulti 的 delta 版本。
func (ix *Indexer) ScanMultiDelta(folders []string, threshold float64, baseline *Baseline, progress ProgressFunc) (DeltaResult, error) {
	return ix.run(request{
		folders:   folders,
		useCache:  true,
		threshold: threshold,
		progress:  progress,
		delta:     true,
		baseline:  baseline,
	})
}

// knownPath 判断 delta 中的记录是否已知；过滤器的阳性结果以 byPath 确认。
func knownPath(b *Baseline, path string, byPath map[string]domain.ReplayRecord) bool {
	if b == nil {
		_, ok := byPath[path]
		return ok
	}
	return b.Known(path, byPath)
}

// ValidThreshold 报告 threshold 是否可用于扫描。
func ValidThreshold(threshold float64) bool {
	return !math.IsNaN(threshold) && !math.IsInf(threshold, 0) && threshold > 0
}

type request struct {
	folders   []string
	single    bool
	useCache  bool
	threshold float64
	progress  ProgressFunc

	delta    bool
	baseline *Baseline
}

func (ix *Indexer) run(req request) (DeltaResult, error) {
	if !ValidThreshold(req.threshold) {
		return DeltaResult{}, ErrInvalidThreshold
	}
	if ix.dec == nil {
		return DeltaResult{}, decoder.ErrNoDecoder
	}

	started := ix.now()
	scanID := uuid.NewString()
	lg := ix.log.With("scan_id", scanID)

	// 之前的索引：既是缓存，也用于失败时保留旧记录、确认 delta 的已知路径。
	prev := ix.LoadIndex()
	byPath := prev.ByPath()

	if ix.obs != nil {
		ix.obs.OnStart(StartInfo{
			ScanID:    scanID,
			Folders:   req.folders,
			Threshold: req.threshold,
			UseCache:  req.useCache,
			Delta:     req.delta,
		})
	}

	enumStarted := time.Now()
	files, folders, folderErrs := scan.ScanFolders(req.folders, ix.exclude)
	if ix.obs != nil {
		ix.obs.OnPhaseDone("enumerate", map[string]any{
			"folders": len(folders),
			"files":   len(files),
			"errors":  len(folderErrs),
		}, time.Since(enumStarted))
	}

	x := domain.Index{
		Replays:        make([]domain.ReplayRecord, 0, len(files)),
		Errors:         make([]string, 0, len(folderErrs)),
		Folders:        folders,
		ProxyThreshold: req.threshold,
		ScanID:         scanID,
	}
	if req.single && len(folders) == 1 {
		x.Folder = folders[0]
	}
	for _, e := range folderErrs {
		lg.Warn("扫描目录失败", "err", e)
		x.Errors = append(x.Errors, e.Error())
	}

	var (
		sum   = domain.Summary{Total: len(files)}
		stats planner.Stats
		out   DeltaResult
	)

	analyzeStarted := time.Now()
	total := len(files)
	for i, f := range files {
		oneStarted := time.Now()

		var cached *domain.ReplayRecord
		if r, ok := byPath[f.AbsPath]; ok {
			cached = &r
		}
		d := planner.Decide(req.useCache, planner.KeyFor(f, req.threshold, !req.single), cached)
		stats.Add(d)

		item := ItemResult{Path: f.AbsPath, Reason: d.Reason}
		var rec domain.ReplayRecord
		keep := true

		if d.Reuse {
			rec = *cached
			// 来源目录以本次传入的目录为准。
			rec.SourceFolder = f.SourceFolder
			item.Status = ItemHit
			sum.Hits++
			lg.Debug("缓存命中", "path", f.AbsPath)
		} else {
			lg.Debug("需要解析", "path", f.AbsPath, "reason", d.Reason)
			r, err := ix.process(f, req.threshold)
			if err != nil {
				msg := fmt.Sprintf("%s: %v", f.AbsPath, err)
				x.Errors = append(x.Errors, msg)
				item.Status = ItemFailed
				item.Error = err.Error()
				sum.Failed++
				lg.Warn("解析回放失败", "path", f.AbsPath, "err", err)

				// 失败不删除旧记录；旧记录的缓存键不匹配，下次扫描仍会重试。
				if cached != nil {
					rec = *cached
				} else {
					keep = false
				}
			} else {
				rec = r
				item.Status = ItemParsed
				sum.Parsed++
			}
		}

		if keep {
			x.Replays = append(x.Replays, rec)
			if req.delta && !knownPath(req.baseline, rec.Path, byPath) {
				out.New = append(out.New, rec)
			}
		}

		if ix.obs != nil {
			ix.obs.OnItemDone(i+1, total, item, time.Since(oneStarted))
		}
		if req.progress != nil {
			req.progress(i+1, total)
		}
	}

	if ix.obs != nil {
		ix.obs.OnPhaseDone("analyze", map[string]any{
			"cache_hits": stats.Hits,
			"parsed":     sum.Parsed,
			"failed":     sum.Failed,
		}, time.Since(analyzeStarted))
	}

	x.ScannedAt = ix.now().UTC().Format(time.RFC3339)
	x.Normalize()
	out.Index = x
	if out.New == nil {
		out.New = []domain.ReplayRecord{}
	}

	persistStarted := time.Now()
	if err := ix.store.Save(x); err != nil {
		lg.Error("写入索引失败", "path", ix.store.IndexPath(), "err", err)
		return out, fmt.Errorf("写入索引失败：%w", err)
	}
	if ix.obs != nil {
		ix.obs.OnPhaseDone("persist", map[string]any{
			"records": len(x.Replays),
			"errors":  len(x.Errors),
		}, time.Since(persistStarted))
	}

	dur := ix.now().Sub(started)
	lg.Info("扫描完成",
		"files", sum.Total,
		"cache_hits", sum.Hits,
		"parsed", sum.Parsed,
		"failed", sum.Failed,
		"new", len(out.New),
		"dur", dur,
	)
	if ix.obs != nil {
		ix.obs.OnFinish(sum, dur)
	}
	return out, nil
}

// process 解码并分析单个文件；解码器或分析中的 panic 转换为错误。
func (ix *Indexer) process(f domain.ReplayFile, threshold float64) (rec domain.ReplayRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec = domain.ReplayRecord{}
			err = fmt.Errorf("panic：%v", r)
		}
	}()

	m, err := ix.dec.Decode(f.AbsPath)
	if err != nil {
		return domain.ReplayRecord{}, err
	}
	return BuildRecord(f, m, threshold), nil
}

// BuildRecord 由扫描到的文件与解码结果组装记录。
func BuildRecord(f domain.ReplayFile, m domain.Match, threshold float64) domain.ReplayRecord {
	res := analyze.Match(m, threshold)

	mapName := m.MapName
	if mapName == "" {
		mapName = "Unknown"
	}
	start := ""
	if !m.Start.IsZero() {
		start = m.Start.UTC().Format(time.RFC3339)
	}
	name := f.Name
	if name == "" {
		name = filepath.Base(f.AbsPath)
	}

	rec := domain.ReplayRecord{
		Path:           f.AbsPath,
		Filename:       name,
		SourceFolder:   f.SourceFolder,
		Map:            mapName,
		StartTime:      start,
		Length:         domain.FormatLength(m.Length),
		GameType:       m.GameType,
		Speed:          m.Speed,
		Matchup:        res.Matchup,
		Players:        res.Players,
		BuildOrderAuto: res.BuildOrderAuto,
		Sequences:      res.Sequences,
		MTime:          f.MTime,
		Size:           f.Size,
	}
	rec.ApplyProxy(res.Proxy)
	return rec
}
