package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/John-Robertt/sc2idx/internal/app"
	"github.com/John-Robertt/sc2idx/internal/app/indexer"
	"github.com/John-Robertt/sc2idx/internal/config"
	"github.com/John-Robertt/sc2idx/internal/decoder"
	"github.com/John-Robertt/sc2idx/internal/domain"
	"github.com/John-Robertt/sc2idx/internal/export"
	"github.com/John-Robertt/sc2idx/internal/infra/cache"
	"github.com/John-Robertt/sc2idx/internal/infra/fsx"
	"github.com/John-Robertt/sc2idx/internal/tags"
	"github.com/John-Robertt/sc2idx/internal/watch"
)

func (c *cli) scanCmd(args []string) int {
	sa, err := parseScanArgs(args)
	if err != nil {
		return c.usageError(err, scanUsage)
	}

	obs := &summaryObserver{}
	if w, ok := c.progressWriter(); ok {
		obs.next = newProgressUI(w)
	}
	s, code := c.openSession(sa.cliArgs(), obs)
	if s == nil {
		return code
	}
	defer s.Close()

	if err := config.RequireFolders(s.eff); err != nil {
		fmt.Fprintf(c.stderr, "配置错误（%s）：%v\n", config.Code(err), err)
		return 1
	}

	folders := s.eff.Folders
	th := s.eff.ProxyThreshold
	var (
		res     indexer.DeltaResult
		scanErr error
	)
	switch {
	case sa.Delta && len(folders) == 1:
		res, scanErr = s.ix.ScanDelta(folders[0], th, nil, nil)
	case sa.Delta:
		res, scanErr = s.ix.ScanMultiDelta(folders, th, nil, nil)
	case len(folders) == 1:
		res.Index, scanErr = s.ix.Scan(folders[0], s.eff.UseCache, th, nil)
	default:
		res.Index, scanErr = s.ix.ScanMulti(folders, s.eff.UseCache, th, nil)
	}
	if errors.Is(scanErr, indexer.ErrInvalidThreshold) || errors.Is(scanErr, decoder.ErrNoDecoder) {
		fmt.Fprintf(c.stderr, "扫描失败：%v\n", scanErr)
		return 1
	}

	x := res.Index
	if !c.stdoutTTY {
		// stdout 非 TTY：stdout 只输出一个 JSON（摘要走 stderr）。
		if err := c.writeScanJSON(res, sa.Delta); err != nil {
			fmt.Fprintf(c.stderr, "输出 JSON 失败：%v\n", err)
			return 1
		}
	} else if sa.Delta {
		fmt.Fprintf(c.stdout, "新回放：%d\n", len(res.New))
		for _, r := range res.New {
			fmt.Fprintf(c.stdout, "  %s  %s  %s\n", r.Filename, r.Matchup, r.Map)
		}
	}

	for _, e := range x.Errors {
		fmt.Fprintf(c.stderr, "错误：%s\n", e)
	}
	if scanErr != nil {
		fmt.Fprintf(c.stderr, "%v\n", scanErr)
	}
	sum := obs.sum
	fmt.Fprintf(c.stderr, "完成：files=%d cache_hits=%d parsed=%d failed=%d records=%d errors=%d\n",
		sum.Total, sum.Hits, sum.Parsed, sum.Failed, len(x.Replays), len(x.Errors),
	)
	if w, ok := c.progressWriter(); ok {
		fmt.Fprintf(w, "index: %s\n", s.ix.IndexPath())
	}
	if sa.Save && scanErr == nil {
		if err := saveSettings(s.eff); err != nil {
			fmt.Fprintf(c.stderr, "保存配置失败：%v\n", err)
			return 1
		}
		fmt.Fprintf(c.stderr, "配置已保存：%s\n", s.eff.ConfigPath)
	}

	if scanErr != nil || len(x.Errors) > 0 {
		return 1
	}
	return 0
}

// saveSettings 把本次生效的目录与阈值写回配置文件，其余字段原样保留。
func saveSettings(eff config.EffectiveConfig) error {
	fc, _, err := config.ReadFile(eff.ConfigPath)
	if err != nil {
		return err
	}
	fc.Folders = eff.Folders
	fc.Folder = ""
	th := eff.ProxyThreshold
	fc.ProxyThreshold = &th
	return config.Save(eff.ConfigPath, fc)
}

type deltaOutput struct {
	Index domain.Index          `json:"index"`
	New   []domain.ReplayRecord `json:"new"`
}

// writeScanJSON 输出与 replay_index.json 相同格式的索引；delta 时外面包一层。
func (c *cli) writeScanJSON(res indexer.DeltaResult, delta bool) error {
	if delta {
		return writeJSON(c.stdout, deltaOutput{Index: res.Index, New: res.New})
	}
	b, err := cache.Encode(res.Index)
	if err != nil {
		return err
	}
	_, err = c.stdout.Write(b)
	return err
}

func (c *cli) listCmd(args []string) int {
	la, err := parseListArgs(args)
	if err != nil {
		return c.usageError(err, listUsage)
	}
	s, code := c.openSession(la.commonArgs.cliArgs(), nil)
	if s == nil {
		return code
	}
	defer s.Close()

	x := s.ix.LoadIndex()
	snap, err := s.snapshot()
	if err != nil {
		fmt.Fprintf(c.stderr, "读取标签库失败：%v\n", err)
		return 1
	}
	idx := app.Select(x, snap, la.filterArgs.filter(c.cwd))

	if !c.stdoutTTY {
		items := make([]listItem, 0, len(idx))
		for _, i := range idx {
			items = append(items, newListItem(x.Replays[i], snap))
		}
		if err := writeJSON(c.stdout, items); err != nil {
			fmt.Fprintf(c.stderr, "输出 JSON 失败：%v\n", err)
			return 1
		}
		fmt.Fprintf(c.stderr, "共 %d 条（索引 %d 条）\n", len(idx), len(x.Replays))
		return 0
	}

	if la.Group {
		for _, g := range app.GroupByFolder(x, idx) {
			fmt.Fprintf(c.stdout, "%s  (%s, %d)\n", s.eff.Label(g.Folder), g.Folder, len(g.RecIdx))
			renderList(c.stdout, app.Records(x, g.RecIdx), snap, la.Long)
			fmt.Fprintln(c.stdout)
		}
	} else {
		renderList(c.stdout, app.Records(x, idx), snap, la.Long)
	}
	fmt.Fprintln(c.stdout, listFooter(app.Records(x, idx), len(x.Replays)))
	return 0
}

func (c *cli) statsCmd(args []string) int {
	st, err := parseStatsArgs(args)
	if err != nil {
		return c.usageError(err, statsUsage)
	}
	s, code := c.openSession(st.commonArgs.cliArgs(), nil)
	if s == nil {
		return code
	}
	defer s.Close()

	x := s.ix.LoadIndex()
	snap, err := s.snapshot()
	if err != nil {
		fmt.Fprintf(c.stderr, "读取标签库失败：%v\n", err)
		return 1
	}
	recs := app.Records(x, app.Select(x, snap, st.filterArgs.filter(c.cwd)))
	ps := app.ComputeStats(recs, st.Name, st.Versus)
	if ps.Total.Games == 0 {
		fmt.Fprintf(c.stderr, "当前过滤条件下没有 %q 的对局\n", st.Name)
		return 1
	}

	if !c.stdoutTTY {
		if err := writeJSON(c.stdout, ps); err != nil {
			fmt.Fprintf(c.stderr, "输出 JSON 失败：%v\n", err)
			return 1
		}
		return 0
	}
	renderStats(c.stdout, ps)
	return 0
}

func (c *cli) watchCmd(args []string) int {
	wa, err := parseWatchArgs(args)
	if err != nil {
		return c.usageError(err, watchUsage)
	}
	s, code := c.openSession(wa.cliArgs(), nil)
	if s == nil {
		return code
	}
	defer s.Close()

	if err := config.RequireFolders(s.eff); err != nil {
		fmt.Fprintf(c.stderr, "配置错误（%s）：%v\n", config.Code(err), err)
		return 1
	}
	interval := wa.Interval
	if interval <= 0 {
		interval = s.eff.WatchInterval
	}

	w, err := watch.New(watch.Options{
		Scanner:   s.ix,
		Folders:   s.eff.Folders,
		Threshold: s.eff.ProxyThreshold,
		Interval:  interval,
		Logger:    s.log,
		OnNew:     c.announce,
		OnError: func(err error) {
			fmt.Fprintf(c.stderr, "扫描失败：%v\n", err)
		},
	})
	if err != nil {
		fmt.Fprintf(c.stderr, "启动 watch 失败：%v\n", err)
		return 1
	}

	fmt.Fprintf(c.stderr, "watch：%d 个目录，间隔 %s（Ctrl-C 结束）\n", len(s.eff.Folders), interval)
	if err := w.Run(c.ctx); err != nil {
		fmt.Fprintf(c.stderr, "%v\n", err)
		return 1
	}
	fmt.Fprintf(c.stderr, "watch 结束：共 %d 轮\n", w.Rounds())
	return 0
}

// announce 报告新回放：终端下一行一条，否则每行一个 JSON（便于管道消费）。
func (c *cli) announce(recs []domain.ReplayRecord) {
	now := time.Now().Format("15:04:05")
	for _, r := range recs {
		if !c.stdoutTTY {
			if err := writeJSONLine(c.stdout, r); err != nil {
				fmt.Fprintf(c.stderr, "输出 JSON 失败：%v\n", err)
			}
			continue
		}
		fmt.Fprintf(c.stdout, "[%s] 新回放 %s  %s  %s  winner=%s\n",
			now, r.Filename, r.Matchup, r.Map, domain.Winners(r.Players),
		)
	}
}

func (c *cli) tagCmd(args []string) int {
	ta, err := parseTagArgs(args)
	if err != nil {
		return c.usageError(err, tagUsage)
	}
	s, code := c.openSession(ta.commonArgs.cliArgs(), nil)
	if s == nil {
		return code
	}
	defer s.Close()

	path := c.resolvePath(ta.Path)
	if _, ok := s.ix.LoadIndex().ByPath()[path]; !ok {
		fmt.Fprintf(c.stderr, "提示：索引中没有 %s\n", path)
	}

	ts, err := s.openTags()
	if err != nil {
		fmt.Fprintf(c.stderr, "打开标签库失败：%v\n", err)
		return 1
	}
	if err := applyTagArgs(ts, path, ta); err != nil {
		fmt.Fprintf(c.stderr, "写入标签库失败：%v\n", err)
		return 1
	}

	st, err := readTagState(ts, path)
	if err != nil {
		fmt.Fprintf(c.stderr, "读取标签库失败：%v\n", err)
		return 1
	}
	if !c.stdoutTTY {
		if err := writeJSON(c.stdout, st); err != nil {
			fmt.Fprintf(c.stderr, "输出 JSON 失败：%v\n", err)
			return 1
		}
		return 0
	}
	fmt.Fprintf(c.stdout, "path: %s\nfavorite: %v\ntags: %s\nbuild_order: %s\n",
		st.Path, st.Favorite, formatTags(st.Tags), st.BuildOrder,
	)
	return 0
}

type tagState struct {
	Path       string   `json:"path"`
	Favorite   bool     `json:"favorite"`
	Tags       []string `json:"tags"`
	BuildOrder string   `json:"build_order"`
}

func applyTagArgs(ts *tags.Store, path string, ta tagArgs) error {
	if ta.Favorite != nil {
		if err := ts.SetFavorite(path, *ta.Favorite); err != nil {
			return err
		}
	}
	if ta.Tags != nil {
		if err := ts.SetTags(path, tags.SplitTags(*ta.Tags)); err != nil {
			return err
		}
	}
	if len(ta.AddTags) > 0 {
		cur, err := ts.Tags(path)
		if err != nil {
			return err
		}
		if err := ts.SetTags(path, append(cur, ta.AddTags...)); err != nil {
			return err
		}
	}
	if ta.BuildOrder != nil {
		if err := ts.SetBuildOrder(path, *ta.BuildOrder); err != nil {
			return err
		}
	}
	return nil
}

func readTagState(ts *tags.Store, path string) (tagState, error) {
	fav, err := ts.IsFavorite(path)
	if err != nil {
		return tagState{}, err
	}
	tl, err := ts.Tags(path)
	if err != nil {
		return tagState{}, err
	}
	bo, err := ts.BuildOrder(path)
	if err != nil {
		return tagState{}, err
	}
	if tl == nil {
		tl = []string{}
	}
	return tagState{Path: path, Favorite: fav, Tags: tl, BuildOrder: bo}, nil
}

func (c *cli) exportCmd(args []string) int {
	ea, err := parseExportArgs(args)
	if err != nil {
		return c.usageError(err, exportUsage)
	}
	s, code := c.openSession(ea.commonArgs.cliArgs(), nil)
	if s == nil {
		return code
	}
	defer s.Close()

	x := s.ix.LoadIndex()
	snap, err := s.snapshot()
	if err != nil {
		fmt.Fprintf(c.stderr, "读取标签库失败：%v\n", err)
		return 1
	}
	recs := app.Records(x, app.Select(x, snap, ea.filterArgs.filter(c.cwd)))

	var buf bytes.Buffer
	switch ea.Format {
	case "csv":
		err = export.WriteCSV(&buf, recs, snap)
	case "html":
		err = export.WriteHTML(&buf, recs, snap, ea.Title, time.Now())
	}
	if err != nil {
		fmt.Fprintf(c.stderr, "导出失败：%v\n", err)
		return 1
	}

	dst := c.absPath(ea.File)
	dir, name := filepath.Split(dst)
	if ea.Force {
		err = fsx.WriteFileAtomicReplace(dir, name, buf.Bytes())
	} else {
		err = fsx.WriteFileAtomicNoOverwrite(dir, name, buf.Bytes())
	}
	switch {
	case errors.Is(err, os.ErrExist):
		fmt.Fprintf(c.stderr, "目标已存在：%s（使用 --force 覆盖）\n", dst)
		return 1
	case fsx.IsPathTypeConflict(err):
		fmt.Fprintf(c.stderr, "目标不是普通文件：%s（请指定一个文件名）\n", dst)
		return 1
	case fsx.IsCrossDevice(err):
		fmt.Fprintf(c.stderr, "无法原子写入 %s：临时文件与目标不在同一个卷上\n", dst)
		return 1
	case err != nil:
		fmt.Fprintf(c.stderr, "写入失败：%v\n", err)
		return 1
	}
	s.log.Info("导出完成", "format", ea.Format, "path", dst, "records", len(recs))
	fmt.Fprintf(c.stderr, "已导出 %d 条记录：%s（%s）\n", len(recs), dst, humanize.Bytes(uint64(buf.Len())))
	return 0
}

func (c *cli) importCmd(args []string) int {
	ia, err := parseImportArgs(args)
	if err != nil {
		return c.usageError(err, importUsage)
	}
	s, code := c.openSession(ia.commonArgs.cliArgs(), nil)
	if s == nil {
		return code
	}
	defer s.Close()

	src := c.absPath(ia.File)
	f, err := os.Open(src)
	if err != nil {
		fmt.Fprintf(c.stderr, "打开 CSV 失败：%v\n", err)
		return 1
	}
	rows, err := export.ReadCSV(f, filepath.Dir(src))
	f.Close()
	if err != nil {
		fmt.Fprintf(c.stderr, "读取 CSV 失败：%v\n", err)
		return 1
	}

	x := export.MergeIndex(s.ix.LoadIndex(), rows)
	if err := s.ix.SaveIndex(x); err != nil {
		fmt.Fprintf(c.stderr, "写入索引失败：%v\n", err)
		return 1
	}
	ts, err := s.openTags()
	if err != nil {
		fmt.Fprintf(c.stderr, "打开标签库失败：%v\n", err)
		return 1
	}
	if err := export.ApplyTags(ts, rows); err != nil {
		fmt.Fprintf(c.stderr, "写入标签库失败：%v\n", err)
		return 1
	}

	s.log.Info("导入完成", "path", src, "rows", len(rows), "records", len(x.Replays))
	fmt.Fprintf(c.stderr, "已导入 %d 条记录（索引共 %d 条）\n", len(rows), len(x.Replays))
	return 0
}

func (c *cli) absPath(p string) string {
	if !filepath.IsAbs(p) {
		p = filepath.Join(c.cwd, p)
	}
	return filepath.Clean(p)
}

// resolvePath 与 absPath 相同，但会尽量解析符号链接，使其与索引中的路径一致。
func (c *cli) resolvePath(p string) string {
	p = c.absPath(p)
	if r, err := filepath.EvalSymlinks(p); err == nil {
		return r
	}
	return p
}
