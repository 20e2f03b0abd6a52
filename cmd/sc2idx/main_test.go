package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/John-Robertt/sc2idx/internal/config"
	"github.com/John-Robertt/sc2idx/internal/decoder"
	"github.com/John-Robertt/sc2idx/internal/domain"
	"github.com/John-Robertt/sc2idx/internal/infra/cache"
	"github.com/John-Robertt/sc2idx/internal/logging"
)

func fakeMatch(path string) (domain.Match, error) {
	if strings.Contains(filepath.Base(path), "bad") {
		return domain.Match{}, errors.New("truncated replay")
	}
	t1, t2 := 1, 2
	at := func(x, y float64) *domain.Point { return &domain.Point{X: x, Y: y} }
	return domain.Match{
		Players: []domain.MatchPlayer{
			{Name: "Alice", Race: "Protoss", Result: "Win", TeamID: &t1, PID: 1},
			{Name: "Bob", Race: "Terran", Result: "Loss", TeamID: &t2, PID: 2},
		},
		MapName:  "Alcyone LE",
		Start:    time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Length:   10 * time.Minute,
		GameType: "1v1",
		Speed:    "Faster",
		Events: []domain.Event{
			{Kind: domain.EventUnitBorn, PlayerID: 1, TypeName: "Nexus", Pos: at(0, 0)},
			{Kind: domain.EventUnitBorn, PlayerID: 2, TypeName: "CommandCenter", Pos: at(100, 100)},
			{Kind: domain.EventUnitInit, Loop: 500, PlayerID: 1, TypeName: "Gateway", Pos: at(60, 80)},
			{Kind: domain.EventUnitInit, Loop: 600, PlayerID: 2, TypeName: "Barracks", Pos: at(103, 104)},
		},
	}, nil
}

type testEnv struct {
	root   string
	replay string
	stdout bytes.Buffer
	stderr bytes.Buffer
}

func newTestEnv(t *testing.T, files ...string) *testEnv {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("解析临时目录失败：%v", err)
	}
	e := &testEnv{root: root}
	e.replay = filepath.Join(e.root, "replays")
	if err := os.MkdirAll(e.replay, 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(e.replay, f), []byte("x"), 0o644); err != nil {
			t.Fatalf("写入回放失败：%v", err)
		}
	}
	return e
}

func (e *testEnv) run(args ...string) int {
	e.stdout.Reset()
	e.stderr.Reset()
	c := &cli{
		ctx:    context.Background(),
		stdout: &e.stdout,
		stderr: &e.stderr,
		cwd:    e.root,
		dec:    decoder.Func(fakeMatch),
	}
	return c.run(args)
}

func TestCLI_ScanOutputsIndexJSON(t *testing.T) {
	e := newTestEnv(t, "a.SC2Replay", "bad.SC2Replay", "notes.txt")

	code := e.run("scan", "replays")
	if code != 1 {
		t.Fatalf("有失败文件时期望退出码 1，实际 %d\nstderr=%s", code, e.stderr.String())
	}

	var x domain.Index
	if err := json.Unmarshal(e.stdout.Bytes(), &x); err != nil {
		t.Fatalf("stdout 不是合法的索引 JSON：%v\nstdout=%q", err, e.stdout.String())
	}
	if len(x.Replays) != 1 || x.Replays[0].Matchup != "PvT" || len(x.Errors) != 1 {
		t.Fatalf("索引内容不符合预期：%+v", x)
	}
	if !strings.Contains(e.stderr.String(), "完成：files=2 cache_hits=0 parsed=1 failed=1") {
		t.Fatalf("stderr 缺少完成摘要：%q", e.stderr.String())
	}

	// 索引与日志都落在默认数据目录。
	dataDir := filepath.Join(e.root, "data")
	if _, err := os.Stat(filepath.Join(dataDir, cache.IndexFilename)); err != nil {
		t.Fatalf("索引文件不存在：%v", err)
	}
	if _, err := os.Stat(filepath.Join(dataDir, logging.Filename)); err != nil {
		t.Fatalf("日志文件不存在：%v", err)
	}
}

func TestCLI_ScanDeltaReportsNew(t *testing.T) {
	e := newTestEnv(t, "a.SC2Replay")
	if code := e.run("scan", "replays"); code != 0 {
		t.Fatalf("期望退出码 0，实际 %d\nstderr=%s", code, e.stderr.String())
	}
	if err := os.WriteFile(filepath.Join(e.replay, "b.SC2Replay"), []byte("y"), 0o644); err != nil {
		t.Fatalf("写入回放失败：%v", err)
	}

	if code := e.run("scan", "replays", "--delta"); code != 0 {
		t.Fatalf("期望退出码 0，实际 %d\nstderr=%s", code, e.stderr.String())
	}
	var out deltaOutput
	if err := json.Unmarshal(e.stdout.Bytes(), &out); err != nil {
		t.Fatalf("stdout 不是合法的 delta JSON：%v", err)
	}
	if len(out.Index.Replays) != 2 || len(out.New) != 1 || out.New[0].Filename != "b.SC2Replay" {
		t.Fatalf("delta 结果不符合预期：index=%d new=%+v", len(out.Index.Replays), out.New)
	}
	if !strings.Contains(e.stderr.String(), "cache_hits=1 parsed=1") {
		t.Fatalf("a 应命中缓存：%q", e.stderr.String())
	}
}

func TestCLI_ScanSaveThenScanFromConfig(t *testing.T) {
	e := newTestEnv(t, "a.SC2Replay")
	if code := e.run("scan", "replays", "--threshold", "40", "--save"); code != 0 {
		t.Fatalf("期望退出码 0，实际 %d\nstderr=%s", code, e.stderr.String())
	}
	fc, ok, err := config.ReadFile(filepath.Join(e.root, config.Filename))
	if err != nil || !ok {
		t.Fatalf("配置文件应已写入：ok=%v err=%v", ok, err)
	}
	if len(fc.Folders) != 1 || fc.Folders[0] != e.replay || fc.ProxyThreshold == nil || *fc.ProxyThreshold != 40 {
		t.Fatalf("保存的配置不符合预期：%+v", fc)
	}

	// 不带目录再扫一次：目录与阈值都来自配置文件，全部命中缓存。
	if code := e.run("scan"); code != 0 {
		t.Fatalf("期望退出码 0，实际 %d\nstderr=%s", code, e.stderr.String())
	}
	if !strings.Contains(e.stderr.String(), "cache_hits=1 parsed=0") {
		t.Fatalf("第二次扫描应全部命中缓存：%q", e.stderr.String())
	}
}

func TestCLI_TagAndFolderFilterThroughSymlink(t *testing.T) {
	e := newTestEnv(t, "a.SC2Replay")
	link := filepath.Join(e.root, "linked")
	if err := os.Symlink(e.replay, link); err != nil {
		t.Skipf("当前系统不支持符号链接：%v", err)
	}
	if code := e.run("scan", "linked"); code != 0 {
		t.Fatalf("经链接扫描失败：%d\n%s", code, e.stderr.String())
	}
	var x domain.Index
	if err := json.Unmarshal(e.stdout.Bytes(), &x); err != nil {
		t.Fatalf("stdout 不是合法的索引 JSON：%v", err)
	}
	if len(x.Replays) != 1 || x.Replays[0].Path != filepath.Join(e.replay, "a.SC2Replay") {
		t.Fatalf("记录应以链接目标为键：%+v", x.Replays)
	}

	if code := e.run("tag", filepath.Join("linked", "a.SC2Replay"), "--favorite"); code != 0 {
		t.Fatalf("tag 失败：%d\n%s", code, e.stderr.String())
	}
	if strings.Contains(e.stderr.String(), "索引中没有") {
		t.Fatalf("经链接给出的路径应能在索引中找到：%q", e.stderr.String())
	}
	if code := e.run("list", "--folder", "linked", "--favorite"); code != 0 {
		t.Fatalf("list 失败：%d\n%s", code, e.stderr.String())
	}
	var items []listItem
	if err := json.Unmarshal(e.stdout.Bytes(), &items); err != nil {
		t.Fatalf("list 输出不是 JSON：%v", err)
	}
	if len(items) != 1 {
		t.Fatalf("经链接过滤目录应找到收藏的回放：%+v", items)
	}
}

func TestCLI_ScanWithoutFolders(t *testing.T) {
	e := newTestEnv(t)
	if code := e.run("scan"); code != 1 {
		t.Fatalf("没有目录时期望退出码 1，实际 %d", code)
	}
	if !strings.Contains(e.stderr.String(), "config_missing_folders") {
		t.Fatalf("stderr 应包含错误码：%q", e.stderr.String())
	}
}

func TestCLI_TagListExportImport(t *testing.T) {
	e := newTestEnv(t, "a.SC2Replay", "b.SC2Replay")
	if code := e.run("scan", "replays"); code != 0 {
		t.Fatalf("scan 失败：%d\n%s", code, e.stderr.String())
	}
	a := filepath.Join("replays", "a.SC2Replay")

	if code := e.run("tag", a, "--favorite", "--tags", "cheese, ladder", "--build-order", "proxy gate"); code != 0 {
		t.Fatalf("tag 失败：%d\n%s", code, e.stderr.String())
	}
	var st tagState
	if err := json.Unmarshal(e.stdout.Bytes(), &st); err != nil {
		t.Fatalf("tag 输出不是 JSON：%v", err)
	}
	if !st.Favorite || len(st.Tags) != 2 || st.BuildOrder != "proxy gate" || st.Path != filepath.Join(e.root, a) {
		t.Fatalf("tag 状态不符合预期：%+v", st)
	}

	if code := e.run("list", "--favorite"); code != 0 {
		t.Fatalf("list 失败：%d\n%s", code, e.stderr.String())
	}
	var items []listItem
	if err := json.Unmarshal(e.stdout.Bytes(), &items); err != nil {
		t.Fatalf("list 输出不是 JSON：%v\n%s", err, e.stdout.String())
	}
	if len(items) != 1 || items[0].Filename != "a.SC2Replay" || items[0].BuildOrder != "proxy gate" || items[0].Winner != "Alice" {
		t.Fatalf("list 结果不符合预期：%+v", items)
	}

	if code := e.run("stats", "Alice", "--vs", "Bob"); code != 0 {
		t.Fatalf("stats 失败：%d\n%s", code, e.stderr.String())
	}
	if !strings.Contains(e.stdout.String(), `"games": 2`) {
		t.Fatalf("stats 输出不符合预期：%s", e.stdout.String())
	}

	if code := e.run("export", "csv", "out.csv"); code != 0 {
		t.Fatalf("export 失败：%d\n%s", code, e.stderr.String())
	}
	if code := e.run("export", "csv", "out.csv"); code != 1 || !strings.Contains(e.stderr.String(), "--force") {
		t.Fatalf("已存在时不加 --force 应失败：%d %q", code, e.stderr.String())
	}
	if code := e.run("export", "html", "out.html", "--force"); code != 0 {
		t.Fatalf("export html 失败：%d\n%s", code, e.stderr.String())
	}
	if err := os.Mkdir(filepath.Join(e.root, "report"), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if code := e.run("export", "html", "report", "--force"); code != 1 || !strings.Contains(e.stderr.String(), "目标不是普通文件") {
		t.Fatalf("导出到目录应给出明确提示：%d %q", code, e.stderr.String())
	}

	// 换一个数据目录导入：记录与标签都应恢复。
	if code := e.run("import", "csv", "out.csv", "--data-dir", "data2"); code != 0 {
		t.Fatalf("import 失败：%d\n%s", code, e.stderr.String())
	}
	if code := e.run("list", "--tag", "ladder", "--data-dir", "data2"); code != 0 {
		t.Fatalf("list 失败：%d\n%s", code, e.stderr.String())
	}
	items = nil
	if err := json.Unmarshal(e.stdout.Bytes(), &items); err != nil {
		t.Fatalf("list 输出不是 JSON：%v", err)
	}
	if len(items) != 1 || !items[0].Favorite || items[0].Matchup != "PvT" {
		t.Fatalf("导入后的结果不符合预期：%+v", items)
	}
}

func TestCLI_UnknownCommandAndHelp(t *testing.T) {
	e := newTestEnv(t)
	if code := e.run("frobnicate"); code != 2 {
		t.Fatalf("未知命令期望退出码 2，实际 %d", code)
	}
	if code := e.run("scan", "--help"); code != 0 || !strings.Contains(e.stdout.String(), "sc2idx scan") {
		t.Fatalf("help 输出不符合预期：%d %q", code, e.stdout.String())
	}
	if code := e.run("list", "--race", "X"); code != 2 {
		t.Fatalf("参数错误期望退出码 2，实际 %d", code)
	}
}
