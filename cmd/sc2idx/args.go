package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/John-Robertt/sc2idx/internal/app"
	"github.com/John-Robertt/sc2idx/internal/config"
	"github.com/John-Robertt/sc2idx/internal/domain"
	"github.com/John-Robertt/sc2idx/internal/tags"
)

// commonArgs 是所有子命令共享的参数。
type commonArgs struct {
	ConfigPath string
	DataDir    string
	LogLevel   string
}

func (c *commonArgs) consume(args []string, i *int) (bool, error) {
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{"--config", &c.ConfigPath},
		{"--data-dir", &c.DataDir},
		{"--log-level", &c.LogLevel},
	} {
		v, ok, err := flagValue(args, i, f.name)
		if err != nil || ok {
			if ok && strings.TrimSpace(v) == "" {
				return true, fmt.Errorf("%s 不能为空", f.name)
			}
			*f.dst = v
			return ok, err
		}
	}
	return false, nil
}

func (c commonArgs) cliArgs() config.CLIArgs {
	return config.CLIArgs{
		ConfigPath: c.ConfigPath,
		DataDir:    c.DataDir,
		LogLevel:   c.LogLevel,
	}
}

// filterArgs 是 list/stats/export 共享的过滤参数。
type filterArgs struct {
	Folder       string
	Matchup      string
	Race         string
	PlayerCount  int
	FavoriteOnly bool
	ProxyOnly    bool
	Tags         []string
	Player       string
	Map          string
	BuildOrder   []string
}

func (f *filterArgs) consume(args []string, i *int) (bool, error) {
	a := args[*i]
	switch a {
	case "--favorite":
		f.FavoriteOnly = true
		return true, nil
	case "--proxy":
		f.ProxyOnly = true
		return true, nil
	}

	str := map[string]*string{
		"--folder":  &f.Folder,
		"--matchup": &f.Matchup,
		"--player":  &f.Player,
		"--map":     &f.Map,
	}
	for name, dst := range str {
		v, ok, err := flagValue(args, i, name)
		if err != nil {
			return true, err
		}
		if ok {
			*dst = v
			return true, nil
		}
	}

	if v, ok, err := flagValue(args, i, "--race"); err != nil || ok {
		if err != nil {
			return true, err
		}
		r := strings.ToUpper(strings.TrimSpace(v))
		switch r {
		case domain.RaceTerran, domain.RaceProtoss, domain.RaceZerg:
			f.Race = r
			return true, nil
		default:
			return true, fmt.Errorf("--race 只能是 T、P 或 Z，实际是 %q", v)
		}
	}
	if v, ok, err := flagValue(args, i, "--players"); err != nil || ok {
		if err != nil {
			return true, err
		}
		n, e := strconv.Atoi(strings.TrimSpace(v))
		if e != nil || n <= 0 {
			return true, fmt.Errorf("--players 必须是正整数，实际是 %q", v)
		}
		f.PlayerCount = n
		return true, nil
	}
	if v, ok, err := flagValue(args, i, "--tag"); err != nil || ok {
		if err != nil {
			return true, err
		}
		f.Tags = append(f.Tags, tags.SplitTags(v)...)
		return true, nil
	}
	if v, ok, err := flagValue(args, i, "--build-order"); err != nil || ok {
		if err != nil {
			return true, err
		}
		f.BuildOrder = splitSteps(v)
		return true, nil
	}
	return false, nil
}

func (f filterArgs) filter(cwd string) app.Filter {
	folder := ""
	if strings.TrimSpace(f.Folder) != "" {
		folder = f.Folder
		if !filepath.IsAbs(folder) {
			folder = filepath.Join(cwd, folder)
		}
		folder = filepath.Clean(folder)
		// 索引中的来源目录是解析过符号链接的路径。
		if r, err := filepath.EvalSymlinks(folder); err == nil {
			folder = r
		}
	}
	return app.Filter{
		Folder:       folder,
		Matchup:      strings.TrimSpace(f.Matchup),
		Race:         f.Race,
		PlayerCount:  f.PlayerCount,
		FavoriteOnly: f.FavoriteOnly,
		ProxyOnly:    f.ProxyOnly,
		Tags:         f.Tags,
		Player:       f.Player,
		Map:          f.Map,
		BuildOrder:   f.BuildOrder,
	}
}

// splitSteps 把 "Nexus > Gateway" 拆成建造步骤。
func splitSteps(s string) []string {
	parts := strings.Split(s, ">")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type scanArgs struct {
	commonArgs
	Folders      []string
	Threshold    float64
	ThresholdSet bool
	NoCache      bool
	Delta        bool
	// Save 在扫描成功后把生效的目录与阈值写回配置文件。
	Save bool
}

func parseScanArgs(args []string) (scanArgs, error) {
	sa := scanArgs{}
	for i := 0; i < len(args); i++ {
		a := args[i]
		if ok, err := sa.commonArgs.consume(args, &i); err != nil {
			return scanArgs{}, err
		} else if ok {
			continue
		}
		if v, ok, err := flagValue(args, &i, "--threshold"); err != nil {
			return scanArgs{}, err
		} else if ok {
			th, err := parseThreshold(v)
			if err != nil {
				return scanArgs{}, err
			}
			sa.Threshold, sa.ThresholdSet = th, true
			continue
		}
		switch {
		case a == "--no-cache":
			sa.NoCache = true
		case a == "--delta":
			sa.Delta = true
		case a == "--save":
			sa.Save = true
		case strings.HasPrefix(a, "-"):
			return scanArgs{}, fmt.Errorf("未知参数 %q", a)
		default:
			sa.Folders = append(sa.Folders, a)
		}
	}
	if sa.NoCache && sa.Delta {
		return scanArgs{}, fmt.Errorf("--delta 总是使用缓存，不能与 --no-cache 同时使用")
	}
	return sa, nil
}

func (sa scanArgs) cliArgs() config.CLIArgs {
	c := sa.commonArgs.cliArgs()
	c.Folders = sa.Folders
	c.Threshold, c.ThresholdSet = sa.Threshold, sa.ThresholdSet
	if sa.NoCache {
		c.UseCache, c.UseCacheSet = false, true
	}
	return c
}

type listArgs struct {
	commonArgs
	filterArgs
	Group bool
	Long  bool
}

func parseListArgs(args []string) (listArgs, error) {
	la := listArgs{}
	for i := 0; i < len(args); i++ {
		a := args[i]
		if ok, err := la.commonArgs.consume(args, &i); err != nil {
			return listArgs{}, err
		} else if ok {
			continue
		}
		if ok, err := la.filterArgs.consume(args, &i); err != nil {
			return listArgs{}, err
		} else if ok {
			continue
		}
		switch a {
		case "--group":
			la.Group = true
		case "--long", "-l":
			la.Long = true
		default:
			return listArgs{}, fmt.Errorf("未知参数 %q", a)
		}
	}
	return la, nil
}

type statsArgs struct {
	commonArgs
	filterArgs
	Name   string
	Versus string
}

func parseStatsArgs(args []string) (statsArgs, error) {
	st := statsArgs{}
	for i := 0; i < len(args); i++ {
		a := args[i]
		if ok, err := st.commonArgs.consume(args, &i); err != nil {
			return statsArgs{}, err
		} else if ok {
			continue
		}
		if v, ok, err := flagValue(args, &i, "--vs"); err != nil {
			return statsArgs{}, err
		} else if ok {
			st.Versus = strings.TrimSpace(v)
			continue
		}
		// stats 的位置参数是玩家名；--player 仍作为列表过滤条件。
		if ok, err := st.filterArgs.consume(args, &i); err != nil {
			return statsArgs{}, err
		} else if ok {
			continue
		}
		if strings.HasPrefix(a, "-") {
			return statsArgs{}, fmt.Errorf("未知参数 %q", a)
		}
		if st.Name != "" {
			return statsArgs{}, fmt.Errorf("重复的玩家名：%q 与 %q", st.Name, a)
		}
		st.Name = strings.TrimSpace(a)
	}
	if st.Name == "" {
		return statsArgs{}, fmt.Errorf("需要一个玩家名")
	}
	return st, nil
}

type watchArgs struct {
	commonArgs
	Folders      []string
	Threshold    float64
	ThresholdSet bool
	Interval     time.Duration
}

func parseWatchArgs(args []string) (watchArgs, error) {
	wa := watchArgs{}
	for i := 0; i < len(args); i++ {
		a := args[i]
		if ok, err := wa.commonArgs.consume(args, &i); err != nil {
			return watchArgs{}, err
		} else if ok {
			continue
		}
		if v, ok, err := flagValue(args, &i, "--threshold"); err != nil {
			return watchArgs{}, err
		} else if ok {
			th, err := parseThreshold(v)
			if err != nil {
				return watchArgs{}, err
			}
			wa.Threshold, wa.ThresholdSet = th, true
			continue
		}
		if v, ok, err := flagValue(args, &i, "--interval"); err != nil {
			return watchArgs{}, err
		} else if ok {
			d, err := parseInterval(v)
			if err != nil {
				return watchArgs{}, err
			}
			wa.Interval = d
			continue
		}
		if strings.HasPrefix(a, "-") {
			return watchArgs{}, fmt.Errorf("未知参数 %q", a)
		}
		wa.Folders = append(wa.Folders, a)
	}
	return wa, nil
}

func (wa watchArgs) cliArgs() config.CLIArgs {
	c := wa.commonArgs.cliArgs()
	c.Folders = wa.Folders
	c.Threshold, c.ThresholdSet = wa.Threshold, wa.ThresholdSet
	return c
}

type tagArgs struct {
	commonArgs
	Path       string
	Favorite   *bool
	Tags       *string
	AddTags    []string
	BuildOrder *string
}

func parseTagArgs(args []string) (tagArgs, error) {
	ta := tagArgs{}
	for i := 0; i < len(args); i++ {
		a := args[i]
		if ok, err := ta.commonArgs.consume(args, &i); err != nil {
			return tagArgs{}, err
		} else if ok {
			continue
		}
		if v, ok, err := boolFlag(a, "--favorite"); err != nil {
			return tagArgs{}, err
		} else if ok {
			ta.Favorite = &v
			continue
		}
		if v, ok, err := flagValue(args, &i, "--tags"); err != nil {
			return tagArgs{}, err
		} else if ok {
			ta.Tags = &v
			continue
		}
		if v, ok, err := flagValue(args, &i, "--add-tag"); err != nil {
			return tagArgs{}, err
		} else if ok {
			ta.AddTags = append(ta.AddTags, tags.SplitTags(v)...)
			continue
		}
		if v, ok, err := flagValue(args, &i, "--build-order"); err != nil {
			return tagArgs{}, err
		} else if ok {
			ta.BuildOrder = &v
			continue
		}
		if strings.HasPrefix(a, "-") {
			return tagArgs{}, fmt.Errorf("未知参数 %q", a)
		}
		if ta.Path != "" {
			return tagArgs{}, fmt.Errorf("重复的回放路径：%q 与 %q", ta.Path, a)
		}
		ta.Path = a
	}
	if ta.Path == "" {
		return tagArgs{}, fmt.Errorf("需要一个回放路径")
	}
	return ta, nil
}

type exportArgs struct {
	commonArgs
	filterArgs
	Format string
	File   string
	Force  bool
	Title  string
}

func parseExportArgs(args []string) (exportArgs, error) {
	ea := exportArgs{}
	var pos []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if ok, err := ea.commonArgs.consume(args, &i); err != nil {
			return exportArgs{}, err
		} else if ok {
			continue
		}
		if ok, err := ea.filterArgs.consume(args, &i); err != nil {
			return exportArgs{}, err
		} else if ok {
			continue
		}
		if v, ok, err := flagValue(args, &i, "--title"); err != nil {
			return exportArgs{}, err
		} else if ok {
			ea.Title = v
			continue
		}
		switch {
		case a == "--force":
			ea.Force = true
		case strings.HasPrefix(a, "-"):
			return exportArgs{}, fmt.Errorf("未知参数 %q", a)
		default:
			pos = append(pos, a)
		}
	}
	if len(pos) != 2 {
		return exportArgs{}, fmt.Errorf("用法：export csv|html <file>")
	}
	ea.Format, ea.File = strings.ToLower(pos[0]), pos[1]
	if ea.Format != "csv" && ea.Format != "html" {
		return exportArgs{}, fmt.Errorf("导出格式只能是 csv 或 html，实际是 %q", pos[0])
	}
	return ea, nil
}

type importArgs struct {
	commonArgs
	Format string
	File   string
}

func parseImportArgs(args []string) (importArgs, error) {
	ia := importArgs{}
	var pos []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if ok, err := ia.commonArgs.consume(args, &i); err != nil {
			return importArgs{}, err
		} else if ok {
			continue
		}
		if strings.HasPrefix(a, "-") {
			return importArgs{}, fmt.Errorf("未知参数 %q", a)
		}
		pos = append(pos, a)
	}
	if len(pos) != 2 || strings.ToLower(pos[0]) != "csv" {
		return importArgs{}, fmt.Errorf("用法：import csv <file>")
	}
	ia.Format, ia.File = "csv", pos[1]
	return ia, nil
}

// flagValue 解析 "--name value" 与 "--name=value" 两种写法。
func flagValue(args []string, i *int, name string) (string, bool, error) {
	a := args[*i]
	if a == name {
		if *i+1 >= len(args) {
			return "", true, fmt.Errorf("%s 需要一个值", name)
		}
		*i++
		return args[*i], true, nil
	}
	if strings.HasPrefix(a, name+"=") {
		return strings.TrimPrefix(a, name+"="), true, nil
	}
	return "", false, nil
}

// boolFlag 解析 "--name" 与 "--name=true|false"。
func boolFlag(a, name string) (value, ok bool, err error) {
	if a == name {
		return true, true, nil
	}
	if !strings.HasPrefix(a, name+"=") {
		return false, false, nil
	}
	switch v := strings.TrimPrefix(a, name+"="); v {
	case "true":
		return true, true, nil
	case "false":
		return false, true, nil
	default:
		return false, true, fmt.Errorf("%s 只能是 true 或 false，实际是 %q", name, v)
	}
}

func parseThreshold(v string) (float64, error) {
	th, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("--threshold 必须是数字，实际是 %q", v)
	}
	if err := config.ValidateThreshold(th); err != nil {
		return 0, fmt.Errorf("--threshold：%w", err)
	}
	return th, nil
}

func parseInterval(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d, nil
	}
	sec, err := strconv.Atoi(v)
	if err != nil || sec <= 0 {
		return 0, fmt.Errorf("--interval 必须是正的秒数或时长（例如 30s），实际是 %q", v)
	}
	return time.Duration(sec) * time.Second, nil
}
