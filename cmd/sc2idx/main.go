package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/John-Robertt/sc2idx/internal/decoder"
	"github.com/John-Robertt/sc2idx/internal/decoder/s2prot"
)

func main() {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &cli{
		ctx:       ctx,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		cwd:       cwd,
		stdoutTTY: isTTY(os.Stdout),
		stderrTTY: isTTY(os.Stderr),
		dec:       s2prot.New(),
	}
	code := c.run(os.Args[1:])
	stop()
	os.Exit(code)
}

// cli 持有一次命令执行的全部外部依赖；测试直接构造它。
type cli struct {
	ctx       context.Context
	stdout    io.Writer
	stderr    io.Writer
	cwd       string
	stdoutTTY bool
	stderrTTY bool
	dec       decoder.Decoder
}

func (c *cli) run(args []string) int {
	if len(args) == 0 || isHelp(args[0]) {
		c.printUsage()
		return 0
	}

	cmds := map[string]struct {
		run   func([]string) int
		usage string
	}{
		"scan":   {c.scanCmd, scanUsage},
		"list":   {c.listCmd, listUsage},
		"stats":  {c.statsCmd, statsUsage},
		"watch":  {c.watchCmd, watchUsage},
		"tag":    {c.tagCmd, tagUsage},
		"export": {c.exportCmd, exportUsage},
		"import": {c.importCmd, importUsage},
	}
	cmd, ok := cmds[args[0]]
	if !ok {
		fmt.Fprintf(c.stderr, "未知命令：%q\n\n", args[0])
		c.printUsage()
		return 2
	}
	for _, a := range args[1:] {
		if isHelp(a) {
			fmt.Fprint(c.stdout, cmd.usage)
			return 0
		}
	}
	return cmd.run(args[1:])
}

func (c *cli) usageError(err error, usage string) int {
	fmt.Fprintf(c.stderr, "参数错误：%v\n\n", err)
	fmt.Fprint(c.stderr, usage)
	return 2
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// progressWriter 选择进度输出位置：只在交互终端启用，默认走 stderr。
func (c *cli) progressWriter() (io.Writer, bool) {
	if c.stderrTTY {
		return c.stderr, true
	}
	// 某些环境（例如仅重定向 stderr）下，stdout 仍是 TTY：退化输出到 stdout。
	if c.stdoutTTY {
		return c.stdout, true
	}
	return nil, false
}

func (c *cli) printUsage() {
	fmt.Fprint(c.stdout, `用法：
  sc2idx <command> [参数]

命令：
  scan     扫描回放目录，增量更新索引
  list     按条件列出索引中的回放
  stats    统计某个玩家的战绩
  watch    定期增量扫描，报告新回放
  tag      设置收藏、标签、手动建造顺序
  export   导出 CSV / HTML
  import   从 CSV 导入记录与标签

通用参数：
  --config <file>      配置文件（默认 ./sc2idx.json，可不存在）
  --data-dir <dir>     数据目录（默认 ./data）
  --log-level <level>  debug|info|warn|error

使用 "sc2idx <command> --help" 查看详细说明。
`)
}

const scanUsage = `用法：
  sc2idx scan [folder...] [--threshold N] [--no-cache] [--delta] [--save]

参数：
  folder       要扫描的目录（可多个；未指定则读配置 folders）
  --threshold  proxy 距离阈值（默认 35）
  --no-cache   忽略缓存，全部重新解析
  --delta      增量扫描，额外报告新出现的回放（总是使用缓存）
  --save       扫描成功后把目录与阈值写回配置文件
  -h, --help   显示帮助

stdout 非终端时输出索引 JSON（--delta 时为 {"index":..., "new":[...]}）。
`

const listUsage = `用法：
  sc2idx list [过滤参数] [--group] [--long]

过滤参数：
  --folder <dir>        只看某个来源目录
  --matchup <M>         例如 PvT
  --race T|P|Z          任一玩家是该种族
  --players <N>         玩家人数
  --player <text>       玩家名包含
  --map <text>          地图名包含
  --tag <a,b>           必须带有全部标签
  --build-order <A > B> 建造顺序前缀
  --favorite            只看收藏
  --proxy               只看 proxy 对局

输出：
  --group  按来源目录分组
  --long   额外显示文件大小、修改时间
`

const statsUsage = `用法：
  sc2idx stats <player> [--vs <player>] [过滤参数]

按玩家名（精确匹配）统计胜率、按 matchup/对手种族的胜率、遭遇 proxy 的比例。
`

const watchUsage = `用法：
  sc2idx watch [folder...] [--interval 15s] [--threshold N]

立即扫描一次，之后按间隔增量扫描；Ctrl-C 结束。
`

const tagUsage = `用法：
  sc2idx tag <replay> [--favorite[=true|false]] [--tags a,b] [--add-tag c] [--build-order S]

没有修改参数时只显示当前值。--tags "" 清空标签；--build-order "" 删除手动建造顺序。
`

const exportUsage = `用法：
  sc2idx export csv|html <file> [--force] [--title T] [过滤参数]

默认不覆盖已有文件；--force 覆盖。
`

const importUsage = `用法：
  sc2idx import csv <file>

记录按（来源目录, 文件名）并入索引；标签取并集，收藏只增不减。
`
