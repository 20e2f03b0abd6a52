package watch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-co-op/gocron/v2"

	"github.com/John-Robertt/sc2idx/internal/app/indexer"
	"github.com/John-Robertt/sc2idx/internal/domain"
	"github.com/John-Robertt/sc2idx/internal/logging"
)

// Scanner 是 watch 需要的扫描能力（*indexer.Indexer 实现它）。
type Scanner interface {
	ScanMultiDelta(folders []string, threshold float64, baseline *indexer.Baseline, progress indexer.ProgressFunc) (indexer.DeltaResult, error)
}

type Options struct {
	Scanner   Scanner
	Folders   []string
	Threshold float64
	Interval  time.Duration

	// Baseline 为 nil 时，第一轮以当时的索引为准，之后由 watch 自己维护。
	Baseline *indexer.Baseline

	OnNew   func(recs []domain.ReplayRecord) // 只有非空时调用
	OnError func(err error)                  // 可选
	Logger  *log.Logger                      // nil => 丢弃
}

// Watcher 周期性地对同一组目录做 delta 扫描，并报告新出现的记录。
//
// 同一时刻最多只有一轮扫描在跑：调度器使用 singleton 模式，Tick 本身也串行。
type Watcher struct {
	opts Options
	log  *log.Logger

	mu       sync.Mutex
	baseline *indexer.Baseline
	rounds   int
}

var ErrNoFolders = errors.New("watch: 没有要监视的目录")

func New(opts Options) (*Watcher, error) {
	if opts.Scanner == nil {
		return nil, errors.New("watch: Scanner 为空")
	}
	if len(opts.Folders) == 0 {
		return nil, ErrNoFolders
	}
	if opts.Interval <= 0 {
		return nil, fmt.Errorf("watch: 间隔必须大于 0：%v", opts.Interval)
	}
	lg := opts.Logger
	if lg == nil {
		lg = logging.Discard()
	}
	return &Watcher{opts: opts, log: lg, baseline: opts.Baseline}, nil
}

// Tick 执行一轮 delta 扫描。
func (w *Watcher) Tick() (indexer.DeltaResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.rounds++
	res, err := w.opts.Scanner.ScanMultiDelta(w.opts.Folders, w.opts.Threshold, w.baseline, nil)
	if err != nil {
		w.log.Warn("watch 扫描失败", "round", w.rounds, "err", err)
		if w.opts.OnError != nil {
			w.opts.OnError(err)
		}
		// 写盘失败时 res.Index 仍然有效；新记录照常报告，下次不再重复。
		if len(res.Index.Replays) == 0 && len(res.New) == 0 {
			return res, err
		}
	}

	if w.baseline == nil {
		w.baseline = indexer.NewBaseline(res.Index.Paths())
	} else {
		for _, r := range res.New {
			w.baseline.Add(r.Path)
		}
	}

	w.log.Debug("watch 一轮完成", "round", w.rounds, "records", len(res.Index.Replays), "new", len(res.New))
	if len(res.New) > 0 && w.opts.OnNew != nil {
		w.opts.OnNew(res.New)
	}
	return res, err
}

// Run 立即执行一轮，然后按 Interval 周期执行，直到 ctx 结束。
func (w *Watcher) Run(ctx context.Context) error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("创建调度器失败：%w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(w.opts.Interval),
		gocron.NewTask(func() { _, _ = w.Tick() }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithName("sc2idx-watch"),
	)
	if err != nil {
		_ = s.Shutdown()
		return fmt.Errorf("注册 watch 任务失败：%w", err)
	}

	w.log.Info("watch 开始", "folders", len(w.opts.Folders), "interval", w.opts.Interval)
	s.Start()
	<-ctx.Done()
	if err := s.Shutdown(); err != nil {
		return fmt.Errorf("停止调度器失败：%w", err)
	}
	w.log.Info("watch 结束", "rounds", w.Rounds())
	return nil
}

// Rounds 返回已经执行的轮数。
func (w *Watcher) Rounds() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rounds
}
