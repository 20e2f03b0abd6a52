package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/John-Robertt/sc2idx/internal/app/indexer"
	"github.com/John-Robertt/sc2idx/internal/config"
	"github.com/John-Robertt/sc2idx/internal/infra/cache"
	"github.com/John-Robertt/sc2idx/internal/logging"
	"github.com/John-Robertt/sc2idx/internal/tags"
)

// session 是一次命令执行打开的资源：生效配置、日志、扫描引擎。
type session struct {
	eff     config.EffectiveConfig
	log     *log.Logger
	ix      *indexer.Indexer
	closers []io.Closer
}

func (c *cli) openSession(args config.CLIArgs, obs indexer.Observer) (*session, int) {
	eff, err := config.LoadEffective(c.cwd, args)
	if err != nil {
		fmt.Fprintf(c.stderr, "配置错误（%s）：%v\n", config.Code(err), err)
		return nil, 1
	}

	lg, closer, err := logging.Open(eff.DataDir, eff.LogLevel)
	if err != nil {
		fmt.Fprintf(c.stderr, "打开日志失败：%v\n", err)
		return nil, 1
	}

	s := &session{eff: eff, log: lg, closers: []io.Closer{closer}}
	s.ix = indexer.New(indexer.Options{
		Store:       cache.New(eff.DataDir, false),
		Decoder:     c.dec,
		Logger:      lg,
		ExcludeDirs: eff.ExcludeDirs,
		Observer:    obs,
	})
	lg.Debug("配置已加载", "config", eff.ConfigPath, "data_dir", eff.DataDir, "folders", len(eff.Folders))
	return s, 0
}

// openTags 打开 <data_dir>/replay_tags.db；session 关闭时一并关闭。
func (s *session) openTags() (*tags.Store, error) {
	ts, err := tags.Open(filepath.Join(s.eff.DataDir, tags.Filename))
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, ts)
	return ts, nil
}

// snapshot 读取标签库的只读快照。
func (s *session) snapshot() (tags.Snapshot, error) {
	ts, err := s.openTags()
	if err != nil {
		return tags.Snapshot{}, err
	}
	return ts.Snapshot()
}

func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			s.log.Warn("关闭资源失败", "err", err)
		}
	}
	s.closers = nil
}
