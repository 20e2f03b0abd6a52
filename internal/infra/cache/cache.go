package cache

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/John-Robertt/sc2idx/internal/domain"
	"github.com/John-Robertt/sc2idx/internal/infra/fsx"
)

// IndexFilename 是持久化索引的文件名（位于数据目录下）。
const IndexFilename = "replay_index.json"

// Store 提供 <data_dir>/replay_index.json 的读写。
//
// 约束：
// - list/export 等只读命令：ReadOnly=true
// - scan/watch：ReadOnly=false
// - Store 本身不加锁；同一索引文件同一时间只允许一个扫描在写
type Store struct {
	Dir      string // 数据目录
	ReadOnly bool
}

var ErrReadOnly = errors.New("cache: read-only")

// CorruptError 表示索引文件存在但无法解析。
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("索引文件 %q 已损坏：%v", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

func New(dir string, readOnly bool) Store {
	return Store{
		Dir:      filepath.Clean(strings.TrimSpace(dir)),
		ReadOnly: readOnly,
	}
}

// IndexPath 返回索引文件的绝对路径。
func (s Store) IndexPath() string {
	return filepath.Join(s.Dir, IndexFilename)
}

// Load 读取索引。
//
// - 文件不存在：返回空索引，exists=false，err=nil
// - 文件无法读取或解析：返回空索引与错误（读失败原样返回，解析失败为 *CorruptError）
//
// 返回的索引已 Normalize。
func (s Store) Load() (x domain.Index, exists bool, err error) {
	path := s.IndexPath()
	b, ok, err := fsx.ReadFileIfExists(path)
	if err != nil {
		return emptyIndex(), true, err
	}
	if !ok {
		return emptyIndex(), false, nil
	}
	if err := json.Unmarshal(b, &x); err != nil {
		return emptyIndex(), true, &CorruptError{Path: path, Err: err}
	}
	x.Normalize()
	return x, true, nil
}

// Save 原子替换写入索引（两空格缩进 + 结尾换行）。
func (s Store) Save(x domain.Index) error {
	if s.ReadOnly {
		return ErrReadOnly
	}
	x.Normalize()
	b, err := Encode(x)
	if err != nil {
		return err
	}
	return fsx.WriteFileAtomicReplace(s.Dir, IndexFilename, b)
}

// Encode 把索引编码为落盘格式（也用于非 TTY 时的 stdout 输出）。
func Encode(x domain.Index) ([]byte, error) {
	b, err := json.MarshalIndent(x, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func emptyIndex() domain.Index {
	var x domain.Index
	x.Normalize()
	return x
}
