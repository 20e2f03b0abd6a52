package tags

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

// Filename 是数据目录下的标签库文件名。
const Filename = "replay_tags.db"

// Store 保存用户维护的元数据：收藏、标签、手动建造顺序。
//
// key 一律是回放记录的绝对路径；扫描引擎从不写这里。
// 所有方法并发安全。
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open 打开（必要时创建）path 处的标签库文件。
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("打开标签库失败：%w", err)
	}
	// 单连接：sqlite 写入串行化。
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("连接标签库失败：%w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("启用 WAL 失败：%w", err)
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("创建表失败：%w", err)
	}
	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS favorites (
		path TEXT PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS tags (
		path TEXT NOT NULL,
		tag  TEXT NOT NULL,
		PRIMARY KEY (path, tag)
	);

	CREATE TABLE IF NOT EXISTS build_orders (
		path  TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// IsFavorite 报告 path 是否被收藏。
func (s *Store) IsFavorite(path string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRow(`SELECT COUNT(1) FROM favorites WHERE path = ?`, path).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetFavorite 收藏或取消收藏。
func (s *Store) SetFavorite(path string, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if value {
		_, err = s.db.Exec(`INSERT OR IGNORE INTO favorites (path) VALUES (?)`, path)
	} else {
		_, err = s.db.Exec(`DELETE FROM favorites WHERE path = ?`, path)
	}
	return err
}

// Tags 返回 path 的标签（已排序）。
func (s *Store) Tags(path string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT tag FROM tags WHERE path = ? ORDER BY tag`, path)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		out = append(out, tag)
	}
	return out, rows.Err()
}

// SetTags 用 tags 替换 path 的全部标签：去空白、去空串、去重；结果为空时删除。
func (s *Store) SetTags(path string, tags []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM tags WHERE path = ?`, path); err != nil {
		return err
	}
	for _, t := range CleanTags(tags) {
		if _, err := tx.Exec(`INSERT INTO tags (path, tag) VALUES (?, ?)`, path, t); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// BuildOrder 返回 path 的手动建造顺序；没有时返回空串。
func (s *Store) BuildOrder(path string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var v string
	err := s.db.QueryRow(`SELECT value FROM build_orders WHERE path = ?`, path).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return v, err
}

// SetBuildOrder 设置手动建造顺序；空串表示删除。
func (s *Store) SetBuildOrder(path, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if strings.TrimSpace(value) == "" {
		_, err = s.db.Exec(`DELETE FROM build_orders WHERE path = ?`, path)
	} else {
		_, err = s.db.Exec(`INSERT INTO build_orders (path, value) VALUES (?, ?)
			ON CONFLICT(path) DO UPDATE SET value = excluded.value`, path, value)
	}
	return err
}

// Snapshot 是标签库的只读快照（list/export 用它做过滤与展示，避免逐条查询）。
type Snapshot struct {
	Favorites   map[string]bool
	Tags        map[string][]string
	BuildOrders map[string]string
}

// Snapshot 一次性读出全部内容。
func (s *Store) Snapshot() (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Favorites:   map[string]bool{},
		Tags:        map[string][]string{},
		BuildOrders: map[string]string{},
	}

	rows, err := s.db.Query(`SELECT path FROM favorites`)
	if err != nil {
		return Snapshot{}, err
	}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return Snapshot{}, err
		}
		snap.Favorites[p] = true
	}
	rows.Close()

	rows, err = s.db.Query(`SELECT path, tag FROM tags ORDER BY path, tag`)
	if err != nil {
		return Snapshot{}, err
	}
	for rows.Next() {
		var p, t string
		if err := rows.Scan(&p, &t); err != nil {
			rows.Close()
			return Snapshot{}, err
		}
		snap.Tags[p] = append(snap.Tags[p], t)
	}
	rows.Close()

	rows, err = s.db.Query(`SELECT path, value FROM build_orders`)
	if err != nil {
		return Snapshot{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var p, v string
		if err := rows.Scan(&p, &v); err != nil {
			return Snapshot{}, err
		}
		snap.BuildOrders[p] = v
	}
	return snap, rows.Err()
}

// AllTags 返回快照中出现过的全部标签（排序去重）。
func (snap Snapshot) AllTags() []string {
	seen := map[string]struct{}{}
	for _, ts := range snap.Tags {
		for _, t := range ts {
			seen[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// HasTag 报告 path 是否带有 tag（大小写不敏感）。
func (snap Snapshot) HasTag(path, tag string) bool {
	for _, t := range snap.Tags[path] {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// CleanTags 去空白、去空串、去重并排序。
func CleanTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// SplitTags 把 "a, b,c" 形式的输入拆成标签列表（CLI 与 CSV 导入共用）。
func SplitTags(s string) []string {
	return CleanTags(strings.Split(s, ","))
}
