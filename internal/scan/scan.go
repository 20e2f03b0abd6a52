package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/John-Robertt/sc2idx/internal/domain"
)

// ReplayExt 是回放文件扩展名（比较时大小写不敏感）。
const ReplayExt = ".sc2replay"

// ScanReplays 递归扫描 root 下的回放文件，并应用目录排除规则。
//
// 规则：
// - excludeDirs：均视为相对 root 的路径（若是绝对路径，则按绝对路径处理）
// - 每个文件的 SourceFolder 记录为解析符号链接后的 root（clean + absolute）
// - 目录内指向文件的符号链接按目标路径记录；指向目录的不跟随
//
// 注意：扫描阶段只做 stat，不读文件内容。
func ScanReplays(root string, excludeDirs []string) ([]domain.ReplayFile, error) {
	root, err := ResolvePath(root)
	if err != nil {
		return nil, err
	}
	excluded := buildExcluded(root, excludeDirs)

	files := make([]domain.ReplayFile, 0, 128)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		// 统一的排除判断：目录用 SkipDir，文件则直接跳过。
		if isExcluded(path, excluded) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		name := d.Name()
		if !IsReplayName(name) {
			return nil
		}

		abs := path
		var (
			info fs.FileInfo
			err  error
		)
		if d.Type()&fs.ModeSymlink != 0 {
			abs, err = filepath.EvalSymlinks(path)
			if err != nil {
				// 悬空链接：没有可分析的内容。
				return nil
			}
			info, err = os.Stat(abs)
			if err != nil {
				return err
			}
			if !info.Mode().IsRegular() {
				return nil
			}
		} else {
			info, err = d.Info()
			if err != nil {
				return err
			}
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		files = append(files, domain.ReplayFile{
			AbsPath:      abs,
			RelPath:      rel,
			SourceFolder: root,
			Name:         name,
			Size:         info.Size(),
			MTime:        float64(info.ModTime().UnixNano()) / 1e9,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 强制稳定输出，避免不同平台/文件系统行为差异带来的不确定性。
	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

// FolderError 表示某个来源目录整体扫描失败（其他目录不受影响）。
type FolderError struct {
	Folder string
	Err    error
}

func (e *FolderError) Error() string {
	return fmt.Sprintf("%s: 扫描目录失败：%v", e.Folder, e.Err)
}

func (e *FolderError) Unwrap() error { return e.Err }

// ScanFolders 依次扫描多个来源目录，按目录顺序拼接结果。
//
// - 空字符串目录被忽略；重复目录只扫描一次
// - 同一文件被多个（嵌套的）目录发现时，只保留第一个目录的结果，保证 AbsPath 唯一
// - 单个目录失败不会中断其他目录，失败以 *FolderError 列表返回
func ScanFolders(folders []string, excludeDirs []string) ([]domain.ReplayFile, []string, []error) {
	seenFolder := make(map[string]struct{}, len(folders))
	seenFile := make(map[string]struct{}, 256)

	resolved := make([]string, 0, len(folders))
	files := make([]domain.ReplayFile, 0, 256)
	var errs []error

	for _, f := range folders {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		abs, err := filepath.Abs(filepath.Clean(f))
		if err != nil {
			errs = append(errs, &FolderError{Folder: f, Err: err})
			continue
		}
		// 解析失败（通常是目录不存在）时仍以绝对路径记入 folders。
		if p, err := filepath.EvalSymlinks(abs); err == nil {
			abs = p
		}
		if _, ok := seenFolder[abs]; ok {
			continue
		}
		seenFolder[abs] = struct{}{}
		resolved = append(resolved, abs)

		got, err := ScanReplays(abs, excludeDirs)
		if err != nil {
			errs = append(errs, &FolderError{Folder: abs, Err: err})
			continue
		}
		for _, rf := range got {
			if _, ok := seenFile[rf.AbsPath]; ok {
				continue
			}
			seenFile[rf.AbsPath] = struct{}{}
			files = append(files, rf)
		}
	}
	return files, resolved, errs
}

// ResolvePath 返回 p 的绝对路径，并解析其中的符号链接（p 必须存在）。
// 记录与缓存都以解析后的路径为键。
func ResolvePath(p string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(p))
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// IsReplayName 判断文件名是否为回放文件（扩展名大小写不敏感）。
func IsReplayName(name string) bool {
	return strings.ToLower(filepath.Ext(name)) == ReplayExt
}

func buildExcluded(root string, excludeDirs []string) []string {
	excluded := make([]string, 0, len(excludeDirs))

	for _, x := range excludeDirs {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		if filepath.IsAbs(x) {
			excluded = append(excluded, filepath.Clean(x))
			continue
		}
		// x 是相对路径：相对 root。
		excluded = append(excluded, filepath.Clean(filepath.Join(root, x)))
	}

	// 排除列表排序后，isExcluded 的行为更可预测（且便于测试）。
	sort.Strings(excluded)
	return excluded
}

func isExcluded(path string, excluded []string) bool {
	path = filepath.Clean(path)
	for _, base := range excluded {
		if isUnder(path, base) {
			return true
		}
	}
	return false
}

func isUnder(path, base string) bool {
	if path == base {
		return true
	}
	sep := string(filepath.Separator)
	return strings.HasPrefix(path, base+sep)
}
