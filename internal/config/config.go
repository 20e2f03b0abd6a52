package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/joho/godotenv"

	"github.com/John-Robertt/sc2idx/internal/infra/fsx"
)

const (
	// ErrCodeNotFound 表示显式指定的配置文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件/环境变量无法读取、解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
	// ErrCodeMissingFolders 表示需要扫描目录的命令既没有 CLI 目录也没有配置 folders。
	ErrCodeMissingFolders = "config_missing_folders"
)

const (
	// Filename 是配置文件名（位于 cwd）。
	Filename = "sc2idx.json"
	// EnvFilename 是可选的环境变量文件（位于 cwd）。
	EnvFilename = ".env"

	DefaultProxyThreshold = 35.0
	DefaultWatchInterval  = 15 * time.Second
	MinWatchInterval      = 5 * time.Second
	DefaultDataDirName    = "data"
	DefaultLogLevel       = "info"
)

// 环境变量名。
const (
	EnvDataDir        = "SC2IDX_DATA_DIR"
	EnvProxyThreshold = "SC2IDX_PROXY_THRESHOLD"
	EnvLogLevel       = "SC2IDX_LOG_LEVEL"
)

// CLIArgs 是 CLI 暴露的覆盖项，并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：例如 --cache=true 必须能覆盖 use_cache=false。
type CLIArgs struct {
	// ConfigPath 为空时使用 <cwd>/sc2idx.json（可选）；非空时文件必须存在。
	ConfigPath string

	Folders []string

	Threshold    float64
	ThresholdSet bool

	UseCache    bool
	UseCacheSet bool

	DataDir  string
	LogLevel string
}

// FileConfig 对应 sc2idx.json 的解析结构（未知字段忽略）。
type FileConfig struct {
	Folders              []string          `json:"folders,omitempty"`
	Folder               string            `json:"folder,omitempty"` // 旧版单目录字段
	FolderLabels         map[string]string `json:"folder_labels,omitempty"`
	ProxyThreshold       *float64          `json:"proxy_threshold,omitempty"`
	UseCache             *bool             `json:"use_cache,omitempty"`
	ExcludeDirs          []string          `json:"exclude_dirs,omitempty"`
	WatchIntervalSeconds int               `json:"watch_interval_seconds,omitempty"`
	DataDir              string            `json:"data_dir,omitempty"`
	LogLevel             string            `json:"log_level,omitempty"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	ConfigPath string
	DataDir    string

	Folders      []string // clean + absolute，去重，保持顺序
	FolderLabels map[string]string

	ProxyThreshold float64
	UseCache       bool
	ExcludeDirs    []string
	WatchInterval  time.Duration
	LogLevel       string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeMissingFolders:
		return fmt.Sprintf("%s：没有指定回放目录（CLI 参数或 %q 的 folders）", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 读取配置文件与环境变量，然后与 CLI 参数合并为最终配置。
//
// 覆盖优先级（固定）：CLI > 环境变量（进程环境 > <cwd>/.env）> 配置文件 > 默认值。
// - folders：CLI 给了目录就只用 CLI 的；否则 folders，再否则旧版 folder
// - proxy_threshold：必须是大于 0 的有限数
// - watch_interval_seconds：0 表示默认 15 秒；小于 5 秒截断为 5 秒
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	cfgPath := filepath.Join(cwdAbs, Filename)
	required := false
	if strings.TrimSpace(cli.ConfigPath) != "" {
		cfgPath = absCleanFrom(cwdAbs, cli.ConfigPath)
		required = true
	}

	fc, exists, err := ReadFile(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if required && !exists {
		return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
	}

	envPath := filepath.Join(cwdAbs, EnvFilename)
	env, err := readEnv(envPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: envPath, Err: err}
	}

	return merge(cwdAbs, cfgPath, cli, env, fc)
}

func merge(cwdAbs, cfgPath string, cli CLIArgs, env envLookup, fc FileConfig) (EffectiveConfig, error) {
	eff := EffectiveConfig{
		ConfigPath:     cfgPath,
		ProxyThreshold: DefaultProxyThreshold,
		UseCache:       true,
		WatchInterval:  DefaultWatchInterval,
		LogLevel:       DefaultLogLevel,
	}

	// data_dir：CLI > env > config > <cwd>/data
	dataDir := filepath.Join(cwdAbs, DefaultDataDirName)
	if v := strings.TrimSpace(fc.DataDir); v != "" {
		dataDir = absCleanFrom(cwdAbs, v)
	}
	if v, ok := env.get(EnvDataDir); ok && strings.TrimSpace(v) != "" {
		dataDir = absCleanFrom(cwdAbs, v)
	}
	if v := strings.TrimSpace(cli.DataDir); v != "" {
		dataDir = absCleanFrom(cwdAbs, v)
	}
	eff.DataDir = dataDir

	// folders：CLI > config.folders > config.folder
	folders := fc.Folders
	if len(folders) == 0 && strings.TrimSpace(fc.Folder) != "" {
		folders = []string{fc.Folder}
	}
	if len(cli.Folders) > 0 {
		folders = cli.Folders
	}
	eff.Folders = normalizeFolders(cwdAbs, folders)

	if len(fc.FolderLabels) > 0 {
		eff.FolderLabels = make(map[string]string, len(fc.FolderLabels))
		for k, v := range fc.FolderLabels {
			eff.FolderLabels[absCleanFrom(cwdAbs, k)] = v
		}
	}

	// proxy_threshold：CLI > env > config > 默认
	if fc.ProxyThreshold != nil {
		eff.ProxyThreshold = *fc.ProxyThreshold
	}
	if v, ok := env.get(EnvProxyThreshold); ok && strings.TrimSpace(v) != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: EnvProxyThreshold, Err: fmt.Errorf("proxy 阈值不是数字：%q", v)}
		}
		eff.ProxyThreshold = f
	}
	if cli.ThresholdSet {
		eff.ProxyThreshold = cli.Threshold
	}
	if err := ValidateThreshold(eff.ProxyThreshold); err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	// use_cache：CLI > config > 默认 true
	if fc.UseCache != nil {
		eff.UseCache = *fc.UseCache
	}
	if cli.UseCacheSet {
		eff.UseCache = cli.UseCache
	}

	eff.ExcludeDirs = append([]string(nil), fc.ExcludeDirs...)

	if fc.WatchIntervalSeconds < 0 {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("watch_interval_seconds 不能为负数：%d", fc.WatchIntervalSeconds)}
	}
	if fc.WatchIntervalSeconds > 0 {
		eff.WatchInterval = time.Duration(fc.WatchIntervalSeconds) * time.Second
	}
	if eff.WatchInterval < MinWatchInterval {
		eff.WatchInterval = MinWatchInterval
	}

	// log_level：CLI > env > config > 默认 info
	level := strings.TrimSpace(fc.LogLevel)
	if v, ok := env.get(EnvLogLevel); ok && strings.TrimSpace(v) != "" {
		level = strings.TrimSpace(v)
	}
	if v := strings.TrimSpace(cli.LogLevel); v != "" {
		level = v
	}
	if level != "" {
		level = strings.ToLower(level)
		if err := validateLogLevel(level); err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		eff.LogLevel = level
	}

	return eff, nil
}

// RequireFolders 在需要扫描目录的命令前检查 folders 非空。
func RequireFolders(eff EffectiveConfig) error {
	if len(eff.Folders) == 0 {
		return &Error{Code: ErrCodeMissingFolders, Path: eff.ConfigPath}
	}
	return nil
}

// ValidateThreshold 检查 proxy 阈值是否为大于 0 的有限数。
func ValidateThreshold(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("proxy_threshold 必须是有限数，实际是 %v", v)
	}
	if v <= 0 {
		return fmt.Errorf("proxy_threshold 必须大于 0，实际是 %v", v)
	}
	return nil
}

func validateLogLevel(level string) error {
	switch level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("log_level 只能是 debug/info/warn/error，实际是 %q", level)
	}
}

// Label 返回目录的显示名：folder_labels 中有则用之，否则用目录名。
func (eff EffectiveConfig) Label(folder string) string {
	if v := strings.TrimSpace(eff.FolderLabels[folder]); v != "" {
		return v
	}
	return filepath.Base(folder)
}

// ReadFile 读取并解析配置文件；返回值 exists 表示该文件是否存在（不存在不算错误）。
func ReadFile(path string) (fc FileConfig, exists bool, err error) {
	b, ok, err := fsx.ReadFileIfExists(path)
	if err != nil || !ok {
		return FileConfig{}, ok, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}

// Save 原子替换写入配置文件（两空格缩进 + 结尾换行）。
func Save(path string, fc FileConfig) error {
	b, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return fsx.WriteFileAtomicReplace(filepath.Dir(path), filepath.Base(path), b)
}

// envLookup 先查进程环境，再查 .env 文件的内容（.env 不覆盖已有环境变量）。
type envLookup map[string]string

func (m envLookup) get(key string) (string, bool) {
	if v, ok := os.LookupEnv(key); ok {
		return v, true
	}
	v, ok := m[key]
	return v, ok
}

func readEnv(path string) (envLookup, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return envLookup{}, nil
		}
		return nil, err
	}
	m, err := godotenv.Read(path)
	if err != nil {
		return nil, err
	}
	return envLookup(m), nil
}

func normalizeFolders(base string, folders []string) []string {
	out := make([]string, 0, len(folders))
	seen := make(map[string]struct{}, len(folders))
	for _, f := range folders {
		if strings.TrimSpace(f) == "" {
			continue
		}
		abs := absCleanFrom(base, f)
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
	}
	return out
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
// - p 若已是绝对路径：直接 Clean
// - p 若是相对路径：Join(base, p) 后 Clean
func absCleanFrom(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}
