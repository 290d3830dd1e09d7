package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/mcheck/internal/domain"
	"github.com/John-Robertt/mcheck/internal/infra/imgx"
	"github.com/John-Robertt/mcheck/internal/logging"
	"github.com/John-Robertt/mcheck/internal/roster"
)

const (
	// ErrCodeNotFound 表示显式指定的 --config 文件不存在。
	ErrCodeNotFound = domain.ErrCodeConfigNotFound
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = domain.ErrCodeConfigInvalid
	// ErrCodeMissingInput 表示缺少权威名单或观测名单来源。
	ErrCodeMissingInput = domain.ErrCodeConfigMissingInput
	// ErrCodeConflict 表示同时指定了互斥的观测名单来源。
	ErrCodeConflict = domain.ErrCodeConfigConflict
)

const (
	// FileName 是 cwd 下自动发现的配置文件名。
	FileName = "mcheck.yaml"

	DefaultThreshold         = 75
	DefaultEvidenceDir       = "evidence"
	DefaultDuplicateDistance = 5
)

// CLIArgs 是 CLI 暴露的入口，并保留“是否显式指定”的信息，
// 以保证 --no-evidence、--threshold 0 这类值能覆盖配置文件。
type CLIArgs struct {
	ConfigPath string

	RosterPath   string
	RosterFormat string
	Column       string

	ObservedPath string
	Screenshots  string

	Threshold    int
	ThresholdSet bool

	Ignore    []string
	IgnoreSet bool

	EvidenceDir string
	NoEvidence  bool
}

// FileConfig 对应 mcheck.yaml 的解析结构。
type FileConfig struct {
	Threshold *int     `yaml:"threshold"`
	Ignore    []string `yaml:"ignore"`

	Roster struct {
		Path   string `yaml:"path"`
		Format string `yaml:"format"`
		Column string `yaml:"column"`
	} `yaml:"roster"`

	Observed struct {
		Path        string `yaml:"path"`
		Screenshots string `yaml:"screenshots"`
	} `yaml:"observed"`

	OCR OCR `yaml:"ocr"`

	Evidence struct {
		Enabled *bool  `yaml:"enabled"`
		Dir     string `yaml:"dir"`
	} `yaml:"evidence"`

	Log logging.Config `yaml:"log"`
}

// OCR 是截图识别的显式配置（不再依赖进程级全局变量）。
type OCR struct {
	Languages         string       `yaml:"languages"`
	Tessdata          string       `yaml:"tessdata"`
	DuplicateDistance *int         `yaml:"duplicate_distance"`
	Crop              imgx.Margins `yaml:"crop"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	ConfigPath string // 实际读取的配置文件（未读取则为空）

	Threshold int
	Ignore    []string

	RosterPath   string
	RosterFormat string
	Column       string

	// 二选一：ObservedPath（纯文本名单）或 Screenshots（截图目录）。
	ObservedPath string
	Screenshots  string

	OCR EffectiveOCR

	EvidenceEnabled bool
	EvidenceDir     string

	Log logging.Config
}

type EffectiveOCR struct {
	Languages         string
	Tessdata          string
	DuplicateDistance int
	Crop              imgx.Margins
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

// LoadEffective 发现并读取配置文件，然后与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 提供 --config：必须存在
// 2) 否则尝试 <cwd>/mcheck.yaml（可选）
//
// 覆盖优先级（固定）：显式 CLI 参数 > 配置文件 > 默认值；日志级别/格式另受环境变量覆盖。
// 配置文件中的相对路径相对文件所在目录；CLI 中的相对路径相对 cwd。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	var (
		cfgPath string
		fc      FileConfig
		exists  bool
	)
	if strings.TrimSpace(cli.ConfigPath) != "" {
		cfgPath = absCleanFrom(cwdAbs, cli.ConfigPath)
		fc, exists, err = readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		if !exists {
			return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
		}
	} else {
		cfgPath = filepath.Join(cwdAbs, FileName)
		fc, exists, err = readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
	}
	if !exists {
		cfgPath = ""
	}

	return merge(cwdAbs, cfgPath, cli, fc)
}

func merge(cwdAbs, cfgPath string, cli CLIArgs, fc FileConfig) (EffectiveConfig, error) {
	errPath := cfgPath
	if errPath == "" {
		errPath = "<cli>"
	}
	invalid := func(format string, a ...any) error {
		return &Error{Code: ErrCodeInvalid, Path: errPath, Err: fmt.Errorf(format, a...)}
	}

	fileBase := cwdAbs
	if cfgPath != "" {
		fileBase = filepath.Dir(cfgPath)
	}
	// pick：CLI 非空优先（相对 cwd），否则取配置文件（相对配置文件目录）。
	pick := func(cliVal, fileVal string) string {
		if strings.TrimSpace(cliVal) != "" {
			return absCleanFrom(cwdAbs, cliVal)
		}
		return absCleanFrom(fileBase, fileVal)
	}

	// threshold：CLI > config > 默认
	threshold := DefaultThreshold
	if cli.ThresholdSet {
		threshold = cli.Threshold
	} else if fc.Threshold != nil {
		threshold = *fc.Threshold
	}
	if threshold < 0 || threshold > 100 {
		return EffectiveConfig{}, invalid("threshold 必须在 [0, 100] 内，实际是 %d", threshold)
	}

	ignore := fc.Ignore
	if cli.IgnoreSet {
		ignore = cli.Ignore
	}

	rosterPath := pick(cli.RosterPath, fc.Roster.Path)
	rosterFormat := strings.ToLower(strings.TrimSpace(firstNonEmpty(cli.RosterFormat, fc.Roster.Format)))
	if rosterFormat != "" {
		if _, ok := roster.DefaultRegistry().Get(rosterFormat); !ok {
			return EffectiveConfig{}, invalid("roster.format 只能是 csv、html 或 text，实际是 %q", rosterFormat)
		}
	}
	column := strings.TrimSpace(firstNonEmpty(cli.Column, fc.Roster.Column))

	// 观测来源：CLI 任一显式指定即整体覆盖配置文件（避免 CLI 与文件各给一半造成冲突）。
	var observedPath, screenshots string
	if strings.TrimSpace(cli.ObservedPath) != "" || strings.TrimSpace(cli.Screenshots) != "" {
		observedPath = absCleanFrom(cwdAbs, cli.ObservedPath)
		screenshots = absCleanFrom(cwdAbs, cli.Screenshots)
	} else {
		observedPath = absCleanFrom(fileBase, fc.Observed.Path)
		screenshots = absCleanFrom(fileBase, fc.Observed.Screenshots)
	}
	if observedPath != "" && screenshots != "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeConflict, Path: errPath, Err: errors.New("observed.path 与 observed.screenshots 只能二选一")}
	}

	if rosterPath == "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingInput, Path: errPath, Err: errors.New("缺少权威名单：请指定 --roster 或 roster.path")}
	}
	if observedPath == "" && screenshots == "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingInput, Path: errPath, Err: errors.New("缺少观测名单：请指定 --observed 或 --screenshots（或 observed.path / observed.screenshots）")}
	}

	dupDist := DefaultDuplicateDistance
	if fc.OCR.DuplicateDistance != nil {
		dupDist = *fc.OCR.DuplicateDistance
	}
	if dupDist < 0 {
		return EffectiveConfig{}, invalid("ocr.duplicate_distance 不能为负数，实际是 %d", dupDist)
	}
	crop := fc.OCR.Crop
	if crop.Left < 0 || crop.Top < 0 || crop.Right < 0 || crop.Bottom < 0 {
		return EffectiveConfig{}, invalid("ocr.crop 不能为负数：%+v", crop)
	}

	// evidence：--no-evidence > config.enabled > 默认 true
	evEnabled := true
	if fc.Evidence.Enabled != nil {
		evEnabled = *fc.Evidence.Enabled
	}
	if cli.NoEvidence {
		evEnabled = false
	}
	evDir := pick(cli.EvidenceDir, fc.Evidence.Dir)
	if evDir == "" {
		evDir = filepath.Join(cwdAbs, DefaultEvidenceDir)
	}

	logCfg := fc.Log.FromEnv()
	if err := logCfg.Validate(); err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: errPath, Err: err}
	}

	return EffectiveConfig{
		ConfigPath:   cfgPath,
		Threshold:    threshold,
		Ignore:       append([]string(nil), ignore...),
		RosterPath:   rosterPath,
		RosterFormat: rosterFormat,
		Column:       column,
		ObservedPath: observedPath,
		Screenshots:  screenshots,
		OCR: EffectiveOCR{
			Languages:         strings.TrimSpace(fc.OCR.Languages),
			Tessdata:          absCleanFrom(fileBase, fc.OCR.Tessdata),
			DuplicateDistance: dupDist,
			Crop:              crop,
		},
		EvidenceEnabled: evEnabled,
		EvidenceDir:     evDir,
		Log:             logCfg,
	}, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute；p 为空时返回空串。
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

// readFileConfig 读取并解析 YAML 配置文件；未知字段视为错误（拼写错误应尽早暴露）。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil {
		// 空文件：视为存在但无任何配置。
		if errors.Is(err, io.EOF) {
			return FileConfig{}, true, nil
		}
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
