// Package logging 基于 zerolog 构造进程日志器。日志一律写 stderr，不污染 stdout 上的报告 JSON。
//
//	log := logging.New(os.Stderr, logging.Config{Level: "debug"})
//	log.Info().Str("roster", path).Int("names", n).Msg("权威名单已读取")
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config 对应配置文件中的 log 段。
type Config struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// FromEnv 用 MCHECK_LOG_LEVEL / MCHECK_LOG_FORMAT 覆盖 c 中的字段（环境变量优先）。
func (c Config) FromEnv() Config {
	if v := strings.TrimSpace(os.Getenv("MCHECK_LOG_LEVEL")); v != "" {
		c.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("MCHECK_LOG_FORMAT")); v != "" {
		c.Format = v
	}
	return c
}

// ParseLevel 把配置中的级别字符串解析为 zerolog.Level；空串为 info。
func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return zerolog.InfoLevel, nil
	case "warning":
		return zerolog.WarnLevel, nil
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("未知日志级别：%q", s)
	}
	return lvl, nil
}

// Validate 只检查取值是否合法（供配置层给出 config_invalid）。
func (c Config) Validate() error {
	if _, err := ParseLevel(c.Level); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(c.Format)) {
	case "", FormatConsole, FormatJSON:
		return nil
	default:
		return fmt.Errorf("log.format 只能是 console 或 json，实际是 %q", c.Format)
	}
}

// New 构造日志器。format 为空时：w 是终端则 console，否则 json。非法级别回退为 info。
func New(w io.Writer, c Config) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	lvl, _ := ParseLevel(c.Level)

	format := strings.ToLower(strings.TrimSpace(c.Format))
	if format == "" {
		format = FormatJSON
		if isTerminal(w) {
			format = FormatConsole
		}
	}
	if format == FormatConsole {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.Kitchen,
			NoColor:    os.Getenv("NO_COLOR") != "" || !isTerminal(w),
		}
	}

	logger := zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	if lvl <= zerolog.DebugLevel {
		logger = logger.With().Caller().Logger()
	}
	return logger
}

// Nop 返回丢弃一切输出的日志器（测试与库内默认值）。
func Nop() zerolog.Logger { return zerolog.Nop() }

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
