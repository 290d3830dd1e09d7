package main

import (
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/mcheck/internal/app/run"
	"github.com/John-Robertt/mcheck/internal/config"
	"github.com/John-Robertt/mcheck/internal/domain"
	"github.com/John-Robertt/mcheck/internal/logging"
)

func (c *cli) newRunCmd() *cobra.Command {
	var args config.CLIArgs

	cmd := &cobra.Command{
		Use:   "run",
		Short: "执行一次名单核对",
		Long: `执行一次名单核对。

配置按 “显式 CLI 参数 > 配置文件 > 默认值” 合并；
未指定 --config 时读取当前目录下的 mcheck.yaml（可选）。

stdout 是终端时输出表格；否则 stdout 只输出一个 RunReport JSON，摘要写到 stderr。
退出码：0 两侧都没有剩余；1 有剩余或运行失败；2 用法错误。`,
		Example: `  mcheck run --roster members.csv --column 名稱 --screenshots shots/
  mcheck run --roster members.html --observed seen.txt --threshold 80 --ignore 管理員
  mcheck run --config mcheck.yaml --no-evidence`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			args.ThresholdSet = flags.Changed("threshold")
			args.IgnoreSet = flags.Changed("ignore")
			return c.runReconcile(cmd, args)
		},
	}

	f := cmd.Flags()
	f.StringVar(&args.ConfigPath, "config", "", "配置文件路径（默认 ./mcheck.yaml，可不存在）")
	f.StringVar(&args.RosterPath, "roster", "", "权威名单文件")
	f.StringVar(&args.RosterFormat, "roster-format", "", "权威名单格式：csv|html|text（默认按扩展名推断）")
	f.StringVar(&args.Column, "column", "", "权威名单中名字所在列的表头（默认第一列）")
	f.StringVar(&args.ObservedPath, "observed", "", "观测名单文本（一行一个名字；\"# \" 开头的行为注释）")
	f.StringVar(&args.Screenshots, "screenshots", "", "成员列表截图目录（OCR 识别）")
	f.IntVar(&args.Threshold, "threshold", config.DefaultThreshold, "模糊匹配阈值（0-100）")
	f.StringArrayVar(&args.Ignore, "ignore", nil, "忽略的观测名（可重复）")
	f.StringVar(&args.EvidenceDir, "evidence-dir", "", "证据导出根目录（默认 ./evidence）")
	f.BoolVar(&args.NoEvidence, "no-evidence", false, "不导出证据")
	cmd.MarkFlagsMutuallyExclusive("observed", "screenshots")

	return cmd
}

func (c *cli) runReconcile(cmd *cobra.Command, args config.CLIArgs) error {
	cwd, err := c.getwd()
	if err != nil {
		rr := failedReport(domain.ErrCodeConfigInvalid, err)
		c.emitReport(rr)
		return &exitError{code: exitFail}
	}

	eff, err := config.LoadEffective(cwd, args)
	if err != nil {
		c.emitReport(failedReport(config.Code(err), err))
		return &exitError{code: exitFail}
	}

	log := logging.New(c.stderr, eff.Log)
	if eff.ConfigPath != "" {
		log.Debug().Str("config", eff.ConfigPath).Msg("已读取配置文件")
	}

	var obs run.Observer
	if c.isTTY(c.stderr) {
		obs = newProgressUI(c.stderr)
	}

	rr, err := run.Execute(cmd.Context(), eff, c.deps(log), obs)
	c.emitReport(rr)
	if err != nil || !rr.Reconciliation.Clean() {
		return &exitError{code: exitFail}
	}
	return nil
}

// failedReport 为“还没进入 run 就失败”（配置阶段）的情况构造一个结构稳定的 report。
func failedReport(code string, err error) domain.RunReport {
	now := time.Now().UTC()
	rr := domain.RunReport{
		RunID:      uuid.NewString(),
		StartedAt:  now,
		FinishedAt: now,
		Error:      &domain.RunError{Code: code, Message: err.Error()},
	}
	rr.Finalize()
	return rr
}
