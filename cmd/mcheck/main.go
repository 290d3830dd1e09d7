// Command mcheck 核对群成员名单：把截图识别（或文本）得到的观测名单与权威名单逐一比对，
// 输出精确匹配、模糊匹配与两侧剩余，并导出供人工复核的证据截图。
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/mcheck/internal/app/run"
)

// version 在构建时通过 -ldflags "-X main.version=..." 注入。
var version = "dev"

// 退出码：0 两侧都没有剩余；1 有剩余或运行失败；2 用法错误。
const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

// exitError 让子命令在已经输出结果之后，只把退出码交还给 main。
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// cli 聚合命令依赖的外部环境，测试时替换。
type cli struct {
	stdout io.Writer
	stderr io.Writer

	getwd func() (string, error)
	isTTY func(w io.Writer) bool
	deps  func(log zerolog.Logger) run.Deps
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	c := &cli{
		stdout: os.Stdout,
		stderr: os.Stderr,
		getwd:  os.Getwd,
		isTTY:  isTTY,
		deps:   defaultDeps,
	}
	code := c.execute(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func defaultDeps(log zerolog.Logger) run.Deps {
	d := run.DefaultDeps(log)
	d.NewRecognizer = newRecognizer
	return d
}

func (c *cli) execute(ctx context.Context, args []string) int {
	root := c.newRootCmd()
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	// 走到这里的只有 cobra 的参数/flag 解析错误。
	fmt.Fprintf(c.stderr, "参数错误：%v\n", err)
	fmt.Fprintln(c.stderr, `使用 "mcheck --help" 查看用法。`)
	return exitUsage
}

func (c *cli) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mcheck",
		Short: "核对群成员名单与权威名单",
		Long: `mcheck 把观测名单（成员列表截图的 OCR 结果，或一行一个名字的文本）
与权威名单（CSV / 发布为网页的表格 / 文本）逐一比对：
先精确匹配，再按相似度阈值做贪心模糊匹配，最后列出两侧剩余。`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(c.newRunCmd())
	root.AddCommand(c.newScoreCmd())
	root.AddCommand(c.newVersionCmd())
	return root
}
