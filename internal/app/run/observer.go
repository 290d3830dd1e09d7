package run

import (
	"time"

	"github.com/John-Robertt/mcheck/internal/config"
	"github.com/John-Robertt/mcheck/internal/domain"
)

// Observer 用于把“运行进度/阶段结果”从核心执行流程中解耦出来。
//
// 约束：
// - run 包只负责发事件，不做任何输出（避免污染 stdout 的 JSON 契约）。
// - 事件按阶段顺序在调用 Execute 的 goroutine 上同步发出。
type Observer interface {
	// OnStart 在 Execute 开始时调用（应尽量早，保证用户 1 秒内看到输出）。
	OnStart(eff config.EffectiveConfig)
	// OnPhaseDone 在阶段结束时调用（用于打印阶段统计与耗时）。
	OnPhaseDone(name string, fields map[string]any, dur time.Duration)
	// OnFinish 在 report 定稿后调用（成功或失败都会调用）。
	OnFinish(rr domain.RunReport)
}

const (
	PhaseRoster    = "roster"
	PhaseCapture   = "capture"
	PhaseReconcile = "reconcile"
	PhaseExport    = "export"
)
