package run

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/John-Robertt/mcheck/internal/capture"
	"github.com/John-Robertt/mcheck/internal/config"
	"github.com/John-Robertt/mcheck/internal/domain"
	"github.com/John-Robertt/mcheck/internal/evidence"
	"github.com/John-Robertt/mcheck/internal/infra/fsx"
	"github.com/John-Robertt/mcheck/internal/names"
	"github.com/John-Robertt/mcheck/internal/reconcile"
	"github.com/John-Robertt/mcheck/internal/roster"
)

// ReportFile 是写入证据运行目录的报告文件名。
const ReportFile = "report.json"

// Deps 是 Execute 的外部协作者。零值字段由 withDefaults 补齐（NewRecognizer 除外：截图模式必须提供）。
type Deps struct {
	Sources       roster.Registry
	NewRecognizer func(config.EffectiveOCR) (capture.Recognizer, error)
	Now           func() time.Time
	Logger        zerolog.Logger
}

// DefaultDeps 返回内置名单格式与系统时钟。NewRecognizer 由调用方注入（见 cmd/mcheck），
// 使本包不依赖 cgo 的识别实现；未注入时截图模式报 capture_failed。
func DefaultDeps(log zerolog.Logger) Deps {
	return Deps{
		Sources: roster.DefaultRegistry(),
		Now:     time.Now,
		Logger:  log,
	}
}

func (d Deps) withDefaults() Deps {
	if d.Sources.Len() == 0 {
		d.Sources = roster.DefaultRegistry()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// Execute 执行一次核对：roster → capture → reconcile → export，并返回对外稳定的 RunReport。
//
// 名单读取/截图识别/证据目录创建的失败会立即中止本次运行：
// 返回的 report 带 Error{code,message}，同时返回原始 error。
// 证据中单个文件写入失败只记录在 report.Export.Failures 中，不算运行失败。
func Execute(ctx context.Context, eff config.EffectiveConfig, deps Deps, obs Observer) (domain.RunReport, error) {
	deps = deps.withDefaults()
	log := deps.Logger
	now := deps.Now()

	if obs != nil {
		obs.OnStart(eff)
	}

	rr := domain.RunReport{
		RunID:     uuid.NewString(),
		StartedAt: now,
		Inputs: domain.RunInputs{
			Roster:       eff.RosterPath,
			RosterFormat: eff.RosterFormat,
			Column:       eff.Column,
			Ignore:       append([]string(nil), eff.Ignore...),
		},
		Reconciliation: domain.Reconciliation{Threshold: eff.Threshold},
	}
	if rr.Inputs.RosterFormat == "" {
		rr.Inputs.RosterFormat = roster.DetectFormat(eff.RosterPath)
	}
	if eff.Screenshots != "" {
		rr.Inputs.Observed, rr.Inputs.ObservedKind = eff.Screenshots, "screenshots"
	} else {
		rr.Inputs.Observed, rr.Inputs.ObservedKind = eff.ObservedPath, "list"
	}
	log = log.With().Str("run_id", rr.RunID).Logger()

	fail := func(code string, err error) (domain.RunReport, error) {
		rr.Error = &domain.RunError{Code: code, Message: err.Error()}
		rr.FinishedAt = deps.Now()
		rr.Finalize()
		log.Error().Str("code", code).Err(err).Msg("运行中止")
		if obs != nil {
			obs.OnFinish(rr)
		}
		return rr, err
	}

	// roster
	phaseStarted := time.Now()
	authoritative, err := roster.Load(deps.Sources, eff.RosterPath, eff.RosterFormat, eff.Column)
	if err != nil {
		return fail(rosterCode(err), err)
	}
	rr.Summary.Authoritative = authoritative.Len()
	log.Debug().Str("path", eff.RosterPath).Int("names", authoritative.Len()).Msg("权威名单已读取")
	if obs != nil {
		obs.OnPhaseDone(PhaseRoster, map[string]any{"names": authoritative.Len()}, time.Since(phaseStarted))
	}

	// capture
	phaseStarted = time.Now()
	got, err := observe(ctx, eff, deps, log)
	if err != nil {
		return fail(capture.Code(err), err)
	}
	ignore := names.FromLines(eff.Ignore)
	observed := got.Names.Without(ignore)
	rr.Summary.Observed = observed.Len()
	rr.Inputs.Frames, rr.Inputs.SkippedFrames = got.Frames, got.Skipped
	if obs != nil {
		fields := map[string]any{"names": observed.Len()}
		if rr.Inputs.ObservedKind == "screenshots" {
			fields["frames"] = got.Frames
			fields["skipped"] = got.Skipped
		}
		obs.OnPhaseDone(PhaseCapture, fields, time.Since(phaseStarted))
	}

	// reconcile
	phaseStarted = time.Now()
	rr.Reconciliation = reconcile.Reconcile(observed, authoritative, reconcile.Options{
		Threshold: eff.Threshold,
		Ignore:    ignore,
	})
	if obs != nil {
		rec := rr.Reconciliation
		obs.OnPhaseDone(PhaseReconcile, map[string]any{
			"exact":                   len(rec.Exact),
			"fuzzy":                   len(rec.Fuzzy),
			"unmatched_authoritative": len(rec.UnmatchedAuthoritative),
			"unmatched_observed":      len(rec.UnmatchedObserved),
		}, time.Since(phaseStarted))
	}

	// export：只有开启且确有证据（截图模式）时才落盘。
	if eff.EvidenceEnabled && len(got.Evidence) > 0 {
		phaseStarted = time.Now()
		res, err := evidence.Export(eff.EvidenceDir, now, rr.Reconciliation, got.Evidence)
		if err != nil {
			return fail(domain.ErrCodeExportFailed, err)
		}
		rr.Export = &res
		rr.FinishedAt = deps.Now()
		rr.Finalize()
		if err := writeReport(res.Dir, rr); err != nil {
			log.Warn().Err(err).Str("dir", res.Dir).Msg("写入 report.json 失败")
			rr.Export.Failures = append(rr.Export.Failures, domain.ExportFailed{
				Category: "report",
				Name:     ReportFile,
				Error:    err.Error(),
			})
		}
		for _, f := range res.Failures {
			log.Warn().Str("category", f.Category).Str("name", f.Name).Str("error", f.Error).Msg("证据写入失败")
		}
		if obs != nil {
			obs.OnPhaseDone(PhaseExport, map[string]any{
				"files":    len(rr.Export.Files),
				"failures": len(rr.Export.Failures),
			}, time.Since(phaseStarted))
		}
	}

	rr.FinishedAt = deps.Now()
	rr.Finalize()
	log.Info().
		Int("exact", rr.Summary.Exact).
		Int("fuzzy", rr.Summary.Fuzzy).
		Int("unmatched_authoritative", rr.Summary.UnmatchedAuthoritative).
		Int("unmatched_observed", rr.Summary.UnmatchedObserved).
		Msg("核对完成")
	if obs != nil {
		obs.OnFinish(rr)
	}
	return rr, nil
}

// observe 按配置选择观测名单来源：纯文本名单或截图目录。
func observe(ctx context.Context, eff config.EffectiveConfig, deps Deps, log zerolog.Logger) (capture.Result, error) {
	if eff.Screenshots == "" {
		return capture.LoadList(eff.ObservedPath)
	}
	if deps.NewRecognizer == nil {
		return capture.Result{}, &capture.Error{Stage: "ocr", Path: eff.Screenshots, Err: errors.New("未配置文字识别器")}
	}
	rec, err := deps.NewRecognizer(eff.OCR)
	if err != nil {
		return capture.Result{}, &capture.Error{Stage: "ocr", Path: eff.Screenshots, Err: err}
	}
	defer func() {
		if err := rec.Close(); err != nil {
			log.Warn().Err(err).Msg("关闭文字识别器失败")
		}
	}()
	return capture.FromScreenshots(ctx, eff.Screenshots, rec, capture.Options{
		Crop:              eff.OCR.Crop,
		DuplicateDistance: eff.OCR.DuplicateDistance,
		Logger:            log,
	})
}

func rosterCode(err error) string {
	var re *roster.Error
	if errors.As(err, &re) && re.Stage == "parse" {
		return domain.ErrCodeRosterParseFailed
	}
	return domain.ErrCodeRosterReadFailed
}

func writeReport(dir string, rr domain.RunReport) error {
	b, err := json.MarshalIndent(rr, "", "  ")
	if err != nil {
		return fmt.Errorf("编码 report 失败：%w", err)
	}
	return fsx.WriteFileAtomicReplace(dir, ReportFile, append(b, '\n'))
}
