// Package evidence 把模糊匹配与观测剩余对应的图像证据导出到一个全新的运行目录，供人工复核。
//
// 目录结构：
//
//	<root>/<YYYYMMDD-HHMMSS>/
//	  fuzzy/<score:03d>_<权威名>_<观测名>.<ext>
//	  remain/<观测名>.<ext>
package evidence

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/John-Robertt/mcheck/internal/domain"
	"github.com/John-Robertt/mcheck/internal/infra/fsx"
)

const (
	CategoryFuzzy  = "fuzzy"
	CategoryRemain = "remain"

	// DirLayout 是运行目录名的时间格式（本地时间）。
	DirLayout = "20060102-150405"
)

// Export 导出证据。只为“有证据”的名字写文件；单个文件失败记录在 Failures 中，不影响其它文件。
//
// 返回 error 仅表示运行目录本身无法创建（此时什么都没写）。
func Export(root string, now time.Time, rec domain.Reconciliation, ev domain.Evidence) (domain.ExportResult, error) {
	dir, err := fsx.MkdirFresh(root, now.Format(DirLayout))
	if err != nil {
		return domain.ExportResult{}, fmt.Errorf("创建证据目录失败：%w", err)
	}

	res := domain.ExportResult{
		Dir:      dir,
		Files:    []domain.ExportFile{},
		Failures: []domain.ExportFailed{},
	}
	for _, c := range []string{CategoryFuzzy, CategoryRemain} {
		if err := fsx.EnsureDir(filepath.Join(dir, c)); err != nil {
			return res, fmt.Errorf("创建证据目录失败：%w", err)
		}
	}

	for _, p := range rec.Fuzzy {
		blob, ok := ev[p.Observed]
		if !ok {
			continue
		}
		base := fmt.Sprintf("%03d_%s_%s", p.Score, fsx.SanitizeName(p.Authoritative), fsx.SanitizeName(p.Observed))
		write(&res, CategoryFuzzy, p.Observed, base, blob)
	}
	for _, name := range rec.UnmatchedObserved {
		blob, ok := ev[name]
		if !ok {
			continue
		}
		write(&res, CategoryRemain, name, fsx.SanitizeName(name), blob)
	}
	return res, nil
}

func write(res *domain.ExportResult, category, name, base string, blob []byte) {
	file := base + Extension(blob)
	rel := filepath.Join(category, file)

	err := fsx.WriteFileAtomicNoOverwrite(filepath.Join(res.Dir, category), file, blob)
	if errors.Is(err, os.ErrExist) {
		// 不同名字经过 SanitizeName 后可能撞名：只记失败，不覆盖已写出的证据。
		err = fmt.Errorf("文件已存在：%s", rel)
	}
	if err != nil {
		res.Failures = append(res.Failures, domain.ExportFailed{Category: category, Name: name, Error: err.Error()})
		return
	}
	res.Files = append(res.Files, domain.ExportFile{Category: category, Name: name, Path: rel})
}

// Extension 按内容识别证据扩展名：png/jpg 直接沿用，其它一律 .bin。
func Extension(blob []byte) string {
	switch ext := mimetype.Detect(blob).Extension(); ext {
	case ".png", ".jpg":
		return ext
	default:
		return ".bin"
	}
}
