package capture

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/John-Robertt/mcheck/internal/domain"
	"github.com/John-Robertt/mcheck/internal/infra/imgx"
	"github.com/John-Robertt/mcheck/internal/names"
)

const (
	DefaultDuplicateDistance = 5
	DefaultHashSize          = 16
	DefaultEvidencePad       = 2
)

type Options struct {
	// Crop 从每帧四边裁掉的像素（窗口标题栏/边框）。
	Crop imgx.Margins
	// DuplicateDistance：与上一保留帧的哈希距离小于该值即视为重复帧。<=0 时关闭去重。
	DuplicateDistance int
	HashSize          int
	// EvidencePad 证据裁切时行框四周外扩的像素。0 取 DefaultEvidencePad；负数表示不外扩。
	EvidencePad int

	Logger zerolog.Logger
}

func (o Options) withDefaults() Options {
	if o.HashSize <= 0 {
		o.HashSize = DefaultHashSize
	}
	switch {
	case o.EvidencePad == 0:
		o.EvidencePad = DefaultEvidencePad
	case o.EvidencePad < 0:
		o.EvidencePad = 0
	}
	return o
}

// FromScreenshots 识别 dir 下的全部截图（按文件名顺序），产出观测名单与证据。
//
// 规则：
// - 只扫描 dir 本层，按文件名排序（与截图时的序号一致）
// - 与上一保留帧几乎相同的帧跳过（滚到底之后的重复截图）
// - 每行文本经 names.Normalize 规整；空行丢弃
// - 同一名字多次出现时，只保留第一次出现的行裁切作为证据
func FromScreenshots(ctx context.Context, dir string, rec Recognizer, opts Options) (Result, error) {
	opts = opts.withDefaults()
	log := opts.Logger

	frames, err := scanFrames(dir)
	if err != nil {
		return Result{}, &Error{Stage: "scan", Path: dir, Err: err}
	}
	if len(frames) == 0 {
		return Result{}, &Error{Stage: "scan", Path: dir, Err: ErrNoFrames}
	}

	res := Result{Names: names.New(), Evidence: domain.Evidence{}}
	var prev imgx.Hash
	for _, path := range frames {
		if err := ctx.Err(); err != nil {
			return Result{}, &Error{Stage: "ocr", Path: path, Err: err}
		}

		b, err := os.ReadFile(path)
		if err != nil {
			return Result{}, &Error{Stage: "decode", Path: path, Err: err}
		}
		img, err := imgx.Decode(b)
		if err != nil {
			return Result{}, &Error{Stage: "decode", Path: path, Err: err}
		}
		img, err = imgx.Trim(img, opts.Crop)
		if err != nil {
			return Result{}, &Error{Stage: "decode", Path: path, Err: err}
		}

		if opts.DuplicateDistance > 0 {
			h := imgx.AverageHash(img, opts.HashSize)
			if prev != nil && h.Distance(prev) < opts.DuplicateDistance {
				res.Skipped++
				log.Debug().Str("frame", filepath.Base(path)).Msg("重复帧，跳过")
				continue
			}
			prev = h
		}

		lines, err := rec.Lines(img)
		if err != nil {
			return Result{}, &Error{Stage: "ocr", Path: path, Err: err}
		}
		res.Frames++

		added := 0
		for _, ln := range lines {
			name := names.Normalize(ln.Text)
			if name == "" {
				continue
			}
			if !res.Names.Has(name) {
				added++
			}
			res.Names.Add(name)
			if _, ok := res.Evidence[name]; ok {
				continue
			}
			crop, err := imgx.CropPNG(img, ln.Box, opts.EvidencePad)
			if err != nil {
				// 证据只用于人工复核：行框异常时不影响名单本身。
				log.Warn().Err(err).Str("frame", filepath.Base(path)).Str("name", name).Msg("行裁切失败，跳过证据")
				continue
			}
			res.Evidence[name] = crop
		}
		log.Debug().Str("frame", filepath.Base(path)).Int("lines", len(lines)).Int("new_names", added).Msg("帧识别完成")
	}
	return res, nil
}

func scanFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	// os.ReadDir 已按文件名排序。
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if isFrameExt(strings.ToLower(filepath.Ext(e.Name()))) {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out, nil
}

func isFrameExt(ext string) bool {
	switch ext {
	case ".png", ".jpg", ".jpeg":
		return true
	default:
		return false
	}
}
