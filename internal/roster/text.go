package roster

import (
	"bufio"
	"bytes"
	"strings"
)

// Text 读取“一行一个名字”的纯文本；空行与注释行（单独的 "#"，或 "#" 后接空白）跳过，column 被忽略。
// "#1Fan" 这类以 # 开头的名字照常保留。
type Text struct{}

func (Text) Name() string { return "text" }

func (Text) Parse(data []byte, _ string) ([]string, error) {
	return readLines(data)
}

func readLines(data []byte) ([]string, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	out := make([]string, 0, 64)
	first := true
	for sc.Scan() {
		line := sc.Text()
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isComment(trimmed) {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}

func isComment(line string) bool {
	rest, ok := strings.CutPrefix(line, "#")
	if !ok {
		return false
	}
	return rest == "" || rest[0] == ' ' || rest[0] == '\t'
}

// ReadLines 是 Text 格式的导出入口，供 capture 读取观测名单复用。
func ReadLines(data []byte) ([]string, error) { return readLines(data) }
