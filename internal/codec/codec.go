// Package codec 实现最小化的 X12 线格式编解码。
// 仅覆盖本项目生成与回读所需的段（ISA/GS/ST/…/SE/GE/IEA），不追求标准合规。
package codec

import "strings"

// X12 默认分隔符
const (
	DefaultSegmentTerminator = "~"
	DefaultElementSeparator  = "*"
	CompositeSeparator       = ":"
)

// Segment 一条已拆元素的段
type Segment struct {
	Tag      string
	Elements []string
}

// DetectFormat 探测段终止符与元素分隔符。
// 约定 ISA 段第 4 个字符即元素分隔符；终止符在 "~" 与换行之间按
// GS/ST 标记出现情况与段数打分取高者，默认 "~" / "*"。
func DetectFormat(content string) (segTerm, elemSep string) {
	content = strings.TrimSpace(content)

	elemSep = DefaultElementSeparator
	if strings.HasPrefix(content, "ISA") && len(content) >= 4 {
		elemSep = string(content[3])
	}

	candidates := []string{"~", "\n"}
	best := DefaultSegmentTerminator
	bestScore := -1
	for _, cand := range candidates {
		segs := strings.Split(content, cand)
		n := len(segs)
		if n > 50 {
			n = 50
		}
		joined := strings.Join(segs[:n], " ")
		score := 0
		if strings.Contains(joined, "GS") {
			score += 2
		}
		if strings.Contains(joined, "ST") {
			score += 2
		}
		if len(segs) > 10 {
			score++
		}
		if score > bestScore {
			bestScore = score
			best = cand
		}
	}
	return best, elemSep
}

// SplitSegments 按探测到的终止符拆段并丢弃空白段
func SplitSegments(content string) []string {
	content = strings.TrimSpace(content)
	segTerm, _ := DetectFormat(content)

	raw := strings.Split(content, segTerm)
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Parse 将原始文本解析为段序列；无 tag 的段被丢弃
func Parse(content string) []Segment {
	_, elemSep := DetectFormat(content)

	out := make([]Segment, 0, 32)
	for _, raw := range SplitSegments(content) {
		els := strings.Split(raw, elemSep)
		tag := strings.TrimSpace(els[0])
		if tag == "" {
			continue
		}
		out = append(out, Segment{Tag: tag, Elements: els})
	}
	return out
}

// TransactionType 返回 ST 段第二个元素上的单据类型码（850/856/810）
func TransactionType(segs []Segment) (string, bool) {
	for _, s := range segs {
		if s.Tag == "ST" && len(s.Elements) > 1 {
			return strings.TrimSpace(s.Elements[1]), true
		}
	}
	return "", false
}

// element 带边界检查取第 i 个元素（去空白），越界返回空串
func element(s Segment, i int) string {
	if i < 0 || i >= len(s.Elements) {
		return ""
	}
	return strings.TrimSpace(s.Elements[i])
}
