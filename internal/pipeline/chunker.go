package pipeline

import (
	"fmt"
	"strings"
)

// 默认切块参数
const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 100
)

// Chunker 将长文本按字符数切分为带重叠的片段，并尽量在句号处断开。
type Chunker struct {
	size    int
	overlap int
}

// NewChunker 创建一个 Chunker。overlap 大于等于 size 时依然能终止，但会退化为不重叠的切分。
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("chunk overlap must not be negative, got %d", overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// span 是一个切块在原文中的 rune 区间 [start, end)。
type span struct {
	start, end int
}

// Chunk 返回按顺序排列、去除首尾空白后的非空片段。
func (c *Chunker) Chunk(text string) []string {
	runes := []rune(text)
	var chunks []string
	for _, s := range c.spans(runes) {
		if piece := strings.TrimSpace(string(runes[s.start:s.end])); piece != "" {
			chunks = append(chunks, piece)
		}
	}
	return chunks
}

// spans 计算每个窗口的区间。相邻区间最多重叠 overlap 个字符，且整体覆盖全文。
func (c *Chunker) spans(runes []rune) []span {
	n := len(runes)
	var out []span
	start := 0
	for start < n {
		end := start + c.size
		if end >= n {
			// 窗口已到达文本末尾，这是最后一块
			out = append(out, span{start, n})
			break
		}
		// 句号位于窗口 70% 之后时在句号处断开
		if p := lastPeriod(runes[start:end]); p >= 0 && p*10 > c.size*7 {
			end = start + p + 1
		}
		out = append(out, span{start, end})

		if next := end - c.overlap; next > start {
			start = next
		} else {
			start = end
		}
	}
	return out
}

func lastPeriod(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == '.' {
			return i
		}
	}
	return -1
}
