package idgen

import (
	"sync"
	"time"
)

const (
	// 2025-01-01 00:00:00 UTC
	customEpoch = 1735689600

	// 每秒最多 64 个
	seqBits = 6
	seqMask = (1 << seqBits) - 1

	// 生成的 ID 置第 62 位，与上游事件 ID 区分，同时不超出 OpenSearch long 的范围
	generatedFlag = uint64(1) << 62
)

// Generator 为缺少 recovery_id 的恢复事件生成本地 ID。
type Generator struct {
	mu     sync.Mutex
	lastTs int64
	seq    int64
	now    func() time.Time
}

func New() *Generator {
	return &Generator{now: time.Now}
}

func (g *Generator) NextID() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	ts := g.now().Unix() - customEpoch
	if ts < g.lastTs {
		// 时钟回拨时沿用上一秒
		ts = g.lastTs
	}

	if ts == g.lastTs {
		g.seq = (g.seq + 1) & seqMask
		if g.seq == 0 {
			// 当前秒序列号用尽，借用下一秒
			ts++
		}
	} else {
		g.seq = 0
	}
	g.lastTs = ts

	return generatedFlag | uint64(ts)<<seqBits | uint64(g.seq)
}

// IsGenerated 判断 ID 是否由 Generator 生成。
func IsGenerated(id uint64) bool {
	return id&generatedFlag != 0
}
