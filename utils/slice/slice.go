package slice

import (
	"strings"

	"github.com/spf13/cast"
)

// SplitToStrings 解析逗号分隔的列表，去掉空白项与重复项，保持首次出现的顺序。
func SplitToStrings(value string) []string {
	var result []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, ok := seen[part]; ok {
			continue
		}
		seen[part] = struct{}{}
		result = append(result, part)
	}
	return result
}

// SplitToUint64s 解析逗号分隔的 ID 列表，非法值与 0 被忽略。
func SplitToUint64s(value string) []uint64 {
	var result []uint64
	seen := make(map[uint64]struct{})
	for _, part := range SplitToStrings(value) {
		id, err := cast.ToUint64E(part)
		if err != nil || id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
