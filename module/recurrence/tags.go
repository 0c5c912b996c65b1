package recurrence

import (
	"strings"
	"unicode/utf8"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/domain"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/utils/slice"
)

const shortTagNameLen = 3

// FormatTags 生成展示标签：优先标签按优先级顺序排在前面，其余保持原顺序，最多 showTags 个。
func FormatTags(tags []domain.Tag, showTags int, format domain.TagNameFormat, priority string) []string {
	if showTags <= 0 || len(tags) == 0 {
		return nil
	}

	ordered := make([]domain.Tag, 0, len(tags))
	used := make([]bool, len(tags))
	for _, name := range slice.SplitToStrings(priority) {
		for i, t := range tags {
			if !used[i] && t.Tag == name {
				used[i] = true
				ordered = append(ordered, t)
			}
		}
	}
	for i, t := range tags {
		if !used[i] {
			ordered = append(ordered, t)
		}
	}

	if len(ordered) > showTags {
		ordered = ordered[:showTags]
	}
	out := make([]string, 0, len(ordered))
	for _, t := range ordered {
		out = append(out, formatTag(t, format))
	}
	return out
}

func formatTag(t domain.Tag, format domain.TagNameFormat) string {
	name := t.Tag
	switch format {
	case domain.TagNameNone:
		return t.Value
	case domain.TagNameShortened:
		if utf8.RuneCountInString(name) > shortTagNameLen {
			name = string([]rune(name)[:shortTagNameLen])
		}
	}
	if t.Value == "" {
		return name
	}
	return strings.Join([]string{name, t.Value}, ": ")
}
