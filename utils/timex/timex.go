package timex

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

func NowLocalTime() time.Time {
	return time.Now().Local()
}

func ParseTime(s string, f string) (time.Time, error) {
	t, err := time.ParseInLocation(f, s, time.Local)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// ParseClock 解析为秒级时间戳，支持秒级时间戳与按本地时区解释的 layouts。
func ParseClock(s string, layouts ...string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("时间为空")
	}
	if ts, err := cast.ToInt64E(s); err == nil && ts > 0 {
		return ts, nil
	}
	for _, layout := range layouts {
		if t, err := ParseTime(s, layout); err == nil {
			return t.Unix(), nil
		}
	}
	return 0, errors.Errorf("无法解析时间: %q", s)
}
