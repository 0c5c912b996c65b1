package recurrence

import (
	"testing"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/domain"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFormatTags(t *testing.T) {
	Convey("TestFormatTags", t, func() {
		tags := []domain.Tag{
			{Tag: "component", Value: "cpu"},
			{Tag: "service", Value: "db"},
			{Tag: "env", Value: ""},
			{Tag: "service", Value: "web"},
		}

		Convey("show_tags 为 0", func() {
			So(FormatTags(tags, 0, domain.TagNameFull, ""), ShouldBeNil)
		})

		Convey("完整名称，最多 show_tags 个", func() {
			So(FormatTags(tags, 3, domain.TagNameFull, ""), ShouldResemble, []string{"component: cpu", "service: db", "env"})
		})

		Convey("优先标签排在前面", func() {
			So(FormatTags(tags, 3, domain.TagNameFull, "env, service"), ShouldResemble, []string{"env", "service: db", "service: web"})
		})

		Convey("缩短名称", func() {
			So(FormatTags(tags, 2, domain.TagNameShortened, ""), ShouldResemble, []string{"com: cpu", "ser: db"})
		})

		Convey("不显示名称", func() {
			So(FormatTags(tags, 2, domain.TagNameNone, ""), ShouldResemble, []string{"cpu", "db"})
		})
	})
}
