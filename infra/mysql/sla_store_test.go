package mysql

import (
	"context"
	"errors"
	"testing"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/domain"
	"github.com/DATA-DOG/go-sqlmock"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSLAStore_FindEnabled(t *testing.T) {
	Convey("TestSLAStore_FindEnabled", t, func() {
		db, mock, err := sqlmock.New()
		So(err, ShouldBeNil)
		defer db.Close()
		store := NewSLAStore(db)
		ctx := context.Background()

		Convey("返回已启用的 SLA", func() {
			mock.ExpectQuery(`FROM t_sla sla JOIN t_sla_service ss ON ss\.f_sla_id = sla\.f_sla_id WHERE .* ORDER BY sla\.f_sla_id`).
				WithArgs(int64(slaStatusEnabled), int64(10)).
				WillReturnRows(sqlmock.NewRows([]string{"f_sla_id", "f_name", "f_slo"}).
					AddRow(7, "payment-availability", 99.9).
					AddRow(9, "payment-latency", 95.0))

			slas, err := store.FindEnabled(ctx, 10)
			So(err, ShouldBeNil)
			So(slas, ShouldResemble, []domain.SLA{
				{ID: 7, Name: "payment-availability", SLO: 99.9, Enabled: true},
				{ID: 9, Name: "payment-latency", SLO: 95.0, Enabled: true},
			})
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("没有 SLA", func() {
			mock.ExpectQuery("FROM t_sla sla").
				WillReturnRows(sqlmock.NewRows([]string{"f_sla_id", "f_name", "f_slo"}))
			slas, err := store.FindEnabled(ctx, 10)
			So(err, ShouldBeNil)
			So(slas, ShouldBeEmpty)
		})

		Convey("查询失败", func() {
			mock.ExpectQuery("FROM t_sla sla").WillReturnError(errors.New("connection refused"))
			_, err := store.FindEnabled(ctx, 10)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "查询服务 10 的 SLA 失败")
		})

		Convey("db 未初始化", func() {
			_, err := NewSLAStore(nil).FindEnabled(ctx, 10)
			So(err, ShouldNotBeNil)
		})
	})
}
