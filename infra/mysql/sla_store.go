package mysql

import (
	"context"
	"database/sql"
	"time"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/core"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/domain"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/infra/log"
	"github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
)

const (
	SLATable        = "t_sla"
	SLAServiceTable = "t_sla_service"

	slaStatusEnabled = 1
)

type SLAStore struct {
	db *sql.DB
}

func NewSLAStore(db *sql.DB) *SLAStore {
	return &SLAStore{db: db}
}

// FindEnabled 查询覆盖该服务的已启用 SLA，按 SLA ID 升序。
func (s *SLAStore) FindEnabled(ctx context.Context, serviceID uint64) ([]domain.SLA, error) {
	defer func(start time.Time) {
		log.Debugw("MySQL",
			"operation", "SLAStore.FindEnabled",
			"table", SLATable,
			"service_id", serviceID,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}(time.Now())

	if s.db == nil {
		return nil, errors.New("mysql 未初始化")
	}

	sqlStr, args, err := squirrel.Select("sla.f_sla_id", "sla.f_name", "sla.f_slo").
		From(SLATable + " sla").
		Join(SLAServiceTable + " ss ON ss.f_sla_id = sla.f_sla_id").
		Where(squirrel.Eq{"ss.f_service_id": serviceID, "sla.f_status": slaStatusEnabled}).
		OrderBy("sla.f_sla_id").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "构造 SQL 失败")
	}

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "查询服务 %d 的 SLA 失败", serviceID)
	}
	defer rows.Close()

	var slas []domain.SLA
	for rows.Next() {
		sla := domain.SLA{Enabled: true}
		if err := rows.Scan(&sla.ID, &sla.Name, &sla.SLO); err != nil {
			return nil, errors.Wrap(err, "读取 SLA 失败")
		}
		slas = append(slas, sla)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "读取 SLA 失败")
	}
	return slas, nil
}

var _ core.SLARepository = (*SLAStore)(nil)
