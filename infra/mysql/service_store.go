package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/core"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/domain"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/infra/log"
	"github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
)

const (
	ServiceTable           = "t_service"
	ServiceParentTable     = "t_service_parent"
	ServiceProblemTagTable = "t_service_problem_tag"
)

// 服务问题标签规则的匹配方式
const (
	problemTagEqual = 0
	problemTagLike  = 2
)

// ServiceStore 业务服务层级存储。
type ServiceStore struct {
	db *sql.DB
}

func NewServiceStore(db *sql.DB) *ServiceStore {
	return &ServiceStore{db: db}
}

// FindByProblemTags 任一标签命中服务的任一问题标签规则即视为匹配。
// 规则为 equal 时值相等，为 like 时问题标签值包含规则值。
func (s *ServiceStore) FindByProblemTags(ctx context.Context, tags []domain.Tag) ([]domain.Service, error) {
	defer func(start time.Time) {
		log.Debugw("MySQL",
			"operation", "ServiceStore.FindByProblemTags",
			"table", ServiceProblemTagTable,
			"tags", len(tags),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}(time.Now())

	if len(tags) == 0 {
		return nil, nil
	}

	conditions := make(squirrel.Or, 0, len(tags))
	for _, t := range tags {
		conditions = append(conditions, squirrel.And{
			squirrel.Eq{"pt.f_tag": t.Tag},
			squirrel.Or{
				squirrel.And{
					squirrel.Eq{"pt.f_operator": problemTagEqual},
					squirrel.Eq{"pt.f_value": t.Value},
				},
				squirrel.And{
					squirrel.Eq{"pt.f_operator": problemTagLike},
					// 子串匹配，值中的 % 与 _ 按字面处理
					squirrel.Expr("LOCATE(pt.f_value, ?) > 0", t.Value),
				},
			},
		})
	}

	query := squirrel.Select("s.f_service_id", "s.f_name", "s.f_status").
		Distinct().
		From(ServiceTable + " s").
		Join(ServiceProblemTagTable + " pt ON pt.f_service_id = s.f_service_id").
		Where(conditions).
		OrderBy("s.f_name", "s.f_service_id")

	services, err := s.queryServices(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "按问题标签查询服务失败")
	}
	return services, nil
}

// Get 按 ID 查询服务并补充父节点，不存在的 ID 不出现在结果中。
func (s *ServiceStore) Get(ctx context.Context, serviceIDs []uint64) ([]domain.Service, error) {
	defer func(start time.Time) {
		log.Debugw("MySQL",
			"operation", "ServiceStore.Get",
			"table", ServiceTable,
			"ids", len(serviceIDs),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}(time.Now())

	if len(serviceIDs) == 0 {
		return nil, nil
	}

	query := squirrel.Select("f_service_id", "f_name", "f_status").
		From(ServiceTable).
		Where(squirrel.Eq{"f_service_id": serviceIDs}).
		OrderBy("f_service_id")

	services, err := s.queryServices(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "查询服务失败")
	}
	if err := s.attachParents(ctx, services); err != nil {
		return nil, err
	}
	return services, nil
}

// GetDescendants 递归查询全部后代（不含自身），按 ID 升序至多 limit 个。
// UNION 去重保证父引用成环时递归也能结束。
func (s *ServiceStore) GetDescendants(ctx context.Context, serviceID uint64, limit int) ([]domain.Service, error) {
	defer func(start time.Time) {
		log.Debugw("MySQL",
			"operation", "ServiceStore.GetDescendants",
			"table", ServiceParentTable,
			"service_id", serviceID,
			"limit", limit,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}(time.Now())

	if limit <= 0 {
		return nil, nil
	}

	cte := fmt.Sprintf("WITH RECURSIVE descendants (f_service_id) AS ("+
		"SELECT f_service_id FROM %[1]s WHERE f_parent_id = ? "+
		"UNION "+
		"SELECT p.f_service_id FROM %[1]s p JOIN descendants d ON p.f_parent_id = d.f_service_id)",
		ServiceParentTable)

	query := squirrel.Select("s.f_service_id", "s.f_name", "s.f_status").
		Prefix(cte, serviceID).
		From(ServiceTable + " s").
		Join("descendants d ON d.f_service_id = s.f_service_id").
		Where(squirrel.NotEq{"s.f_service_id": serviceID}).
		OrderBy("s.f_service_id").
		Limit(uint64(limit))

	services, err := s.queryServices(ctx, query)
	if err != nil {
		return nil, errors.Wrapf(err, "查询服务 %d 的后代失败", serviceID)
	}
	if err := s.attachParents(ctx, services); err != nil {
		return nil, err
	}
	return services, nil
}

func (s *ServiceStore) queryServices(ctx context.Context, query squirrel.SelectBuilder) ([]domain.Service, error) {
	if s.db == nil {
		return nil, errors.New("mysql 未初始化")
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "构造 SQL 失败")
	}

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []domain.Service
	for rows.Next() {
		var svc domain.Service
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.Status); err != nil {
			return nil, err
		}
		services = append(services, svc)
	}
	return services, rows.Err()
}

// attachParents 按 (f_service_id, f_parent_id) 顺序补充父节点列表。
func (s *ServiceStore) attachParents(ctx context.Context, services []domain.Service) error {
	if len(services) == 0 {
		return nil
	}

	ids := make([]uint64, 0, len(services))
	for _, svc := range services {
		ids = append(ids, svc.ID)
	}
	sqlStr, args, err := squirrel.Select("f_service_id", "f_parent_id").
		From(ServiceParentTable).
		Where(squirrel.Eq{"f_service_id": ids}).
		OrderBy("f_service_id", "f_parent_id").
		ToSql()
	if err != nil {
		return errors.Wrap(err, "构造 SQL 失败")
	}

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return errors.Wrap(err, "查询服务父节点失败")
	}
	defer rows.Close()

	parents := make(map[uint64][]uint64, len(services))
	for rows.Next() {
		var id, parentID uint64
		if err := rows.Scan(&id, &parentID); err != nil {
			return errors.Wrap(err, "读取服务父节点失败")
		}
		parents[id] = append(parents[id], parentID)
	}
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "读取服务父节点失败")
	}

	for i := range services {
		services[i].ParentIDs = parents[services[i].ID]
	}
	return nil
}

var _ core.ServiceRepository = (*ServiceStore)(nil)
