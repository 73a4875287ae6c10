package service

import (
	"context"
	"time"

	"github.com/aisgo/workshop-server/authz"
	"github.com/aisgo/workshop-server/errors"
	"github.com/aisgo/workshop-server/logger"
	"github.com/aisgo/workshop-server/model"
	"github.com/aisgo/workshop-server/repository"
)

/* ========================================================================
 * Report Service - 经营报表
 * ========================================================================
 * 职责: 按技师汇总工时 / 按状态统计工单
 * 注意: time_entries 表无 workshop_id, 聚合必须 JOIN repair_orders
 *       显式按门店过滤, 否则跨店数据混入
 * ======================================================================== */

// MechanicHoursRow 单个技师的工时与劳务价值汇总
// LaborValue = 总分钟数 × 时薪 / 60, 与时薪同为最小货币单位
type MechanicHoursRow struct {
	MechanicID   int64   `json:"mechanic_id,string"`
	MechanicName string  `json:"mechanic_name"`
	TotalMinutes int64   `json:"total_minutes"`
	TotalHours   float64 `json:"total_hours"`
	EntryCount   int64   `json:"entry_count"`
	HourlyRate   int64   `json:"hourly_rate"`
	LaborValue   int64   `json:"labor_value"`
}

// MechanicHoursQuery 工时汇总查询条件, 时间范围可选
type MechanicHoursQuery struct {
	From *time.Time `json:"from"`
	To   *time.Time `json:"to"`
}

// ReportService 报表服务
type ReportService struct {
	entryRepo    repository.Repository[model.TimeEntry]
	orderRepo    repository.Repository[model.RepairOrder]
	mechanicRepo repository.Repository[model.Mechanic]
	log          *logger.Logger
}

// NewReportService 创建报表服务
func NewReportService(
	entryRepo repository.Repository[model.TimeEntry],
	orderRepo repository.Repository[model.RepairOrder],
	mechanicRepo repository.Repository[model.Mechanic],
	log *logger.Logger,
) *ReportService {
	return &ReportService{
		entryRepo:    entryRepo,
		orderRepo:    orderRepo,
		mechanicRepo: mechanicRepo,
		log:          log,
	}
}

// MechanicHours 按技师汇总工时与劳务价值
// time_entries 经由工单归属门店, 聚合绕过通用仓储直接 JOIN,
// 门店过滤与软删除条件显式写入; 技师姓名与时薪走租户仓储补齐,
// 已删除或他店技师的记录不出现在报表中
func (s *ReportService) MechanicHours(ctx context.Context, q MechanicHoursQuery) ([]MechanicHoursRow, error) {
	p, err := authz.MustPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(p, authz.CapReportsView); err != nil {
		return nil, err
	}

	db := s.entryRepo.GetDB().WithContext(ctx).
		Table("time_entries AS te").
		Select("te.mechanic_id AS mechanic_id, "+
			"COALESCE(SUM(te.duration_minutes), 0) AS total_minutes, "+
			"COUNT(te.id) AS entry_count").
		Joins("JOIN repair_orders AS ro ON ro.id = te.repair_order_id AND ro.deleted = 0").
		Where("ro.workshop_id = ?", p.WorkshopID.String()).
		Where("te.deleted = 0")

	if q.From != nil {
		db = db.Where("te.create_time >= ?", *q.From)
	}
	if q.To != nil {
		db = db.Where("te.create_time < ?", *q.To)
	}

	var rows []MechanicHoursRow
	if err := db.Group("te.mechanic_id").
		Order("total_minutes DESC").
		Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "mechanic hours report failed", err)
	}
	if len(rows) == 0 {
		return rows, nil
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.MechanicID)
	}
	mechanics, err := s.mechanicRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*model.Mechanic, len(mechanics))
	for _, m := range mechanics {
		byID[m.ID] = m
	}

	out := make([]MechanicHoursRow, 0, len(rows))
	for _, row := range rows {
		m, ok := byID[row.MechanicID]
		if !ok {
			continue
		}
		row.MechanicName = m.FullName
		row.HourlyRate = m.HourlyRate
		row.TotalHours = float64(row.TotalMinutes) / 60
		row.LaborValue = row.TotalMinutes * m.HourlyRate / 60
		out = append(out, row)
	}
	return out, nil
}

// OrdersByStatus 按状态统计当前门店工单数
func (s *ReportService) OrdersByStatus(ctx context.Context) (map[string]int64, error) {
	p, err := authz.MustPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(p, authz.CapReportsView); err != nil {
		return nil, err
	}

	counts, err := s.orderRepo.CountByGroup(ctx, "status", "")
	if err != nil {
		return nil, err
	}

	// 无单状态补零, 报表列齐全
	for _, st := range model.AllStatuses {
		if _, ok := counts[string(st)]; !ok {
			counts[string(st)] = 0
		}
	}
	return counts, nil
}
