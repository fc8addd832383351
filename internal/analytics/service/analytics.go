package service

import (
	"context"
	"math"
	"sort"
	"time"

	"masterbook/pkg/config"
	apperrors "masterbook/pkg/errors"
	"masterbook/pkg/model"
)

// OrderLister is the slice of the orders repository analytics reads
// from: every order of one master, with service prices joined in.
type OrderLister interface {
	ListByMaster(ctx context.Context, masterID string) ([]model.OrderDetails, error)
}

// CatalogReader resolves a service to its category for the per-category
// revenue breakdown.
type CatalogReader interface {
	GetService(ctx context.Context, id string) (*model.Service, error)
	GetCategoryByID(ctx context.Context, id string) (*model.Category, error)
}

// Summary aggregates a master's order history. CompletionRate is a
// whole percentage; AvgCompletionHours is rounded to one decimal.
// Revenue counts DONE orders only.
type Summary struct {
	Total              int     `json:"total"`
	Completed          int     `json:"completed"`
	Cancelled          int     `json:"cancelled"`
	Pending            int     `json:"pending"`
	CompletionRate     int     `json:"completion_rate"`
	AvgCompletionHours float64 `json:"avg_completion_hours"`
	TotalRevenue       float64 `json:"total_revenue"`
}

// DailyCount is the number of orders created on one calendar date.
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// CategoryStat is the completed-order revenue attributed to one
// category.
type CategoryStat struct {
	CategoryID   string  `json:"category_id"`
	CategoryName string  `json:"category_name"`
	OrdersCount  int     `json:"orders_count"`
	Revenue      float64 `json:"revenue"`
}

// SummaryReport is the full analytics payload for one master.
type SummaryReport struct {
	Summary    Summary        `json:"summary"`
	Daily      []DailyCount   `json:"daily"`
	ByCategory []CategoryStat `json:"by_category"`
}

// MonthlyStat aggregates one calendar month of a master's orders.
type MonthlyStat struct {
	Month     string  `json:"month"`
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Cancelled int     `json:"cancelled"`
	Revenue   float64 `json:"revenue"`
}

type AnalyticsService interface {
	Summary(ctx context.Context, actor *model.User) (*SummaryReport, error)
	Monthly(ctx context.Context, actor *model.User) ([]MonthlyStat, error)
}

type analyticsService struct {
	orders  OrderLister
	catalog CatalogReader
	cfg     *config.Config
	now     func() time.Time
}

func NewAnalyticsService(orders OrderLister, catalog CatalogReader, cfg *config.Config) AnalyticsService {
	return &analyticsService{
		orders:  orders,
		catalog: catalog,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Summary computes status totals, completion rate, DONE revenue, a
// 30-day daily creation histogram and a per-category revenue breakdown
// for the acting master.
func (s *analyticsService) Summary(ctx context.Context, actor *model.User) (*SummaryReport, error) {
	if actor == nil || actor.Role != model.RoleMaster {
		return nil, apperrors.Forbidden("Analytics are available to masters only")
	}

	orders, err := s.orders.ListByMaster(ctx, actor.ID)
	if err != nil {
		s.cfg.Log.Error("Failed to list orders for analytics",
			"master_id", actor.ID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to compute analytics", err)
	}

	report := &SummaryReport{
		Daily:      []DailyCount{},
		ByCategory: []CategoryStat{},
	}

	var completionHours float64
	dailyFrom := s.now().UTC().AddDate(0, 0, -30)
	daily := make(map[string]int)
	categories := make(map[string]*CategoryStat)
	serviceCategory := make(map[string]string)

	for i := range orders {
		o := &orders[i]
		report.Summary.Total++

		switch o.Status {
		case model.StatusDone:
			report.Summary.Completed++
			report.Summary.TotalRevenue += o.ServicePrice
			if o.StatusChangedAt.After(o.CreatedAt) {
				completionHours += o.StatusChangedAt.Sub(o.CreatedAt).Hours()
			}
			s.attribute(ctx, o, categories, serviceCategory)
		case model.StatusCancelled:
			report.Summary.Cancelled++
		case model.StatusNew:
			report.Summary.Pending++
		}

		if !o.CreatedAt.Before(dailyFrom) {
			daily[o.CreatedAt.UTC().Format("2006-01-02")]++
		}
	}

	if report.Summary.Total > 0 {
		report.Summary.CompletionRate = int(math.Round(
			float64(report.Summary.Completed) / float64(report.Summary.Total) * 100,
		))
	}
	if report.Summary.Completed > 0 {
		report.Summary.AvgCompletionHours = math.Round(completionHours/float64(report.Summary.Completed)*10) / 10
	}

	for date, count := range daily {
		report.Daily = append(report.Daily, DailyCount{Date: date, Count: count})
	}
	sort.Slice(report.Daily, func(i, j int) bool {
		return report.Daily[i].Date > report.Daily[j].Date
	})

	for _, stat := range categories {
		report.ByCategory = append(report.ByCategory, *stat)
	}
	sort.Slice(report.ByCategory, func(i, j int) bool {
		return report.ByCategory[i].Revenue > report.ByCategory[j].Revenue
	})

	return report, nil
}

// Monthly aggregates the last twelve months of the acting master's
// orders, newest month first. Revenue counts DONE orders only.
func (s *analyticsService) Monthly(ctx context.Context, actor *model.User) ([]MonthlyStat, error) {
	if actor == nil || actor.Role != model.RoleMaster {
		return nil, apperrors.Forbidden("Analytics are available to masters only")
	}

	orders, err := s.orders.ListByMaster(ctx, actor.ID)
	if err != nil {
		s.cfg.Log.Error("Failed to list orders for analytics",
			"master_id", actor.ID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to compute analytics", err)
	}

	from := s.now().UTC().AddDate(0, -12, 0)
	months := make(map[string]*MonthlyStat)

	for i := range orders {
		o := &orders[i]
		if o.CreatedAt.Before(from) {
			continue
		}
		month := o.CreatedAt.UTC().Format("2006-01")
		stat, ok := months[month]
		if !ok {
			stat = &MonthlyStat{Month: month}
			months[month] = stat
		}
		stat.Total++
		switch o.Status {
		case model.StatusDone:
			stat.Completed++
			stat.Revenue += o.ServicePrice
		case model.StatusCancelled:
			stat.Cancelled++
		}
	}

	result := make([]MonthlyStat, 0, len(months))
	for _, stat := range months {
		result = append(result, *stat)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Month > result[j].Month
	})
	return result, nil
}

// attribute adds one completed order to its category's bucket. Orders
// whose service or category has since disappeared are skipped rather
// than failing the whole report.
func (s *analyticsService) attribute(
	ctx context.Context,
	o *model.OrderDetails,
	categories map[string]*CategoryStat,
	serviceCategory map[string]string,
) {
	categoryID, ok := serviceCategory[o.ServiceID]
	if !ok {
		svc, err := s.catalog.GetService(ctx, o.ServiceID)
		if err != nil {
			serviceCategory[o.ServiceID] = ""
			return
		}
		categoryID = svc.CategoryID
		serviceCategory[o.ServiceID] = categoryID
	}
	if categoryID == "" {
		return
	}

	stat, ok := categories[categoryID]
	if !ok {
		category, err := s.catalog.GetCategoryByID(ctx, categoryID)
		if err != nil {
			return
		}
		stat = &CategoryStat{CategoryID: categoryID, CategoryName: category.Name}
		categories[categoryID] = stat
	}
	stat.OrdersCount++
	stat.Revenue += o.ServicePrice
}
