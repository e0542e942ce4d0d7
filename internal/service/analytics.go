package service

import (
	"context"
	"fmt"
	"time"

	"github.com/brewpos/api/internal/database"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const (
	dateLayout        = "2006-01-02"
	monthlyWindowDays = 30
	weekdaysReported  = 5
)

// AnalyticsStore defines the DB methods needed for sales analytics.
// Satisfied by *database.Queries.
type AnalyticsStore interface {
	GetSalesByDay(ctx context.Context, arg database.GetSalesByDayParams) ([]database.GetSalesByDayRow, error)
	GetItemRanking(ctx context.Context, arg database.GetItemRankingParams) ([]database.GetItemRankingRow, error)
}

// DailySales is the completed-sales total of one calendar day.
type DailySales struct {
	Date             string          `json:"date"`
	Day              string          `json:"day"`
	Total            decimal.Decimal `json:"total"`
	TransactionCount int64           `json:"transaction_count"`
}

// ItemRank is the sales volume of one menu item.
type ItemRank struct {
	MenuItemID string          `json:"menu_item_id"`
	Name       string          `json:"name"`
	Category   string          `json:"category"`
	Quantity   int64           `json:"quantity"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// AnalyticsService aggregates completed transactions. Days are calendar
// days in loc, keyed by completion time.
type AnalyticsService struct {
	store AnalyticsStore
	loc   *time.Location
	now   func() time.Time
}

// NewAnalyticsService creates a new AnalyticsService.
func NewAnalyticsService(store AnalyticsStore, loc *time.Location) *AnalyticsService {
	if loc == nil {
		loc = time.UTC
	}
	return &AnalyticsService{store: store, loc: loc, now: time.Now}
}

// WeeklySales returns Monday through Friday of the current week. Days
// without sales are reported with a zero total.
func (s *AnalyticsService) WeeklySales(ctx context.Context) ([]DailySales, error) {
	now := s.now().In(s.loc)
	offset := (int(now.Weekday()) + 6) % 7
	monday := time.Date(now.Year(), now.Month(), now.Day()-offset, 0, 0, 0, 0, s.loc)
	saturday := monday.AddDate(0, 0, weekdaysReported)

	rows, err := s.store.GetSalesByDay(ctx, database.GetSalesByDayParams{
		Timezone: s.loc.String(),
		StartAt:  monday,
		EndAt:    saturday,
	})
	if err != nil {
		return nil, fmt.Errorf("get sales by day: %w", err)
	}
	byDate := make(map[string]database.GetSalesByDayRow, len(rows))
	for _, r := range rows {
		byDate[dateKey(r.Day)] = r
	}

	result := make([]DailySales, 0, weekdaysReported)
	for i := 0; i < weekdaysReported; i++ {
		day := monday.AddDate(0, 0, i)
		key := day.Format(dateLayout)
		entry := DailySales{Date: key, Day: day.Weekday().String(), Total: decimal.Zero}
		if r, ok := byDate[key]; ok {
			entry.Total = numericToDecimal(r.Total)
			entry.TransactionCount = r.TransactionCount
		}
		result = append(result, entry)
	}
	return result, nil
}

// MonthlySales returns per-day totals over the trailing 30 days in
// ascending date order. Only days with sales are included.
func (s *AnalyticsService) MonthlySales(ctx context.Context) ([]DailySales, error) {
	now := s.now()
	rows, err := s.store.GetSalesByDay(ctx, database.GetSalesByDayParams{
		Timezone: s.loc.String(),
		StartAt:  now.Add(-monthlyWindowDays * 24 * time.Hour),
		EndAt:    now.Add(time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("get sales by day: %w", err)
	}

	result := make([]DailySales, 0, len(rows))
	for _, r := range rows {
		entry := DailySales{
			Date:             dateKey(r.Day),
			Total:            numericToDecimal(r.Total),
			TransactionCount: r.TransactionCount,
		}
		if r.Day.Valid {
			entry.Day = r.Day.Time.Weekday().String()
		}
		result = append(result, entry)
	}
	return result, nil
}

// ItemRanking returns menu items by quantity sold, highest first. Both
// bounds are optional.
func (s *AnalyticsService) ItemRanking(ctx context.Context, startAt, endAt *time.Time) ([]ItemRank, error) {
	rows, err := s.store.GetItemRanking(ctx, database.GetItemRankingParams{
		StartAt: toTimestamptz(startAt),
		EndAt:   toTimestamptz(endAt),
	})
	if err != nil {
		return nil, fmt.Errorf("get item ranking: %w", err)
	}

	result := make([]ItemRank, 0, len(rows))
	for _, r := range rows {
		result = append(result, ItemRank{
			MenuItemID: r.MenuItemID.String(),
			Name:       r.Name,
			Category:   r.Category,
			Quantity:   r.Quantity,
			Revenue:    numericToDecimal(r.Revenue),
		})
	}
	return result, nil
}

func dateKey(d pgtype.Date) string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(dateLayout)
}
