package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"locagest/internal/domain"
	"locagest/internal/ledger"
	"locagest/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	recentRentsLimit   = 5
	upcomingRentsLimit = 10
	upcomingWindowDays = 30
)

type DashboardRepository interface {
	Counts(ctx context.Context, ownerID int64) (repository.PortfolioCounts, error)
	MonthlyRevenue(ctx context.Context, ownerID int64, from, to time.Time) (decimal.Decimal, error)
	PendingPayments(ctx context.Context, ownerID int64, from, to time.Time) (decimal.Decimal, error)
	RecentRents(ctx context.Context, ownerID int64, limit int) ([]domain.RentSummary, error)
	UpcomingRents(ctx context.Context, ownerID int64, from, to time.Time, limit int) ([]domain.RentSummary, error)
}

type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

type DashboardService struct {
	repo  DashboardRepository
	cache Cache
	ttl   time.Duration
	log   *logrus.Logger
}

func NewDashboardService(repo DashboardRepository, cache Cache, ttl time.Duration, log *logrus.Logger) *DashboardService {
	return &DashboardService{repo: repo, cache: cache, ttl: ttl, log: log}
}

func dashboardKey(ownerID int64, today time.Time) string {
	return fmt.Sprintf("dashboard:%d:%s", ownerID, today.Format("2006-01-02"))
}

// OccupancyRate is the share of rented properties, in percent.
func OccupancyRate(rented, total int) decimal.Decimal {
	if total <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(rented)).Mul(decimal.NewFromInt(100)).DivRound(decimal.NewFromInt(int64(total)), 2)
}

func (s *DashboardService) Stats(ctx context.Context, ownerID int64, today time.Time) (domain.DashboardStats, error) {
	today = ledger.Day(today)
	key := dashboardKey(ownerID, today)

	if s.cache != nil && s.ttl > 0 {
		if raw, err := s.cache.Get(ctx, key); err == nil {
			var cached domain.DashboardStats
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached, nil
			}
		}
	}

	stats, err := s.compute(ctx, ownerID, today)
	if err != nil {
		return domain.DashboardStats{}, err
	}

	if s.cache != nil && s.ttl > 0 {
		if data, err := json.Marshal(stats); err == nil {
			if err := s.cache.Set(ctx, key, string(data), s.ttl); err != nil {
				s.log.WithError(err).WithField("owner_id", ownerID).Warn("dashboard cache write failed")
			}
		}
	}
	return stats, nil
}

func (s *DashboardService) compute(ctx context.Context, ownerID int64, today time.Time) (domain.DashboardStats, error) {
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)

	counts, err := s.repo.Counts(ctx, ownerID)
	if err != nil {
		return domain.DashboardStats{}, fmt.Errorf("portfolio counts: %w", err)
	}
	revenue, err := s.repo.MonthlyRevenue(ctx, ownerID, monthStart, monthEnd)
	if err != nil {
		return domain.DashboardStats{}, fmt.Errorf("monthly revenue: %w", err)
	}
	pending, err := s.repo.PendingPayments(ctx, ownerID, monthStart, monthEnd)
	if err != nil {
		return domain.DashboardStats{}, fmt.Errorf("pending payments: %w", err)
	}
	recent, err := s.repo.RecentRents(ctx, ownerID, recentRentsLimit)
	if err != nil {
		return domain.DashboardStats{}, fmt.Errorf("recent rents: %w", err)
	}
	upcoming, err := s.repo.UpcomingRents(ctx, ownerID, today, today.AddDate(0, 0, upcomingWindowDays), upcomingRentsLimit)
	if err != nil {
		return domain.DashboardStats{}, fmt.Errorf("upcoming rents: %w", err)
	}

	return domain.DashboardStats{
		TotalProperties:     counts.TotalProperties,
		RentedProperties:    counts.RentedProperties,
		AvailableProperties: counts.AvailableProperties,
		TotalTenants:        counts.ActiveTenants,
		MonthlyRevenue:      revenue,
		PendingPayments:     pending,
		OccupancyRate:       OccupancyRate(counts.RentedProperties, counts.TotalProperties),
		RecentRents:         recent,
		UpcomingRents:       upcoming,
	}, nil
}
