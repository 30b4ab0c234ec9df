package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go-idcard/internal/shared/apperror"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	SummaryCacheKey   = "stats:summary"
	BreakdownCacheKey = "stats:department-breakdown"
	// GenerationKey is bumped on every invalidation. Cached values live under
	// "<key>:<generation>", so a value computed before a bump is never read.
	GenerationKey = "stats:generation"
	CacheTTL      = 5 * time.Minute

	UnknownDepartment = "Unknown"
)

// VersionedKey is the cache key for base at the given generation.
func VersionedKey(base string, gen int64) string {
	return base + ":" + strconv.FormatInt(gen, 10)
}

//go:generate mockgen -source=stats_service.go -destination=mock/stats_service_mock.go -package=mock
type Service interface {
	Summary(ctx context.Context) (SummaryResponse, error)
	DepartmentBreakdown(ctx context.Context) ([]DepartmentBreakdown, error)
	Invalidate(ctx context.Context)
}

type service struct {
	repo   Repository
	rdb    *redis.Client
	sf     *singleflight.Group
	now    func() time.Time
	logger *zap.Logger
}

func NewService(repo Repository, rdb *redis.Client, logger ...*zap.Logger) Service {
	l := zap.L().Named("stats.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("stats.service")
	}
	return &service{
		repo:   repo,
		rdb:    rdb,
		sf:     &singleflight.Group{},
		now:    time.Now,
		logger: l,
	}
}

func (s *service) Summary(ctx context.Context) (SummaryResponse, error) {
	key, cacheable := s.cacheKey(ctx, SummaryCacheKey)
	var cached SummaryResponse
	if cacheable && s.readCache(ctx, key, &cached) {
		return cached, nil
	}

	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		total, err := s.repo.CountWorkers(ctx)
		if err != nil {
			s.logger.Error("count workers failed", zap.Error(err))
			return nil, apperror.ErrInternal.WithCause(err)
		}

		now := s.now()
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		today, err := s.repo.CountCreatedSince(ctx, midnight)
		if err != nil {
			s.logger.Error("count workers created today failed", zap.Error(err))
			return nil, apperror.ErrInternal.WithCause(err)
		}

		resp := SummaryResponse{TotalWorkers: total, IDsGeneratedToday: today}
		if cacheable {
			s.writeCache(ctx, key, resp)
		}
		return resp, nil
	})
	if err != nil {
		return SummaryResponse{}, err
	}
	return v.(SummaryResponse), nil
}

func (s *service) DepartmentBreakdown(ctx context.Context) ([]DepartmentBreakdown, error) {
	key, cacheable := s.cacheKey(ctx, BreakdownCacheKey)
	var cached []DepartmentBreakdown
	if cacheable && s.readCache(ctx, key, &cached) {
		return cached, nil
	}

	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		rows, err := s.repo.CountByDepartment(ctx)
		if err != nil {
			s.logger.Error("count by department failed", zap.Error(err))
			return nil, apperror.ErrInternal.WithCause(err)
		}

		resp := buildBreakdown(rows)
		if cacheable {
			s.writeCache(ctx, key, resp)
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]DepartmentBreakdown), nil
}

func (s *service) Invalidate(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Incr(ctx, GenerationKey).Err(); err != nil {
		s.logger.Error("failed to invalidate stats cache", zap.Error(err))
	}
}

// cacheKey resolves base against the current generation. It reports false
// when there is no cache or the generation cannot be read; callers then
// compute without reading or writing the cache.
func (s *service) cacheKey(ctx context.Context, base string) (string, bool) {
	if s.rdb == nil {
		return base, false
	}
	gen, err := s.rdb.Get(ctx, GenerationKey).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		gen = 0
	case err != nil:
		s.logger.Warn("stats cache generation read failed", zap.Error(err))
		return base, false
	}
	return VersionedKey(base, gen), true
}

// buildBreakdown folds blank departments into "Unknown" and orders by count,
// largest first, then by name.
func buildBreakdown(rows []DepartmentCount) []DepartmentBreakdown {
	var total int64
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		dept := strings.TrimSpace(r.Department)
		if dept == "" {
			dept = UnknownDepartment
		}
		counts[dept] += r.Count
		total += r.Count
	}

	out := make([]DepartmentBreakdown, 0, len(counts))
	for dept, n := range counts {
		pct := 0.0
		if total > 0 {
			pct = float64(n) / float64(total) * 100
		}
		out = append(out, DepartmentBreakdown{
			Department: dept,
			Count:      n,
			Percentage: fmt.Sprintf("%.2f", pct),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Department < out[j].Department
	})
	return out
}

func (s *service) readCache(ctx context.Context, key string, dst any) bool {
	if s.rdb == nil {
		return false
	}
	cached, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("stats cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	return json.Unmarshal([]byte(cached), dst) == nil
}

func (s *service) writeCache(ctx context.Context, key string, v any) {
	if s.rdb == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, key, data, CacheTTL).Err(); err != nil {
		s.logger.Warn("stats cache write failed", zap.String("key", key), zap.Error(err))
	}
}
