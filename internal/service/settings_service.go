package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ebta/enrollment-api/internal/models"
	appErrors "github.com/ebta/enrollment-api/pkg/errors"
)

type settingsRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

type settingsCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// SettingsService is the narrow settings interface the enrollment core
// reads the global billing month and enrollment gate through. Values are
// cached in Redis for a short TTL; the database rows stay authoritative.
type SettingsService struct {
	repo     settingsRepository
	cache    settingsCache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(repo settingsRepository, cache settingsCache, cacheTTL time.Duration, logger *zap.Logger) *SettingsService {
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{repo: repo, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// CurrentMonth returns the global billing month (YYYY-MM). A missing row
// falls back to the server month and is written back.
func (s *SettingsService) CurrentMonth(ctx context.Context) (string, error) {
	value, err := s.get(ctx, models.SettingCurrentMonth)
	if err == nil && value != "" {
		return value, nil
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	month := time.Now().Format("2006-01")
	if err := s.Set(ctx, models.SettingCurrentMonth, month); err != nil {
		s.logger.Warn("failed to persist fallback month", zap.Error(err))
	}
	return month, nil
}

// EnrollmentOpen reports whether new registrations are accepted. The gate
// defaults open when the setting row is absent.
func (s *SettingsService) EnrollmentOpen(ctx context.Context) (bool, error) {
	value, err := s.get(ctx, models.SettingEnrollmentOpen)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return value == "1", nil
}

// EnrollmentMessage returns the closed-enrollment message shown to students.
func (s *SettingsService) EnrollmentMessage(ctx context.Context) string {
	value, err := s.get(ctx, models.SettingEnrollmentMessage)
	if err != nil || value == "" {
		return "Enrollments are currently closed."
	}
	return value
}

// Get returns a raw setting value for the admin surface.
func (s *SettingsService) Get(ctx context.Context, key string) (string, error) {
	value, err := s.get(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", appErrors.Clone(appErrors.ErrNotFound, "setting not found")
	}
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read setting")
	}
	return value, nil
}

// Set upserts a setting and invalidates its cached value.
func (s *SettingsService) Set(ctx context.Context, key, value string) error {
	if err := s.repo.Set(ctx, key, value); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to write setting")
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, cacheKey(key)); err != nil {
			s.logger.Warn("failed to invalidate settings cache", zap.String("key", key), zap.Error(err))
		}
	}
	return nil
}

func (s *SettingsService) get(ctx context.Context, key string) (string, error) {
	if s.cache != nil {
		if value, err := s.cache.Get(ctx, cacheKey(key)); err == nil {
			return value, nil
		}
	}

	value, err := s.repo.Get(ctx, key)
	if err != nil {
		return "", err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey(key), value, s.cacheTTL); err != nil {
			s.logger.Warn("failed to populate settings cache", zap.String("key", key), zap.Error(err))
		}
	}
	return value, nil
}

func cacheKey(key string) string {
	return "settings:" + key
}
