package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/datecheck-bot/internal/models"
	appErrors "github.com/noah-isme/datecheck-bot/pkg/errors"
)

const defaultLedgerTimeout = 5 * time.Second

type bookedDateReader interface {
	Name() string
	BookedDates(ctx context.Context) ([]string, error)
}

// AvailabilityService answers whether a date is already in the booking ledger.
// The ledger is read on every call.
type AvailabilityService struct {
	ledger  bookedDateReader
	timeout time.Duration
	metrics *MetricsService
	logger  *zap.Logger
}

// NewAvailabilityService constructs the checker. A non-positive timeout falls back to five seconds.
func NewAvailabilityService(ledger bookedDateReader, timeout time.Duration, metrics *MetricsService, logger *zap.Logger) *AvailabilityService {
	if timeout <= 0 {
		timeout = defaultLedgerTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{ledger: ledger, timeout: timeout, metrics: metrics, logger: logger}
}

// Check reports whether date is booked. Any failure to read the ledger,
// including the timeout, is returned as ErrLedgerUnavailable.
func (s *AvailabilityService) Check(ctx context.Context, date models.Date) (models.Availability, error) {
	if date.IsZero() {
		return models.AvailabilityUnknown, appErrors.ErrInvalidDateFormat
	}

	readCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	entries, err := s.ledger.BookedDates(readCtx)
	s.metrics.ObserveLedgerRead(s.ledger.Name(), err == nil, time.Since(start))
	if err != nil {
		s.logger.Error("ledger read failed",
			zap.String("backend", s.ledger.Name()),
			zap.Duration("timeout", s.timeout),
			zap.Error(err),
		)
		return models.AvailabilityUnknown, appErrors.WrapAs(err, appErrors.ErrLedgerUnavailable, "")
	}

	if _, ok := bookedSet(entries)[date.String()]; ok {
		return models.AvailabilityBooked, nil
	}
	return models.AvailabilityFree, nil
}

func bookedSet(entries []string) map[string]struct{} {
	set := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		trimmed := strings.TrimSpace(entry)
		if trimmed == "" {
			continue
		}
		set[trimmed] = struct{}{}
	}
	return set
}
