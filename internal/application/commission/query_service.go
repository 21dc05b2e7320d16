package commission

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/ticketbook/backend/internal/domain/commission"
	"go.uber.org/zap"
)

// QueryService is the read surface over the commission ledger.
// It never computes commission; it only reads persisted records.
type QueryService struct {
	recordRepo   commission.CommissionRecordRepository
	settingsRepo commission.SettingsRepository
	logger       *zap.Logger
}

// NewQueryService creates a new QueryService
func NewQueryService(
	recordRepo commission.CommissionRecordRepository,
	settingsRepo commission.SettingsRepository,
	logger *zap.Logger,
) *QueryService {
	return &QueryService{
		recordRepo:   recordRepo,
		settingsRepo: settingsRepo,
		logger:       logger,
	}
}

// ListCommissionRecords lists the commission records of an event
func (s *QueryService) ListCommissionRecords(ctx context.Context, eventID uuid.UUID, filter ListRecordsFilter) ([]CommissionRecordResponse, error) {
	domainFilter := commission.CommissionRecordFilter{}
	if filter.CommissionType != "" {
		t, err := commission.ParseCommissionType(filter.CommissionType)
		if err != nil {
			return nil, err
		}
		domainFilter.CommissionType = &t
	}
	if filter.Level1Value != "" {
		domainFilter.Level1Value = &filter.Level1Value
	}

	records, err := s.recordRepo.FindByEvent(ctx, eventID, domainFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list commission records: %w", err)
	}
	return ToCommissionRecordResponses(records), nil
}

// SumCommission totals the commission of an event
func (s *QueryService) SumCommission(ctx context.Context, eventID uuid.UUID) (*CommissionTotalResponse, error) {
	total, err := s.recordRepo.SumByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum commission: %w", err)
	}
	return &CommissionTotalResponse{EventID: eventID, Total: total}, nil
}

// SummarizeByLevel1 groups an event's commission by attribution key and type
func (s *QueryService) SummarizeByLevel1(ctx context.Context, eventID uuid.UUID) (*EventSummaryResponse, error) {
	records, err := s.recordRepo.FindByEvent(ctx, eventID, commission.CommissionRecordFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list commission records: %w", err)
	}

	groups := lo.GroupBy(records, func(r commission.CommissionRecord) string {
		return r.Level1Value
	})
	keys := lo.Keys(groups)
	sort.Strings(keys)

	summary := &EventSummaryResponse{
		EventID: eventID,
		Total:   decimal.Zero,
		Levels:  make([]Level1Summary, 0, len(keys)),
	}
	for _, key := range keys {
		group := groups[key]
		level := Level1Summary{
			Level1Value: key,
			Books: len(lo.UniqBy(group, func(r commission.CommissionRecord) uuid.UUID {
				return r.BookID
			})),
			Total:  commission.SumCommission(group),
			ByType: make(map[string]decimal.Decimal),
		}
		for _, r := range group {
			current, ok := level.ByType[string(r.CommissionType)]
			if !ok {
				current = decimal.Zero
			}
			level.ByType[string(r.CommissionType)] = current.Add(r.CommissionAmount)
		}
		summary.Total = summary.Total.Add(level.Total)
		summary.Levels = append(summary.Levels, level)
	}
	return summary, nil
}

// RecalculableEventIDs lists every event a sweep must visit: events with
// settings plus events that still hold records, so stale ledgers are cleared.
func (s *QueryService) RecalculableEventIDs(ctx context.Context) ([]uuid.UUID, error) {
	withSettings, err := s.settingsRepo.ListEventIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events with settings: %w", err)
	}
	withRecords, err := s.recordRepo.ListEventIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events with records: %w", err)
	}

	ids := lo.Union(withSettings, withRecords)
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids, nil
}
