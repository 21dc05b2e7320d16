package commission

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ticketbook/backend/internal/domain/commission"
	"github.com/ticketbook/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// SettingsResolver loads and validates the commission settings of an event
type SettingsResolver struct {
	settingsRepo commission.SettingsRepository
	logger       *zap.Logger
}

// NewSettingsResolver creates a new SettingsResolver
func NewSettingsResolver(settingsRepo commission.SettingsRepository, logger *zap.Logger) *SettingsResolver {
	return &SettingsResolver{
		settingsRepo: settingsRepo,
		logger:       logger,
	}
}

// Resolve reads the settings row of an event and resolves it.
// A missing row resolves to NotConfigured; only read failures are returned as errors.
func (r *SettingsResolver) Resolve(ctx context.Context, eventID uuid.UUID) (commission.SettingsResolution, error) {
	settings, err := r.settingsRepo.FindByEventID(ctx, eventID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return commission.SettingsResolution{}, fmt.Errorf("failed to load commission settings: %w", err)
		}
		settings = nil
	}

	res := commission.ResolveSettings(eventID, settings)
	if len(res.Diagnostics) > 0 {
		r.logger.Debug("commission settings resolved with diagnostics",
			zap.String("event_id", eventID.String()),
			zap.String("state", string(res.State)),
			zap.Int("diagnostics", len(res.Diagnostics)),
		)
	}
	return res, nil
}
