package commission

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ticketbook/backend/internal/domain/shared/valueobject"
)

// TierConfig is the raw configuration of one tier as entered on the settings screen.
// Deadline is kept as entered; it is parsed during resolution.
type TierConfig struct {
	Enabled  bool            `json:"enabled"`
	Percent  decimal.Decimal `json:"percent"`
	Deadline *string         `json:"deadline,omitempty"`
}

// CommissionSettings is the per-event commission configuration row
type CommissionSettings struct {
	EventID           uuid.UUID  `json:"event_id"`
	CommissionEnabled bool       `json:"commission_enabled"`
	Early             TierConfig `json:"early"`
	Standard          TierConfig `json:"standard"`
	ExtraBooks        TierConfig `json:"extra_books"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Tier returns the raw configuration of a tier
func (s *CommissionSettings) Tier(t CommissionType) TierConfig {
	switch t {
	case CommissionTypeEarly:
		return s.Early
	case CommissionTypeStandard:
		return s.Standard
	case CommissionTypeExtraBooks:
		return s.ExtraBooks
	}
	return TierConfig{}
}

// SettingsState distinguishes why tiers are or are not evaluable
type SettingsState string

const (
	SettingsStateNotConfigured SettingsState = "NOT_CONFIGURED"
	SettingsStateDisabled      SettingsState = "DISABLED"
	SettingsStateActive        SettingsState = "ACTIVE"
)

// ResolvedTier is a validated tier. Usable is false whenever the tier is
// disabled or misconfigured; a misconfigured tier never fires.
type ResolvedTier struct {
	Type     CommissionType         `json:"type"`
	Enabled  bool                   `json:"enabled"`
	Usable   bool                   `json:"usable"`
	Percent  valueobject.Percentage `json:"percent"`
	Deadline *valueobject.Date      `json:"deadline,omitempty"`
}

// SettingsResolution is the outcome of resolving an event's settings
type SettingsResolution struct {
	EventID     uuid.UUID     `json:"event_id"`
	State       SettingsState `json:"state"`
	Early       ResolvedTier  `json:"early"`
	Standard    ResolvedTier  `json:"standard"`
	ExtraBooks  ResolvedTier  `json:"extra_books"`
	Diagnostics []Diagnostic  `json:"diagnostics,omitempty"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// IsEvaluable reports whether any tier may be evaluated at all
func (r SettingsResolution) IsEvaluable() bool {
	return r.State == SettingsStateActive
}

// Tier returns the resolved tier of the given type
func (r SettingsResolution) Tier(t CommissionType) ResolvedTier {
	switch t {
	case CommissionTypeEarly:
		return r.Early
	case CommissionTypeStandard:
		return r.Standard
	case CommissionTypeExtraBooks:
		return r.ExtraBooks
	}
	return ResolvedTier{Type: t}
}

// ResolveSettings validates an event's settings row. A nil row resolves to
// NotConfigured. Deadlines are never defaulted: an enabled time tier without a
// deadline is a configuration error and the tier is unusable.
func ResolveSettings(eventID uuid.UUID, settings *CommissionSettings) SettingsResolution {
	res := SettingsResolution{
		EventID:    eventID,
		Early:      ResolvedTier{Type: CommissionTypeEarly},
		Standard:   ResolvedTier{Type: CommissionTypeStandard},
		ExtraBooks: ResolvedTier{Type: CommissionTypeExtraBooks},
	}

	if settings == nil {
		res.State = SettingsStateNotConfigured
		res.Diagnostics = append(res.Diagnostics,
			NewConfigurationError(CodeSettingsNotConfigured, "No commission settings exist for this event"))
		return res
	}

	res.UpdatedAt = settings.UpdatedAt
	if settings.CommissionEnabled {
		res.State = SettingsStateActive
	} else {
		res.State = SettingsStateDisabled
		res.Diagnostics = append(res.Diagnostics,
			NewConfigurationError(CodeCommissionDisabled, "Commission is disabled for this event"))
	}

	var diags []Diagnostic
	res.Early, diags = resolveTier(CommissionTypeEarly, settings.Early)
	res.Diagnostics = append(res.Diagnostics, diags...)
	res.Standard, diags = resolveTier(CommissionTypeStandard, settings.Standard)
	res.Diagnostics = append(res.Diagnostics, diags...)
	res.ExtraBooks, diags = resolveTier(CommissionTypeExtraBooks, settings.ExtraBooks)
	res.Diagnostics = append(res.Diagnostics, diags...)

	return res
}

func resolveTier(t CommissionType, cfg TierConfig) (ResolvedTier, []Diagnostic) {
	tier := ResolvedTier{Type: t, Enabled: cfg.Enabled}
	if !cfg.Enabled {
		return tier, nil
	}

	var diags []Diagnostic
	usable := true

	percent, err := valueobject.NewPercentage(cfg.Percent)
	if err != nil {
		usable = false
		diags = append(diags, NewTierConfigurationError(t, CodeInvalidPercent,
			fmt.Sprintf("Tier %s has an invalid percent: %v", t, err)))
	}
	tier.Percent = percent

	if t.IsTimeBased() {
		switch {
		case cfg.Deadline == nil || *cfg.Deadline == "":
			usable = false
			diags = append(diags, NewTierConfigurationError(t, CodeMissingDeadline,
				fmt.Sprintf("Tier %s is enabled but has no deadline", t)))
		default:
			deadline, err := valueobject.ParseISODate(*cfg.Deadline)
			if err != nil {
				usable = false
				d := NewDataQualityError(CodeInvalidDeadline,
					fmt.Sprintf("Tier %s deadline %q is not a YYYY-MM-DD date", t, *cfg.Deadline))
				d.Tier = &t
				diags = append(diags, d)
			} else {
				tier.Deadline = &deadline
			}
		}
	}

	tier.Usable = usable
	return tier, diags
}
