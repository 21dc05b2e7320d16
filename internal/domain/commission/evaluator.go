package commission

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/ticketbook/backend/internal/domain/shared/valueobject"
)

// SkipReason explains why a book produced no commission at all
type SkipReason string

const (
	SkipReasonNone                  SkipReason = ""
	SkipReasonSettingsNotConfigured SkipReason = "settings_not_configured"
	SkipReasonCommissionDisabled    SkipReason = "commission_disabled"
	SkipReasonNotFullyPaid          SkipReason = "not_fully_paid"
	SkipReasonMissingAttribution    SkipReason = "missing_attribution"
	SkipReasonNoPayments            SkipReason = "no_payments"
	SkipReasonNoTierMatched         SkipReason = "no_tier_matched"
)

// Eligibility is one commission fact a book has earned
type Eligibility struct {
	Type           CommissionType         `json:"commission_type"`
	Percent        valueobject.Percentage `json:"percent"`
	BasisAmount    decimal.Decimal        `json:"basis_amount"`
	QualifyingDate valueobject.Date       `json:"qualifying_date"`
}

// CommissionAmount returns round(basis * percent / 100, 2), per tier
func (e Eligibility) CommissionAmount() decimal.Decimal {
	return e.Percent.Of(e.BasisAmount)
}

// EvaluationInput is everything the evaluator reads for one book
type EvaluationInput struct {
	Book         *Book
	Distribution *Distribution // nil when the book was never placed
	Aggregate    AggregateResult
	Settings     SettingsResolution
}

// Evaluation is the eligible tier set for one book.
// Eligible is empty whenever SkipReason is set.
type Evaluation struct {
	Eligible    []Eligibility `json:"eligible"`
	SkipReason  SkipReason    `json:"skip_reason,omitempty"`
	Diagnostics []Diagnostic  `json:"diagnostics,omitempty"`
}

// IsEligible reports whether at least one tier fired
func (e Evaluation) IsEligible() bool {
	return len(e.Eligible) > 0
}

// Has reports whether the given tier fired
func (e Evaluation) Has(t CommissionType) bool {
	for _, el := range e.Eligible {
		if el.Type == t {
			return true
		}
	}
	return false
}

// Evaluate decides which commission tiers a book has earned. It is a total,
// pure function of its input. extra_books composes with the time tiers;
// early and standard are mutually exclusive with early checked first.
func Evaluate(in EvaluationInput) Evaluation {
	switch in.Settings.State {
	case SettingsStateNotConfigured:
		return skip(SkipReasonSettingsNotConfigured)
	case SettingsStateDisabled:
		return skip(SkipReasonCommissionDisabled)
	}

	if !in.Aggregate.IsFullyPaid() {
		return skip(SkipReasonNotFullyPaid)
	}

	if in.Distribution == nil {
		ev := skip(SkipReasonMissingAttribution)
		ev.Diagnostics = append(ev.Diagnostics, NewDataQualityError(CodeMissingDistribution,
			fmt.Sprintf("Book %s is fully paid but has no distribution", in.Book.BookNumber)))
		return ev
	}
	if !in.Distribution.HasAttribution() {
		ev := skip(SkipReasonMissingAttribution)
		ev.Diagnostics = append(ev.Diagnostics, NewDataQualityError(CodeEmptyAttribution,
			fmt.Sprintf("Book %s is fully paid but distribution path %q has an empty first level",
				in.Book.BookNumber, in.Distribution.DistributionPath)))
		return ev
	}

	if in.Aggregate.LastPaymentDate == nil {
		return skip(SkipReasonNoPayments)
	}
	lastPaid := *in.Aggregate.LastPaymentDate
	basis := in.Aggregate.TotalPaid

	ev := Evaluation{Eligible: make([]Eligibility, 0, 2)}

	if tier := in.Settings.ExtraBooks; in.Book.IsExtraBook && tier.Usable {
		ev.Eligible = append(ev.Eligible, eligibility(tier, basis, lastPaid))
	}

	if tier, ok := timeTier(in.Settings, lastPaid); ok {
		ev.Eligible = append(ev.Eligible, eligibility(tier, basis, lastPaid))
	}

	if len(ev.Eligible) == 0 {
		ev.SkipReason = SkipReasonNoTierMatched
	}
	return ev
}

// timeTier returns the single time-based tier that fires, if any
func timeTier(settings SettingsResolution, lastPaid valueobject.Date) (ResolvedTier, bool) {
	for _, tier := range []ResolvedTier{settings.Early, settings.Standard} {
		if !tier.Usable || tier.Deadline == nil {
			continue
		}
		if lastPaid.OnOrBefore(*tier.Deadline) {
			return tier, true
		}
	}
	return ResolvedTier{}, false
}

func eligibility(tier ResolvedTier, basis decimal.Decimal, date valueobject.Date) Eligibility {
	return Eligibility{
		Type:           tier.Type,
		Percent:        tier.Percent,
		BasisAmount:    basis,
		QualifyingDate: date,
	}
}

func skip(reason SkipReason) Evaluation {
	return Evaluation{Eligible: []Eligibility{}, SkipReason: reason}
}
