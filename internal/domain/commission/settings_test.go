package commission

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func diagnosticCodes(diags []Diagnostic) []string {
	codes := make([]string, len(diags))
	for i, d := range diags {
		codes[i] = d.Code
	}
	return codes
}

func TestResolveSettings_NotConfigured(t *testing.T) {
	eventID := uuid.New()
	res := ResolveSettings(eventID, nil)

	assert.Equal(t, SettingsStateNotConfigured, res.State)
	assert.False(t, res.IsEvaluable())
	assert.Equal(t, eventID, res.EventID)
	assert.Equal(t, []string{CodeSettingsNotConfigured}, diagnosticCodes(res.Diagnostics))
	assert.Equal(t, ErrorKindConfiguration, res.Diagnostics[0].Kind)
}

func TestResolveSettings_Disabled(t *testing.T) {
	settings := scenarioSettings(uuid.New())
	settings.CommissionEnabled = false

	res := ResolveSettings(settings.EventID, settings)

	assert.Equal(t, SettingsStateDisabled, res.State)
	assert.False(t, res.IsEvaluable())
	assert.Contains(t, diagnosticCodes(res.Diagnostics), CodeCommissionDisabled)
	// tiers are still resolved for diagnostics
	assert.True(t, res.Early.Usable)
}

func TestResolveSettings_Active(t *testing.T) {
	settings := scenarioSettings(uuid.New())
	settings.UpdatedAt = time.Date(2025, 11, 20, 8, 0, 0, 0, time.UTC)
	res := ResolveSettings(settings.EventID, settings)

	assert.Equal(t, SettingsStateActive, res.State)
	assert.Empty(t, res.Diagnostics)
	assert.Equal(t, settings.UpdatedAt, res.UpdatedAt)

	require.NotNil(t, res.Early.Deadline)
	assert.Equal(t, "2025-12-14", res.Early.Deadline.String())
	assert.True(t, res.Early.Usable)
	assert.True(t, dec("10").Equal(res.Early.Percent.Value()))

	require.NotNil(t, res.Standard.Deadline)
	assert.Equal(t, "2025-12-25", res.Standard.Deadline.String())

	assert.True(t, res.ExtraBooks.Usable)
	assert.Nil(t, res.ExtraBooks.Deadline)

	assert.Equal(t, res.Standard, res.Tier(CommissionTypeStandard))
}

func TestResolveSettings_MissingDeadlineFailsClosed(t *testing.T) {
	settings := scenarioSettings(uuid.New())
	settings.Early.Deadline = nil
	settings.Standard.Deadline = strPtr("")

	res := ResolveSettings(settings.EventID, settings)

	assert.Equal(t, SettingsStateActive, res.State)
	assert.False(t, res.Early.Usable)
	assert.True(t, res.Early.Enabled)
	assert.False(t, res.Standard.Usable)
	assert.Equal(t, []string{CodeMissingDeadline, CodeMissingDeadline}, diagnosticCodes(res.Diagnostics))
	require.NotNil(t, res.Diagnostics[0].Tier)
	assert.Equal(t, CommissionTypeEarly, *res.Diagnostics[0].Tier)
	assert.Equal(t, ErrorKindConfiguration, res.Diagnostics[0].Kind)
}

func TestResolveSettings_NonCanonicalDeadline(t *testing.T) {
	settings := scenarioSettings(uuid.New())
	settings.Early.Deadline = strPtr("12/14/2025")

	res := ResolveSettings(settings.EventID, settings)

	assert.False(t, res.Early.Usable)
	assert.Nil(t, res.Early.Deadline)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, CodeInvalidDeadline, res.Diagnostics[0].Code)
	assert.Equal(t, ErrorKindDataQuality, res.Diagnostics[0].Kind)
	assert.True(t, res.Standard.Usable)
}

func TestResolveSettings_InvalidPercent(t *testing.T) {
	settings := scenarioSettings(uuid.New())
	settings.ExtraBooks.Percent = dec("-1")
	settings.Standard.Percent = dec("150")

	res := ResolveSettings(settings.EventID, settings)

	assert.False(t, res.ExtraBooks.Usable)
	assert.False(t, res.Standard.Usable)
	assert.ElementsMatch(t, []string{CodeInvalidPercent, CodeInvalidPercent}, diagnosticCodes(res.Diagnostics))
}

func TestResolveSettings_DisabledTierIgnoresMissingDeadline(t *testing.T) {
	settings := scenarioSettings(uuid.New())
	settings.Early = TierConfig{Enabled: false}

	res := ResolveSettings(settings.EventID, settings)

	assert.Empty(t, res.Diagnostics)
	assert.False(t, res.Early.Usable)
	assert.False(t, res.Early.Enabled)
}
