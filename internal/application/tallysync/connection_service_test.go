package tallysync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tallybridge/backend/internal/domain/master"
	"github.com/tallybridge/backend/internal/infrastructure/tally"
)

func findCheck(t *testing.T, report *ConnectionReport, name string) ConnectionCheck {
	t.Helper()
	for _, c := range report.Checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("report has no check named %q", name)
	return ConnectionCheck{}
}

func TestConnectionServiceValidateConnection(t *testing.T) {
	ctx := context.Background()

	t.Run("reports healthy when every probe passes", func(t *testing.T) {
		gateway := &fakeGateway{enabled: true, company: "Demo Traders"}
		gateway.exists = map[string]master.ExistenceResult{
			gatewayKey(master.KindGroup, "Sundry Debtors"):  {Exists: true, Success: true},
			gatewayKey(master.KindGodown, "Main Location"):  {Exists: true, Success: true},
			gatewayKey(master.KindLedger, "Sales"):          {Exists: true, Success: true},
			gatewayKey(master.KindLedger, "CGST Output"):    {Exists: true, Success: true},
			gatewayKey(master.KindLedger, "SGST Output"):    {Exists: true, Success: true},
			gatewayKey(master.KindLedger, "IGST Output"):    {Exists: true, Success: true},
			gatewayKey(master.KindLedger, "Round Off"):      {Exists: true, Success: true},
		}
		svc := NewConnectionService(gateway, testTallyConfig(), zap.NewNop())

		report := svc.ValidateConnection(ctx)

		assert.True(t, report.Healthy)
		assert.Equal(t, "TallyPrime Server 4.1", report.Version)
		assert.Equal(t, "http://localhost:9000", report.URL)
		assert.Equal(t, CheckOK, findCheck(t, report, "integration").Status)
		assert.Equal(t, CheckOK, findCheck(t, report, "connectivity").Status)
		assert.Equal(t, CheckOK, findCheck(t, report, "company").Status)
		assert.Equal(t, CheckOK, findCheck(t, report, "sales ledger").Status)
		require.Len(t, report.Checks, 10)
	})

	t.Run("disabled integration fails immediately", func(t *testing.T) {
		gateway := &fakeGateway{enabled: false}
		svc := NewConnectionService(gateway, testTallyConfig(), zap.NewNop())

		report := svc.ValidateConnection(ctx)

		assert.False(t, report.Healthy)
		require.Len(t, report.Checks, 1)
		assert.Equal(t, CheckFail, report.Checks[0].Status)
	})

	t.Run("an unreachable gateway fails the connectivity check", func(t *testing.T) {
		gateway := &fakeGateway{enabled: true, connErr: errors.New("connection refused")}
		svc := NewConnectionService(gateway, testTallyConfig(), zap.NewNop())

		report := svc.ValidateConnection(ctx)

		assert.False(t, report.Healthy)
		check := findCheck(t, report, "connectivity")
		assert.Equal(t, CheckFail, check.Status)
		assert.Equal(t, "connection refused", check.Detail)
	})

	t.Run("missing masters and a company mismatch degrade to warnings", func(t *testing.T) {
		gateway := &fakeGateway{
			enabled: true,
			company: "Demo Traders",
			companyCheck: &tally.CompanyCheck{
				ActiveCompany:     "Other Traders",
				ConfiguredCompany: "Demo Traders",
				Matches:           false,
				Warning:           "configured company 'Demo Traders' is not loaded, active company is 'Other Traders'",
			},
		}
		svc := NewConnectionService(gateway, testTallyConfig(), zap.NewNop())

		report := svc.ValidateConnection(ctx)

		// Warnings never flip the report unhealthy
		assert.True(t, report.Healthy)
		assert.Equal(t, CheckWarn, findCheck(t, report, "company").Status)
		sales := findCheck(t, report, "sales ledger")
		assert.Equal(t, CheckWarn, sales.Status)
		assert.Contains(t, sales.Detail, "does not exist in tally")
	})
}
