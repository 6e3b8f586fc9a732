package tallysync

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tallybridge/backend/internal/domain/master"
	"github.com/tallybridge/backend/internal/infrastructure/config"
)

// ConnectionService verifies the gateway end to end: liveness, the loaded
// company, and the configured masters every push depends on
type ConnectionService struct {
	gateway Gateway
	cfg     config.TallyConfig
	logger  *zap.Logger
}

// NewConnectionService creates a connection service
func NewConnectionService(gateway Gateway, cfg config.TallyConfig, logger *zap.Logger) *ConnectionService {
	return &ConnectionService{gateway: gateway, cfg: cfg, logger: logger}
}

type requiredMaster struct {
	label string
	name  string
	kind  master.Kind
}

// ValidateConnection runs every check and grades them. Missing optional
// masters are warnings; an unreachable gateway or disabled integration is
// a failure.
func (s *ConnectionService) ValidateConnection(ctx context.Context) *ConnectionReport {
	report := &ConnectionReport{Company: s.cfg.Company}

	if !s.gateway.Enabled() {
		report.Checks = append(report.Checks, ConnectionCheck{
			Name:   "integration",
			Status: CheckFail,
			Detail: "tally integration is disabled in settings",
		})
		return report
	}
	report.Checks = append(report.Checks, ConnectionCheck{Name: "integration", Status: CheckOK, Detail: "enabled"})

	conn, err := s.gateway.Connectivity(ctx)
	if err != nil {
		report.Checks = append(report.Checks, ConnectionCheck{
			Name:   "connectivity",
			Status: CheckFail,
			Detail: err.Error(),
		})
		return report
	}
	report.Version = conn.Version
	report.URL = conn.URL
	report.Checks = append(report.Checks, ConnectionCheck{Name: "connectivity", Status: CheckOK, Detail: conn.Version})

	check, err := s.gateway.VerifyCompany(ctx)
	switch {
	case err != nil:
		report.Checks = append(report.Checks, ConnectionCheck{Name: "company", Status: CheckWarn, Detail: err.Error()})
	case !check.Matches:
		report.Checks = append(report.Checks, ConnectionCheck{Name: "company", Status: CheckWarn, Detail: check.Warning})
	default:
		report.Checks = append(report.Checks, ConnectionCheck{Name: "company", Status: CheckOK, Detail: check.ActiveCompany})
	}

	for _, m := range s.requiredMasters() {
		res, err := s.gateway.CheckExists(ctx, m.kind, m.name)
		switch {
		case err != nil || !res.Success:
			report.Checks = append(report.Checks, ConnectionCheck{
				Name:   m.label,
				Status: CheckWarn,
				Detail: fmt.Sprintf("'%s' could not be verified", m.name),
			})
		case res.Exists:
			report.Checks = append(report.Checks, ConnectionCheck{Name: m.label, Status: CheckOK, Detail: m.name})
		default:
			report.Checks = append(report.Checks, ConnectionCheck{
				Name:   m.label,
				Status: CheckWarn,
				Detail: fmt.Sprintf("'%s' does not exist in tally", m.name),
			})
		}
	}

	report.Healthy = true
	for _, c := range report.Checks {
		if c.Status == CheckFail {
			report.Healthy = false
			break
		}
	}

	s.logger.Info("Connection validation finished",
		zap.Bool("healthy", report.Healthy),
		zap.Int("checks", len(report.Checks)))
	return report
}

// requiredMasters lists the configured masters worth probing. Blank
// settings are skipped rather than reported.
func (s *ConnectionService) requiredMasters() []requiredMaster {
	var masters []requiredMaster
	add := func(label, name string, kind master.Kind) {
		if name != "" {
			masters = append(masters, requiredMaster{label: label, name: name, kind: kind})
		}
	}
	add("customer group", s.cfg.DefaultCustomerGroup, master.KindGroup)
	add("supplier group", s.cfg.DefaultSupplierGroup, master.KindGroup)
	add("stock group", s.cfg.DefaultStockGroup, master.KindStockGroup)
	add("godown", s.cfg.DefaultGodown, master.KindGodown)
	add("sales ledger", s.cfg.SalesLedger, master.KindLedger)
	add("cgst ledger", s.cfg.CGSTLedger, master.KindLedger)
	add("sgst ledger", s.cfg.SGSTLedger, master.KindLedger)
	add("igst ledger", s.cfg.IGSTLedger, master.KindLedger)
	add("round off ledger", s.cfg.RoundOffLedger, master.KindLedger)
	return masters
}
