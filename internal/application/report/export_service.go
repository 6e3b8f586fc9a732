// Package report renders operational data as downloadable workbooks so
// accounting teams can reconcile sync activity outside the service.
package report

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tallybridge/backend/internal/domain/master"
	"github.com/tallybridge/backend/internal/domain/shared"
	"github.com/tallybridge/backend/internal/domain/sync"
)

// xlsxContentType is the MIME type browsers expect for .xlsx downloads
const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// exportRowLimit bounds a single workbook. Narrower filters are the way
// to get at anything beyond it.
const exportRowLimit = 10000

const (
	syncLogSheet = "Sync Logs"
	cacheSheet   = "Cached Masters"
)

// ExportFile is a rendered workbook ready to stream as a download
type ExportFile struct {
	Name        string
	ContentType string
	Content     []byte
}

// ExportService builds xlsx exports of the transmission logs and the
// existence cache
type ExportService struct {
	syncLogs sync.SyncLogRepository
	cache    master.CachedMasterRepository
}

// NewExportService creates a new ExportService
func NewExportService(syncLogs sync.SyncLogRepository, cache master.CachedMasterRepository) *ExportService {
	return &ExportService{
		syncLogs: syncLogs,
		cache:    cache,
	}
}

// ExportSyncLogs renders the transmission logs matching the filter as a
// workbook, newest first. Paging on the filter is ignored; the export is
// capped at the row limit instead.
func (s *ExportService) ExportSyncLogs(ctx context.Context, filter shared.Filter) (*ExportFile, error) {
	filter.Page = 1
	filter.PageSize = exportRowLimit

	logs, err := s.syncLogs.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load sync logs for export: %w", err)
	}

	f, err := newWorkbook(syncLogSheet)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header := []interface{}{
		"ID", "Created At", "Sync Type", "Document Type", "Document Name",
		"Company", "Status", "Response Code", "Response At", "Error Type",
		"Error Message", "Voucher Number", "Archive Key",
	}
	if err := writeRow(f, syncLogSheet, 1, header); err != nil {
		return nil, err
	}

	for i := range logs {
		log := &logs[i]
		row := []interface{}{
			log.ID.String(),
			log.CreatedAt.Format(time.RFC3339),
			string(log.SyncType),
			log.DocumentType,
			log.DocumentName,
			log.Company,
			log.Status.String(),
			log.ResponseStatusCode,
			formatOptionalTime(log.ResponseAt),
			string(log.ErrorType),
			log.ErrorMessage,
			log.VoucherNumber,
			log.ArchiveKey,
		}
		if err := writeRow(f, syncLogSheet, i+2, row); err != nil {
			return nil, err
		}
	}

	return renderWorkbook(f, "sync-logs")
}

// ExportCachedMasters renders the existence cache matching the filter as a
// workbook, grouped by kind then name
func (s *ExportService) ExportCachedMasters(ctx context.Context, filter shared.Filter) (*ExportFile, error) {
	filter.Page = 1
	filter.PageSize = exportRowLimit

	masters, err := s.cache.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load cached masters for export: %w", err)
	}

	f, err := newWorkbook(cacheSheet)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header := []interface{}{
		"Kind", "Name", "Parent", "Active", "Source", "Last Synced At", "Age Hours",
	}
	if err := writeRow(f, cacheSheet, 1, header); err != nil {
		return nil, err
	}

	now := time.Now()
	for i := range masters {
		m := &masters[i]
		row := []interface{}{
			string(m.Kind),
			m.Name,
			m.Parent,
			m.IsActive,
			m.Source,
			m.LastSyncedAt.Format(time.RFC3339),
			math.Round(m.Age(now).Hours()*10) / 10,
		}
		if err := writeRow(f, cacheSheet, i+2, row); err != nil {
			return nil, err
		}
	}

	return renderWorkbook(f, "cached-masters")
}

// newWorkbook creates a workbook whose only sheet carries the given name
func newWorkbook(sheet string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create worksheet: %w", err)
	}
	return f, nil
}

// writeRow writes one row of values starting at column A
func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to address row %d: %w", row, err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

func renderWorkbook(f *excelize.File, prefix string) (*ExportFile, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return &ExportFile{
		Name:        prefix + "-" + time.Now().Format("20060102-150405") + ".xlsx",
		ContentType: xlsxContentType,
		Content:     buf.Bytes(),
	}, nil
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
