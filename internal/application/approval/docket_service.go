package approval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tallybridge/backend/internal/domain/request"
)

// DocketRenderer turns the docket HTML into a PDF document
type DocketRenderer interface {
	RenderPDF(ctx context.Context, html, title string) ([]byte, error)
}

// DocketFile is a rendered approval docket ready for download
type DocketFile struct {
	Name        string
	ContentType string
	Content     []byte
}

// DocketService renders the printable approval docket of a creation
// request: the request fields, the workflow trail, the source document
// snapshot and the notification history, laid out for sign-off filing.
type DocketService struct {
	requests request.CreationRequestRepository
	renderer DocketRenderer
	tmpl     *template.Template
	logger   *zap.Logger
}

// NewDocketService creates the docket rendering service
func NewDocketService(requests request.CreationRequestRepository, renderer DocketRenderer, logger *zap.Logger) *DocketService {
	return &DocketService{
		requests: requests,
		renderer: renderer,
		tmpl:     template.Must(template.New("docket").Parse(docketTemplate)),
		logger:   logger,
	}
}

// RenderDocket renders the docket PDF for one request
func (s *DocketService) RenderDocket(ctx context.Context, id uuid.UUID) (*DocketFile, error) {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	data := buildDocketData(req, time.Now())

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to build docket html: %w", err)
	}

	pdf, err := s.renderer.RenderPDF(ctx, buf.String(), data.Title)
	if err != nil {
		return nil, fmt.Errorf("failed to render docket pdf: %w", err)
	}

	s.logger.Info("Approval docket rendered",
		zap.String("request_id", req.ID.String()),
		zap.String("master_name", req.MasterName),
		zap.Int("bytes", len(pdf)))

	return &DocketFile{
		Name:        fmt.Sprintf("approval-docket-%s.pdf", req.ID),
		ContentType: "application/pdf",
		Content:     pdf,
	}, nil
}

// docketField is one label/value line of a docket section
type docketField struct {
	Label string
	Value string
}

// docketHistoryRow is one line of the docket history table
type docketHistoryRow struct {
	Timestamp string
	Event     string
	Recipient string
	Channel   string
}

// docketData is the view model the docket template renders
type docketData struct {
	Title       string
	ID          string
	Status      string
	StatusClass string
	GeneratedAt string
	Request     []docketField
	Workflow    []docketField
	Outcome     []docketField
	Snapshot    []docketField
	History     []docketHistoryRow
}

const docketTimeLayout = "2006-01-02 15:04:05"

// buildDocketData maps a creation request onto the docket view model.
// Sections skip fields that were never set so a freshly raised request
// does not print a page of blanks.
func buildDocketData(req *request.CreationRequest, now time.Time) docketData {
	data := docketData{
		Title:       "Master Creation Approval Docket",
		ID:          req.ID.String(),
		Status:      req.Status.String(),
		StatusClass: strings.ToLower(strings.ReplaceAll(req.Status.String(), " ", "-")),
		GeneratedAt: now.Format(docketTimeLayout),
	}

	addDocketField(&data.Request, "Master Type", string(req.MasterType))
	addDocketField(&data.Request, "Master Name", req.MasterName)
	addDocketField(&data.Request, "Parent Group", req.ParentGroup)
	addDocketField(&data.Request, "Priority", req.Priority.String())
	addDocketField(&data.Request, "Source Doctype", req.SourceDoctype)
	addDocketField(&data.Request, "Source Document", req.SourceDocument)
	addDocketField(&data.Request, "Linked Doctype", req.LinkedDoctype)
	addDocketField(&data.Request, "Linked Transaction", req.LinkedTransaction)

	addDocketField(&data.Workflow, "Requested By", req.RequestedBy)
	addDocketField(&data.Workflow, "Request Date", req.RequestDate.Format(docketTimeLayout))
	addDocketField(&data.Workflow, "Assigned To", req.AssignedTo)
	addDocketField(&data.Workflow, "Approved By", req.ApprovedBy)
	addDocketField(&data.Workflow, "Approval Date", formatDocketTime(req.ApprovalDate))
	addDocketField(&data.Workflow, "Name Override", req.ModifiedName)
	addDocketField(&data.Workflow, "Parent Override", req.ModifiedParent)
	addDocketField(&data.Workflow, "Rejected By", req.RejectedBy)
	addDocketField(&data.Workflow, "Rejection Date", formatDocketTime(req.RejectionDate))
	addDocketField(&data.Workflow, "Rejection Reason", req.RejectionReason)

	if req.TallyMasterCreated {
		addDocketField(&data.Outcome, "Created In Tally", formatDocketTime(req.CreatedInTallyAt))
	}
	if req.SyncLogID != nil {
		addDocketField(&data.Outcome, "Sync Log", req.SyncLogID.String())
	}
	addDocketField(&data.Outcome, "Last Error", req.SyncError)

	data.Snapshot = snapshotFields(req.SourceSnapshot)

	for _, entry := range req.NotificationHistory {
		data.History = append(data.History, docketHistoryRow{
			Timestamp: entry.Timestamp.Format(docketTimeLayout),
			Event:     entry.Event,
			Recipient: entry.Recipient,
			Channel:   entry.NotificationType,
		})
	}

	return data
}

func addDocketField(fields *[]docketField, label, value string) {
	if value == "" {
		return
	}
	*fields = append(*fields, docketField{Label: label, Value: value})
}

func formatDocketTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(docketTimeLayout)
}

// snapshotFields flattens the stored source document snapshot into sorted
// label/value lines. A snapshot that is not a JSON object is printed raw
// rather than dropped.
func snapshotFields(raw []byte) []docketField {
	if len(raw) == 0 {
		return nil
	}

	var snapshot map[string]interface{}
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return []docketField{{Label: "payload", Value: string(raw)}}
	}

	keys := make([]string, 0, len(snapshot))
	for k := range snapshot {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]docketField, 0, len(keys))
	for _, k := range keys {
		addDocketField(&fields, k, snapshotValue(snapshot[k]))
	}
	return fields
}

func snapshotValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		// Nested objects and arrays stay as compact JSON
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	}
}
