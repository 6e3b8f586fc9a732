package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tallybridge/backend/internal/application/tallysync"
)

// Ensure PayloadArchive implements the application port
var _ tallysync.PayloadArchive = (*PayloadArchive)(nil)

// PayloadArchive copies transmission payloads into object storage for
// audit retention. Objects land under synclogs/<id>/.
type PayloadArchive struct {
	backend Backend
	logger  *zap.Logger
}

// NewPayloadArchive creates a payload archive over a backend
func NewPayloadArchive(backend Backend, logger *zap.Logger) *PayloadArchive {
	return &PayloadArchive{backend: backend, logger: logger}
}

// ArchivePayloads writes the request and response XML of one sync log and
// returns the common key prefix. Empty payloads are skipped so a log that
// never got a reply archives only what it has.
func (a *PayloadArchive) ArchivePayloads(ctx context.Context, syncLogID uuid.UUID, requestXML, responseXML string) (string, error) {
	if syncLogID == uuid.Nil {
		return "", errors.New("sync log id is required")
	}

	prefix := "synclogs/" + syncLogID.String()

	if requestXML != "" {
		if err := a.backend.Upload(ctx, prefix+"/request.xml", []byte(requestXML), "application/xml"); err != nil {
			return "", fmt.Errorf("failed to archive request payload: %w", err)
		}
	}
	if responseXML != "" {
		if err := a.backend.Upload(ctx, prefix+"/response.xml", []byte(responseXML), "application/xml"); err != nil {
			return "", fmt.Errorf("failed to archive response payload: %w", err)
		}
	}

	a.logger.Debug("Payloads archived",
		zap.String("sync_log_id", syncLogID.String()),
		zap.String("key", prefix),
	)
	return prefix, nil
}
