package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// Common allowed sort fields for entities with base fields
// These are the common fields present in most entities

// CommonSortFields contains fields common to most entities
var CommonSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// UserSortFields contains allowed sort fields for users
var UserSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"email":         true,
	"name":          true,
	"role":          true,
	"active":        true,
	"last_login_at": true,
}

// CachedMasterSortFields contains allowed sort fields for cached masters
var CachedMasterSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"kind":           true,
	"name":           true,
	"parent":         true,
	"is_active":      true,
	"last_synced_at": true,
	"source":         true,
}

// CreationRequestSortFields contains allowed sort fields for creation requests
var CreationRequestSortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"master_type":     true,
	"master_name":     true,
	"parent_group":    true,
	"priority":        true,
	"status":          true,
	"request_date":    true,
	"requested_by":    true,
	"assigned_to":     true,
	"approved_by":     true,
	"approval_date":   true,
	"source_doctype":  true,
	"source_document": true,
}

// SyncLogSortFields contains allowed sort fields for sync logs
var SyncLogSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"sync_type":      true,
	"status":         true,
	"document_type":  true,
	"document_name":  true,
	"company":        true,
	"error_type":     true,
	"voucher_number": true,
	"response_at":    true,
}

// RetryJobSortFields contains allowed sort fields for retry jobs
var RetryJobSortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"operation":       true,
	"document_type":   true,
	"document_name":   true,
	"status":          true,
	"retry_count":     true,
	"next_retry_at":   true,
	"last_attempt_at": true,
}
