package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tallybridge/backend/internal/application/masters"
	"github.com/tallybridge/backend/internal/application/report"
	"github.com/tallybridge/backend/internal/domain/master"
	"github.com/tallybridge/backend/internal/domain/shared"
	"github.com/tallybridge/backend/internal/interfaces/http/dto"
)

// MasterCacheHandler handles master existence lookups and the cache
// admin surface
type MasterCacheHandler struct {
	BaseHandler
	cacheService  *masters.CacheService
	exportService *report.ExportService
}

// NewMasterCacheHandler creates a new master cache handler
func NewMasterCacheHandler(cacheService *masters.CacheService, exportService *report.ExportService) *MasterCacheHandler {
	return &MasterCacheHandler{
		cacheService:  cacheService,
		exportService: exportService,
	}
}


// Lookup godoc
// @ID           lookupMaster
// @Summary      Look up a master in the cache
// @Description  Answer an existence question from the local cache alone. A missing row is a confident miss; a stale row still answers but is flagged with its age.
// @Tags         masters
// @Produce      json
// @Param        kind query string true "Master kind" Enums(Group, Ledger, StockGroup, StockItem, Godown, Unit, GSTClassification)
// @Param        name query string true "Master name"
// @Success      200 {object} APIResponse[master.LookupResult]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /masters/lookup [get]
func (h *MasterCacheHandler) Lookup(c *gin.Context) {
	query, ok := h.bindLookup(c)
	if !ok {
		return
	}

	result, err := h.cacheService.Lookup(c.Request.Context(), master.Kind(query.Kind), query.Name)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}


// SmartLookup godoc
// @ID           smartLookupMaster
// @Summary      Look up a master, asking Tally when needed
// @Description  Prefer a fresh cache hit, ask the live gateway otherwise, and degrade to the stale cache answer when the gateway cannot answer. Only a cache miss with the gateway unreachable yields success=false.
// @Tags         masters
// @Produce      json
// @Param        kind query string true "Master kind" Enums(Group, Ledger, StockGroup, StockItem, Godown, Unit, GSTClassification)
// @Param        name query string true "Master name"
// @Success      200 {object} APIResponse[master.LookupResult]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /masters/smart-lookup [get]
func (h *MasterCacheHandler) SmartLookup(c *gin.Context) {
	query, ok := h.bindLookup(c)
	if !ok {
		return
	}

	result, err := h.cacheService.SmartLookup(c.Request.Context(), master.Kind(query.Kind), query.Name)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}


// BatchCheck godoc
// @ID           batchCheckMasters
// @Summary      Check many masters at once
// @Description  Run a smart lookup over every item. Per-item failures are reported in place, never aborting the batch.
// @Tags         masters
// @Accept       json
// @Produce      json
// @Param        request body BatchCheckRequest true "Masters to check"
// @Success      200 {object} APIResponse[[]masters.BatchCheckResult]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /masters/batch-check [post]
func (h *MasterCacheHandler) BatchCheck(c *gin.Context) {
	var req BatchCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	items := make([]masters.BatchCheckItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = masters.BatchCheckItem{Kind: master.Kind(item.Kind), Name: item.Name}
	}

	h.Success(c, h.cacheService.BatchCheck(c.Request.Context(), items))
}


// Refresh godoc
// @ID           refreshCache
// @Summary      Rebuild the existence cache
// @Description  Rebuild the whole cache from bulk collection exports. The gateway is pinged first; a refresh never wipes the cache while Tally is down.
// @Tags         cache
// @Produce      json
// @Success      200 {object} APIResponse[master.RefreshStats]
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /cache/refresh [post]
func (h *MasterCacheHandler) Refresh(c *gin.Context) {
	stats, err := h.cacheService.RefreshAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}


// Seed godoc
// @ID           seedCacheEntry
// @Summary      Seed a cache entry
// @Description  Insert an operator-provided cache row. Used to pre-load masters known to exist before the first full refresh has run.
// @Tags         cache
// @Accept       json
// @Produce      json
// @Param        request body SeedCacheEntryRequest true "Cache entry"
// @Success      201 {object} APIResponse[dto.MessageResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /cache [post]
func (h *MasterCacheHandler) Seed(c *gin.Context) {
	var req SeedCacheEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.cacheService.SeedManual(c.Request.Context(), master.Kind(req.Kind), req.Name, req.Parent); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, dto.MessageResponse{Message: "Cache entry saved"})
}


// List godoc
// @ID           listCacheEntries
// @Summary      List cache entries
// @Description  Get a paginated list of cached master rows
// @Tags         cache
// @Produce      json
// @Param        kind query string false "Filter by kind"
// @Param        source query string false "Filter by provenance" Enums(auto, live, manual)
// @Param        active query bool false "Filter by active flag"
// @Param        parent query string false "Filter by parent"
// @Param        search query string false "Search in names"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Param        order_by query string false "Sort by field"
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} APIResponse[[]CachedMasterResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /cache [get]
func (h *MasterCacheHandler) List(c *gin.Context) {
	var query CacheListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	result, err := h.cacheService.List(c.Request.Context(), buildCacheFilter(query))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]CachedMasterResponse, len(result.Items))
	for i := range result.Items {
		items[i] = toCachedMasterResponse(&result.Items[i])
	}

	h.SuccessWithMeta(c, items, result.Total, result.Page, result.PageSize)
}


// Stats godoc
// @ID           getCacheStats
// @Summary      Get cache statistics
// @Description  Report active cache rows per kind
// @Tags         cache
// @Produce      json
// @Success      200 {object} APIResponse[masters.CacheStats]
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /cache/stats [get]
func (h *MasterCacheHandler) Stats(c *gin.Context) {
	stats, err := h.cacheService.Stats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}


// Export godoc
// @ID           exportCacheEntries
// @Summary      Export the cache as a workbook
// @Description  Download the cached master rows matching the filter as an xlsx workbook
// @Tags         cache
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        kind query string false "Filter by kind"
// @Param        source query string false "Filter by provenance" Enums(auto, live, manual)
// @Param        active query bool false "Filter by active flag"
// @Success      200 {file} binary
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /cache/export [get]
func (h *MasterCacheHandler) Export(c *gin.Context) {
	var query CacheListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	file, err := h.exportService.ExportCachedMasters(c.Request.Context(), buildCacheFilter(query))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+file.Name+"\"")
	c.Header("Content-Length", strconv.Itoa(len(file.Content)))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}


// bindLookup binds and validates the shared lookup query
func (h *MasterCacheHandler) bindLookup(c *gin.Context) (CacheLookupQuery, bool) {
	var query CacheLookupQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return query, false
	}
	if !master.Kind(query.Kind).IsValid() {
		h.BadRequest(c, fmt.Sprintf("Unknown master kind '%s'", query.Kind))
		return query, false
	}
	return query, true
}

// buildCacheFilter maps the listing query onto a repository filter
func buildCacheFilter(query CacheListQuery) shared.Filter {
	filter := shared.Filter{
		Page:     query.Page,
		PageSize: query.PageSize,
		OrderBy:  query.OrderBy,
		OrderDir: query.OrderDir,
		Search:   query.Search,
		Filters:  make(map[string]interface{}),
	}
	if query.Kind != "" {
		filter.Filters["kind"] = query.Kind
	}
	if query.Source != "" {
		filter.Filters["source"] = query.Source
	}
	if query.Active != nil {
		filter.Filters["is_active"] = *query.Active
	}
	if query.Parent != "" {
		filter.Filters["parent"] = query.Parent
	}
	return filter
}

// CachedMasterResponse is one cache row in API shape
type CachedMasterResponse struct {
	ID           uuid.UUID `json:"id"`
	Kind         string    `json:"kind"`
	Name         string    `json:"name"`
	Parent       string    `json:"parent,omitempty"`
	IsActive     bool      `json:"is_active"`
	LastSyncedAt time.Time `json:"last_synced_at"`
	Source       string    `json:"source"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toCachedMasterResponse(row *master.CachedMaster) CachedMasterResponse {
	return CachedMasterResponse{
		ID:           row.ID,
		Kind:         row.Kind.String(),
		Name:         row.Name,
		Parent:       row.Parent,
		IsActive:     row.IsActive,
		LastSyncedAt: row.LastSyncedAt,
		Source:       row.Source,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}
