package handler

// CacheLookupQuery identifies one master to look up
type CacheLookupQuery struct {
	Kind string `form:"kind" binding:"required,max=50"`
	Name string `form:"name" binding:"required,max=255"`
}

// BatchCheckItemRequest names one master inside a batch check
type BatchCheckItemRequest struct {
	Kind string `json:"kind" binding:"required,max=50"`
	Name string `json:"name" binding:"required,max=255"`
}

// BatchCheckRequest carries the masters to check in one call
type BatchCheckRequest struct {
	Items []BatchCheckItemRequest `json:"items" binding:"required,min=1,max=100,dive"`
}

// SeedCacheEntryRequest seeds one cache row by hand
type SeedCacheEntryRequest struct {
	Kind   string `json:"kind" binding:"required,max=50"`
	Name   string `json:"name" binding:"required,max=255"`
	Parent string `json:"parent" binding:"omitempty,max=255"`
}

// CacheListQuery filters the cache admin listing and the cache export
type CacheListQuery struct {
	Kind     string `form:"kind" binding:"omitempty,max=50"`
	Source   string `form:"source" binding:"omitempty,oneof=auto live manual"`
	Active   *bool  `form:"active" binding:"omitempty"`
	Parent   string `form:"parent" binding:"omitempty,max=255"`
	Search   string `form:"search" binding:"omitempty,max=255"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=kind name parent source is_active last_synced_at created_at updated_at"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}
