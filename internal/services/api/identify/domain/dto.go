// Package domain holds DTOs for identify http and service contracts
package domain

import (
	"worlddex/internal/core/geo"
	"worlddex/internal/core/rarity"
	t2 "worlddex/internal/services/tier2/domain"
)

// Response statuses
const (
	StatusDone    = "done"
	StatusPending = "pending"
)

// Moderation rejection markers on a Tier1Result
const (
	RejectedCategory    = "person"
	RejectedSubcategory = "auto_rejected"
)

// Stream event names
const (
	EventCompleted = "completed"
	EventFailed    = "failed"
	EventError     = "error"
)

// IdentifyInput is one capture, imageData may be raw base64 or a data url
type IdentifyInput struct {
	ImageData         string     `json:"imageData"                   validate:"required" example:"/9j/4AAQSkZJRgABAQ..."`
	ContentType       string     `json:"contentType"                 validate:"required,max=100" example:"image/jpeg"`
	GPS               *geo.Point `json:"gps,omitempty"`
	ActiveCollections []string   `json:"activeCollections,omitempty" validate:"omitempty,max=32,dive,min=1,max=100" example:"Organisms,Stanford"` //nolint:lll
}

// Tier1Result is the coarse classification
// a nil Label means nothing identifiable, it is never an error
type Tier1Result struct {
	Label       *string     `json:"label"       example:"Golden Retriever"`
	Category    *string     `json:"category"    example:"animal"`
	Subcategory *string     `json:"subcategory" example:"dog"`
	RarityScore *float64    `json:"rarityScore" example:"42"`
	RarityTier  rarity.Tier `json:"rarityTier"  example:"common"`
	XPValue     int         `json:"xpValue"     example:"5"`
}

// Rejected reports whether moderation blocked the label
func (r Tier1Result) Rejected() bool {
	return r.Subcategory != nil && *r.Subcategory == RejectedSubcategory
}

// IdentifyOutput is the POST /identify response
type IdentifyOutput struct {
	Status string      `json:"status"          example:"pending"`
	Tier1  Tier1Result `json:"tier1"`
	JobID  string      `json:"jobId,omitempty" example:"6f1c2b9e-2d7c-4c1e-9a51-0d7f8f1f3c2a"`
	Tier2  *t2.Result  `json:"tier2,omitempty"`
}

// StreamEvent is the single terminal frame of a job stream
type StreamEvent struct {
	Event string `json:"event" example:"completed"`
	Data  any    `json:"data"`
}
