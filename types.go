package main

import (
	"errors"
	"math"
	"time"
)

// ContentType tags what kind of scrap an item is
type ContentType string

const (
	TypeTwitter     ContentType = "twitter"
	TypeInstagram   ContentType = "instagram"
	TypePinterest   ContentType = "pinterest"
	TypeBook        ContentType = "book"
	TypeYouTube     ContentType = "youtube"
	TypeFashion     ContentType = "fashion"
	TypeChat        ContentType = "chat"
	TypeTicket      ContentType = "ticket"
	TypeBoarding    ContentType = "boarding"
	TypeReceipt     ContentType = "receipt"
	TypeToploader   ContentType = "toploader"
	TypeCupSleeve   ContentType = "cupsleeve"
	TypeNote        ContentType = "note"
	TypeGeneral     ContentType = "general"
	TypeSticker     ContentType = "sticker"
	TypeTape        ContentType = "tape"
	TypeMovingPhoto ContentType = "moving_photo"
	TypeProfile     ContentType = "profile"
	TypeTodo        ContentType = "todo"
	TypeOhaAsa      ContentType = "ohaasa"
	TypeNaver       ContentType = "naver"
	TypeNaverBlog   ContentType = "naver_blog"
	TypePostype     ContentType = "postype"
)

// AllContentTypes lists every known content type in declaration order
var AllContentTypes = []ContentType{
	TypeTwitter, TypeInstagram, TypePinterest, TypeBook, TypeYouTube, TypeFashion,
	TypeChat, TypeTicket, TypeBoarding, TypeReceipt, TypeToploader, TypeCupSleeve,
	TypeNote, TypeGeneral, TypeSticker, TypeTape, TypeMovingPhoto, TypeProfile,
	TypeTodo, TypeOhaAsa, TypeNaver, TypeNaverBlog, TypePostype,
}

// Valid reports whether t is one of the known content types
func (t ContentType) Valid() bool {
	for _, known := range AllContentTypes {
		if t == known {
			return true
		}
	}
	return false
}

// BorderStyle is the cosmetic frame drawn around an item
type BorderStyle string

const (
	BorderNone   BorderStyle = "none"
	BorderStitch BorderStyle = "stitch"
	BorderMarker BorderStyle = "marker"
	BorderTape   BorderStyle = "tape"
	BorderShadow BorderStyle = "shadow"
)

// Valid reports whether s is a known border style
func (s BorderStyle) Valid() bool {
	switch s {
	case BorderNone, BorderStitch, BorderMarker, BorderTape, BorderShadow:
		return true
	}
	return false
}

const (
	MinScale     = 0.3
	MaxScale     = 4.0
	DefaultScale = 0.5
)

// ClampScale pins a scale multiplier into [MinScale, MaxScale]. NaN maps to
// DefaultScale.
func ClampScale(scale float64) float64 {
	if math.IsNaN(scale) {
		return DefaultScale
	}
	return max(MinScale, min(MaxScale, scale))
}

// finiteOr returns v unless it is NaN or infinite
func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

// Position places an item on the canvas
type Position struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        int     `json:"z"`
	Rotation float64 `json:"rotation"`
	Scale    float64 `json:"scale"`
}

// PositionPatch carries the position fields a caller wants to change.
// Z is not patchable, stacking order only moves through BringToFront.
type PositionPatch struct {
	X        *float64 `json:"x,omitempty"`
	Y        *float64 `json:"y,omitempty"`
	Rotation *float64 `json:"rotation,omitempty"`
	Scale    *float64 `json:"scale,omitempty"`
}

// ScrapItem is a single placed object on the board
type ScrapItem struct {
	ID          string      `json:"id"`
	Type        ContentType `json:"type"`
	Metadata    Metadata    `json:"metadata"`
	Position    Position    `json:"position"`
	CreatedAt   int64       `json:"createdAt"`
	ScopeKey    string      `json:"diaryDate"`
	BorderStyle BorderStyle `json:"borderStyle,omitempty"`
	IsMainItem  bool        `json:"isMainItem,omitempty"`
	IsFavorite  bool        `json:"isFavorite,omitempty"`
}

// CreatedTime returns CreatedAt as a time.Time
func (i ScrapItem) CreatedTime() time.Time {
	return time.UnixMilli(i.CreatedAt)
}

// ProcessingStatus represents the outcome status of an intake
type ProcessingStatus string

const (
	StatusSuccess ProcessingStatus = "success"
	StatusSkipped ProcessingStatus = "skipped"
	StatusError   ProcessingStatus = "error"
)

// ProcessingResult tracks the outcome of processing each URL
type ProcessingResult struct {
	URL    string
	Status ProcessingStatus
	ItemID string
	Error  error
}

var (
	// ErrInvalidURL is returned when a caller passes something that is not an absolute http(s) URL
	ErrInvalidURL = errors.New("invalid URL: must be an absolute http(s) URL")

	// ErrUnsupportedSite is returned by intake when the classifier only recognises a generic link
	ErrUnsupportedSite = errors.New("unsupported site")

	// ErrMetadataUnavailable is returned by intake when resolution fell back to the placeholder
	ErrMetadataUnavailable = errors.New("could not load metadata")

	// ErrConfigMismatch is returned when a metadata config block does not belong to the item type
	ErrConfigMismatch = errors.New("metadata config does not match content type")

	// ErrItemNotFound is returned by lookups that need an existing item
	ErrItemNotFound = errors.New("item not found")
)
