package main

import (
	"encoding/json"
	"fmt"
)

// PlaceholderTitle is the title of the payload the resolver falls back to
const PlaceholderTitle = "New Scrap Object"

// Metadata is the resolved descriptive payload of a scrap
type Metadata struct {
	Title       string
	Subtitle    string
	Description string
	ImageURL    string
	VideoURL    string
	URL         string
	ThemeColor  string
	IsEditable  bool

	// Config holds the single type-specific block, nil when the type has none
	Config TypeConfig
}

// IsPlaceholder reports whether m is the resolver's fallback payload.
// Prefer ResolvedMetadata.Fallback when the resolution result is at hand.
func IsPlaceholder(m *Metadata) bool {
	return m == nil || m.Title == "" || m.Title == PlaceholderTitle
}

// MetadataPatch carries the metadata fields a caller wants to change
type MetadataPatch struct {
	Title       *string    `json:"title,omitempty"`
	Subtitle    *string    `json:"subtitle,omitempty"`
	Description *string    `json:"description,omitempty"`
	ImageURL    *string    `json:"imageUrl,omitempty"`
	VideoURL    *string    `json:"videoUrl,omitempty"`
	ThemeColor  *string    `json:"themeColor,omitempty"`
	Config      TypeConfig `json:"-"`
}

func (m Metadata) apply(p MetadataPatch) Metadata {
	if p.Title != nil {
		m.Title = *p.Title
	}
	if p.Subtitle != nil {
		m.Subtitle = *p.Subtitle
	}
	if p.Description != nil {
		m.Description = *p.Description
	}
	if p.ImageURL != nil {
		m.ImageURL = *p.ImageURL
	}
	if p.VideoURL != nil {
		m.VideoURL = *p.VideoURL
	}
	if p.ThemeColor != nil {
		m.ThemeColor = *p.ThemeColor
	}
	if p.Config != nil {
		m.Config = p.Config
	}
	return m
}

// TypeConfig is the tagged union of per-type config blocks. Kind names the
// content type the block belongs to. Blocks are shared between board
// snapshots and the metadata cache, so they are never mutated in place:
// updates swap in a new block.
type TypeConfig interface {
	Kind() ContentType
}

type YouTubeConfig struct {
	Mode      string `json:"mode"` // "cd" or "player"
	StartTime int    `json:"startTime,omitempty"`
}

type TicketConfig struct {
	Date   string `json:"date"`
	Time   string `json:"time"`
	Seat   string `json:"seat"`
	Cinema string `json:"cinema"`
}

type BoardingConfig struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Flight string `json:"flight"`
	Seat   string `json:"seat"`
	Date   string `json:"date"`
	Gate   string `json:"gate"`
	Color  string `json:"color"`
}

type ReceiptLine struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

type ReceiptConfig struct {
	Items []ReceiptLine `json:"items"`
	Total string        `json:"total"`
	Date  string        `json:"date"`
}

type ToploaderSticker struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Emoji    string  `json:"emoji"`
	Rotation float64 `json:"rotation"`
}

type ToploaderConfig struct {
	Stickers []ToploaderSticker `json:"stickers"`
}

type CupSleeveConfig struct {
	CafeName  string `json:"cafeName"`
	EventDate string `json:"eventDate"`
}

type FashionConfig struct {
	Brand string `json:"brand"`
	Price string `json:"price"`
	Size  string `json:"size,omitempty"`
}

// NoteConfig is the handwritten note block
type NoteConfig struct {
	Text     string `json:"text"`
	Color    string `json:"color,omitempty"`
	FontSize string `json:"fontSize,omitempty"`
}

type StickerConfig struct {
	Emoji string `json:"emoji"`
}

type TapeConfig struct {
	Color   string `json:"color"`
	Pattern string `json:"pattern,omitempty"` // solid, stripe or grid
}

type ProfileConfig struct {
	Name   string   `json:"name"`
	Status string   `json:"status"`
	Tags   []string `json:"tags"`
}

type TodoEntry struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

type TodoConfig struct {
	Items []TodoEntry `json:"items"`
}

func (*YouTubeConfig) Kind() ContentType   { return TypeYouTube }
func (*TicketConfig) Kind() ContentType    { return TypeTicket }
func (*BoardingConfig) Kind() ContentType  { return TypeBoarding }
func (*ReceiptConfig) Kind() ContentType   { return TypeReceipt }
func (*ToploaderConfig) Kind() ContentType { return TypeToploader }
func (*CupSleeveConfig) Kind() ContentType { return TypeCupSleeve }
func (*FashionConfig) Kind() ContentType   { return TypeFashion }
func (*NoteConfig) Kind() ContentType      { return TypeNote }
func (*StickerConfig) Kind() ContentType   { return TypeSticker }
func (*TapeConfig) Kind() ContentType      { return TypeTape }
func (*ProfileConfig) Kind() ContentType   { return TypeProfile }
func (*TodoConfig) Kind() ContentType      { return TypeTodo }

// metadataJSON is the wire shape. Config blocks keep the key names used by
// existing exports, one optional field per kind.
type metadataJSON struct {
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	VideoURL    string `json:"videoUrl,omitempty"`
	URL         string `json:"url"`
	ThemeColor  string `json:"themeColor,omitempty"`
	IsEditable  bool   `json:"isEditable,omitempty"`

	YouTubeConfig   *YouTubeConfig   `json:"youtubeConfig,omitempty"`
	TicketConfig    *TicketConfig    `json:"ticketConfig,omitempty"`
	BoardingConfig  *BoardingConfig  `json:"boardingConfig,omitempty"`
	ReceiptConfig   *ReceiptConfig   `json:"receiptConfig,omitempty"`
	ToploaderConfig *ToploaderConfig `json:"toploaderConfig,omitempty"`
	CupSleeveConfig *CupSleeveConfig `json:"cupSleeveConfig,omitempty"`
	FashionConfig   *FashionConfig   `json:"fashionConfig,omitempty"`
	NoteConfig      *NoteConfig      `json:"noteConfig,omitempty"`
	StickerConfig   *StickerConfig   `json:"stickerConfig,omitempty"`
	TapeConfig      *TapeConfig      `json:"tapeConfig,omitempty"`
	ProfileConfig   *ProfileConfig   `json:"profileConfig,omitempty"`
	TodoConfig      *TodoConfig      `json:"todoConfig,omitempty"`
}

func (m Metadata) MarshalJSON() ([]byte, error) {
	out := metadataJSON{
		Title:       m.Title,
		Subtitle:    m.Subtitle,
		Description: m.Description,
		ImageURL:    m.ImageURL,
		VideoURL:    m.VideoURL,
		URL:         m.URL,
		ThemeColor:  m.ThemeColor,
		IsEditable:  m.IsEditable,
	}

	switch c := m.Config.(type) {
	case nil:
	case *YouTubeConfig:
		out.YouTubeConfig = c
	case *TicketConfig:
		out.TicketConfig = c
	case *BoardingConfig:
		out.BoardingConfig = c
	case *ReceiptConfig:
		out.ReceiptConfig = c
	case *ToploaderConfig:
		out.ToploaderConfig = c
	case *CupSleeveConfig:
		out.CupSleeveConfig = c
	case *FashionConfig:
		out.FashionConfig = c
	case *NoteConfig:
		out.NoteConfig = c
	case *StickerConfig:
		out.StickerConfig = c
	case *TapeConfig:
		out.TapeConfig = c
	case *ProfileConfig:
		out.ProfileConfig = c
	case *TodoConfig:
		out.TodoConfig = c
	default:
		return nil, fmt.Errorf("unknown config block %T", c)
	}

	return json.Marshal(out)
}

func (m *Metadata) UnmarshalJSON(data []byte) error {
	var in metadataJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	var blocks []TypeConfig
	for _, c := range []TypeConfig{
		in.YouTubeConfig, in.TicketConfig, in.BoardingConfig, in.ReceiptConfig,
		in.ToploaderConfig, in.CupSleeveConfig, in.FashionConfig, in.NoteConfig,
		in.StickerConfig, in.TapeConfig, in.ProfileConfig, in.TodoConfig,
	} {
		if !isNilConfig(c) {
			blocks = append(blocks, c)
		}
	}
	if len(blocks) > 1 {
		return fmt.Errorf("metadata carries %d config blocks, want at most one", len(blocks))
	}

	*m = Metadata{
		Title:       in.Title,
		Subtitle:    in.Subtitle,
		Description: in.Description,
		ImageURL:    in.ImageURL,
		VideoURL:    in.VideoURL,
		URL:         in.URL,
		ThemeColor:  in.ThemeColor,
		IsEditable:  in.IsEditable,
	}
	if len(blocks) == 1 {
		m.Config = blocks[0]
	}
	return nil
}

// isNilConfig catches typed nil pointers stored in the interface
func isNilConfig(c TypeConfig) bool {
	switch v := c.(type) {
	case nil:
		return true
	case *YouTubeConfig:
		return v == nil
	case *TicketConfig:
		return v == nil
	case *BoardingConfig:
		return v == nil
	case *ReceiptConfig:
		return v == nil
	case *ToploaderConfig:
		return v == nil
	case *CupSleeveConfig:
		return v == nil
	case *FashionConfig:
		return v == nil
	case *NoteConfig:
		return v == nil
	case *StickerConfig:
		return v == nil
	case *TapeConfig:
		return v == nil
	case *ProfileConfig:
		return v == nil
	case *TodoConfig:
		return v == nil
	}
	return false
}

// configMatches reports whether cfg may ride on an item of type t
func configMatches(t ContentType, cfg TypeConfig) bool {
	return isNilConfig(cfg) || cfg.Kind() == t
}

// DecodeTypeConfig decodes a raw config block for the given content type.
// An empty block decodes to nil, a block for a type that has none is a
// mismatch.
func DecodeTypeConfig(t ContentType, raw json.RawMessage) (TypeConfig, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var cfg TypeConfig
	switch t {
	case TypeYouTube:
		cfg = &YouTubeConfig{}
	case TypeTicket:
		cfg = &TicketConfig{}
	case TypeBoarding:
		cfg = &BoardingConfig{}
	case TypeReceipt:
		cfg = &ReceiptConfig{}
	case TypeToploader:
		cfg = &ToploaderConfig{}
	case TypeCupSleeve:
		cfg = &CupSleeveConfig{}
	case TypeFashion:
		cfg = &FashionConfig{}
	case TypeNote:
		cfg = &NoteConfig{}
	case TypeSticker:
		cfg = &StickerConfig{}
	case TypeTape:
		cfg = &TapeConfig{}
	case TypeProfile:
		cfg = &ProfileConfig{}
	case TypeTodo:
		cfg = &TodoConfig{}
	default:
		return nil, fmt.Errorf("%w: %s has no config block", ErrConfigMismatch, t)
	}

	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("decoding %s config: %w", t, err)
	}
	return cfg, nil
}
