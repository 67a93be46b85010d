package main

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
)

// ErrUnknownTextField is returned by UpdateText for a field PageText does not have
var ErrUnknownTextField = errors.New("unknown text field")

// PageText is the free text attached to one scope key
type PageText struct {
	Goals     string `json:"goals,omitempty"`
	Important string `json:"important,omitempty"`
	Memo      string `json:"memo,omitempty"`
	// CoverImage is the weekly spread cover
	CoverImage string `json:"coverImage,omitempty"`

	ProfileName       string `json:"profileName,omitempty"`
	ProfileStatus     string `json:"profileStatus,omitempty"`
	ProfileImage      string `json:"profileImage,omitempty"`
	DDayTitle         string `json:"dDayTitle,omitempty"`
	DDayDate          string `json:"dDayDate,omitempty"`
	PhotoURL          string `json:"photoUrl,omitempty"`
	MusicTitle        string `json:"musicTitle,omitempty"`
	MusicURL          string `json:"musicUrl,omitempty"`
	BucketList        string `json:"bucketList,omitempty"`
	MonthlyBackground string `json:"monthlyBackground,omitempty"`
}

var pageTextFields = map[string]func(*PageText) *string{
	"goals":             func(p *PageText) *string { return &p.Goals },
	"important":         func(p *PageText) *string { return &p.Important },
	"memo":              func(p *PageText) *string { return &p.Memo },
	"coverImage":        func(p *PageText) *string { return &p.CoverImage },
	"profileName":       func(p *PageText) *string { return &p.ProfileName },
	"profileStatus":     func(p *PageText) *string { return &p.ProfileStatus },
	"profileImage":      func(p *PageText) *string { return &p.ProfileImage },
	"dDayTitle":         func(p *PageText) *string { return &p.DDayTitle },
	"dDayDate":          func(p *PageText) *string { return &p.DDayDate },
	"photoUrl":          func(p *PageText) *string { return &p.PhotoURL },
	"musicTitle":        func(p *PageText) *string { return &p.MusicTitle },
	"musicUrl":          func(p *PageText) *string { return &p.MusicURL },
	"bucketList":        func(p *PageText) *string { return &p.BucketList },
	"monthlyBackground": func(p *PageText) *string { return &p.MonthlyBackground },
}

// TextFields lists the field names UpdateText accepts
func TextFields() []string {
	return slices.Sorted(maps.Keys(pageTextFields))
}

// ScopeTextMap maps a scope key to its page text
type ScopeTextMap map[string]PageText

// UpdateText returns a copy of m with one field of one page set to value
func (m ScopeTextMap) UpdateText(key, field, value string) (ScopeTextMap, error) {
	accessor, ok := pageTextFields[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTextField, field)
	}

	next := maps.Clone(m)
	if next == nil {
		next = ScopeTextMap{}
	}
	page := next[key]
	*accessor(&page) = value
	next[key] = page
	return next, nil
}

// CoverPattern is the diary cover texture
type CoverPattern string

const (
	PatternQuilt   CoverPattern = "quilt"
	PatternLeather CoverPattern = "leather"
	PatternDenim   CoverPattern = "denim"
	PatternFur     CoverPattern = "fur"
)

const defaultKeyring = "https://i.ibb.co/V0JFcWp8/0000-1.png"

// DiaryStyle holds the global look of the diary
type DiaryStyle struct {
	CoverColor      string       `json:"coverColor" yaml:"coverColor" validate:"omitempty,hexcolor"`
	CoverPattern    CoverPattern `json:"coverPattern" yaml:"coverPattern" validate:"omitempty,oneof=quilt leather denim fur"`
	Keyring         string       `json:"keyring" yaml:"keyring"`
	BackgroundImage string       `json:"backgroundImage,omitempty" yaml:"backgroundImage,omitempty"`
}

func DefaultDiaryStyle() DiaryStyle {
	return DiaryStyle{
		CoverColor:   "#ffffff",
		CoverPattern: PatternQuilt,
		Keyring:      defaultKeyring,
	}
}

// LoadTextData reads the scope text map, empty when never saved
func LoadTextData(ctx context.Context, store DocumentStore) (ScopeTextMap, error) {
	text := ScopeTextMap{}
	err := store.GetCollection(ctx, CollectionText, &text)
	if err != nil && !errors.Is(err, ErrCollectionNotFound) {
		return nil, fmt.Errorf("loading text data: %w", err)
	}
	return text, nil
}

func SaveTextData(ctx context.Context, store DocumentStore, text ScopeTextMap) error {
	if err := store.PutCollection(ctx, CollectionText, text); err != nil {
		return fmt.Errorf("saving text data: %w", err)
	}
	return nil
}

// LoadStyle reads the diary style, the defaults when never saved
func LoadStyle(ctx context.Context, store DocumentStore) (DiaryStyle, error) {
	style := DefaultDiaryStyle()
	err := store.GetCollection(ctx, CollectionStyle, &style)
	if err != nil && !errors.Is(err, ErrCollectionNotFound) {
		return DiaryStyle{}, fmt.Errorf("loading style: %w", err)
	}
	return style, nil
}

func SaveStyle(ctx context.Context, store DocumentStore, style DiaryStyle) error {
	if err := store.PutCollection(ctx, CollectionStyle, style); err != nil {
		return fmt.Errorf("saving style: %w", err)
	}
	return nil
}
