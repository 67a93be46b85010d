package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	initialMaxZ         = 10
	defaultViewportW    = 1280
	defaultViewportH    = 800
	viewportFallbackPct = 0.8
	rotationJitterDeg   = 2.0
	monthlySpawnJitter  = 30.0
	defaultSpawnJitter  = 50.0
)

// SpawnContext describes where a new item is being added from
type SpawnContext struct {
	Layout Layout
	Date   time.Time
	Width  float64
	Height float64
}

// ItemStore is the set of board operations the rest of the program uses
type ItemStore interface {
	Insert(contentType ContentType, metadata Metadata, spawn SpawnContext) (ScrapItem, error)
	UpdatePosition(id string, patch PositionPatch)
	UpdateMetadata(id string, patch MetadataPatch) error
	BringToFront(id string)
	SetMainItem(id string)
	ToggleFavorite(id string)
	SetBorderStyle(id string, style BorderStyle)
	Delete(id string)
	DeleteByScope(scopeKey string) int
	ClearFiltered(kind ScopeKind, date time.Time) int
	Replace(items []ScrapItem)
	Filter(kind ScopeKind, date time.Time) []ScrapItem
	Items() []ScrapItem
	Item(id string) (ScrapItem, bool)
	MaxZ() int
}

// Board is the ordered item list. Every mutation builds a new slice and
// swaps it in under the mutex, so a slice handed out by Items is never
// modified afterwards.
type Board struct {
	mu       sync.Mutex
	items    []ScrapItem
	maxZ     int
	now      func() time.Time
	rand     func() float64
	viewport [2]float64
}

// BoardOption configures a Board
type BoardOption func(*Board)

// WithBoardClock replaces the clock used to stamp createdAt
func WithBoardClock(now func() time.Time) BoardOption {
	return func(b *Board) { b.now = now }
}

// WithRandom replaces the [0,1) source used for spawn jitter and rotation
func WithRandom(r func() float64) BoardOption {
	return func(b *Board) { b.rand = r }
}

// WithViewport sets the container size assumed when a spawn context has none
func WithViewport(width, height float64) BoardOption {
	return func(b *Board) { b.viewport = [2]float64{width, height} }
}

// NewBoard creates an empty board
func NewBoard(opts ...BoardOption) *Board {
	b := &Board{
		maxZ:     initialMaxZ,
		now:      time.Now,
		rand:     rand.Float64,
		viewport: [2]float64{defaultViewportW, defaultViewportH},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var _ ItemStore = (*Board)(nil)

// commit must be called with mu held
func (b *Board) commit(items []ScrapItem) {
	b.items = items
	boardItems.Set(float64(len(items)))
}

// update applies fn to a copy of the item with the given id. Unknown ids
// leave the board untouched.
func (b *Board) update(id string, fn func(*ScrapItem)) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := slices.IndexFunc(b.items, func(item ScrapItem) bool { return item.ID == id })
	if i < 0 {
		return false
	}
	next := slices.Clone(b.items)
	fn(&next[i])
	b.commit(next)
	return true
}

func (b *Board) jitter(spread float64) float64 {
	return b.rand()*2*spread - spread
}

// Insert places a new item on the board and returns it
func (b *Board) Insert(contentType ContentType, metadata Metadata, spawn SpawnContext) (ScrapItem, error) {
	if !contentType.Valid() {
		return ScrapItem{}, fmt.Errorf("unknown content type %q", contentType)
	}
	if !configMatches(contentType, metadata.Config) {
		return ScrapItem{}, fmt.Errorf("%w: %s config on %s item", ErrConfigMismatch, metadata.Config.Kind(), contentType)
	}

	width, height := spawn.Width, spawn.Height
	if width <= 0 || height <= 0 {
		width, height = b.viewport[0]*viewportFallbackPct, b.viewport[1]*viewportFallbackPct
	}
	date := spawn.Date
	if date.IsZero() {
		date = b.now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var x, y float64
	if spawn.Layout == LayoutMonthly {
		x = width/4 + b.jitter(monthlySpawnJitter)
		y = height/2 + b.jitter(monthlySpawnJitter)
	} else {
		x = width/2 + b.jitter(defaultSpawnJitter)
		y = height/2 + b.jitter(defaultSpawnJitter)
	}

	b.maxZ++
	item := ScrapItem{
		ID:       uuid.NewString(),
		Type:     contentType,
		Metadata: metadata,
		Position: Position{
			X:        x,
			Y:        y,
			Z:        b.maxZ,
			Rotation: b.jitter(rotationJitterDeg),
			Scale:    DefaultScale,
		},
		CreatedAt:   b.now().UnixMilli(),
		ScopeKey:    ScopeKeyFor(spawn.Layout, date),
		BorderStyle: BorderNone,
	}

	b.commit(append(slices.Clone(b.items), item))
	return item, nil
}

// UpdatePosition merges the set fields of patch into the item's position
func (b *Board) UpdatePosition(id string, patch PositionPatch) {
	b.update(id, func(item *ScrapItem) {
		if patch.X != nil {
			item.Position.X = finiteOr(*patch.X, item.Position.X)
		}
		if patch.Y != nil {
			item.Position.Y = finiteOr(*patch.Y, item.Position.Y)
		}
		if patch.Rotation != nil {
			item.Position.Rotation = finiteOr(*patch.Rotation, item.Position.Rotation)
		}
		if patch.Scale != nil {
			item.Position.Scale = ClampScale(*patch.Scale)
		}
	})
}

// UpdateMetadata merges patch into the item's metadata. A config block of
// another kind is rejected.
func (b *Board) UpdateMetadata(id string, patch MetadataPatch) error {
	var err error
	b.update(id, func(item *ScrapItem) {
		if !configMatches(item.Type, patch.Config) {
			err = fmt.Errorf("%w: %s config on %s item", ErrConfigMismatch, patch.Config.Kind(), item.Type)
			return
		}
		item.Metadata = item.Metadata.apply(patch)
	})
	return err
}

// BringToFront moves the item above every other item
func (b *Board) BringToFront(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := slices.IndexFunc(b.items, func(item ScrapItem) bool { return item.ID == id })
	if i < 0 {
		return
	}
	b.maxZ++
	next := slices.Clone(b.items)
	next[i].Position.Z = b.maxZ
	b.commit(next)
}

// SetMainItem toggles the item as the main item of its scope and clears the
// flag on its siblings
func (b *Board) SetMainItem(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := slices.IndexFunc(b.items, func(item ScrapItem) bool { return item.ID == id })
	if i < 0 {
		return
	}
	scope := b.items[i].ScopeKey
	on := !b.items[i].IsMainItem

	next := slices.Clone(b.items)
	for j := range next {
		if next[j].ScopeKey != scope {
			continue
		}
		next[j].IsMainItem = j == i && on
	}
	b.commit(next)
}

func (b *Board) ToggleFavorite(id string) {
	b.update(id, func(item *ScrapItem) {
		item.IsFavorite = !item.IsFavorite
	})
}

func (b *Board) SetBorderStyle(id string, style BorderStyle) {
	b.update(id, func(item *ScrapItem) {
		item.BorderStyle = style
	})
}

func (b *Board) Delete(id string) {
	b.deleteWhere(func(item ScrapItem) bool { return item.ID == id })
}

// DeleteByScope removes every item filed under scopeKey
func (b *Board) DeleteByScope(scopeKey string) int {
	return b.deleteWhere(func(item ScrapItem) bool { return item.ScopeKey == scopeKey })
}

// ClearFiltered removes every item the matching Filter call would return
func (b *Board) ClearFiltered(kind ScopeKind, date time.Time) int {
	return b.deleteWhere(func(item ScrapItem) bool { return inScope(item, kind, date) })
}

func (b *Board) deleteWhere(match func(ScrapItem) bool) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := slices.DeleteFunc(slices.Clone(b.items), match)
	removed := len(b.items) - len(next)
	if removed > 0 {
		b.commit(next)
	}
	return removed
}

// Filter returns the items of one scope in board order
func (b *Board) Filter(kind ScopeKind, date time.Time) []ScrapItem {
	b.mu.Lock()
	items := b.items
	b.mu.Unlock()

	var out []ScrapItem
	for _, item := range items {
		if inScope(item, kind, date) {
			out = append(out, item)
		}
	}
	return out
}

// Items returns a copy of the full item list
func (b *Board) Items() []ScrapItem {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.items)
}

func (b *Board) Item(id string) (ScrapItem, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := slices.IndexFunc(b.items, func(item ScrapItem) bool { return item.ID == id })
	if i < 0 {
		return ScrapItem{}, false
	}
	return b.items[i], true
}

func (b *Board) MaxZ() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.maxZ
}

// Replace swaps in a stored item list and normalises it: scales are
// clamped, later duplicates of an id are dropped, only the first main item
// of a scope keeps the flag and config blocks of another kind are cleared.
// The z counter is raised to the highest stored z.
func (b *Board) Replace(items []ScrapItem) {
	next := make([]ScrapItem, 0, len(items))
	seen := make(map[string]bool, len(items))
	mainScopes := make(map[string]bool)
	highest := initialMaxZ
	for _, item := range items {
		if seen[item.ID] {
			log.Printf("⚠ Dropping duplicate item %s", item.ID)
			continue
		}
		seen[item.ID] = true

		if item.Position.Scale == 0 {
			item.Position.Scale = 1
		}
		item.Position.Scale = ClampScale(item.Position.Scale)
		item.Position.X = finiteOr(item.Position.X, 0)
		item.Position.Y = finiteOr(item.Position.Y, 0)
		item.Position.Rotation = finiteOr(item.Position.Rotation, 0)
		if item.BorderStyle == "" {
			item.BorderStyle = BorderNone
		}
		if item.IsMainItem {
			if mainScopes[item.ScopeKey] {
				item.IsMainItem = false
			}
			mainScopes[item.ScopeKey] = true
		}
		if !configMatches(item.Type, item.Metadata.Config) {
			log.Printf("⚠ Clearing %s config on %s item %s", item.Metadata.Config.Kind(), item.Type, item.ID)
			item.Metadata.Config = nil
		}
		highest = max(highest, item.Position.Z)
		next = append(next, item)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.maxZ = max(b.maxZ, highest)
	b.commit(next)
}

// Load replaces the board with the stored item list. A missing collection
// leaves the board empty.
func (b *Board) Load(ctx context.Context, store DocumentStore) error {
	var items []ScrapItem
	err := store.GetCollection(ctx, CollectionItems, &items)
	if errors.Is(err, ErrCollectionNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading items: %w", err)
	}
	b.Replace(items)
	return nil
}

// Save writes the full item list
func (b *Board) Save(ctx context.Context, store DocumentStore) error {
	items := b.Items()
	if items == nil {
		items = []ScrapItem{}
	}
	if err := store.PutCollection(ctx, CollectionItems, items); err != nil {
		return fmt.Errorf("saving items: %w", err)
	}
	return nil
}
