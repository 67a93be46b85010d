package main

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"slices"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const exportVersion = "2.0"

// ErrBackupNotFound is returned for a backup id that does not exist
var ErrBackupNotFound = errors.New("backup not found")

// ExportDocument is the interchange file. On import only the parts present
// in the document are replaced.
type ExportDocument struct {
	Version    string       `json:"version"`
	ExportDate time.Time    `json:"exportDate"`
	Items      []ScrapItem  `json:"items"`
	TextData   ScopeTextMap `json:"textData,omitempty"`
	Style      *DiaryStyle  `json:"style,omitempty"`
}

// Backup is a full snapshot of the diary
type Backup struct {
	ID          int          `json:"id"`
	Timestamp   time.Time    `json:"timestamp"`
	Items       []ScrapItem  `json:"items"`
	TextData    ScopeTextMap `json:"textData"`
	Style       DiaryStyle   `json:"style"`
	Description string       `json:"description,omitempty"`
}

// BackupSummary is a backup without its payload
type BackupSummary struct {
	ID          int       `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Items       int       `json:"items"`
	Description string    `json:"description,omitempty"`
}

// Archive handles export, import and backups for a board and its store
type Archive struct {
	mu    sync.Mutex
	board *Board
	store DocumentStore
	now   func() time.Time
}

func NewArchive(board *Board, store DocumentStore) *Archive {
	return &Archive{board: board, store: store, now: time.Now}
}

// Export captures the current diary as an interchange document
func (a *Archive) Export(ctx context.Context) (*ExportDocument, error) {
	text, err := LoadTextData(ctx, a.store)
	if err != nil {
		return nil, err
	}
	style, err := LoadStyle(ctx, a.store)
	if err != nil {
		return nil, err
	}

	items := a.board.Items()
	if items == nil {
		items = []ScrapItem{}
	}
	return &ExportDocument{
		Version:    exportVersion,
		ExportDate: a.now().UTC(),
		Items:      items,
		TextData:   text,
		Style:      &style,
	}, nil
}

// Import snapshots the current diary into a backup, then replaces every
// part the document carries
func (a *Archive) Import(ctx context.Context, doc *ExportDocument) error {
	if _, err := a.CreateBackup(ctx, "Automatic backup before import"); err != nil {
		return fmt.Errorf("creating pre-import backup: %w", err)
	}

	if doc.Items != nil {
		a.board.Replace(doc.Items)
		if err := a.board.Save(ctx, a.store); err != nil {
			return err
		}
	}
	if doc.TextData != nil {
		if err := SaveTextData(ctx, a.store, doc.TextData); err != nil {
			return err
		}
	}
	if doc.Style != nil {
		if err := SaveStyle(ctx, a.store, *doc.Style); err != nil {
			return err
		}
	}

	log.Printf("✓ Imported %d items (export version %s)", len(doc.Items), doc.Version)
	return nil
}

func (a *Archive) loadBackups(ctx context.Context) ([]Backup, error) {
	var backups []Backup
	err := a.store.GetCollection(ctx, CollectionBackups, &backups)
	if err != nil && !errors.Is(err, ErrCollectionNotFound) {
		return nil, fmt.Errorf("loading backups: %w", err)
	}
	return backups, nil
}

func (a *Archive) saveBackups(ctx context.Context, backups []Backup) error {
	if backups == nil {
		backups = []Backup{}
	}
	if err := a.store.PutCollection(ctx, CollectionBackups, backups); err != nil {
		return fmt.Errorf("saving backups: %w", err)
	}
	return nil
}

// CreateBackup snapshots items, text and style under the next sequential id
func (a *Archive) CreateBackup(ctx context.Context, description string) (Backup, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	text, err := LoadTextData(ctx, a.store)
	if err != nil {
		return Backup{}, err
	}
	style, err := LoadStyle(ctx, a.store)
	if err != nil {
		return Backup{}, err
	}
	backups, err := a.loadBackups(ctx)
	if err != nil {
		return Backup{}, err
	}

	id := 1
	for _, b := range backups {
		id = max(id, b.ID+1)
	}
	items := a.board.Items()
	if items == nil {
		items = []ScrapItem{}
	}

	backup := Backup{
		ID:          id,
		Timestamp:   a.now().UTC(),
		Items:       items,
		TextData:    text,
		Style:       style,
		Description: description,
	}
	if err := a.saveBackups(ctx, append(backups, backup)); err != nil {
		return Backup{}, err
	}

	debugLog("created backup %d with %d items", backup.ID, len(backup.Items))
	return backup, nil
}

// ListBackups returns backup summaries, newest first
func (a *Archive) ListBackups(ctx context.Context) ([]BackupSummary, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	backups, err := a.loadBackups(ctx)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(backups, func(x, y Backup) int {
		if c := y.Timestamp.Compare(x.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(y.ID, x.ID)
	})

	summaries := make([]BackupSummary, len(backups))
	for i, b := range backups {
		summaries[i] = BackupSummary{ID: b.ID, Timestamp: b.Timestamp, Items: len(b.Items), Description: b.Description}
	}
	return summaries, nil
}

// RestoreBackup replaces items, text and style with the backup's contents
func (a *Archive) RestoreBackup(ctx context.Context, id int) (Backup, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	backups, err := a.loadBackups(ctx)
	if err != nil {
		return Backup{}, err
	}
	i := slices.IndexFunc(backups, func(b Backup) bool { return b.ID == id })
	if i < 0 {
		return Backup{}, fmt.Errorf("%w: %d", ErrBackupNotFound, id)
	}
	backup := backups[i]

	a.board.Replace(backup.Items)
	if err := a.board.Save(ctx, a.store); err != nil {
		return Backup{}, err
	}
	if err := SaveTextData(ctx, a.store, backup.TextData); err != nil {
		return Backup{}, err
	}
	if err := SaveStyle(ctx, a.store, backup.Style); err != nil {
		return Backup{}, err
	}
	return backup, nil
}

func (a *Archive) DeleteBackup(ctx context.Context, id int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	backups, err := a.loadBackups(ctx)
	if err != nil {
		return err
	}
	next := slices.DeleteFunc(backups, func(b Backup) bool { return b.ID == id })
	if len(next) == len(backups) {
		return fmt.Errorf("%w: %d", ErrBackupNotFound, id)
	}
	return a.saveBackups(ctx, next)
}

// WriteExport encodes doc as indented JSON or, for format "yaml", as YAML
func WriteExport(w io.Writer, doc *ExportDocument, format string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding export: %w", err)
	}

	if format == "yaml" {
		// go through a generic value so the JSON field names and config
		// block keys carry over unchanged
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return fmt.Errorf("converting export: %w", err)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return fmt.Errorf("encoding YAML export: %w", err)
		}
		return enc.Close()
	}

	_, err = w.Write(append(data, '\n'))
	return err
}

// ReadExport decodes an export written by WriteExport in either format
func ReadExport(data []byte) (*ExportDocument, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] != '{' {
		var generic any
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return nil, fmt.Errorf("parsing YAML export: %w", err)
		}
		converted, err := json.Marshal(generic)
		if err != nil {
			return nil, fmt.Errorf("converting YAML export: %w", err)
		}
		data = converted
	}

	var doc ExportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing export: %w", err)
	}
	return &doc, nil
}
