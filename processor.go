package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ScrapList is a YAML list of URLs for batch intake
type ScrapList struct {
	Items []ScrapListItem `yaml:"items"`
}

type ScrapListItem struct {
	URL string `yaml:"url"`
}

// IntakeOptions carries the caller's choices for a new scrap
type IntakeOptions struct {
	Spawn SpawnContext
	// YouTube overrides the player config resolved for video links
	YouTube *YouTubeConfig
}

// MetadataResolver is the part of Resolver the processor needs
type MetadataResolver interface {
	Resolve(ctx context.Context, rawURL string, contentType ContentType) ResolvedMetadata
}

// ScrapProcessor handles the URL to board item workflow
type ScrapProcessor struct {
	resolver MetadataResolver
	board    *Board
	store    DocumentStore
	client   *http.Client
}

// NewScrapProcessor creates a processor that files new items on board and
// persists them to store
func NewScrapProcessor(resolver MetadataResolver, board *Board, store DocumentStore) *ScrapProcessor {
	return &ScrapProcessor{
		resolver: resolver,
		board:    board,
		store:    store,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// validateURL is the intake precondition: an absolute http(s) URL
func validateURL(rawURL string) error {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	return nil
}

// Intake classifies and resolves rawURL and places the result on the
// board. Generic links and unresolvable metadata abort the intake.
func (sp *ScrapProcessor) Intake(ctx context.Context, rawURL string, opts IntakeOptions) (ScrapItem, error) {
	rawURL = strings.TrimSpace(rawURL)
	if err := validateURL(rawURL); err != nil {
		return ScrapItem{}, err
	}

	contentType := Classify(rawURL)
	if contentType == TypeGeneral {
		intakeTotal.WithLabelValues("unsupported").Inc()
		return ScrapItem{}, fmt.Errorf("%w: %s", ErrUnsupportedSite, rawURL)
	}

	log.Printf("  → Resolving %s (%s)...", rawURL, contentType)
	resolved := sp.resolver.Resolve(ctx, rawURL, contentType)
	if resolved.Fallback || IsPlaceholder(resolved.Metadata) {
		intakeTotal.WithLabelValues("unavailable").Inc()
		return ScrapItem{}, fmt.Errorf("%w: %s", ErrMetadataUnavailable, rawURL)
	}

	metadata := *resolved.Metadata
	if contentType == TypeYouTube {
		metadata.Config = youtubeConfigFor(metadata.Config, opts.YouTube)
	}

	item, err := sp.place(ctx, contentType, metadata, opts.Spawn)
	if err != nil {
		intakeTotal.WithLabelValues(outcomeFailure).Inc()
		return ScrapItem{}, err
	}

	intakeTotal.WithLabelValues(outcomeSuccess).Inc()
	log.Printf("✓ Added %s: %s", contentType, metadata.Title)
	return item, nil
}

// youtubeConfigFor prefers the caller's choice, then the resolved block,
// then the player default
func youtubeConfigFor(resolved TypeConfig, override *YouTubeConfig) TypeConfig {
	if override != nil {
		cfg := *override
		if cfg.Mode == "" {
			cfg.Mode = "player"
		}
		return &cfg
	}
	if cfg, ok := resolved.(*YouTubeConfig); ok && cfg != nil {
		return cfg
	}
	return &YouTubeConfig{Mode: "player"}
}

// CreateManual places a hand-made item such as a note, sticker or ticket
func (sp *ScrapProcessor) CreateManual(ctx context.Context, contentType ContentType, metadata Metadata, spawn SpawnContext) (ScrapItem, error) {
	item, err := sp.place(ctx, contentType, metadata, spawn)
	if err != nil {
		return ScrapItem{}, err
	}
	log.Printf("✓ Created %s: %s", contentType, metadata.Title)
	return item, nil
}

func (sp *ScrapProcessor) place(ctx context.Context, contentType ContentType, metadata Metadata, spawn SpawnContext) (ScrapItem, error) {
	item, err := sp.board.Insert(contentType, metadata, spawn)
	if err != nil {
		return ScrapItem{}, fmt.Errorf("placing item: %w", err)
	}
	if err := sp.board.Save(ctx, sp.store); err != nil {
		return ScrapItem{}, err
	}
	return item, nil
}

// ProcessURLsFromFile runs intake for every URL of a YAML list or a remote CSV
func (sp *ScrapProcessor) ProcessURLsFromFile(ctx context.Context, source string, spawn SpawnContext) ([]ProcessingResult, error) {
	var list *ScrapList
	var err error

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		list, err = sp.loadListFromURL(ctx, source)
	} else {
		list, err = loadList(source)
	}
	if err != nil {
		return nil, fmt.Errorf("loading URL list: %w", err)
	}

	results := make([]ProcessingResult, 0, len(list.Items))
	log.Printf("Processing %d URLs...", len(list.Items))

	for i, item := range list.Items {
		log.Printf("[%d/%d] Processing: %s", i+1, len(list.Items), item.URL)
		result := sp.ProcessItem(ctx, item, spawn)
		results = append(results, result)

		switch result.Status {
		case StatusSuccess:
			log.Printf("✓ Added: %s", result.ItemID)
		case StatusSkipped:
			log.Printf("Skipping %s: already on the board (%s)", result.URL, result.ItemID)
		default:
			log.Printf("✗ Failed %s: %v", result.URL, result.Error)
		}
	}

	return results, nil
}

// ProcessItem runs intake for one list entry unless the URL is already on the board
func (sp *ScrapProcessor) ProcessItem(ctx context.Context, item ScrapListItem, spawn SpawnContext) ProcessingResult {
	if existing := sp.FindExistingItem(item.URL); existing != "" {
		return ProcessingResult{URL: item.URL, Status: StatusSkipped, ItemID: existing}
	}

	scrap, err := sp.Intake(ctx, item.URL, IntakeOptions{Spawn: spawn})
	if err != nil {
		return ProcessingResult{URL: item.URL, Status: StatusError, Error: err}
	}
	return ProcessingResult{URL: item.URL, Status: StatusSuccess, ItemID: scrap.ID}
}

// FindExistingItem returns the id of an item already holding url, or ""
func (sp *ScrapProcessor) FindExistingItem(rawURL string) string {
	for _, item := range sp.board.Items() {
		if item.Metadata.URL == rawURL {
			return item.ID
		}
	}
	return ""
}

// loadList loads a YAML URL list
func loadList(path string) (*ScrapList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var list ScrapList
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// loadListFromURL loads a URL list from a CSV URL
func (sp *ScrapProcessor) loadListFromURL(ctx context.Context, source string) (*ScrapList, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("building CSV request: %w", err)
	}

	resp, err := sp.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching CSV from URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: source}
	}

	reader := csv.NewReader(resp.Body)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	// Skip header row if it exists
	startIdx := 0
	if len(records[0]) > 0 && strings.EqualFold(strings.TrimSpace(records[0][0]), "url") {
		startIdx = 1
	}

	list := &ScrapList{Items: make([]ScrapListItem, 0, len(records)-startIdx)}
	for _, row := range records[startIdx:] {
		if len(row) == 0 {
			continue
		}
		if u := strings.TrimSpace(row[0]); u != "" {
			list.Items = append(list.Items, ScrapListItem{URL: u})
		}
	}
	return list, nil
}

// addURLToList appends a URL to a YAML URL list, creating the file if needed
func addURLToList(listPath, rawURL string) error {
	if err := validateURL(rawURL); err != nil {
		return err
	}

	list := &ScrapList{Items: []ScrapListItem{}}
	data, err := os.ReadFile(listPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return fmt.Errorf("reading URL list: %w", err)
	default:
		if err := yaml.Unmarshal(data, list); err != nil {
			return fmt.Errorf("parsing URL list: %w", err)
		}
	}

	for _, item := range list.Items {
		if item.URL == rawURL {
			return fmt.Errorf("URL already exists in list: %s", rawURL)
		}
	}
	list.Items = append(list.Items, ScrapListItem{URL: rawURL})

	out, err := yaml.Marshal(list)
	if err != nil {
		return fmt.Errorf("marshaling URL list: %w", err)
	}
	if dir := filepath.Dir(listPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating list directory: %w", err)
		}
	}
	return os.WriteFile(listPath, out, 0644)
}
