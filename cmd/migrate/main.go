package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Legacy local-storage dump file names
const (
	legacyItemsFile = "smart_scrap_diary_layout_v2.json"
	legacyTextFile  = "smart_scrap_text_data.json"
	legacyStyleFile = "smart_scrap_style_pref.json"
)

func main() {
	if len(os.Args) < 3 {
		log.Fatal("Usage: migrate <legacy <dump-directory> <out.json>|remove-duplicates <export.json>>")
	}

	command := os.Args[1]

	switch command {
	case "legacy":
		if len(os.Args) < 4 {
			log.Fatal("Usage: migrate legacy <dump-directory> <out.json>")
		}
		if err := migrateLegacy(os.Args[2], os.Args[3]); err != nil {
			log.Fatal(err)
		}
	case "remove-duplicates":
		if err := removeDuplicates(os.Args[2]); err != nil {
			log.Fatal(err)
		}
	default:
		log.Fatalf("Unknown command %q", command)
	}
}

// exportDocument mirrors the v2.0 export file. Items stay raw so fields
// this tool does not know about survive untouched.
type exportDocument struct {
	Version    string            `json:"version"`
	ExportDate string            `json:"exportDate"`
	Items      []json.RawMessage `json:"items"`
	TextData   json.RawMessage   `json:"textData,omitempty"`
	Style      json.RawMessage   `json:"style,omitempty"`
}

// readLegacy returns the contents of one dump file, nil when it is absent
// or not valid JSON
func readLegacy(dir, name string) json.RawMessage {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("No %s found, skipping", name)
		return nil
	}
	if err != nil {
		log.Printf("Error reading %s: %v", name, err)
		return nil
	}
	if !json.Valid(data) {
		log.Printf("Error parsing %s: not valid JSON, skipping", name)
		return nil
	}
	return json.RawMessage(data)
}

func migrateLegacy(dumpDir, outPath string) error {
	doc := exportDocument{
		Version:    "2.0",
		ExportDate: time.Now().UTC().Format(time.RFC3339),
		Items:      []json.RawMessage{},
	}

	if raw := readLegacy(dumpDir, legacyItemsFile); raw != nil {
		if err := json.Unmarshal(raw, &doc.Items); err != nil {
			log.Printf("Error parsing items: %v", err)
		} else {
			log.Printf("Migrated %d items", len(doc.Items))
		}
	}
	if raw := readLegacy(dumpDir, legacyTextFile); raw != nil {
		doc.TextData = raw
		log.Printf("Migrated text data")
	}
	if raw := readLegacy(dumpDir, legacyStyleFile); raw != nil {
		doc.Style = raw
		log.Printf("Migrated style")
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding export: %w", err)
	}
	if err := os.WriteFile(outPath, append(out, '\n'), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}

	log.Printf("Wrote %s", outPath)
	return nil
}

// duplicateKey identifies copies of the same link on the same page
type duplicateKey struct {
	scope string
	url   string
}

type itemHeader struct {
	ID        string `json:"id"`
	DiaryDate string `json:"diaryDate"`
	Metadata  struct {
		Title string `json:"title"`
		URL   string `json:"url"`
	} `json:"metadata"`
}

func removeDuplicates(exportPath string) error {
	data, err := os.ReadFile(exportPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", exportPath, err)
	}

	var doc exportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing %s: %w", exportPath, err)
	}

	groups := make(map[duplicateKey][]int)
	var order []duplicateKey
	headers := make([]itemHeader, len(doc.Items))
	for i, raw := range doc.Items {
		if err := json.Unmarshal(raw, &headers[i]); err != nil {
			return fmt.Errorf("parsing item %d: %w", i, err)
		}
		if headers[i].Metadata.URL == "" {
			continue // hand-made items have no link to compare
		}
		key := duplicateKey{scope: headers[i].DiaryDate, url: headers[i].Metadata.URL}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}

	reader := bufio.NewReader(os.Stdin)
	drop := make(map[int]bool)
	for _, key := range order {
		indexes := groups[key]
		if len(indexes) <= 1 {
			continue
		}

		fmt.Printf("\nFound %d copies of %s on %s:\n", len(indexes), key.url, key.scope)
		for n, i := range indexes {
			label := fmt.Sprintf("%s (%s)", headers[i].Metadata.Title, headers[i].ID)
			if n == 0 {
				fmt.Printf("  KEEP: %s\n", label)
				continue
			}
			if confirmDelete(reader, label) {
				drop[i] = true
				fmt.Printf("  REMOVED: %s\n", label)
			} else {
				fmt.Printf("  SKIP: %s\n", label)
			}
		}
	}

	if len(drop) == 0 {
		fmt.Println("\nNo duplicates removed")
		return nil
	}

	kept := make([]json.RawMessage, 0, len(doc.Items)-len(drop))
	for i, raw := range doc.Items {
		if !drop[i] {
			kept = append(kept, raw)
		}
	}
	doc.Items = kept

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding export: %w", err)
	}
	if err := os.WriteFile(exportPath, append(out, '\n'), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", exportPath, err)
	}

	fmt.Printf("\nRemoved %d duplicate items\n", len(drop))
	return nil
}

func confirmDelete(reader *bufio.Reader, label string) bool {
	for {
		fmt.Printf("  DELETE %s? [y/N]: ", label)
		input, err := reader.ReadString('\n')
		if err != nil {
			log.Printf("Error reading input: %v", err)
			return false
		}
		response := strings.ToLower(strings.TrimSpace(input))
		switch response {
		case "y", "yes":
			return true
		case "", "n", "no":
			return false
		default:
			fmt.Println("  Please enter y or n.")
		}
	}
}
