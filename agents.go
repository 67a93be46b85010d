package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"
)

// InferredMetadata is the structured output the inference agent must return
type InferredMetadata struct {
	Title        string `json:"title"`
	Subtitle     string `json:"subtitle"`
	Description  string `json:"description"`
	ThemeColor   string `json:"themeColor"`
	ImageKeyword string `json:"imageKeyword"`
}

// MetadataInferrer asks a model about a URL and returns its raw JSON answer
type MetadataInferrer interface {
	Infer(ctx context.Context, rawURL string, contentType ContentType) (string, error)
}

// InferenceAgent is the llmkit-backed MetadataInferrer. Every call is a
// single stateless prompt, so it is safe for concurrent use.
type InferenceAgent struct {
	apiKey string
	config *Config
}

// NewInferenceAgent creates the inference agent
func NewInferenceAgent(apiKey string, config *Config) (*InferenceAgent, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("creating inference agent: API key is required")
	}
	return &InferenceAgent{apiKey: apiKey, config: config}, nil
}

func (a *InferenceAgent) Infer(ctx context.Context, rawURL string, contentType ContentType) (string, error) {
	log.Printf("→ Inferring metadata for %s", rawURL)

	prompt := fmt.Sprintf("Analyze this URL: %q (Type: %s).\nReturn the title, subtitle, description, themeColor and imageKeyword.", rawURL, contentType)
	settings := types.RequestSettings{
		MaxTokens:   a.config.Settings.Inference.MaxTokens,
		Temperature: a.config.Settings.Inference.Temperature,
	}

	response, err := anthropic.PromptWithSettings(a.config.GetInferenceSystemPrompt(), prompt, a.config.GetInferenceSchema(), a.apiKey, settings)
	if err != nil {
		return "", fmt.Errorf("inference agent failed: %w", err)
	}
	if len(response.Content) == 0 {
		return "", fmt.Errorf("inference agent returned no content")
	}

	log.Printf("✓ Inference completed for %s", rawURL)
	return response.Content[0].Text, nil
}

// InferenceHandler is the terminal strategy. Agent errors propagate so the
// resolver substitutes the placeholder, malformed answers do not.
type InferenceHandler struct {
	agent MetadataInferrer
}

func (h *InferenceHandler) Name() string { return strategyInference }

func (h *InferenceHandler) CanHandle(host string, contentType ContentType) bool {
	return true // fallback
}

func (h *InferenceHandler) Resolve(ctx context.Context, rawURL string, contentType ContentType) (*Metadata, error) {
	text, err := h.agent.Infer(ctx, rawURL, contentType)
	if err != nil {
		return nil, err
	}
	return inferredToMetadata(rawURL, contentType, parseInferred(text)), nil
}

func parseInferred(text string) InferredMetadata {
	var inferred InferredMetadata
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &inferred); err != nil {
		log.Printf("✗ Inference returned malformed JSON, using defaults: %v", err)
		return InferredMetadata{Title: "Web Scrap", Subtitle: "Website"}
	}
	return inferred
}

func inferredToMetadata(rawURL string, contentType ContentType, inferred InferredMetadata) *Metadata {
	hostname := ""
	if u, err := url.Parse(rawURL); err == nil {
		hostname = u.Hostname()
	}

	seed := firstNonEmpty(inferred.ImageKeyword, inferred.Title, "scrap")
	width, height := placeholderImageSize(contentType)

	return &Metadata{
		Title:       firstNonEmpty(inferred.Title, "Web Scrap"),
		Subtitle:    firstNonEmpty(inferred.Subtitle, hostname),
		Description: truncateRunes(inferred.Description, maxDescriptionChars),
		ImageURL:    picsumURL(seed, width, height),
		URL:         rawURL,
		ThemeColor:  firstNonEmpty(inferred.ThemeColor, defaultThemeColor),
	}
}

// placeholderImageSize is portrait for books and fashion, square otherwise
func placeholderImageSize(contentType ContentType) (width, height int) {
	switch contentType {
	case TypeBook:
		return 300, 450
	case TypeFashion:
		return 400, 500
	}
	return 400, 400
}
