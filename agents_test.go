package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestNewInferenceAgent(t *testing.T) {
	tests := []struct {
		name    string
		apiKey  string
		wantErr bool
	}{
		{
			name:    "valid api key",
			apiKey:  "test-api-key-123",
			wantErr: false,
		},
		{
			name:    "empty api key",
			apiKey:  "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{
				Settings: &Settings{},
			}

			agent, err := NewInferenceAgent(tt.apiKey, config)

			if (err != nil) != tt.wantErr {
				t.Errorf("NewInferenceAgent() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr {
				if agent == nil {
					t.Fatal("NewInferenceAgent() returned nil agent")
				}
				if agent.config != config {
					t.Error("NewInferenceAgent() config not set correctly")
				}
				if agent.apiKey != tt.apiKey {
					t.Error("NewInferenceAgent() api key not set correctly")
				}
			}
		})
	}
}

// recordingTransport captures request bodies and answers with a canned
// Anthropic message
type recordingTransport struct {
	bodies []string
}

func (rt *recordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	req.Body.Close()
	rt.bodies = append(rt.bodies, string(body))

	answer := `{"id":"msg_1","type":"message","role":"assistant","content":[{"type":"text","text":"{\"title\":\"Scrap\"}"}]}`
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(answer)),
		Request:    req,
	}, nil
}

func TestInferenceAgentCallsAreIndependent(t *testing.T) {
	transport := &recordingTransport{}
	original := http.DefaultTransport
	http.DefaultTransport = transport
	t.Cleanup(func() { http.DefaultTransport = original })

	config := &Config{Settings: &Settings{Inference: InferenceSettings{Enabled: true, MaxTokens: 500}}}
	agent, err := NewInferenceAgent("test-api-key", config)
	if err != nil {
		t.Fatalf("NewInferenceAgent() error = %v", err)
	}

	urls := []string{
		"https://first.example.com/a",
		"https://second.example.com/b",
		"https://third.example.com/c",
	}
	for _, u := range urls {
		text, err := agent.Infer(context.Background(), u, TypeGeneral)
		if err != nil {
			t.Fatalf("Infer(%s) error = %v", u, err)
		}
		if text != `{"title":"Scrap"}` {
			t.Errorf("Infer(%s) = %q", u, text)
		}
	}

	if len(transport.bodies) != len(urls) {
		t.Fatalf("sent %d requests, want %d", len(transport.bodies), len(urls))
	}
	for i, body := range transport.bodies {
		if !strings.Contains(body, urls[i]) {
			t.Errorf("request %d does not mention its own URL", i)
		}
		for j, other := range urls {
			if j != i && strings.Contains(body, other) {
				t.Errorf("request %d mentions %s from another call", i, other)
			}
		}
	}
}

// fakeInferrer returns a canned answer
type fakeInferrer struct {
	text  string
	err   error
	calls int
}

func (f *fakeInferrer) Infer(ctx context.Context, rawURL string, contentType ContentType) (string, error) {
	f.calls++
	return f.text, f.err
}

func TestInferenceHandlerResolve(t *testing.T) {
	inferrer := &fakeInferrer{text: `{"title":"The Little Prince","subtitle":"Saint-Exupéry","description":"A classic","themeColor":"#336699","imageKeyword":"prince book"}`}
	handler := &InferenceHandler{agent: inferrer}

	if !handler.CanHandle("anything.example", TypeGeneral) {
		t.Error("InferenceHandler should accept every URL")
	}

	m, err := handler.Resolve(context.Background(), "https://www.amazon.com/dp/123", TypeBook)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if m.Title != "The Little Prince" || m.Subtitle != "Saint-Exupéry" || m.ThemeColor != "#336699" {
		t.Errorf("metadata = %+v", m)
	}
	if m.ImageURL != "https://picsum.photos/seed/prince%20book/300/450" {
		t.Errorf("ImageURL = %q, want a 300x450 seeded image", m.ImageURL)
	}
}

func TestInferenceHandlerAgentError(t *testing.T) {
	handler := &InferenceHandler{agent: &fakeInferrer{err: errors.New("rate limited")}}
	if _, err := handler.Resolve(context.Background(), "https://example.com", TypeGeneral); err == nil {
		t.Fatal("Resolve() should propagate agent errors")
	}
}

func TestParseInferredMalformed(t *testing.T) {
	got := parseInferred("this is not json")
	if got.Title != "Web Scrap" || got.Subtitle != "Website" {
		t.Errorf("parseInferred() = %+v, want Web Scrap / Website", got)
	}
}

func TestInferredToMetadataDefaults(t *testing.T) {
	m := inferredToMetadata("https://shop.example.com/item/1", TypeFashion, InferredMetadata{
		Description: strings.Repeat("x", 300),
	})

	if m.Title != "Web Scrap" {
		t.Errorf("Title = %q", m.Title)
	}
	if m.Subtitle != "shop.example.com" {
		t.Errorf("Subtitle = %q, want the hostname", m.Subtitle)
	}
	if len(m.Description) != maxDescriptionChars {
		t.Errorf("Description length = %d, want %d", len(m.Description), maxDescriptionChars)
	}
	if m.ImageURL != "https://picsum.photos/seed/scrap/400/500" {
		t.Errorf("ImageURL = %q", m.ImageURL)
	}
	if m.ThemeColor != defaultThemeColor {
		t.Errorf("ThemeColor = %q", m.ThemeColor)
	}
}

func TestPlaceholderImageSize(t *testing.T) {
	tests := []struct {
		contentType ContentType
		w, h        int
	}{
		{TypeBook, 300, 450},
		{TypeFashion, 400, 500},
		{TypeGeneral, 400, 400},
		{TypeTwitter, 400, 400},
	}
	for _, tt := range tests {
		w, h := placeholderImageSize(tt.contentType)
		if w != tt.w || h != tt.h {
			t.Errorf("placeholderImageSize(%s) = %dx%d, want %dx%d", tt.contentType, w, h, tt.w, tt.h)
		}
	}
}
