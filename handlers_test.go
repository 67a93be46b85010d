package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func servePage(t *testing.T, html string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(html))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestOpenGraphHandlerReadsMetaTags(t *testing.T) {
	server := servePage(t, `<html><head>
<title>Fallback title</title>
<meta property="og:title" content="Linen Shirt">
<meta property="og:description" content="A light summer shirt">
<meta property="og:image" content="https://img.example.com/shirt.jpg">
<meta property="product:price:amount" content="39000">
</head><body></body></html>`)

	handler := NewOpenGraphHandler(NewPageFetcher(FetchSettings{}))
	m, err := handler.Resolve(context.Background(), server.URL, TypeFashion)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if m.Title != "Linen Shirt" {
		t.Errorf("Title = %q, want %q", m.Title, "Linen Shirt")
	}
	if m.Subtitle != "39000원" {
		t.Errorf("Subtitle = %q, want price with default currency", m.Subtitle)
	}
	if m.Description != "A light summer shirt" {
		t.Errorf("Description = %q", m.Description)
	}
	if m.ImageURL != "https://img.example.com/shirt.jpg" {
		t.Errorf("ImageURL = %q", m.ImageURL)
	}
	if m.URL != server.URL {
		t.Errorf("URL = %q, want %q", m.URL, server.URL)
	}
	if m.ThemeColor != defaultThemeColor {
		t.Errorf("ThemeColor = %q, want %q for an unknown host", m.ThemeColor, defaultThemeColor)
	}
}

func TestOpenGraphHandlerFallbacks(t *testing.T) {
	tests := []struct {
		name            string
		html            string
		wantTitle       string
		wantSubtitle    string
		wantDescription string
	}{
		{
			name:            "title element and body summary",
			html:            `<html><head><title> Page Title </title><meta name="author" content="Kim"></head><body><article><h1>Heading</h1><p>First paragraph of the post.</p></article></body></html>`,
			wantTitle:       "Page Title",
			wantSubtitle:    "Kim",
			wantDescription: "First paragraph of the post.",
		},
		{
			name:      "nothing to read",
			html:      `<html><head></head><body></body></html>`,
			wantTitle: "Scrap Link",
		},
	}

	handler := NewOpenGraphHandler(NewPageFetcher(FetchSettings{}))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := servePage(t, tt.html)

			m, err := handler.Resolve(context.Background(), server.URL, TypeNaverBlog)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if m.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", m.Title, tt.wantTitle)
			}
			if m.Subtitle != tt.wantSubtitle {
				t.Errorf("Subtitle = %q, want %q", m.Subtitle, tt.wantSubtitle)
			}
			if m.Description != tt.wantDescription {
				t.Errorf("Description = %q, want %q", m.Description, tt.wantDescription)
			}
		})
	}
}

func TestOpenGraphHandlerHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	handler := NewOpenGraphHandler(NewPageFetcher(FetchSettings{}))
	if _, err := handler.Resolve(context.Background(), server.URL, TypeNaver); err == nil {
		t.Fatal("Resolve() should fail when the page cannot be fetched")
	}
}

func TestOpenGraphHandlerCanHandle(t *testing.T) {
	handler := NewOpenGraphHandler(nil)
	tests := []struct {
		host string
		want bool
	}{
		{"m.blog.naver.com", true},
		{"www.postype.com", true},
		{"velog.io", true},
		{"www.29cm.co.kr", true},
		{"example.com", false},
		{"notnaver.com", false},
	}
	for _, tt := range tests {
		if got := handler.CanHandle(tt.host, TypeGeneral); got != tt.want {
			t.Errorf("CanHandle(%q) = %v, want %v", tt.host, got, tt.want)
		}
	}
}

func TestMobileBlogURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://blog.naver.com/user/223", "https://m.blog.naver.com/user/223"},
		{"https://m.blog.naver.com/user/223", "https://m.blog.naver.com/user/223"},
		{"https://cafe.naver.com/x", "https://cafe.naver.com/x"},
	}
	for _, tt := range tests {
		if got := mobileBlogURL(tt.in); got != tt.want {
			t.Errorf("mobileBlogURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSiteThemeColor(t *testing.T) {
	if got := siteThemeColor("m.blog.naver.com"); got != "#03C75A" {
		t.Errorf("siteThemeColor(naver) = %q", got)
	}
	if got := siteThemeColor("example.org"); got != defaultThemeColor {
		t.Errorf("siteThemeColor(unknown) = %q, want %q", got, defaultThemeColor)
	}
}

func TestSummarizeMarkdown(t *testing.T) {
	long := strings.Repeat("가", 200)
	tests := []struct {
		name     string
		markdown string
		limit    int
		want     string
	}{
		{"skips headings and images", "# Title\n\n![img](x.png)\n\nBody   text here", 50, "Body text here"},
		{"truncates by rune", long, 10, strings.Repeat("가", 10)},
		{"empty", "\n\n", 10, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := summarizeMarkdown(tt.markdown, tt.limit); got != tt.want {
				t.Errorf("summarizeMarkdown() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMovingPhotoHandler(t *testing.T) {
	handler := &MovingPhotoHandler{}

	gif, err := handler.Resolve(context.Background(), "https://media.example.com/cat.gif", TypeMovingPhoto)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if gif.ImageURL != "https://media.example.com/cat.gif" || gif.VideoURL != "" {
		t.Errorf("gif: ImageURL = %q, VideoURL = %q", gif.ImageURL, gif.VideoURL)
	}
	if gif.Subtitle != "Animated GIF" || !gif.IsEditable {
		t.Errorf("gif: Subtitle = %q, IsEditable = %v", gif.Subtitle, gif.IsEditable)
	}

	video, err := handler.Resolve(context.Background(), "https://media.example.com/loop.MP4", TypeMovingPhoto)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if video.VideoURL != "https://media.example.com/loop.MP4" || video.ImageURL != "" {
		t.Errorf("mp4: ImageURL = %q, VideoURL = %q", video.ImageURL, video.VideoURL)
	}
	if video.Subtitle != "Video Loop" {
		t.Errorf("mp4: Subtitle = %q", video.Subtitle)
	}
}

func TestSocialHandler(t *testing.T) {
	handler := &SocialHandler{}

	if !handler.CanHandle("x.com", TypeTwitter) || !handler.CanHandle("instagram.com", TypeInstagram) {
		t.Error("SocialHandler should accept twitter and instagram")
	}
	if handler.CanHandle("youtube.com", TypeYouTube) {
		t.Error("SocialHandler should not accept youtube")
	}

	m, _ := handler.Resolve(context.Background(), "https://www.instagram.com/p/abc", TypeInstagram)
	if m.Title != "Instagram Post" || m.URL != "https://www.instagram.com/p/abc" {
		t.Errorf("instagram metadata = %+v", m)
	}
	m, _ = handler.Resolve(context.Background(), "https://x.com/user/status/1", TypeTwitter)
	if m.Title != "Twitter Post" {
		t.Errorf("twitter Title = %q", m.Title)
	}
}

func TestPinterestHandler(t *testing.T) {
	t.Run("oEmbed success", func(t *testing.T) {
		var gotURL string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotURL = r.URL.Query().Get("url")
			w.Write([]byte(`{"title":"Cozy desk","author_name":"Lee","thumbnail_url":"https://i.pinimg.com/1.jpg"}`))
		}))
		defer server.Close()

		handler := &PinterestHandler{fetcher: NewPageFetcher(FetchSettings{}), endpoint: server.URL}
		m, err := handler.Resolve(context.Background(), "https://www.pinterest.com/pin/123/", TypePinterest)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if gotURL != "https://www.pinterest.com/pin/123/" {
			t.Errorf("oEmbed url param = %q", gotURL)
		}
		if m.Title != "Cozy desk" || m.Subtitle != "Lee" || m.ImageURL != "https://i.pinimg.com/1.jpg" {
			t.Errorf("metadata = %+v", m)
		}
	})

	t.Run("oEmbed failure keeps defaults", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		handler := &PinterestHandler{fetcher: NewPageFetcher(FetchSettings{}), endpoint: server.URL}
		m, err := handler.Resolve(context.Background(), "https://pin.it/abc", TypePinterest)
		if err != nil {
			t.Fatalf("Resolve() error = %v, want defaults", err)
		}
		if m.Title != "Pinterest Pin" || m.Subtitle != "Pinterest" {
			t.Errorf("metadata = %+v", m)
		}
	})
}
