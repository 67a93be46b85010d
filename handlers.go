package main

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/url"
	"path"
	"strings"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

var debugEnabled bool

// SetDebugMode enables or disables debug logging
func SetDebugMode(enabled bool) {
	debugEnabled = enabled
}

func debugLog(format string, args ...interface{}) {
	if debugEnabled {
		log.Printf("[DEBUG] "+format, args...)
	}
}

const (
	strategyOpenGraph   = "open_graph"
	strategyMovingPhoto = "moving_photo"
	strategyPinterest   = "pinterest_oembed"
	strategyYouTube     = "youtube_oembed"
	strategySocial      = "social_static"
	strategyInference   = "ai_inference"

	maxDescriptionChars = 120
	defaultThemeColor   = "#000000"
)

// Sites whose pages carry reliable OpenGraph tags. They are read directly
// whatever their content type.
var openGraphHosts = []string{
	"naver.com", "postype.com", "yes24.com", "aladin.co.kr", "kyobobook.co.kr",
	"brunch.co.kr", "tumblbug.com", "watcha.com", "musinsa.com", "29cm.co.kr", "velog.io",
}

// siteThemeColors is checked in order, first matching domain wins
var siteThemeColors = []struct {
	domain string
	color  string
}{
	{"naver.com", "#03C75A"},
	{"postype.com", "#3E465B"},
	{"brunch.co.kr", "#00C4C4"},
	{"velog.io", "#20C997"},
	{"yes24.com", "#0080FF"},
	{"aladin.co.kr", "#EB5B93"},
	{"kyobobook.co.kr", "#5055B1"},
	{"tumblbug.com", "#FA4A4A"},
	{"watcha.com", "#FF2F6E"},
	{"musinsa.com", "#000000"},
	{"29cm.co.kr", "#000000"},
}

// OpenGraphHandler reads page markup for the content-rich host list
type OpenGraphHandler struct {
	fetcher   *PageFetcher
	converter *md.Converter
}

// NewOpenGraphHandler creates a page markup handler on top of fetcher
func NewOpenGraphHandler(fetcher *PageFetcher) *OpenGraphHandler {
	return &OpenGraphHandler{
		fetcher:   fetcher,
		converter: md.NewConverter("", true, nil),
	}
}

func (h *OpenGraphHandler) Name() string { return strategyOpenGraph }

func (h *OpenGraphHandler) CanHandle(host string, contentType ContentType) bool {
	for _, d := range openGraphHosts {
		if hostMatches(host, d) {
			return true
		}
	}
	return false
}

func (h *OpenGraphHandler) Resolve(ctx context.Context, rawURL string, contentType ContentType) (*Metadata, error) {
	body, err := h.fetcher.Fetch(ctx, mobileBlogURL(rawURL))
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing page markup: %w", err)
	}

	title := firstNonEmpty(metaContent(doc, "og:title"), strings.TrimSpace(doc.Find("title").First().Text()), "Scrap Link")
	author := firstNonEmpty(metaContent(doc, "og:article:author"), metaContent(doc, "author"), metaContent(doc, "og:site_name"))

	subtitle := author
	if price := metaContent(doc, "product:price:amount"); price != "" {
		subtitle = price + firstNonEmpty(metaContent(doc, "product:price:currency"), "원")
	}

	description := metaContent(doc, "og:description")
	if description == "" {
		description = h.bodySummary(doc)
	}

	host := ""
	if u, err := url.Parse(rawURL); err == nil {
		host = strings.ToLower(u.Hostname())
	}

	return &Metadata{
		Title:       title,
		Subtitle:    subtitle,
		Description: description,
		ImageURL:    metaContent(doc, "og:image"),
		URL:         rawURL,
		ThemeColor:  siteThemeColor(host),
	}, nil
}

// bodySummary derives a short description from the page text when the
// page declares none
func (h *OpenGraphHandler) bodySummary(doc *goquery.Document) string {
	selection := doc.Find("article").First()
	if selection.Length() == 0 {
		selection = doc.Find("body").First()
	}
	selection.Find("script, style, nav, header, footer").Remove()

	html, err := selection.Html()
	if err != nil || strings.TrimSpace(html) == "" {
		return ""
	}

	markdown, err := h.converter.ConvertString(html)
	if err != nil {
		debugLog("converting page body to markdown: %v", err)
		return ""
	}
	return summarizeMarkdown(markdown, maxDescriptionChars)
}

// summarizeMarkdown returns the first prose line of markdown, cut to limit runes
func summarizeMarkdown(markdown string, limit int) string {
	for _, line := range strings.Split(markdown, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") ||
			strings.HasPrefix(line, "|") || strings.HasPrefix(line, "```") {
			continue
		}
		line = strings.Join(strings.Fields(line), " ")
		return truncateRunes(line, limit)
	}
	return ""
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

func metaContent(doc *goquery.Document, key string) string {
	sel := doc.Find(fmt.Sprintf(`meta[property=%q]`, key)).First()
	if sel.Length() == 0 {
		sel = doc.Find(fmt.Sprintf(`meta[name=%q]`, key)).First()
	}
	return strings.TrimSpace(sel.AttrOr("content", ""))
}

// mobileBlogURL rewrites desktop naver blog links to the mobile host, whose
// markup carries the OpenGraph tags without frames
func mobileBlogURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || !strings.EqualFold(u.Hostname(), "blog.naver.com") {
		return rawURL
	}
	u.Host = "m.blog.naver.com"
	return u.String()
}

func siteThemeColor(host string) string {
	for _, s := range siteThemeColors {
		if hostMatches(host, s.domain) {
			return s.color
		}
	}
	return defaultThemeColor
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// MovingPhotoHandler builds metadata for direct media links without any
// network call
type MovingPhotoHandler struct{}

func (h *MovingPhotoHandler) Name() string { return strategyMovingPhoto }

func (h *MovingPhotoHandler) CanHandle(host string, contentType ContentType) bool {
	return contentType == TypeMovingPhoto
}

func (h *MovingPhotoHandler) Resolve(ctx context.Context, rawURL string, contentType ContentType) (*Metadata, error) {
	m := &Metadata{
		Title:      "Moving Photo",
		Subtitle:   "Animated GIF",
		ImageURL:   rawURL,
		URL:        rawURL,
		ThemeColor: defaultThemeColor,
		IsEditable: true,
	}

	isVideo := false
	if u, err := url.Parse(rawURL); err == nil {
		isVideo = strings.EqualFold(path.Ext(u.Path), ".mp4")
	}
	if isVideo {
		m.Subtitle = "Video Loop"
		m.ImageURL = ""
		m.VideoURL = rawURL
	}
	return m, nil
}

const pinterestOEmbedEndpoint = "https://www.pinterest.com/oembed.json"

type oEmbedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

func oEmbedURL(endpoint, rawURL string) string {
	return endpoint + "?url=" + url.QueryEscape(rawURL) + "&format=json"
}

// PinterestHandler looks pins up through oEmbed and falls back to branded
// defaults when the lookup fails
type PinterestHandler struct {
	fetcher  *PageFetcher
	endpoint string
}

func (h *PinterestHandler) Name() string { return strategyPinterest }

func (h *PinterestHandler) CanHandle(host string, contentType ContentType) bool {
	return contentType == TypePinterest
}

func (h *PinterestHandler) Resolve(ctx context.Context, rawURL string, contentType ContentType) (*Metadata, error) {
	var data oEmbedResponse
	if err := h.fetcher.FetchJSON(ctx, oEmbedURL(h.endpoint, rawURL), &data); err != nil {
		log.Printf("✗ Pinterest oEmbed failed for %s, using defaults: %v", rawURL, err)
	}

	return &Metadata{
		Title:       firstNonEmpty(data.Title, "Pinterest Pin"),
		Subtitle:    firstNonEmpty(data.AuthorName, "Pinterest"),
		Description: "Saved from Pinterest",
		ImageURL:    data.ThumbnailURL,
		URL:         rawURL,
		ThemeColor:  "#E60023",
	}, nil
}

// SocialHandler returns branded payloads for platforms that block scraping
type SocialHandler struct{}

func (h *SocialHandler) Name() string { return strategySocial }

func (h *SocialHandler) CanHandle(host string, contentType ContentType) bool {
	return contentType == TypeTwitter || contentType == TypeInstagram
}

func (h *SocialHandler) Resolve(ctx context.Context, rawURL string, contentType ContentType) (*Metadata, error) {
	if contentType == TypeInstagram {
		return &Metadata{Title: "Instagram Post", Subtitle: "Instagram", URL: rawURL, ThemeColor: "#E1306C"}, nil
	}
	return &Metadata{Title: "Twitter Post", Subtitle: "X / Twitter", URL: rawURL, ThemeColor: "#000000"}, nil
}
