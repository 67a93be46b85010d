package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"time"
)

const (
	youtubeOEmbedEndpoint = "https://www.youtube.com/oembed"
	youtubeOEmbedRetries  = 3
	youtubeVideoIDLength  = 11
)

var youtubeIDPattern = regexp.MustCompile(`^.*(youtu\.be/|v/|u/\w/|embed/|watch\?v=|&v=)([^#&?]*).*`)

// YouTubeHandler derives the thumbnail from the video id and asks oEmbed for
// the title. oEmbed failures fall back to branded defaults, a missing video
// id fails the strategy.
type YouTubeHandler struct {
	fetcher  *PageFetcher
	endpoint string
	sleep    func(time.Duration)
}

func (h *YouTubeHandler) Name() string { return strategyYouTube }

func (h *YouTubeHandler) CanHandle(host string, contentType ContentType) bool {
	return contentType == TypeYouTube
}

func (h *YouTubeHandler) Resolve(ctx context.Context, rawURL string, contentType ContentType) (*Metadata, error) {
	videoID, err := extractVideoID(rawURL)
	if err != nil {
		return nil, fmt.Errorf("extracting video ID: %w", err)
	}

	title, author := "YouTube Video", "YouTube"
	data, err := h.fetchOEmbedWithRetries(ctx, rawURL, youtubeOEmbedRetries)
	if err != nil {
		log.Printf("✗ YouTube oEmbed failed for %s, using defaults: %v", rawURL, err)
	} else {
		title = firstNonEmpty(data.Title, title)
		author = firstNonEmpty(data.AuthorName, author)
	}

	return &Metadata{
		Title:       title,
		Subtitle:    author,
		Description: "Watch on YouTube",
		ImageURL:    fmt.Sprintf("https://img.youtube.com/vi/%s/hqdefault.jpg", videoID),
		URL:         rawURL,
		ThemeColor:  "#FF0000",
		Config:      &YouTubeConfig{Mode: "player", StartTime: 0},
	}, nil
}

func extractVideoID(videoURL string) (string, error) {
	match := youtubeIDPattern.FindStringSubmatch(videoURL)
	if match == nil {
		return "", fmt.Errorf("no video ID found in %s", videoURL)
	}
	if len(match[2]) != youtubeVideoIDLength {
		return "", fmt.Errorf("video ID %q is not %d characters", match[2], youtubeVideoIDLength)
	}
	return match[2], nil
}

// fetchOEmbedWithRetries retries rate limited lookups with exponential backoff
func (h *YouTubeHandler) fetchOEmbedWithRetries(ctx context.Context, rawURL string, retries int) (*oEmbedResponse, error) {
	sleep := h.sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var lastErr error
	for i := 0; i < retries; i++ {
		var data oEmbedResponse
		err := h.fetcher.FetchJSON(ctx, oEmbedURL(h.endpoint, rawURL), &data)
		if err == nil {
			return &data, nil
		}
		lastErr = err

		var httpErr *HTTPError
		if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusTooManyRequests {
			return nil, err
		}

		if i < retries-1 {
			backoff := time.Duration(1<<uint(i)) * time.Second
			debugLog("YouTube oEmbed rate limited, retrying in %s", backoff)
			sleep(backoff)
		}
	}
	return nil, fmt.Errorf("exceeded max retries after %d attempts: %w", retries, lastErr)
}
