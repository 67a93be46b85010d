package main

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"
)

const strategyPlaceholder = "placeholder"

// ResolvedMetadata is the outcome of a resolve call. Fallback marks the
// placeholder payload so callers need not compare titles.
type ResolvedMetadata struct {
	Metadata *Metadata
	Strategy string
	Fallback bool
}

// ResolutionHandler is one strategy in the routing table
type ResolutionHandler interface {
	Name() string
	CanHandle(host string, contentType ContentType) bool
	Resolve(ctx context.Context, rawURL string, contentType ContentType) (*Metadata, error)
}

// Resolver turns a URL into metadata, consulting the cache first and then
// the first handler that accepts the URL. It never returns an error.
type Resolver struct {
	cache    *MetadataCache
	handlers []ResolutionHandler
	now      func() time.Time
}

// NewResolver creates a resolver with the default routing table. A nil
// inference agent leaves URLs that reach the end of the table unresolved.
func NewResolver(cache *MetadataCache, fetcher *PageFetcher, inference MetadataInferrer) *Resolver {
	r := &Resolver{
		cache: cache,
		now:   time.Now,
	}

	// Register handlers (most specific first)
	r.AddHandler(NewOpenGraphHandler(fetcher))
	r.AddHandler(&MovingPhotoHandler{})
	r.AddHandler(&PinterestHandler{fetcher: fetcher, endpoint: pinterestOEmbedEndpoint})
	r.AddHandler(&YouTubeHandler{fetcher: fetcher, endpoint: youtubeOEmbedEndpoint})
	r.AddHandler(&SocialHandler{})
	if inference != nil {
		r.AddHandler(&InferenceHandler{agent: inference}) // fallback
	}

	return r
}

// AddHandler appends a handler to the routing table
func (r *Resolver) AddHandler(handler ResolutionHandler) {
	r.handlers = append(r.handlers, handler)
}

// Resolve returns metadata for rawURL. Strategy failures are logged and
// replaced by the placeholder, which is cached like any other result.
func (r *Resolver) Resolve(ctx context.Context, rawURL string, contentType ContentType) ResolvedMetadata {
	if cached, ok := r.cache.Get(rawURL); ok {
		debugLog("cache hit: %s", rawURL)
		return cached
	}

	// the fetch outlives a caller that stops waiting so the cache still fills
	ctx = context.WithoutCancel(ctx)

	debugLog("resolving %s as %s", rawURL, contentType)
	result := r.resolveFresh(ctx, rawURL, contentType)
	r.cache.Put(rawURL, result)
	return result
}

func (r *Resolver) resolveFresh(ctx context.Context, rawURL string, contentType ContentType) ResolvedMetadata {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		log.Printf("✗ Cannot resolve %q: not an absolute URL", rawURL)
		return r.placeholder(rawURL)
	}
	host := strings.ToLower(u.Hostname())

	for _, handler := range r.handlers {
		if !handler.CanHandle(host, contentType) {
			continue
		}

		start := time.Now()
		metadata, err := handler.Resolve(ctx, rawURL, contentType)
		resolverDuration.WithLabelValues(handler.Name()).Observe(time.Since(start).Seconds())

		if err == nil && metadata == nil {
			err = fmt.Errorf("%s returned no metadata", handler.Name())
		}
		if err != nil {
			resolverStrategyTotal.WithLabelValues(handler.Name(), outcomeFailure).Inc()
			log.Printf("✗ %s failed for %s: %v", handler.Name(), rawURL, err)
			return r.placeholder(rawURL)
		}

		resolverStrategyTotal.WithLabelValues(handler.Name(), outcomeSuccess).Inc()
		return ResolvedMetadata{Metadata: metadata, Strategy: handler.Name()}
	}

	debugLog("no handler accepted %s (%s)", rawURL, contentType)
	return r.placeholder(rawURL)
}

func (r *Resolver) placeholder(rawURL string) ResolvedMetadata {
	resolverStrategyTotal.WithLabelValues(strategyPlaceholder, outcomeFallback).Inc()
	return ResolvedMetadata{
		Metadata: placeholderMetadata(rawURL, r.now()),
		Strategy: strategyPlaceholder,
		Fallback: true,
	}
}

func placeholderMetadata(rawURL string, now time.Time) *Metadata {
	return &Metadata{
		Title:       PlaceholderTitle,
		Subtitle:    "Click to Edit",
		Description: "Could not load details automatically.",
		ImageURL:    picsumURL(fmt.Sprintf("%d", now.UnixMilli()), 400, 400),
		URL:         rawURL,
		ThemeColor:  "#64748b",
		IsEditable:  true,
	}
}

func picsumURL(seed string, width, height int) string {
	return fmt.Sprintf("https://picsum.photos/seed/%s/%d/%d", url.PathEscape(seed), width, height)
}
