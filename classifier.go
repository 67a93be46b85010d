package main

import (
	"net/url"
	"path"
	"strings"
)

// hostRule maps a set of domains to a content type. Rules are evaluated in
// order and the first match wins.
type hostRule struct {
	domains  []string
	keywords []string // brand names matched against any host label
	paths    []string // path fragments that also select the rule
	kind     ContentType
}

var movingPhotoExtensions = []string{".gif", ".webp", ".mp4"}

var hostRules = []hostRule{
	{domains: []string{"twitter.com", "x.com"}, kind: TypeTwitter},
	{domains: []string{"instagram.com"}, kind: TypeInstagram},
	{domains: []string{"pinterest.com", "pinterest.co.kr"}, kind: TypePinterest},
	{domains: []string{"aladin.co.kr", "yes24.com", "kyobobook.co.kr", "amazon.com"}, kind: TypeBook},
	{domains: []string{"youtube.com", "youtu.be"}, kind: TypeYouTube},
	{domains: []string{"blog.naver.com"}, kind: TypeNaverBlog},
	{domains: []string{"naver.com"}, kind: TypeNaver},
	{domains: []string{"postype.com"}, kind: TypePostype},
	{
		domains:  []string{"29cm.co.kr", "hm.com"},
		keywords: []string{"musinsa", "zara", "uniqlo", "nike"},
		paths:    []string{"/shop/", "/product/"},
		kind:     TypeFashion,
	},
	{domains: []string{"tumblbug.com", "watcha.com"}, kind: TypeGeneral},
	{domains: []string{"velog.io"}, kind: TypeNaverBlog},
}

// Classify maps a URL to a content type. It never fails: anything it cannot
// parse or recognise is general.
func Classify(rawURL string) ContentType {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return TypeGeneral
	}

	ext := strings.ToLower(path.Ext(u.Path))
	for _, e := range movingPhotoExtensions {
		if ext == e {
			return TypeMovingPhoto
		}
	}

	host := strings.ToLower(u.Hostname())
	lowerPath := strings.ToLower(u.Path)
	for _, rule := range hostRules {
		if rule.matches(host, lowerPath) {
			return rule.kind
		}
	}

	return TypeGeneral
}

func (r hostRule) matches(host, urlPath string) bool {
	for _, d := range r.domains {
		if hostMatches(host, d) {
			return true
		}
	}
	for _, kw := range r.keywords {
		for _, label := range strings.Split(host, ".") {
			if label == kw {
				return true
			}
		}
	}
	for _, p := range r.paths {
		if strings.Contains(urlPath, p) {
			return true
		}
	}
	return false
}

// hostMatches reports whether host is domain or one of its subdomains
func hostMatches(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}
