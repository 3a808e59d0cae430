// Package seo builds page metadata: titles, Open Graph, hreflang alternates
// and JSON-LD.
package seo

import (
	"net/url"
	"strings"

	"github.com/HowestAILab/AIUPD8-Website/internal/i18n"
)

// SiteName is used for og:site_name and title suffixes.
const SiteName = "AIUPD8"

type OpenGraph struct {
	Title       string
	Description string
	Image       string
	Type        string
	URL         string
	SiteName    string
	Locale      string
}

type Twitter struct {
	Card  string
	Image string
}

// Alternate is one hreflang link.
type Alternate struct {
	Href     string
	Hreflang string
}

type Meta struct {
	Title       string
	Description string
	Canonical   string
	Robots      string
	OG          OpenGraph
	Twitter     Twitter
	Alternates  []Alternate
	JSONLD      []any
}

// New fills Meta for a page at path in locale. Title gets the site suffix
// unless it already is the site name.
func New(baseURL, path string, locale i18n.Locale, title, description, image string) Meta {
	full := title
	if full == "" {
		full = SiteName
	} else if full != SiteName {
		full = title + " | " + SiteName
	}
	canonical := Absolute(baseURL, path, locale)
	m := Meta{
		Title:       full,
		Description: description,
		Canonical:   canonical,
		OG: OpenGraph{
			Title:       full,
			Description: description,
			Image:       image,
			Type:        "website",
			URL:         canonical,
			SiteName:    SiteName,
			Locale:      strings.ReplaceAll(locale.DateCode(), "-", "_"),
		},
		Twitter:    Twitter{Card: "summary_large_image", Image: image},
		Alternates: Alternates(baseURL, path),
	}
	if image == "" {
		m.Twitter.Card = "summary"
	}
	return m
}

// Alternates lists one link per supported locale plus x-default, which
// points at the default locale.
func Alternates(baseURL, path string) []Alternate {
	out := make([]Alternate, 0, len(i18n.Supported())+1)
	for _, l := range i18n.Supported() {
		out = append(out, Alternate{Href: Absolute(baseURL, path, l), Hreflang: string(l)})
	}
	out = append(out, Alternate{Href: Absolute(baseURL, path, i18n.Default), Hreflang: "x-default"})
	return out
}

// Absolute joins baseURL and path and pins the language with ?lang.
func Absolute(baseURL, path string, locale i18n.Locale) string {
	base := strings.TrimRight(baseURL, "/")
	if path == "" || path[0] != '/' {
		path = "/" + path
	}
	u, err := url.Parse(base + path)
	if err != nil {
		return base + path
	}
	q := u.Query()
	q.Set("lang", string(locale))
	u.RawQuery = q.Encode()
	return u.String()
}
