package model

import "time"

// SnapshotMeta carries the non-essential flags and redirect/alias
// bookkeeping for a PageSnapshot (spec §3).
type SnapshotMeta struct {
	Rendered       bool     `json:"rendered,omitempty"`
	RobotsBlocked  bool     `json:"robots_blocked,omitempty"`
	Redirects      []string `json:"redirects,omitempty"`
	AliasURLs      []string `json:"alias_urls,omitempty"`
	Source         string   `json:"source,omitempty"`
	LanguageConf   float64  `json:"language_confidence,omitempty"`
	HasLanguageConf bool    `json:"-"`
}

// PageSnapshot is a single fetched web page, deduplicated by Checksum
// (the sha256 of Text). Consumed by S0 raw extraction and, later, by
// the web validator's evidence index (spec §3).
type PageSnapshot struct {
	Institution  string       `json:"institution"`
	URL          string       `json:"url"`
	CanonicalURL string       `json:"canonical_url,omitempty"`
	FetchedAt    time.Time    `json:"fetched_at"`
	HTTPStatus   int          `json:"http_status"`
	ContentType  string       `json:"content_type"`
	HTML         string       `json:"html,omitempty"`
	Text         string       `json:"text"`
	Lang         string       `json:"lang,omitempty"`
	Checksum     string       `json:"checksum"`
	Meta         SnapshotMeta `json:"meta"`
}

// AddAliasURL appends url to AliasURLs if it is not already present.
func (p *PageSnapshot) AddAliasURL(url string) {
	for _, u := range p.Meta.AliasURLs {
		if u == url {
			return
		}
	}
	p.Meta.AliasURLs = append(p.Meta.AliasURLs, url)
}
