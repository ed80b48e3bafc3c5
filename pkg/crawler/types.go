// Package crawler discovers the in-scope pages of one target host.
package crawler

import (
	"crypto/tls"
	"net/http"

	"github.com/PentesterFlow/OpenScanner/internal/parser"
)

// Form is an HTML form found on a page.
type Form = parser.Form

// Field is one control of a Form.
type Field = parser.Field

// Page is the result of one crawl fetch. Pages whose fetch failed carry Err
// and no links.
type Page struct {
	URL      string         `json:"url" yaml:"url"`
	FinalURL string         `json:"final_url,omitempty" yaml:"final_url,omitempty"`
	Status   int            `json:"status" yaml:"status"`
	Title    string         `json:"title,omitempty" yaml:"title,omitempty"`
	Depth    int            `json:"depth" yaml:"depth"`
	Forms    []Form         `json:"forms,omitempty" yaml:"forms,omitempty"`
	Links    []string       `json:"links,omitempty" yaml:"links,omitempty"`
	Scripts  []string       `json:"scripts,omitempty" yaml:"scripts,omitempty"`
	Header   http.Header    `json:"-" yaml:"-"`
	Cookies  []*http.Cookie `json:"-" yaml:"-"`
	Body     string         `json:"-" yaml:"-"`
	// TLS is the connection state of the response, nil over plain HTTP.
	TLS *tls.ConnectionState `json:"-" yaml:"-"`
	Err error                `json:"-" yaml:"-"`
}

// OK reports whether the page was fetched.
func (p Page) OK() bool {
	return p.Err == nil
}

// Stats summarizes one crawl.
type Stats struct {
	Visited int `json:"visited" yaml:"visited"`
	Failed  int `json:"failed" yaml:"failed"`
	Forms   int `json:"forms" yaml:"forms"`
	Levels  int `json:"levels" yaml:"levels"`
}

// Summarize counts pages.
func Summarize(pages []Page) Stats {
	var s Stats
	s.Visited = len(pages)
	for _, p := range pages {
		if !p.OK() {
			s.Failed++
		}
		s.Forms += len(p.Forms)
		if p.Depth+1 > s.Levels {
			s.Levels = p.Depth + 1
		}
	}
	return s
}
