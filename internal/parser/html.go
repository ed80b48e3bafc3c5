// Package parser extracts links, forms and scripts from HTML pages.
package parser

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLParser parses documents relative to one base URL.
type HTMLParser struct {
	baseURL  *url.URL
	analyzer *FormAnalyzer
}

// NewHTMLParser creates a parser for pages fetched from baseURL.
func NewHTMLParser(baseURL string) (*HTMLParser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &HTMLParser{baseURL: u, analyzer: NewFormAnalyzer()}, nil
}

// Parse extracts a Document from body. Malformed HTML is tolerated; only a
// reader failure returns an error.
func (p *HTMLParser) Parse(body string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	result := &Document{
		Title:   strings.TrimSpace(doc.Find("title").First().Text()),
		Links:   make([]string, 0),
		Forms:   make([]Form, 0),
		Scripts: make([]string, 0),
		Meta:    make(map[string]string),
	}

	seen := make(map[string]struct{})
	addLink := func(raw string) {
		resolved := p.resolveURL(raw)
		if resolved == "" {
			return
		}
		if _, ok := seen[resolved]; ok {
			return
		}
		seen[resolved] = struct{}{}
		result.Links = append(result.Links, resolved)
	}

	doc.Find("a[href], area[href], iframe[src], frame[src]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			addLink(href)
			return
		}
		if src, ok := s.Attr("src"); ok {
			addLink(src)
		}
	})

	doc.Find("form").Each(func(_ int, s *goquery.Selection) {
		result.Forms = append(result.Forms, p.parseForm(s))
	})

	doc.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		if resolved := p.resolveURL(src); resolved != "" {
			result.Scripts = append(result.Scripts, resolved)
		}
	})

	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		name, _ := s.Attr("name")
		if name == "" {
			name, _ = s.Attr("property")
		}
		content, _ := s.Attr("content")
		if name != "" && content != "" {
			result.Meta[strings.ToLower(name)] = content
		}
	})

	for _, root := range doc.Nodes {
		collectComments(root, &result.Comments)
	}

	return result, nil
}

// parseForm resolves the action and collects the form's controls.
func (p *HTMLParser) parseForm(s *goquery.Selection) Form {
	form := Form{
		Method:  "GET",
		Enctype: "application/x-www-form-urlencoded",
		Fields:  make([]Field, 0),
	}

	form.Action = p.baseURL.String()
	if action, ok := s.Attr("action"); ok && strings.TrimSpace(action) != "" {
		if resolved := p.resolveURL(action); resolved != "" {
			form.Action = resolved
		}
	}
	if method, ok := s.Attr("method"); ok && strings.EqualFold(strings.TrimSpace(method), "post") {
		form.Method = "POST"
	}
	if enctype, ok := s.Attr("enctype"); ok && enctype != "" {
		form.Enctype = enctype
	}

	s.Find("input, textarea, select").Each(func(_ int, control *goquery.Selection) {
		form.Fields = append(form.Fields, parseField(control))
	})

	form.HasCSRF, form.CSRFField = p.analyzer.DetectCSRF(form.Fields)
	return form
}

func parseField(s *goquery.Selection) Field {
	field := Field{}
	field.Name, _ = s.Attr("name")

	var kind atom.Atom
	if len(s.Nodes) > 0 {
		kind = s.Nodes[0].DataAtom
	}

	switch kind {
	case atom.Textarea:
		field.Kind = "textarea"
		field.DefaultValue = strings.TrimSpace(s.Text())
	case atom.Select:
		field.Kind = "select"
		opt := s.Find("option[selected]").First()
		if opt.Length() == 0 {
			opt = s.Find("option").First()
		}
		field.DefaultValue, _ = opt.Attr("value")
	default:
		field.Kind = strings.ToLower(strings.TrimSpace(s.AttrOr("type", "text")))
		if field.Kind == "" {
			field.Kind = "text"
		}
		field.DefaultValue, _ = s.Attr("value")
	}
	return field
}

func collectComments(n *html.Node, out *[]string) {
	if n.Type == html.CommentNode {
		if text := strings.TrimSpace(n.Data); text != "" {
			*out = append(*out, text)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectComments(c, out)
	}
}

// resolveURL makes href absolute. Pseudo-schemes and bare fragments yield "".
func (p *HTMLParser) resolveURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}

	lower := strings.ToLower(href)
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return ""
		}
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := p.baseURL.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""
	resolved.RawFragment = ""
	return resolved.String()
}
