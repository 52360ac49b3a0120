// Package snapshot turns raw HTML into the PageSnapshot value the scorer
// consumes. It is a best-effort observer: anything it cannot make sense of
// (bad markup, unresolvable hrefs, unparseable styles) contributes nothing
// rather than failing the capture.
package snapshot

import (
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/haukened/phishguard/internal/guard/common/urlx"
	"github.com/haukened/phishguard/internal/guard/domain"
)

// Collection bounds. Hostile pages can be arbitrarily large; the snapshot
// never is.
const (
	maxVisibleTextBytes = 1 << 16
	maxAnchors          = 512
	maxAnchorTextRunes  = 200
	maxOverlays         = 256
)

// skipText marks subtrees whose text is never rendered.
var skipText = map[string]struct{}{
	"script":   {},
	"style":    {},
	"noscript": {},
	"template": {},
	"head":     {},
}

// Parse builds a PageSnapshot from raw HTML. Relative anchor destinations
// are resolved against baseURL. Unparseable input yields an empty snapshot.
func Parse(rawHTML, baseURL string) domain.PageSnapshot {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return domain.PageSnapshot{}
	}

	c := &collector{}
	if base, err := url.Parse(strings.TrimSpace(baseURL)); err == nil {
		c.base = base
	}
	c.walk(doc)

	return domain.PageSnapshot{
		VisibleText:      strings.Join(c.text, " "),
		Anchors:          c.anchors,
		HasPasswordInput: c.password,
		Overlays:         c.overlays,
	}
}

type collector struct {
	base      *url.URL
	text      []string
	textBytes int
	anchors   []domain.Anchor
	password  bool
	overlays  []domain.Overlay
}

func (c *collector) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "input":
			if strings.EqualFold(attr(n, "type"), "password") {
				c.password = true
			}
		case "a":
			c.addAnchor(n)
		case "iframe":
			c.addOverlay(n)
		default:
			if style := attr(n, "style"); style != "" {
				c.maybeAddStyledOverlay(n, style)
			}
		}
		if _, skip := skipText[n.Data]; skip {
			return
		}
	}

	if n.Type == html.TextNode {
		c.addText(n.Data)
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.walk(child)
	}
}

func (c *collector) addText(raw string) {
	if c.textBytes >= maxVisibleTextBytes {
		return
	}
	t := strings.Join(strings.Fields(raw), " ")
	if t == "" {
		return
	}
	if room := maxVisibleTextBytes - c.textBytes; len(t) > room {
		t = t[:room]
	}
	c.text = append(c.text, t)
	c.textBytes += len(t) + 1
}

func (c *collector) addAnchor(n *html.Node) {
	if len(c.anchors) >= maxAnchors {
		return
	}
	c.anchors = append(c.anchors, domain.Anchor{
		Text: anchorText(n),
		Host: c.resolveHost(attr(n, "href")),
	})
}

// resolveHost resolves href against the page URL and returns the canonical
// destination host, or "" when the href goes nowhere resolvable.
func (c *collector) resolveHost(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if c.base != nil {
		ref = c.base.ResolveReference(ref)
	}
	return urlx.CanonicalHost(ref.Hostname())
}

// addOverlay records an iframe with its attribute geometry.
func (c *collector) addOverlay(n *html.Node) {
	if len(c.overlays) >= maxOverlays {
		return
	}
	o := domain.Overlay{Tag: "iframe", Opacity: 1}
	if w, _ := parseDimension(attr(n, "width")); w > 0 {
		o.Width = w
	}
	if h, _ := parseDimension(attr(n, "height")); h > 0 {
		o.Height = h
	}
	applyStyle(&o, attr(n, "style"))
	c.overlays = append(c.overlays, o)
}

// maybeAddStyledOverlay records a non-iframe element only when its inline
// style makes it an overlay candidate: fixed positioning, zero opacity, or
// hidden visibility.
func (c *collector) maybeAddStyledOverlay(n *html.Node, style string) {
	if len(c.overlays) >= maxOverlays {
		return
	}
	o := domain.Overlay{Tag: n.Data, Opacity: 1}
	applyStyle(&o, style)
	if !o.FixedPos && o.Opacity != 0 && !o.Hidden {
		return
	}
	c.overlays = append(c.overlays, o)
}

// applyStyle folds recognized inline style declarations into the overlay.
func applyStyle(o *domain.Overlay, style string) {
	if style == "" {
		return
	}
	for _, decl := range strings.Split(style, ";") {
		key, value, found := strings.Cut(decl, ":")
		if !found {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.ToLower(strings.TrimSpace(value))
		switch key {
		case "position":
			if value == "fixed" {
				o.FixedPos = true
			}
		case "z-index":
			if z, err := strconv.Atoi(value); err == nil {
				o.ZIndex = z
			}
		case "opacity":
			if f, err := strconv.ParseFloat(value, 64); err == nil {
				o.Opacity = f
			}
		case "visibility":
			if value == "hidden" {
				o.Hidden = true
			}
		case "width":
			px, frac := parseDimension(value)
			if px > 0 {
				o.Width = px
			}
			if frac > 0 {
				o.CoverX = frac
			}
		case "height":
			px, frac := parseDimension(value)
			if px > 0 {
				o.Height = px
			}
			if frac > 0 {
				o.CoverY = frac
			}
		}
	}
}

// parseDimension understands the dimension spellings that matter here:
// bare numbers and px values become pixels, percentages and viewport units
// become a coverage fraction.
func parseDimension(v string) (px int, frac float64) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return 0, 0
	}
	switch {
	case strings.HasSuffix(v, "%"):
		if f, err := strconv.ParseFloat(strings.TrimSuffix(v, "%"), 64); err == nil {
			return 0, f / 100
		}
	case strings.HasSuffix(v, "vw"), strings.HasSuffix(v, "vh"):
		if f, err := strconv.ParseFloat(v[:len(v)-2], 64); err == nil {
			return 0, f / 100
		}
	case strings.HasSuffix(v, "px"):
		if f, err := strconv.ParseFloat(strings.TrimSuffix(v, "px"), 64); err == nil {
			return int(f), 0
		}
	default:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return int(f), 0
		}
	}
	return 0, 0
}

// anchorText returns the space-normalized text content of an anchor,
// bounded to keep pathological anchors cheap.
func anchorText(n *html.Node) string {
	var parts []string
	var visit func(*html.Node)
	count := 0
	visit = func(node *html.Node) {
		if count >= maxAnchorTextRunes {
			return
		}
		if node.Type == html.TextNode {
			t := strings.Join(strings.Fields(node.Data), " ")
			if t != "" {
				parts = append(parts, t)
				count += len(t)
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			visit(child)
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		visit(child)
	}
	text := strings.Join(parts, " ")
	if len(text) > maxAnchorTextRunes {
		text = text[:maxAnchorTextRunes]
	}
	return text
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}
