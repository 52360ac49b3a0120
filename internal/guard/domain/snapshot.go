package domain

// PageSnapshot is an immutable capture of the page signals the scorer
// consumes. Building one is the job of whatever observed the page (the
// snapshot parser for raw HTML, or a page context sending a report); scoring
// it is a pure function over this value.
type PageSnapshot struct {
	// VisibleText is the rendered text of the page. The scorer only reads
	// a bounded prefix, callers need not truncate.
	VisibleText string `json:"visibleText"`

	// Anchors lists hyperlink elements in document order with their
	// destination hosts already resolved. Anchors with unparseable
	// destinations carry an empty Host.
	Anchors []Anchor `json:"anchors"`

	// HasPasswordInput is true when any password-type input exists.
	HasPasswordInput bool `json:"hasPasswordInput"`

	// Overlays lists elements that looked like overlay candidates when the
	// snapshot was captured.
	Overlays []Overlay `json:"overlays"`
}

// Anchor is one hyperlink: its visible text and the canonical hostname its
// href resolves to.
type Anchor struct {
	Text string `json:"text"`
	Host string `json:"host"`
}

// Overlay describes the geometry and visibility of one overlay-candidate
// element.
type Overlay struct {
	Tag      string  `json:"tag"`      // lowercase element name, e.g. "iframe", "div"
	Width    int     `json:"width"`    // layout width in px
	Height   int     `json:"height"`   // layout height in px
	CoverX   float64 `json:"coverX"`   // fraction of viewport width covered
	CoverY   float64 `json:"coverY"`   // fraction of viewport height covered
	FixedPos bool    `json:"fixedPos"` // position: fixed
	ZIndex   int     `json:"zIndex"`
	Opacity  float64 `json:"opacity"` // 1 when unspecified
	Hidden   bool    `json:"hidden"`  // visibility: hidden
}
