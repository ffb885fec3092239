// Package markup validates and normalizes inline SVG icons before they are
// embedded in rendered pages.
//
// Icons are free-form strings entered through the admin console. [IsValid] is
// a cheap structural check. [Normalize] rewrites a valid icon into a canonical
// form that scales with its container and has executable constructs removed.
// [Render] is what templates call: it never returns untrusted markup and falls
// back to [Placeholder] when an icon cannot be used.
package markup

import (
	"errors"
	"html/template"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	// Namespace is injected on the root element when it has no xmlns attribute.
	Namespace = "http://www.w3.org/2000/svg"

	// DefaultViewBox is injected on the root element when it has no viewBox.
	DefaultViewBox = "0 0 24 24"

	// Placeholder is rendered in place of an icon that failed validation.
	Placeholder template.HTML = `<span class="icon-placeholder" role="img" aria-label="no icon">&#8856;</span>`

	openTag  = "<svg"
	closeTag = "</svg>"

	// svgSpace is the namespace the parser gives to elements of foreign SVG
	// content.
	svgSpace = "svg"
)

// fillDeclarations are appended to the root style so the icon fills its box.
var fillDeclarations = []string{"width:100%", "height:100%"}

// elements lists the SVG elements an icon may contain, lowercased. Anything
// else, including HTML that the parser placed inside title or desc, is removed
// together with its content.
var elements = map[string]bool{
	"svg": true, "g": true, "defs": true, "symbol": true, "use": true,
	"title": true, "desc": true, "style": true, "switch": true, "view": true,
	"path": true, "rect": true, "circle": true, "ellipse": true, "line": true,
	"polyline": true, "polygon": true, "text": true, "tspan": true, "textpath": true,
	"a": true, "image": true, "marker": true, "pattern": true, "mask": true,
	"clippath": true, "lineargradient": true, "radialgradient": true, "stop": true,
	"filter": true, "feblend": true, "fecolormatrix": true, "fecomponenttransfer": true,
	"fecomposite": true, "feconvolvematrix": true, "fediffuselighting": true,
	"fedisplacementmap": true, "fedistantlight": true, "fedropshadow": true,
	"feflood": true, "fefunca": true, "fefuncb": true, "fefuncg": true, "fefuncr": true,
	"fegaussianblur": true, "feimage": true, "femerge": true, "femergenode": true,
	"femorphology": true, "feoffset": true, "fepointlight": true,
	"fespecularlighting": true, "fespotlight": true, "fetile": true, "feturbulence": true,
}

var (
	errNotSVG      = errors.New("markup: root element is not svg")
	errSingleRoot  = errors.New("markup: content outside the root svg element")
	fragmentParent = &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
)

// IsValid reports whether s, once trimmed, opens with an svg tag and ends with
// the matching close tag. It does not parse the content in between.
func IsValid(s string) bool {
	t := strings.TrimSpace(s)
	return strings.HasPrefix(t, openTag) && strings.HasSuffix(t, closeTag)
}

// Normalize returns the canonical form of an SVG icon, or "" when s is not
// valid markup.
//
// s is parsed the way a browser parses an svg element inside a page, and must
// yield exactly one svg element. On that root Normalize injects the SVG
// namespace and a default viewBox when missing, removes width and height
// attributes, and makes the style fill the container. Elements that are not
// SVG drawing elements (script, foreignObject, anything in the HTML
// namespace) are removed with their content, as are comments. On every kept
// element className is renamed to class, and event handler attributes and
// script URIs are dropped. Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	if !IsValid(s) {
		return ""
	}
	out, err := rewrite(strings.TrimSpace(s))
	if err != nil || !IsValid(out) {
		return ""
	}
	return out
}

// Render returns the normalized icon as trusted HTML, or Placeholder when the
// icon is empty or invalid.
func Render(s string) template.HTML {
	if n := Normalize(s); n != "" {
		//nolint:gosec
		return template.HTML(n)
	}
	return Placeholder
}

func rewrite(src string) (string, error) {
	nodes, err := html.ParseFragment(strings.NewReader(src), fragmentParent)
	if err != nil {
		return "", err
	}
	if len(nodes) != 1 {
		return "", errSingleRoot
	}
	root := nodes[0]
	if root.Type != html.ElementNode || root.Namespace != svgSpace || root.Data != "svg" {
		return "", errNotSVG
	}

	clean(root)
	root.Attr = rootAttributes(root.Attr)

	var b strings.Builder
	b.Grow(len(src) + 64)
	if err := html.Render(&b, root); err != nil {
		return "", err
	}
	return b.String(), nil
}

// clean strips n's attributes and removes every child that is not text or an
// allowed SVG element.
func clean(n *html.Node) {
	n.Attr = cleanAttributes(n.Attr)
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch {
		case c.Type == html.TextNode:
		case c.Type == html.ElementNode && c.Namespace == svgSpace && elements[strings.ToLower(c.Data)]:
			clean(c)
		default:
			n.RemoveChild(c)
		}
		c = next
	}
}

// rootAttributes applies the root-only rewrites.
func rootAttributes(attrs []html.Attribute) []html.Attribute {
	out := make([]html.Attribute, 0, len(attrs)+3)
	var hasNS, hasViewBox, hasStyle bool
	for _, a := range attrs {
		if a.Namespace == "" {
			switch strings.ToLower(a.Key) {
			case "width", "height":
				continue
			case "xmlns":
				hasNS = true
			case "viewbox":
				hasViewBox = true
			case "style":
				hasStyle = true
				a.Val = fillStyle(a.Val)
			}
		}
		out = append(out, a)
	}
	if !hasNS {
		out = append(out, html.Attribute{Key: "xmlns", Val: Namespace})
	}
	if !hasViewBox {
		out = append(out, html.Attribute{Key: "viewBox", Val: DefaultViewBox})
	}
	if !hasStyle {
		out = append(out, html.Attribute{Key: "style", Val: fillStyle("")})
	}
	return out
}

// fillStyle replaces width and height declarations with the fill declarations.
func fillStyle(style string) string {
	decls := make([]string, 0, 4)
	for _, d := range strings.Split(style, ";") {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		prop, _, _ := strings.Cut(d, ":")
		switch strings.ToLower(strings.TrimSpace(prop)) {
		case "width", "height":
			continue
		}
		decls = append(decls, d)
	}
	decls = append(decls, fillDeclarations...)
	return strings.Join(decls, ";")
}

// cleanAttributes renames className, drops event handlers and any attribute
// whose value, or one of its semicolon separated parts, is a script URI.
func cleanAttributes(attrs []html.Attribute) []html.Attribute {
	out := make([]html.Attribute, 0, len(attrs))
	classIdx := -1
	for _, a := range attrs {
		lname := strings.ToLower(a.Key)
		if !validKey(a.Key) || strings.HasPrefix(lname, "on") || unsafeValue(a.Val) {
			continue
		}
		if a.Namespace == "" && (lname == "classname" || lname == "class") {
			if classIdx >= 0 {
				out[classIdx].Val = strings.TrimSpace(out[classIdx].Val + " " + a.Val)
				continue
			}
			a.Key = "class"
			classIdx = len(out)
		}
		out = append(out, a)
	}
	return out
}

// validKey accepts the attribute names SVG uses. The parser keeps names such
// as `a"b` which would not survive being written back out.
func validKey(k string) bool {
	if k == "" {
		return false
	}
	for _, r := range k {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.', r == ':':
		default:
			return false
		}
	}
	return true
}

// unsafeValue covers plain URI attributes and animation value lists such as
// values="#a;javascript:...".
func unsafeValue(v string) bool {
	for _, part := range strings.Split(v, ";") {
		if unsafeURI(part) {
			return true
		}
	}
	return false
}

func unsafeURI(v string) bool {
	u := strings.Map(func(r rune) rune {
		if r <= ' ' {
			return -1
		}
		return r
	}, v)
	u = strings.ToLower(u)
	return strings.HasPrefix(u, "javascript:") ||
		strings.HasPrefix(u, "vbscript:") ||
		strings.HasPrefix(u, "data:text/html")
}
