// Package assets extracts, deduplicates, and reinjects the CSS and JS
// references discovered while composing a component tree.
//
// Extraction and injection run on the x/net/html tokenizer rather than a full
// parse-and-reserialize, so every byte of unrelated markup survives
// untouched; only stylesheet links and scripts with a src attribute are
// removed and re-added.
package assets

import (
	"html"
	"io"
	"sort"
	"strings"

	xhtml "golang.org/x/net/html"
)

// Kind distinguishes stylesheet and script assets.
type Kind string

const (
	KindCSS Kind = "css"
	KindJS  Kind = "js"
)

// Names of the shared global assets. A source containing one of these is
// global and sorts ahead of everything else.
const (
	GlobalStylesheet = "globals.css"
	GlobalScript     = "globals.js"
)

// Asset is one external CSS or JS reference. Identity for deduplication is
// (Kind, Source). Attributes holds every attribute other than the source
// (and, for links, rel), preserved verbatim on reinjection.
type Asset struct {
	Kind       Kind
	Source     string
	Global     bool
	Attributes map[string]string
}

// key returns the deduplication identity.
func (a Asset) key() string {
	return string(a.Kind) + "\x00" + a.Source
}

// Tag renders the asset back into markup. Extra attributes are emitted in
// sorted order so output is deterministic.
func (a Asset) Tag() string {
	var b strings.Builder

	extra := make([]string, 0, len(a.Attributes))
	for k := range a.Attributes {
		extra = append(extra, k)
	}
	sort.Strings(extra)

	switch a.Kind {
	case KindCSS:
		b.WriteString(`<link rel="stylesheet" href="`)
		b.WriteString(html.EscapeString(a.Source))
		b.WriteString(`"`)
		for _, k := range extra {
			writeAttr(&b, k, a.Attributes[k])
		}
		b.WriteString(">")
	case KindJS:
		b.WriteString(`<script src="`)
		b.WriteString(html.EscapeString(a.Source))
		b.WriteString(`"`)
		for _, k := range extra {
			writeAttr(&b, k, a.Attributes[k])
		}
		b.WriteString("></script>")
	}

	return b.String()
}

func writeAttr(b *strings.Builder, key, value string) {
	b.WriteString(" ")
	b.WriteString(key)
	if value != "" {
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(value))
		b.WriteString(`"`)
	}
}

// Extract removes stylesheet-link and script-with-src elements from markup
// and returns the cleaned markup together with the recorded assets, in
// discovery order.
func Extract(markup string) (string, []Asset) {
	lower := strings.ToLower(markup)
	if !strings.Contains(lower, "<link") && !strings.Contains(lower, "<script") {
		return markup, nil
	}

	var (
		out        strings.Builder
		found      []Asset
		skipScript bool
	)
	out.Grow(len(markup))

	z := xhtml.NewTokenizer(strings.NewReader(markup))
	for {
		tt := z.Next()
		if tt == xhtml.ErrorToken {
			if z.Err() != io.EOF {
				// Tokenizer failure: fall back to the untouched input.
				return markup, nil
			}
			break
		}

		raw := string(z.Raw())

		if skipScript {
			// Inside a removed <script src>; drop everything up to and
			// including its end tag.
			if tt == xhtml.EndTagToken {
				if name, _ := z.TagName(); strings.EqualFold(string(name), "script") {
					skipScript = false
				}
			}
			continue
		}

		switch tt {
		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			token := z.Token()
			switch token.Data {
			case "link":
				if asset, ok := linkAsset(token); ok {
					found = append(found, asset)
					continue
				}
			case "script":
				if asset, ok := scriptAsset(token); ok {
					found = append(found, asset)
					skipScript = tt == xhtml.StartTagToken
					continue
				}
			}
		}

		out.WriteString(raw)
	}

	return out.String(), found
}

func linkAsset(token xhtml.Token) (Asset, bool) {
	attrs := make(map[string]string)
	var href, rel string
	for _, attr := range token.Attr {
		switch attr.Key {
		case "href":
			href = attr.Val
		case "rel":
			rel = attr.Val
		default:
			attrs[attr.Key] = attr.Val
		}
	}

	if !strings.EqualFold(rel, "stylesheet") || href == "" {
		return Asset{}, false
	}

	return Asset{
		Kind:       KindCSS,
		Source:     href,
		Global:     strings.Contains(href, GlobalStylesheet),
		Attributes: attrs,
	}, true
}

func scriptAsset(token xhtml.Token) (Asset, bool) {
	attrs := make(map[string]string)
	var src string
	for _, attr := range token.Attr {
		if attr.Key == "src" {
			src = attr.Val
			continue
		}
		attrs[attr.Key] = attr.Val
	}

	if src == "" {
		return Asset{}, false
	}

	return Asset{
		Kind:       KindJS,
		Source:     src,
		Global:     strings.Contains(src, GlobalScript),
		Attributes: attrs,
	}, true
}

// Deduplicate orders assets (globals first, then CSS before JS, otherwise
// discovery order) and keeps the first occurrence of each (Kind, Source).
func Deduplicate(in []Asset) []Asset {
	ordered := make([]Asset, len(in))
	copy(ordered, in)

	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Global != b.Global {
			return a.Global
		}
		if a.Kind != b.Kind {
			return a.Kind == KindCSS
		}
		return false
	})

	seen := make(map[string]struct{}, len(ordered))
	unique := ordered[:0]
	for _, asset := range ordered {
		if _, dup := seen[asset.key()]; dup {
			continue
		}
		seen[asset.key()] = struct{}{}
		unique = append(unique, asset)
	}

	return unique
}

// Inject appends stylesheet links to the document head (creating one if
// absent) and script tags immediately before the end of the body (creating a
// body section if absent). With no assets the markup is returned unchanged.
func Inject(markup string, in []Asset) string {
	var css, js []Asset
	for _, asset := range in {
		if asset.Kind == KindCSS {
			css = append(css, asset)
		} else {
			js = append(js, asset)
		}
	}
	if len(css) == 0 && len(js) == 0 {
		return markup
	}

	var cssTags, jsTags strings.Builder
	for _, asset := range css {
		cssTags.WriteString(asset.Tag())
		cssTags.WriteString("\n")
	}
	for _, asset := range js {
		jsTags.WriteString(asset.Tag())
		jsTags.WriteString("\n")
	}

	shape := scan(markup)

	var out strings.Builder
	out.Grow(len(markup) + cssTags.Len() + jsTags.Len() + 64)

	cssDone := len(css) == 0
	jsDone := len(js) == 0

	if !cssDone && !shape.hasHeadStart && !shape.hasHTMLStart {
		// No place to hang a head off; synthesize one up front.
		out.WriteString("<head>\n")
		out.WriteString(cssTags.String())
		out.WriteString("</head>\n")
		cssDone = true
	}

	z := xhtml.NewTokenizer(strings.NewReader(markup))
	for {
		tt := z.Next()
		if tt == xhtml.ErrorToken {
			if z.Err() != io.EOF {
				return markup
			}
			break
		}

		raw := string(z.Raw())
		name := ""
		if tt == xhtml.StartTagToken || tt == xhtml.EndTagToken || tt == xhtml.SelfClosingTagToken {
			n, _ := z.TagName()
			name = strings.ToLower(string(n))
		}

		switch {
		case !cssDone && tt == xhtml.EndTagToken && name == "head":
			out.WriteString(cssTags.String())
			cssDone = true
		case !cssDone && tt == xhtml.StartTagToken && name == "head" && !shape.hasHeadEnd:
			out.WriteString(raw)
			out.WriteString("\n")
			out.WriteString(cssTags.String())
			cssDone = true
			continue
		case !cssDone && tt == xhtml.StartTagToken && name == "html" && !shape.hasHeadStart:
			out.WriteString(raw)
			out.WriteString("\n<head>\n")
			out.WriteString(cssTags.String())
			out.WriteString("</head>")
			cssDone = true
			continue
		case !jsDone && tt == xhtml.EndTagToken && name == "body":
			out.WriteString(jsTags.String())
			jsDone = true
		}

		out.WriteString(raw)
	}

	if !jsDone {
		if shape.hasBodyStart {
			out.WriteString("\n")
			out.WriteString(jsTags.String())
		} else {
			out.WriteString("\n<body>\n")
			out.WriteString(jsTags.String())
			out.WriteString("</body>\n")
		}
	}

	return out.String()
}

type docShape struct {
	hasHTMLStart bool
	hasHeadStart bool
	hasHeadEnd   bool
	hasBodyStart bool
	hasBodyEnd   bool
}

// scan records which document sections exist so Inject knows where to create
// missing ones.
func scan(markup string) docShape {
	var shape docShape

	z := xhtml.NewTokenizer(strings.NewReader(markup))
	for {
		tt := z.Next()
		if tt == xhtml.ErrorToken {
			break
		}
		if tt != xhtml.StartTagToken && tt != xhtml.EndTagToken {
			continue
		}

		n, _ := z.TagName()
		name := strings.ToLower(string(n))
		start := tt == xhtml.StartTagToken

		switch name {
		case "html":
			if start {
				shape.hasHTMLStart = true
			}
		case "head":
			if start {
				shape.hasHeadStart = true
			} else {
				shape.hasHeadEnd = true
			}
		case "body":
			if start {
				shape.hasBodyStart = true
			} else {
				shape.hasBodyEnd = true
			}
		}
	}

	return shape
}
