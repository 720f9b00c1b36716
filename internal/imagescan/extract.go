package imagescan

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/hyperifyio/postcheck/internal/fields"
)

// imageExts are the recognized still-image file extensions.
var imageExts = []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp", ".svg", ".avif", ".heic"}

// hintKeys mark map keys whose string values are treated as image candidates
// even without a recognized extension.
var hintKeys = []string{
	"image", "images", "img", "thumbnail", "thumb", "media", "photo",
	"picture", "cover", "banner", "gallery", "src",
}

var (
	embeddedURLRe  = regexp.MustCompile(`https?://[^\s"'<>)]+`)
	embeddedDataRe = regexp.MustCompile(`data:image/[a-zA-Z0-9.+-]+;base64,[A-Za-z0-9+/=]+`)
)

// HasImageExt reports whether the URL path ends in a recognized image
// extension, ignoring query and fragment.
func HasImageExt(rawURL string) bool {
	u := strings.ToLower(rawURL)
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	for _, ext := range imageExts {
		if strings.HasSuffix(u, ext) {
			return true
		}
	}
	return false
}

func isHintKey(key string) bool {
	k := strings.ToLower(key)
	for _, h := range hintKeys {
		if strings.Contains(k, h) {
			return true
		}
	}
	return false
}

func isDataImageURL(s string) bool {
	return strings.HasPrefix(strings.ToLower(s), "data:image/")
}

func isHTTPURL(s string) bool {
	l := strings.ToLower(s)
	return (strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")) &&
		!strings.ContainsAny(s, " \t\n")
}

// ExtractImageURLs walks the field payload and collects every plausible
// image reference: standalone URLs under image-hint keys or with image
// extensions, data URLs, URL-shaped substrings inside free text, url/src/href
// map shortcuts, and <img src> attributes in markup-bearing strings.
// The walk is depth-capped; field values decoded from JSON cannot alias, so
// the cap is the cycle guard.
func ExtractImageURLs(f fields.Fields) []string {
	var out []string
	seen := map[string]bool{}
	add := func(u string) {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			return
		}
		seen[u] = true
		out = append(out, u)
	}
	walk(f.Root(), "", 0, add)
	return out
}

func walk(v fields.Value, key string, depth int, add func(string)) {
	if depth > fields.MaxDepth {
		return
	}
	switch v.Kind {
	case fields.KindString:
		scanString(v.Str, key, add)
	case fields.KindList:
		for _, item := range v.List {
			walk(item, key, depth+1, add)
		}
	case fields.KindMap:
		// url/src/href single-candidate shortcuts
		for _, short := range []string{"url", "src", "href"} {
			if sv, ok := v.Map[short]; ok && sv.Kind == fields.KindString {
				candidate := strings.TrimSpace(sv.Str)
				if isDataImageURL(candidate) ||
					(isHTTPURL(candidate) && (HasImageExt(candidate) || isHintKey(key) || isHintKey(short))) {
					add(candidate)
				}
			}
		}
		for _, k := range v.Keys {
			walk(v.Map[k], k, depth+1, add)
		}
	}
}

func scanString(s, key string, add func(string)) {
	trimmed := strings.TrimSpace(s)
	switch {
	case isDataImageURL(trimmed):
		add(trimmed)
		return
	case isHTTPURL(trimmed):
		if HasImageExt(trimmed) || isHintKey(key) {
			add(trimmed)
		}
		return
	}

	// Markup-bearing strings: pull <img src> candidates.
	if strings.Contains(s, "<") && strings.Contains(s, ">") {
		for _, src := range imgSrcs(s) {
			if isDataImageURL(src) || isHTTPURL(src) {
				add(src)
			}
		}
	}

	// URL-shaped substrings in free text: plain URLs only with an image
	// extension, data URLs unconditionally.
	for _, m := range embeddedURLRe.FindAllString(s, -1) {
		m = strings.TrimRight(m, ".,;:!")
		if HasImageExt(m) {
			add(m)
		}
	}
	for _, m := range embeddedDataRe.FindAllString(s, -1) {
		add(m)
	}
}

// imgSrcs parses fragment markup and returns every <img src> value.
func imgSrcs(fragment string) []string {
	node, err := html.Parse(strings.NewReader(fragment))
	if err != nil || node == nil {
		return nil
	}
	var out []string
	var dfs func(n *html.Node)
	dfs = func(n *html.Node) {
		if n.Type == html.ElementNode && strings.EqualFold(n.Data, "img") {
			for _, attr := range n.Attr {
				if strings.EqualFold(attr.Key, "src") && strings.TrimSpace(attr.Val) != "" {
					out = append(out, strings.TrimSpace(attr.Val))
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			dfs(c)
		}
	}
	dfs(node)
	return out
}
