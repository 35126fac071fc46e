package attachment

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// InlineImageSaver persists an inline image extracted from entry content and
// returns the URL it should be referenced by afterwards. This is satisfied by
// the saver NewInlineImageSaver builds over a Pipeline in normal operation;
// tests can supply a stub.
type InlineImageSaver interface {
	SaveInlineImage(ctx context.Context, data []byte, subtype string) (url string, err error)
}

// ProcessContent runs the content pipeline: extract and save any inline
// data: URI images, rewrite their src to the saved attachment's URL, then
// sanitize the result. Parse failures skip image extraction and sanitize the
// raw content rather than erroring out, since malformed HTML is a fact of the wild
// entries this system has to render, not a reason to reject a save.
func ProcessContent(ctx context.Context, raw string, saver InlineImageSaver) (string, error) {
	doc, err := html.ParseFragment(strings.NewReader(raw), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return sanitize(raw), nil
	}

	for _, n := range doc {
		if err := extractInlineImages(ctx, n, saver); err != nil {
			return "", err
		}
	}

	var buf bytes.Buffer
	for _, n := range doc {
		if err := html.Render(&buf, n); err != nil {
			return sanitize(raw), nil
		}
	}
	return sanitize(buf.String()), nil
}

// extractInlineImages walks n looking for <img src="data:..."> nodes, saves
// the decoded bytes via saver, and rewrites src to the returned URL. An
// image whose parent isn't already a link gets wrapped in an <a href>
// pointing at the same URL so it can be opened at full size.
func extractInlineImages(ctx context.Context, n *html.Node, saver InlineImageSaver) error {
	if n.Type == html.ElementNode && n.DataAtom == atom.Img {
		if err := rewriteInlineImg(ctx, n, saver); err != nil {
			return err
		}
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if err := extractInlineImages(ctx, c, saver); err != nil {
			return err
		}
		c = next
	}
	return nil
}

func rewriteInlineImg(ctx context.Context, n *html.Node, saver InlineImageSaver) error {
	srcIdx, src := findAttr(n, "src")
	if srcIdx < 0 || !strings.HasPrefix(src, "data:") {
		return nil
	}

	subtype, data, ok := decodeDataURI(src)
	if !ok {
		return nil
	}

	url, err := saver.SaveInlineImage(ctx, data, subtype)
	if err != nil {
		return fmt.Errorf("attachment: save inline image: %w", err)
	}

	n.Attr[srcIdx].Val = url

	if n.Parent == nil || n.Parent.DataAtom != atom.A {
		wrapInLink(n, url)
	}
	return nil
}

func wrapInLink(img *html.Node, url string) {
	parent := img.Parent
	if parent == nil {
		return
	}
	link := &html.Node{
		Type:     html.ElementNode,
		Data:     "a",
		DataAtom: atom.A,
		Attr:     []html.Attribute{{Key: "href", Val: url}, {Key: "target", Val: "_blank"}},
	}
	parent.InsertBefore(link, img)
	parent.RemoveChild(img)
	link.AppendChild(img)
}

func findAttr(n *html.Node, key string) (int, string) {
	for i, a := range n.Attr {
		if a.Key == key {
			return i, a.Val
		}
	}
	return -1, ""
}

// decodeDataURI parses "data:image/png;base64,AAAA..." into its MIME
// subtype and decoded bytes. Non-image or malformed data URIs are rejected
// so the pipeline never tries to save something that isn't a picture.
func decodeDataURI(uri string) (subtype string, data []byte, ok bool) {
	rest := strings.TrimPrefix(uri, "data:")
	comma := strings.IndexByte(rest, ',')
	if comma < 0 {
		return "", nil, false
	}
	meta, payload := rest[:comma], rest[comma+1:]

	if !strings.HasPrefix(meta, "image/") {
		return "", nil, false
	}
	meta = strings.TrimSuffix(meta, ";base64")
	subtype = strings.TrimPrefix(meta, "image/")
	if idx := strings.IndexByte(subtype, ';'); idx >= 0 {
		subtype = subtype[:idx]
	}

	if !strings.Contains(rest[:comma], "base64") {
		return "", nil, false
	}
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Some producers omit padding; retry tolerant of that.
		decoded, err = base64.RawStdEncoding.DecodeString(payload)
		if err != nil {
			return "", nil, false
		}
	}
	return subtype, decoded, true
}

// sanitizer allows common formatting and media tags, plus style attributes
// so entries can carry inline layout the way a rich-text editor emits it.
var sanitizer = newSanitizer()

func newSanitizer() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowStandardURLs()
	p.AllowStandardAttributes()
	p.AllowElements(
		"p", "br", "hr", "div", "span",
		"b", "strong", "i", "em", "u", "s", "strike", "sub", "sup",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"ul", "ol", "li",
		"blockquote", "pre", "code",
		"table", "thead", "tbody", "tr", "th", "td",
		"a", "img",
	)
	p.AllowAttrs("style").Globally()
	p.AllowAttrs("href", "target", "rel").OnElements("a")
	p.AllowAttrs("src", "alt", "width", "height").OnElements("img")
	p.AllowAttrs("colspan", "rowspan").OnElements("td", "th")
	p.RequireNoFollowOnLinks(false)
	return p
}

func sanitize(s string) string {
	return sanitizer.Sanitize(s)
}
