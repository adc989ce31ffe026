package htmlutil

import (
	"bytes"
	"strings"

	"menuparity/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

// Container is the result of looking up the menu container in a page.
type Container struct {
	Missing   bool
	InnerHTML string
}

// ExtractContainer returns the inner HTML of the first element matching
// selector. Unparsable documents count as a missing container.
func ExtractContainer(document, selector string) Container {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		return Container{Missing: true}
	}
	el := doc.Find(selector).First()
	if el.Length() == 0 {
		return Container{Missing: true}
	}
	inner, err := el.Html()
	if err != nil {
		return Container{Missing: true}
	}
	return Container{InnerHTML: inner}
}

const DisabledPrefix = "[DISABLED] "

// AnchorTexts lists the visible texts of the anchors in an HTML fragment.
//
// The first anchor of every disabled element (`li.disabled` or any
// `.disabled`) is listed first with DisabledPrefix, followed by every other
// anchor in document order. Anchors with no text are skipped.
func AnchorTexts(fragment string) []string {
	if fragment == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil
	}

	var texts []string
	seen := map[*html.Node]bool{}

	doc.Find("li.disabled, .disabled").Each(func(_ int, el *goquery.Selection) {
		anchor := el.Find("a").First()
		if anchor.Length() == 0 || seen[anchor.Nodes[0]] {
			return
		}
		text := textutil.CollapseWhitespace(GetText(anchor.Nodes[0]))
		if text == "" {
			return
		}
		texts = append(texts, DisabledPrefix+text)
		seen[anchor.Nodes[0]] = true
	})

	doc.Find("a").Each(func(_ int, el *goquery.Selection) {
		if seen[el.Nodes[0]] {
			return
		}
		text := textutil.CollapseWhitespace(GetText(el.Nodes[0]))
		if text != "" {
			texts = append(texts, text)
		}
	})

	return texts
}
