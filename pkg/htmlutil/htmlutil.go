package htmlutil

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ToText converts an HTML fragment (a message body, an assignment description) into plain text.
// Line breaks and paragraph ends become newlines and images are replaced with " IMAGE ".
func ToText(fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", err
	}
	var buffer bytes.Buffer
	for _, n := range doc.Selection.Nodes {
		writePlain(n, &buffer)
	}
	return buffer.String(), nil
}

func writePlain(node *html.Node, buffer *bytes.Buffer) {
	switch node.Type {
	case html.TextNode:
		buffer.WriteString(node.Data)
		return
	case html.CommentNode:
		return
	case html.ElementNode:
		switch node.DataAtom {
		case atom.Br:
			buffer.WriteByte('\n')
			return
		case atom.Img:
			buffer.WriteString(" IMAGE ")
			return
		case atom.Script, atom.Style:
			return
		}
	}

	for child := node.FirstChild; child != nil; child = child.NextSibling {
		writePlain(child, buffer)
	}

	if node.Type == html.ElementNode && node.DataAtom == atom.P {
		buffer.WriteByte('\n')
	}
}
