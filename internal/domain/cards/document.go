package cards

import "strings"

// Document is the structured rich-text format cards are stored in. It
// mirrors the editor's node tree: a doc node containing paragraph nodes
// containing text nodes.
type Document struct {
	Type    string         `json:"type"`
	Content []DocumentNode `json:"content,omitempty"`
}

type DocumentNode struct {
	Type    string         `json:"type"`
	Text    string         `json:"text,omitempty"`
	Content []DocumentNode `json:"content,omitempty"`
}

// Converter turns plain text into the structured document format.
type Converter interface {
	TextToDocument(text string) Document
}

// ParagraphConverter is the default Converter: one paragraph node per
// non-empty line.
type ParagraphConverter struct{}

func (ParagraphConverter) TextToDocument(text string) Document {
	doc := Document{Type: "doc"}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			continue
		}
		doc.Content = append(doc.Content, DocumentNode{
			Type: "paragraph",
			Content: []DocumentNode{
				{Type: "text", Text: line},
			},
		})
	}
	if len(doc.Content) == 0 {
		doc.Content = []DocumentNode{{Type: "paragraph"}}
	}
	return doc
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
