package tools

// Content is one block of a successful result. Only text blocks are produced.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Text wraps s in a single text block.
func Text(s string) []Content {
	return []Content{{Type: "text", Text: s}}
}
