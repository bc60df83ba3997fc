package extract

import (
	"strings"

	"github.com/buildingassets/buildingchat/internal/model"
)

// plainTextExtractor treats form feeds as page breaks.
type plainTextExtractor struct{}

func (plainTextExtractor) Name() string {
	return "plaintext"
}

func (plainTextExtractor) Extract(data []byte) ([]model.PageText, error) {
	raw := strings.ReplaceAll(string(data), "\r\n", "\n")
	parts := strings.Split(raw, "\f")
	pages := make([]model.PageText, 0, len(parts))
	for i, part := range parts {
		text := strings.TrimSpace(part)
		if text == "" {
			continue
		}
		pages = append(pages, model.PageText{
			Page:      i + 1,
			Text:      text,
			WordCount: countWords(text),
		})
	}
	return pages, nil
}

func init() {
	Register("txt", plainTextExtractor{})
	Register("log", plainTextExtractor{})
	Register("csv", plainTextExtractor{})
}
