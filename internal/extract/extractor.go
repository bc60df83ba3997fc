package extract

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/buildingassets/buildingchat/internal/model"
)

// IExtractor turns raw file bytes into per-page text.
type IExtractor interface {
	Name() string
	Extract(data []byte) ([]model.PageText, error)
}

var registry = map[string]IExtractor{}

func Register(ext string, e IExtractor) {
	key := strings.ToLower(strings.TrimSpace(ext))
	if key == "" || e == nil {
		return
	}
	registry[key] = e
}

// ForFile picks an extractor by file extension.
func ForFile(name string) (IExtractor, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	e := registry[ext]
	if e == nil {
		return nil, fmt.Errorf("unsupported file type: %q", ext)
	}
	return e, nil
}

func countWords(s string) int {
	return len(strings.Fields(s))
}
