package recognition

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const traineddataExt = ".traineddata"

// ListTessdata returns the languages installed in a tessdata directory,
// excluding the orientation/script detection model.
func ListTessdata(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read tessdata dir %s: %w", dir, err)
	}
	var langs []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), traineddataExt) {
			continue
		}
		lang := strings.TrimSuffix(e.Name(), traineddataExt)
		if lang == "osd" {
			continue
		}
		langs = append(langs, lang)
	}
	slices.Sort(langs)
	return langs, nil
}

// TessdataPath returns the traineddata file for lang within dir.
func TessdataPath(dir, lang string) string {
	return filepath.Join(dir, lang+traineddataExt)
}
