package display

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/satriadamar/lensa/pkg/alphabet"
)

// LoadImages loads one sign image per letter from dir, trying
// <letter>.png then <letter>.jpg. Missing or undecodable images are
// skipped: those letters fall back to glyph rendering.
func LoadImages(dir string, log *slog.Logger) map[string]image.Image {
	if log == nil {
		log = slog.Default()
	}
	images := make(map[string]image.Image)
	if dir == "" {
		return images
	}
	for _, r := range alphabet.Letters {
		letter := string(r)
		for _, ext := range []string{".png", ".jpg", ".jpeg"} {
			img := loadImage(filepath.Join(dir, letter+ext))
			if img != nil {
				images[letter] = img
				break
			}
		}
	}
	log.Info("letter images loaded", "dir", dir, "count", len(images))
	return images
}

func loadImage(path string) image.Image {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil
	}
	return img
}
