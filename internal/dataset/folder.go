package dataset

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"
	"rpsvision/internal/classifier"
	"rpsvision/internal/vision"
	"sort"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".webp": true,
}

// DiscoverImages returns image files under root/<class>/ grouped by class.
// Class directories are matched case-insensitively against the class names.
func DiscoverImages(root string) (map[classifier.Class][]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read dataset root: %w", err)
	}

	result := make(map[classifier.Class][]string)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		class, err := classifier.ParseClass(entry.Name())
		if err != nil {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if imageExtensions[strings.ToLower(filepath.Ext(d.Name()))] {
				result[class] = append(result[class], path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("discover images: %w", err)
		}
		sort.Strings(result[class])
	}
	return result, nil
}

// LoadFolder decodes every image under root/{rock,paper,scissors} and returns
// an in-memory dataset split by testFraction.
func LoadFolder(root string, testFraction float64, seed int64) (*Memory, error) {
	files, err := DiscoverImages(root)
	if err != nil {
		return nil, err
	}

	var examples []Example
	for class := classifier.Rock; class <= classifier.Scissors; class++ {
		for _, path := range files[class] {
			pixels, err := loadPixels(path)
			if err != nil {
				return nil, fmt.Errorf("load %s: %w", path, err)
			}
			examples = append(examples, Example{Pixels: pixels, Class: class})
		}
	}
	if len(examples) == 0 {
		return nil, fmt.Errorf("no images found under %s", root)
	}
	return NewMemory(examples, testFraction, seed)
}

func loadPixels(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	frame, err := vision.FrameFromImage(img)
	if err != nil {
		return nil, err
	}
	t := vision.ToTensor(frame)
	defer t.Release()
	return t.Values(), nil
}
