// Package imagesource scans an image folder, decodes every image eagerly and
// prepares processing grids for the edge field.
package imagesource

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/pthm-cable/bonfire/camera"
	"github.com/pthm-cable/bonfire/config"
)

// ErrNoImages is returned by Current when the library is empty.
var ErrNoImages = errors.New("no images in library")

// ImageDecodeError reports an unreadable or corrupt image file.
type ImageDecodeError struct {
	Path string
	Err  error
}

func (e *ImageDecodeError) Error() string {
	return fmt.Sprintf("decoding %s: %v", e.Path, e.Err)
}

func (e *ImageDecodeError) Unwrap() error { return e.Err }

// Entry is one image of the library. Err is set when decoding failed at scan
// time; such entries stay cyclable but never produce a grid.
type Entry struct {
	Name  string // base name without extension
	Path  string
	Image image.Image
	Err   error
}

// Library is the ordered, wrap-around set of images of one folder.
type Library struct {
	dir     string
	entries []Entry
	index   int
}

// Open scans dir for files with the configured extensions and decodes them all.
// A missing directory is an error; an empty one yields an empty library.
func Open(cfg config.ImagesConfig) (*Library, error) {
	names, err := Scan(cfg.Dir, cfg.Extensions)
	if err != nil {
		return nil, err
	}

	lib := &Library{dir: cfg.Dir, entries: make([]Entry, 0, len(names))}
	for _, name := range names {
		path := filepath.Join(cfg.Dir, name)
		img, err := Decode(path)
		e := Entry{
			Name:  strings.TrimSuffix(name, filepath.Ext(name)),
			Path:  path,
			Image: img,
			Err:   err,
		}
		if err != nil {
			slog.Warn("image decode failed", "path", path, "error", err)
		}
		lib.entries = append(lib.entries, e)
	}

	if cfg.Preferred != "" {
		for i, e := range lib.entries {
			if filepath.Base(e.Path) == cfg.Preferred {
				lib.index = i
				break
			}
		}
	}

	slog.Info("image library loaded", "dir", cfg.Dir, "images", len(lib.entries), "start", lib.index)
	return lib, nil
}

// Scan lists the file names in dir whose extension is in exts
// (case-insensitive), sorted.
func Scan(dir string, exts []string) ([]string, error) {
	items, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading image dir: %w", err)
	}

	accept := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		accept[ext] = true
	}

	var names []string
	for _, it := range items {
		if it.IsDir() {
			continue
		}
		if accept[strings.ToLower(filepath.Ext(it.Name()))] {
			names = append(names, it.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Decode reads and decodes one image file.
func Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ImageDecodeError{Path: path, Err: err}
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, &ImageDecodeError{Path: path, Err: err}
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, &ImageDecodeError{Path: path, Err: errors.New("empty image")}
	}
	return img, nil
}

// Len returns the number of images.
func (l *Library) Len() int { return len(l.entries) }

// Index returns the current position.
func (l *Library) Index() int { return l.index }

// Dir returns the scanned directory.
func (l *Library) Dir() string { return l.dir }

// Current returns the current entry.
func (l *Library) Current() (*Entry, error) {
	if len(l.entries) == 0 {
		return nil, ErrNoImages
	}
	return &l.entries[l.index], nil
}

// Next advances to the following image, wrapping around.
func (l *Library) Next() (*Entry, error) { return l.step(1) }

// Prev moves to the preceding image, wrapping around.
func (l *Library) Prev() (*Entry, error) { return l.step(-1) }

func (l *Library) step(d int) (*Entry, error) {
	n := len(l.entries)
	if n == 0 {
		return nil, ErrNoImages
	}
	l.index = ((l.index+d)%n + n) % n
	return &l.entries[l.index], nil
}

// Grid fits the viewport to the entry's image and resamples the fitted image
// to processWidth columns. The viewport is left untouched when the entry
// failed to decode.
func Grid(e *Entry, vp *camera.Viewport, processWidth int) (*image.RGBA, error) {
	if e.Err != nil {
		var de *ImageDecodeError
		if errors.As(e.Err, &de) {
			return nil, de
		}
		return nil, &ImageDecodeError{Path: e.Path, Err: e.Err}
	}

	src := e.Image
	b := src.Bounds()
	fitW, fitH := vp.Fit(b.Dx(), b.Dy())

	w := processWidth
	if w <= 0 || w > fitW {
		w = fitW
	}
	h := int(float64(w)*float64(fitH)/float64(fitW) + 0.5)
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst, nil
}
