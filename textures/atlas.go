// Package textures packs image assets into a single texture atlas.
package textures

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/anthonynsimon/bild/transform"
	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"voxel-viewer/gfx"
	"voxel-viewer/math"
)

// DefaultColumns is the number of cells per atlas row.
const DefaultColumns = 16

// CheckerTile is the name of the tile an otherwise empty atlas receives.
const CheckerTile = "checker"

// ErrNoImage is returned by Load when no decodable image exists for a name.
var ErrNoImage = errors.New("textures: no image")

// AtlasBuilder collects equally sized tiles from an asset directory. Tiles
// are placed row by row in load order; an offset returned by Load never
// changes.
type AtlasBuilder struct {
	Dir     string
	CellW   int
	CellH   int
	Columns int
	Logger  *slog.Logger

	names []string
	tiles []*image.RGBA
	index map[string]int
}

func NewAtlasBuilder(dir string, cellW, cellH int) *AtlasBuilder {
	return &AtlasBuilder{
		Dir:     dir,
		CellW:   cellW,
		CellH:   cellH,
		Columns: DefaultColumns,
		Logger:  slog.Default(),
		index:   make(map[string]int),
	}
}

func (b *AtlasBuilder) offset(i int) image.Point {
	return image.Pt((i%b.Columns)*b.CellW, (i/b.Columns)*b.CellH)
}

// Len returns the number of tiles loaded so far.
func (b *AtlasBuilder) Len() int {
	return len(b.tiles)
}

// Load adds the image <Dir>/<name>.png, or <Dir>/<name>.* in any decodable
// format, and returns the texel offset of its cell. Loading a name twice
// returns the first offset.
func (b *AtlasBuilder) Load(name string) (image.Point, error) {
	if i, ok := b.index[name]; ok {
		return b.offset(i), nil
	}

	path, err := b.find(name)
	if err != nil {
		return image.Point{}, err
	}
	img, err := loadImage(path)
	if err != nil {
		return image.Point{}, fmt.Errorf("load %s: %w", path, err)
	}
	return b.Add(name, img), nil
}

func (b *AtlasBuilder) find(name string) (string, error) {
	png := filepath.Join(b.Dir, name+".png")
	if _, err := os.Stat(png); err == nil {
		return png, nil
	}
	matches, _ := filepath.Glob(filepath.Join(b.Dir, name+".*"))
	sort.Strings(matches)
	for _, m := range matches {
		if isImage(m) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w named %q in %s", ErrNoImage, name, b.Dir)
}

// Add places img in the next cell under name, scaling it to the cell size
// with nearest-neighbor sampling when it differs.
func (b *AtlasBuilder) Add(name string, img image.Image) image.Point {
	if i, ok := b.index[name]; ok {
		return b.offset(i)
	}

	size := img.Bounds().Size()
	var tile *image.RGBA
	if size.X != b.CellW || size.Y != b.CellH {
		b.Logger.Debug("resizing atlas tile", "name", name, "from", size, "to", image.Pt(b.CellW, b.CellH))
		tile = transform.Resize(img, b.CellW, b.CellH, transform.NearestNeighbor)
	} else {
		tile = image.NewRGBA(image.Rect(0, 0, b.CellW, b.CellH))
		draw.Draw(tile, tile.Bounds(), img, img.Bounds().Min, draw.Src)
	}

	i := len(b.tiles)
	b.index[name] = i
	b.names = append(b.names, name)
	b.tiles = append(b.tiles, tile)
	return b.offset(i)
}

// LoadAll loads every image file in Dir in name order. Files that are not
// images are skipped with a warning.
func (b *AtlasBuilder) LoadAll() error {
	entries, err := os.ReadDir(b.Dir)
	if err != nil {
		return fmt.Errorf("read asset directory: %w", err)
	}
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		path := filepath.Join(b.Dir, e.Name())
		if !isImage(path) {
			b.Logger.Warn("skipping non-image asset", "path", path)
			continue
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if _, ok := b.index[name]; ok {
			continue
		}
		img, err := loadImage(path)
		if err != nil {
			b.Logger.Warn("skipping undecodable asset", "path", path, "err", err)
			continue
		}
		b.Add(name, img)
	}
	b.Logger.Info("atlas tiles loaded", "dir", b.Dir, "tiles", len(b.tiles))
	return nil
}

// Complete composes the atlas image and uploads it. An atlas without tiles
// gets a single checker tile.
func (b *AtlasBuilder) Complete(factory gfx.Factory) (*Atlas, error) {
	if len(b.tiles) == 0 {
		b.Add(CheckerTile, checkerTile(b.CellW, b.CellH,
			color.RGBA{R: 255, G: 0, B: 255, A: 255},
			color.RGBA{R: 0, G: 0, B: 0, A: 255}))
	}

	cols := min(len(b.tiles), b.Columns)
	rows := (len(b.tiles) + b.Columns - 1) / b.Columns
	img := image.NewRGBA(image.Rect(0, 0, cols*b.CellW, rows*b.CellH))

	a := &Atlas{
		Image:   img,
		names:   append([]string(nil), b.names...),
		regions: make(map[string]image.Rectangle, len(b.tiles)),
	}
	for i, tile := range b.tiles {
		r := tile.Bounds().Add(b.offset(i))
		draw.Draw(img, r, tile, image.Point{}, draw.Src)
		a.regions[b.names[i]] = r
	}

	tex, err := factory.CreateTexture(gfx.TextureInfo{
		Width:  img.Rect.Dx(),
		Height: img.Rect.Dy(),
		Format: gfx.TextureRGBA8,
	}, img.Pix)
	if err != nil {
		return nil, fmt.Errorf("upload atlas: %w", err)
	}
	a.Texture = tex
	return a, nil
}

// Atlas is a completed atlas: the composed image, its GPU texture and the
// cell of every tile.
type Atlas struct {
	Image   *image.RGBA
	Texture *gfx.Texture

	names   []string
	regions map[string]image.Rectangle
}

// Region returns the texel rectangle of a tile.
func (a *Atlas) Region(name string) (image.Rectangle, bool) {
	r, ok := a.regions[name]
	return r, ok
}

// UV returns the texture coordinates of a tile's top-left and bottom-right
// corners. Texture row 0 is the top row of the image.
func (a *Atlas) UV(name string) (topLeft, bottomRight math.Vec2, ok bool) {
	r, ok := a.regions[name]
	if !ok {
		return topLeft, bottomRight, false
	}
	w, h := float32(a.Image.Rect.Dx()), float32(a.Image.Rect.Dy())
	topLeft = math.NewVec2(float32(r.Min.X)/w, float32(r.Min.Y)/h)
	bottomRight = math.NewVec2(float32(r.Max.X)/w, float32(r.Max.Y)/h)
	return topLeft, bottomRight, true
}

// Names returns the tile names in load order.
func (a *Atlas) Names() []string {
	return append([]string(nil), a.names...)
}

// isImage sniffs the first bytes of a file.
func isImage(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	head := make([]byte, 261)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return false
	}
	return filetype.IsImage(head[:n])
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// checkerTile draws a 2x2 checkerboard of c1 and c2.
func checkerTile(w, h int, c1, c2 color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	bw, bh := max(1, w/2), max(1, h/2)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x/bw+y/bh)%2 == 0 {
				img.SetRGBA(x, y, c1)
			} else {
				img.SetRGBA(x, y, c2)
			}
		}
	}
	return img
}
