// Package imaging reverses the tile scrambling applied to page images
// by the km backend. The transform is deterministic for a given seed and
// must stay bit-identical to what the viewer app does client-side.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"sort"

	_ "image/jpeg"

	_ "golang.org/x/image/webp"
)

// ErrTooSmall is returned when the source image has fewer pixels per axis
// than the tile grid itself.
var ErrTooSmall = errors.New("imaging: image is too small to descramble")

// Uint32 wraps a signed value into unsigned 32-bit space, matching the
// two's-complement arithmetic the scrambler runs on.
func Uint32(x int64) uint32 {
	return uint32(x & 0xFFFFFFFF)
}

// seedStream is an xorshift32 generator. Each call advances the state and
// returns it; outputs are consumed one per tile in generation order.
type seedStream struct {
	state uint32
}

func newSeedStream(seed uint32) *seedStream {
	return &seedStream{state: seed}
}

func (s *seedStream) next() uint32 {
	s.state ^= s.state << 13
	s.state ^= s.state >> 17
	s.state ^= s.state << 5
	return s.state
}

// calcBlockSize computes per-tile pixel dimensions. Width and height are
// clamped down to a multiple of 8 before dividing by the grid size. The
// second return is false when the image cannot hold the grid at all.
func calcBlockSize(width, height, rectbox int) (int, int, bool) {
	if width < rectbox || height < rectbox {
		return 0, 0, false
	}

	blockW := (width / 8) * 8 / rectbox
	blockH := (height / 8) * 8 / rectbox

	return blockW, blockH, true
}

type tilePos struct {
	X, Y int
}

type copyTarget struct {
	Src tilePos
	Dst tilePos
}

// generateCopyTargets derives the tile permutation for a seed. One random
// value is drawn per tile; sorting the (value, index) pairs by value gives,
// for each destination tile in row-major order, the source tile to pull from.
func generateCopyTargets(rectbox int, seed uint32) []copyTarget {
	gen := newSeedStream(seed)

	type pair struct {
		value uint32
		index int
	}

	pairs := make([]pair, rectbox*rectbox)
	for i := range pairs {
		pairs[i] = pair{value: gen.next(), index: i}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].value < pairs[j].value
	})

	targets := make([]copyTarget, len(pairs))
	for i, p := range pairs {
		targets[i] = copyTarget{
			Src: tilePos{X: p.index % rectbox, Y: p.index / rectbox},
			Dst: tilePos{X: i % rectbox, Y: i / rectbox},
		}
	}

	return targets
}

// newCanvas allocates a drawable image matching the source's pixel
// format, so a grayscale page stays grayscale after re-encoding. JPEG
// sources decode to YCbCr, which cannot be drawn into, and fall back to
// RGBA like everything else without a dedicated buffer type.
func newCanvas(src image.Image, r image.Rectangle) draw.Image {
	switch src.(type) {
	case *image.Gray:
		return image.NewGray(r)
	case *image.Gray16:
		return image.NewGray16(r)
	case *image.NRGBA:
		return image.NewNRGBA(r)
	case *image.NRGBA64:
		return image.NewNRGBA64(r)
	case *image.RGBA64:
		return image.NewRGBA64(r)
	case *image.CMYK:
		return image.NewCMYK(r)
	default:
		return image.NewRGBA(r)
	}
}

// Descramble decodes a scrambled raster (png, jpeg or webp), restores the
// original tiling using the per-chapter seed, and re-encodes the result as
// PNG. The output canvas is truncated to the block-aligned size, which may
// crop a few trailing rows/columns; the scrambler does the same.
func Descramble(imgBytes []byte, rectbox int, seed uint32) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode: %w", err)
	}

	bounds := src.Bounds()
	blockW, blockH, ok := calcBlockSize(bounds.Dx(), bounds.Dy(), rectbox)
	if !ok {
		return nil, ErrTooSmall
	}

	canvas := newCanvas(src, image.Rect(0, 0, blockW*rectbox, blockH*rectbox))

	for _, t := range generateCopyTargets(rectbox, seed) {
		srcPt := image.Pt(bounds.Min.X+t.Src.X*blockW, bounds.Min.Y+t.Src.Y*blockH)
		dstRect := image.Rect(t.Dst.X*blockW, t.Dst.Y*blockH, (t.Dst.X+1)*blockW, (t.Dst.Y+1)*blockH)
		draw.Draw(canvas, dstRect, src, srcPt, draw.Src)
	}

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("imaging: encode: %w", err)
	}

	return buf.Bytes(), nil
}
