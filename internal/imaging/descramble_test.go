package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUint32(t *testing.T) {
	assert.Equal(t, uint32(4294897876), Uint32(-69420))
	assert.Equal(t, uint32(10), Uint32(10))
	assert.Equal(t, uint32(0), Uint32(0))
}

func TestSeedStream(t *testing.T) {
	gen := newSeedStream(749191485)

	got := make([]uint32, 4)
	for i := range got {
		got[i] = gen.next()
	}

	assert.Equal(t, []uint32{1149330653, 1799678672, 902605375, 2984793402}, got)
}

func TestCalcBlockSize(t *testing.T) {
	w, h, ok := calcBlockSize(960, 1378, 4)
	require.True(t, ok)
	assert.Equal(t, 240, w)
	assert.Equal(t, 344, h)
}

func TestCalcBlockSizeTooSmall(t *testing.T) {
	_, _, ok := calcBlockSize(1, 1, 4)
	assert.False(t, ok)

	_, _, ok = calcBlockSize(1, 10, 4)
	assert.False(t, ok)
}

func TestGenerateCopyTargets(t *testing.T) {
	want := []copyTarget{
		{Src: tilePos{1, 1}, Dst: tilePos{0, 0}},
		{Src: tilePos{2, 0}, Dst: tilePos{1, 0}},
		{Src: tilePos{3, 1}, Dst: tilePos{2, 0}},
		{Src: tilePos{0, 0}, Dst: tilePos{3, 0}},
		{Src: tilePos{3, 2}, Dst: tilePos{0, 1}},
		{Src: tilePos{0, 2}, Dst: tilePos{1, 1}},
		{Src: tilePos{1, 3}, Dst: tilePos{2, 1}},
		{Src: tilePos{1, 0}, Dst: tilePos{3, 1}},
		{Src: tilePos{0, 3}, Dst: tilePos{0, 2}},
		{Src: tilePos{3, 0}, Dst: tilePos{1, 2}},
		{Src: tilePos{2, 1}, Dst: tilePos{2, 2}},
		{Src: tilePos{0, 1}, Dst: tilePos{3, 2}},
		{Src: tilePos{3, 3}, Dst: tilePos{0, 3}},
		{Src: tilePos{2, 3}, Dst: tilePos{1, 3}},
		{Src: tilePos{2, 2}, Dst: tilePos{2, 3}},
		{Src: tilePos{1, 2}, Dst: tilePos{3, 3}},
	}

	got := generateCopyTargets(4, 749191485)
	assert.Equal(t, want, got)
}

func TestDescrambleTooSmall(t *testing.T) {
	tiny := image.NewRGBA(image.Rect(0, 0, 1, 1))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, tiny))

	_, err := Descramble(buf.Bytes(), 4, 749191485)
	assert.ErrorIs(t, err, ErrTooSmall)
}

// scramble applies the forward shuffle so the test can verify Descramble
// restores the original pixels exactly.
func scramble(src *image.RGBA, rectbox int, seed uint32) *image.RGBA {
	blockW, blockH, _ := calcBlockSize(src.Bounds().Dx(), src.Bounds().Dy(), rectbox)
	out := image.NewRGBA(image.Rect(0, 0, blockW*rectbox, blockH*rectbox))

	for _, t := range generateCopyTargets(rectbox, seed) {
		// Inverse of the descramble copy: original tile at Dst lands at Src.
		for y := 0; y < blockH; y++ {
			for x := 0; x < blockW; x++ {
				out.Set(t.Src.X*blockW+x, t.Src.Y*blockH+y, src.At(t.Dst.X*blockW+x, t.Dst.Y*blockH+y))
			}
		}
	}

	return out
}

func TestDescrambleKeepsGrayscale(t *testing.T) {
	const rectbox = 4
	const seed = 749191485

	src := image.NewGray(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			src.SetGray(x, y, color.Gray{Y: uint8(x*8 ^ y)})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	out, err := Descramble(buf.Bytes(), rectbox, seed)
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.IsType(t, &image.Gray{}, decoded)
}

func TestDescrambleRoundTrip(t *testing.T) {
	const rectbox = 4
	const seed = 749191485

	src := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			src.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 4), B: uint8(x ^ y), A: 255})
		}
	}

	scrambled := scramble(src, rectbox, seed)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, scrambled))

	restoredBytes, err := Descramble(buf.Bytes(), rectbox, seed)
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(restoredBytes))
	require.NoError(t, err)

	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			wr, wg, wb, wa := src.At(x, y).RGBA()
			gr, gg, gb, ga := decoded.At(x, y).RGBA()
			if wr != gr || wg != gg || wb != gb || wa != ga {
				t.Fatalf("pixel mismatch at (%d,%d)", x, y)
			}
		}
	}
}
