package dupes

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math/bits"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"lukechampine.com/blake3"

	"github.com/mediakeep/mediakeep/internal/utils"
)

// Fingerprint is the content-derived signature used to estimate
// similarity between two files of the same media type.
type Fingerprint struct {
	// ExactHash is a blake3 digest over sampled byte ranges plus the
	// file size. Equal hashes are treated as an exact match.
	ExactHash string
	// Perceptual is a 64-bit signature compared by Hamming distance
	// for near-match detection.
	Perceptual uint64
	// HasPerceptual reports whether Perceptual was computed; files
	// without one can only match exactly.
	HasPerceptual bool
}

// Fingerprinter computes a Fingerprint for a file snapshot. A file
// that cannot be fingerprinted (unreadable, corrupt, zero-length) must
// return an error; the similarity engine excludes it from matching.
type Fingerprinter interface {
	Fingerprint(f File) (Fingerprint, error)
}

// ContentFingerprinter reads files from disk: blake3 over sampled byte
// ranges for the exact hash, a difference hash of decoded pixels for
// images, and a byte-distribution signature for videos.
type ContentFingerprinter struct {
	// SampleBytes is the size of each sampled range (head, middle,
	// tail). Files up to three samples long are hashed whole.
	SampleBytes int
}

// NewContentFingerprinter returns a fingerprinter with the given
// sample size, or the 64 KiB default when sampleBytes is not positive.
func NewContentFingerprinter(sampleBytes int) *ContentFingerprinter {
	if sampleBytes <= 0 {
		sampleBytes = 64 * 1024
	}
	return &ContentFingerprinter{SampleBytes: sampleBytes}
}

// Fingerprint implements Fingerprinter
func (cf *ContentFingerprinter) Fingerprint(f File) (Fingerprint, error) {
	info, err := os.Stat(f.Path)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("stat %s: %w", f.Path, err)
	}
	if info.Size() == 0 {
		return Fingerprint{}, fmt.Errorf("zero-length file: %s", f.Path)
	}

	samples, err := cf.readSamples(f.Path, info.Size())
	if err != nil {
		return Fingerprint{}, err
	}

	fp := Fingerprint{ExactHash: exactHash(samples, info.Size())}

	switch f.MediaType {
	case MediaTypeImage:
		if utils.IsDecodableImage(f.Path) {
			if sig, err := imageDifferenceHash(f.Path); err == nil {
				fp.Perceptual = sig
				fp.HasPerceptual = true
			}
			// A decode failure only disables near-matching; the
			// exact hash still stands.
		}
	case MediaTypeVideo:
		fp.Perceptual = byteDistributionSignature(samples)
		fp.HasPerceptual = true
	}

	return fp, nil
}

// readSamples returns head, middle, and tail ranges of the file, or
// the whole content for small files.
func (cf *ContentFingerprinter) readSamples(path string, size int64) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	sample := int64(cf.SampleBytes)
	if size <= 3*sample {
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return data, nil
	}

	offsets := []int64{0, size/2 - sample/2, size - sample}
	data := make([]byte, 0, 3*sample)
	buf := make([]byte, sample)
	for _, off := range offsets {
		if _, err := file.ReadAt(buf, off); err != nil && err != io.EOF {
			return nil, fmt.Errorf("read %s at %d: %w", path, off, err)
		}
		data = append(data, buf...)
	}
	return data, nil
}

// exactHash digests the sampled content together with the file size so
// two files of different lengths never collide on shared prefixes.
func exactHash(samples []byte, size int64) string {
	h := blake3.New(32, nil)
	var sizeBuf [8]byte
	binary.LittleEndian.PutUint64(sizeBuf[:], uint64(size))
	h.Write(sizeBuf[:])
	h.Write(samples)
	return hex.EncodeToString(h.Sum(nil))
}

// byteDistributionSignature folds sampled bytes into a 64-bit
// signature: the content is split into 64 slices and each bit records
// whether its slice's mean byte value exceeds the overall mean.
// Similar encodes of the same source produce nearby signatures, which
// is all the near-match pre-check needs.
func byteDistributionSignature(data []byte) uint64 {
	if len(data) == 0 {
		return 0
	}

	var total uint64
	for _, b := range data {
		total += uint64(b)
	}
	mean := float64(total) / float64(len(data))

	var sig uint64
	sliceLen := len(data) / 64
	if sliceLen == 0 {
		sliceLen = 1
	}
	for i := 0; i < 64; i++ {
		start := i * sliceLen
		if start >= len(data) {
			break
		}
		end := start + sliceLen
		if end > len(data) {
			end = len(data)
		}
		var sum uint64
		for _, b := range data[start:end] {
			sum += uint64(b)
		}
		if float64(sum)/float64(end-start) > mean {
			sig |= 1 << uint(i)
		}
	}
	return sig
}

// imageDifferenceHash decodes an image and computes a 64-bit dHash:
// the image is reduced to a 9x8 grayscale grid and each bit records
// whether a cell is brighter than its right neighbor.
func imageDifferenceHash(path string) (uint64, error) {
	img, err := decodeImage(path)
	if err != nil {
		return 0, err
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return 0, fmt.Errorf("empty image: %s", path)
	}

	const gridW, gridH = 9, 8
	var grid [gridH][gridW]float64
	for gy := 0; gy < gridH; gy++ {
		for gx := 0; gx < gridW; gx++ {
			// Nearest-neighbor sample at the cell center.
			x := bounds.Min.X + (gx*2+1)*w/(gridW*2)
			y := bounds.Min.Y + (gy*2+1)*h/(gridH*2)
			grid[gy][gx] = luminance(img.At(x, y))
		}
	}

	var sig uint64
	bit := 0
	for gy := 0; gy < gridH; gy++ {
		for gx := 0; gx < gridW-1; gx++ {
			if grid[gy][gx] > grid[gy][gx+1] {
				sig |= 1 << uint(bit)
			}
			bit++
		}
	}
	return sig, nil
}

func decodeImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(path), ".webp") {
		img, err := webp.Decode(file)
		if err != nil {
			return nil, fmt.Errorf("decode webp %s: %w", path, err)
		}
		return img, nil
	}

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

func luminance(c color.Color) float64 {
	r, g, b, _ := c.RGBA()
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}

// hammingSimilarity converts the Hamming distance between two 64-bit
// signatures into a confidence in [0,1].
func hammingSimilarity(a, b uint64) float64 {
	return 1 - float64(bits.OnesCount64(a^b))/64
}
