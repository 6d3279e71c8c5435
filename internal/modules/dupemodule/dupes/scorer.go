package dupes

import (
	"sort"
)

// Quality scoring. The score is pure and deterministic: the same
// attributes always produce the same value, and it grows with
// resolution and bitrate. Missing or zero values contribute nothing,
// so a file with no bitrate scores as if it had the worst one.

const (
	// referencePixels is 4K; resolution contribution saturates there.
	referencePixels = 3840.0 * 2160.0
	// referenceBitrate saturates the bitrate contribution at 20 Mbps.
	referenceBitrate = 20_000_000.0

	resolutionWeight = 70.0
	bitrateWeight    = 30.0
)

// Score computes the quality score for a file on a 0-100 scale.
func Score(f File) float64 {
	pixels := float64(f.Width) * float64(f.Height)
	if pixels < 0 {
		pixels = 0
	}
	resRatio := pixels / referencePixels
	if resRatio > 1 {
		resRatio = 1
	}

	var brRatio float64
	if f.Bitrate != nil && *f.Bitrate > 0 {
		brRatio = float64(*f.Bitrate) / referenceBitrate
		if brRatio > 1 {
			brRatio = 1
		}
	}

	return resRatio*resolutionWeight + brRatio*bitrateWeight
}

// Better reports whether a ranks strictly ahead of b as the file worth
// keeping. The order is total: score first, larger size breaks score
// ties, lexicographically smaller path breaks size ties. Two distinct
// files never compare equal, which keeps the recommended keep
// deterministic across re-runs.
func Better(a, b File) bool {
	if a.QualityScore != b.QualityScore {
		return a.QualityScore > b.QualityScore
	}
	if a.SizeBytes != b.SizeBytes {
		return a.SizeBytes > b.SizeBytes
	}
	return a.Path < b.Path
}

// rankFiles sorts files best-first in place using the Better order
func rankFiles(files []File) {
	sort.Slice(files, func(i, j int) bool {
		return Better(files[i], files[j])
	})
}
