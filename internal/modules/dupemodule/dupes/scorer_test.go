package dupes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func bitrate(v int64) *int64 {
	return &v
}

func TestScore_ResolutionSaturatesAtFourK(t *testing.T) {
	fourK := File{Width: 3840, Height: 2160}
	eightK := File{Width: 7680, Height: 4320}

	assert.InDelta(t, 70.0, Score(fourK), 0.001)
	assert.InDelta(t, 70.0, Score(eightK), 0.001, "resolution above 4K should not score higher")
}

func TestScore_BitrateSaturatesAtTwentyMbps(t *testing.T) {
	a := File{Width: 3840, Height: 2160, Bitrate: bitrate(20_000_000)}
	b := File{Width: 3840, Height: 2160, Bitrate: bitrate(80_000_000)}

	assert.InDelta(t, 100.0, Score(a), 0.001)
	assert.InDelta(t, 100.0, Score(b), 0.001)
}

func TestScore_CombinesResolutionAndBitrate(t *testing.T) {
	// 1080p is a quarter of 4K pixels, 10 Mbps is half the reference.
	f := File{Width: 1920, Height: 1080, Bitrate: bitrate(10_000_000)}
	assert.InDelta(t, 0.25*70+0.5*30, Score(f), 0.001)
}

func TestScore_MissingBitrateContributesNothing(t *testing.T) {
	withBitrate := File{Width: 1920, Height: 1080, Bitrate: bitrate(5_000_000)}
	noBitrate := File{Width: 1920, Height: 1080}

	assert.InDelta(t, 17.5, Score(noBitrate), 0.001)
	assert.Greater(t, Score(withBitrate), Score(noBitrate))
}

func TestScore_Deterministic(t *testing.T) {
	f := File{Width: 1280, Height: 720, Bitrate: bitrate(3_000_000)}
	assert.Equal(t, Score(f), Score(f))
}

func TestBetter_HigherScoreWins(t *testing.T) {
	hi := File{Path: "/z.mp4", QualityScore: 80}
	lo := File{Path: "/a.mp4", QualityScore: 40}

	assert.True(t, Better(hi, lo))
	assert.False(t, Better(lo, hi))
}

func TestBetter_SizeBreaksScoreTie(t *testing.T) {
	big := File{Path: "/z.mp4", QualityScore: 50, SizeBytes: 2000}
	small := File{Path: "/a.mp4", QualityScore: 50, SizeBytes: 1000}

	assert.True(t, Better(big, small))
	assert.False(t, Better(small, big))
}

func TestBetter_PathBreaksFullTie(t *testing.T) {
	a := File{Path: "/a.mp4", QualityScore: 50, SizeBytes: 1000}
	b := File{Path: "/b.mp4", QualityScore: 50, SizeBytes: 1000}

	assert.True(t, Better(a, b))
	assert.False(t, Better(b, a))
}

func TestRankFiles_BestFirst(t *testing.T) {
	files := []File{
		{Path: "/mid.mp4", QualityScore: 50, SizeBytes: 100},
		{Path: "/best.mp4", QualityScore: 90, SizeBytes: 100},
		{Path: "/worst.mp4", QualityScore: 10, SizeBytes: 100},
	}
	rankFiles(files)

	assert.Equal(t, "/best.mp4", files[0].Path)
	assert.Equal(t, "/mid.mp4", files[1].Path)
	assert.Equal(t, "/worst.mp4", files[2].Path)
}
