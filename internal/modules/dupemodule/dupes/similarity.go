package dupes

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/mediakeep/mediakeep/internal/config"
	"github.com/mediakeep/mediakeep/internal/logger"
)

// Engine groups a candidate file set into duplicate clusters. Files
// are partitioned by media type, pre-filtered into coarse buckets to
// bound comparison cost, compared pairwise within each bucket, and
// merged transitively over the similarity graph.
type Engine struct {
	fp              Fingerprinter
	threshold       float64
	durationBucket  int
	dimensionBucket int
}

// ProgressFunc is invoked after each bucket finishes pairwise
// comparison, with the number of buckets done and the total.
type ProgressFunc func(done, total int)

// NewEngine creates a similarity engine using the given fingerprinter
// and the duplicates configuration.
func NewEngine(fp Fingerprinter, cfg config.DuplicatesConfig) *Engine {
	threshold := cfg.SimilarityThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = 0.85
	}
	durBucket := cfg.DurationBucketSeconds
	if durBucket <= 0 {
		durBucket = 10
	}
	dimBucket := cfg.DimensionBucket
	if dimBucket <= 0 {
		dimBucket = 64
	}
	return &Engine{
		fp:              fp,
		threshold:       threshold,
		durationBucket:  durBucket,
		dimensionBucket: dimBucket,
	}
}

// edge is one directly-compared similar pair inside a bucket
type edge struct {
	a, b       int
	confidence float64
	exact      bool
}

// BuildGroups clusters the candidate set into duplicate groups.
// Files that cannot be fingerprinted are excluded and logged, never
// failing the whole run. progress may be nil.
func (e *Engine) BuildGroups(files []File, progress ProgressFunc) []Group {
	buckets := e.bucketize(files)

	// Deterministic bucket order for reproducible progress and output.
	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	uf := newUnionFind(len(files))
	edges := make([]edge, 0)
	prints := make(map[int]Fingerprint, len(files))

	for done, key := range keys {
		e.compareBucket(files, buckets[key], uf, &edges, prints)
		if progress != nil {
			progress(done+1, len(keys))
		}
	}

	return e.collectGroups(files, uf, edges)
}

// bucketize partitions candidate indices by media type and coarse
// signature so only plausibly-similar files get compared.
func (e *Engine) bucketize(files []File) map[string][]int {
	buckets := make(map[string][]int)
	for i, f := range files {
		var key string
		switch f.MediaType {
		case MediaTypeVideo:
			key = fmt.Sprintf("v/%d/%d",
				int(f.DurationSeconds)/e.durationBucket,
				f.Height/e.dimensionBucket)
		case MediaTypeImage:
			key = fmt.Sprintf("i/%d/%d",
				f.Width/e.dimensionBucket,
				f.Height/e.dimensionBucket)
		default:
			logger.Warn("Skipping file with unknown media type %q: %s", f.MediaType, f.Path)
			continue
		}
		buckets[key] = append(buckets[key], i)
	}
	return buckets
}

// compareBucket fingerprints the bucket's files and unions every pair
// whose confidence clears the threshold.
func (e *Engine) compareBucket(files []File, indices []int, uf *unionFind, edges *[]edge, prints map[int]Fingerprint) {
	if len(indices) < 2 {
		return
	}

	matchable := indices[:0:0]
	for _, idx := range indices {
		if _, ok := prints[idx]; ok {
			matchable = append(matchable, idx)
			continue
		}
		fp, err := e.fp.Fingerprint(files[idx])
		if err != nil {
			logger.Warn("Excluding unfingerprintable file from duplicate matching: %v", err)
			continue
		}
		prints[idx] = fp
		matchable = append(matchable, idx)
	}

	for i := 0; i < len(matchable); i++ {
		for j := i + 1; j < len(matchable); j++ {
			a, b := matchable[i], matchable[j]
			conf, exact, ok := e.compare(prints[a], prints[b])
			if !ok {
				continue
			}
			uf.union(a, b)
			*edges = append(*edges, edge{a: a, b: b, confidence: conf, exact: exact})
		}
	}
}

// compare scores one pair: identical exact hashes are a certain match,
// otherwise perceptual signatures decide, subject to the threshold.
func (e *Engine) compare(a, b Fingerprint) (confidence float64, exact bool, ok bool) {
	if a.ExactHash == b.ExactHash {
		return 1.0, true, true
	}
	if !a.HasPerceptual || !b.HasPerceptual {
		return 0, false, false
	}
	sim := hammingSimilarity(a.Perceptual, b.Perceptual)
	if sim < e.threshold {
		return 0, false, false
	}
	return sim, false, true
}

// collectGroups materializes connected components into groups,
// dropping singletons, ranking members, and computing the recommended
// keep, savings, and the conservative (minimum-edge) confidence.
func (e *Engine) collectGroups(files []File, uf *unionFind, edges []edge) []Group {
	components := make(map[int][]int)
	for _, eg := range edges {
		root := uf.find(eg.a)
		if _, seen := components[root]; !seen {
			components[root] = nil
		}
	}
	for i := range files {
		root := uf.find(i)
		if _, wanted := components[root]; wanted {
			components[root] = append(components[root], i)
		}
	}

	groups := make([]Group, 0, len(components))
	for root, members := range components {
		if len(members) < 2 {
			continue
		}

		groupFiles := make([]File, 0, len(members))
		for _, idx := range members {
			f := files[idx]
			f.QualityScore = Score(f)
			groupFiles = append(groupFiles, f)
		}
		rankFiles(groupFiles)

		minConf := 1.0
		allExact := true
		for _, eg := range edges {
			if uf.find(eg.a) != root {
				continue
			}
			if eg.confidence < minConf {
				minConf = eg.confidence
			}
			if !eg.exact {
				allExact = false
			}
		}

		matchType := MatchNear
		if allExact {
			matchType = MatchExact
		}

		g := Group{
			ID:              uuid.New().String(),
			MediaType:       groupFiles[0].MediaType,
			MatchType:       matchType,
			Confidence:      minConf,
			Files:           groupFiles,
			RecommendedKeep: groupFiles[0].Path,
		}
		g.PotentialSavingsBytes = groupSavings(g)
		groups = append(groups, g)
	}

	// Largest reclaimable space first; path as a stable final key.
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].PotentialSavingsBytes != groups[j].PotentialSavingsBytes {
			return groups[i].PotentialSavingsBytes > groups[j].PotentialSavingsBytes
		}
		return groups[i].Files[0].Path < groups[j].Files[0].Path
	})
	return groups
}

// groupSavings sums the sizes of every member except the recommended
// keep.
func groupSavings(g Group) int64 {
	var total int64
	for _, f := range g.Files {
		if f.Path != g.RecommendedKeep {
			total += f.SizeBytes
		}
	}
	return total
}

// Summarize recomputes the aggregate summary from the full group set.
// Always derived wholesale, never adjusted incrementally.
func Summarize(groups []Group, summary *Summary) {
	summary.TotalGroups = len(groups)
	summary.VideoGroups = 0
	summary.ImageGroups = 0
	summary.PotentialSavingsBytes = 0
	for _, g := range groups {
		switch g.MediaType {
		case MediaTypeVideo:
			summary.VideoGroups++
		case MediaTypeImage:
			summary.ImageGroups++
		}
		summary.PotentialSavingsBytes += g.PotentialSavingsBytes
	}
}
