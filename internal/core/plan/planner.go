package plan

import (
	"fmt"
	"math/rand"
	"sort"
	"time"
)

// filesPerCommit is the density heuristic used when no explicit commit
// count is configured: one commit for every five files, minimum one.
const filesPerCommit = 5

// Options configures a Planner.
type Options struct {
	// Duration is the window, starting now, over which commits are spread.
	Duration time.Duration
	// TotalCommits overrides the density heuristic when non-nil. An
	// explicit zero yields an empty manifest.
	TotalCommits *int
	// Mode selects even or random timestamp distribution.
	Mode Mode
	// Authors is the weighted identity pool. Weights are validated by the
	// config layer to sum to 1.0.
	Authors []Author
}

// Planner turns a file list into an ordered commit manifest.
type Planner struct {
	opts Options
	rng  *rand.Rand
	now  func() time.Time
}

// New creates a Planner. The rand source is injected so plans are
// reproducible under test; now may be nil, defaulting to time.Now.
func New(opts Options, rng *rand.Rand, now func() time.Time) *Planner {
	if now == nil {
		now = time.Now
	}
	return &Planner{opts: opts, rng: rng, now: now}
}

// Plan builds the manifest for the given files. Timestamps are
// non-decreasing across the manifest, and every input file appears in
// exactly one action.
func (p *Planner) Plan(files []string) (Manifest, error) {
	if len(files) == 0 {
		return nil, nil
	}

	count := max(1, len(files)/filesPerCommit)
	if p.opts.TotalCommits != nil {
		count = *p.opts.TotalCommits
	}
	if count == 0 {
		return nil, nil
	}

	chunks, err := Chunk(p.rng, files, count)
	if err != nil {
		return nil, fmt.Errorf("chunk files: %w", err)
	}

	// The chunker caps the group count at the file count; whatever it
	// returned is the authoritative number of commits.
	start := p.now()
	timestamps := p.timestamps(start, len(chunks))

	manifest := make(Manifest, 0, len(chunks))
	for i, ts := range timestamps {
		author := p.pickAuthor()
		manifest = append(manifest, Action{
			AuthorName:  author.Name,
			AuthorEmail: author.Email,
			Timestamp:   ts,
			Files:       chunks[i],
			Message:     commitMessage(chunks[i]),
		})
	}

	return manifest, nil
}

// timestamps produces n timestamps in ascending order within
// [start, start+duration]. Even mode spreads them inclusively from start to
// the end of the window; a single commit lands at start. Random mode draws
// independent uniform offsets and sorts them.
func (p *Planner) timestamps(start time.Time, n int) []time.Time {
	out := make([]time.Time, 0, n)

	switch p.opts.Mode {
	case ModeRandom:
		offsets := make([]float64, n)
		for i := range offsets {
			offsets[i] = p.rng.Float64() * p.opts.Duration.Seconds()
		}
		sort.Float64s(offsets)
		for _, off := range offsets {
			out = append(out, start.Add(time.Duration(off*float64(time.Second))))
		}
	default:
		if n == 1 {
			return append(out, start)
		}
		step := p.opts.Duration / time.Duration(n-1)
		for i := range n {
			out = append(out, start.Add(step*time.Duration(i)))
		}
	}

	return out
}

// pickAuthor samples one author by cumulative weight. A zero-weight author
// is never chosen while a positive-weight author exists.
func (p *Planner) pickAuthor() Author {
	authors := p.opts.Authors
	if len(authors) == 1 {
		return authors[0]
	}

	var total float64
	for _, a := range authors {
		total += a.Weight
	}
	if total <= 0 {
		return authors[0]
	}

	r := p.rng.Float64() * total
	var cum float64
	for _, a := range authors {
		cum += a.Weight
		if r < cum {
			return a
		}
	}

	// Float accumulation can leave r a hair past the final cumulative sum.
	return authors[len(authors)-1]
}
