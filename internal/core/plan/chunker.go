package plan

import (
	"fmt"
	"math/rand"
)

// Chunk partitions files into at most n groups, each destined to become one
// commit. The input is shuffled (on a copy) and then dealt round-robin, so
// every file lands in exactly one group and group sizes differ by at most
// one. When fewer files than groups are available the group count is capped
// at the file count; no group is ever empty.
func Chunk(rng *rand.Rand, files []string, n int) ([][]string, error) {
	if n <= 0 {
		return nil, fmt.Errorf("chunk count must be at least 1, got %d", n)
	}
	if len(files) == 0 {
		return nil, nil
	}

	shuffled := make([]string, len(files))
	copy(shuffled, files)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	groups := min(n, len(shuffled))
	chunks := make([][]string, groups)
	for i, f := range shuffled {
		idx := i % groups
		chunks[idx] = append(chunks[idx], f)
	}

	return chunks, nil
}
