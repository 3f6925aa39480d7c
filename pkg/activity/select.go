package activity

import "fmt"

// Limits bounds the selection: Max items in total, with a guaranteed share per kind.
type Limits struct {
	Max     int `mapstructure:"max_items" yaml:"max"`
	Commits int `mapstructure:"commits" yaml:"commits"`
	Repos   int `mapstructure:"repos" yaml:"repos"`
	Blogs   int `mapstructure:"blogs" yaml:"blogs"`
}

// DefaultLimits returns ten items split six commits, two repositories, two posts.
func DefaultLimits() Limits {
	return Limits{Max: 10, Commits: 6, Repos: 2, Blogs: 2}
}

// Validate checks that the quotas are non-negative and fit within Max.
func (l Limits) Validate() error {
	if l.Max <= 0 {
		return fmt.Errorf("max items must be positive, got %d", l.Max)
	}
	if l.Commits < 0 || l.Repos < 0 || l.Blogs < 0 {
		return fmt.Errorf("quotas must not be negative (commits=%d, repos=%d, blogs=%d)", l.Commits, l.Repos, l.Blogs)
	}
	if sum := l.Commits + l.Repos + l.Blogs; sum > l.Max {
		return fmt.Errorf("quotas add up to %d, more than max items %d", sum, l.Max)
	}
	return nil
}

// Select picks at most l.Max items from three newest-first lists.
//
// Each kind first gets up to its quota from the head of its list. Spare capacity is then
// filled with the newest leftovers of any kind. The result is newest first; equal
// timestamps keep commits before repositories before posts, and list order within a kind.
func Select(commits, repos, blogs []Item, l Limits) []Item {
	lists := [...][]Item{commits, repos, blogs}
	quotas := [...]int{l.Commits, l.Repos, l.Blogs}

	var primary, leftover [len(lists)][]Item
	picked := 0
	for i, list := range lists {
		n := min(max(quotas[i], 0), len(list))
		primary[i] = list[:n]
		leftover[i] = list[n:]
		picked += n
	}

	var fallback []Item
	if picked < l.Max {
		fallback = merge(l.Max-picked, leftover[:]...)
	}

	return merge(l.Max, primary[0], primary[1], primary[2], fallback)
}

// merge interleaves newest-first lists into one newest-first list of at most limit items.
// On equal timestamps the earlier list wins, so the result equals a stable sort of the
// concatenated lists.
func merge(limit int, lists ...[]Item) []Item {
	total := 0
	for _, l := range lists {
		total += len(l)
	}
	out := make([]Item, 0, max(0, min(limit, total)))
	heads := make([]int, len(lists))

	for len(out) < limit {
		best := -1
		for i, l := range lists {
			if heads[i] >= len(l) {
				continue
			}
			if best < 0 || newer(l[heads[i]], lists[best][heads[best]]) {
				best = i
			}
		}
		if best < 0 {
			break
		}
		out = append(out, lists[best][heads[best]])
		heads[best]++
	}
	return out
}
