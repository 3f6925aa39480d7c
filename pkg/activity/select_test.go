package activity

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"
	"time"
)

var base = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// series returns n items of kind, newest first, starting offset minutes before base and
// step minutes apart.
func series(kind Kind, n, offset, step int) []Item {
	items := make([]Item, n)
	for i := range items {
		ts := base.Add(-time.Duration(offset+i*step) * time.Minute)
		items[i] = Item{Kind: kind, Timestamp: ts, Date: formatDate(ts), URL: fmt.Sprintf("%s-%d", kind, i)}
	}
	return items
}

func countKinds(items []Item) map[Kind]int {
	counts := map[Kind]int{}
	for _, it := range items {
		counts[it.Kind]++
	}
	return counts
}

func assertNewestFirst(t *testing.T, items []Item) {
	t.Helper()
	for i := 1; i < len(items); i++ {
		if items[i].Timestamp.After(items[i-1].Timestamp) {
			t.Fatalf("items[%d] (%v) is newer than items[%d] (%v)", i, items[i].Timestamp, i-1, items[i-1].Timestamp)
		}
	}
}

func TestSelectQuotaThenFallback(t *testing.T) {
	commits := series(KindCommit, 9, 0, 10)
	repos := series(KindRepo, 1, 5, 10)

	got := Select(commits, repos, nil, DefaultLimits())
	if len(got) != 10 {
		t.Fatalf("Select() returned %d items, want 10", len(got))
	}
	counts := countKinds(got)
	if counts[KindCommit] != 9 || counts[KindRepo] != 1 {
		t.Errorf("counts = %v, want 9 commits and 1 repo", counts)
	}
	assertNewestFirst(t, got)
}

func TestSelectGuaranteesQuotas(t *testing.T) {
	// Every commit is newer than every repository and post.
	commits := series(KindCommit, 20, 0, 1)
	repos := series(KindRepo, 5, 100, 1)
	blogs := series(KindBlog, 5, 200, 1)

	got := Select(commits, repos, blogs, DefaultLimits())
	counts := countKinds(got)
	if counts[KindCommit] != 6 || counts[KindRepo] != 2 || counts[KindBlog] != 2 {
		t.Errorf("counts = %v, want 6/2/2", counts)
	}
	assertNewestFirst(t, got)
}

func TestSelectFillsWithNewestLeftovers(t *testing.T) {
	commits := series(KindCommit, 10, 0, 1)
	repos := series(KindRepo, 5, 100, 1)

	got := Select(commits, repos, nil, DefaultLimits())
	counts := countKinds(got)
	if counts[KindCommit] != 8 || counts[KindRepo] != 2 {
		t.Errorf("counts = %v, want 8 commits and 2 repos", counts)
	}
	for i := range 8 {
		if got[i].URL != fmt.Sprintf("commit-%d", i) {
			t.Errorf("got[%d] = %s, want commit-%d", i, got[i].URL, i)
		}
	}
}

func TestSelectUnderSupply(t *testing.T) {
	commits := series(KindCommit, 2, 0, 3)
	repos := series(KindRepo, 3, 1, 3)
	blogs := series(KindBlog, 1, 2, 3)

	got := Select(commits, repos, blogs, DefaultLimits())
	if len(got) != 6 {
		t.Fatalf("Select() returned %d items, want all 6", len(got))
	}
	assertNewestFirst(t, got)
}

func TestSelectEmpty(t *testing.T) {
	if got := Select(nil, nil, nil, DefaultLimits()); len(got) != 0 {
		t.Errorf("Select() = %+v, want empty", got)
	}
}

func TestSelectTiesKeepInputOrder(t *testing.T) {
	same := func(kind Kind, n int) []Item {
		items := make([]Item, n)
		for i := range items {
			items[i] = Item{Kind: kind, Timestamp: base, URL: fmt.Sprintf("%s-%d", kind, i)}
		}
		return items
	}

	got := Select(same(KindCommit, 8), same(KindRepo, 4), same(KindBlog, 1), DefaultLimits())

	want := []string{
		"commit-0", "commit-1", "commit-2", "commit-3", "commit-4", "commit-5",
		"repo-0", "repo-1", "blog-0", "commit-6",
	}
	var urls []string
	for _, it := range got {
		urls = append(urls, it.URL)
	}
	if !slices.Equal(urls, want) {
		t.Errorf("order = %v, want %v", urls, want)
	}
}

// referenceSelect is the straightforward slice-and-sort formulation.
func referenceSelect(commits, repos, blogs []Item, l Limits) []Item {
	byTime := func(a, b Item) int { return b.Timestamp.Compare(a.Timestamp) }

	var selected []Item
	selected = append(selected, commits[:min(l.Commits, len(commits))]...)
	selected = append(selected, repos[:min(l.Repos, len(repos))]...)
	selected = append(selected, blogs[:min(l.Blogs, len(blogs))]...)

	if len(selected) < l.Max {
		var pool []Item
		pool = append(pool, commits[min(l.Commits, len(commits)):]...)
		pool = append(pool, repos[min(l.Repos, len(repos)):]...)
		pool = append(pool, blogs[min(l.Blogs, len(blogs)):]...)
		slices.SortStableFunc(pool, byTime)
		for _, it := range pool {
			if len(selected) >= l.Max {
				break
			}
			selected = append(selected, it)
		}
	}

	slices.SortStableFunc(selected, byTime)
	return selected[:min(l.Max, len(selected))]
}

func randomSeries(r *rand.Rand, kind Kind, n int) []Item {
	items := make([]Item, n)
	for i := range items {
		// Coarse timestamps so that ties are common.
		ts := base.Add(-time.Duration(r.IntN(20)) * time.Hour)
		items[i] = Item{Kind: kind, Timestamp: ts, URL: fmt.Sprintf("%s-%d", kind, i)}
	}
	sortNewestFirst(items)
	return items
}

func TestSelectProperties(t *testing.T) {
	r := rand.New(rand.NewPCG(42, 7))
	limits := []Limits{
		DefaultLimits(),
		{Max: 5, Commits: 3, Repos: 1, Blogs: 1},
		{Max: 8, Commits: 2, Repos: 2, Blogs: 0},
		{Max: 3, Commits: 0, Repos: 0, Blogs: 0},
	}

	for iter := range 500 {
		l := limits[iter%len(limits)]
		commits := randomSeries(r, KindCommit, r.IntN(15))
		repos := randomSeries(r, KindRepo, r.IntN(6))
		blogs := randomSeries(r, KindBlog, r.IntN(6))

		got := Select(commits, repos, blogs, l)

		total := len(commits) + len(repos) + len(blogs)
		if len(got) != min(l.Max, total) {
			t.Fatalf("iter %d: len = %d, want %d", iter, len(got), min(l.Max, total))
		}
		assertNewestFirst(t, got)

		counts := countKinds(got)
		for kind, pair := range map[Kind][2]int{
			KindCommit: {len(commits), l.Commits},
			KindRepo:   {len(repos), l.Repos},
			KindBlog:   {len(blogs), l.Blogs},
		} {
			if need := min(pair[0], pair[1]); counts[kind] < need {
				t.Fatalf("iter %d: %d %s items, want at least %d", iter, counts[kind], kind, need)
			}
		}

		want := referenceSelect(commits, repos, blogs, l)
		for i := range want {
			if got[i].URL != want[i].URL {
				t.Fatalf("iter %d: got[%d] = %s, reference has %s", iter, i, got[i].URL, want[i].URL)
			}
		}
	}
}

func TestLimitsValidate(t *testing.T) {
	tests := []struct {
		name    string
		limits  Limits
		wantErr bool
	}{
		{"default", DefaultLimits(), false},
		{"exact fit", Limits{Max: 4, Commits: 2, Repos: 1, Blogs: 1}, false},
		{"over quota", Limits{Max: 3, Commits: 2, Repos: 1, Blogs: 1}, true},
		{"zero max", Limits{}, true},
		{"negative quota", Limits{Max: 10, Commits: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.limits.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
