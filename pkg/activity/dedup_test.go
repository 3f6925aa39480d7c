package activity

import "testing"

func TestDedup(t *testing.T) {
	in := []Item{
		{Kind: KindCommit, Repo: "a/x", SHA: "1", Message: "first"},
		{Kind: KindCommit, Repo: "a/x", SHA: "2"},
		{Kind: KindCommit, Repo: "a/x", SHA: "1", Message: "again"},
		{Kind: KindCommit, Repo: "a/y", SHA: "1"},
		{Kind: KindCommit, Repo: "a/x", SHA: "2"},
	}

	got := Dedup(in)
	want := []struct{ repo, sha string }{{"a/x", "1"}, {"a/x", "2"}, {"a/y", "1"}}
	if len(got) != len(want) {
		t.Fatalf("Dedup() returned %d items, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Repo != w.repo || got[i].SHA != w.sha {
			t.Errorf("got[%d] = %s@%s, want %s@%s", i, got[i].Repo, got[i].SHA, w.repo, w.sha)
		}
	}
	if got[0].Message != "first" {
		t.Errorf("first occurrence should win, got %q", got[0].Message)
	}

	again := Dedup(got)
	if len(again) != len(got) {
		t.Errorf("Dedup is not idempotent: %d then %d", len(got), len(again))
	}
}

func TestDedupEmpty(t *testing.T) {
	if got := Dedup(nil); len(got) != 0 {
		t.Errorf("Dedup(nil) = %+v, want empty", got)
	}
}
