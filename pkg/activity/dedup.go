package activity

// Dedup drops commits whose (repository, sha) pair was already seen, keeping the first
// occurrence and the input order of the survivors.
func Dedup(commits []Item) []Item {
	type key struct{ repo, sha string }

	seen := make(map[key]bool, len(commits))
	out := make([]Item, 0, len(commits))
	for _, c := range commits {
		k := key{c.Repo, c.SHA}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, c)
	}
	return out
}
