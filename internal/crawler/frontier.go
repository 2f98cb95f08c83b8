package crawler

import "sort"

// frontier is the ordered set of URLs still to visit within one site crawl.
// Every URL is enqueued at most once for the lifetime of the crawl, even
// after it has been popped.
type frontier struct {
	queue  []string
	queued map[string]struct{}
}

func newFrontier() *frontier {
	return &frontier{queued: make(map[string]struct{})}
}

// pushFront queues a URL for immediate visiting. A URL that is already
// pending moves to the front; one that was already popped is ignored.
func (f *frontier) pushFront(u string) {
	if !f.mark(u) {
		for i, pending := range f.queue {
			if pending == u {
				if i > 0 {
					f.queue = append(f.queue[:i], f.queue[i+1:]...)
					f.queue = append([]string{u}, f.queue...)
				}
				return
			}
		}
		return
	}
	f.queue = append([]string{u}, f.queue...)
}

// pushBack appends a URL to the end of the queue. Already-seen URLs are
// ignored.
func (f *frontier) pushBack(u string) {
	if !f.mark(u) {
		return
	}
	f.queue = append(f.queue, u)
}

// pop removes and returns the next URL, or "" when the frontier is drained.
func (f *frontier) pop() (string, bool) {
	if len(f.queue) == 0 {
		return "", false
	}
	u := f.queue[0]
	f.queue = f.queue[1:]
	return u, true
}

func (f *frontier) len() int { return len(f.queue) }

func (f *frontier) mark(u string) bool {
	if u == "" {
		return false
	}
	if _, ok := f.queued[u]; ok {
		return false
	}
	f.queued[u] = struct{}{}
	return true
}

// scoreboard accumulates scored links across all pages of one crawl,
// keeping the best score seen for each URL.
type scoreboard struct {
	scores map[string]int
}

func newScoreboard() *scoreboard {
	return &scoreboard{scores: make(map[string]int)}
}

// merge folds a page's scored links in, keeping the maximum score per URL.
func (b *scoreboard) merge(links []scoredLink) {
	for _, l := range links {
		if prev, ok := b.scores[l.URL]; !ok || l.Score > prev {
			b.scores[l.URL] = l.Score
		}
	}
}

// top returns up to k URLs ordered by descending score. Ties break on URL
// so the order is stable across runs.
func (b *scoreboard) top(k int) []string {
	type entry struct {
		url   string
		score int
	}
	entries := make([]entry, 0, len(b.scores))
	for u, s := range b.scores {
		entries = append(entries, entry{u, s})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			return entries[i].score > entries[j].score
		}
		return entries[i].url < entries[j].url
	})
	if k > len(entries) {
		k = len(entries)
	}
	out := make([]string, 0, k)
	for _, e := range entries[:k] {
		out = append(out, e.url)
	}
	return out
}
