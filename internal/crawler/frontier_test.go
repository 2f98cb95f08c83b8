package crawler

import "testing"

func TestFrontierEnqueueOnce(t *testing.T) {
	f := newFrontier()
	f.pushBack("https://a.de/")
	f.pushBack("https://a.de/")
	f.pushFront("https://a.de/kontakt")

	if f.len() != 2 {
		t.Fatalf("expected 2 queued urls, got %d", f.len())
	}

	u, ok := f.pop()
	if !ok || u != "https://a.de/kontakt" {
		t.Fatalf("expected pushFront url first, got %q", u)
	}

	// A popped URL never comes back.
	f.pushFront("https://a.de/kontakt")
	f.pushBack("https://a.de/kontakt")
	if f.len() != 1 {
		t.Fatalf("expected popped url to stay gone, got %d queued", f.len())
	}
}

func TestFrontierPromotesPending(t *testing.T) {
	f := newFrontier()
	f.pushBack("https://a.de/contact")
	f.pushBack("https://a.de/about")
	f.pushBack("https://a.de/kontakt")

	// Link scoring later decides /kontakt is the best candidate.
	f.pushFront("https://a.de/kontakt")

	u, _ := f.pop()
	if u != "https://a.de/kontakt" {
		t.Fatalf("expected promoted url first, got %q", u)
	}
	if f.len() != 2 {
		t.Fatalf("promotion must not duplicate, got %d queued", f.len())
	}
}

func TestFrontierPopEmpty(t *testing.T) {
	f := newFrontier()
	if _, ok := f.pop(); ok {
		t.Fatal("expected pop on empty frontier to report not ok")
	}
}

func TestScoreboardKeepsMaxScore(t *testing.T) {
	b := newScoreboard()
	b.merge([]scoredLink{
		{URL: "https://a.de/kontakt", Score: 25},
		{URL: "https://a.de/about", Score: 10},
	})
	b.merge([]scoredLink{
		{URL: "https://a.de/kontakt", Score: 43},
		{URL: "https://a.de/team", Score: 8},
	})

	top := b.top(2)
	if len(top) != 2 {
		t.Fatalf("expected 2 urls, got %v", top)
	}
	if top[0] != "https://a.de/kontakt" {
		t.Fatalf("expected kontakt first, got %v", top)
	}
	if top[1] != "https://a.de/about" {
		t.Fatalf("expected about second, got %v", top)
	}
}

func TestScoreboardTopBounds(t *testing.T) {
	b := newScoreboard()
	b.merge([]scoredLink{{URL: "https://a.de/x", Score: 1}})

	if got := b.top(5); len(got) != 1 {
		t.Fatalf("expected 1 url, got %v", got)
	}
	if got := b.top(0); len(got) != 0 {
		t.Fatalf("expected no urls for k=0, got %v", got)
	}
}
