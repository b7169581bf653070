package search

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hyperjump/bloemist/internal/highlight"
)

func TestHighlighterCache_GetReusesCompiled(t *testing.T) {
	c := NewHighlighterCache(2)
	h1 := c.Get([]string{"rozen", "tulpen"})
	h2 := c.Get([]string{"rozen", "tulpen"})
	if h1 != h2 {
		t.Error("expected the same highlighter for the same keyword list")
	}
	if h3 := c.Get([]string{"tulpen", "rozen"}); h3 == h1 {
		t.Error("keyword order must be part of the key")
	}
}

func TestHighlighterCache_Evicts(t *testing.T) {
	c := NewHighlighterCache(2)
	a := c.Get([]string{"a"})
	c.Get([]string{"b"})
	c.Get([]string{"c"}) // evicts a
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
	if c.Get([]string{"a"}) == a {
		t.Error("expected a to be evicted and recompiled")
	}
}

func TestHighlighterCache_keyDoesNotCollide(t *testing.T) {
	pairs := [][2][]string{
		{{"a b"}, {"a", "b"}},
		{{"a", "b"}, {"a\x00b"}},
		{{"1:a"}, {"a"}},
		{{"", "a"}, {"a"}},
		{{"ab", ""}, {"a", "b"}},
	}
	for _, p := range pairs {
		c := NewHighlighterCache(4)
		first := c.Get(p[0])
		second := c.Get(p[1])
		if first == second {
			t.Errorf("%q and %q share a cache entry", p[0], p[1])
			continue
		}
		if diff := cmp.Diff(p[1], second.Keywords()); diff != "" {
			t.Errorf("Get(%q) returned highlighter for other keywords (-want +got):\n%s", p[1], diff)
		}
	}
}

func TestHighlighterCache_nulKeywordHighlightsWhole(t *testing.T) {
	c := NewHighlighterCache(4)
	c.Get([]string{"a", "b"})
	got := c.Get([]string{"a\x00b"}).Highlight("a\x00b and a")
	want := []highlight.Segment{highlight.EmphasizedText("a\x00b"), highlight.PlainText(" and a")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Highlight mismatch (-want +got):\n%s", diff)
	}
}

func TestHighlighterCache_concurrent(t *testing.T) {
	c := NewHighlighterCache(3)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			kw := []string{string(rune('a' + i%5))}
			if h := c.Get(kw); h == nil {
				t.Error("nil highlighter")
			}
		}(i)
	}
	wg.Wait()
	if c.Len() > 3 {
		t.Errorf("Len = %d exceeds capacity", c.Len())
	}
}
