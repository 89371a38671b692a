package filter

import (
	"bytes"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/rssdigest/internal/model"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		summary  string
		keywords []string
		want     float64
	}{
		{"キーワードなしは常に1.0", "anything", "", nil, 1.0},
		{"空配列も1.0", "", "", []string{}, 1.0},
		{"半分一致", "Rust 1.80 released", "", []string{"rust", "wasm"}, 0.5},
		{"全て一致", "Rust and WASM", "", []string{"rust", "wasm"}, 1.0},
		{"サマリーも対象", "Release notes", "now with wasm support", []string{"rust", "wasm"}, 0.5},
		{"大文字小文字を無視", "GOLANG weekly", "", []string{"GoLang"}, 1.0},
		{"一致なし", "cooking", "recipes", []string{"rust"}, 0},
		{"部分文字列で一致", "trustworthy", "", []string{"rust"}, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.title, tt.summary, tt.keywords); got != tt.want {
				t.Errorf("Score() = %v, want %v", got, tt.want)
			}
		})
	}
}

func intPtr(i int) *int { return &i }

func floatPtr(f float64) *float64 { return &f }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func ids(as []model.Article) []string {
	out := make([]string, 0, len(as))
	for _, a := range as {
		out = append(out, a.ID)
	}
	return out
}

var base = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

func entry(id, title string, age time.Duration) model.Article {
	return model.Article{ID: id, Title: title, Published: model.NewTimestamp(base.Add(-age))}
}

func TestSelect_EndToEndMix(t *testing.T) {
	src := model.FeedSource{ID: "f", Keywords: []string{"rust", "wasm"}}
	batch := Batch{Source: src, Articles: []model.Article{
		entry("dup", "rust and wasm", time.Hour),
		entry("low", "cooking tips", 2*time.Hour),
		entry("new", "rust wasm runtime", 3*time.Hour),
	}}

	s := NewSelector(model.FeedSettings{}, discardLogger())
	known := func(id string) bool { return id == "dup" }

	sel := s.Select([]Batch{batch}, known)

	if got := ids(sel.Accepted); !reflect.DeepEqual(got, []string{"new"}) {
		t.Errorf("Accepted = %v, want [new]", got)
	}
	if got := ids(sel.Known); !reflect.DeepEqual(got, []string{"dup"}) {
		t.Errorf("Known = %v, want [dup]", got)
	}
	if sel.Rejected != 1 {
		t.Errorf("Rejected = %d, want 1", sel.Rejected)
	}
}

func TestSelect_GlobalMaxPostsAcrossFeeds(t *testing.T) {
	mk := func(feed string, n int) Batch {
		b := Batch{Source: model.FeedSource{ID: feed}}
		for i := 0; i < n; i++ {
			b.Articles = append(b.Articles, entry(fmt.Sprintf("%s-%d", feed, i), "t", time.Duration(i)*time.Minute))
		}
		return b
	}

	s := NewSelector(model.FeedSettings{MaxPostsPerRun: intPtr(3)}, discardLogger())
	sel := s.Select([]Batch{mk("a", 2), mk("b", 2), mk("c", 1)}, nil)

	if got := ids(sel.Accepted); !reflect.DeepEqual(got, []string{"a-0", "a-1", "b-0"}) {
		t.Errorf("Accepted = %v", got)
	}
	if sel.Deferred != 2 {
		t.Errorf("Deferred = %d, want 2", sel.Deferred)
	}
}

func TestSelect_KnownDoesNotConsumeBudget(t *testing.T) {
	b := Batch{Source: model.FeedSource{ID: "a"}, Articles: []model.Article{
		entry("k1", "t", 0),
		entry("k2", "t", time.Minute),
		entry("n1", "t", 2*time.Minute),
	}}
	s := NewSelector(model.FeedSettings{MaxPostsPerRun: intPtr(1)}, discardLogger())

	sel := s.Select([]Batch{b}, func(id string) bool { return strings.HasPrefix(id, "k") })

	if len(sel.Known) != 2 || len(sel.Accepted) != 1 || sel.Deferred != 0 {
		t.Errorf("Known = %d, Accepted = %d, Deferred = %d", len(sel.Known), len(sel.Accepted), sel.Deferred)
	}
}

func TestSelect_CutoffSkipsStaleBeforeBudget(t *testing.T) {
	stale := Batch{Source: model.FeedSource{ID: "old"}, Articles: []model.Article{
		entry("s1", "t", 14*24*time.Hour),
		entry("s2", "t", 15*24*time.Hour),
		entry("k", "t", 20*24*time.Hour),
	}}
	fresh := Batch{Source: model.FeedSource{ID: "new"}, Articles: []model.Article{
		entry("f1", "t", 6*time.Hour),
	}}

	s := NewSelector(model.FeedSettings{MaxPostsPerRun: intPtr(2)}, discardLogger()).
		WithCutoff(base.Add(-7 * 24 * time.Hour))
	sel := s.Select([]Batch{stale, fresh}, func(id string) bool { return id == "k" })

	if got := ids(sel.Accepted); !reflect.DeepEqual(got, []string{"f1"}) {
		t.Errorf("Accepted = %v, want [f1]", got)
	}
	if sel.Stale != 2 || sel.Deferred != 0 {
		t.Errorf("Stale = %d, Deferred = %d, want 2, 0", sel.Stale, sel.Deferred)
	}
	// 既知の記事は保持期間の判定を記事ストアのマージに任せる
	if got := ids(sel.Known); !reflect.DeepEqual(got, []string{"k"}) {
		t.Errorf("Known = %v, want [k]", got)
	}
}

func TestSelect_PerFeedLimitNewestFirst(t *testing.T) {
	b := Batch{Source: model.FeedSource{ID: "a"}}
	// 古い順に並べて渡しても新しい20件が評価される
	for i := 24; i >= 0; i-- {
		b.Articles = append(b.Articles, entry(fmt.Sprintf("e%02d", i), "t", time.Duration(i)*time.Hour))
	}

	s := NewSelector(model.FeedSettings{MaxPostsPerRun: intPtr(100)}, discardLogger())
	sel := s.Select([]Batch{b}, nil)

	if len(sel.Accepted) != PerFeedLimit {
		t.Fatalf("len(Accepted) = %d, want %d", len(sel.Accepted), PerFeedLimit)
	}
	if sel.Accepted[0].ID != "e00" || sel.Accepted[PerFeedLimit-1].ID != "e19" {
		t.Errorf("unexpected order: first %q last %q", sel.Accepted[0].ID, sel.Accepted[PerFeedLimit-1].ID)
	}
	if sel.Dropped != 5 {
		t.Errorf("Dropped = %d, want 5", sel.Dropped)
	}
}

func TestSelect_LowScoreLoggedAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	b := Batch{Source: model.FeedSource{ID: "a", Keywords: []string{"go"}}, Articles: []model.Article{
		entry("x", "python news", 0),
	}}
	sel := NewSelector(model.FeedSettings{MinRelevanceScore: floatPtr(0.5)}, logger).Select([]Batch{b}, nil)

	if sel.Rejected != 1 || len(sel.Accepted) != 0 {
		t.Fatalf("Rejected = %d, Accepted = %d", sel.Rejected, len(sel.Accepted))
	}
	if !strings.Contains(buf.String(), `"level":"DEBUG"`) {
		t.Errorf("expected debug log for rejected entry, got %s", buf.String())
	}
}
