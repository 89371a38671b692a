package publish

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/rssdigest/internal/model"
)

var now = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

func newTestTracker(buf *bytes.Buffer) *Tracker {
	if buf == nil {
		buf = &bytes.Buffer{}
	}
	return NewTracker(0, slog.New(slog.NewJSONHandler(buf, nil)))
}

func indexOf(ids ...string) map[string]model.Article {
	idx := make(map[string]model.Article, len(ids))
	for _, id := range ids {
		idx[id] = model.Article{ID: id}
	}
	return idx
}

func TestMarkPublished_AppendsRecord(t *testing.T) {
	tr := newTestTracker(nil)
	idx := indexOf("a", "b")

	next, err := tr.MarkPublished(model.PublishedState{}, []string{"a", "b"}, idx, "1717234200.000100", now)
	if err != nil {
		t.Fatalf("MarkPublished() error = %v", err)
	}

	if !reflect.DeepEqual(next.PublishedArticles, []string{"a", "b"}) {
		t.Errorf("PublishedArticles = %v", next.PublishedArticles)
	}
	if len(next.History) != 1 {
		t.Fatalf("len(History) = %d, want 1", len(next.History))
	}
	rec := next.History[0]
	if rec.Date != "2025-06-01" || rec.ArticleCount != 2 || rec.SlackTS != "1717234200.000100" {
		t.Errorf("record = %+v", rec)
	}
	if !rec.PublishedAt.Time.Equal(now) {
		t.Errorf("PublishedAt = %v, want %v", rec.PublishedAt.Time, now)
	}
}

func TestMarkPublished_DropsUnknownWithWarning(t *testing.T) {
	var buf bytes.Buffer
	tr := newTestTracker(&buf)

	next, err := tr.MarkPublished(model.PublishedState{}, []string{"a", "ghost"}, indexOf("a"), "ts", now)
	if err != nil {
		t.Fatalf("MarkPublished() error = %v", err)
	}
	if !reflect.DeepEqual(next.History[0].ArticleIDs, []string{"a"}) {
		t.Errorf("ArticleIDs = %v, want [a]", next.History[0].ArticleIDs)
	}
	if !strings.Contains(buf.String(), `"level":"WARN"`) || !strings.Contains(buf.String(), "ghost") {
		t.Errorf("expected warning for unknown id, got %s", buf.String())
	}
}

func TestMarkPublished_NoValidArticles(t *testing.T) {
	tr := newTestTracker(nil)
	state := model.PublishedState{PublishedArticles: []string{"x"}}

	next, err := tr.MarkPublished(state, []string{"ghost"}, indexOf("a"), "ts", now)

	var e *model.Error
	if !errors.As(err, &e) || e.Code != model.ErrCodeNoValidArticles {
		t.Fatalf("expected NO_VALID_ARTICLES, got %v", err)
	}
	if !reflect.DeepEqual(next, state) {
		t.Errorf("state modified on failure: %+v", next)
	}
}

func TestMarkPublished_Idempotent(t *testing.T) {
	tr := newTestTracker(nil)
	idx := indexOf("a", "b")

	first, _ := tr.MarkPublished(model.PublishedState{}, []string{"a"}, idx, "1", now)
	second, err := tr.MarkPublished(first, []string{"a", "a"}, idx, "2", now.Add(time.Hour))
	if err != nil {
		t.Fatalf("MarkPublished() error = %v", err)
	}

	if len(second.PublishedArticles) != 1 {
		t.Errorf("PublishedArticles = %v, want single id", second.PublishedArticles)
	}
	if len(second.History) != 2 {
		t.Errorf("len(History) = %d, want 2", len(second.History))
	}
	if !reflect.DeepEqual(second.History[1].ArticleIDs, []string{"a"}) {
		t.Errorf("duplicate ids within the batch should collapse: %v", second.History[1].ArticleIDs)
	}
}

func TestMarkPublished_HistoryBoundKeepsMembership(t *testing.T) {
	tr := newTestTracker(nil)
	idx := map[string]model.Article{}
	state := model.PublishedState{}

	const runs = 45
	for i := 0; i < runs; i++ {
		id := fmt.Sprintf("id-%02d", i)
		idx[id] = model.Article{ID: id}

		var err error
		state, err = tr.MarkPublished(state, []string{id}, idx, fmt.Sprint(i), now.Add(time.Duration(i)*time.Hour))
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}

	if len(state.History) != DefaultHistoryLimit {
		t.Errorf("len(History) = %d, want %d", len(state.History), DefaultHistoryLimit)
	}
	if state.History[0].SlackTS != fmt.Sprint(runs-DefaultHistoryLimit) {
		t.Errorf("oldest retained record = %q", state.History[0].SlackTS)
	}
	if len(state.PublishedArticles) != runs {
		t.Errorf("len(PublishedArticles) = %d, want %d", len(state.PublishedArticles), runs)
	}
	set := state.Set()
	for i := 0; i < runs; i++ {
		if _, ok := set[fmt.Sprintf("id-%02d", i)]; !ok {
			t.Errorf("id-%02d missing from published set", i)
		}
	}
}

func TestMarkPublished_DoesNotMutateInput(t *testing.T) {
	tr := newTestTracker(nil)
	state := model.PublishedState{
		PublishedArticles: []string{"old"},
		History:           []model.PublishRecord{{SlackTS: "0"}},
	}
	_, err := tr.MarkPublished(state, []string{"a"}, indexOf("a"), "1", now)
	if err != nil {
		t.Fatal(err)
	}
	if len(state.PublishedArticles) != 1 || len(state.History) != 1 {
		t.Errorf("input state mutated: %+v", state)
	}
}

func TestResolve_PreservesRequestOrder(t *testing.T) {
	tr := newTestTracker(nil)
	articles, valid := tr.Resolve([]string{"c", "a", "missing", "c"}, indexOf("a", "b", "c"))

	if !reflect.DeepEqual(valid, []string{"c", "a"}) {
		t.Errorf("valid = %v", valid)
	}
	if len(articles) != 2 || articles[0].ID != "c" {
		t.Errorf("articles = %+v", articles)
	}
}
