package publish

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/hitoshi/rssdigest/internal/model"
)

func TestUpdateTracking_AppendsAndCountsStats(t *testing.T) {
	state := model.TrackingState{
		PostedItems: []string{"a"},
		Stats:       model.TrackingStats{TotalItemsPosted: 5},
	}

	next := UpdateTracking(state, []string{"b", "a", "c"}, now, 0)

	if !reflect.DeepEqual(next.PostedItems, []string{"a", "b", "c"}) {
		t.Errorf("PostedItems = %v", next.PostedItems)
	}
	if next.Stats.TotalItemsPosted != 8 || next.Stats.LastRunPosted != 3 {
		t.Errorf("Stats = %+v", next.Stats)
	}
	if !next.LastCheck.Time.Equal(now) || !next.Stats.LastRunTime.Time.Equal(now) {
		t.Errorf("timestamps not updated: %+v", next)
	}
}

func TestUpdateTracking_KeepsMostRecentlyInserted(t *testing.T) {
	var state model.TrackingState
	for i := 0; i < 5; i++ {
		state.PostedItems = append(state.PostedItems, fmt.Sprintf("old-%d", i))
	}

	next := UpdateTracking(state, []string{"new-1", "new-2"}, now, 4)

	want := []string{"old-3", "old-4", "new-1", "new-2"}
	if !reflect.DeepEqual(next.PostedItems, want) {
		t.Errorf("PostedItems = %v, want %v", next.PostedItems, want)
	}
}

func TestUpdateTracking_DefaultLimit(t *testing.T) {
	var posted []string
	for i := 0; i < DefaultTrackingLimit+10; i++ {
		posted = append(posted, fmt.Sprintf("g-%d", i))
	}
	next := UpdateTracking(model.TrackingState{}, posted, now, 0)

	if len(next.PostedItems) != DefaultTrackingLimit {
		t.Fatalf("len(PostedItems) = %d, want %d", len(next.PostedItems), DefaultTrackingLimit)
	}
	if next.PostedItems[0] != "g-10" {
		t.Errorf("oldest retained = %q, want g-10", next.PostedItems[0])
	}
	if _, ok := Posted(next)["g-1009"]; !ok {
		t.Error("newest id should be retained")
	}
}
