package pulse

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/runsafetonight/internal/random"
)

func TestGenerate_Feed(t *testing.T) {
	for seed := uint64(0); seed < 50; seed++ {
		g := NewGenerator(random.New(seed))
		snap := g.Generate(time.Date(2026, time.October, 22, 19, 0, 0, 0, time.UTC))

		require.Len(t, snap.Feed, FeedSize)
		for i, item := range snap.Feed {
			assert.True(t, item.Category.Valid(), "category %q", item.Category)
			assert.NotEmpty(t, item.Text)
			assert.True(t, strings.HasPrefix(item.Text, "<strong>"), item.Text)
			assert.GreaterOrEqual(t, item.MinutesAgo, i*5)
			assert.Less(t, item.MinutesAgo, i*5+8)
		}
	}
}

func TestGenerate_StatsWithinBuckets(t *testing.T) {
	tests := []struct {
		name      string
		at        time.Time
		runners   bounded
		groupRuns bounded
	}{
		{"thursday evening peak", time.Date(2026, time.October, 22, 18, 0, 0, 0, time.UTC), bounded{2200, 1200}, bounded{15, 10}},
		{"saturday late evening", time.Date(2026, time.October, 24, 21, 0, 0, 0, time.UTC), bounded{1800, 800}, bounded{20, 12}},
		{"sunday overnight", time.Date(2026, time.October, 25, 2, 0, 0, 0, time.UTC), bounded{400, 600}, bounded{8, 10}},
		{"monday early morning", time.Date(2026, time.October, 19, 6, 0, 0, 0, time.UTC), bounded{800, 400}, bounded{8, 10}},
		{"tuesday midday", time.Date(2026, time.October, 20, 12, 0, 0, 0, time.UTC), bounded{300, 300}, bounded{15, 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for seed := uint64(0); seed < 30; seed++ {
				s := NewGenerator(random.New(seed)).Generate(tt.at).Stats
				assertWithin(t, s.RunnersTonight, tt.runners)
				assertWithin(t, s.GroupRunsTonight, tt.groupRuns)
				assertWithin(t, s.RoutesThisWeek, routesThisWeek)
				assertWithin(t, s.SafetyNotes, safetyNotes)
			}
		})
	}
}

func assertWithin(t *testing.T, v int, b bounded) {
	t.Helper()
	assert.GreaterOrEqual(t, v, b.base)
	assert.Less(t, v, b.base+b.spread)
}

func TestFeedItemTemplates(t *testing.T) {
	seen := make(map[Category]bool)
	for seed := uint64(0); seed < 200 && len(seen) < len(Categories); seed++ {
		for _, item := range NewGenerator(random.New(seed)).Generate(time.Now()).Feed {
			seen[item.Category] = true
			switch item.Category {
			case CategoryCheckin:
				assert.Contains(t, item.Text, "checked in from")
				assert.Contains(t, item.Text, "mi night run completed")
			case CategoryRoute:
				assert.Contains(t, item.Text, "shared a new route")
				assert.NotContains(t, item.Text, ",")
			case CategorySafety:
				assert.Contains(t, item.Text, "<strong>Safety note:</strong> New update for ")
			case CategoryGroup:
				assert.Regexp(t, `Night Crew — (6|7|8|9):(00|30) PM$`, item.Text)
			}
		}
	}
	assert.Len(t, seen, len(Categories))
}

func TestCityName(t *testing.T) {
	assert.Equal(t, "San Francisco", cityName("San Francisco, CA"))
	assert.Equal(t, "Nowhere", cityName("Nowhere"))
}

func TestSnapshot_JSON(t *testing.T) {
	snap := NewGenerator(random.New(9)).Generate(time.Date(2026, time.October, 19, 20, 15, 0, 0, time.UTC))

	data, err := json.Marshal(snap)
	require.NoError(t, err)

	var wire struct {
		Stats     map[string]int   `json:"stats"`
		Feed      []map[string]any `json:"feed"`
		Timestamp string           `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(data, &wire))
	for _, key := range []string{"runnersTonight", "routesThisWeek", "safetyNotes", "groupRunsTonight"} {
		assert.Contains(t, wire.Stats, key)
	}
	require.Len(t, wire.Feed, FeedSize)
	for _, item := range wire.Feed {
		assert.Contains(t, item, "dot")
		assert.Contains(t, item, "text")
		assert.Regexp(t, `^\d+m ago$`, item["time"])
	}
	assert.Equal(t, "2026-10-19T20:15:00.000Z", wire.Timestamp)

	var back Snapshot
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, snap.Stats, back.Stats)
	assert.Equal(t, snap.Feed, back.Feed)
}

func TestFeedItem_UnmarshalLegacy(t *testing.T) {
	var item FeedItem
	require.NoError(t, json.Unmarshal([]byte(`{"dot":"gold","text":"x","time":"12m ago"}`), &item))
	assert.Equal(t, CategorySafety, item.Category)
	assert.Equal(t, 12, item.MinutesAgo)
}
