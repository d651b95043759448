package pulse

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type feedPayload struct {
	Type       Category `json:"type"`
	Dot        string   `json:"dot"`
	Text       string   `json:"text"`
	Time       string   `json:"time"`
	MinutesAgo int      `json:"minutesAgo"`
}

type snapshotPayload struct {
	Stats     Stats         `json:"stats"`
	Feed      []feedPayload `json:"feed"`
	Timestamp string        `json:"timestamp"`
}

// TimeLabel renders the age the way the feed shows it.
func (f FeedItem) TimeLabel() string {
	return fmt.Sprintf("%dm ago", f.MinutesAgo)
}

func (f FeedItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.payload())
}

func (f FeedItem) payload() feedPayload {
	return feedPayload{
		Type:       f.Category,
		Dot:        f.Category.Dot(),
		Text:       f.Text,
		Time:       f.TimeLabel(),
		MinutesAgo: f.MinutesAgo,
	}
}

func (f *FeedItem) UnmarshalJSON(data []byte) error {
	var p feedPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	f.Category = p.Type
	if f.Category == "" {
		f.Category = categoryForDot(p.Dot)
	}
	f.Text = p.Text
	f.MinutesAgo = p.MinutesAgo
	if f.MinutesAgo == 0 {
		f.MinutesAgo = parseAge(p.Time)
	}
	return nil
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	feed := make([]feedPayload, 0, len(s.Feed))
	for _, item := range s.Feed {
		feed = append(feed, item.payload())
	}
	return json.Marshal(snapshotPayload{
		Stats:     s.Stats,
		Feed:      feed,
		Timestamp: s.GeneratedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw struct {
		Stats     Stats      `json:"stats"`
		Feed      []FeedItem `json:"feed"`
		Timestamp string     `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Stats = raw.Stats
	s.Feed = raw.Feed
	s.GeneratedAt = time.Time{}
	if raw.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339, raw.Timestamp); err == nil {
			s.GeneratedAt = ts
		}
	}
	return nil
}

func categoryForDot(dot string) Category {
	for _, c := range Categories {
		if c.Dot() == dot {
			return c
		}
	}
	return CategoryCheckin
}

// parseAge reads "7m ago"; anything else, including "just now", is zero.
func parseAge(label string) int {
	n, ok := strings.CutSuffix(label, "m ago")
	if !ok {
		return 0
	}
	v, err := strconv.Atoi(n)
	if err != nil {
		return 0
	}
	return v
}
