package conditions

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// payload is the wire shape served at /api/conditions.
type payload struct {
	Sunset     string   `json:"sunset"`
	Temp       string   `json:"temp"`
	Wind       string   `json:"wind"`
	Visibility string   `json:"visibility"`
	Moon       string   `json:"moon"`
	Streets    string   `json:"streets"`
	Verdict    string   `json:"verdict"`
	Tips       []string `json:"tips"`
	Timestamp  string   `json:"timestamp"`
	Location   string   `json:"location"`
}

func (r Report) MarshalJSON() ([]byte, error) {
	tips := r.Tips
	if tips == nil {
		tips = []string{}
	}
	return json.Marshal(payload{
		Sunset:     r.Sunset,
		Temp:       fmt.Sprintf("%d°F", r.TemperatureF),
		Wind:       fmt.Sprintf("%d mph", r.WindMph),
		Visibility: r.Visibility.String(),
		Moon:       r.Moon.String(),
		Streets:    string(r.StreetActivity),
		Verdict:    r.Verdict,
		Tips:       tips,
		Timestamp:  r.GeneratedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Location:   r.Location,
	})
}

// UnmarshalJSON accepts the wire shape, including reports produced by older
// deployments. temp and wind must start with an integer or decoding fails.
// An unknown visibility decodes as Low and an unknown moon as New Moon.
func (r *Report) UnmarshalJSON(data []byte) error {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	temp, err := leadingInt(p.Temp)
	if err != nil {
		return fmt.Errorf("parse temp %q: %w", p.Temp, err)
	}
	wind, err := leadingInt(p.Wind)
	if err != nil {
		return fmt.Errorf("parse wind %q: %w", p.Wind, err)
	}

	vis, _ := ParseVisibility(p.Visibility)
	moon, _ := ParseMoonPhase(p.Moon)

	*r = Report{
		Sunset:         p.Sunset,
		TemperatureF:   temp,
		WindMph:        wind,
		Visibility:     vis,
		Moon:           moon,
		StreetActivity: Activity(p.Streets),
		Verdict:        p.Verdict,
		Tips:           p.Tips,
		Location:       p.Location,
	}
	r.VerdictScore = VerdictScore(temp, wind, vis, r.StreetActivity)
	if p.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339, p.Timestamp); err == nil {
			r.GeneratedAt = ts
		}
	}
	return nil
}

// leadingInt parses "72°F" or "9 mph" style values.
func leadingInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] == '-' && end == 0 || s[end] >= '0' && s[end] <= '9') {
		end++
	}
	return strconv.Atoi(s[:end])
}
