package ledger

import "sort"

// View returns the events matching the optional filters, most recent first.
// An empty date or person type matches everything; both filters apply when
// both are set. The input slice is never mutated.
func View(events []Event, date string, personType PersonType) []Event {
	out := make([]Event, 0, len(events))
	for _, evt := range events {
		if date != "" && evt.Date != date {
			continue
		}
		if personType != "" && evt.PersonType != personType {
			continue
		}
		out = append(out, evt)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// Counts is the daily aggregate partitioned by person type.
type Counts struct {
	Students int `json:"students"`
	Visitors int `json:"visitors"`
	Total    int `json:"total"`
}

// DailyCounts tallies the events whose civil date equals date.
func DailyCounts(events []Event, date string) Counts {
	var c Counts
	for _, evt := range events {
		if evt.Date != date {
			continue
		}
		switch evt.PersonType {
		case Student:
			c.Students++
		case Visitor:
			c.Visitors++
		}
		c.Total++
	}
	return c
}
