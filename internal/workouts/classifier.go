package workouts

import (
	"sort"
	"strings"
	"time"
)

// QueryParams narrows a record set down to the view a single tab renders.
type QueryParams struct {
	Bucket     Bucket
	TypeFilter string // "" or "All" passes everything
	SearchText string // "" passes everything
}

// Query returns the ordered, filtered view of records for one tab: bucket
// membership, type filter and search are ANDed, then the result is sorted
// date desc, type asc, id asc. Pure and idempotent; it never errors, and
// unknown filter values degrade to no matches.
func Query(records []Workout, now time.Time, params QueryParams) []Workout {
	matched := make([]Workout, 0, len(records))
	for i := range records {
		w := records[i]
		if !w.InBucket(params.Bucket, now) {
			continue
		}
		if !matchesType(&w, params.TypeFilter) {
			continue
		}
		if !matchesSearch(&w, params.SearchText) {
			continue
		}
		matched = append(matched, w)
	}

	sortWorkouts(matched)
	return matched
}

// matchesType: case-sensitive substring containment, "All"/"" pass all.
func matchesType(w *Workout, typeFilter string) bool {
	if typeFilter == "" || typeFilter == "All" {
		return true
	}
	return strings.Contains(w.Type, typeFilter)
}

// matchesSearch: case-insensitive substring over description, type,
// location and the long-form date rendering.
func matchesSearch(w *Workout, searchText string) bool {
	if searchText == "" {
		return true
	}
	needle := strings.ToLower(searchText)
	return strings.Contains(strings.ToLower(w.Description), needle) ||
		strings.Contains(strings.ToLower(w.Type), needle) ||
		strings.Contains(strings.ToLower(w.Location), needle) ||
		strings.Contains(strings.ToLower(w.SearchDate()), needle)
}

func sortWorkouts(workouts []Workout) {
	sort.SliceStable(workouts, func(i, j int) bool {
		if !workouts[i].Date.Equal(workouts[j].Date) {
			return workouts[i].Date.After(workouts[j].Date)
		}
		if workouts[i].Type != workouts[j].Type {
			return workouts[i].Type < workouts[j].Type
		}
		return workouts[i].ID < workouts[j].ID
	})
}

// StartOfDay truncates t to the local calendar day it falls on.
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// BuildDayIndex groups the full record set by local calendar day. Every
// record lands in exactly one day bucket; day lists share the engine order.
func BuildDayIndex(records []Workout) map[time.Time][]Workout {
	index := make(map[time.Time][]Workout)
	for i := range records {
		day := StartOfDay(records[i].Date)
		index[day] = append(index[day], records[i])
	}
	for day := range index {
		sortWorkouts(index[day])
	}
	return index
}
