package catalog

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
)

var (
	ErrUnknownTrack = errors.New("unknown track")
	ErrUnknownYear  = errors.New("unknown year")

	// minimum similarity ratio for a course name to be suggested
	suggestMinRatio = .6
)

// Track is a degree track.
type Track string

const (
	TrackCS Track = "cs" // Computer Science
	TrackEE Track = "ee" // Electrical Engineering
)

var Tracks = []Track{TrackCS, TrackEE}

func ParseTrack(s string) (Track, error) {
	switch t := Track(strings.ToLower(strings.TrimSpace(s))); t {
	case TrackCS, TrackEE:
		return t, nil
	}
	return "", errors.Wrap(ErrUnknownTrack, s)
}

// Year is an academic year label.
type Year string

const (
	YearA Year = "שנה א"
	YearB Year = "שנה ב"
	YearC Year = "שנה ג"
	YearD Year = "שנה ד"
)

var Years = []Year{YearA, YearB, YearC, YearD}

// ParseYear accepts the full label ("שנה ג"), the bare letter ("ג") or the ordinal ("3").
func ParseYear(s string) (Year, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 1 && n <= len(Years) {
			return Years[n-1], nil
		}
		return "", errors.Wrap(ErrUnknownYear, s)
	}
	for _, y := range Years {
		if s == string(y) || s == y.Letter() {
			return y, nil
		}
	}
	return "", errors.Wrap(ErrUnknownYear, s)
}

// Letter returns the Hebrew letter of the year, e.g. "ג".
func (y Year) Letter() string {
	return strings.TrimSpace(strings.TrimPrefix(string(y), "שנה"))
}

// HasSpecializations reports whether EE courses of this year are split by specialization.
func (y Year) HasSpecializations() bool {
	return y == YearC || y == YearD
}

// Tag lists the specializations of an elective course. An empty Tag means a general/required course.
// It is encoded as a single string when it holds one specialization, as an array otherwise.
type Tag []string

func (t Tag) MarshalJSON() ([]byte, error) {
	switch len(t) {
	case 0:
		return []byte("null"), nil
	case 1:
		return json.Marshal(t[0])
	}
	return json.Marshal([]string(t))
}

func (t *Tag) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*t = nil
		} else {
			*t = Tag{single}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return errors.Wrap(err, "tag must be a string or an array of strings")
	}
	if len(many) == 0 {
		*t = nil
	} else {
		*t = many
	}
	return nil
}

// Has reports whether name is one of the tag's specializations.
func (t Tag) Has(name string) bool {
	for _, s := range t {
		if s == name {
			return true
		}
	}
	return false
}

type Course struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	DriveLink string `json:"driveLink"`
	Tag       Tag    `json:"tag,omitempty"`
}

func (c Course) IsGeneral() bool { return len(c.Tag) == 0 }

func (c Course) copy() Course {
	if c.Tag != nil {
		c.Tag = append(Tag(nil), c.Tag...)
	}
	return c
}

// CoursesForYear returns the courses to display for year on track.
// For EE years ג and ד, courses are narrowed by specialization: general courses are always listed,
// elective ones only when tag is one of their specializations. Source order is preserved.
func CoursesForYear(year Year, track Track, tag string) []Course {
	src := courses[track][year]
	narrow := track == TrackEE && year.HasSpecializations()

	res := make([]Course, 0, len(src))
	for _, c := range src {
		if narrow && !(c.IsGeneral() || (tag != "" && c.Tag.Has(tag))) {
			continue
		}
		res = append(res, c.copy())
	}
	return res
}

// Courses returns all the courses of track, year after year.
func Courses(track Track) []Course {
	var res []Course
	for _, y := range Years {
		for _, c := range courses[track][y] {
			res = append(res, c.copy())
		}
	}
	return res
}

// Specializations returns the distinct specializations of track in first-seen order.
func Specializations(track Track) []string {
	seen := make(map[string]bool)
	res := make([]string, 0)
	for _, c := range Courses(track) {
		for _, s := range c.Tag {
			if !seen[s] {
				seen[s] = true
				res = append(res, s)
			}
		}
	}
	return res
}

// FindCourse looks a course up by its exact name.
func FindCourse(track Track, name string) (Course, Year, bool) {
	name = strings.TrimSpace(name)
	for _, y := range Years {
		for _, c := range courses[track][y] {
			if c.Name == name {
				return c.copy(), y, true
			}
		}
	}
	return Course{}, "", false
}

// Suggest returns up to n course names of track that look like name, best match first.
func Suggest(track Track, name string, n int) []string {
	type match struct {
		name  string
		ratio float64
	}

	target := strings.Split(strings.TrimSpace(name), "")
	matches := make([]match, 0)
	seen := make(map[string]bool)
	for _, c := range Courses(track) {
		if seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		m := difflib.NewMatcher(target, strings.Split(c.Name, ""))
		if m.QuickRatio() < suggestMinRatio {
			continue
		}
		if r := m.Ratio(); r >= suggestMinRatio {
			matches = append(matches, match{name: c.Name, ratio: r})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].ratio > matches[j].ratio })

	res := make([]string, 0, n)
	for i := 0; i < len(matches) && i < n; i++ {
		res = append(res, matches[i].name)
	}
	return res
}
