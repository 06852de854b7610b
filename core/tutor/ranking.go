package tutor

import "sort"

// TutorsPerPage is the number of tutors shown before "show more".
const TutorsPerPage = 6

// Derive computes AverageRating and FeedbackCount from the tutor's feedback.
// It is applied once, where tutors are fetched.
func Derive(t Tutor) Tutor {
	if t.Feedback == nil {
		t.Feedback = []Feedback{}
	}
	if t.Subjects == nil {
		t.Subjects = []Subject{}
	}
	t.FeedbackCount = len(t.Feedback)
	t.AverageRating = nil
	if t.FeedbackCount > 0 {
		var sum int
		for _, fb := range t.Feedback {
			sum += fb.Rating
		}
		avg := float64(sum) / float64(t.FeedbackCount)
		t.AverageRating = &avg
	}
	return t
}

// FilterByCourse keeps the tutors teaching course. An empty course keeps the list as is.
func FilterByCourse(tutors []Tutor, course string) []Tutor {
	if course == "" {
		return tutors
	}
	res := make([]Tutor, 0, len(tutors))
	for _, t := range tutors {
		if t.Teaches(course) {
			res = append(res, t)
		}
	}
	return res
}

func rating(t Tutor) float64 {
	if t.AverageRating == nil {
		return 0
	}
	return *t.AverageRating
}

// SortByRating returns a copy of tutors sorted by descending average rating.
// Unrated tutors count as 0 and ties keep their relative order.
func SortByRating(tutors []Tutor) []Tutor {
	sorted := make([]Tutor, len(tutors))
	copy(sorted, tutors)
	sort.SliceStable(sorted, func(i, j int) bool { return rating(sorted[i]) > rating(sorted[j]) })
	return sorted
}

// Paginate returns the first TutorsPerPage tutors, or all of them when showAll is set.
func Paginate(tutors []Tutor, showAll bool) Page {
	page := Page{Tutors: tutors, Total: len(tutors)}
	if page.Tutors == nil {
		page.Tutors = []Tutor{}
	}
	if !showAll && len(tutors) > TutorsPerPage {
		page.Tutors = tutors[:TutorsPerPage]
		page.HasMore = true
	}
	return page
}
