package tutor

import "github.com/trezcool/tirgul/core/catalog"

// defaultRoster is listed whenever tutors cannot be fetched.
// Default tutors have negative IDs so they never collide with stored ones.
var defaultRoster = map[catalog.Track][]Tutor{
	catalog.TrackCS: {
		{ID: -1, Name: "נועה לוי", Phone: "0521234567", Degree: catalog.TrackCS, Subjects: subjects("מבוא למדעי המחשב", "מבני נתונים")},
		{ID: -2, Name: "איתי כהן", Phone: "0547654321", Degree: catalog.TrackCS, Subjects: subjects("אלגוריתמים 1", "מתמטיקה בדידה")},
		{ID: -3, Name: "מאיה פרץ", Phone: "0503456789", Degree: catalog.TrackCS, Subjects: subjects("מערכות הפעלה", "תכנות מערכות")},
	},
	catalog.TrackEE: {
		{ID: -4, Name: "עומר ביטון", Phone: "0529876543", Degree: catalog.TrackEE, Subjects: subjects("מעגלים חשמליים", "פיזיקה 2")},
		{ID: -5, Name: "שירה אברהם", Phone: "0541112233", Degree: catalog.TrackEE, Subjects: subjects("אותות ומערכות", "עיבוד אותות ספרתי")},
		{ID: -6, Name: "דניאל מזרחי", Phone: "0584445566", Degree: catalog.TrackEE, Subjects: subjects("מבוא לבקרה", "מעגלים אלקטרוניים")},
	},
}

func subjects(names ...string) []Subject {
	res := make([]Subject, 0, len(names))
	for _, n := range names {
		res = append(res, Subject{CourseName: n})
	}
	return res
}

// DefaultRoster returns a copy of the hard-coded tutors of degree, with empty feedback.
func DefaultRoster(degree catalog.Track) []Tutor {
	src := defaultRoster[degree]
	res := make([]Tutor, 0, len(src))
	for _, t := range src {
		t.Subjects = append([]Subject(nil), t.Subjects...)
		res = append(res, Derive(t))
	}
	return res
}
