package catalog

import "fmt"

const driveFolderBaseURL = "https://drive.google.com/drive/folders/"

// Specializations of the EE track.
const (
	SpecControl     = "בקרה"
	SpecBioEng      = "ביו הנדסה"
	SpecComm        = "תקשורת"
	SpecComputers   = "מחשבים"
	SpecSignalProc  = "עיבוד אותות"
	SpecElectronics = "אלקטרוניקה"
	SpecPower       = "אנרגיה"
)

func driveLink(track Track, id int) string {
	return fmt.Sprintf("%stirgul-%s-%03d", driveFolderBaseURL, track, id)
}

func course(track Track, id int, name string, tags ...string) Course {
	c := Course{ID: id, Name: name, DriveLink: driveLink(track, id)}
	if len(tags) > 0 {
		c.Tag = tags
	}
	return c
}

var courses = map[Track]map[Year][]Course{
	TrackCS: {
		YearA: {
			course(TrackCS, 101, "מבוא למדעי המחשב"),
			course(TrackCS, 102, "חדו\"א 1"),
			course(TrackCS, 103, "אלגברה לינארית 1"),
			course(TrackCS, 104, "מתמטיקה בדידה"),
			course(TrackCS, 105, "חדו\"א 2"),
			course(TrackCS, 106, "מבני נתונים"),
			course(TrackCS, 107, "לוגיקה למדעי המחשב"),
			course(TrackCS, 108, "תכנות מערכות"),
		},
		YearB: {
			course(TrackCS, 201, "אלגוריתמים 1"),
			course(TrackCS, 202, "מבנה מחשבים"),
			course(TrackCS, 203, "הסתברות"),
			course(TrackCS, 204, "תכנות מונחה עצמים"),
			course(TrackCS, 205, "אוטומטים ושפות פורמליות"),
			course(TrackCS, 206, "מערכות הפעלה"),
			course(TrackCS, 207, "אלגברה לינארית 2"),
		},
		YearC: {
			course(TrackCS, 301, "אלגוריתמים 2"),
			course(TrackCS, 302, "חישוביות וסיבוכיות"),
			course(TrackCS, 303, "רשתות מחשבים"),
			course(TrackCS, 304, "בסיסי נתונים"),
			course(TrackCS, 305, "תורת הקומפילציה"),
			course(TrackCS, 306, "הנדסת תוכנה"),
		},
		YearD: {
			course(TrackCS, 401, "למידה חישובית"),
			course(TrackCS, 402, "אבטחת מידע"),
			course(TrackCS, 403, "מערכות מבוזרות"),
			course(TrackCS, 404, "גרפיקה ממוחשבת"),
			course(TrackCS, 405, "פרויקט גמר"),
		},
	},
	TrackEE: {
		YearA: {
			course(TrackEE, 101, "חדו\"א 1"),
			course(TrackEE, 102, "אלגברה לינארית"),
			course(TrackEE, 103, "פיזיקה 1"),
			course(TrackEE, 104, "מבוא למחשבים"),
			course(TrackEE, 105, "חדו\"א 2"),
			course(TrackEE, 106, "פיזיקה 2"),
			course(TrackEE, 107, "מערכות ספרתיות"),
		},
		YearB: {
			course(TrackEE, 201, "מעגלים חשמליים"),
			course(TrackEE, 202, "משוואות דיפרנציאליות"),
			course(TrackEE, 203, "אותות ומערכות"),
			course(TrackEE, 204, "התקני מוליכים למחצה"),
			course(TrackEE, 205, "שדות אלקטרומגנטיים"),
			course(TrackEE, 206, "הסתברות"),
		},
		YearC: {
			course(TrackEE, 301, "מעגלים אלקטרוניים"),
			course(TrackEE, 302, "עיבוד אותות ספרתי"),
			course(TrackEE, 303, "מבוא לבקרה", SpecControl),
			course(TrackEE, 304, "מבוא להנדסה ביו-רפואית", SpecBioEng),
			course(TrackEE, 305, "מבוא לתקשורת", SpecComm),
			course(TrackEE, 306, "מערכות משובצות מחשב", SpecControl, SpecComputers),
			course(TrackEE, 307, "ארכיטקטורת מחשבים", SpecComputers),
		},
		YearD: {
			course(TrackEE, 401, "פרויקט גמר"),
			course(TrackEE, 402, "בקרה לא לינארית", SpecControl),
			course(TrackEE, 403, "בקרה אופטימלית", SpecControl, SpecSignalProc),
			course(TrackEE, 404, "עיבוד תמונות רפואיות", SpecBioEng, SpecSignalProc),
			course(TrackEE, 405, "מכשור רפואי", SpecBioEng, SpecElectronics),
			course(TrackEE, 406, "תקשורת ספרתית", SpecComm),
			course(TrackEE, 407, "אנטנות וקרינה", SpecComm),
			course(TrackEE, 408, "מערכות הספק", SpecPower),
			course(TrackEE, 409, "אלקטרוניקה ספרתית", SpecElectronics),
		},
	},
}
