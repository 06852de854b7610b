package main

import (
	"context"
	"fmt"
	"net/mail"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/tirgul/core"
	"github.com/trezcool/tirgul/core/catalog"
	"github.com/trezcool/tirgul/core/tutor"
)

const (
	suggestionsCount = 3
	tutorsSheet      = "Tutors"
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var errNoAdmins = errors.New("no admin email configured")

var tutorColumns = []string{"ID", "Name", "Phone", "Subjects", "Rating", "Feedback"}

func rating(t tutor.Tutor) string {
	if t.AverageRating == nil {
		return "-"
	}
	return strconv.FormatFloat(*t.AverageRating, 'f', 1, 64)
}

// addTutor lists a new tutor. Unknown subjects are reported with the closest course names.
func (cli *commandLine) addTutor(nt tutor.NewTutor) error {
	t, err := cli.tutorSvc.CreateTutor(context.Background(), nt)
	if err != nil {
		if vErr, ok := errors.Cause(err).(*core.ValidationError); ok {
			cli.suggestCourses(nt)
			return vErr
		}
		return err
	}
	fmt.Fprintf(cli.out, "tutor %q created with ID %d\n", t.Name, t.ID)
	return nil
}

func (cli *commandLine) suggestCourses(nt tutor.NewTutor) {
	degree, err := catalog.ParseTrack(nt.Degree)
	if err != nil {
		return
	}
	for _, name := range nt.Subjects {
		if _, _, ok := catalog.FindCourse(degree, name); ok {
			continue
		}
		if suggestions := catalog.Suggest(degree, name, suggestionsCount); len(suggestions) > 0 {
			fmt.Fprintf(cli.out, "unknown course %q, did you mean: %s?\n", name, strings.Join(suggestions, ", "))
		} else {
			fmt.Fprintf(cli.out, "unknown course %q\n", name)
		}
	}
}

// listTutors prints an aligned table on a terminal, tab separated values otherwise.
func (cli *commandLine) listTutors(degree catalog.Track) error {
	tutors, err := cli.tutorSvc.Query(context.Background(), degree)
	if err != nil {
		return err
	}

	if !isTerminalFunc() {
		fmt.Fprintln(cli.out, strings.Join(tutorColumns, "\t"))
		for _, t := range tutors {
			fmt.Fprintf(cli.out, "%d\t%s\t%s\t%s\t%s\t%d\n",
				t.ID, t.Name, t.Phone, strings.Join(t.SubjectNames(), ", "), rating(t), t.FeedbackCount)
		}
		return nil
	}

	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(tutorColumns, "\t"))
	for _, t := range tutors {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\n",
			t.ID, t.Name, t.Phone, strings.Join(t.SubjectNames(), ", "), rating(t), t.FeedbackCount)
	}
	return w.Flush()
}

// exportTutors writes the tutors of degree, best rated first, to the spreadsheet at path.
// With mailAdmins the spreadsheet is also mailed to the admins.
func (cli *commandLine) exportTutors(degree catalog.Track, path string, mailAdmins bool) error {
	if mailAdmins && len(cli.adminEmails) == 0 {
		return errNoAdmins
	}
	tutors, err := cli.tutorSvc.Query(context.Background(), degree)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", tutorsSheet); err != nil {
		return errors.Wrap(err, "naming sheet")
	}
	header := make([]interface{}, 0, len(tutorColumns))
	for _, c := range tutorColumns {
		header = append(header, c)
	}
	if err := f.SetSheetRow(tutorsSheet, "A1", &header); err != nil {
		return errors.Wrap(err, "writing header")
	}

	for i, t := range tutors {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "locating row")
		}
		var avg interface{} = ""
		if t.AverageRating != nil {
			avg = *t.AverageRating
		}
		row := []interface{}{t.ID, t.Name, t.Phone, strings.Join(t.SubjectNames(), ", "), avg, t.FeedbackCount}
		if err = f.SetSheetRow(tutorsSheet, cell, &row); err != nil {
			return errors.Wrap(err, "writing tutor row")
		}
	}
	if err := f.SetColWidth(tutorsSheet, "B", "D", 30); err != nil {
		return errors.Wrap(err, "sizing columns")
	}

	if err := f.SaveAs(path); err != nil {
		return errors.Wrap(err, "saving spreadsheet")
	}
	fmt.Fprintf(cli.out, "exported %d tutors to %s\n", len(tutors), path)

	if mailAdmins {
		return cli.mailExport(degree, path, len(tutors))
	}
	return nil
}

func (cli *commandLine) mailExport(degree catalog.Track, path string, count int) error {
	to := make([]mail.Address, 0, len(cli.adminEmails))
	for _, email := range cli.adminEmails {
		to = append(to, mail.Address{Address: email})
	}
	msg := &core.EmailMessage{
		To:      to,
		Subject: fmt.Sprintf("ייצוא מתרגלים (%s)", degree),
		BodyStr: fmt.Sprintf("מצורף קובץ עם %d מתרגלים במסלול %s.", count, degree),
	}
	if err := msg.AttachFile(path, xlsxContentType); err != nil {
		return errors.Wrap(err, "attaching spreadsheet")
	}
	cli.mailSvc.SendMessages(msg)
	fmt.Fprintf(cli.out, "mailed %s to %s\n", filepath.Base(path), strings.Join(cli.adminEmails, ", "))
	return nil
}
