package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/trezcool/tirgul/core"
	"github.com/trezcool/tirgul/core/catalog"
	"github.com/trezcool/tirgul/core/tutor"
	"github.com/trezcool/tirgul/core/video"
)

var (
	isTerminalFunc = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) } // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db          *sql.DB // nil for the in-memory engine
	tutorSvc    *tutor.Service
	videoSvc    *video.Service
	mailSvc     core.EmailService
	adminEmails []string
	out         io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                                    - run a goose migration command (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  addtutor -name NAME -phone PHONE -degree cs|ee -subjects 'A,B' - list a new tutor")
	fmt.Fprintln(cli.out, "  addcourse -title TITLE -video UID [-thumbnail URL]        - create a video course")
	fmt.Fprintln(cli.out, "  addepisode -course ID -title TITLE -start S -end S [-video UID] - append an episode to a course")
	fmt.Fprintln(cli.out, "  grantaccess -user ID -course ID                           - give a user access to a course")
	fmt.Fprintln(cli.out, "  listtutors -degree cs|ee                                  - print the tutors, best rated first")
	fmt.Fprintln(cli.out, "  exporttutors -degree cs|ee -out FILE.xlsx [-mail]         - export the tutors to a spreadsheet, optionally mailed to the admins")
}

func splitList(s string) []string {
	var res []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			res = append(res, item)
		}
	}
	return res
}

func parseDegree(fs *flag.FlagSet, s string) (catalog.Track, error) {
	degree, err := catalog.ParseTrack(s)
	if err != nil {
		fs.Usage()
		return "", errHelp
	}
	return degree, nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addTutorCmd := flag.NewFlagSet("addtutor", flag.ContinueOnError)
	addTutorName := addTutorCmd.String("name", "", "The tutor's name.")
	addTutorPhone := addTutorCmd.String("phone", "", "The tutor's mobile phone, e.g. 052-1234567.")
	addTutorDegree := addTutorCmd.String("degree", "", "The tutor's degree track: cs or ee.")
	addTutorSubjects := addTutorCmd.String("subjects", "", "Comma separated course names.")

	addCourseCmd := flag.NewFlagSet("addcourse", flag.ContinueOnError)
	addCourseTitle := addCourseCmd.String("title", "", "The course title.")
	addCourseVideo := addCourseCmd.String("video", "", "The UID of the course video.")
	addCourseThumbnail := addCourseCmd.String("thumbnail", "", "The thumbnail URL (optional).")

	addEpisodeCmd := flag.NewFlagSet("addepisode", flag.ContinueOnError)
	addEpisodeCourse := addEpisodeCmd.Int("course", 0, "The course ID.")
	addEpisodeTitle := addEpisodeCmd.String("title", "", "The episode title.")
	addEpisodeStart := addEpisodeCmd.Float64("start", 0, "Where the episode starts in the video, in seconds.")
	addEpisodeEnd := addEpisodeCmd.Float64("end", 0, "Where the episode ends in the video, in seconds.")
	addEpisodeVideo := addEpisodeCmd.String("video", "", "The episode video UID; defaults to the course video.")

	grantAccessCmd := flag.NewFlagSet("grantaccess", flag.ContinueOnError)
	grantAccessUser := grantAccessCmd.String("user", "", "The user ID (the identity provider's subject).")
	grantAccessCourse := grantAccessCmd.Int("course", 0, "The course ID.")

	listTutorsCmd := flag.NewFlagSet("listtutors", flag.ContinueOnError)
	listTutorsDegree := listTutorsCmd.String("degree", "", "The degree track: cs or ee.")

	exportTutorsCmd := flag.NewFlagSet("exporttutors", flag.ContinueOnError)
	exportTutorsDegree := exportTutorsCmd.String("degree", "", "The degree track: cs or ee.")
	exportTutorsOut := exportTutorsCmd.String("out", "tutors.xlsx", "The spreadsheet to write.")
	exportTutorsMail := exportTutorsCmd.Bool("mail", false, "Mail the spreadsheet to the admins.")

	for _, fs := range []*flag.FlagSet{addTutorCmd, addCourseCmd, addEpisodeCmd, grantAccessCmd, listTutorsCmd, exportTutorsCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "addtutor":
		if err := addTutorCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addTutorName == "" || *addTutorSubjects == "" {
			addTutorCmd.Usage()
			return errHelp
		}
		return cli.addTutor(tutor.NewTutor{
			Name:     *addTutorName,
			Phone:    *addTutorPhone,
			Degree:   *addTutorDegree,
			Subjects: splitList(*addTutorSubjects),
		})

	case "addcourse":
		if err := addCourseCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addCourseTitle == "" || *addCourseVideo == "" {
			addCourseCmd.Usage()
			return errHelp
		}
		return cli.addCourse(video.NewCourse{Title: *addCourseTitle, VideoUID: *addCourseVideo, ThumbnailURL: *addCourseThumbnail})

	case "addepisode":
		if err := addEpisodeCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addEpisodeCourse == 0 || *addEpisodeTitle == "" {
			addEpisodeCmd.Usage()
			return errHelp
		}
		return cli.addEpisode(video.NewEpisode{
			CourseID:  *addEpisodeCourse,
			Title:     *addEpisodeTitle,
			StartTime: *addEpisodeStart,
			EndTime:   *addEpisodeEnd,
			VideoUID:  *addEpisodeVideo,
		})

	case "grantaccess":
		if err := grantAccessCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *grantAccessUser == "" || *grantAccessCourse == 0 {
			grantAccessCmd.Usage()
			return errHelp
		}
		return cli.grantAccess(*grantAccessUser, *grantAccessCourse)

	case "listtutors":
		if err := listTutorsCmd.Parse(args[2:]); err != nil {
			return err
		}
		degree, err := parseDegree(listTutorsCmd, *listTutorsDegree)
		if err != nil {
			return err
		}
		return cli.listTutors(degree)

	case "exporttutors":
		if err := exportTutorsCmd.Parse(args[2:]); err != nil {
			return err
		}
		degree, err := parseDegree(exportTutorsCmd, *exportTutorsDegree)
		if err != nil {
			return err
		}
		return cli.exportTutors(degree, *exportTutorsOut, *exportTutorsMail)

	default:
		cli.printUsage()
		return errHelp
	}
}
