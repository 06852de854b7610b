package main

import (
	"context"
	"fmt"

	"github.com/trezcool/tirgul/core/video"
)

func (cli *commandLine) addCourse(nc video.NewCourse) error {
	c, err := cli.videoSvc.CreateCourse(context.Background(), nc)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "course %q created with ID %d\n", c.Title, c.ID)
	return nil
}

func (cli *commandLine) addEpisode(ne video.NewEpisode) error {
	ep, err := cli.videoSvc.AddEpisode(context.Background(), ne)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "episode %d %q added to course %d [%gs, %gs)\n", ep.Index, ep.Title, ep.CourseID, ep.StartTime, ep.EndTime)
	return nil
}

func (cli *commandLine) grantAccess(userID string, courseID int) error {
	if err := cli.videoSvc.GrantAccess(context.Background(), userID, courseID); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "user %s can now watch course %d\n", userID, courseID)
	return nil
}
