package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"
	"github.com/segmentio/encoding/json"
	"github.com/shishobooks/bookmend/pkg/config"
	"github.com/shishobooks/bookmend/pkg/database"
	"github.com/shishobooks/bookmend/pkg/epub"
	"github.com/shishobooks/bookmend/pkg/reconcile"
	"github.com/shishobooks/bookmend/pkg/report"
	"github.com/shishobooks/bookmend/pkg/version"
	"github.com/shishobooks/bookmend/pkg/worker"
	"github.com/urfave/cli/v2"
)

func main() {
	log := logger.New()

	app := &cli.App{
		Name:        "bookmend",
		Usage:       "fix book metadata in the reader's library database",
		Description: "Re-reads the package document of every EPUB on the device and corrects authors, sorting, genres and series in explorer-3.db.",
		Commands: []*cli.Command{
			{
				Name:  "fix",
				Usage: "run a fix pass over the library database",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "dry-run", Usage: "report what would change without writing anything"},
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "skip the confirmation"},
				},
				Action: fix,
			},
			{
				Name:      "inspect",
				Usage:     "print what bookmend extracts from one EPUB file",
				ArgsUsage: "<file.epub>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "print JSON"},
				},
				Action: inspect,
			},
			{
				Name:  "version",
				Usage: "print the version",
				Action: func(_ *cli.Context) error {
					fmt.Println(version.Version)
					return nil
				},
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Err(err).Fatal("app run error")
	}
}

func fix(c *cli.Context) error {
	log := logger.New()
	ctx, cancel := context.WithCancel(log.WithContext(c.Context))
	defer cancel()

	graceful := signals.Setup()
	go func() {
		<-graceful
		log.Info("interrupted, rolling back")
		cancel()
	}()

	cfg, err := config.New()
	if err != nil {
		return errors.Wrap(err, "config error")
	}
	if c.Bool("dry-run") {
		cfg.DryRun = true
	}
	log.Info("starting bookmend", logger.Data{"version": version.Version, "config": cfg.String()})

	var notifier report.Notifier = report.NewConsole(os.Stdin, os.Stdout)
	dialog := cfg.DialogEnabled()
	if dialog {
		notifier = report.NewDialog(cfg.DialogPath)
	}

	if !c.Bool("yes") {
		ok, err := notifier.Confirm(ctx, report.IntroText)
		if err != nil {
			return err
		}
		if !ok {
			log.Info("cancelled")
			return nil
		}
	}

	db, err := database.New(cfg)
	if err != nil {
		return errors.Wrap(err, "database error")
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Err(err).Error("database close error")
		}
	}()

	res, err := worker.New(cfg, db).ProcessFixPass(ctx)
	if err != nil {
		if dialog {
			if notifyErr := notifier.Notify(ctx, report.IconError, "Fixing the database failed, nothing was changed.\n\n"+err.Error()); notifyErr != nil {
				log.Err(notifyErr).Error("dialog error")
			}
		}
		return err
	}

	if dialog {
		return notifier.Notify(ctx, report.IconInfo, report.Message(res))
	}
	return report.Write(os.Stdout, cfg.ReportFormat, res)
}

type inspection struct {
	Path        string        `json:"path"`
	Dialect     string        `json:"dialect"`
	Authors     []epub.Author `json:"authors"`
	Genre       string        `json:"genre"`
	Series      epub.Series   `json:"series"`
	FirstAuthor string        `json:"firstauthor"`
	Author      string        `json:"author"`
	FirstLetter string        `json:"first_author_letter"`
}

func inspect(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.ShowCommandHelp(c, "inspect")
	}
	path := c.Args().First()

	md, err := epub.Parse(path)
	if err != nil {
		return err
	}

	candidateSort := reconcile.CandidateSort(md.Authors)
	in := inspection{
		Path:        path,
		Dialect:     md.Dialect.String(),
		Authors:     md.Authors,
		Genre:       md.Genre,
		Series:      md.Series,
		FirstAuthor: candidateSort,
		Author:      reconcile.CandidateDisplay(md.Authors),
		FirstLetter: reconcile.FirstLetter(candidateSort),
	}

	if c.Bool("json") {
		data, err := json.MarshalIndent(in, "", "  ")
		if err != nil {
			return errors.WithStack(err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Path: %s\nDialect: %s\n", in.Path, in.Dialect)
	for _, a := range in.Authors {
		fmt.Printf("Author: %s (sort: %q)\n", a.Name, a.SortKey)
	}
	fmt.Printf("Genre: %s\nSeries: %s #%d\n", in.Genre, in.Series.Name, in.Series.Index)
	fmt.Printf("Stored as: firstauthor=%q author=%q first_author_letter=%q\n", in.FirstAuthor, in.Author, in.FirstLetter)
	return nil
}
