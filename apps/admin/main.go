package main

import (
	"context"
	"fmt"
	"os"

	"github.com/trezcool/convocatorias/core"
	"github.com/trezcool/convocatorias/core/report"
	logsvc "github.com/trezcool/convocatorias/services/logger"
	pdfsvc "github.com/trezcool/convocatorias/services/pdf"
	"github.com/trezcool/convocatorias/storage/database"
	sqlxrepos "github.com/trezcool/convocatorias/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(os.Stdout, "ADMIN", conf)
	logger.Enable(!conf.Debug)

	// set up DB
	ctx := context.Background()
	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	reportRepo := sqlxrepos.NewReportRepository(db)
	renderer, err := report.NewRenderer(
		reportRepo, pdfsvc.New, logger,
		report.WithTitle(conf.Report.Title),
		report.WithAuthor(conf.AppName),
		report.WithLocation(conf.Location()),
	)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up report renderer: %v", err), err)
	}

	// start CLI
	cli := commandLine{
		logger:   logger,
		db:       db,
		usrRepo:  sqlxrepos.NewUserRepository(db),
		seeder:   sqlxrepos.NewSeeder(db),
		renderer: renderer,
		out:      os.Stdout,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err), err)
		}
		os.Exit(1)
	}
}
