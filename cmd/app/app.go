package main

import (
	"flag"
	"os"

	"github.com/perone/euclidesdb/internal/app"
	config "github.com/perone/euclidesdb/internal/cfg"
	"github.com/perone/euclidesdb/pkg/logger"
)

func main() {
	reportID := flag.String("report", "", "print the stored report of the given run and exit")
	recent := flag.Int("recent", 0, "print the given number of most recent stored reports and exit")
	flag.Parse()

	log := logger.NewSlogLogger()

	cfg, err := config.Load(log)
	if err != nil {
		log.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	application, err := app.NewApp(cfg, log)
	if err != nil {
		log.Errorf(err, "failed to initialize app")
		os.Exit(1)
	}

	if *reportID != "" || *recent > 0 {
		if err := application.ShowReports(os.Stdout, *reportID, *recent); err != nil {
			log.Errorf(err, "failed to show reports")
			os.Exit(1)
		}
		return
	}

	if err := application.Run(); err != nil {
		os.Exit(1)
	}
}
