package main

import (
	"context"
	"time"

	"uaftools-backend/api"
	"uaftools-backend/lib/cache"
	"uaftools-backend/lib/configutil"
	"uaftools-backend/lib/resultstore"
	"uaftools-backend/lib/scrapers/attendance"
	"uaftools-backend/lib/scrapers/lms"
	"uaftools-backend/lib/serviceutil"
	"uaftools-backend/lib/sessionstore"
	"uaftools-backend/lib/telemetry"
	"uaftools-backend/services/results"
)

type Config struct {
	Port       int                `json:"port"`
	SessionDir string             `json:"session_dir"`
	Database   configutil.Database `json:"database"`
	Telemetry  telemetry.Config   `json:"telemetry"`
	Api        api.Config         `json:"api"`

	Lms struct {
		Host      string `json:"host"`
		StrictTLS bool   `json:"strict_tls"`
	} `json:"lms"`
	Attendance struct {
		BaseUrl string `json:"base_url"`
	} `json:"attendance"`
}

func main() {
	startTime := time.Now()
	ctx := serviceutil.SignalContext()

	config, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	if config.Port == 0 {
		config.Port = 8400
	}
	if config.SessionDir == "" {
		config.SessionDir = "data"
	}
	if config.Database.File == "" && config.Database.Url == "" {
		config.Database.File = "data/saved_results.db"
	}

	t, err := telemetry.Setup(ctx, "uaftools-server", config.Telemetry)
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	defer t.Shutdown(context.Background())
	telemetry.InstrumentPerfStats(ctx)

	db, err := config.Database.OpenDB()
	if err != nil {
		serviceutil.Fatal("failed to open database", err)
	}
	saved, err := resultstore.NewStore(db)
	if err != nil {
		serviceutil.Fatal("failed to apply database schema", err)
	}

	sessions, err := sessionstore.New(config.SessionDir)
	if err != nil {
		serviceutil.Fatal("failed to open session store", err)
	}

	tokenCache := cache.New()
	lmsClient, err := lms.NewClient(lms.ClientOptions{
		Host:       config.Lms.Host,
		StrictTLS:  config.Lms.StrictTLS,
		TokenCache: tokenCache,
	})
	if err != nil {
		serviceutil.Fatal("failed to create lms client", err)
	}

	var attendanceClient *attendance.Client
	if config.Attendance.BaseUrl != "" {
		attendanceClient, err = attendance.NewClient(attendance.ClientOptions{
			BaseUrl: config.Attendance.BaseUrl,
		})
		if err != nil {
			serviceutil.Fatal("failed to create attendance client", err)
		}
	}

	svc := results.NewService(lmsClient, attendanceClient, sessions, saved, results.Options{
		ResponseCache: cache.New(),
	})

	router := api.NewRouter(svc, config.Api, startTime)
	go serviceutil.StartHttpServer(config.Port, router)

	<-ctx.Done()
}
