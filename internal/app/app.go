package app

import (
	"context"

	"roomledger/config"
	"roomledger/internal/controllers"
	"roomledger/internal/database"
	"roomledger/internal/handlers/middleware"
	"roomledger/internal/jobs"
	"roomledger/internal/logger"
	"roomledger/internal/repositories"
	"roomledger/internal/services"
)

type App struct {
	Database    database.DB
	Config      config.Config
	Middleware  middleware.Middleware
	Services    services.Service
	Repos       repositories.Repository
	Controllers controllers.Controllers
}

func New() (*App, error) {
	log := logger.New("app").Function("New")

	config, err := config.InitConfig()
	if err != nil {
		return &App{}, log.Err("failed to initialize config", err)
	}

	db, err := database.New(config)
	if err != nil {
		return &App{}, log.Err("failed to create database", err)
	}

	repos := repositories.New(db)

	appServices, err := services.New(db, config)
	if err != nil {
		return &App{}, log.Err("failed to create services", err)
	}

	appMiddleware := middleware.New(db, config)
	appControllers := controllers.New(appServices, repos, config, db)

	if config.SchedulerEnabled {
		if err := jobs.RegisterAllJobs(appServices.Scheduler, config, appServices, repos); err != nil {
			return &App{}, log.Err("failed to register jobs", err)
		}
		if err := appServices.Scheduler.Start(context.Background()); err != nil {
			return &App{}, log.Err("failed to start scheduler", err)
		}
	}

	return &App{
		Database:    db,
		Config:      config,
		Middleware:  appMiddleware,
		Services:    appServices,
		Repos:       repos,
		Controllers: appControllers,
	}, nil
}

func (app *App) Close() error {
	log := logger.New("app").Function("Close")

	if app.Services.Scheduler != nil && app.Services.Scheduler.IsRunning() {
		if err := app.Services.Scheduler.Stop(context.Background()); err != nil {
			log.Er("failed to stop scheduler", err)
		}
	}

	if err := app.Database.Close(); err != nil {
		return log.Err("failed to close database", err)
	}

	return nil
}
