package main

import (
	"context"

	"github.com/webappapi/socialboard/config"
	"github.com/webappapi/socialboard/models"
	"github.com/webappapi/socialboard/routes"
	"github.com/webappapi/socialboard/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	db, err := config.OpenDatabase(cfg, models.All()...)
	if err != nil {
		utils.Sugar.Fatalf("open database: %v", err)
	}
	hooks := []utils.ShutdownHook{
		func(context.Context) error { return config.CloseDatabase(db) },
	}

	rdb := utils.NewRedisClient(cfg)
	if rdb != nil {
		hooks = append(hooks, func(context.Context) error { return rdb.Close() })
	}

	r := routes.SetupRouter(routes.Deps{Config: cfg, DB: db, Redis: rdb})

	utils.Sugar.Infof("Starting server on port %s (graceful), db driver %s", cfg.AppPort, cfg.DBDriver)
	if err := utils.GraceServer(":"+cfg.AppPort, r, hooks...); err != nil {
		utils.Sugar.Errorf("server stopped with error: %v", err)
		_ = config.CloseDatabase(db)
		return
	}
	utils.Sugar.Info("server exited")
}
