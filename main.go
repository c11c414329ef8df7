package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/DeanThompson/ginpprof"
	"github.com/Kellerman81/go_case_tables/api"
	"github.com/Kellerman81/go_case_tables/config"
	"github.com/Kellerman81/go_case_tables/database"
	"github.com/Kellerman81/go_case_tables/logger"
	"github.com/Kellerman81/go_case_tables/scheduler"
	"github.com/gin-gonic/gin"
	"github.com/recoilme/pudge"
	ginlog "github.com/toorop/gin-logrus"
)

func main() {
	cfg, err := config.LoadCfg(config.Configfile)
	if err != nil {
		logger.Log.Fatalln("Config failed:", err)
	}
	cfgGeneral := cfg.General

	logger.InitLogger(logger.LoggerConfig{
		LogLevel:     cfgGeneral.LogLevel,
		LogFile:      cfgGeneral.LogFile,
		LogFileSize:  cfgGeneral.LogFileSize,
		LogFileCount: cfgGeneral.LogFileCount,
		LogCompress:  cfgGeneral.LogCompress,
	})
	logger.Log.Infoln("Starting go_case_tables")
	logger.Log.Infoln("------------------------------")

	logger.Log.Infoln("Initialize Database")
	if err := database.InitDb(cfgGeneral.DatabasePath, cfgGeneral.DBLogLevel); err != nil {
		logger.Log.Fatalln(err)
	}
	logger.Log.Infoln("Check Database for Upgrades")
	if err := database.UpgradeDB(); err != nil {
		database.Close()
		logger.Log.Fatalln(err)
	}
	logger.Log.Infoln("Check Database for Errors")
	if str, err := database.DbQuickCheck(); err != nil || str != "ok" {
		logger.Log.Errorln("integrity check failed", str, err)
		database.Close()
		os.Exit(100)
	}

	settings, err := config.OpenSettings(cfgGeneral.SettingsPath)
	if err != nil {
		database.Close()
		logger.Log.Fatalln(err)
	}

	logger.Log.Infoln("Starting Scheduler")
	if err := scheduler.InitScheduler(cfgGeneral); err != nil {
		logger.Log.Errorln("Scheduler failed:", err)
	}

	logger.Log.Infoln("Starting API")
	if !strings.EqualFold(cfgGeneral.LogLevel, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(api.RequestID(), ginlog.Logger(logger.Log), gin.Recovery())
	api.AddRoutes(router, cfg, settings)

	if strings.EqualFold(cfgGeneral.LogLevel, "Debug") {
		ginpprof.Wrap(router)
	}

	logger.Log.Infoln("Starting API Webserver on port", cfgGeneral.WebPort)
	server := &http.Server{
		Addr:              ":" + cfgGeneral.WebPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			settings.Close()
			database.Close()
			logger.Log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Log.Infoln("receive interrupt signal")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Log.Errorln("Server Shutdown:", err)
	}

	scheduler.Stop()
	if err := settings.Close(); err != nil {
		logger.Log.Errorln("Settings Shutdown:", err)
	}
	if err := pudge.CloseAll(); err != nil {
		logger.Log.Errorln("Settings Shutdown:", err)
	}
	if err := database.Close(); err != nil {
		logger.Log.Errorln("Database Shutdown:", err)
	}

	logger.Log.Infoln("Server exiting")
}
