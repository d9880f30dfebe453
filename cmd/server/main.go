package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/campuslink/campuslink-api/internal/app/controllers"
	"github.com/campuslink/campuslink-api/internal/app/repositories"
	"github.com/campuslink/campuslink-api/internal/app/services"
	"github.com/campuslink/campuslink-api/internal/config"
	"github.com/campuslink/campuslink-api/internal/platform/database"
	httpPlatform "github.com/campuslink/campuslink-api/internal/platform/http"
	"github.com/campuslink/campuslink-api/pkg/audit"
	"github.com/campuslink/campuslink-api/pkg/logger"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := config.MustLoad()
	loggers := logger.New(cfg.LogLevel)

	log.Printf("configuration: driver=%s env=%s", cfg.DBDriver, cfg.Env)

	var (
		resourceRepo   repositories.ResourceRepository
		membershipRepo repositories.MembershipRepository
		dbClose        func() error
	)

	switch cfg.DBDriver {
	case "postgres":
		log.Printf("initializing postgres repositories")
		db, err := database.Open(cfg.DatabaseDSN)
		if err != nil {
			log.Fatalf("database connection error: %v", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			log.Fatalf("database handle retrieval error: %v", err)
		}
		dbClose = sqlDB.Close

		resourceRepo, err = repositories.NewGormResourceRepo(db)
		if err != nil {
			log.Fatalf("resource repository initialization error: %v", err)
		}
		membershipRepo, err = repositories.NewPostgresMembershipRepo(sqlDB)
		if err != nil {
			log.Fatalf("membership repository initialization error: %v", err)
		}
	default:
		log.Printf("initializing in-memory repositories")
		resourceRepo = repositories.NewInMemoryResourceRepo()
		membershipRepo = repositories.NewInMemoryMembershipRepo()
	}

	if dbClose != nil {
		defer func() {
			if err := dbClose(); err != nil {
				log.Printf("error closing database: %v", err)
			}
		}()
	}

	trail, err := audit.Open(cfg.AuditDBPath, logger.Sub(loggers.App, "audit"))
	if err != nil {
		log.Fatalf("audit store initialization error: %v", err)
	}
	if trail.Enabled() {
		log.Printf("audit trail enabled path=%s", cfg.AuditDBPath)
		defer trail.Close()
	}

	resourceSvc := services.NewResourceService(resourceRepo, logger.Sub(loggers.App, "resources"))
	requestSvc := services.NewRequestService(resourceRepo, membershipRepo, trail, logger.Sub(loggers.App, "requests"))
	approvalSvc := services.NewApprovalService(resourceRepo, membershipRepo, trail, logger.Sub(loggers.App, "approvals"))
	viewSvc := services.NewMembershipViewService(resourceRepo, membershipRepo)

	resourceCtrl := controllers.NewResourceController(resourceSvc)
	membershipCtrl := controllers.NewMembershipController(requestSvc, approvalSvc, viewSvc)

	var auditCtrl *controllers.AuditController
	if trail.Enabled() {
		auditCtrl = controllers.NewAuditController(trail)
	}

	router := httpPlatform.NewRouter(httpPlatform.RouterConfig{
		ResourceCtrl:   resourceCtrl,
		MembershipCtrl: membershipCtrl,
		AuditCtrl:      auditCtrl,
		Logger:         loggers.HTTP,
		DocsEnable:     cfg.DocsEnable,
		MasterToken:    cfg.MasterToken,
	})

	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: router}
	go func() {
		log.Printf("HTTP server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down...")
	_ = srv.Shutdown(context.Background())
}
