package app

import (
	"database/sql"
	"path/filepath"

	"go-leave/internal/authority"
	"go-leave/internal/authority/infra"
	"go-leave/internal/directory"
	"go-leave/internal/leavebalance"
	"go-leave/internal/leavepolicy"
	"go-leave/internal/leaverequest"
	"go-leave/internal/messaging/kafka"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	// --- Repositories ---
	authorityRepo := authority.NewRepository(gormDB)
	directoryRepo := directory.NewRepository(gormDB)
	policyRepo := leavepolicy.NewRepository(gormDB)
	balanceRepo := leavebalance.NewRepository(gormDB)
	requestRepo := leaverequest.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- Authority Core ---
	enforcer, err := infra.NewEnforcer(filepath.Join("internal", "authority", "infra", "model.conf"))
	if err != nil {
		return err
	}
	authorityService := authority.NewService(authorityRepo, enforcer)

	// --- Services ---
	policyResolver := leavepolicy.NewResolver(policyRepo, directoryRepo)
	policyService := leavepolicy.NewService(db, policyRepo)
	balanceStore := leavebalance.NewStore(balanceRepo, policyResolver)
	balanceService := leavebalance.NewServiceWithOutbox(db, balanceStore, outboxRepo)
	requestService := leaverequest.NewService(db, requestRepo, balanceStore, authorityService, outboxRepo)

	// --- Handlers ---
	policyHandler := leavepolicy.NewHandler(policyService)
	balanceHandler := leavebalance.NewHandler(balanceService, authorityService)
	requestHandler := leaverequest.NewHandler(requestService, authorityService)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		leavepolicy.RegisterRoutes(api, policyHandler, authorityService)
		leavebalance.RegisterRoutes(api, balanceHandler, authorityService)
		leaverequest.RegisterRoutes(api, requestHandler, rdb)
	}

	return nil
}
