// Package app 两个进程共用的装配：日志、数据库、仓储、服务与路由模块
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"internship-portal/internal/core/auth"
	"internship-portal/internal/core/cache"
	"internship-portal/internal/core/config"
	"internship-portal/internal/core/database"
	"internship-portal/internal/core/logger"
	"internship-portal/internal/core/report"
	"internship-portal/internal/core/storage"
	"internship-portal/internal/domain"
	"internship-portal/internal/repo"
	"internship-portal/internal/service"
	"internship-portal/internal/transport/http/handler"
	mdw "internship-portal/internal/transport/http/middleware"
	"internship-portal/internal/transport/http/router"
)

type App struct {
	Cfg *config.Config
	Log *zap.Logger
	DB  *gorm.DB
	JWT *auth.JWTer

	Files      *storage.FileStore
	Identity   *service.IdentityService
	Profiles   *service.ProfileService
	Posting    *service.PostingService
	Interviews *service.InterviewService
	Messages   *service.MessageService
	Admin      *service.AdminService

	closers []func()
}

// NewLogger 按配置决定是否写文件（管理端日志页读取该文件）
func NewLogger(cfg *config.Config) (*zap.Logger, func()) {
	if cfg.Log.File.Enable {
		f := cfg.Log.File
		return logger.NewWithRotate(cfg.Log.Level, cfg.Log.JSON, f.Filename, f.MaxSizeMB, f.MaxBackups, f.MaxAgeDays, f.Compress)
	}
	return logger.New(cfg.Log.Level, cfg.Log.JSON)
}

// New 装配全部依赖；失败时已打开的资源会被释放
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (a *App, err error) {
	a = &App{Cfg: cfg, Log: log}
	defer func() {
		if err != nil {
			a.Close()
			a = nil
		}
	}()

	// std log / gin 输出统一走 zap
	a.closers = append(a.closers, logger.RedirectStdLog(log, zapcore.InfoLevel))
	gin.DefaultWriter = logger.ToWriter(log, zapcore.DebugLevel)
	gin.DefaultErrorWriter = logger.ToWriter(log, zapcore.ErrorLevel)
	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if a.DB, err = openDB(cfg, log); err != nil {
		return a, err
	}
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))
	if cfg.DB.AutoMigrate {
		if err = database.Migrate(a.DB, domain.Models()...); err != nil {
			return a, fmt.Errorf("automigrate: %w", err)
		}
		log.Info("automigrate done")
	}

	a.JWT = auth.NewJWTer(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.AccessTokenTTLMin)*time.Minute)

	tokens, err := a.resetTokenStore(ctx)
	if err != nil {
		return a, err
	}

	users := repo.NewUserRepo(a.DB)
	profiles := repo.NewProfileRepo(a.DB)
	posts := repo.NewPostRepo(a.DB)
	apps := repo.NewApplicationRepo(a.DB)
	interviews := repo.NewInterviewRepo(a.DB)
	messages := repo.NewMessageRepo(a.DB)

	osFs := afero.NewOsFs()
	a.Files = storage.NewFileStore(osFs, cfg.Upload.Root, cfg.Upload.URLPrefix, cfg.Upload.MaxMB<<20)
	if err = report.UseUTF8Font(osFs, cfg.Report.PDFFont); err != nil {
		return a, err
	}

	a.Identity = service.NewIdentityService(users, tokens, service.IdentityOptions{
		ResetTTL:        time.Duration(cfg.Auth.ResetTokenTTLMin) * time.Minute,
		MaxFailedLogins: cfg.Auth.MaxFailedLogins,
		LockoutFor:      time.Duration(cfg.Auth.LockoutMin) * time.Minute,
	}, log)
	a.Profiles = service.NewProfileService(profiles, a.Files, log)
	a.Posting = service.NewPostingService(posts, apps, profiles, messages, log)
	a.Interviews = service.NewInterviewService(interviews, profiles, posts, log)
	a.Messages = service.NewMessageService(messages, users, log)

	logs := service.LogSource{}
	if cfg.Log.File.Enable {
		logs = service.LogSource{Fs: osFs, Path: cfg.Log.File.Filename}
	}
	a.Admin = service.NewAdminService(users, posts, apps, a.Identity, a.Posting, logs, log)

	s := cfg.Seed
	if err = a.Identity.SeedAdmin(ctx, s.AdminEmail, s.AdminPassword, s.AdminFirstName, s.AdminLastName); err != nil {
		return a, fmt.Errorf("seed admin: %w", err)
	}
	return a, nil
}

func openDB(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	std, err := logger.ToStdLogger(log.Named("gorm"), zapcore.WarnLevel)
	if err != nil {
		return nil, err
	}
	return database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
		Logger:             std,
	})
}

// resetTokenStore 配置了 redis 用 redis，否则落库
func (a *App) resetTokenStore(ctx context.Context) (domain.ResetTokenStore, error) {
	rc := a.Cfg.Redis
	if !rc.Enabled() {
		return repo.NewResetTokenRepo(a.DB), nil
	}
	c := cache.New(rc.Addr, rc.Password, rc.DB)
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.Ping(pctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	a.closers = append(a.closers, func() { _ = c.Close() })
	a.Log.Info("reset tokens stored in redis", zap.String("addr", rc.Addr))
	return cache.NewResetTokens(c), nil
}

func (a *App) gate() handler.Gate { return handler.Gate{JWT: a.JWT, Roles: a.Identity} }

func (a *App) routerOptions() router.Options {
	return router.Options{
		Log:          a.Log,
		Limits:       a.Cfg.App.Limits,
		AllowOrigins: a.Cfg.CORS.AllowOrigins,
	}
}

// APIEngine 用户端 /api/v1
func (a *App) APIEngine() *gin.Engine {
	g := a.gate()
	var loginLimit gin.HandlerFunc
	if a.Cfg.Auth.LoginRPS > 0 {
		loginLimit = mdw.RateLimitPerIP(rate.Limit(a.Cfg.Auth.LoginRPS), max(1, a.Cfg.Auth.LoginBurst))
	}
	reg := router.NewRegistry(
		&handler.AuthModule{Gate: g, Identity: a.Identity, Log: a.Log, LoginLimit: loginLimit, ExposeResetToken: a.Cfg.Auth.ExposeResetToken},
		&handler.HomeModule{Gate: g, Posting: a.Posting, Admin: a.Admin, Log: a.Log},
		&handler.InternModule{Gate: g, Profiles: a.Profiles, Posting: a.Posting, Interviews: a.Interviews, Log: a.Log},
		&handler.EmployerModule{Gate: g, Profiles: a.Profiles, Posting: a.Posting, Interviews: a.Interviews, Log: a.Log},
		&handler.MessageModule{Gate: g, Messages: a.Messages, Log: a.Log},
	)
	o := a.routerOptions()
	o.Uploads, o.UploadPrefix = a.Files.Fs(), a.Files.URLPrefix()
	return router.NewAPIEngine(o, reg)
}

// AdminEngine 管理端 /admin/v1，整组要求 Admin
func (a *App) AdminEngine() *gin.Engine {
	reg := router.NewRegistry(&handler.AdminModule{Admin: a.Admin, Log: a.Log})
	return router.NewAdminEngine(a.routerOptions(), a.gate().Require(domain.RoleAdmin), reg)
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
