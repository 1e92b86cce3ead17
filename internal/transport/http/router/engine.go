package router

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"internship-portal/internal/core/config"
	"internship-portal/internal/core/server"
	mdw "internship-portal/internal/transport/http/middleware"
)

// Options 两个引擎共用
type Options struct {
	Log          *zap.Logger
	Limits       config.Limits
	AllowOrigins []string
	// Uploads 非空时以 UploadPrefix 挂载静态文件
	Uploads      afero.Fs
	UploadPrefix string
}

func limitsWithDefaults(l config.Limits) config.Limits {
	if l.RPS <= 0 {
		l.RPS = 200
	}
	if l.Burst <= 0 {
		l.Burst = 400
	}
	if l.MaxConcurrency <= 0 {
		l.MaxConcurrency = 300
	}
	if l.MaxBodyMB <= 0 {
		l.MaxBodyMB = 16
	}
	if l.TimeoutSec <= 0 {
		l.TimeoutSec = 10
	}
	return l
}

func newEngine(o Options) *gin.Engine {
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	lim := limitsWithDefaults(o.Limits)

	r := server.NewRouter(server.Options{AllowOrigins: o.AllowOrigins})
	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(rate.Limit(lim.RPS), lim.Burst),
		mdw.ConcurrencyLimit(lim.MaxConcurrency),
		mdw.MaxBodyBytes(lim.MaxBodyMB<<20),
		mdw.Timeout(time.Duration(lim.TimeoutSec)*time.Second),
		mdw.Recovery(o.Log),
		mdw.Metrics(),
		mdw.AccessLog(o.Log, "/health", "/metrics"),
	)

	// 健康检查
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

func NewAPIEngine(o Options, reg *Registry) *gin.Engine {
	r := newEngine(o)

	if o.Uploads != nil {
		prefix := o.UploadPrefix
		if prefix == "" {
			prefix = "/uploads"
		}
		r.StaticFS(prefix, filesOnly{afero.NewHttpFs(o.Uploads)})
	}

	// 前缀
	api := r.Group("/api/v1")
	reg.MountAllAPI(api)
	return r
}

// NewAdminEngine gate 一般为 AuthJWT(Admin)，作用于整个 /admin/v1
func NewAdminEngine(o Options, gate gin.HandlerFunc, reg *Registry) *gin.Engine {
	r := newEngine(o)

	admin := r.Group("/admin/v1")
	if gate != nil {
		admin.Use(gate)
	}
	reg.MountAllAdmin(admin)
	return r
}

// filesOnly 静态目录不列目录
type filesOnly struct{ fs http.FileSystem }

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	st, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	if st.IsDir() {
		_ = file.Close()
		return nil, os.ErrNotExist
	}
	return file, nil
}
