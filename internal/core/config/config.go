package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
}
type AdminHTTP struct {
	Host string
	Port int
}

// Limits 中间件参数（两个进程共用）
type Limits struct {
	RPS            float64
	Burst          int
	MaxConcurrency int64
	MaxBodyMB      int64
	TimeoutSec     int
}

type App struct {
	Name   string
	Env    string
	HTTP   HTTP
	Admin  AdminHTTP
	Limits Limits
}

type LogFile struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Log struct {
	Level string
	JSON  bool
	File  LogFile
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Enabled 未配置地址时重置令牌落库
func (r Redis) Enabled() bool { return strings.TrimSpace(r.Addr) != "" }

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

type CORS struct {
	AllowOrigins []string `mapstructure:"allowOrigins"`
}

type Upload struct {
	Root      string
	URLPrefix string `mapstructure:"urlPrefix"`
	MaxMB     int64  `mapstructure:"maxMB"`
}

// Report PDFFont 为 TTF 路径时 PDF 按 UTF-8 输出
type Report struct {
	PDFFont string `mapstructure:"pdfFont"`
}

type Auth struct {
	ResetTokenTTLMin int
	MaxFailedLogins  int
	LockoutMin       int
	LoginRPS         float64
	LoginBurst       int
	// ExposeResetToken 开发环境在 forgot-password 响应中直接返回令牌
	ExposeResetToken bool
}

// Seed 启动时确保存在的管理员账号
type Seed struct {
	AdminEmail     string
	AdminPassword  string
	AdminFirstName string
	AdminLastName  string
}

type Config struct {
	App    App
	Log    Log
	JWT    JWT
	DB     DB
	Redis  Redis `mapstructure:"redis"`
	CORS   CORS  `mapstructure:"cors"`
	Upload Upload
	Report Report `mapstructure:"report"`
	Auth   Auth
	Seed   Seed
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "internship-portal")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.readTimeoutSec", 5)
	v.SetDefault("app.http.writeTimeoutSec", 30)
	v.SetDefault("app.http.idleTimeoutSec", 60)
	v.SetDefault("app.admin.port", 8081)
	v.SetDefault("app.limits.rps", 200)
	v.SetDefault("app.limits.burst", 400)
	v.SetDefault("app.limits.maxConcurrency", 300)
	v.SetDefault("app.limits.maxBodyMB", 16)
	v.SetDefault("app.limits.timeoutSec", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file.filename", "logs/app.log")
	v.SetDefault("log.file.maxSizeMB", 50)
	v.SetDefault("log.file.maxBackups", 7)
	v.SetDefault("log.file.maxAgeDays", 30)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "internship-portal")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("seed.adminEmail", "")
	v.SetDefault("seed.adminPassword", "")
	v.SetDefault("jwt.accessTokenTTLMin", 120)

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "file:internship.db?_foreign_keys=on")
	v.SetDefault("db.maxOpenConns", 20)
	v.SetDefault("db.maxIdleConns", 10)
	v.SetDefault("db.connMaxLifetimeMin", 30)
	v.SetDefault("db.autoMigrate", true)
	v.SetDefault("db.logLevel", "warn")

	v.SetDefault("upload.root", "./uploads")
	v.SetDefault("upload.urlPrefix", "/uploads")
	v.SetDefault("upload.maxMB", 5)
	v.SetDefault("report.pdfFont", "")

	v.SetDefault("auth.resetTokenTTLMin", 60)
	v.SetDefault("auth.maxFailedLogins", 5)
	v.SetDefault("auth.lockoutMin", 5)
	v.SetDefault("auth.loginRPS", 1)
	v.SetDefault("auth.loginBurst", 10)
	v.SetDefault("auth.exposeResetToken", false)
}

// Read 读取配置文件 + APP_ 前缀环境变量
func Read(path string) (*Config, error) {
	v := viper.New()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return nil, fmt.Errorf("config: jwt.secret is required")
	}
	return &c, nil
}

// Load 失败直接退出（进程入口使用）
func Load(path string) *Config {
	c, err := Read(path)
	if err != nil {
		log.Fatal(err)
	}
	return c
}
