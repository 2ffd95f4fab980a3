package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage engines
const (
	StorageFile     = "file"
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type (
	Config struct {
		Env              string
		AppName          string
		Build            string
		Debug            bool
		TestMode         bool
		WorkDir          string
		RollbarToken     string
		SendgridApiKey   string
		defaultFromEmail string

		Storage  StorageConfig
		Database DatabaseConfig
		Log      LogConfig
		Server   ServerConfig
	}

	StorageConfig struct {
		Engine string
		Dir    string
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		MigrationsDir string
	}

	LogConfig struct {
		Dir        string
		MaxSizeMB  int
		MaxBackups int
		MaxAgeDays int
	}

	ServerConfig struct {
		Address         string
		ShutdownTimeout time.Duration
	}
)

func (db DatabaseConfig) Address() string {
	return net.JoinHostPort(db.Host, db.Port)
}

// DefaultFromEmail parses the configured sender; an invalid value falls back to a bare address.
func (conf *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(conf.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: conf.AppName, Address: conf.defaultFromEmail}
	}
	return *addr
}

// NewConfig reads the configuration from defaults, the optional `config/.env.<env>` file and
// the environment (variables are prefixed with the env name, eg. DEV_STORAGE_DIR).
func NewConfig() *Config {
	v := viper.New()

	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("config.os.Getwd(): %v", err)
	}

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "École")
	v.SetDefault("build", "dev")
	v.SetDefault("workDir", wd)
	v.SetDefault("defaultFromEmail", "École <noreply@localhost>")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("storage.engine", StorageFile)
	v.SetDefault("storage.dir", filepath.Join(wd, "data"))
	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "ecole")
	v.SetDefault("database.user", "ecole")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.migrationsDir", filepath.Join(wd, "storage", "database", "migrations"))
	v.SetDefault("log.dir", filepath.Join(wd, "logs"))
	v.SetDefault("log.maxSizeMB", 100)
	v.SetDefault("log.maxBackups", 3)
	v.SetDefault("log.maxAgeDays", 28)
	v.SetDefault("server.address", "127.0.0.1:8080")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:              env,
		AppName:          v.GetString("appName"),
		Build:            v.GetString("build"),
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		WorkDir:          v.GetString("workDir"),
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		defaultFromEmail: v.GetString("defaultFromEmail"),
		Storage: StorageConfig{
			Engine: strings.ToLower(v.GetString("storage.engine")),
			Dir:    v.GetString("storage.dir"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
			MigrationsDir: v.GetString("database.migrationsDir"),
		},
		Log: LogConfig{
			Dir:        v.GetString("log.dir"),
			MaxSizeMB:  v.GetInt("log.maxSizeMB"),
			MaxBackups: v.GetInt("log.maxBackups"),
			MaxAgeDays: v.GetInt("log.maxAgeDays"),
		},
		Server: ServerConfig{
			Address:         v.GetString("server.address"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
		},
	}
}
