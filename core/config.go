package core

import (
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EngineSQLite   = "sqlite"
	EnginePostgres = "postgres"
)

type (
	Config struct {
		Debug        bool
		TestMode     bool
		Env          string
		Build        string
		AppName      string
		SecretKey    string
		RollbarToken string

		Server    ServerConfig
		Database  DatabaseConfig
		Log       LogConfig
		Bootstrap BootstrapConfig
		Matricule MatriculeConfig
		Grading   GradingConfig
		Requests  RequestsConfig
	}

	ServerConfig struct {
		Address         string
		DebugAddress    string
		Host            string
		ShutdownTimeout time.Duration
	}

	DatabaseConfig struct {
		Engine string
		// sqlite
		Path string
		// postgres
		Host       string
		Port       string
		User       string
		Password   string
		Name       string
		DisableTLS bool
	}

	LogConfig struct {
		Level  string
		Format string // console | json
	}

	// BootstrapConfig seeds the first administrator account.
	// Nothing is created while AdminPassword is empty.
	BootstrapConfig struct {
		AdminMatricule string
		AdminName      string
		AdminPassword  string
	}

	MatriculeConfig struct {
		Prefix string
	}

	GradingConfig struct {
		// AllowNonPositiveCoefficient lets a subject carry a coefficient <= 0,
		// which effectively excludes it from averages.
		AllowNonPositiveCoefficient bool
	}

	RequestsConfig struct {
		// EnforceOwnership restricts correction requests to the grade's own student.
		EnforceOwnership bool
	}
)

func (dbc DatabaseConfig) Address() string {
	return net.JoinHostPort(dbc.Host, dbc.Port)
}

// NewConfig reads the configuration from defaults, an optional `config/.env.<env>` file and the environment.
// Environment variables are prefixed by the upper-cased env name, eg: `DEV_DATABASE_PATH`.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Scolarite")
	v.SetDefault("secretKey", "")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugAddress", ":4000")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)

	v.SetDefault("database.engine", EngineSQLite)
	v.SetDefault("database.path", "scolarite.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "scolarite")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "scolarite")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("bootstrap.adminMatricule", "ADM01")
	v.SetDefault("bootstrap.adminName", "Direction")
	v.SetDefault("bootstrap.adminPassword", "")

	v.SetDefault("matricule.prefix", "24G")
	v.SetDefault("grading.allowNonPositiveCoefficient", true)
	v.SetDefault("requests.enforceOwnership", true)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		Env:          env,
		Build:        v.GetString("build"),
		AppName:      v.GetString("appName"),
		SecretKey:    v.GetString("secretKey"),
		RollbarToken: v.GetString("rollbarToken"),
		Server: ServerConfig{
			Address:         v.GetString("server.address"),
			DebugAddress:    v.GetString("server.debugAddress"),
			Host:            v.GetString("server.host"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
		},
		Database: DatabaseConfig{
			Engine:     v.GetString("database.engine"),
			Path:       v.GetString("database.path"),
			Host:       v.GetString("database.host"),
			Port:       v.GetString("database.port"),
			User:       v.GetString("database.user"),
			Password:   v.GetString("database.password"),
			Name:       v.GetString("database.name"),
			DisableTLS: v.GetBool("database.disableTLS"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Bootstrap: BootstrapConfig{
			AdminMatricule: CleanString(v.GetString("bootstrap.adminMatricule")),
			AdminName:      CleanString(v.GetString("bootstrap.adminName")),
			AdminPassword:  v.GetString("bootstrap.adminPassword"),
		},
		Matricule: MatriculeConfig{
			Prefix: CleanString(v.GetString("matricule.prefix")),
		},
		Grading: GradingConfig{
			AllowNonPositiveCoefficient: v.GetBool("grading.allowNonPositiveCoefficient"),
		},
		Requests: RequestsConfig{
			EnforceOwnership: v.GetBool("requests.enforceOwnership"),
		},
	}
}

// String hides secrets; handy for startup logs.
func (c *Config) String() string {
	return fmt.Sprintf("env=%s build=%s debug=%t db=%s", c.Env, c.Build, c.Debug, c.Database.Engine)
}
