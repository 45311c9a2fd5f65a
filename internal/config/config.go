package config

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/gofrs/uuid"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config is read from the environment, optionally seeded from a .env file.
type Config struct {
	HTTPPort       string
	LogLevel       string
	LogDir         string
	StoreDriver    string
	MongoURI       string
	MongoDB        string
	SQLDSN         string
	NatsURL        string
	NatsToken      string
	JWTSecret      string
	RateLimit      int
	AllowedOrigins []string
	AdminPassword  string
	WithNine       bool
}

// Load reads .env from path if it exists and builds the config.
func Load(path string) Config {
	if err := godotenv.Load(path); err != nil {
		log.Debugf("No env file at %s, using the environment only.", path)
	} else {
		log.Infof("%s loaded.", path)
	}
	return FromEnv()
}

// FromEnv builds the config from the process environment.
func FromEnv() Config {
	return Config{
		HTTPPort:       env("HTTP_PORT", "8080"),
		LogLevel:       env("LOG_LEVEL", "info"),
		LogDir:         env("LOG_DIR", ""),
		StoreDriver:    env("STORE_DRIVER", "memory"),
		MongoURI:       env("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDB:        env("MONGODB_DATABASE", "doko3000"),
		SQLDSN:         env("SQL_DSN", "doko3000.db"),
		NatsURL:        env("NATS_URL", ""),
		NatsToken:      env("NATS_TOKEN", ""),
		JWTSecret:      env("JWT_SECRET_KEY", ""),
		RateLimit:      envInt("RATE_LIMIT", 300),
		AllowedOrigins: envList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:8080"}),
		AdminPassword:  env("ADMIN_PASSWORD", "admin"),
		WithNine:       envBool("WITH_NINE", true),
	}
}

func env(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := env(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Warnf("Invalid %s value %q, using %d.", key, v, fallback)
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := env(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warnf("Invalid %s value %q, using %t.", key, v, fallback)
		return fallback
	}
	return b
}

func envList(key string, fallback []string) []string {
	v := env(key, "")
	if v == "" {
		return fallback
	}
	var list []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}

// InstanceID identifies this process among the instances sharing a broker.
func InstanceID() string {
	id, err := uuid.NewV4()
	if err != nil {
		log.Errorf("error generating instance id: %s", err)
		return "local"
	}
	return id.String()
}

// Logging sets up logrus. With a dir the log goes to <dir>/<service>.log instead of stderr.
func Logging(service, level, dir string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.Warnf("Unknown log level %q, using info.", level)
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if dir == "" {
		return
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Warnf("unable to create folder for log %s", err)
		return
	}
	file, err := os.OpenFile(filepath.Join(dir, service+".log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.Warnf("Failed to open log file: %v", err)
		return
	}
	log.SetOutput(file)
	log.Infof("log to file started for service: %s", service)
}

func CORS(origins []string) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

// AccessLog logs one line per request.
func AccessLog() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				log.WithFields(log.Fields{
					"request_id": middleware.GetReqID(r.Context()),
					"status":     ww.Status(),
					"duration":   time.Since(start),
				}).Infof("%s %s %s", r.Method, r.RequestURI, r.RemoteAddr)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
