package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                  string
	DatabaseDSN           string
	JWTSecret             string
	Env                   string
	AccessTokenTTLMinutes int
	RefreshTokenTTLDays   int
	// Rooms 是固定的频道列表，运行期不增删。
	Rooms []string
	// PersistTimeoutSeconds 单次落库调用的超时上限。
	PersistTimeoutSeconds int
}

const defaultRooms = "devops,cloud computing,covid19,sports,nodeJS"

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v, err := strconv.Atoi(getenv(key, ""))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// Load 读取环境变量（先尝试加载 .env）并返回配置，缺省值适用于本地开发。
func Load() Config {
	_ = godotenv.Load()
	return Config{
		Port:                  getenv("APP_PORT", "8080"),
		DatabaseDSN:           getenv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=chatapp port=5432 sslmode=disable TimeZone=UTC"),
		JWTSecret:             getenv("JWT_SECRET", "dev-secret-change-me"),
		Env:                   getenv("APP_ENV", "dev"),
		AccessTokenTTLMinutes: getenvInt("ACCESS_TOKEN_TTL_MINUTES", 15),
		RefreshTokenTTLDays:   getenvInt("REFRESH_TOKEN_TTL_DAYS", 7),
		Rooms:                 ParseRooms(getenv("CHAT_ROOMS", defaultRooms)),
		PersistTimeoutSeconds: getenvInt("PERSIST_TIMEOUT_SECONDS", 5),
	}
}

// ParseRooms 解析逗号分隔的房间列表，去掉空白项并保持原始顺序。
func ParseRooms(raw string) []string {
	parts := strings.Split(raw, ",")
	rooms := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			rooms = append(rooms, p)
		}
	}
	return rooms
}

// Validate 检查配置是否可用于当前环境。
func Validate(cfg Config) error {
	if cfg.Port == "" {
		return errors.New("port is required")
	}
	if cfg.DatabaseDSN == "" {
		return errors.New("database dsn is required")
	}
	if cfg.Env != "dev" && cfg.JWTSecret == "dev-secret-change-me" {
		return errors.New("default jwt secret is not allowed outside dev")
	}
	if len(cfg.Rooms) == 0 {
		return errors.New("at least one chat room is required")
	}
	return nil
}
