package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode
	HTTPAddr string

	DBDriver string // sqlite|postgres|memory
	DBDSN    string

	// Allow-list: inline newline-delimited value wins over the file.
	AllowList     string
	AllowListFile string

	TimeZone string
	Locale   string

	CORSOriginsOnline  []string
	CORSOriginsOffline []string

	DedupCacheTTL time.Duration
	DedupScanRows int
	DedupWindow   time.Duration
	LockWait      time.Duration

	OverlayCols int
	OverlayRows int
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	return Config{
		Mode:     mode,
		HTTPAddr: envOr("HTTP_ADDR", ":8080"),

		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),

		AllowList:     os.Getenv("USER_ALLOW_LIST"),
		AllowListFile: os.Getenv("USER_ALLOW_LIST_FILE"),

		TimeZone: envOr("TIME_ZONE", "Asia/Tokyo"),
		Locale:   envOr("LOCALE", "ja"),

		CORSOriginsOnline:  csvOr("CORS_ORIGINS_ONLINE", "https://drill.example.com"),
		CORSOriginsOffline: csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000"),

		DedupCacheTTL: envDur("DEDUP_CACHE_TTL", 2*time.Second),
		DedupScanRows: envInt("DEDUP_SCAN_ROWS", 200),
		DedupWindow:   envDur("DEDUP_WINDOW", 5000*time.Millisecond),
		LockWait:      envDur("LOCK_WAIT", 5*time.Second),

		OverlayCols: envInt("OVERLAY_COLS", 16),
		OverlayRows: envInt("OVERLAY_ROWS", 15),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envDur(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
