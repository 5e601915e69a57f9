// Package config loads and holds all server configuration.
// Settings are layered: defaults → morphd-config.json → environment
// variables (env vars win).
package config

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
)

// Config holds the full server configuration.
type Config struct {
	ServePort      int    `json:"servePort"`
	ManagementPort int    `json:"managementPort"`
	BindAddress    string `json:"bindAddress"`
	LogLevel       string `json:"logLevel"`

	ManagementToken string `json:"managementToken"`

	// DocumentRoot is loaded but not read by the host; the filesystem
	// directory served and morphed is RootTemplate, which may contain "$http_host", substituted per-request so
	// one process can serve several virtual hosts from sibling
	// directories — the same convention the alias length below assumes.
	DocumentRoot string `json:"documentRoot"`
	RootTemplate string `json:"rootTemplate"`
	AliasLength  int    `json:"aliasLength"`

	// Probabilistic selects sampling from DistHTMLSize/DistObjSize/
	// DistObjNum; false selects the deterministic obj_num/obj_size grid.
	Probabilistic   bool   `json:"probabilistic"`
	DistHTMLSize    string `json:"distHtmlSize"`
	DistObjSize     string `json:"distObjSize"`
	DistObjNum      string `json:"distObjNum"`
	UseTotalObjSize bool   `json:"useTotalObjSize"`

	ObjNum     int `json:"objNum"`
	ObjSize    int `json:"objSize"`
	MaxObjSize int `json:"maxObjSize"`

	InliningEnabled bool `json:"inliningEnabled"`

	// DistCacheFile is the bbolt-backed parsed-.dist-file cache path;
	// empty means in-memory only (no on-disk persistence across restarts).
	DistCacheFile string `json:"distCacheFile"`
}

// Load returns config with defaults overridden by morphd-config.json and
// env vars.
func Load() *Config {
	cfg := defaults()
	loadFile(cfg, "morphd-config.json")
	loadEnv(cfg)
	return cfg
}

func defaults() *Config {
	return &Config{
		ServePort:       8080,
		ManagementPort:  8081,
		BindAddress:     "127.0.0.1",
		LogLevel:        "info",
		DocumentRoot:    "./www",
		RootTemplate:    "./www/$http_host",
		AliasLength:     0,
		Probabilistic:   false,
		UseTotalObjSize: false,
		ObjNum:          4,
		ObjSize:         1024,
		MaxObjSize:      4096,
		InliningEnabled: false,
		DistCacheFile:   "dist-cache.db",
	}
}

func loadFile(cfg *Config, path string) {
	data, err := os.ReadFile(path) //nolint:gosec // controlled config file path, not user input
	if err != nil {
		return // file is optional
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		log.Printf("[CONFIG] Warning: could not parse %s: %v", path, err)
	} else {
		log.Printf("[CONFIG] Loaded %s", path)
	}
}

func loadEnv(cfg *Config) {
	if v := os.Getenv("SERVE_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ServePort = n
		}
	}
	if v := os.Getenv("MANAGEMENT_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ManagementPort = n
		}
	}
	if v := os.Getenv("BIND_ADDRESS"); v != "" {
		cfg.BindAddress = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("MANAGEMENT_TOKEN"); v != "" {
		cfg.ManagementToken = v
	}
	if v := os.Getenv("DOCUMENT_ROOT"); v != "" {
		cfg.DocumentRoot = v
	}
	if v := os.Getenv("ROOT_TEMPLATE"); v != "" {
		cfg.RootTemplate = v
	}
	if v := os.Getenv("ALIAS_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.AliasLength = n
		}
	}
	if v := os.Getenv("PROBABILISTIC"); v != "" {
		cfg.Probabilistic = v == "true"
	}
	if v := os.Getenv("DIST_HTML_SIZE"); v != "" {
		cfg.DistHTMLSize = v
	}
	if v := os.Getenv("DIST_OBJ_SIZE"); v != "" {
		cfg.DistObjSize = v
	}
	if v := os.Getenv("DIST_OBJ_NUM"); v != "" {
		cfg.DistObjNum = v
	}
	if v := os.Getenv("USE_TOTAL_OBJ_SIZE"); v != "" {
		cfg.UseTotalObjSize = v == "true"
	}
	if v := os.Getenv("OBJ_NUM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ObjNum = n
		}
	}
	if v := os.Getenv("OBJ_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ObjSize = n
		}
	}
	if v := os.Getenv("MAX_OBJ_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxObjSize = n
		}
	}
	if v := os.Getenv("INLINING_ENABLED"); v != "" {
		cfg.InliningEnabled = v == "true"
	}
	if v := os.Getenv("DIST_CACHE_FILE"); v != "" {
		cfg.DistCacheFile = v
	}
}
