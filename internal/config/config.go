package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Default source datasets; the same files the ingestion pipeline reads.
const (
	defaultZipGeoJSONURL  = "https://raw.githubusercontent.com/ndrezn/zip-code-geojson/master/usa_zip_codes_geo_100m.json"
	defaultCityGeoJSONURL = "https://raw.githubusercontent.com/generalpiston/geojson-us-city-boundaries/master/cities"
)

// Config holds the configuration settings for the boundary resolution service.
//
// Fields:
// - Env: The current environment (e.g., local, development, production).
// - Port: The port for the HTTP API and monitoring endpoints.
// - StoreType: Which boundary store backend to use (static, supabase, postgis).
// - ProviderType: Which geocoding provider to use (nominatim, google).
// - APIKey: The API key for the geocoding provider (required for Google).
// - GeocodeTimeout: Ceiling for a single geocoding request.
// - ZipGeoJSONURL: Source URL of the national ZCTA feature collection.
// - CityGeoJSONBaseURL: Base URL of the per-state/per-city boundary documents.
// - Supabase: Supabase project settings for the document-store backend.
// - Database: PostgreSQL settings for the spatial backend and ingestion.
type Config struct {
	Env                string
	Port               int
	StoreType          string
	ProviderType       string
	APIKey             string
	GeocodeTimeout     time.Duration
	ZipGeoJSONURL      string
	CityGeoJSONBaseURL string
	Supabase           SupabaseConfig
	Database           PostgresConfig
}

// SupabaseConfig holds the connection details for the hosted document store.
type SupabaseConfig struct {
	URL    string // Project base URL, e.g. https://xyz.supabase.co
	APIKey string // Service or anon API key
}

// PostgresConfig struct holds the configuration details for connecting to a
// PostgreSQL database with the PostGIS extension.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// MustLoad loads the configuration from the environment (with optional .env
// and yaml file support) and returns a Config struct. It panics on malformed
// values, since the process cannot run without a usable configuration.
func MustLoad() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("MAPSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("env", "production")
	v.SetDefault("port", 8080)
	v.SetDefault("store.type", "static")
	v.SetDefault("provider.type", "nominatim")
	v.SetDefault("provider.timeout", "5s")
	v.SetDefault("dataset.zip_url", defaultZipGeoJSONURL)
	v.SetDefault("dataset.city_base_url", defaultCityGeoJSONURL)
	v.SetDefault("db.port", "5432")

	if path := os.Getenv("MAPSCOPE_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			panic(fmt.Sprintf("failed to read config file %s: %v", path, err))
		}
	}

	timeout := v.GetDuration("provider.timeout")
	if timeout <= 0 {
		panic("failed to parse geocoding timeout from configuration")
	}

	return &Config{
		Env:                v.GetString("env"),
		Port:               v.GetInt("port"),
		StoreType:          v.GetString("store.type"),
		ProviderType:       v.GetString("provider.type"),
		APIKey:             v.GetString("provider.api_key"),
		GeocodeTimeout:     timeout,
		ZipGeoJSONURL:      v.GetString("dataset.zip_url"),
		CityGeoJSONBaseURL: v.GetString("dataset.city_base_url"),
		Supabase: SupabaseConfig{
			URL:    v.GetString("supabase.url"),
			APIKey: v.GetString("supabase.api_key"),
		},
		Database: PostgresConfig{
			Host:     v.GetString("db.host"),
			Port:     v.GetString("db.port"),
			User:     v.GetString("db.user"),
			Password: v.GetString("db.password"),
			Name:     v.GetString("db.name"),
		},
	}
}
