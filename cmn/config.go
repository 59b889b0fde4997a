package cmn

import (
	"path/filepath"
	"runtime"
	"time"

	"github.com/pkg/errors"
)

// Config is the immutable configuration snapshot captured once at process
// start. It is the only package-level mutable-looking state the core
// tolerates, and even it is never mutated after Load returns — every
// consumer holds a *Config and treats it as read-only, matching the "no
// in-process global mutable state" rule of §5.
type Config struct {
	Logging  LoggingConf
	Feed     FeedConf
	Runtime  RuntimeConf
	State    StateConf
	Metrics  MetricsConf
	Publish  PublishConf
	Paths    PathsConf
	Municipal MunicipalConf
	Railway  RailwayConf
	Regional RegionalConf

	Allowlist *Allowlist
}

type LoggingConf struct {
	Level       int
	Dir         string
	MaxBytes    int
	BackupCount int
	Format      string
}

type FeedConf struct {
	OutPath               string
	Title                 string
	Link                  string
	Description           string
	TTLMinutes            int
	DescriptionCharLimit  int
	MaxItems              int
	FreshPubDateWindowMin int
	MaxItemAgeDays        int
	AbsoluteMaxAgeDays    int
	EndsAtGraceMinutes    int
}

type RuntimeConf struct {
	ProviderTimeout time.Duration
	MaxWorkers      int
}

type StateConf struct {
	Path           string
	RetentionDays  int
}

type MetricsConf struct {
	PushgatewayURL string
	JobName        string
}

type PublishConf struct {
	S3Bucket         string
	S3Region         string
	AzureContainer   string
	AzureAccount     string
	GCSBucket        string
}

type PathsConf struct {
	Docs string
	Data string
	Log  string
}

type MunicipalConf struct {
	Enabled         bool
	BaseURL         string
	CategoryInclude string
	CategoryExclude string
}

type RailwayConf struct {
	Enabled bool
	FeedURL string
}

type RegionalConf struct {
	Enabled           bool
	BaseURL           string
	AccessID          string
	AccessIDAsQuery   bool
	JWTSecret         string
	StationIDs        []string
	RotationInterval  time.Duration
	MaxStationsPerRun int
	DailyBudget       int
	RunCircuitBreaker int
}

// Load builds the immutable Config snapshot from the environment, applying
// documented defaults for anything unset or malformed and validating every
// configured path against the allowlist. A ConfigError (returned as-is,
// wrapped with context) is fatal at startup per §7.
func Load() (*Config, error) {
	c := &Config{
		Logging: LoggingConf{
			Level:       GetInt("LOG_LEVEL", 1),
			Dir:         GetString("LOG_DIR", "log"),
			MaxBytes:    GetInt("LOG_MAX_BYTES", 10<<20),
			BackupCount: GetInt("LOG_BACKUP_COUNT", 5),
			Format:      GetString("LOG_FORMAT", "text"),
		},
		Feed: FeedConf{
			OutPath:               GetString("OUT_PATH", "docs/feed.xml"),
			Title:                 GetString("FEED_TITLE", "Wien ÖPNV Störungen"),
			Link:                  GetString("FEED_LINK", "https://example.invalid/"),
			Description:           GetString("FEED_DESC", "Aggregierte Störungsmeldungen für den Wiener ÖPNV"),
			TTLMinutes:            GetInt("FEED_TTL", 15),
			DescriptionCharLimit:  GetInt("DESCRIPTION_CHAR_LIMIT", 170),
			MaxItems:              GetInt("MAX_ITEMS", 30),
			FreshPubDateWindowMin: GetInt("FRESH_PUBDATE_WINDOW_MIN", 5),
			MaxItemAgeDays:        GetInt("MAX_ITEM_AGE_DAYS", 365),
			AbsoluteMaxAgeDays:    GetInt("ABSOLUTE_MAX_AGE_DAYS", 540),
			EndsAtGraceMinutes:    GetInt("ENDS_AT_GRACE_MINUTES", 10),
		},
		Runtime: RuntimeConf{
			ProviderTimeout: time.Duration(GetInt("PROVIDER_TIMEOUT", 25)) * time.Second,
			MaxWorkers:      GetInt("PROVIDER_MAX_WORKERS", runtime.NumCPU()),
		},
		State: StateConf{
			Path:          GetString("STATE_PATH", "data/first_seen.json"),
			RetentionDays: GetInt("STATE_RETENTION_DAYS", 365),
		},
		Metrics: MetricsConf{
			PushgatewayURL: GetString("PROM_PUSHGATEWAY_URL", ""),
			JobName:        GetString("PROM_JOB_NAME", "oepnv-feed"),
		},
		Publish: PublishConf{
			S3Bucket:       GetString("S3_MIRROR_BUCKET", ""),
			S3Region:       GetString("S3_MIRROR_REGION", "eu-central-1"),
			AzureContainer: GetString("AZURE_MIRROR_CONTAINER", ""),
			AzureAccount:   GetString("AZURE_MIRROR_ACCOUNT", ""),
			GCSBucket:      GetString("GCS_MIRROR_BUCKET", ""),
		},
		Paths: PathsConf{
			Docs: GetString("DOCS_DIR", "docs"),
			Data: GetString("DATA_DIR", "data"),
			Log:  GetString("LOG_DIR", "log"),
		},
		Municipal: MunicipalConf{
			Enabled:         GetBool("MUNICIPAL_ENABLED", true),
			BaseURL:         GetString("MUNICIPAL_BASE_URL", "https://www.wien.gv.at/verkehr/ogd/"),
			CategoryInclude: GetString("MUNICIPAL_CATEGORY_INCLUDE", ""),
			CategoryExclude: GetString("MUNICIPAL_CATEGORY_EXCLUDE", ""),
		},
		Railway: RailwayConf{
			Enabled: GetBool("RAILWAY_ENABLED", true),
			FeedURL: GetString("RAILWAY_FEED_URL", "https://fahrplan.oebb.at/bin/help.exe/rss"),
		},
		Regional: RegionalConf{
			Enabled:           GetBool("REGIONAL_ENABLED", true),
			BaseURL:           GetString("VOR_BASE_URL", "https://routenplaner.verkehrsauskunft.at/vao/restproxy"),
			AccessID:          GetString("VOR_ACCESS_ID", ""),
			AccessIDAsQuery:   GetBool("VOR_ACCESS_ID_AS_QUERY", false),
			JWTSecret:         GetString("VOR_JWT_SECRET", ""),
			RotationInterval:  time.Duration(GetInt("VOR_ROTATION_INTERVAL_MIN", 30)) * time.Minute,
			MaxStationsPerRun: GetInt("VOR_MAX_STATIONS_PER_RUN", 5),
			DailyBudget:       GetInt("VOR_DAILY_BUDGET", 100),
			RunCircuitBreaker: GetInt("VOR_RUN_CIRCUIT_BREAKER", 10),
		},
	}

	al, err := NewAllowlist(c.Paths.Docs, c.Paths.Data, c.Paths.Log)
	if err != nil {
		return nil, errors.Wrap(err, "configuration")
	}
	c.Allowlist = al

	if _, err := al.Validate(c.Feed.OutPath); err != nil {
		return nil, errors.Wrap(err, "configuration: OUT_PATH")
	}
	if _, err := al.Validate(c.State.Path); err != nil {
		return nil, errors.Wrap(err, "configuration: STATE_PATH")
	}

	if c.Regional.Enabled && c.Regional.AccessID == "" && c.Regional.JWTSecret == "" {
		return nil, errors.New("configuration: regional-authority provider enabled but neither VOR_ACCESS_ID nor VOR_JWT_SECRET is set")
	}
	if c.Regional.AccessID != "" && c.Regional.JWTSecret != "" {
		return nil, errors.New("configuration: regional-authority provider must use either VOR_ACCESS_ID or VOR_JWT_SECRET, not both")
	}

	return c, nil
}

// CacheFile returns the validated path to a given provider's cache file
// under data/<provider>/events.json.
func (c *Config) CacheFile(provider string) (string, error) {
	p := filepath.Join(c.Paths.Data, provider, "events.json")
	return c.Allowlist.Validate(p)
}

// CounterFile returns the validated path to a given provider's rate-limit
// counter file, a sibling of its cache file.
func (c *Config) CounterFile(provider string) (string, error) {
	p := filepath.Join(c.Paths.Data, provider, "ratelimit.json")
	return c.Allowlist.Validate(p)
}
