package config

// Config represents the complete tagmint configuration
type Config struct {
	BaseDir     string            `yaml:"-"` // Directory containing config file, for resolving relative paths
	WebRoot     string            `yaml:"web_root"`  // Directory containing the site's static files (default: "./public")
	BasePath    string            `yaml:"base_path"` // URL prefix the app is mounted under (e.g. "/app"); "" for root
	Server      ServerConfig      `yaml:"server"`
	Compression CompressionConfig `yaml:"compression"`
	Rewrite     RewriteConfig     `yaml:"rewrite"`
	Pages       PagesConfig       `yaml:"pages"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ServerConfig holds dev server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	Dev  bool   `yaml:"-"` // Set via CLI flag, not config
}

// CompressionConfig holds HTTP response compression settings
type CompressionConfig struct {
	Enabled bool   `yaml:"enabled"`  // Enable gzip compression (default: true)
	Level   string `yaml:"level"`    // "fastest", "default", "best", or "none"
	MinSize int    `yaml:"min_size"` // Minimum response size in bytes to compress
}

// RewriteConfig holds script tag rewriting settings
type RewriteConfig struct {
	AppendVersion bool `yaml:"append_version"` // Version URLs even without asp-append-version (default: false)
}

// PagesConfig holds markdown page rendering settings
type PagesConfig struct {
	Enabled bool   `yaml:"enabled"` // Render .md files as HTML pages (default: true)
	Layout  string `yaml:"layout"`  // Optional HTML shell file with a {{content}} slot
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", "error" (default: "info")
}

// Defaults returns a Config populated with default values
func Defaults() *Config {
	return &Config{
		WebRoot: "./public",
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Compression: CompressionConfig{
			Enabled: true,
			Level:   "default",
			MinSize: 1024,
		},
		Pages: PagesConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
