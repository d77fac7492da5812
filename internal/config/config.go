package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB

	DefaultDPI              = 300
	DefaultHeaderFrac       = 0.42
	DefaultFooterFrac       = 0.22
	DefaultOCRWordThreshold = 70
	DefaultOCRWorkers       = 2

	// Directory permissions
	DefaultDirPerm = 0o750
)

// Config holds all configuration for the extraction server
type Config struct {
	// Server configuration
	Host string
	Port int

	// Storage configuration
	WorkDir      string // uploaded PDFs and generated documents
	TemplatePath string // ODT template, empty for the built-in plain document

	// OCR pipeline configuration
	Pdftoppm         string
	Tesseract        string
	Lang             string
	DPI              int
	HeaderDPI        int
	FooterDPI        int
	HeaderFrac       float64
	FooterFrac       float64
	OCRWordThreshold int
	OCRWorkers       int
	PSM              int

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum PDF upload size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Host:             DefaultHost,
		Port:             DefaultPort,
		WorkDir:          filepath.Join(currentDir, "data"),
		TemplatePath:     "",
		Pdftoppm:         "pdftoppm",
		Tesseract:        "tesseract",
		Lang:             "por",
		DPI:              DefaultDPI,
		HeaderDPI:        DefaultDPI,
		FooterDPI:        DefaultDPI,
		HeaderFrac:       DefaultHeaderFrac,
		FooterFrac:       DefaultFooterFrac,
		OCRWordThreshold: DefaultOCRWordThreshold,
		OCRWorkers:       DefaultOCRWorkers,
		PSM:              0,
		Version:          "1.0.0",
		ServerName:       "suprimento-server",
		LogLevel:         DefaultLogLevel,
		MaxFileSize:      DefaultMaxFileSize,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand paths if needed
	if cfg.WorkDir != "" {
		if expandedPath, err := filepath.Abs(cfg.WorkDir); err == nil {
			cfg.WorkDir = expandedPath
		}
	}
	if cfg.TemplatePath != "" {
		if expandedPath, err := filepath.Abs(cfg.TemplatePath); err == nil {
			cfg.TemplatePath = expandedPath
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	// Set environment variable prefix
	viper.SetEnvPrefix("SUPRIMENTO")
	viper.AutomaticEnv()

	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("workdir", cfg.WorkDir)
	viper.SetDefault("template", cfg.TemplatePath)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("pdftoppm", cfg.Pdftoppm)
	viper.SetDefault("tesseract", cfg.Tesseract)
	viper.SetDefault("lang", cfg.Lang)
	viper.SetDefault("dpi", cfg.DPI)
	viper.SetDefault("headerdpi", cfg.HeaderDPI)
	viper.SetDefault("footerdpi", cfg.FooterDPI)
	viper.SetDefault("headerfrac", cfg.HeaderFrac)
	viper.SetDefault("footerfrac", cfg.FooterFrac)
	viper.SetDefault("ocrthreshold", cfg.OCRWordThreshold)
	viper.SetDefault("ocrworkers", cfg.OCRWorkers)
	viper.SetDefault("psm", cfg.PSM)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("host", cfg.Host, "Server host address")
	pflag.Int("port", cfg.Port, "Server port")
	pflag.String("workdir", cfg.WorkDir, "Directory for uploaded PDFs and generated documents")
	pflag.String("template", cfg.TemplatePath, "ODT template path (empty uses the built-in plain document)")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF upload size in bytes")
	pflag.String("pdftoppm", cfg.Pdftoppm, "pdftoppm binary")
	pflag.String("tesseract", cfg.Tesseract, "tesseract binary")
	pflag.String("lang", cfg.Lang, "tesseract language")
	pflag.Int("dpi", cfg.DPI, "Full-page rasterization DPI")
	pflag.Int("headerdpi", cfg.HeaderDPI, "Header crop rasterization DPI")
	pflag.Int("footerdpi", cfg.FooterDPI, "Footer crop rasterization DPI")
	pflag.Float64("headerfrac", cfg.HeaderFrac, "Default header crop fraction")
	pflag.Float64("footerfrac", cfg.FooterFrac, "Default footer crop fraction")
	pflag.Int("ocrthreshold", cfg.OCRWordThreshold, "Word count under which a page is OCR'd")
	pflag.Int("ocrworkers", cfg.OCRWorkers, "Concurrent page OCR bound")
	pflag.Int("psm", cfg.PSM, "tesseract page segmentation mode, 0 for default")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range []string{
		"host", "port", "workdir", "template", "loglevel", "maxfilesize",
		"pdftoppm", "tesseract", "lang", "dpi", "headerdpi", "footerdpi",
		"headerfrac", "footerfrac", "ocrthreshold", "ocrworkers", "psm",
	} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nSuprimento de Óbito - extraction server for court-case PDFs\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                        # defaults, 127.0.0.1:8080\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --workdir=/var/lib/suprimento          # custom storage directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --host=0.0.0.0 --port=8081             # listen on all interfaces\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --template=modelo.odt --lang=por       # template-driven documents\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  SUPRIMENTO_HOST          Server host\n")
		fmt.Fprintf(os.Stderr, "  SUPRIMENTO_PORT          Server port\n")
		fmt.Fprintf(os.Stderr, "  SUPRIMENTO_WORKDIR       Storage directory\n")
		fmt.Fprintf(os.Stderr, "  SUPRIMENTO_TEMPLATE      ODT template path\n")
		fmt.Fprintf(os.Stderr, "  SUPRIMENTO_LOGLEVEL      Log level\n")
		fmt.Fprintf(os.Stderr, "  SUPRIMENTO_MAXFILESIZE   Maximum upload size\n")
		fmt.Fprintf(os.Stderr, "  SUPRIMENTO_TESSERACT     tesseract binary\n")
		fmt.Fprintf(os.Stderr, "  SUPRIMENTO_PDFTOPPM      pdftoppm binary\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.WorkDir = viper.GetString("workdir")
	cfg.TemplatePath = viper.GetString("template")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.Pdftoppm = viper.GetString("pdftoppm")
	cfg.Tesseract = viper.GetString("tesseract")
	cfg.Lang = viper.GetString("lang")
	cfg.DPI = viper.GetInt("dpi")
	cfg.HeaderDPI = viper.GetInt("headerdpi")
	cfg.FooterDPI = viper.GetInt("footerdpi")
	cfg.HeaderFrac = viper.GetFloat64("headerfrac")
	cfg.FooterFrac = viper.GetFloat64("footerfrac")
	cfg.OCRWordThreshold = viper.GetInt("ocrthreshold")
	cfg.OCRWorkers = viper.GetInt("ocrworkers")
	cfg.PSM = viper.GetInt("psm")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}

	if c.WorkDir == "" {
		return errors.New("work directory cannot be empty")
	}

	// Check if the work directory exists, create if it doesn't
	if _, err := os.Stat(c.WorkDir); os.IsNotExist(err) {
		if err := os.MkdirAll(c.WorkDir, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create work directory %s: %w", c.WorkDir, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access work directory %s: %w", c.WorkDir, err)
	}

	if c.TemplatePath != "" {
		if _, err := os.Stat(c.TemplatePath); err != nil {
			return fmt.Errorf("cannot access template %s: %w", c.TemplatePath, err)
		}
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.DPI < 0 || c.HeaderDPI < 0 || c.FooterDPI < 0 {
		return errors.New("dpi values cannot be negative")
	}

	if c.HeaderFrac <= 0 || c.HeaderFrac > 1 || c.FooterFrac <= 0 || c.FooterFrac > 1 {
		return errors.New("crop fractions must be within (0, 1]")
	}

	if c.OCRWorkers < 1 {
		return errors.New("ocr workers must be at least 1")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Host: %s, Port: %d, WorkDir: %s, Template: %s, LogLevel: %s, MaxFileSize: %d}",
		c.Host, c.Port, c.WorkDir, c.TemplatePath, c.LogLevel, c.MaxFileSize)
}
