package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Environment variables read by EnvironmentConfig.
const (
	EnvLevel      = "YTPLFILTER_LOG_LEVEL"
	EnvFormat     = "YTPLFILTER_LOG_FORMAT"
	EnvOutput     = "YTPLFILTER_LOG_OUTPUT"
	EnvCaller     = "YTPLFILTER_LOG_CALLER"
	EnvTimestamp  = "YTPLFILTER_LOG_TIMESTAMP"
	EnvComponents = "YTPLFILTER_LOG_COMPONENTS"
)

// LogConfig is the file/env representation of a logger configuration.
type LogConfig struct {
	Level      string          `json:"level"`
	Format     string          `json:"format"`
	Output     string          `json:"output"`
	Components map[string]bool `json:"components"`
	ShowCaller bool            `json:"show_caller"`
	Timestamp  bool            `json:"timestamp"`
}

// DefaultLogConfig returns default logging configuration
func DefaultLogConfig() *LogConfig {
	return &LogConfig{
		Level:  "INFO",
		Format: "text",
		Output: "stderr",
		Components: map[string]bool{
			string(ComponentApp):        true,
			string(ComponentFetcher):    true,
			string(ComponentDataAPI):    false,
			string(ComponentAPIv3):      false,
			string(ComponentInnertube):  false,
			string(ComponentClient):     false,
			string(ComponentDownloader): false,
			string(ComponentQuery):      false,
		},
	}
}

// LoadConfigFromFile loads configuration from a JSON file
func LoadConfigFromFile(filename string) (*LogConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	config := DefaultLogConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return config, nil
}

// SaveConfigToFile saves configuration to a JSON file
func (c *LogConfig) SaveConfigToFile(filename string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// ToLoggerConfig converts LogConfig to logger.Config
func (c *LogConfig) ToLoggerConfig() (*Config, error) {
	level, err := ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("parse level: %w", err)
	}
	format, err := ParseFormat(c.Format)
	if err != nil {
		return nil, fmt.Errorf("parse format: %w", err)
	}
	output, err := parseOutput(c.Output)
	if err != nil {
		return nil, fmt.Errorf("parse output: %w", err)
	}

	components := make(map[Component]bool, len(c.Components))
	for name, enabled := range c.Components {
		components[Component(name)] = enabled
	}

	return &Config{
		Level:      level,
		Format:     format,
		Output:     output,
		Components: components,
		ShowCaller: c.ShowCaller,
		Timestamp:  c.Timestamp,
	}, nil
}

// ParseLevel parses a level name (case-insensitive).
func ParseLevel(levelStr string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "TRACE":
		return TRACE, nil
	case "DEBUG":
		return DEBUG, nil
	case "INFO", "":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	default:
		return INFO, fmt.Errorf("unknown level: %s", levelStr)
	}
}

// ParseFormat parses a format name (text, json, color).
func ParseFormat(formatStr string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(formatStr)) {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "color", "colored":
		return FormatColor, nil
	default:
		return FormatText, fmt.Errorf("unknown format: %s", formatStr)
	}
}

// parseOutput resolves stdout, stderr, null/none or file:<path>.
func parseOutput(outputStr string) (io.Writer, error) {
	switch strings.ToLower(outputStr) {
	case "stdout":
		return os.Stdout, nil
	case "stderr", "":
		return os.Stderr, nil
	case "null", "none":
		return io.Discard, nil
	}
	if filePath, ok := strings.CutPrefix(outputStr, "file:"); ok {
		if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		return file, nil
	}
	return nil, fmt.Errorf("unknown output: %s", outputStr)
}

// CreateLoggerFromConfig creates a logger from LogConfig
func CreateLoggerFromConfig(config *LogConfig) (*Logger, error) {
	loggerConfig, err := config.ToLoggerConfig()
	if err != nil {
		return nil, fmt.Errorf("convert config: %w", err)
	}
	return New(loggerConfig), nil
}

// EnvironmentConfig returns the default configuration overridden by YTPLFILTER_LOG_* variables.
func EnvironmentConfig() *LogConfig {
	config := DefaultLogConfig()
	config.ApplyEnv(os.Getenv)
	return config
}

// ApplyEnv overrides fields from the given environment lookup.
func (c *LogConfig) ApplyEnv(getenv func(string) string) {
	if level := getenv(EnvLevel); level != "" {
		c.Level = level
	}
	if format := getenv(EnvFormat); format != "" {
		c.Format = format
	}
	if output := getenv(EnvOutput); output != "" {
		c.Output = output
	}
	if caller := getenv(EnvCaller); caller != "" {
		c.ShowCaller = caller == "true" || caller == "1"
	}
	if timestamp := getenv(EnvTimestamp); timestamp != "" {
		c.Timestamp = timestamp == "true" || timestamp == "1"
	}
	if components := getenv(EnvComponents); components != "" {
		c.Components = make(map[string]bool)
		for _, comp := range strings.Split(components, ",") {
			if comp = strings.TrimSpace(comp); comp != "" {
				c.Components[comp] = true
			}
		}
	}
}

// ValidateConfig validates the configuration
func (c *LogConfig) ValidateConfig() error {
	if _, err := ParseLevel(c.Level); err != nil {
		return fmt.Errorf("invalid level: %w", err)
	}
	if _, err := ParseFormat(c.Format); err != nil {
		return fmt.Errorf("invalid format: %w", err)
	}
	switch strings.ToLower(c.Output) {
	case "stdout", "stderr", "", "null", "none":
	default:
		if !strings.HasPrefix(c.Output, "file:") {
			return fmt.Errorf("invalid output: %s", c.Output)
		}
	}
	return nil
}
