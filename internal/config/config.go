package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete configuration shared by the classifier and
// choropleth tools.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" envconfig:"TELEMETRY"`
	Classifier ClassifierConfig `yaml:"classifier" envconfig:"CLASSIFIER"`
	Renderer   RendererConfig   `yaml:"renderer" envconfig:"RENDERER"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// TelemetryConfig controls tracing and the end-of-run metrics dump.
type TelemetryConfig struct {
	TraceExporter string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=none stdout"`
	SampleRatio   float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
	MetricsFile   string  `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// ClassifierConfig contains the record classifier inputs and outputs.
type ClassifierConfig struct {
	InputPath         string `yaml:"input_path" envconfig:"INPUT_PATH" validate:"required"`
	Sheet             string `yaml:"sheet" envconfig:"SHEET"`
	OutputPath        string `yaml:"output_path" envconfig:"OUTPUT_PATH" validate:"required"`
	TempFileName      string `yaml:"temp_file_name" envconfig:"TEMP_FILE_NAME" validate:"required"`
	OutputSheet       string `yaml:"output_sheet" envconfig:"OUTPUT_SHEET" validate:"required"`
	CSVOutputPath     string `yaml:"csv_output_path" envconfig:"CSV_OUTPUT_PATH"`
	DescriptionColumn string `yaml:"description_column" envconfig:"DESCRIPTION_COLUMN" validate:"required"`
	CodeColumn        string `yaml:"code_column" envconfig:"CODE_COLUMN" validate:"required"`
	RulesFile         string `yaml:"rules_file" envconfig:"RULES_FILE"`
}

// RendererConfig contains the geo-join renderer inputs, join fields and map styling.
type RendererConfig struct {
	RegistryPath  string  `yaml:"registry_path" envconfig:"REGISTRY_PATH" validate:"required"`
	BoundaryPath  string  `yaml:"boundary_path" envconfig:"BOUNDARY_PATH" validate:"required"`
	Province      string  `yaml:"province" envconfig:"PROVINCE" validate:"required"`
	ProvinceField string  `yaml:"province_field" envconfig:"PROVINCE_FIELD" validate:"required"`
	CantonField   string  `yaml:"canton_field" envconfig:"CANTON_FIELD" validate:"required"`
	ParishField   string  `yaml:"parish_field" envconfig:"PARISH_FIELD" validate:"required"`
	CantonColumn  string  `yaml:"canton_column" envconfig:"CANTON_COLUMN" validate:"required"`
	ParishColumn  string  `yaml:"parish_column" envconfig:"PARISH_COLUMN" validate:"required"`
	ChartPath     string  `yaml:"chart_path" envconfig:"CHART_PATH" validate:"required"`
	ChartTitle    string  `yaml:"chart_title" envconfig:"CHART_TITLE"`
	MapPath       string  `yaml:"map_path" envconfig:"MAP_PATH" validate:"required"`
	CenterLat     float64 `yaml:"center_lat" envconfig:"CENTER_LAT" validate:"gte=-90,lte=90"`
	CenterLon     float64 `yaml:"center_lon" envconfig:"CENTER_LON" validate:"gte=-180,lte=180"`
	Zoom          int     `yaml:"zoom" envconfig:"ZOOM" validate:"min=1,max=19"`
	FillColor     string  `yaml:"fill_color" envconfig:"FILL_COLOR" validate:"required"`
	StrokeColor   string  `yaml:"stroke_color" envconfig:"STROKE_COLOR" validate:"required"`
	StrokeWeight  float64 `yaml:"stroke_weight" envconfig:"STROKE_WEIGHT" validate:"gt=0"`
	FillOpacity   float64 `yaml:"fill_opacity" envconfig:"FILL_OPACITY" validate:"gte=0,lte=1"`
}

// EnvPrefix is the namespace of every environment variable read by Load.
const EnvPrefix = "RUC"

// Load builds the configuration: built-in defaults, then the YAML config file
// (RUC_CONFIG_FILE or ./ruccli.yaml when present), then environment variables.
func Load() (*Config, error) {
	cfg := Default()

	if configFile := getConfigFilePath(); configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// No `default` tags: envconfig only touches fields whose variable is set.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg; keys absent from the file keep
// their current value.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration
func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		return fmt.Errorf("logging file_path is required when output is %q", c.Logging.Output)
	}

	return nil
}

// getConfigFilePath returns the path to the config file, or "" when none exists.
func getConfigFilePath() string {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG_FILE"); explicit != "" {
		return explicit
	}

	locations := []string{
		DefaultConfigFile,
		"configs/" + DefaultConfigFile,
	}

	for _, location := range locations {
		if FileExists(location) {
			return location
		}
	}

	return ""
}

// Default returns default configuration. The paths are the fixed literals the
// tools have always used, relative to the working directory.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: DefaultLogsDir + "/ruccli.log",
		},
		Telemetry: TelemetryConfig{
			TraceExporter: "none",
			SampleRatio:   1.0,
		},
		Classifier: ClassifierConfig{
			InputPath:         DefaultRegistryInput,
			OutputPath:        DefaultClassifierOutput,
			TempFileName:      DefaultTempOutput,
			OutputSheet:       DefaultOutputSheet,
			DescriptionColumn: ColumnActivity,
			CodeColumn:        ColumnCIIU,
		},
		Renderer: RendererConfig{
			RegistryPath:  DefaultClassifierOutput,
			BoundaryPath:  DefaultBoundaryInput,
			Province:      DefaultProvince,
			ProvinceField: FieldProvince,
			CantonField:   FieldCanton,
			ParishField:   FieldParish,
			CantonColumn:  ColumnCanton,
			ParishColumn:  ColumnParish,
			ChartPath:     DefaultChartOutput,
			ChartTitle:    DefaultChartTitle,
			MapPath:       DefaultMapOutput,
			CenterLat:     DefaultCenterLat,
			CenterLon:     DefaultCenterLon,
			Zoom:          DefaultZoom,
			FillColor:     "#ff6e54",
			StrokeColor:   "black",
			StrokeWeight:  0.5,
			FillOpacity:   0.7,
		},
	}
}
