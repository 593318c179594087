// config.go: settings for the field recorder. Defines the Settings struct
// and the functions to load, access and persist configuration.
package conf

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

//go:embed config.yaml
var configFiles embed.FS

// MainSettings identifies the device and its placement.
type MainSettings struct {
	Name      string  // node name, used as source for messages and MQTT client id
	Latitude  float64 // placement latitude
	Longitude float64 // placement longitude
	TimeZone  string  // IANA timezone name, empty for system local
}

// RecordingSettings controls audio capture.
type RecordingSettings struct {
	Duration   int      // length of one recording in seconds
	Samplerate int      // capture sample rate in Hz
	Channels   int      // number of capture channels
	Device     string   // capture device name, empty for system default
	Schedule   []string // recording windows as "HH:MM-HH:MM", empty means always
	Interval   int      // seconds between capture attempts
	TempPath   string   // directory for freshly captured audio
	AudioPath  string   // directory for permanently retained audio
}

// DetectionSettings controls post-capture model processing.
type DetectionSettings struct {
	ModelName      string  // name recorded on persisted model outputs
	Threshold      float64 // processing filter minimum, recordings below are skipped
	CleanThreshold float64 // tags and detections below this are stripped before persisting
}

// DutyCycleSettings saves the first Duration minutes of every Period minutes.
type DutyCycleSettings struct {
	Enabled  bool
	Duration int // minutes saved at the start of each period
	Period   int // full period length in minutes
}

// SolarWindowSettings saves recordings near a solar event.
type SolarWindowSettings struct {
	Enabled bool
	Anchor  string // "sunrise", "sunset", "dawn" or "dusk"
	Before  int    // minutes before the event
	After   int    // minutes after the event
}

// ThresholdSettings keeps recordings with a confident enough prediction.
type ThresholdSettings struct {
	Enabled bool
	Minimum float64
}

// RetentionSettings configures the saving filter chain. All enabled
// policies must pass for a file to be retained.
type RetentionSettings struct {
	Windows   []string // fixed daily save windows as "HH:MM-HH:MM"
	DutyCycle DutyCycleSettings
	Solar     SolarWindowSettings
	Threshold ThresholdSettings
	Tags      []string // allow-list entries as "key=value"
}

// MQTTSettings configures the MQTT messenger.
type MQTTSettings struct {
	Enabled  bool
	Broker   string // broker URL, e.g. tcp://localhost:1883
	Topic    string
	Username string
	Password string
	Retain   bool
	Timeout  int // publish timeout in seconds
}

// HTTPSettings configures the HTTP messenger.
type HTTPSettings struct {
	Enabled bool
	URL     string            // collector endpoint, POST target
	Headers map[string]string // extra request headers
	Params  map[string]string // extra query parameters
	Timeout int               // request timeout in seconds
}

// MessagingSettings groups the outbound messaging configuration.
type MessagingSettings struct {
	MQTT              MQTTSettings
	HTTP              HTTPSettings
	HeartbeatInterval int // seconds between heartbeats, 0 disables
	SendInterval      int // seconds between outbox drains
}

// SQLiteSettings points at one embedded database file.
type SQLiteSettings struct {
	Path string
}

// OutputSettings configures the local stores.
type OutputSettings struct {
	SQLite SQLiteSettings // operational metadata store
	Outbox SQLiteSettings // message outbox store
}

// TelemetrySettings configures the optional Prometheus endpoint.
type TelemetrySettings struct {
	Enabled bool
	Listen  string // address for the metrics endpoint, e.g. "0.0.0.0:8090"
}

// Settings is the root configuration for the field recorder.
type Settings struct {
	Debug     bool
	Main      MainSettings
	Recording RecordingSettings
	Detection DetectionSettings
	Retention RetentionSettings
	Messaging MessagingSettings
	Output    OutputSettings
	Telemetry TelemetrySettings
}

// settingsInstance is the current settings instance
var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a
// Settings struct, validates it and stores it as the active instance.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}

	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	// defaults defined in defaults.go
	setDefaultConfig()

	err = viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, create config with defaults
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes the embedded default config to the first
// default config path and re-reads it.
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")
	defaultConfig := getDefaultConfig()

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	return viper.ReadInConfig()
}

// getDefaultConfig reads the default configuration from the embedded config.yaml.
func getDefaultConfig() string {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}
	return string(data)
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the current settings instance, an alias of GetSettings
// kept for call-site brevity.
func Setting() *Settings {
	return GetSettings()
}

// SaveYAMLConfig writes the given settings to a YAML config file.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to yaml: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}
