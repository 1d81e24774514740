package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "EFLYT_ROBOT"

// Load reads config.yaml from ./configs or the working directory, merges
// config.<APP_ENVIRONMENT>.yaml on top, and lets EFLYT_ROBOT_* variables
// override any key (robot.max_retry_count -> EFLYT_ROBOT_ROBOT_MAX_RETRY_COUNT).
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	if root := findProjectRoot(); root != "" {
		v.AddConfigPath(filepath.Join(root, "configs"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	v.SetConfigName("config." + env)
	_ = v.MergeInConfig()

	return build(v)
}

// LoadFromFile reads a single explicit config file.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return build(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func build(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	candidates := []string{".env", "../.env", "../../.env"}
	if root := findProjectRoot(); root != "" {
		candidates = append(candidates, filepath.Join(root, ".env"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars resolves ${VAR} placeholders left in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok || !strings.Contains(strVal, "$") {
			continue
		}
		if expanded := os.ExpandEnv(strVal); expanded != strVal {
			v.Set(key, expanded)
		}
	}
}

// setDefaults registers every key so AutomaticEnv can override it during
// Unmarshal, including keys absent from the YAML files.
func setDefaults(v *viper.Viper) {
	defaults := map[string]interface{}{
		"app.name":        "eflyt-phone-lookup",
		"app.version":     "dev",
		"app.environment": "development",
		"app.queue_name":  "Eflyt Udsøgning af Telefonnumre",

		"robot.max_retry_count":         3,
		"robot.max_task_count":          100,
		"robot.fail_on_too_many_errors": true,
		"robot.run_lock_ttl":            3600,
		"robot.retry_backoff":           0,

		"mailbox.tenant_id":     "",
		"mailbox.client_id":     "",
		"mailbox.username":      "",
		"mailbox.password":      "",
		"mailbox.user":          "itk-rpa@mkb.aarhus.dk",
		"mailbox.source_folder": "Indbakke/Eflyt udsøgning af telefonnumre",
		"mailbox.base_url":      "https://graph.microsoft.com/v1.0",
		"mailbox.timeout":       30000,

		"eflyt.base_url": "",
		"eflyt.username": "",
		"eflyt.password": "",
		"eflyt.headless": true,
		"eflyt.timeout":  30000,

		"ingest.legacy_delimited": false,

		"report.filename":   "eflyt_telefonnumre.xlsx",
		"report.sheet_name": "Telefonnumre",

		"notification.transport": "smtp",
		"notification.sender":    "itk-rpa@mkb.aarhus.dk",
		"notification.subject":   "RPA: Udsøgning af telefonnumre",
		"notification.body":      "Listen af telefonnumre er blevet færdigbehandlet og vedhæftet denne mail.",

		"smtp.host":     "smtp.aarhuskommune.local",
		"smtp.port":     25,
		"smtp.username": "",
		"smtp.password": "",

		"aws.region": "eu-west-1",

		"redis.address":  "",
		"redis.password": "",
		"redis.db":       0,
		"redis.lock_key": "eflyt-phone-lookup:run-lock",

		"camunda.broker_address":  "",
		"camunda.task_type":       "eflyt-phone-lookup",
		"camunda.max_jobs_active": 1,
		"camunda.timeout":         3600000,

		"metrics.listen_address":  ":8080",
		"metrics.pushgateway_url": "",
		"metrics.job_name":        "eflyt_phone_lookup",

		"logging.level":  "info",
		"logging.format": "json",
		"logging.output": "stdout",
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Robot.MaxRetryCount <= 0 {
		cfg.Robot.MaxRetryCount = 3
	}
	if cfg.Robot.MaxTaskCount < 0 {
		cfg.Robot.MaxTaskCount = 0
	}
	if cfg.Robot.RunLockTTL <= 0 {
		cfg.Robot.RunLockTTL = 3600
	}
	if cfg.SMTP.Port == 0 {
		cfg.SMTP.Port = 25
	}
	if cfg.Eflyt.Timeout <= 0 {
		cfg.Eflyt.Timeout = 30000
	}
	if cfg.Camunda.MaxJobsActive <= 0 {
		cfg.Camunda.MaxJobsActive = 1
	}
	cfg.Notification.Transport = strings.ToLower(strings.TrimSpace(cfg.Notification.Transport))
	cfg.Mailbox.BaseURL = strings.TrimSuffix(cfg.Mailbox.BaseURL, "/")
	cfg.Eflyt.BaseURL = strings.TrimSuffix(cfg.Eflyt.BaseURL, "/")
}

func validateConfig(cfg *Config) error {
	if cfg.Mailbox.User == "" {
		return fmt.Errorf("mailbox.user is required")
	}
	if cfg.Mailbox.SourceFolder == "" {
		return fmt.Errorf("mailbox.source_folder is required")
	}
	if cfg.Report.Filename == "" {
		return fmt.Errorf("report.filename is required")
	}
	if cfg.Notification.Sender == "" {
		return fmt.Errorf("notification.sender is required")
	}

	switch cfg.Notification.Transport {
	case "smtp":
		if cfg.SMTP.Host == "" {
			return fmt.Errorf("smtp.host is required for the smtp transport")
		}
	case "ses":
		if cfg.AWS.Region == "" {
			return fmt.Errorf("aws.region is required for the ses transport")
		}
	default:
		return fmt.Errorf("notification.transport must be smtp or ses, got %q", cfg.Notification.Transport)
	}

	return nil
}

// ValidateForRun checks the settings a live run needs beyond the base config.
func (c *Config) ValidateForRun() error {
	if c.Eflyt.BaseURL == "" {
		return fmt.Errorf("eflyt.base_url is required")
	}
	if c.Eflyt.Username == "" || c.Eflyt.Password == "" {
		return fmt.Errorf("eflyt.username and eflyt.password are required")
	}
	if c.Mailbox.TenantID == "" || c.Mailbox.ClientID == "" {
		return fmt.Errorf("mailbox.tenant_id and mailbox.client_id are required")
	}
	return nil
}

// ValidateForWorker checks the settings serve mode needs.
func (c *Config) ValidateForWorker() error {
	if c.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}
	if c.Camunda.TaskType == "" {
		return fmt.Errorf("camunda.task_type is required")
	}
	return c.ValidateForRun()
}
