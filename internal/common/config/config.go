package config

import "time"

// Config is the robot configuration. It is built once at process start and
// handed to each component; nothing reads it through globals.
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Robot        RobotConfig        `mapstructure:"robot"`
	Mailbox      MailboxConfig      `mapstructure:"mailbox"`
	Eflyt        EflytConfig        `mapstructure:"eflyt"`
	Ingest       IngestConfig       `mapstructure:"ingest"`
	Report       ReportConfig       `mapstructure:"report"`
	Notification NotificationConfig `mapstructure:"notification"`
	SMTP         SMTPConfig         `mapstructure:"smtp"`
	AWS          AWSConfig          `mapstructure:"aws"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Camunda      CamundaConfig      `mapstructure:"camunda"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	QueueName   string `mapstructure:"queue_name"`
}

// RobotConfig holds the run harness bounds.
type RobotConfig struct {
	MaxRetryCount       int  `mapstructure:"max_retry_count"`
	MaxTaskCount        int  `mapstructure:"max_task_count"`
	FailOnTooManyErrors bool `mapstructure:"fail_on_too_many_errors"`
	RunLockTTL          int  `mapstructure:"run_lock_ttl"`  // seconds
	RetryBackoff        int  `mapstructure:"retry_backoff"` // milliseconds
}

// MailboxConfig points at the Microsoft Graph mailbox the requests arrive in.
type MailboxConfig struct {
	TenantID     string `mapstructure:"tenant_id"`
	ClientID     string `mapstructure:"client_id"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	User         string `mapstructure:"user"`
	SourceFolder string `mapstructure:"source_folder"`
	BaseURL      string `mapstructure:"base_url"`
	Timeout      int    `mapstructure:"timeout"` // milliseconds
}

type EflytConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Headless bool   `mapstructure:"headless"`
	Timeout  int    `mapstructure:"timeout"` // milliseconds, per page interaction
}

type IngestConfig struct {
	// LegacyDelimited enables the deprecated "national-id,case-id" text attachments.
	LegacyDelimited bool `mapstructure:"legacy_delimited"`
}

type ReportConfig struct {
	Filename  string `mapstructure:"filename"`
	SheetName string `mapstructure:"sheet_name"`
}

type NotificationConfig struct {
	Transport string `mapstructure:"transport"` // smtp or ses
	Sender    string `mapstructure:"sender"`
	Subject   string `mapstructure:"subject"`
	Body      string `mapstructure:"body"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type AWSConfig struct {
	Region string `mapstructure:"region"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	LockKey  string `mapstructure:"lock_key"`
}

type CamundaConfig struct {
	BrokerAddress string `mapstructure:"broker_address"`
	TaskType      string `mapstructure:"task_type"`
	MaxJobsActive int    `mapstructure:"max_jobs_active"`
	Timeout       int    `mapstructure:"timeout"` // milliseconds
}

type MetricsConfig struct {
	ListenAddress  string `mapstructure:"listen_address"`
	PushgatewayURL string `mapstructure:"pushgateway_url"`
	JobName        string `mapstructure:"job_name"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// GetDuration converts a millisecond setting.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// LockTTL is the run lock expiry.
func (r RobotConfig) LockTTL() time.Duration {
	return time.Duration(r.RunLockTTL) * time.Second
}
