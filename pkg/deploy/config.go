// pkg/deploy/config.go

package deploy

import (
	"path/filepath"
	"time"

	cerr "github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// BackupMode selects how a failed pre-teardown snapshot is treated.
// The observed fleet of provisioning scripts disagreed on this, so it is
// an explicit setting rather than a silent choice.
const (
	BackupStrict  = "strict"  // failed backup aborts the run
	BackupLenient = "lenient" // failed backup logs a warning and continues
)

// Config is the full deployment description for one service on one host.
// Defaults describe the video-server Flask app; everything can be
// overridden via /etc/vulcan/vulcan.yaml or VULCAN_* environment keys.
type Config struct {
	ServiceName string `mapstructure:"service_name" validate:"required,hostname_rfc1123"`
	ServiceUser string `mapstructure:"service_user" validate:"required"`

	InstallDir string `mapstructure:"install_dir" validate:"required"`
	LogDir     string `mapstructure:"log_dir" validate:"required"`
	UnitPath   string `mapstructure:"unit_path" validate:"required"`

	PayloadPath string `mapstructure:"payload_path" validate:"required"`
	SecretsPath string `mapstructure:"secrets_path" validate:"required"`
	SchemaPath  string `mapstructure:"schema_path"` // optional

	Port      int `mapstructure:"port" validate:"required,min=1,max=65535"`
	AdminPort int `mapstructure:"admin_port" validate:"required,min=1,max=65535"`

	Workers        int    `mapstructure:"workers" validate:"min=1"`
	RequestTimeout int    `mapstructure:"request_timeout" validate:"min=1"` // seconds, gunicorn --timeout
	LogLevel       string `mapstructure:"log_level" validate:"oneof=debug info warning error critical"`
	RestartSec     int    `mapstructure:"restart_sec" validate:"min=1"`

	BackupMode string `mapstructure:"backup_mode" validate:"oneof=strict lenient"`

	VerifyInterval time.Duration `mapstructure:"verify_interval" validate:"required"`
	VerifyTimeout  time.Duration `mapstructure:"verify_timeout" validate:"required"`

	PythonMinVersion string   `mapstructure:"python_min_version" validate:"required"`
	AptPackages      []string `mapstructure:"apt_packages" validate:"required,min=1"`
	PipRequirements  []string `mapstructure:"pip_requirements" validate:"required,min=1"`
}

// DefaultConfig returns the built-in video-server deployment.
func DefaultConfig() Config {
	return Config{
		ServiceName:      "video-server",
		ServiceUser:      "video-server",
		InstallDir:       "/opt/video-server",
		LogDir:           "/var/log/video-server",
		UnitPath:         "/etc/systemd/system/video-server.service",
		PayloadPath:      "app.py",
		SecretsPath:      "video-server.env",
		SchemaPath:       "schema.prisma",
		Port:             5000,
		AdminPort:        22,
		Workers:          4,
		RequestTimeout:   120,
		LogLevel:         "info",
		RestartSec:       5,
		BackupMode:       BackupStrict,
		VerifyInterval:   500 * time.Millisecond,
		VerifyTimeout:    30 * time.Second,
		PythonMinVersion: "3.10",
		AptPackages:      []string{"python3", "python3-venv", "python3-pip", "curl", "ufw"},
		PipRequirements: []string{
			"flask==3.0.3",
			"flask-cors==4.0.1",
			"requests==2.32.3",
			"gunicorn==22.0.0",
			"prisma==0.13.1",
		},
	}
}

// Load reads the optional config file and environment overrides on top of
// the defaults, then validates the result.
func Load() (Config, error) {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("service_name", def.ServiceName)
	v.SetDefault("service_user", def.ServiceUser)
	v.SetDefault("install_dir", def.InstallDir)
	v.SetDefault("log_dir", def.LogDir)
	v.SetDefault("unit_path", def.UnitPath)
	v.SetDefault("payload_path", def.PayloadPath)
	v.SetDefault("secrets_path", def.SecretsPath)
	v.SetDefault("schema_path", def.SchemaPath)
	v.SetDefault("port", def.Port)
	v.SetDefault("admin_port", def.AdminPort)
	v.SetDefault("workers", def.Workers)
	v.SetDefault("request_timeout", def.RequestTimeout)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("restart_sec", def.RestartSec)
	v.SetDefault("backup_mode", def.BackupMode)
	v.SetDefault("verify_interval", def.VerifyInterval)
	v.SetDefault("verify_timeout", def.VerifyTimeout)
	v.SetDefault("python_min_version", def.PythonMinVersion)
	v.SetDefault("apt_packages", def.AptPackages)
	v.SetDefault("pip_requirements", def.PipRequirements)

	v.SetConfigName("vulcan")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/vulcan")
	v.AddConfigPath(".")
	v.SetEnvPrefix("VULCAN")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !cerr.As(err, &notFound) {
			return Config{}, cerr.Wrap(err, "reading vulcan config file")
		}
		// No config file is the normal case; defaults apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, cerr.Wrap(err, "decoding vulcan config")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate runs struct validation over the config.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return cerr.Wrap(err, "invalid deployment config")
	}
	return nil
}

// Derived locations. Everything the run touches hangs off InstallDir,
// LogDir and UnitPath.

func (c Config) UnitName() string    { return c.ServiceName + ".service" }
func (c Config) VenvDir() string     { return filepath.Join(c.InstallDir, "venv") }
func (c Config) PayloadDest() string { return filepath.Join(c.InstallDir, "app.py") }
func (c Config) SecretsDest() string { return filepath.Join(c.InstallDir, c.ServiceName+".env") }
func (c Config) SchemaDest() string  { return filepath.Join(c.InstallDir, "schema.prisma") }
func (c Config) LockPath() string    { return c.InstallDir + ".vulcan.lock" }

func (c Config) AccessLog() string { return filepath.Join(c.LogDir, "access.log") }
func (c Config) ErrorLog() string  { return filepath.Join(c.LogDir, "error.log") }
func (c Config) StdoutLog() string { return filepath.Join(c.LogDir, "stdout.log") }
func (c Config) StderrLog() string { return filepath.Join(c.LogDir, "stderr.log") }
