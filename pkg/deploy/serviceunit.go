// pkg/deploy/serviceunit.go

package deploy

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"text/template"

	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// unitTemplate is the rendered process-supervisor definition. Defining and
// activating are deliberately separate: this stage only writes the file,
// START flips the switch.
const unitTemplate = `[Unit]
Description={{ .Description }}
After=network.target

[Service]
Type=simple
User={{ .User }}
Group={{ .User }}
WorkingDirectory={{ .WorkingDir }}
Environment="PATH={{ .VenvBin }}:/usr/local/bin:/usr/bin:/bin"
Environment="PYTHONUNBUFFERED=1"
EnvironmentFile={{ .SecretsFile }}
ExecStart={{ .Gunicorn }} --bind 0.0.0.0:{{ .Port }} --workers {{ .Workers }} --timeout {{ .TimeoutSec }} --log-level {{ .LogLevel }} --access-logfile {{ .AccessLog }} --error-logfile {{ .ErrorLog }} app:app
Restart=always
RestartSec={{ .RestartSec }}
StandardOutput=append:{{ .StdoutLog }}
StandardError=append:{{ .StderrLog }}

[Install]
WantedBy=multi-user.target
`

type unitParams struct {
	Description string
	User        string
	WorkingDir  string
	VenvBin     string
	SecretsFile string
	Gunicorn    string
	Port        int
	Workers     int
	TimeoutSec  int
	LogLevel    string
	RestartSec  int
	AccessLog   string
	ErrorLog    string
	StdoutLog   string
	StderrLog   string
}

// configureService renders the unit definition and installs it at the
// supervisor's well-known path, creating the log directory the unit's
// redirection targets point into.
func (r *Runner) configureService(ctx context.Context) error {
	logger := otelzap.Ctx(ctx)
	cfg := r.Config

	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		return mark(cerr.Wrapf(err, "creating log directory %s", cfg.LogDir), ErrServiceConfigWrite)
	}

	rendered, err := RenderUnit(cfg)
	if err != nil {
		return mark(err, ErrServiceConfigWrite)
	}

	logger.Info("Installing service unit",
		zap.String("unit", cfg.UnitName()),
		zap.String("path", cfg.UnitPath))

	if err := os.MkdirAll(filepath.Dir(cfg.UnitPath), 0o755); err != nil {
		return mark(cerr.Wrapf(err, "creating unit directory"), ErrServiceConfigWrite)
	}
	if err := os.WriteFile(cfg.UnitPath, rendered, 0o644); err != nil {
		return mark(cerr.Wrapf(err, "writing unit file %s", cfg.UnitPath), ErrServiceConfigWrite)
	}

	if err := r.Services.DaemonReload(ctx); err != nil {
		return mark(cerr.Wrap(err, "reloading unit index"), ErrServiceConfigWrite)
	}

	return nil
}

// RenderUnit produces the systemd unit file contents for cfg.
func RenderUnit(cfg Config) ([]byte, error) {
	tmpl, err := template.New("unit").Parse(unitTemplate)
	if err != nil {
		return nil, cerr.Wrap(err, "parsing unit template")
	}

	params := unitParams{
		Description: cfg.ServiceName + " managed by vulcan",
		User:        cfg.ServiceUser,
		WorkingDir:  cfg.InstallDir,
		VenvBin:     filepath.Join(cfg.VenvDir(), "bin"),
		SecretsFile: cfg.SecretsDest(),
		Gunicorn:    filepath.Join(cfg.VenvDir(), "bin", "gunicorn"),
		Port:        cfg.Port,
		Workers:     cfg.Workers,
		TimeoutSec:  cfg.RequestTimeout,
		LogLevel:    cfg.LogLevel,
		RestartSec:  cfg.RestartSec,
		AccessLog:   cfg.AccessLog(),
		ErrorLog:    cfg.ErrorLog(),
		StdoutLog:   cfg.StdoutLog(),
		StderrLog:   cfg.StderrLog(),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, params); err != nil {
		return nil, cerr.Wrap(err, "rendering unit template")
	}
	return buf.Bytes(), nil
}
