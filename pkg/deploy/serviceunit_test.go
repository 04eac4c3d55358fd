// pkg/deploy/serviceunit_test.go

package deploy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderUnit(t *testing.T) {
	cfg := DefaultConfig()

	rendered, err := RenderUnit(cfg)
	require.NoError(t, err)
	unit := string(rendered)

	for _, want := range []string{
		"Description=video-server managed by vulcan",
		"User=video-server",
		"Group=video-server",
		"WorkingDirectory=/opt/video-server",
		`Environment="PATH=/opt/video-server/venv/bin:/usr/local/bin:/usr/bin:/bin"`,
		`Environment="PYTHONUNBUFFERED=1"`,
		"EnvironmentFile=/opt/video-server/video-server.env",
		"ExecStart=/opt/video-server/venv/bin/gunicorn --bind 0.0.0.0:5000 --workers 4 --timeout 120 --log-level info --access-logfile /var/log/video-server/access.log --error-logfile /var/log/video-server/error.log app:app",
		"Restart=always",
		"RestartSec=5",
		"StandardOutput=append:/var/log/video-server/stdout.log",
		"StandardError=append:/var/log/video-server/stderr.log",
		"WantedBy=multi-user.target",
	} {
		assert.Contains(t, unit, want)
	}

	// Define, don't activate: the unit file itself never starts anything.
	assert.NotContains(t, unit, "ExecStartPre")
	assert.True(t, strings.HasPrefix(unit, "[Unit]\n"))
}

func TestRenderUnitHonorsOverrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ServiceName = "api-gateway"
	cfg.ServiceUser = "gateway"
	cfg.InstallDir = "/srv/api-gateway"
	cfg.LogDir = "/var/log/api-gateway"
	cfg.Port = 8080
	cfg.Workers = 2
	cfg.RequestTimeout = 30
	cfg.LogLevel = "debug"
	cfg.RestartSec = 10

	rendered, err := RenderUnit(cfg)
	require.NoError(t, err)
	unit := string(rendered)

	assert.Contains(t, unit, "User=gateway")
	assert.Contains(t, unit, "WorkingDirectory=/srv/api-gateway")
	assert.Contains(t, unit, "--bind 0.0.0.0:8080 --workers 2 --timeout 30 --log-level debug")
	assert.Contains(t, unit, "RestartSec=10")
	assert.Contains(t, unit, "EnvironmentFile=/srv/api-gateway/api-gateway.env")
}
