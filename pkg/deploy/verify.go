// pkg/deploy/verify.go

package deploy

import (
	"context"
	"fmt"
	"net/http"
	"time"

	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// verify polls the supervisor until it reports the unit active, bounded
// by VerifyTimeout. A fixed settle delay was how the old provisioning
// scripts did this; polling is deterministic under variable host load.
//
// The follow-up HTTP probe distinguishes "the manager says it's running"
// from "it answers requests". Its failure is a warning, never an abort:
// the service may legitimately need longer to bind, and the supervisor's
// restart policy owns recovery from here on.
func (r *Runner) verify(ctx context.Context) error {
	logger := otelzap.Ctx(ctx)
	cfg := r.Config
	unit := cfg.UnitName()

	deadline := time.Now().Add(cfg.VerifyTimeout)
	for {
		active, err := r.Services.IsActive(ctx, unit)
		if err != nil {
			return mark(cerr.Wrap(err, "probing service state"), ErrVerify)
		}
		if active {
			logger.Info("Service reports active", zap.String("unit", unit))
			break
		}
		if time.Now().After(deadline) {
			return mark(cerr.Newf("service %s did not become active within %s", unit, cfg.VerifyTimeout), ErrVerify)
		}

		select {
		case <-ctx.Done():
			return mark(ctx.Err(), ErrVerify)
		case <-time.After(cfg.VerifyInterval):
		}
	}

	r.probeHTTP(ctx)
	return nil
}

// probeHTTP performs the single reachability check. Any HTTP response,
// including 404 for services without a root route, counts as answering.
func (r *Runner) probeHTTP(ctx context.Context) {
	logger := otelzap.Ctx(ctx)

	url := fmt.Sprintf("http://127.0.0.1:%d/", r.Config.Port)
	client := &http.Client{Timeout: 5 * time.Second}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		logger.Warn("HTTP probe could not be constructed", zap.Error(err))
		return
	}

	resp, err := client.Do(req)
	if err != nil {
		logger.Warn("Service is active but did not answer HTTP probe",
			zap.String("url", url),
			zap.Error(err))
		return
	}
	resp.Body.Close()

	logger.Info("HTTP probe answered",
		zap.String("url", url),
		zap.Int("status", resp.StatusCode))
}
