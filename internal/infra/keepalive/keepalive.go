// internal/infra/keepalive/keepalive.go
package keepalive

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Job は無料ホスティングのスリープを防ぐための定期 GET です。
type Job struct {
	url    string
	client *http.Client
}

func NewJob(url string) *Job {
	return &Job{
		url:    strings.TrimSpace(url),
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Run implements cron.Job.
func (j *Job) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.client.Timeout)
	defer cancel()
	if err := j.Ping(ctx); err != nil {
		log.WithError(err).Error("[keepalive] Error while sending request")
	}
}

// Ping issues one GET; a non-200 status is logged, not returned.
func (j *Job) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, j.url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := j.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		log.Info("[keepalive] Get request sent")
	} else {
		log.WithField("status", resp.StatusCode).Warn("[keepalive] Get request failed")
	}
	return nil
}

// Start schedules the job; an empty url disables it (nil scheduler, nil error).
func Start(schedule, url string) (*cron.Cron, error) {
	if strings.TrimSpace(url) == "" {
		return nil, nil
	}
	c := cron.New()
	if _, err := c.AddJob(schedule, NewJob(url)); err != nil {
		return nil, fmt.Errorf("keepalive: schedule %q: %w", schedule, err)
	}
	c.Start()
	log.WithFields(log.Fields{"schedule": schedule, "url": url}).Info("[keepalive] scheduled")
	return c, nil
}
