// Package notify raises DataDog events when a dashboard panel stops
// getting data and again when it recovers, so a broken analytics
// pipeline is noticed without anyone staring at the dashboard.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/DataDog/datadog-api-client-go/v2/api/datadog"
	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV1"
	"go.uber.org/zap"
)

const sendTimeout = 10 * time.Second

type Notifier struct {
	client client
	tags   []string
	logger *zap.Logger

	mu       sync.Mutex
	degraded map[string]bool
}

func New(site, apiKey, appKey string, tags []string, logger *zap.Logger) *Notifier {
	configuration := datadog.NewConfiguration()
	apiClient := datadog.NewAPIClient(configuration)

	return &Notifier{
		client: wrapper{
			client: apiClient,
			site:   site,
			apiKey: apiKey,
			appKey: appKey,
		},
		tags:     tags,
		logger:   logger,
		degraded: make(map[string]bool),
	}
}

// PanelSettled records the latest outcome for a panel and emits an event
// when the panel crosses into or out of the degraded state. Repeated
// failures and repeated successes stay quiet.
func (n *Notifier) PanelSettled(id string, failed bool, message string) {
	n.mu.Lock()
	if failed == n.degraded[id] {
		n.mu.Unlock()
		return
	}
	if failed {
		n.degraded[id] = true
	} else {
		delete(n.degraded, id)
	}
	n.mu.Unlock()

	if failed {
		n.send(id, fmt.Sprintf("honeypot dashboard: panel '%s' degraded", id), message, datadogV1.EVENTALERTTYPE_ERROR)
		return
	}
	n.send(id, fmt.Sprintf("honeypot dashboard: panel '%s' recovered", id), "panel is receiving data again", datadogV1.EVENTALERTTYPE_SUCCESS)
}

// send failures are logged and swallowed, a broken notifier must never
// take the dashboard down with it.
func (n *Notifier) send(id, title, text string, alertType datadogV1.EventAlertType) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	body := datadogV1.EventCreateRequest{
		Title:          title,
		Text:           text,
		AlertType:      alertType.Ptr(),
		Tags:           append([]string{fmt.Sprintf("panel:%s", id)}, n.tags...),
		SourceTypeName: datadog.PtrString("honeypot-dashboard"),
		AggregationKey: datadog.PtrString(fmt.Sprintf("honeypot-dashboard:%s", id)),
	}

	_, _, err := n.client.CreateEvent(n.client.withAuth(ctx), body)
	if err != nil {
		n.logger.Warn("can't send DataDog event", zap.String("panel", id), zap.Error(err))
		return
	}
	n.logger.Info("sent DataDog event", zap.String("panel", id), zap.String("title", title))
}
