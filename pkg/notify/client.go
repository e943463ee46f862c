package notify

import (
	"context"
	"net/http"

	"github.com/DataDog/datadog-api-client-go/v2/api/datadog"
	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV1"
)

type client interface {
	withAuth(ctx context.Context) context.Context
	CreateEvent(ctx context.Context, body datadogV1.EventCreateRequest) (datadogV1.EventCreateResponse, *http.Response, error)
}

type wrapper struct {
	client *datadog.APIClient
	site   string
	apiKey string
	appKey string
}

// withAuth creates a new context with DataDog API authentication from the request context
func (w wrapper) withAuth(ctx context.Context) context.Context {
	authCtx := datadog.NewDefaultContext(ctx)
	if w.site != "" {
		authCtx = context.WithValue(authCtx, datadog.ContextServerVariables, map[string]string{
			"site": w.site,
		})
	}
	return context.WithValue(authCtx, datadog.ContextAPIKeys, map[string]datadog.APIKey{
		"apiKeyAuth": {Key: w.apiKey},
		"appKeyAuth": {Key: w.appKey},
	})
}

func (w wrapper) CreateEvent(ctx context.Context, body datadogV1.EventCreateRequest) (datadogV1.EventCreateResponse, *http.Response, error) {
	eventsApi := datadogV1.NewEventsApi(w.client)
	return eventsApi.CreateEvent(ctx, body)
}
