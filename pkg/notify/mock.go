package notify

import (
	"context"
	"net/http"

	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV1"
	"github.com/stretchr/testify/mock"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) withAuth(ctx context.Context) context.Context {
	return ctx
}

func (m *MockClient) CreateEvent(ctx context.Context, body datadogV1.EventCreateRequest) (datadogV1.EventCreateResponse, *http.Response, error) {
	args := m.Called(ctx, body)
	var resp *http.Response
	if args.Get(1) != nil {
		resp = args.Get(1).(*http.Response)
	}
	return args.Get(0).(datadogV1.EventCreateResponse), resp, args.Error(2)
}
