package notify

import (
	"net/http"
	"slices"
	"testing"

	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV1"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func testNotifier(mockClient *MockClient) *Notifier {
	return &Notifier{
		client:   mockClient,
		tags:     []string{"team:secops"},
		logger:   zap.NewNop(),
		degraded: make(map[string]bool),
	}
}

func alertTypeIs(want datadogV1.EventAlertType) func(datadogV1.EventCreateRequest) bool {
	return func(body datadogV1.EventCreateRequest) bool {
		return body.AlertType != nil && *body.AlertType == want
	}
}

func TestNotifier_PanelSettled(t *testing.T) {
	t.Run("first failure emits a degraded event", func(t *testing.T) {
		mockClient := &MockClient{}
		mockClient.On("CreateEvent", mock.Anything, mock.MatchedBy(alertTypeIs(datadogV1.EVENTALERTTYPE_ERROR))).
			Return(datadogV1.EventCreateResponse{}, &http.Response{StatusCode: http.StatusAccepted}, nil).Once()
		n := testNotifier(mockClient)

		n.PanelSettled("recent-events", true, "server error 503 for 'events/recent'")

		mockClient.AssertExpectations(t)
		body := mockClient.Calls[0].Arguments.Get(1).(datadogV1.EventCreateRequest)
		if !slices.Contains(body.Tags, "panel:recent-events") {
			t.Errorf("event tags = %v, want panel:recent-events present", body.Tags)
		}
		if !slices.Contains(body.Tags, "team:secops") {
			t.Errorf("event tags = %v, want configured tags carried over", body.Tags)
		}
	})

	t.Run("repeated failures stay quiet", func(t *testing.T) {
		mockClient := &MockClient{}
		mockClient.On("CreateEvent", mock.Anything, mock.Anything).
			Return(datadogV1.EventCreateResponse{}, &http.Response{StatusCode: http.StatusAccepted}, nil)
		n := testNotifier(mockClient)

		n.PanelSettled("recent-events", true, "first")
		n.PanelSettled("recent-events", true, "second")
		n.PanelSettled("recent-events", true, "third")

		mockClient.AssertNumberOfCalls(t, "CreateEvent", 1)
	})

	t.Run("recovery emits a success event", func(t *testing.T) {
		mockClient := &MockClient{}
		mockClient.On("CreateEvent", mock.Anything, mock.MatchedBy(alertTypeIs(datadogV1.EVENTALERTTYPE_ERROR))).
			Return(datadogV1.EventCreateResponse{}, &http.Response{StatusCode: http.StatusAccepted}, nil).Once()
		mockClient.On("CreateEvent", mock.Anything, mock.MatchedBy(alertTypeIs(datadogV1.EVENTALERTTYPE_SUCCESS))).
			Return(datadogV1.EventCreateResponse{}, &http.Response{StatusCode: http.StatusAccepted}, nil).Once()
		n := testNotifier(mockClient)

		n.PanelSettled("timeline", true, "broken")
		n.PanelSettled("timeline", false, "")

		mockClient.AssertExpectations(t)
	})

	t.Run("healthy panel emits nothing", func(t *testing.T) {
		mockClient := &MockClient{}
		n := testNotifier(mockClient)

		n.PanelSettled("summary", false, "")
		n.PanelSettled("summary", false, "")

		mockClient.AssertNumberOfCalls(t, "CreateEvent", 0)
	})

	t.Run("panels are tracked independently", func(t *testing.T) {
		mockClient := &MockClient{}
		mockClient.On("CreateEvent", mock.Anything, mock.Anything).
			Return(datadogV1.EventCreateResponse{}, &http.Response{StatusCode: http.StatusAccepted}, nil)
		n := testNotifier(mockClient)

		n.PanelSettled("summary", true, "down")
		n.PanelSettled("timeline", true, "down")

		mockClient.AssertNumberOfCalls(t, "CreateEvent", 2)
	})

	t.Run("send failure is swallowed and the transition still counts", func(t *testing.T) {
		mockClient := &MockClient{}
		mockClient.On("CreateEvent", mock.Anything, mock.Anything).
			Return(datadogV1.EventCreateResponse{}, nil, http.ErrHandlerTimeout)
		n := testNotifier(mockClient)

		n.PanelSettled("geo", true, "down")
		n.PanelSettled("geo", true, "still down")

		mockClient.AssertNumberOfCalls(t, "CreateEvent", 1)
	})
}
