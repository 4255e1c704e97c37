package bot

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/outbound"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/prefs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newWebhookFixture(t *testing.T) (*Webhook, *fixture) {
	t.Helper()
	f := newFixture(t)
	return NewWebhook(f.service.logger, f.service, "secret-token"), f
}

func TestWebhookVerifyHandshake(t *testing.T) {
	h, _ := newWebhookFixture(t)

	req := httptest.NewRequest(http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token=secret-token&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Equal(t, "12345", string(body))
}

func TestWebhookVerifyRejectsBadToken(t *testing.T) {
	h, _ := newWebhookFixture(t)

	req := httptest.NewRequest(http.MethodGet,
		"/webhook?hub.verify_token=wrong&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Equal(t, "Authentication failed. Invalid Token.", string(body))
}

const textNotification = `{
  "entry": [{
    "changes": [{
      "value": {
        "contacts": [{"wa_id": "447700900001", "profile": {"name": "Harvey"}}],
        "messages": [{"type": "text", "text": {"body": "!submit 09:41"}}]
      }
    }]
  }]
}`

func TestWebhookDispatchesTextMessage(t *testing.T) {
	h, f := newWebhookFixture(t)

	f.ledger.On("Submit", mock.Anything, "447700900001", "Harvey",
		9*time.Minute+41*time.Second, mock.Anything).Return(nil).Once()
	f.motivation.On("Get", mock.Anything, "447700900001").
		Return(prefs.MotivationConfig{}, prefs.ErrNoConfig).Once()
	f.publisher.On("Publish", mock.Anything, mock.MatchedBy(func(m outbound.Message) bool {
		return m.Text == "Saved time 09:41."
	})).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(textNotification))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	f.ledger.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestWebhookDispatchesImageMessage(t *testing.T) {
	h, f := newWebhookFixture(t)

	payload := `{
	  "entry": [{
	    "changes": [{
	      "value": {
	        "contacts": [{"wa_id": "447700900001", "profile": {"name": "Harvey"}}],
	        "messages": [{"type": "image", "image": {"id": "media-77"}}]
	      }
	    }]
	  }]
	}`

	image := []byte{0x01, 0x02}
	f.media.On("FetchMedia", mock.Anything, "media-77").Return(image, nil).Once()
	f.extractor.On("Extract", mock.Anything, image).
		Return("You completed today's PlusWord in\n\n02:10", nil).Once()
	f.ledger.On("Submit", mock.Anything, "447700900001", "Harvey",
		2*time.Minute+10*time.Second, mock.Anything).Return(nil).Once()
	f.motivation.On("Get", mock.Anything, "447700900001").
		Return(prefs.MotivationConfig{}, prefs.ErrNoConfig).Once()
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	f.ledger.AssertExpectations(t)
}

func TestWebhookIgnoresStatusNotifications(t *testing.T) {
	h, f := newWebhookFixture(t)

	// delivery status callbacks have no contacts or messages
	payload := `{"entry": [{"changes": [{"value": {"statuses": [{"status": "delivered"}]}}]}]}`

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	f.publisher.AssertNotCalled(t, "Publish")
}

func TestWebhookMalformedPayloadStillAccepted(t *testing.T) {
	h, _ := newWebhookFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookRejectsOtherMethods(t *testing.T) {
	h, _ := newWebhookFixture(t)

	req := httptest.NewRequest(http.MethodDelete, "/webhook", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
