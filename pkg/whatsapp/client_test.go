package whatsapp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendText(t *testing.T) {
	var got textPayload
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/12345/messages", r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(Config{APIBase: srv.URL, Token: "secret", PhoneID: "12345"})
	err := c.SendText(context.Background(), "447000000001", "Saved time 04:56.")
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, "whatsapp", got.MessagingProduct)
	assert.Equal(t, "447000000001", got.To)
	assert.Equal(t, "Saved time 04:56.", got.Text.Body)
}

func TestSendTextErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(Config{APIBase: srv.URL, Token: "wrong", PhoneID: "12345"})
	err := c.SendText(context.Background(), "447000000001", "hello")
	assert.Error(t, err)
}

func TestFetchMedia(t *testing.T) {
	image := []byte{0xff, 0xd8, 0xff, 0xe0}
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/media-1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"url": srv.URL + "/download"})
	})
	mux.HandleFunc("/download", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Write(image)
	})

	c := NewClient(Config{APIBase: srv.URL, Token: "secret", PhoneID: "12345"})
	got, err := c.FetchMedia(context.Background(), "media-1")
	require.NoError(t, err)
	assert.Equal(t, image, got)
}

func TestFetchMediaMissingURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIBase: srv.URL, Token: "secret", PhoneID: "12345"})
	_, err := c.FetchMedia(context.Background(), "media-1")
	assert.Error(t, err)
}
