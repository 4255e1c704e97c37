package bot

import (
	"io"
	"net/http"

	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/logger"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

type inboundMessage struct {
	Type string `json:"type"`
	Text struct {
		Body string `json:"body"`
	} `json:"text"`
	Image struct {
		ID string `json:"id"`
	} `json:"image"`
}

// envelope mirrors the parts of the WhatsApp webhook payload the bot reads.
type envelope struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Contacts []struct {
					WaID    string `json:"wa_id"`
					Profile struct {
						Name string `json:"name"`
					} `json:"profile"`
				} `json:"contacts"`
				Messages []inboundMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// Webhook serves the Meta webhook endpoint: the GET verification handshake
// and POST message notifications.
type Webhook struct {
	service     *Service
	logger      *logger.Logger
	verifyToken string
}

// NewWebhook creates a new Webhook handler
func NewWebhook(l *logger.Logger, service *Service, verifyToken string) *Webhook {
	return &Webhook{service: service, logger: l, verifyToken: verifyToken}
}

func (h *Webhook) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.verify(w, r)
	case http.MethodPost:
		h.receive(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// verify answers the subscription handshake by echoing hub.challenge.
func (h *Webhook) verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.verify_token") != h.verifyToken {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("Authentication failed. Invalid Token."))
		return
	}
	_, _ = w.Write([]byte(q.Get("hub.challenge")))
}

// receive decodes a notification and hands messages to the service. The
// response is always 200: Meta retries non-2xx deliveries, and a payload
// the bot cannot act on will not get better on redelivery.
func (h *Webhook) receive(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Error("failed to read webhook body", err)
		return
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		h.logger.Error("failed to decode webhook payload", err)
		return
	}

	player, msg, ok := flatten(env)
	if !ok {
		// status updates and other non-message notifications land here
		h.logger.Debug("webhook payload carried no message")
		return
	}

	ctx := r.Context()
	switch msg.Type {
	case "text":
		err = h.service.HandleText(ctx, player, msg.Text.Body)
	case "image":
		err = h.service.HandleImage(ctx, player, msg.Image.ID)
	default:
		h.logger.Debug("ignoring unsupported message type", zap.String("type", msg.Type))
		return
	}
	if err != nil {
		h.logger.Error("failed to handle message", err, zap.String("player_id", player.ID))
	}
}

// flatten pulls the first contact and message out of the nested envelope.
func flatten(env envelope) (Player, inboundMessage, bool) {
	for _, entry := range env.Entry {
		for _, change := range entry.Changes {
			v := change.Value
			if len(v.Contacts) == 0 || len(v.Messages) == 0 {
				continue
			}
			p := Player{ID: v.Contacts[0].WaID, Name: v.Contacts[0].Profile.Name}
			return p, v.Messages[0], true
		}
	}
	return Player{}, inboundMessage{}, false
}
