package config

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"
)

// EventMessage is the payload published for presentation-layer refresh hints.
// These are not financial postings: delivery is best effort and losing one
// only delays a poll-driven refresh.
type EventMessage struct {
	Event          string    `json:"event"`
	ClienteId      int       `json:"cliente_id"`
	MaquinetaId    *int      `json:"maquineta_id,omitempty"`
	Tipo           string    `json:"tipo,omitempty"`
	MesReferencia  string    `json:"mes_referencia,omitempty"`
	DataReferencia *string   `json:"data_referencia,omitempty"`
	Acao           string    `json:"acao,omitempty"`
	ReferenciaId   int       `json:"referencia_id,omitempty"`
	CorrelationId  string    `json:"correlation_id,omitempty"`
	EmitidoEm      time.Time `json:"emitido_em"`
}

var (
	pubsubClient   *pubsub.Client
	pubsubClientMu sync.Mutex
)

func init() {
	godotenv.Load()
}

func getPubSubProjectID() string {
	if v := os.Getenv("PUBSUB_PROJECT_ID"); v != "" {
		return v
	}
	if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" {
		return v
	}
	return ""
}

func getPubSubClient(ctx context.Context) (*pubsub.Client, error) {
	pubsubClientMu.Lock()
	defer pubsubClientMu.Unlock()
	if pubsubClient != nil {
		return pubsubClient, nil
	}

	projectID := getPubSubProjectID()
	if projectID == "" {
		return nil, errors.New("PUBSUB_PROJECT_ID/GOOGLE_CLOUD_PROJECT not set")
	}

	var (
		c   *pubsub.Client
		err error
	)
	if credJSON := os.Getenv("PUBSUB_CREDENTIALS_JSON"); credJSON != "" {
		c, err = pubsub.NewClient(ctx, projectID, option.WithCredentialsJSON([]byte(credJSON)))
	} else {
		// Application Default Credentials.
		c, err = pubsub.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, err
	}
	pubsubClient = c
	return pubsubClient, nil
}

// PublishEvent publishes msg to the events topic. Errors are returned for the
// caller to log; no caller may treat a publish failure as fatal.
func PublishEvent(ctx context.Context, msg EventMessage) error {
	topicID := os.Getenv("PUBSUB_EVENTS_TOPIC")
	if topicID == "" {
		return nil
	}
	client, err := getPubSubClient(ctx)
	if err != nil {
		return err
	}
	if msg.EmitidoEm.IsZero() {
		msg.EmitidoEm = time.Now().UTC()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	result := client.Topic(topicID).Publish(ctx, &pubsub.Message{Data: data})
	_, err = result.Get(ctx)
	return err
}
