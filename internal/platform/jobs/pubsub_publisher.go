package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"
)

// TranslationEvent announces that a translation was produced so editors can
// review it in the CMS.
type TranslationEvent struct {
	ID             string    `json:"id"`
	DocumentID     string    `json:"documentId,omitempty"`
	Field          string    `json:"field,omitempty"`
	SourceLanguage string    `json:"sourceLanguage"`
	TargetLanguage string    `json:"targetLanguage"`
	Segments       int       `json:"segments"`
	Model          string    `json:"model,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// PubSubTranslationPublisher publishes TranslationEvents to a topic.
type PubSubTranslationPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

func NewPubSubTranslationPublisher(topic *pubsub.Topic) (*PubSubTranslationPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub translation publisher: topic is required")
	}
	return &PubSubTranslationPublisher{topic: topic, marshal: json.Marshal}, nil
}

// PublishTranslation blocks until the server acknowledges the message and
// returns its id.
func (p *PubSubTranslationPublisher) PublishTranslation(ctx context.Context, event TranslationEvent) (string, error) {
	if p == nil || p.topic == nil {
		return "", errors.New("pubsub translation publisher: not initialised")
	}
	data, err := p.marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal translation event: %w", err)
	}

	attrs := map[string]string{"segments": strconv.Itoa(event.Segments)}
	setAttr(attrs, "eventId", event.ID)
	setAttr(attrs, "documentId", event.DocumentID)
	setAttr(attrs, "sourceLanguage", event.SourceLanguage)
	setAttr(attrs, "targetLanguage", event.TargetLanguage)

	id, err := p.topic.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs}).Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish translation event: %w", err)
	}
	return id, nil
}

func setAttr(attrs map[string]string, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}
