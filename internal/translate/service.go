// Package translate fills the missing locale of CMS documents through a
// chat completion model.
package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/HowestAILab/AIUPD8-Website/internal/i18n"
	"github.com/HowestAILab/AIUPD8-Website/internal/platform/jobs"
)

var (
	// ErrInvalidRequest is returned when doc, from or to is missing.
	ErrInvalidRequest = errors.New("translate: missing required fields")
	// ErrNotConfigured is returned when no API key is set.
	ErrNotConfigured = errors.New("translate: api key is not configured")
	// ErrUpstream wraps failures of the model API.
	ErrUpstream = errors.New("translate: model request failed")
)

// Translator translates a batch of strings, keeping their order.
type Translator interface {
	TranslateBatch(ctx context.Context, texts []string, from, to i18n.Locale) ([]string, error)
	Configured() bool
	Model() string
}

// Publisher announces finished translations.
type Publisher interface {
	PublishTranslation(ctx context.Context, event jobs.TranslationEvent) (string, error)
}

// Recorder counts translation outcomes.
type Recorder interface {
	Translation(result string)
}

// Request is the body of POST /api/translate.
type Request struct {
	DocumentID   string                     `json:"documentId"`
	DocumentType string                     `json:"documentType"`
	Doc          map[string]json.RawMessage `json:"doc"`
	From         string                     `json:"from"`
	To           string                     `json:"to"`
	TextFields   []string                   `json:"textFields"`
	BlockFields  []string                   `json:"blockFields"`
}

// Response carries the localized-array fields to write back.
type Response struct {
	Patch map[string]any `json:"patch"`
}

type Service struct {
	translator Translator
	publisher  Publisher
	metrics    Recorder
	logger     *zap.Logger
	now        func() time.Time
}

type Option func(*Service)

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithMetrics(r Recorder) Option {
	return func(s *Service) { s.metrics = r }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewService(t Translator, opts ...Option) *Service {
	s := &Service{
		translator: t,
		logger:     zap.NewNop(),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("translate")
	return s
}

// Translate builds the patch for req. For every listed field with a source
// entry it replaces the target locale entry and keeps all others.
func (s *Service) Translate(ctx context.Context, req Request) (Response, error) {
	res, err := s.translate(ctx, req)
	switch {
	case err == nil:
		s.record("ok")
	case errors.Is(err, ErrInvalidRequest):
		s.record("invalid")
	case errors.Is(err, ErrNotConfigured):
		s.record("not_configured")
	default:
		s.record("error")
	}
	return res, err
}

func (s *Service) translate(ctx context.Context, req Request) (Response, error) {
	if len(req.Doc) == 0 || strings.TrimSpace(req.From) == "" || strings.TrimSpace(req.To) == "" {
		return Response{}, ErrInvalidRequest
	}
	from, okFrom := i18n.Parse(req.From)
	to, okTo := i18n.Parse(req.To)
	if !okFrom || !okTo {
		return Response{}, fmt.Errorf("%w: unsupported locale %q -> %q", ErrInvalidRequest, req.From, req.To)
	}
	if s.translator == nil || !s.translator.Configured() {
		return Response{}, ErrNotConfigured
	}

	patch := map[string]any{}
	segments := 0

	var textKeys []string
	var textEntries [][]map[string]any
	var textValues []string
	for _, field := range req.TextFields {
		entries, ok := decodeEntries(req.Doc[field])
		if !ok {
			continue
		}
		src, ok := sourceValue(entries, from).(string)
		if !ok || src == "" {
			continue
		}
		textKeys = append(textKeys, field)
		textEntries = append(textEntries, entries)
		textValues = append(textValues, src)
	}
	if len(textValues) > 0 {
		translated, err := s.translator.TranslateBatch(ctx, textValues, from, to)
		if err != nil {
			return Response{}, fmt.Errorf("translate text fields: %w", err)
		}
		for i, key := range textKeys {
			patch[key] = replaceEntry(textEntries[i], to, translated[i])
		}
		segments += len(textValues)
	}

	for _, field := range req.BlockFields {
		entries, ok := decodeEntries(req.Doc[field])
		if !ok {
			continue
		}
		blocks, ok := sourceValue(entries, from).([]any)
		if !ok || len(blocks) == 0 {
			continue
		}
		translated, n, err := s.translateBlocks(ctx, blocks, from, to)
		if err != nil {
			return Response{}, fmt.Errorf("translate %s: %w", field, err)
		}
		patch[field] = replaceEntry(entries, to, translated)
		segments += n
	}

	s.publish(ctx, req, from, to, segments)
	return Response{Patch: patch}, nil
}

type spanRef struct{ block, child int }

// translateBlocks translates the text of every span child of portable text
// blocks in one batch. Marks, keys and non-text blocks are kept.
func (s *Service) translateBlocks(ctx context.Context, blocks []any, from, to i18n.Locale) ([]any, int, error) {
	cloned, err := deepCopy(blocks)
	if err != nil {
		return nil, 0, err
	}
	var refs []spanRef
	var texts []string
	for bi, b := range cloned {
		block, ok := b.(map[string]any)
		if !ok || block["_type"] != "block" {
			continue
		}
		children, _ := block["children"].([]any)
		for ci, c := range children {
			child, ok := c.(map[string]any)
			if !ok || child["_type"] != "span" {
				continue
			}
			if text, _ := child["text"].(string); text != "" {
				refs = append(refs, spanRef{block: bi, child: ci})
				texts = append(texts, text)
			}
		}
	}
	if len(texts) == 0 {
		return cloned, 0, nil
	}
	translated, err := s.translator.TranslateBatch(ctx, texts, from, to)
	if err != nil {
		return nil, 0, err
	}
	for i, ref := range refs {
		block := cloned[ref.block].(map[string]any)
		child := block["children"].([]any)[ref.child].(map[string]any)
		child["text"] = translated[i]
	}
	return cloned, len(texts), nil
}

func (s *Service) publish(ctx context.Context, req Request, from, to i18n.Locale, segments int) {
	if s.publisher == nil || segments == 0 || from == to {
		return
	}
	fields := append(append([]string{}, req.TextFields...), req.BlockFields...)
	event := jobs.TranslationEvent{
		ID:             ulid.Make().String(),
		DocumentID:     req.DocumentID,
		Field:          strings.Join(fields, ","),
		SourceLanguage: string(from),
		TargetLanguage: string(to),
		Segments:       segments,
		Model:          s.translator.Model(),
		CreatedAt:      s.now(),
	}
	if id, err := s.publisher.PublishTranslation(ctx, event); err != nil {
		s.logger.Warn("translation event not published", zap.String("documentId", req.DocumentID), zap.Error(err))
	} else {
		s.logger.Debug("translation event published", zap.String("messageId", id))
	}
}

func (s *Service) record(result string) {
	if s.metrics != nil {
		s.metrics.Translation(result)
	}
}

func decodeEntries(raw json.RawMessage) ([]map[string]any, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var entries []map[string]any
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false
	}
	return entries, true
}

func sourceValue(entries []map[string]any, locale i18n.Locale) any {
	for _, e := range entries {
		if key, _ := e["_key"].(string); key == string(locale) {
			return e["value"]
		}
	}
	return nil
}

func replaceEntry(entries []map[string]any, locale i18n.Locale, value any) []map[string]any {
	out := make([]map[string]any, 0, len(entries)+1)
	for _, e := range entries {
		if key, _ := e["_key"].(string); key == string(locale) {
			continue
		}
		out = append(out, e)
	}
	return append(out, map[string]any{"_key": string(locale), "value": value})
}

func deepCopy(v []any) ([]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out []any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
