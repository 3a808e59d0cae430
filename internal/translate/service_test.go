package translate

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HowestAILab/AIUPD8-Website/internal/i18n"
	"github.com/HowestAILab/AIUPD8-Website/internal/platform/jobs"
)

type fakeTranslator struct {
	configured bool
	calls      [][]string
	err        error
}

func (f *fakeTranslator) TranslateBatch(_ context.Context, texts []string, from, to i18n.Locale) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	if from == to {
		return texts, nil
	}
	f.calls = append(f.calls, texts)
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = strings.ToUpper(t)
	}
	return out, nil
}

func (f *fakeTranslator) Configured() bool { return f.configured }
func (f *fakeTranslator) Model() string    { return "fake" }

type fakePublisher struct{ events []jobs.TranslationEvent }

func (p *fakePublisher) PublishTranslation(_ context.Context, e jobs.TranslationEvent) (string, error) {
	p.events = append(p.events, e)
	return "msg-1", nil
}

type resultCounter map[string]int

func (r resultCounter) Translation(result string) { r[result]++ }

const sampleDoc = `{
  "title": [
    {"_key": "nl", "_type": "internationalizedArrayStringValue", "value": "Hallo wereld"},
    {"_key": "en", "_type": "internationalizedArrayStringValue", "value": "stale"}
  ],
  "toolsentence": [{"_key": "en", "value": "only english"}],
  "description": "legacy scalar",
  "body": [
    {"_key": "nl", "value": [
      {"_type": "block", "_key": "b1", "style": "normal", "markDefs": [], "children": [
        {"_type": "span", "_key": "s1", "text": "Eerste", "marks": ["strong"]},
        {"_type": "span", "_key": "s2", "text": "", "marks": []}
      ]},
      {"_type": "image", "_key": "img", "asset": {"_ref": "image-x"}},
      {"_type": "block", "_key": "b2", "children": [{"_type": "span", "_key": "s3", "text": "Tweede"}]}
    ]}
  ]
}`

func sampleRequest(t *testing.T) Request {
	t.Helper()
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(sampleDoc), &doc))
	return Request{
		DocumentID:  "tool-1",
		Doc:         doc,
		From:        "nl",
		To:          "en",
		TextFields:  []string{"title", "toolsentence", "description", "missing"},
		BlockFields: []string{"body"},
	}
}

func TestTranslateBuildsPatch(t *testing.T) {
	tr := &fakeTranslator{configured: true}
	pub := &fakePublisher{}
	counts := resultCounter{}
	svc := NewService(tr, WithPublisher(pub), WithMetrics(counts))

	res, err := svc.Translate(context.Background(), sampleRequest(t))
	require.NoError(t, err)

	encoded, err := json.Marshal(res.Patch)
	require.NoError(t, err)
	var patch map[string][]map[string]any
	require.NoError(t, json.Unmarshal(encoded, &patch))

	require.Contains(t, patch, "title")
	assert.NotContains(t, patch, "toolsentence")
	assert.NotContains(t, patch, "description")
	require.Len(t, patch["title"], 2)
	assert.Equal(t, "nl", patch["title"][0]["_key"])
	assert.Equal(t, "internationalizedArrayStringValue", patch["title"][0]["_type"])
	assert.Equal(t, map[string]any{"_key": "en", "value": "HALLO WERELD"}, patch["title"][1])

	body := patch["body"]
	require.Len(t, body, 2)
	blocks := body[1]["value"].([]any)
	require.Len(t, blocks, 3)
	children := blocks[0].(map[string]any)["children"].([]any)
	assert.Equal(t, "EERSTE", children[0].(map[string]any)["text"])
	assert.Equal(t, []any{"strong"}, children[0].(map[string]any)["marks"])
	assert.Equal(t, "", children[1].(map[string]any)["text"])
	assert.Equal(t, "image", blocks[1].(map[string]any)["_type"])

	source := body[0]["value"].([]any)[0].(map[string]any)["children"].([]any)[0].(map[string]any)
	assert.Equal(t, "Eerste", source["text"], "source locale is untouched")

	assert.Equal(t, [][]string{{"Hallo wereld"}, {"Eerste", "Tweede"}}, tr.calls)
	require.Len(t, pub.events, 1)
	assert.Equal(t, 3, pub.events[0].Segments)
	assert.Equal(t, "nl", pub.events[0].SourceLanguage)
	assert.Equal(t, "fake", pub.events[0].Model)
	assert.Equal(t, 1, counts["ok"])
}

func TestTranslateSameLocaleKeepsValues(t *testing.T) {
	tr := &fakeTranslator{configured: true}
	pub := &fakePublisher{}
	req := sampleRequest(t)
	req.To = "nl"

	res, err := NewService(tr, WithPublisher(pub)).Translate(context.Background(), req)
	require.NoError(t, err)
	title := res.Patch["title"].([]map[string]any)
	assert.Equal(t, "Hallo wereld", title[len(title)-1]["value"])
	assert.Empty(t, tr.calls)
	assert.Empty(t, pub.events)
}

func TestTranslateValidation(t *testing.T) {
	counts := resultCounter{}
	svc := NewService(&fakeTranslator{configured: true}, WithMetrics(counts))

	for _, req := range []Request{
		{},
		{Doc: map[string]json.RawMessage{"title": json.RawMessage(`[]`)}, From: "nl"},
		{Doc: map[string]json.RawMessage{"title": json.RawMessage(`[]`)}, From: "nl", To: "fr"},
	} {
		_, err := svc.Translate(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidRequest)
	}
	assert.Equal(t, 3, counts["invalid"])

	_, err := NewService(&fakeTranslator{}).Translate(context.Background(), sampleRequest(t))
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewService(nil).Translate(context.Background(), sampleRequest(t))
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestTranslateUpstreamFailure(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewService(&fakeTranslator{configured: true, err: boom}).Translate(context.Background(), sampleRequest(t))
	assert.ErrorIs(t, err, boom)
}

func TestLimiter(t *testing.T) {
	l := NewLimiter(2)
	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"), "clients are limited independently")
}
