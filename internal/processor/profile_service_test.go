package processor

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-applier-go/internal/parser"
	"job-applier-go/internal/storage"
	"job-applier-go/internal/storage/models"
)

type fakeText struct {
	text string
	err  error
}

func (f fakeText) Extract(context.Context, string, []byte) (string, error) {
	return f.text, f.err
}

type memoryCache struct {
	data map[string][]byte
	sets int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (c *memoryCache) GetJSON(_ context.Context, key string, dest any) (bool, error) {
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dest)
}

func (c *memoryCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.sets++
	c.data[key] = b
	return nil
}

type fakeArchiver struct {
	uploads []string
	err     error
}

func (a *fakeArchiver) UploadOriginal(_ context.Context, recordID, filename string, _ []byte) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	key := storage.OriginalObjectKey(recordID, filename)
	a.uploads = append(a.uploads, key)
	return key, nil
}

type fakeRecorder struct {
	records []*models.ExtractionRecord
	events  []*models.OutboxMessage
	err     error
}

func (r *fakeRecorder) SaveExtraction(_ context.Context, rec *models.ExtractionRecord, event *models.OutboxMessage) error {
	r.records = append(r.records, rec)
	r.events = append(r.events, event)
	return r.err
}

func newTestService(text parser.TextExtractor, fields parser.FieldExtractor, opts ...ServiceOption) *ProfileService {
	return NewProfileService(text, NewProfileExtractor(fields), opts...)
}

func TestExtractFromTextInsufficient(t *testing.T) {
	fields := &scriptedFields{}
	svc := newTestService(nil, fields)

	_, err := svc.ExtractFromText(context.Background(), "   too short   ")
	assert.ErrorIs(t, err, ErrInsufficientText)
	assert.Empty(t, fields.fragments, "no model call for short text")

	// 按字符计数而不是字节
	_, err = svc.ExtractFromText(context.Background(), strings.Repeat("é", 49))
	assert.ErrorIs(t, err, ErrInsufficientText)
	_, err = svc.ExtractFromText(context.Background(), strings.Repeat("é", 50))
	assert.NoError(t, err)
}

func TestExtractFromFileUnsupportedExtension(t *testing.T) {
	svc := newTestService(fakeText{text: janeCV}, &scriptedFields{})
	_, err := svc.ExtractFromFile(context.Background(), "cv.png", []byte("x"))
	assert.ErrorIs(t, err, parser.ErrUnsupportedFileType)
}

func TestExtractFromFileTextFailure(t *testing.T) {
	svc := newTestService(fakeText{err: parser.ErrEmptyDocument}, &scriptedFields{})
	_, err := svc.ExtractFromFile(context.Background(), "cv.PDF", []byte("%PDF"))
	assert.ErrorIs(t, err, ErrTextExtraction)
	assert.ErrorIs(t, err, parser.ErrEmptyDocument)
}

func TestExtractFromFileShortDocument(t *testing.T) {
	svc := newTestService(fakeText{text: "Jane"}, &scriptedFields{})
	_, err := svc.ExtractFromFile(context.Background(), "cv.txt", []byte("Jane"))
	assert.ErrorIs(t, err, ErrInsufficientText)
}

func TestExtractUsesCache(t *testing.T) {
	cache := newMemoryCache()
	fields := &scriptedFields{byField: map[string]map[string]string{
		"firstName": {"firstName": "Jane", "lastName": "Doe"},
	}}
	svc := newTestService(nil, fields, WithCache(cache, time.Minute))

	first, err := svc.ExtractFromText(context.Background(), janeCV)
	require.NoError(t, err)
	calls := len(fields.fragments)
	require.Positive(t, calls)
	assert.Equal(t, 1, cache.sets)

	second, err := svc.ExtractFromText(context.Background(), janeCV)
	require.NoError(t, err)
	assert.Equal(t, calls, len(fields.fragments), "cache hit skips the model")
	assert.Equal(t, first.ContactInfo, second.ContactInfo)
	assert.Equal(t, first.Experiences, second.Experiences)
	assert.Equal(t, janeCV, second.RawText)
}

func TestExtractFromFileArchivesAndRecords(t *testing.T) {
	archiver := &fakeArchiver{}
	recorder := &fakeRecorder{}
	svc := newTestService(fakeText{text: janeCV}, &scriptedFields{},
		WithArchiver(archiver),
		WithRecorder(recorder, EventTarget{Exchange: "profile.events", RoutingKey: "profile.extracted"}),
	)

	profile, err := svc.ExtractFromFile(context.Background(), "Jane.TXT", []byte(janeCV))
	require.NoError(t, err)
	assert.Equal(t, "jane@x.com", profile.ContactInfo.Email)

	require.Len(t, archiver.uploads, 1)
	assert.True(t, strings.HasSuffix(archiver.uploads[0], "/original.txt"))

	require.Len(t, recorder.records, 1)
	rec := recorder.records[0]
	assert.Equal(t, SourceUpload, rec.Source)
	assert.Equal(t, "Jane.TXT", rec.OriginalFilename)
	assert.Equal(t, archiver.uploads[0], rec.OriginalObjectKey)
	assert.Equal(t, "Jane Doe", rec.CandidateName)
	assert.Len(t, rec.RecordID, 36)

	event := recorder.events[0]
	require.NotNil(t, event)
	assert.Equal(t, rec.RecordID, event.AggregateID)
	assert.Equal(t, storage.EventProfileExtracted, event.EventType)
	assert.Equal(t, "profile.events", event.TargetExchange)
	assert.Equal(t, models.OutboxStatusPending, event.Status)

	var payload storage.ProfileExtractedMessage
	require.NoError(t, json.Unmarshal([]byte(event.Payload), &payload))
	assert.Equal(t, "jane@x.com", payload.CandidateEmail)
}

func TestExtractToleratesStorageFailures(t *testing.T) {
	archiver := &fakeArchiver{err: errors.New("minio down")}
	recorder := &fakeRecorder{err: errors.New("mysql down")}
	svc := newTestService(fakeText{text: janeCV}, &scriptedFields{},
		WithArchiver(archiver),
		WithRecorder(recorder, EventTarget{}),
	)

	profile, err := svc.ExtractFromFile(context.Background(), "cv.txt", []byte(janeCV))
	require.NoError(t, err)
	require.NotNil(t, profile)

	require.Len(t, recorder.records, 1)
	assert.Equal(t, "", recorder.records[0].OriginalObjectKey)
	assert.Nil(t, recorder.events[0], "no exchange configured, no outbox event")
}

func TestAutofillIsNotArchived(t *testing.T) {
	archiver := &fakeArchiver{}
	recorder := &fakeRecorder{}
	svc := newTestService(nil, &scriptedFields{}, WithArchiver(archiver), WithRecorder(recorder, EventTarget{}))

	_, err := svc.ExtractFromText(context.Background(), janeCV)
	require.NoError(t, err)
	assert.Empty(t, archiver.uploads)
	require.Len(t, recorder.records, 1)
	assert.Equal(t, SourceAutofill, recorder.records[0].Source)
}

func TestProfileErrorIs(t *testing.T) {
	err := newProfileError("r1", "archive", ErrArchiveFailed, errors.New("boom"))
	assert.ErrorIs(t, err, ErrArchiveFailed)
	assert.Contains(t, err.Error(), "op:archive")
	assert.Contains(t, err.Error(), "boom")
}

func TestIsAllowedExtension(t *testing.T) {
	for _, name := range []string{"a.pdf", "a.DOCX", "a.doc", "a.txt"} {
		assert.True(t, IsAllowedExtension(name), name)
	}
	for _, name := range []string{"a.png", "noext", "a.pdf.exe"} {
		assert.False(t, IsAllowedExtension(name), name)
	}
}
