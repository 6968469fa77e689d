package pipeline

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docsentry/constants"
	"docsentry/internal/common"
	"docsentry/internal/convert"
	"docsentry/internal/entity"
	"docsentry/internal/repository/mocks"
	"docsentry/internal/storage"
	storagemocks "docsentry/internal/storage/mocks"
)

type stubDetector struct {
	items []entity.DetectedItem
	err   error
	panic bool
	calls int
}

func (d *stubDetector) Detect(_ context.Context, _ string) ([]entity.DetectedItem, error) {
	d.calls++
	if d.panic {
		panic("detector blew up")
	}
	return d.items, d.err
}

func testDocument() *entity.DocumentRecord {
	return &entity.DocumentRecord{
		ID:               uuid.New(),
		OriginalFilename: "umowa.pdf",
		OriginalFormat:   "pdf",
		ObjectKey:        "documents/2026/umowa.pdf",
		ContentType:      "application/pdf",
		ConversionStatus: constants.ConversionPending,
	}
}

// recordUpdates wires the repository mock to accept any update and capture
// it in call order.
func recordUpdates(repo *mocks.MockDocumentRepository, id uuid.UUID) *[]entity.DocumentUpdate {
	updates := &[]entity.DocumentUpdate{}
	repo.On("Update", mock.Anything, id, mock.AnythingOfType("entity.DocumentUpdate")).
		Run(func(args mock.Arguments) {
			*updates = append(*updates, args.Get(2).(entity.DocumentUpdate))
		}).
		Return(nil)
	return updates
}

func newTestProcessor(t *testing.T, doc *entity.DocumentRecord, conversionURL string, det *stubDetector) (*Processor, *[]entity.DocumentUpdate) {
	t.Helper()

	repo := new(mocks.MockDocumentRepository)
	repo.On("GetByID", mock.Anything, doc.ID).Return(doc, nil)
	updates := recordUpdates(repo, doc.ID)

	blobs := new(storagemocks.MockStorage)
	blobs.On("Get", mock.Anything, doc.ObjectKey).
		Return(io.NopCloser(strings.NewReader("raw document bytes")), storage.ObjectInfo{Key: doc.ObjectKey}, nil).
		Maybe()

	conversion := NewConversionStage(nil, repo, blobs, convert.NewClient(conversionURL, 5*time.Second, nil))

	var analysis *AnalysisStage
	if det != nil {
		analysis = NewAnalysisStage(nil, repo, det)
	}
	return NewProcessor(nil, repo, conversion, analysis, nil), updates
}

func TestProcessDocument_HappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"text":"PESEL 44051401359","metadata":{"filename":"umowa.pdf","size":18,"date":"2026-08-28"}}`))
	}))
	defer srv.Close()

	doc := testDocument()
	det := &stubDetector{items: []entity.DetectedItem{
		{Category: constants.Identity, Value: "44051401359", Label: "PESEL"},
	}}
	proc, updates := newTestProcessor(t, doc, srv.URL, det)

	proc.ProcessDocument(context.Background(), doc.ID)

	require.Len(t, *updates, 3)

	conv := (*updates)[0]
	require.NotNil(t, conv.ConversionStatus)
	assert.Equal(t, constants.ConversionCompleted, *conv.ConversionStatus)
	require.NotNil(t, conv.NormalizedText)
	assert.Equal(t, "PESEL 44051401359", *conv.NormalizedText)
	require.NotNil(t, conv.Metadata)
	assert.Equal(t, "umowa.pdf", conv.Metadata.Filename)
	assert.NotNil(t, conv.ConvertedAt)

	pending := (*updates)[1]
	require.NotNil(t, pending.AnalysisResult)
	assert.Equal(t, constants.AnalysisPending, pending.AnalysisResult.Status)
	assert.Nil(t, pending.ProcessingTimeSeconds)

	final := (*updates)[2]
	require.NotNil(t, final.AnalysisResult)
	assert.Equal(t, constants.AnalysisCompleted, final.AnalysisResult.Status)
	require.Len(t, final.AnalysisResult.DetectedItems, 1)
	assert.Equal(t, "PESEL", final.AnalysisResult.DetectedItems[0].Label)
	assert.NotNil(t, final.AnalysisResult.AnalysisTimeSeconds)
	assert.NotNil(t, final.ProcessingTimeSeconds)
	assert.Equal(t, 1, det.calls)
}

func TestProcessDocument_ConversionUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "converter exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	doc := testDocument()
	det := &stubDetector{}
	proc, updates := newTestProcessor(t, doc, srv.URL, det)

	proc.ProcessDocument(context.Background(), doc.ID)

	require.Len(t, *updates, 1)
	failed := (*updates)[0]
	require.NotNil(t, failed.ConversionStatus)
	assert.Equal(t, constants.ConversionFailed, *failed.ConversionStatus)
	require.NotNil(t, failed.ConversionError)
	assert.Contains(t, *failed.ConversionError, "Error from Conversion (500)")
	assert.Contains(t, *failed.ConversionError, "converter exploded")
	assert.NotNil(t, failed.ProcessingTimeSeconds)
	assert.Equal(t, 0, det.calls)
}

func TestProcessDocument_ConversionNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	doc := testDocument()
	proc, updates := newTestProcessor(t, doc, srv.URL, &stubDetector{})

	proc.ProcessDocument(context.Background(), doc.ID)

	require.Len(t, *updates, 1)
	require.NotNil(t, (*updates)[0].ConversionError)
	assert.Contains(t, *(*updates)[0].ConversionError, "Network error calling Conversion")
}

func TestProcessDocument_NullTextSkipsAnalysis(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"text":null,"metadata":{"filename":"skan.png","size":3,"date":"2026-08-28"}}`))
	}))
	defer srv.Close()

	doc := testDocument()
	det := &stubDetector{}
	proc, updates := newTestProcessor(t, doc, srv.URL, det)

	proc.ProcessDocument(context.Background(), doc.ID)

	require.Len(t, *updates, 2)

	conv := (*updates)[0]
	require.NotNil(t, conv.ConversionStatus)
	assert.Equal(t, constants.ConversionCompleted, *conv.ConversionStatus)
	assert.Nil(t, conv.NormalizedText)

	skipped := (*updates)[1]
	require.NotNil(t, skipped.AnalysisResult)
	assert.Equal(t, constants.AnalysisSkipped, skipped.AnalysisResult.Status)
	require.NotNil(t, skipped.AnalysisResult.Error)
	assert.Equal(t, "No text from conversion", *skipped.AnalysisResult.Error)
	assert.Equal(t, 0, det.calls)
}

func TestProcessDocument_DetectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"text":"jakis tekst","metadata":{"filename":"umowa.pdf","size":11,"date":"2026-08-28"}}`))
	}))
	defer srv.Close()

	doc := testDocument()
	det := &stubDetector{err: common.UpstreamError("Error from Detection (400): bad request", errors.New("bad request"))}
	proc, updates := newTestProcessor(t, doc, srv.URL, det)

	proc.ProcessDocument(context.Background(), doc.ID)

	require.Len(t, *updates, 3)
	final := (*updates)[2]
	require.NotNil(t, final.AnalysisResult)
	assert.Equal(t, constants.AnalysisFailed, final.AnalysisResult.Status)
	require.NotNil(t, final.AnalysisResult.Error)
	assert.Contains(t, *final.AnalysisResult.Error, "Error from Detection (400)")
}

func TestProcessDocument_NoDetectorSkipsAnalysisStage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"text":"jakis tekst","metadata":{"filename":"umowa.pdf","size":11,"date":"2026-08-28"}}`))
	}))
	defer srv.Close()

	doc := testDocument()
	proc, updates := newTestProcessor(t, doc, srv.URL, nil)

	proc.ProcessDocument(context.Background(), doc.ID)

	require.Len(t, *updates, 1)
	require.NotNil(t, (*updates)[0].ConversionStatus)
	assert.Equal(t, constants.ConversionCompleted, *(*updates)[0].ConversionStatus)
}

func TestProcessDocument_RecoversFromPanic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"text":"jakis tekst","metadata":{"filename":"umowa.pdf","size":11,"date":"2026-08-28"}}`))
	}))
	defer srv.Close()

	doc := testDocument()
	proc, _ := newTestProcessor(t, doc, srv.URL, &stubDetector{panic: true})

	assert.NotPanics(t, func() {
		proc.ProcessDocument(context.Background(), doc.ID)
	})
}

func TestProcessDocument_StatusWriteFailureOnlyLogged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"text":"jakis tekst","metadata":{"filename":"umowa.pdf","size":11,"date":"2026-08-28"}}`))
	}))
	defer srv.Close()

	doc := testDocument()
	repo := new(mocks.MockDocumentRepository)
	repo.On("GetByID", mock.Anything, doc.ID).Return(doc, nil)
	repo.On("Update", mock.Anything, doc.ID, mock.Anything).Return(errors.New("db down"))

	blobs := new(storagemocks.MockStorage)
	blobs.On("Get", mock.Anything, doc.ObjectKey).
		Return(io.NopCloser(strings.NewReader("raw")), storage.ObjectInfo{}, nil)

	conversion := NewConversionStage(nil, repo, blobs, convert.NewClient(srv.URL, 5*time.Second, nil))
	analysis := NewAnalysisStage(nil, repo, &stubDetector{})
	proc := NewProcessor(nil, repo, conversion, analysis, nil)

	assert.NotPanics(t, func() {
		proc.ProcessDocument(context.Background(), doc.ID)
	})
}

func TestReanalyze_ConflictWhilePending(t *testing.T) {
	doc := testDocument()
	doc.ConversionStatus = constants.ConversionCompleted
	doc.AnalysisResult = &entity.AnalysisResult{Status: constants.AnalysisPending}

	repo := new(mocks.MockDocumentRepository)
	repo.On("GetByID", mock.Anything, doc.ID).Return(doc, nil)

	proc := NewProcessor(nil, repo, nil, NewAnalysisStage(nil, repo, &stubDetector{}), nil)
	_, _, err := proc.Reanalyze(context.Background(), doc.ID)
	require.Error(t, err)
	assert.Equal(t, common.KindConflict, common.KindOf(err))
}

func TestReanalyze_RequiresConvertedDocument(t *testing.T) {
	doc := testDocument()

	repo := new(mocks.MockDocumentRepository)
	repo.On("GetByID", mock.Anything, doc.ID).Return(doc, nil)

	proc := NewProcessor(nil, repo, nil, NewAnalysisStage(nil, repo, &stubDetector{}), nil)
	_, _, err := proc.Reanalyze(context.Background(), doc.ID)
	require.Error(t, err)
	assert.Equal(t, common.KindValidation, common.KindOf(err))
}

func TestReanalyze_RunsDetectionOnStoredText(t *testing.T) {
	text := "PESEL 44051401359"
	doc := testDocument()
	doc.ConversionStatus = constants.ConversionCompleted
	doc.NormalizedText = &text
	doc.AnalysisResult = &entity.AnalysisResult{Status: constants.AnalysisCompleted}

	repo := new(mocks.MockDocumentRepository)
	repo.On("GetByID", mock.Anything, doc.ID).Return(doc, nil)
	updates := recordUpdates(repo, doc.ID)

	det := &stubDetector{items: []entity.DetectedItem{
		{Category: constants.Identity, Value: "44051401359", Label: "PESEL"},
	}}
	proc := NewProcessor(nil, repo, nil, NewAnalysisStage(nil, repo, det), nil)

	status, items, err := proc.Reanalyze(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.AnalysisCompleted, status)
	assert.Equal(t, 1, items)
	require.Len(t, *updates, 2)
}
