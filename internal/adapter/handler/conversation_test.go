package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/medscribe-team/clinical-scribe/errors"
	"github.com/medscribe-team/clinical-scribe/internal/domain/entities"
	"github.com/medscribe-team/clinical-scribe/internal/infrastructure/cache"
	"github.com/medscribe-team/clinical-scribe/internal/usecase/pipeline"
	"github.com/medscribe-team/clinical-scribe/pkg/config"
	pkgvalidator "github.com/medscribe-team/clinical-scribe/pkg/validator"
)

type fakeProcessor struct {
	result *entities.PipelineResult
	err    error
	input  pipeline.Input
}

func (f *fakeProcessor) Process(ctx context.Context, in pipeline.Input) (*entities.PipelineResult, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeArtifacts struct {
	objects map[string]string
}

func (f *fakeArtifacts) GetObject(ctx context.Context, objectName string) ([]byte, error) {
	if v, ok := f.objects[objectName]; ok {
		return []byte(v), nil
	}
	return nil, errors.ErrNotFound("object")
}

func (f *fakeArtifacts) GetFileURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	return "https://storage.test/" + objectName, nil
}

func (f *fakeArtifacts) ListFiles(ctx context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func testEcho() *echo.Echo {
	e := echo.New()
	e.Validator = pkgvalidator.New()
	return e
}

func handlerConfig() *config.Config {
	return &config.Config{Storage: config.StorageConfig{URLExpiry: time.Hour}}
}

func multipartUpload(t *testing.T, fieldName, fileName string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(fieldName, fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write([]byte("fake-audio"))
	writer.Close()
	return body, writer.FormDataContentType()
}

func TestConversationCreate_Success(t *testing.T) {
	proc := &fakeProcessor{result: &entities.PipelineResult{
		RunName:            "visit_20240101_101010_abc123",
		JobName:            "vt_std_visit_abc12345",
		Service:            entities.ServiceStandard,
		DocumentConfidence: 0.9,
		ArtifactKey:        "transcripts/visit_20240101_101010_abc123_conversation.txt",
		DownloadURL:        "https://storage.test/x",
	}}
	h := NewConversation(proc, &fakeArtifacts{}, cache.NewMemoryStore(), nil, handlerConfig(), nil)

	body, contentType := multipartUpload(t, "file", "visit.mp3")
	req := httptest.NewRequest(http.MethodPost, "/v1/conversations", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()

	if err := h.Create(testEcho().NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if proc.input.FileName != "visit.mp3" {
		t.Fatalf("unexpected processed file %q", proc.input.FileName)
	}

	var resp struct {
		Data struct {
			RunName string `json:"run_name"`
			Service string `json:"service"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.RunName != "visit_20240101_101010_abc123" || resp.Data.Service != "standard" {
		t.Fatalf("unexpected response: %+v", resp.Data)
	}
}

func TestConversationCreate_RejectsUnsupportedExtension(t *testing.T) {
	h := NewConversation(&fakeProcessor{}, &fakeArtifacts{}, nil, nil, handlerConfig(), nil)

	body, contentType := multipartUpload(t, "file", "notes.pdf")
	req := httptest.NewRequest(http.MethodPost, "/v1/conversations", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()

	if err := h.Create(testEcho().NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestConversationCreate_MissingFile(t *testing.T) {
	h := NewConversation(&fakeProcessor{}, &fakeArtifacts{}, nil, nil, handlerConfig(), nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/conversations", nil)
	rec := httptest.NewRecorder()

	if err := h.Create(testEcho().NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestConversationCreate_JobFailurePropagatesCode(t *testing.T) {
	proc := &fakeProcessor{err: errors.ErrJobFailed("vt_std_x", "Media format not supported")}
	h := NewConversation(proc, &fakeArtifacts{}, nil, nil, handlerConfig(), nil)

	body, contentType := multipartUpload(t, "file", "visit.wav")
	req := httptest.NewRequest(http.MethodPost, "/v1/conversations", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()

	if err := h.Create(testEcho().NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}

	var resp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Code != "JOB_FAILED" {
		t.Fatalf("unexpected error code %q", resp.Code)
	}
}

func TestGetTranscript_CacheHit(t *testing.T) {
	store := cache.NewMemoryStore()
	store.Set("artifact:run1", "transcripts/custom_key.txt", time.Minute)
	artifacts := &fakeArtifacts{objects: map[string]string{
		"transcripts/custom_key.txt": "Document confidence: 1.0000 (100.0%)\n\n[Doctor] Hello.",
	}}
	h := NewConversation(&fakeProcessor{}, artifacts, store, nil, handlerConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := testEcho().NewContext(req, rec)
	c.SetPath("/v1/conversations/:name/transcript")
	c.SetParamNames("name")
	c.SetParamValues("run1")

	if err := h.GetTranscript(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data struct {
			ArtifactKey string `json:"artifact_key"`
			Content     string `json:"content"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.ArtifactKey != "transcripts/custom_key.txt" {
		t.Fatalf("cache hit not used: %q", resp.Data.ArtifactKey)
	}
}

func TestGetTranscript_CacheMissFallsBackToDeterministicKey(t *testing.T) {
	artifacts := &fakeArtifacts{objects: map[string]string{
		"transcripts/run1_conversation.txt": "[Doctor] Hello.",
	}}
	h := NewConversation(&fakeProcessor{}, artifacts, cache.NewMemoryStore(), nil, handlerConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := testEcho().NewContext(req, rec)
	c.SetPath("/v1/conversations/:name/transcript")
	c.SetParamNames("name")
	c.SetParamValues("run1")

	if err := h.GetTranscript(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestGetTranscript_NotFound(t *testing.T) {
	h := NewConversation(&fakeProcessor{}, &fakeArtifacts{}, nil, nil, handlerConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := testEcho().NewContext(req, rec)
	c.SetPath("/v1/conversations/:name/transcript")
	c.SetParamNames("name")
	c.SetParamValues("missing")

	if err := h.GetTranscript(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestList_PersistenceDisabledFallsBackToStorage(t *testing.T) {
	artifacts := &fakeArtifacts{objects: map[string]string{
		"transcripts/run_a_conversation.txt": "a",
		"transcripts/run_b_conversation.txt": "b",
		"input/raw.mp3":                      "media",
	}}
	h := NewConversation(&fakeProcessor{}, artifacts, nil, nil, handlerConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/conversations", nil)
	rec := httptest.NewRecorder()

	if err := h.List(testEcho().NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Data []struct {
			RunName     string `json:"run_name"`
			ArtifactKey string `json:"artifact_key"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(body.Data) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(body.Data))
	}
	if body.Data[0].RunName != "run_a" || body.Data[0].ArtifactKey != "transcripts/run_a_conversation.txt" {
		t.Fatalf("unexpected first run %+v", body.Data[0])
	}
}
