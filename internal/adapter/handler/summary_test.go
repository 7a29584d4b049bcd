package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/medscribe-team/clinical-scribe/internal/usecase/summary"
	pkgai "github.com/medscribe-team/clinical-scribe/pkg/ai"
)

type fakeInference struct {
	content string
}

func (f *fakeInference) Available() bool { return true }

func (f *fakeInference) Complete(ctx context.Context, systemPrompt, userPrompt string, opts pkgai.CompleteOptions) (string, error) {
	return f.content, nil
}

func summaryRequest(body string) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/v1/summaries", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req, httptest.NewRecorder()
}

func TestSummaryCreate_Transcript(t *testing.T) {
	svc := summary.NewService(&fakeInference{content: "Concise clinical summary."}, nil)
	h := NewSummary(svc, nil)

	req, rec := summaryRequest(`{"case_text": "[Doctor] Hello.\n[Patient] Hi."}`)
	if err := h.Create(testEcho().NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data struct {
			Summary string `json:"summary"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Summary != "Concise clinical summary." {
		t.Fatalf("unexpected summary %q", resp.Data.Summary)
	}
}

func TestSummaryCreate_StructuredUnparsable(t *testing.T) {
	svc := summary.NewService(&fakeInference{content: "s"}, nil)
	h := NewSummary(svc, nil)

	req, rec := summaryRequest(`{"case_text": "free prose", "structured": true}`)
	if err := h.Create(testEcho().NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSummaryCreate_MissingCaseText(t *testing.T) {
	svc := summary.NewService(&fakeInference{content: "s"}, nil)
	h := NewSummary(svc, nil)

	req, rec := summaryRequest(`{}`)
	if err := h.Create(testEcho().NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
