package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/antique-korea/appraiser/internal/analysis"
	"github.com/antique-korea/appraiser/internal/clock"
	"github.com/antique-korea/appraiser/internal/history"
	"github.com/antique-korea/appraiser/internal/models"
	"github.com/antique-korea/appraiser/internal/providers"
	"github.com/antique-korea/appraiser/internal/quota"
	"github.com/antique-korea/appraiser/internal/session"
	"github.com/antique-korea/appraiser/internal/storage"
)

const goodResponse = `{
  "name": "Celadon bowl",
  "category": "ceramics",
  "era": "Goryeo dynasty, 12th century",
  "estimatedValue": "KRW 30,000,000 (USD 22,000)",
  "description": "An inlaid celadon bowl with crane motifs. Jade-green glaze. Kiln grit on the foot ring.",
  "confidence": 82
}`

type stubProvider struct {
	response string
	err      error
}

func (p *stubProvider) Name() string     { return "stub" }
func (p *stubProvider) Configured() bool { return true }
func (p *stubProvider) Generate(_ context.Context, _ providers.Request) (string, error) {
	return p.response, p.err
}

func newTestServer(t *testing.T, provider providers.Provider, limit int) (*httptest.Server, *session.Manager) {
	t.Helper()
	clk := clock.Fixed{Time: time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)}
	store := storage.NewMemStore()
	manager := session.NewManager(
		analysis.NewClient(provider, "test-model", 0.4),
		quota.NewTracker(store, clk, limit),
		history.New(store),
		store,
		clk,
	)

	mux := http.NewServeMux()
	New(manager).Routes(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, manager
}

func appraiseRequest(t *testing.T, url string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("files", "bowl.jpg")
	if err != nil {
		t.Fatal(err)
	}
	// JPEG magic bytes so content detection resolves a MIME type.
	if _, err := fw.Write([]byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 0x4a, 0x46, 0x49, 0x46}); err != nil {
		t.Fatal(err)
	}
	if err := mw.WriteField("category", "ceramics"); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req, err := http.NewRequest("POST", url+"/api/appraise", &body)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHandleAppraise_Success(t *testing.T) {
	server, _ := newTestServer(t, &stubProvider{response: goodResponse}, 3)

	resp, err := http.DefaultClient.Do(appraiseRequest(t, server.URL))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var result models.AppraisalResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Title != "Celadon bowl" || result.ID == "" {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestHandleAppraise_QuotaExceeded(t *testing.T) {
	server, _ := newTestServer(t, &stubProvider{response: goodResponse}, 1)

	resp, err := http.DefaultClient.Do(appraiseRequest(t, server.URL))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first appraisal should pass, got %d", resp.StatusCode)
	}

	resp, err = http.DefaultClient.Do(appraiseRequest(t, server.URL))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 past the limit, got %d", resp.StatusCode)
	}

	var payload struct {
		Error string         `json:"error"`
		Quota quota.Snapshot `json:"quota"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Quota.Limit != 1 || payload.Quota.Count != 1 {
		t.Errorf("expected quota 1/1 in rejection, got %+v", payload.Quota)
	}
}

func TestHandleAppraise_NoFiles(t *testing.T) {
	server, _ := newTestServer(t, &stubProvider{response: goodResponse}, 3)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("category", "ceramics"); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req, err := http.NewRequest("POST", server.URL+"/api/appraise", &body)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without files, got %d", resp.StatusCode)
	}
}

func TestHandleAppraise_UnusableProviderOutput(t *testing.T) {
	server, manager := newTestServer(t, &stubProvider{response: "not json at all"}, 3)

	resp, err := http.DefaultClient.Do(appraiseRequest(t, server.URL))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502 for unusable provider output, got %d", resp.StatusCode)
	}
	if len(manager.History()) != 0 {
		t.Error("failed appraisal must not reach history")
	}
}

func TestHandleHistoryAndDetail(t *testing.T) {
	server, manager := newTestServer(t, &stubProvider{response: goodResponse}, 3)

	resp, err := http.DefaultClient.Do(appraiseRequest(t, server.URL))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	resp, err = http.Get(server.URL + "/api/history")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var results []models.AppraisalResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(results))
	}

	detail, err := http.Get(server.URL + "/api/history/" + results[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	detail.Body.Close()
	if detail.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for known id, got %d", detail.StatusCode)
	}

	missing, err := http.Get(server.URL + "/api/history/nonexistent-id")
	if err != nil {
		t.Fatal(err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown id, got %d", missing.StatusCode)
	}

	// The read-only detail endpoint must not move the view state.
	if snap := manager.Snapshot(); snap.View != session.ViewResult {
		t.Errorf("unexpected view %s", snap.View)
	}
}

func TestHandleQuotaAndStatus(t *testing.T) {
	server, _ := newTestServer(t, &stubProvider{response: goodResponse}, 3)

	resp, err := http.Get(server.URL + "/api/quota")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var snap quota.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	if snap.Limit != 3 || snap.Count != 0 || snap.Date != "2024-06-15" {
		t.Errorf("unexpected quota %+v", snap)
	}

	status, err := http.Get(server.URL + "/api/status")
	if err != nil {
		t.Fatal(err)
	}
	defer status.Body.Close()
	var st session.Status
	if err := json.NewDecoder(status.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	if st.Provider != "stub" || !st.Configured || st.Agreed {
		t.Errorf("unexpected status %+v", st)
	}
}

func TestHandleViewSelectReset(t *testing.T) {
	server, manager := newTestServer(t, &stubProvider{response: goodResponse}, 3)

	resp, err := http.Post(server.URL+"/api/view", "application/json", strings.NewReader(`{"view":"museum"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if snap := manager.Snapshot(); snap.View != session.ViewMuseum {
		t.Errorf("expected museum view, got %s", snap.View)
	}

	resp, err = http.Post(server.URL+"/api/select", "application/json", strings.NewReader(`{"id":"nonexistent-id"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 selecting unknown id, got %d", resp.StatusCode)
	}
	if snap := manager.Snapshot(); snap.View != session.ViewMuseum {
		t.Errorf("unknown select must not transition, view=%s", snap.View)
	}

	resp, err = http.Post(server.URL+"/api/reset", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if snap := manager.Snapshot(); snap.View != session.ViewHome {
		t.Errorf("expected home after reset, got %s", snap.View)
	}
}

func TestHandleAgree(t *testing.T) {
	server, manager := newTestServer(t, &stubProvider{response: goodResponse}, 3)

	resp, err := http.Post(server.URL+"/api/agree", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if !manager.HasAgreed() {
		t.Error("expected agreement recorded")
	}
}
