package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/starford/notable/internal/extract"
	"github.com/starford/notable/internal/pipeline"
	llmmock "github.com/starford/notable/internal/provider/llm/mock"
	sttmock "github.com/starford/notable/internal/provider/stt/mock"
	"github.com/starford/notable/internal/repo"
	"github.com/starford/notable/internal/service"
	"github.com/starford/notable/internal/testutil"
)

const scenarioReply = `Sure! {"properNouns":[
	{"original":"john","corrections":["John"],"confidence":"high","type":"person"},
	{"original":"gogle","corrections":["Google"],"confidence":"high","type":"company"}
]} Hope that helps!`

type testEnv struct {
	router http.Handler
	stt    *sttmock.Provider
	llm    *llmmock.Provider
}

func newTestEnv(t *testing.T, authToken string) *testEnv {
	t.Helper()
	_, store := testutil.TestStore(t)
	logger := testutil.Logger()

	env := &testEnv{
		stt: &sttmock.Provider{Text: "I met john at gogle"},
		llm: llmmock.Reply(scenarioReply),
	}
	corrections := repo.NewCorrections(store, logger)
	p := pipeline.New(env.stt, extract.New(env.llm, 0, logger), corrections, "", nil, logger)
	svc := service.New(service.Deps{
		Corrections: corrections,
		Notes:       repo.NewNotes(store, logger),
		Pipeline:    p,
		Logger:      logger,
	})
	env.router = NewRouter(svc, authToken != "", authToken, nil)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func multipartBody(t *testing.T, withAudio bool, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if withAudio {
		fw, err := mw.CreateFormFile("audioFile", "note.webm")
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte("fake-audio"))
	}
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func (e *testEnv) transcribe(t *testing.T, withAudio bool, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, withAudio, fields)
	req := httptest.NewRequest(http.MethodPost, "/transcribe", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestTranscribe(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.transcribe(t, true, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var res pipeline.Result
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Transcription != "I met john at gogle" || len(res.ProperNouns.ProperNouns) != 2 {
		t.Errorf("result = %+v", res)
	}
	if got := string(env.stt.Calls[0].Data); got != "fake-audio" {
		t.Errorf("audio = %q", got)
	}
	if env.stt.Calls[0].Audio.Filename != "note.webm" {
		t.Errorf("filename = %q", env.stt.Calls[0].Audio.Filename)
	}
}

func TestTranscribeCorrectionsField(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.transcribe(t, true, map[string]string{
		"corrections": `[{"original":"Blanca","corrected":"Bianca"}]`,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if sys := env.llm.CompleteCalls[0].Req.SystemPrompt; !strings.Contains(sys, `"Blanca" should be "Bianca"`) {
		t.Error("corrections field not used in prompt")
	}

	// A malformed field is ignored, not rejected.
	w = env.transcribe(t, true, map[string]string{"corrections": "{oops"})
	if w.Code != http.StatusOK {
		t.Fatalf("malformed corrections status = %d", w.Code)
	}
	if sys := env.llm.CompleteCalls[1].Req.SystemPrompt; strings.Contains(sys, "IMPORTANT") {
		t.Error("malformed corrections should yield no directive block")
	}
}

func TestTranscribeMissingAudio(t *testing.T) {
	env := newTestEnv(t, "")
	if w := env.transcribe(t, false, nil); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestTranscribeErrorMapping(t *testing.T) {
	env := newTestEnv(t, "")
	env.stt.Err = errors.New("upstream 503")
	if w := env.transcribe(t, true, nil); w.Code != http.StatusBadGateway {
		t.Errorf("stt failure status = %d, want 502", w.Code)
	}

	env = newTestEnv(t, "")
	env.llm.CompleteResponse.Content = "I found nothing"
	w := env.transcribe(t, true, nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad reply status = %d, want 422", w.Code)
	}
	var body errResponse
	json.Unmarshal(w.Body.Bytes(), &body)
	if !strings.Contains(body.Error, "I found nothing") {
		t.Errorf("error = %q, want reply snippet", body.Error)
	}
}

func TestExtractAndSegment(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(t, http.MethodPost, "/extract", map[string]string{"text": "   "})
	if w.Code != http.StatusOK {
		t.Fatalf("blank extract status = %d", w.Code)
	}
	if strings.TrimSpace(w.Body.String()) != `{"properNouns":[]}` {
		t.Errorf("blank extract body = %s", w.Body.String())
	}
	if env.llm.Calls() != 0 {
		t.Error("blank extract reached the model")
	}

	w = env.do(t, http.MethodPost, "/extract", map[string]string{"text": "I met john at gogle"})
	if w.Code != http.StatusOK {
		t.Fatalf("extract status = %d", w.Code)
	}
	var extracted struct {
		ProperNouns json.RawMessage `json:"properNouns"`
	}
	json.Unmarshal(w.Body.Bytes(), &extracted)

	seg := `{"text":"I met john at gogle","properNouns":` + string(extracted.ProperNouns) + `}`
	w = env.do(t, http.MethodPost, "/segment", seg)
	if w.Code != http.StatusOK {
		t.Fatalf("segment status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Segments []struct {
			Text       string          `json:"text"`
			ProperNoun json.RawMessage `json:"properNoun"`
		} `json:"segments"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Segments) != 4 || resp.Segments[3].Text != "gogle" || resp.Segments[3].ProperNoun == nil {
		t.Errorf("segments = %s", w.Body.String())
	}

	w = env.do(t, http.MethodPost, "/segment", map[string]any{"text": "plain", "properNouns": []any{}})
	if strings.TrimSpace(w.Body.String()) != `{"segments":"plain"}` {
		t.Errorf("plain segment body = %s", w.Body.String())
	}
}

func TestSegmentRejectsInvalidNoun(t *testing.T) {
	env := newTestEnv(t, "")
	w := env.do(t, http.MethodPost, "/segment",
		`{"text":"x","properNouns":[{"original":"x","corrections":[],"confidence":"maybe","type":"person"}]}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestCorrectionsCRUD(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(t, http.MethodPost, "/corrections", map[string]string{"original": "Blanca", "corrected": "Bianca"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var created CorrectionResponse
	json.Unmarshal(w.Body.Bytes(), &created)

	w = env.do(t, http.MethodPost, "/corrections", map[string]string{"original": "blanca", "corrected": "Bianca V2"})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d", w.Code)
	}

	w = env.do(t, http.MethodGet, "/corrections", nil)
	var list CorrectionListResponse
	json.Unmarshal(w.Body.Bytes(), &list)
	if len(list.Corrections) != 1 || list.Corrections[0].Corrected != "Bianca V2" || list.Corrections[0].ID != created.Correction.ID {
		t.Errorf("list = %+v", list.Corrections)
	}

	w = env.do(t, http.MethodGet, "/prompt", nil)
	var p PromptResponse
	json.Unmarshal(w.Body.Bytes(), &p)
	if !strings.Contains(p.Prompt, `"Blanca" should be "Bianca V2"`) {
		t.Error("prompt does not reflect stored correction")
	}

	if w := env.do(t, http.MethodDelete, "/corrections/nope", nil); w.Code != http.StatusNotFound {
		t.Errorf("delete missing = %d, want 404", w.Code)
	}
	if w := env.do(t, http.MethodDelete, "/corrections/"+created.Correction.ID, nil); w.Code != http.StatusNoContent {
		t.Errorf("delete = %d, want 204", w.Code)
	}
	if w := env.do(t, http.MethodPost, "/corrections", map[string]string{"original": "x"}); w.Code != http.StatusBadRequest {
		t.Errorf("invalid create = %d, want 400", w.Code)
	}
	if w := env.do(t, http.MethodPost, "/corrections", "{"); w.Code != http.StatusBadRequest {
		t.Errorf("bad JSON = %d, want 400", w.Code)
	}
}

func TestApplyCorrection(t *testing.T) {
	env := newTestEnv(t, "")
	body := `{"text":"I met john at gogle","original":"gogle","corrected":"Google","offset":14,
		"properNouns":[{"original":"john","corrections":["John"],"confidence":"high","type":"person"}]}`
	w := env.do(t, http.MethodPost, "/corrections/apply", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var out struct {
		Text     string            `json:"text"`
		Segments []json.RawMessage `json:"segments"`
	}
	json.Unmarshal(w.Body.Bytes(), &out)
	if out.Text != "I met john at Google" || len(out.Segments) != 3 {
		t.Errorf("outcome = %s", w.Body.String())
	}

	w = env.do(t, http.MethodGet, "/corrections", nil)
	if !strings.Contains(w.Body.String(), `"corrected":"Google"`) {
		t.Errorf("correction not stored: %s", w.Body.String())
	}

	if w := env.do(t, http.MethodPost, "/corrections/apply", `{"text":"x","original":"x","corrected":"y","offset":-1}`); w.Code != http.StatusBadRequest {
		t.Errorf("negative offset = %d, want 400", w.Code)
	}
}

func TestNotesCRUD(t *testing.T) {
	env := newTestEnv(t, "")

	if w := env.do(t, http.MethodPost, "/notes", map[string]string{"text": ""}); w.Code != http.StatusBadRequest {
		t.Errorf("blank note = %d, want 400", w.Code)
	}
	w := env.do(t, http.MethodPost, "/notes", map[string]string{"text": "Met Bianca"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d", w.Code)
	}
	var n struct {
		ID string `json:"id"`
	}
	json.Unmarshal(w.Body.Bytes(), &n)

	w = env.do(t, http.MethodGet, "/notes", nil)
	var list NoteListResponse
	json.Unmarshal(w.Body.Bytes(), &list)
	if len(list.Notes) != 1 || list.Notes[0].Text != "Met Bianca" {
		t.Errorf("notes = %+v", list.Notes)
	}

	if w := env.do(t, http.MethodDelete, "/notes/"+n.ID, nil); w.Code != http.StatusNoContent {
		t.Errorf("delete = %d", w.Code)
	}
	if w := env.do(t, http.MethodDelete, "/notes/"+n.ID, nil); w.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", w.Code)
	}
}

func TestAuthTokenMode(t *testing.T) {
	env := newTestEnv(t, "secret")

	if w := env.do(t, http.MethodGet, "/notes", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("no token = %d, want 401", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid token = %d, want 200", w.Code)
	}
}
