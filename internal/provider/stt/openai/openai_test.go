package openai

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/starford/notable/internal/provider/stt"
)

func TestNewValidation(t *testing.T) {
	if _, err := New("", ""); err == nil {
		t.Error("expected error for empty api key")
	}
	p, err := New("key", "")
	if err != nil {
		t.Fatal(err)
	}
	if p.model != DefaultModel {
		t.Errorf("model = %q, want %q", p.model, DefaultModel)
	}
}

func TestTranscribe(t *testing.T) {
	var (
		gotModel, gotPrompt, gotFilename string
		gotAudio                         []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/audio/transcriptions") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
		}
		gotModel = r.FormValue("model")
		gotPrompt = r.FormValue("prompt")
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
		} else {
			gotFilename = hdr.Filename
			gotAudio, _ = io.ReadAll(f)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"I met john at gogle"}`))
	}))
	defer srv.Close()

	p, err := New("key", "", WithBaseURL(srv.URL), WithMaxRetries(0))
	if err != nil {
		t.Fatal(err)
	}
	text, err := p.Transcribe(context.Background(), stt.Audio{
		Data:        strings.NewReader("RIFFdata"),
		Filename:    "clip.wav",
		ContentType: "audio/wav",
		Vocabulary:  []string{"Google", "John", "Google"},
	})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "I met john at gogle" {
		t.Errorf("text = %q", text)
	}
	if gotModel != DefaultModel {
		t.Errorf("model = %q", gotModel)
	}
	if gotPrompt != "Google, John" {
		t.Errorf("prompt = %q", gotPrompt)
	}
	if gotFilename != "clip.wav" || string(gotAudio) != "RIFFdata" {
		t.Errorf("file = %q %q", gotFilename, gotAudio)
	}
}

func TestTranscribeLanguage(t *testing.T) {
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
		}
		got = append(got, r.FormValue("language"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"hola"}`))
	}))
	defer srv.Close()

	p, err := New("key", "", WithBaseURL(srv.URL), WithMaxRetries(0), WithLanguage("es"))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if _, err := p.Transcribe(ctx, stt.Audio{Data: strings.NewReader("a")}); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Transcribe(ctx, stt.Audio{Data: strings.NewReader("a"), Language: "pt"}); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "es" || got[1] != "pt" {
		t.Errorf("language = %v, want [es pt]", got)
	}
}

func TestTranscribeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad audio"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	p, _ := New("key", "", WithBaseURL(srv.URL), WithMaxRetries(0))
	if _, err := p.Transcribe(context.Background(), stt.Audio{Data: strings.NewReader("x")}); err == nil {
		t.Fatal("expected error")
	}
	if _, err := p.Transcribe(context.Background(), stt.Audio{}); err == nil {
		t.Fatal("expected error for missing data")
	}
}

func TestVocabularyPrompt(t *testing.T) {
	if got := vocabularyPrompt(nil); got != "" {
		t.Errorf("empty = %q", got)
	}
	if got := vocabularyPrompt([]string{" ", "A", "B", "A"}); got != "A, B" {
		t.Errorf("got %q", got)
	}
	long := strings.Repeat("x", maxVocabularyPrompt)
	if got := vocabularyPrompt([]string{"short", long}); got != "short" {
		t.Errorf("overflow = %q", got)
	}
}
