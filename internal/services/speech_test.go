package services

import (
  "bytes"
  "context"
  "encoding/json"
  "io"
  "net/http"
  "net/http/httptest"
  "testing"
  "time"

  "github.com/smartsaarthi/saarthi-backend/internal/logger"
)

func newSpeechForTest(t *testing.T, baseURL string) SpeechService {
  t.Helper()
  log, err := logger.New("development")
  if err != nil {
    t.Fatalf("failed to init logger: %v", err)
  }
  svc, err := NewSpeechService(log, baseURL, "test-key", "test-voice", 5*time.Second)
  if err != nil {
    t.Fatalf("failed to build speech service: %v", err)
  }
  return svc
}

func TestSynthesizeRequestShape(t *testing.T) {
  audio := []byte{0x49, 0x44, 0x33, 0x03, 0x00}
  srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
      t.Errorf("unexpected method %s", r.Method)
    }
    if r.URL.Path != "/v1/text-to-speech/test-voice" {
      t.Errorf("unexpected path %s", r.URL.Path)
    }
    if got := r.URL.Query().Get("output_format"); got != "mp3_44100_128" {
      t.Errorf("unexpected output_format %q", got)
    }
    if got := r.Header.Get("xi-api-key"); got != "test-key" {
      t.Errorf("unexpected api key header %q", got)
    }
    body, _ := io.ReadAll(r.Body)
    var payload map[string]string
    if err := json.Unmarshal(body, &payload); err != nil {
      t.Errorf("body not json: %v", err)
    }
    if payload["text"] != "say this" || payload["model_id"] != "eleven_multilingual_v2" {
      t.Errorf("unexpected payload %v", payload)
    }
    w.Header().Set("Content-Type", "audio/mpeg")
    w.Write(audio)
  }))
  defer srv.Close()

  svc := newSpeechForTest(t, srv.URL)
  got, err := svc.Synthesize(context.Background(), "say this")
  if err != nil {
    t.Fatalf("synthesize: %v", err)
  }
  if !bytes.Equal(got, audio) {
    t.Fatalf("audio bytes altered in transit")
  }
}

func TestSynthesizeFailsOnProviderError(t *testing.T) {
  srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
    w.WriteHeader(http.StatusUnauthorized)
    w.Write([]byte(`{"detail":"invalid api key"}`))
  }))
  defer srv.Close()

  svc := newSpeechForTest(t, srv.URL)
  if _, err := svc.Synthesize(context.Background(), "hello"); err == nil {
    t.Fatalf("expected error on non-2xx")
  }
}

func TestSynthesizeFailsOnEmptyAudio(t *testing.T) {
  srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
    w.WriteHeader(http.StatusOK)
  }))
  defer srv.Close()

  svc := newSpeechForTest(t, srv.URL)
  if _, err := svc.Synthesize(context.Background(), "hello"); err == nil {
    t.Fatalf("expected error on empty audio body")
  }
}

func TestNewSpeechServiceRequiresVoice(t *testing.T) {
  log, err := logger.New("development")
  if err != nil {
    t.Fatalf("failed to init logger: %v", err)
  }
  if _, err := NewSpeechService(log, "http://localhost", "key", "", time.Second); err == nil {
    t.Fatalf("expected error for missing voice id")
  }
}
