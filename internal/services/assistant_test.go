package services

import (
  "context"
  "encoding/json"
  "io"
  "net/http"
  "net/http/httptest"
  "testing"
  "time"

  "github.com/smartsaarthi/saarthi-backend/internal/logger"
)

func newAssistantForTest(t *testing.T, baseURL string) AssistantService {
  t.Helper()
  log, err := logger.New("development")
  if err != nil {
    t.Fatalf("failed to init logger: %v", err)
  }
  svc, err := NewAssistantService(log, baseURL, 5*time.Second)
  if err != nil {
    t.Fatalf("failed to build assistant service: %v", err)
  }
  return svc
}

func TestGenerateSendsMultipartForm(t *testing.T) {
  var (
    gotPrompt   string
    gotHistory  string
    gotLocation string
    gotFiles    int
    gotFilename string
    gotFileType string
    gotFileBody string
  )
  srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost || r.URL.Path != "/generate-chat" {
      t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
    }
    if err := r.ParseMultipartForm(1 << 20); err != nil {
      t.Errorf("failed to parse multipart form: %v", err)
    }
    gotPrompt = r.FormValue("prompt")
    gotHistory = r.FormValue("session_history")
    gotLocation = r.FormValue("location")
    if r.MultipartForm != nil {
      files := r.MultipartForm.File["files"]
      gotFiles = len(files)
      if gotFiles > 0 {
        gotFilename = files[0].Filename
        gotFileType = files[0].Header.Get("Content-Type")
        f, _ := files[0].Open()
        data, _ := io.ReadAll(f)
        f.Close()
        gotFileBody = string(data)
      }
    }
    w.Header().Set("Content-Type", "application/json")
    w.Write([]byte(`{"status":200,"model":"llama","response":"hello back"}`))
  }))
  defer srv.Close()

  svc := newAssistantForTest(t, srv.URL)
  reply, err := svc.Generate(
    context.Background(),
    "where is the bank",
    []HistoryMessage{{Role: "user", Content: "hi"}, {Role: "assistant", Content: "hello"}},
    []AttachedFile{{Data: []byte("img-bytes"), Filename: "doc.png", ContentType: "image/png"}},
    &LatLng{Lat: 28.61, Lng: 77.20},
  )
  if err != nil {
    t.Fatalf("generate: %v", err)
  }
  if reply.Content != "hello back" {
    t.Fatalf("unexpected reply content %q", reply.Content)
  }
  if gotPrompt != "where is the bank" {
    t.Fatalf("unexpected prompt %q", gotPrompt)
  }

  var history []HistoryMessage
  if err := json.Unmarshal([]byte(gotHistory), &history); err != nil || len(history) != 2 {
    t.Fatalf("unexpected session_history %q (%v)", gotHistory, err)
  }
  var loc LatLng
  if err := json.Unmarshal([]byte(gotLocation), &loc); err != nil || loc.Lat != 28.61 || loc.Lng != 77.20 {
    t.Fatalf("unexpected location %q (%v)", gotLocation, err)
  }
  if gotFiles != 1 || gotFilename != "doc.png" || gotFileType != "image/png" || gotFileBody != "img-bytes" {
    t.Fatalf("unexpected file part: n=%d name=%q type=%q body=%q", gotFiles, gotFilename, gotFileType, gotFileBody)
  }
}

func TestGenerateOmitsLocationFieldWhenAbsent(t *testing.T) {
  srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
    r.ParseMultipartForm(1 << 20)
    if _, ok := r.MultipartForm.Value["location"]; ok {
      t.Errorf("location field must be omitted when no coordinates were given")
    }
    w.Write([]byte(`{"status":200,"model":"llama","response":"ok"}`))
  }))
  defer srv.Close()

  svc := newAssistantForTest(t, srv.URL)
  if _, err := svc.Generate(context.Background(), "hi", nil, nil, nil); err != nil {
    t.Fatalf("generate: %v", err)
  }
}

func TestGenerateNormalizesStructuredReply(t *testing.T) {
  srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
    w.Write([]byte(`{
      "status": 200,
      "model": "llama",
      "response": {
        "content": "The nearest branch is on MG Road.",
        "action": "OPEN_MAPS",
        "place_name": "SBI MG Road",
        "address": "12 MG Road",
        "location": {"lat": 12.97, "lng": 77.59}
      }
    }`))
  }))
  defer srv.Close()

  svc := newAssistantForTest(t, srv.URL)
  reply, err := svc.Generate(context.Background(), "nearest bank", nil, nil, nil)
  if err != nil {
    t.Fatalf("generate: %v", err)
  }
  if reply.Content != "The nearest branch is on MG Road." {
    t.Fatalf("unexpected content %q", reply.Content)
  }
  if reply.Action != "OPEN_MAPS" || reply.PlaceName != "SBI MG Road" || reply.Address != "12 MG Road" {
    t.Fatalf("structured fields lost: %+v", reply)
  }
  if reply.Location == nil || reply.Location.Lat != 12.97 || reply.Location.Lng != 77.59 {
    t.Fatalf("location lost: %+v", reply.Location)
  }
  if len(reply.Extras()) == 0 {
    t.Fatalf("structured reply must yield extras")
  }
}

func TestGeneratePlainReplyHasNoExtras(t *testing.T) {
  srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
    w.Write([]byte(`{"status":200,"model":"llama","response":"just words"}`))
  }))
  defer srv.Close()

  svc := newAssistantForTest(t, srv.URL)
  reply, err := svc.Generate(context.Background(), "hi", nil, nil, nil)
  if err != nil {
    t.Fatalf("generate: %v", err)
  }
  if reply.Extras() != nil {
    t.Fatalf("plain reply must not carry extras, got %s", reply.Extras())
  }
}

func TestGenerateFailsOnUpstreamErrors(t *testing.T) {
  cases := []struct {
    name string
    h    http.HandlerFunc
  }{
    {"http 500", func(w http.ResponseWriter, r *http.Request) {
      w.WriteHeader(http.StatusInternalServerError)
    }},
    {"not json", func(w http.ResponseWriter, r *http.Request) {
      w.Write([]byte("<html>nope</html>"))
    }},
    {"missing response field", func(w http.ResponseWriter, r *http.Request) {
      w.Write([]byte(`{"status":200,"model":"llama"}`))
    }},
    {"structured without content", func(w http.ResponseWriter, r *http.Request) {
      w.Write([]byte(`{"status":200,"model":"llama","response":{"action":"OPEN_MAPS"}}`))
    }},
  }
  for _, tc := range cases {
    t.Run(tc.name, func(t *testing.T) {
      srv := httptest.NewServer(tc.h)
      defer srv.Close()
      svc := newAssistantForTest(t, srv.URL)
      if _, err := svc.Generate(context.Background(), "hi", nil, nil, nil); err == nil {
        t.Fatalf("expected error")
      }
    })
  }
}

func TestGenerateFailsWhenUnreachable(t *testing.T) {
  srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
  srv.Close()

  svc := newAssistantForTest(t, srv.URL)
  if _, err := svc.Generate(context.Background(), "hi", nil, nil, nil); err == nil {
    t.Fatalf("expected connection error")
  }
}
