package services

import (
  "bytes"
  "context"
  "encoding/json"
  "fmt"
  "io"
  "mime/multipart"
  "net/http"
  "net/textproto"
  "strings"
  "time"

  "github.com/smartsaarthi/saarthi-backend/internal/logger"
)

// HistoryMessage is one role/content pair of the model-visible history sent
// upstream.
type HistoryMessage struct {
  Role    string `json:"role"`
  Content string `json:"content"`
}

// AttachedFile is a raw client upload forwarded to the microservice.
type AttachedFile struct {
  Data        []byte
  Filename    string
  ContentType string
}

// LatLng is a geolocation hint attached to a prompt.
type LatLng struct {
  Lat float64 `json:"lat"`
  Lng float64 `json:"lng"`
}

// AssistantReply is the single normalized shape the orchestrator sees. The
// microservice answers with either a bare string or a structured object;
// both collapse into this at the gateway boundary.
type AssistantReply struct {
  Content   string
  Action    string
  PlaceName string
  Address   string
  Location  *LatLng
}

// Extras returns the structured fields as a JSON document for persistence,
// or nil when the reply was plain text.
func (r AssistantReply) Extras() []byte {
  if r.Action == "" && r.PlaceName == "" && r.Address == "" && r.Location == nil {
    return nil
  }
  doc := map[string]interface{}{}
  if r.Action != "" {
    doc["action"] = r.Action
  }
  if r.PlaceName != "" {
    doc["place_name"] = r.PlaceName
  }
  if r.Address != "" {
    doc["address"] = r.Address
  }
  if r.Location != nil {
    doc["location"] = r.Location
  }
  b, err := json.Marshal(doc)
  if err != nil {
    return nil
  }
  return b
}

type AssistantService interface {
  Generate(ctx context.Context, prompt string, history []HistoryMessage, files []AttachedFile, location *LatLng) (AssistantReply, error)
}

type assistantService struct {
  log     *logger.Logger
  client  *http.Client
  baseURL string
}

func NewAssistantService(log *logger.Logger, baseURL string, timeout time.Duration) (AssistantService, error) {
  serviceLog := log.With("service", "AssistantService")
  if baseURL == "" {
    return nil, fmt.Errorf("missing microservice base URL")
  }
  return &assistantService{
    log:     serviceLog,
    client:  &http.Client{Timeout: timeout},
    baseURL: strings.TrimRight(baseURL, "/"),
  }, nil
}

// generateEnvelope is the microservice response wrapper. Response is kept
// raw because it is polymorphic: a JSON string or an object.
type generateEnvelope struct {
  Status   int             `json:"status"`
  Model    string          `json:"model"`
  Response json.RawMessage `json:"response"`
}

type structuredResponse struct {
  Content   string  `json:"content"`
  Action    string  `json:"action"`
  PlaceName string  `json:"place_name"`
  Address   string  `json:"address"`
  Location  *LatLng `json:"location"`
}

func (as *assistantService) Generate(ctx context.Context, prompt string, history []HistoryMessage, files []AttachedFile, location *LatLng) (AssistantReply, error) {
  var out AssistantReply

  body, contentType, err := as.buildForm(prompt, history, files, location)
  if err != nil {
    as.log.Warn("failed to build multipart form", "error", err)
    return out, err
  }

  reqURL := as.baseURL + "/generate-chat"
  req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, body)
  if err != nil {
    as.log.Warn("failed to build request", "error", err)
    return out, err
  }
  req.Header.Set("Content-Type", contentType)

  resp, err := as.client.Do(req)
  if err != nil {
    as.log.Warn("failed to call microservice", "error", err)
    return out, err
  }
  defer resp.Body.Close()

  if resp.StatusCode < 200 || resp.StatusCode > 299 {
    bodyBytes, _ := io.ReadAll(resp.Body)
    as.log.Warn("microservice responded with non-2xx", "statusCode", resp.StatusCode, "body", string(bodyBytes))
    return out, fmt.Errorf("microservice HTTP %d", resp.StatusCode)
  }

  bodyBytes, err := io.ReadAll(resp.Body)
  if err != nil {
    as.log.Warn("failed to read microservice response body", "error", err)
    return out, err
  }

  var envelope generateEnvelope
  if err := json.Unmarshal(bodyBytes, &envelope); err != nil {
    as.log.Warn("failed to decode microservice response", "error", err)
    return out, fmt.Errorf("invalid response from microservice: %w", err)
  }
  if len(envelope.Response) == 0 {
    return out, fmt.Errorf("invalid response format from microservice")
  }
  return normalizeReply(envelope.Response)
}

// normalizeReply flattens the two upstream reply shapes into one.
func normalizeReply(raw json.RawMessage) (AssistantReply, error) {
  var out AssistantReply

  var plain string
  if err := json.Unmarshal(raw, &plain); err == nil {
    out.Content = plain
    return out, nil
  }

  var structured structuredResponse
  if err := json.Unmarshal(raw, &structured); err != nil {
    return out, fmt.Errorf("unrecognized microservice reply shape: %w", err)
  }
  out.Content = structured.Content
  out.Action = structured.Action
  out.PlaceName = structured.PlaceName
  out.Address = structured.Address
  out.Location = structured.Location
  if out.Content == "" {
    return out, fmt.Errorf("microservice reply missing content")
  }
  return out, nil
}

func (as *assistantService) buildForm(prompt string, history []HistoryMessage, files []AttachedFile, location *LatLng) (*bytes.Buffer, string, error) {
  if history == nil {
    history = []HistoryMessage{}
  }
  historyJSON, err := json.Marshal(history)
  if err != nil {
    return nil, "", err
  }

  buf := &bytes.Buffer{}
  w := multipart.NewWriter(buf)
  if err := w.WriteField("prompt", prompt); err != nil {
    return nil, "", err
  }
  if err := w.WriteField("session_history", string(historyJSON)); err != nil {
    return nil, "", err
  }
  if location != nil {
    locJSON, err := json.Marshal(location)
    if err != nil {
      return nil, "", err
    }
    if err := w.WriteField("location", string(locJSON)); err != nil {
      return nil, "", err
    }
  }
  for _, f := range files {
    part, err := createFilePart(w, "files", f.Filename, f.ContentType)
    if err != nil {
      return nil, "", err
    }
    if _, err := part.Write(f.Data); err != nil {
      return nil, "", err
    }
  }
  if err := w.Close(); err != nil {
    return nil, "", err
  }
  return buf, w.FormDataContentType(), nil
}

// createFilePart is CreateFormFile with a caller-controlled content type,
// preserving what the client uploaded instead of application/octet-stream.
func createFilePart(w *multipart.Writer, fieldname, filename, contentType string) (io.Writer, error) {
  if contentType == "" {
    contentType = "application/octet-stream"
  }
  h := make(textproto.MIMEHeader)
  h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fieldname, filename))
  h.Set("Content-Type", contentType)
  return w.CreatePart(h)
}
