package services

import (
  "bytes"
  "context"
  "encoding/json"
  "fmt"
  "io"
  "net/http"
  "strings"
  "time"

  "github.com/smartsaarthi/saarthi-backend/internal/logger"
)

const (
  speechModelID      = "eleven_multilingual_v2"
  speechOutputFormat = "mp3_44100_128"
)

// SpeechService synthesizes assistant replies into MP3 audio via the
// ElevenLabs API. All failures propagate; the orchestrator treats synthesis
// as optional.
type SpeechService interface {
  Synthesize(ctx context.Context, text string) ([]byte, error)
}

type speechService struct {
  log     *logger.Logger
  client  *http.Client
  baseURL string
  apiKey  string
  voiceID string
}

func NewSpeechService(log *logger.Logger, baseURL, apiKey, voiceID string, timeout time.Duration) (SpeechService, error) {
  serviceLog := log.With("service", "SpeechService")
  if apiKey == "" {
    serviceLog.Warn("ELEVENLABS_API_KEY not set; synthesis calls will be unauthorized")
  }
  if voiceID == "" {
    return nil, fmt.Errorf("missing speech voice id")
  }
  return &speechService{
    log:     serviceLog,
    client:  &http.Client{Timeout: timeout},
    baseURL: strings.TrimRight(baseURL, "/"),
    apiKey:  apiKey,
    voiceID: voiceID,
  }, nil
}

func (ss *speechService) Synthesize(ctx context.Context, text string) ([]byte, error) {
  payload, err := json.Marshal(map[string]string{
    "text":     text,
    "model_id": speechModelID,
  })
  if err != nil {
    return nil, err
  }

  reqURL := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s", ss.baseURL, ss.voiceID, speechOutputFormat)
  req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
  if err != nil {
    ss.log.Warn("failed to build synthesis request", "error", err)
    return nil, err
  }
  req.Header.Set("Content-Type", "application/json")
  req.Header.Set("xi-api-key", ss.apiKey)

  resp, err := ss.client.Do(req)
  if err != nil {
    ss.log.Warn("failed to call speech provider", "error", err)
    return nil, err
  }
  defer resp.Body.Close()

  if resp.StatusCode < 200 || resp.StatusCode > 299 {
    bodyBytes, _ := io.ReadAll(resp.Body)
    ss.log.Warn("speech provider responded with non-2xx", "statusCode", resp.StatusCode, "body", string(bodyBytes))
    return nil, fmt.Errorf("speech provider HTTP %d", resp.StatusCode)
  }

  audio, err := io.ReadAll(resp.Body)
  if err != nil {
    ss.log.Warn("failed to read synthesized audio", "error", err)
    return nil, err
  }
  if len(audio) == 0 {
    return nil, fmt.Errorf("speech provider returned empty audio")
  }
  return audio, nil
}
