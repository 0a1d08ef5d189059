package handlers

import (
  "io"
  "net/http"
  "strconv"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/smartsaarthi/saarthi-backend/internal/logger"
  "github.com/smartsaarthi/saarthi-backend/internal/requestdata"
  "github.com/smartsaarthi/saarthi-backend/internal/services"
)

type ChatHandler struct {
  log         *logger.Logger
  chatService services.ChatService
}

func NewChatHandler(log *logger.Logger, chatService services.ChatService) *ChatHandler {
  return &ChatHandler{
    log:         log.With("handler", "ChatHandler"),
    chatService: chatService,
  }
}

func (ch *ChatHandler) CreateConversation(c *gin.Context) {
  userID, ok := currentUserID(c)
  if !ok {
    return
  }
  conv, err := ch.chatService.CreateConversation(c.Request.Context(), userID)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"success": true, "conversation": conv})
}

func (ch *ChatHandler) ListConversations(c *gin.Context) {
  userID, ok := currentUserID(c)
  if !ok {
    return
  }
  summaries, err := ch.chatService.ListConversations(c.Request.Context(), userID)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"success": true, "conversations": summaries})
}

func (ch *ChatHandler) RenameConversation(c *gin.Context) {
  userID, ok := currentUserID(c)
  if !ok {
    return
  }
  convID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid conversation id"})
    return
  }
  var req struct {
    Title string `json:"title"`
  }
  if err := c.ShouldBindJSON(&req); err != nil || req.Title == "" {
    c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Missing title"})
    return
  }
  if err := ch.chatService.RenameConversation(c.Request.Context(), userID, convID, req.Title); err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"success": true})
}

func (ch *ChatHandler) DeleteConversation(c *gin.Context) {
  userID, ok := currentUserID(c)
  if !ok {
    return
  }
  convID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid conversation id"})
    return
  }
  if err := ch.chatService.DeleteConversation(c.Request.Context(), userID, convID); err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"success": true})
}

func (ch *ChatHandler) GetConversationMessages(c *gin.Context) {
  userID, ok := currentUserID(c)
  if !ok {
    return
  }
  convID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid conversation id"})
    return
  }
  messages, err := ch.chatService.GetMessages(c.Request.Context(), userID, convID)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"success": true, "messages": messages})
}

// SendMessage accepts multipart form data: conversationId, content,
// optional repeated files, optional lat/lng geolocation hint.
func (ch *ChatHandler) SendMessage(c *gin.Context) {
  userID, ok := currentUserID(c)
  if !ok {
    return
  }

  convIDStr := c.PostForm("conversationId")
  content := c.PostForm("content")
  if convIDStr == "" {
    c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Missing conversationId or content/files"})
    return
  }
  convID, err := uuid.Parse(convIDStr)
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid conversation id"})
    return
  }

  files, err := ch.collectFiles(c)
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Failed to read uploaded files"})
    return
  }
  if content == "" && len(files) == 0 {
    c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Missing conversationId or content/files"})
    return
  }

  in := services.SendMessageInput{
    ConversationID: convID,
    Content:        content,
    Files:          files,
    Location:       parseLocation(c),
  }
  result, err := ch.chatService.SendMessage(c.Request.Context(), userID, in)
  if err != nil {
    respondError(c, err)
    return
  }

  resp := gin.H{
    "success":     true,
    "userMessage": result.UserMessage,
    "botMessage":  result.BotMessage,
  }
  if result.Audio != "" {
    resp["audio"] = result.Audio
  }
  c.JSON(http.StatusOK, resp)
}

func (ch *ChatHandler) collectFiles(c *gin.Context) ([]services.AttachedFile, error) {
  form, err := c.MultipartForm()
  if err != nil {
    // plain form posts without attachments are fine
    if err == http.ErrNotMultipart {
      return nil, nil
    }
    return nil, err
  }
  var files []services.AttachedFile
  for _, fh := range form.File["files"] {
    f, oErr := fh.Open()
    if oErr != nil {
      return nil, oErr
    }
    data, rErr := io.ReadAll(f)
    f.Close()
    if rErr != nil {
      return nil, rErr
    }
    files = append(files, services.AttachedFile{
      Data:        data,
      Filename:    fh.Filename,
      ContentType: fh.Header.Get("Content-Type"),
    })
  }
  return files, nil
}

func parseLocation(c *gin.Context) *services.LatLng {
  latStr := c.PostForm("lat")
  lngStr := c.PostForm("lng")
  if latStr == "" || lngStr == "" {
    return nil
  }
  lat, latErr := strconv.ParseFloat(latStr, 64)
  lng, lngErr := strconv.ParseFloat(lngStr, 64)
  if latErr != nil || lngErr != nil {
    return nil
  }
  return &services.LatLng{Lat: lat, Lng: lng}
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil || rd.UserID == uuid.Nil {
    c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
    return uuid.Nil, false
  }
  return rd.UserID, true
}
