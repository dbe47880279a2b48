package devserver

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/CodeCraftersgcuf/gympadday-live/internal/enginetoken"
	"github.com/CodeCraftersgcuf/gympadday-live/internal/livetypes"
)

func (s *Server) handleVideoCallToken(c *gin.Context) {
	channel := c.Query("channel")
	uidStr := c.Query("uid")
	if channel == "" || uidStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "channel and uid are required"})
		return
	}
	uid, err := strconv.ParseInt(uidStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "uid must be numeric"})
		return
	}
	if uid != callerUID(c) {
		c.JSON(http.StatusForbidden, gin.H{"message": "uid does not match authenticated user"})
		return
	}
	exp := time.Now().Add(time.Duration(s.cfg.Server.TokenExpMin) * time.Minute).Unix()
	tok := enginetoken.Mint(s.cfg.Server.EngineSecret, channel, uid, exp)
	c.JSON(http.StatusOK, gin.H{"token": tok})
}

func (s *Server) handleStartCall(c *gin.Context) {
	var req struct {
		ReceiverID  int64  `json:"receiver_id" binding:"required"`
		ChannelName string `json:"channel_name" binding:"required"`
		Type        string `json:"type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}
	if req.Type == "" {
		req.Type = "audio"
	}
	info := s.store.StartCall(callerUID(c), req.ReceiverID, req.ChannelName, req.Type)
	c.JSON(http.StatusOK, info)
}

func (s *Server) handleEndCall(c *gin.Context) {
	var req struct {
		ChannelName string `json:"channel_name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}
	if err := s.store.EndCall(req.ChannelName); err != nil {
		if errors.Is(err, ErrCallNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "call not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleListStreams(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.ListStreams())
}

func (s *Server) handleCreateStream(c *gin.Context) {
	var req struct {
		Title   string `json:"title" binding:"required"`
		Channel string `json:"agora_channel" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}
	host := livetypes.User{ID: callerUID(c), Name: callerName(c)}
	c.JSON(http.StatusOK, s.store.CreateStream(req.Title, req.Channel, host))
}

func (s *Server) handleJoinStream(c *gin.Context) {
	if _, ok := s.store.GetStream(c.Param("id")); !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "stream not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleListChats(c *gin.Context) {
	msgs, err := s.store.ListChats(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "stream not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": msgs})
}

func (s *Server) handleSendChat(c *gin.Context) {
	var req livetypes.ChatSend
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}
	if req.Message == "" && req.Type != "gift" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "message is required"})
		return
	}
	msg, err := s.store.AppendChat(c.Param("id"), callerUID(c), req)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "stream not found"})
		return
	}
	c.JSON(http.StatusOK, msg)
}

func (s *Server) handleDeviceToken(c *gin.Context) {
	var req struct {
		Token    string `json:"token" binding:"required"`
		Platform string `json:"platform"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}
	s.store.SetDeviceToken(callerUID(c), req.Token)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
