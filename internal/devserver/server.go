// Package devserver is a local stand-in for the production GymPadday
// backend: the REST surface the mobile client talks to plus a websocket
// engine gateway, enough to run the live-session loop end to end.
package devserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/CodeCraftersgcuf/gympadday-live/internal/config"
)

type Claims struct {
	UID  int64  `json:"uid"`
	Name string `json:"name"`
	jwt.RegisteredClaims
}

type Server struct {
	cfg     config.Config
	store   *Store
	gateway *Gateway
}

func New(cfg config.Config) *Server {
	return &Server{
		cfg:     cfg,
		store:   NewStore(),
		gateway: NewGateway(cfg.Server.EngineSecret),
	}
}

func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/login", s.handleLogin)
	r.GET("/engine/ws", s.gateway.Handle)

	auth := r.Group("/", s.jwtAuth())
	auth.GET("/video-call/token", s.handleVideoCallToken)
	auth.POST("/start-call", s.handleStartCall)
	auth.POST("/end-daily-call", s.handleEndCall)
	auth.GET("/live-streams", s.handleListStreams)
	auth.POST("/live-streams", s.handleCreateStream)
	auth.POST("/live-streams/:id/join", s.handleJoinStream)
	auth.GET("/live-streams/:id/chats", s.handleListChats)
	auth.POST("/live-streams/:id/chats", s.handleSendChat)
	auth.POST("/device-token", s.handleDeviceToken)

	return r
}

// jwtAuth validates the bearer token and stores the caller identity on the
// request context.
func (s *Server) jwtAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "authorization header required"})
			return
		}
		parts := strings.Split(header, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid authorization header"})
			return
		}
		token, err := jwt.ParseWithClaims(parts[1], &Claims{}, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(s.cfg.Server.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
			return
		}
		claims := token.Claims.(*Claims)
		c.Set("uid", claims.UID)
		c.Set("name", claims.Name)
		c.Next()
	}
}

func (s *Server) handleLogin(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}
	uid := s.store.UserID(req.Username)
	claims := Claims{
		UID:  uid,
		Name: req.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Server.JWTSecret))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to sign token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tok, "user_id": uid})
}

func callerUID(c *gin.Context) int64 {
	v, _ := c.Get("uid")
	uid, _ := v.(int64)
	return uid
}

func callerName(c *gin.Context) string {
	v, _ := c.Get("name")
	name, _ := v.(string)
	return name
}
