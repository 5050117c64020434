package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"devboard/internal/auth"
)

const (
	wsAuthTimeout    = 10 * time.Second
	wsWriteTimeout   = 5 * time.Second
	wsPingInterval   = 30 * time.Second
	wsMaxFrameLength = 4 << 10
)

// WsHandler 把某用户的投递事件实时推送到 WebSocket 连接。
// 事件由 HTTP 层发布到 redis pub/sub，这里只做鉴权与转发。
type WsHandler struct {
	redisClient    *redis.Client
	authService    *auth.AuthService
	logger         *slog.Logger
	upgrader       websocket.Upgrader
	allowedOrigins []string
}

// NewWsHandler 构造 WebSocket 处理器。
func NewWsHandler(redisClient *redis.Client, authService *auth.AuthService, logger *slog.Logger, allowedOrigins []string) *WsHandler {
	h := &WsHandler{
		redisClient:    redisClient,
		authService:    authService,
		logger:         logger,
		allowedOrigins: allowedOrigins,
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: h.checkOrigin}
	return h
}

// checkOrigin 未配置白名单时退化为同源校验。
func (h *WsHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if len(h.allowedOrigins) == 0 {
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(u.Host, r.Host)
	}
	for _, allowed := range h.allowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

type wsAuthMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// HandleConnection 升级连接，要求首帧完成鉴权，之后转发该用户的事件流。
func (h *WsHandler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("upgrade websocket failed", slog.Any("error", err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(wsMaxFrameLength)

	log := h.logger.With(slog.String("client_ip", c.ClientIP()))

	userID, err := h.authenticate(conn)
	if err != nil {
		log.Warn("websocket authentication failed", slog.Any("error", err))
		return
	}
	log = log.With(slog.Uint64("user_id", uint64(userID)))
	log.Info("websocket authenticated")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// 鉴权后客户端不再发业务消息；继续读只为尽快感知断开。
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := h.forwardEvents(ctx, conn, userID, log); err != nil {
		log.Info("websocket connection closed", slog.Any("error", err))
		return
	}
	log.Info("websocket connection closed")
}

// authenticate 读取首帧并校验访问令牌，超时或令牌非法即关闭连接。
func (h *WsHandler) authenticate(conn *websocket.Conn) (uint, error) {
	_ = conn.SetReadDeadline(time.Now().Add(wsAuthTimeout))
	defer conn.SetReadDeadline(time.Time{})

	_, frame, err := conn.ReadMessage()
	if err != nil {
		return 0, fmt.Errorf("read auth frame: %w", err)
	}

	var msg wsAuthMessage
	if err := json.Unmarshal(frame, &msg); err != nil {
		writeClose(conn, websocket.ClosePolicyViolation, "invalid auth payload")
		return 0, fmt.Errorf("decode auth payload: %w", err)
	}
	if msg.Type != "auth" || msg.Token == "" {
		writeClose(conn, websocket.ClosePolicyViolation, "auth required")
		return 0, fmt.Errorf("first frame is not an auth message")
	}

	claims, err := h.authService.ValidateToken(msg.Token)
	if err != nil {
		writeClose(conn, websocket.ClosePolicyViolation, "unauthorized")
		return 0, fmt.Errorf("validate token: %w", err)
	}
	if claims.TokenType != "access" {
		writeClose(conn, websocket.ClosePolicyViolation, "access token required")
		return 0, fmt.Errorf("invalid token type: %s", claims.TokenType)
	}
	return claims.UserID, nil
}

// forwardEvents 订阅该用户的事件通道并把载荷原样写给客户端。
func (h *WsHandler) forwardEvents(ctx context.Context, conn *websocket.Conn, userID uint, log *slog.Logger) error {
	channel := userEventChannel(userID)
	pubsub := h.redisClient.Subscribe(ctx, channel)
	defer pubsub.Close()

	log.Info("subscribed to event channel", slog.String("channel", channel))

	events := pubsub.Channel()
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-events:
			if !ok {
				return fmt.Errorf("pubsub channel closed")
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				return fmt.Errorf("write event: %w", err)
			}
		case <-ticker.C:
			deadline := time.Now().Add(wsWriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), deadline); err != nil {
				return fmt.Errorf("write ping: %w", err)
			}
		}
	}
}

func writeClose(conn *websocket.Conn, code int, text string) {
	deadline := time.Now().Add(wsWriteTimeout)
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), deadline)
}
