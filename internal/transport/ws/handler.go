package ws

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"nhooyr.io/websocket"

	"github.com/vedran77/vybe/internal/domain"
)

// Options configures the WebSocket upgrade.
type Options struct {
	// RequireToken additionally demands a ?token= JWT whose subject equals ?userId=.
	RequireToken bool
	JWTSecret    string
	// OriginPatterns restricts cross-origin upgrades. Empty allows any origin.
	OriginPatterns []string
}

// ServeWS returns an HTTP handler that upgrades to WebSocket.
// The identity comes from the ?userId= query param (WebSocket can't send headers).
func ServeWS(hub *Hub, dispatcher *Dispatcher, opts Options, log *slog.Logger) http.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		userID := domain.UserID(r.URL.Query().Get("userId"))
		if userID.IsZero() {
			http.Error(w, "missing userId", http.StatusBadRequest)
			return
		}

		if opts.RequireToken {
			sub, err := validateToken(r.URL.Query().Get("token"), opts.JWTSecret)
			if err != nil || sub != userID {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
		}

		acceptOpts := &websocket.AcceptOptions{OriginPatterns: opts.OriginPatterns}
		if len(opts.OriginPatterns) == 0 {
			acceptOpts.InsecureSkipVerify = true
		}
		conn, err := websocket.Accept(w, r, acceptOpts)
		if err != nil {
			log.Warn("ws: accept error", "error", err)
			return
		}

		client := NewClient(hub, conn, userID, dispatcher, log)
		if !hub.Register(client) {
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		}

		go client.WritePump()
		client.ReadPump(r.Context())
	}
}

func validateToken(tokenStr, secret string) (domain.UserID, error) {
	if tokenStr == "" {
		return "", errors.New("missing token")
	}
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", jwt.ErrTokenInvalidClaims
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		return "", err
	}
	return domain.UserID(sub), nil
}
