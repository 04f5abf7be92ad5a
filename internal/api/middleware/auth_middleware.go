package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type UserIDKey struct{}

// GetUserIDFromContext はコンテキストからユーザーIDを取り出します。
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey{}).(string)
	return userID, ok
}

// WithUserID はユーザーIDを設定したコンテキストを返します。
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey{}, userID)
}

func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// AuthMiddleware は Bearer トークン（HMAC署名のJWT）を検証し、sub クレームをユーザーIDとして
// コンテキストに設定するミドルウェアを返します。
//
// Parameters:
//   jwtSecret : 署名の検証に使う共有鍵
//   bypass    : true の場合は検証せず、リクエストごとにランダムなユーザーIDを割り当てる（テスト用）
func AuthMiddleware(jwtSecret string, bypass bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bypass {
				testUserID := uuid.New().String()
				log.Debug().Msgf("[AuthMiddleware] BYPASS_AUTH 有効: テストユーザー %s", testUserID)
				next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), testUserID)))
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeJSONError(w, http.StatusUnauthorized, "Authorization header is required")
				return
			}
			tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
			if !found || tokenString == "" {
				writeJSONError(w, http.StatusUnauthorized, "Invalid Authorization header format. Must be 'Bearer <token>'")
				return
			}

			if jwtSecret == "" {
				log.Error().Msg("[AuthMiddleware] SUPABASE_JWT_SECRET が設定されていません")
				writeJSONError(w, http.StatusInternalServerError, "Server configuration error: JWT secret missing")
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				log.Warn().Err(err).Msg("[AuthMiddleware] トークンの検証に失敗しました")
				writeJSONError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "Invalid token claims")
				return
			}
			userID, ok := claims["sub"].(string)
			if !ok || userID == "" {
				log.Warn().Msgf("[AuthMiddleware] sub クレームがありません: %v", claims["sub"])
				writeJSONError(w, http.StatusUnauthorized, "Invalid token: missing user ID")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}
