package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go_course_progress/internal/config"
	"go_course_progress/internal/model"
	"go_course_progress/internal/webutil"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// roleClaim はロールを入れる独自クレーム名
const roleClaim = "role"

// JWTAuthMiddleware は Authorization ヘッダーの Bearer トークンを検証し、
// ユーザーIDとロールをコンテキストに入れる。トークンの発行は外部の認証サービスが行う
func JWTAuthMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := GetLogger(r.Context())

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("JWT auth failed: Authorization header missing")
				webutil.HandleError(w, logger, model.NewAppError("UNAUTHORIZED", "Authorizationヘッダーが必要です。", "", model.ErrUnauthorized))
				return
			}
			scheme, tokenString, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || tokenString == "" {
				logger.Warn("JWT auth failed: Invalid Authorization header format")
				webutil.HandleError(w, logger, model.NewAppError("UNAUTHORIZED", "Authorizationヘッダーの形式が正しくありません。", "", model.ErrUnauthorized))
				return
			}

			opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
			if cfg.JWT.Issuer != "" {
				opts = append(opts, jwt.WithIssuer(cfg.JWT.Issuer))
			}
			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
				return []byte(cfg.JWT.SecretKey), nil
			}, opts...)
			if err != nil || !token.Valid {
				logger.Warn("JWT auth failed: Invalid token", "error", err)
				code, msg := "INVALID_TOKEN", "トークンが無効です。"
				if errors.Is(err, jwt.ErrTokenExpired) {
					code, msg = "TOKEN_EXPIRED", "トークンの有効期限が切れています。"
				}
				webutil.HandleError(w, logger, model.NewAppError(code, msg, "", model.ErrUnauthorized))
				return
			}

			subject, err := claims.GetSubject()
			if err != nil || subject == "" {
				logger.Warn("JWT auth failed: Subject (sub) claim missing", "error", err)
				webutil.HandleError(w, logger, model.NewAppError("INVALID_TOKEN", "トークンにユーザー情報が含まれていません。", "", model.ErrUnauthorized))
				return
			}
			userID, err := uuid.Parse(subject)
			if err != nil {
				logger.Warn("JWT auth failed: Invalid subject (sub) format", "subject", subject, "error", err)
				webutil.HandleError(w, logger, model.NewAppError("INVALID_TOKEN", "トークンのユーザー情報が不正です。", "", model.ErrUnauthorized))
				return
			}
			role, _ := claims[roleClaim].(string)
			if role == "" {
				role = model.RoleLearner
			}

			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), userID, role)))
		})
	}
}

// withUser はユーザー情報とユーザー付きのロガーをコンテキストに入れる
func withUser(ctx context.Context, userID uuid.UUID, role string) context.Context {
	ctx = context.WithValue(ctx, model.UserIDKey, userID)
	ctx = context.WithValue(ctx, model.UserRoleKey, role)
	return WithLogger(ctx, GetLogger(ctx).With("user_id", userID.String()))
}

// AdminOnly は管理者ロール以外を 403 にする
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUserRoleFromContext(r.Context()) != model.RoleAdmin {
			logger := GetLogger(r.Context())
			logger.Warn("Admin route denied")
			webutil.HandleError(w, logger, model.NewAppError("FORBIDDEN", "管理者のみ利用できます。", "", model.ErrForbidden))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetUserIDFromContext(ctx context.Context) (uuid.UUID, error) {
	value, ok := ctx.Value(model.UserIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, model.NewAppError("INTERNAL_SERVER_ERROR", "コンテキストからユーザー情報を取得できませんでした。", "", model.ErrInternalServer)
	}
	return value, nil
}

func GetUserRoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(model.UserRoleKey).(string)
	return role
}

// IssueToken は HS256 のトークンを作る。ローカル実行用のリプレイツールとテストで使う
func IssueToken(cfg config.JWTConfig, userID uuid.UUID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":     userID.String(),
		roleClaim: role,
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	}
	if cfg.Issuer != "" {
		claims["iss"] = cfg.Issuer
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.SecretKey))
	if err != nil {
		return "", fmt.Errorf("middleware.IssueToken: %w", err)
	}
	return signed, nil
}
