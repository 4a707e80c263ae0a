package serverutils

import (
	"strings"

	"noteguard-be/internal/entity"
	"noteguard-be/internal/pkg/apperror"
	"noteguard-be/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	LocalUserId = "user_id"
	LocalRole   = "role"
)

// JwtMiddleware accepts "Authorization: Bearer <token>" signed with secret
// and stores the caller's id and role in the request locals. Websocket
// upgrades may pass the token as ?token= since browsers cannot set headers
// on them.
func JwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get(fiber.HeaderAuthorization)
		tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			tokenStr = ""
			if websocket.IsWebSocketUpgrade(ctx) {
				tokenStr = ctx.Query("token")
			}
		}
		if tokenStr == "" {
			return apperror.Unauthorized("missing token")
		}

		claims, err := jwt.ValidateToken(tokenStr, secret)
		if err != nil {
			return apperror.Unauthorized("invalid token")
		}
		if _, err := uuid.Parse(claims.UserID); err != nil {
			return apperror.Unauthorized("invalid claims")
		}

		ctx.Locals(LocalUserId, claims.UserID)
		ctx.Locals(LocalRole, claims.Role)
		return ctx.Next()
	}
}

// ActorFromCtx reads the caller set by JwtMiddleware.
func ActorFromCtx(ctx *fiber.Ctx) (entity.Actor, error) {
	userIdStr, _ := ctx.Locals(LocalUserId).(string)
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return entity.Actor{}, apperror.Unauthorized("missing authenticated user")
	}
	role, _ := ctx.Locals(LocalRole).(string)
	return entity.Actor{Id: userId, Role: entity.UserRole(role)}, nil
}

// AdminOnly must run after JwtMiddleware.
func AdminOnly(ctx *fiber.Ctx) error {
	actor, err := ActorFromCtx(ctx)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return apperror.AccessDenied("administrator role required")
	}
	return ctx.Next()
}

// ParseUUIDParam reads a path parameter as a uuid. A malformed id cannot
// name any note, so it is reported as not found.
func ParseUUIDParam(ctx *fiber.Ctx, name, notFoundMessage string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params(name))
	if err != nil {
		return uuid.Nil, apperror.NotFound(notFoundMessage)
	}
	return id, nil
}
