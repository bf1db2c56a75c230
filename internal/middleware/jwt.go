package middleware

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/gema-study-api/internal/utils"
)

// Locals keys populated by JWTProtected.
const (
	LocalUserID   = "user_id"
	LocalUserRole = "user_role"
)

const defaultRole = "student"

// Claims is the token payload issued by the sign-in service. The subject holds
// the numeric user id; UserID is accepted from older tokens that lack one.
type Claims struct {
	Role   string `json:"role,omitempty"`
	UserID uint   `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// userID resolves the caller from the subject, falling back to user_id.
func (c Claims) userID() uint {
	if id, err := strconv.ParseUint(strings.TrimSpace(c.Subject), 10, 64); err == nil && id > 0 {
		return uint(id)
	}
	return c.UserID
}

// JWTProtected accepts HS256 bearer tokens and stores the caller's id and
// lower-cased role in the request locals. A token without a role belongs to a
// student.
func JWTProtected(secret string) fiber.Handler {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	key := []byte(secret)

	return func(c *fiber.Ctx) error {
		raw, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "bearer token required")
		}

		var claims Claims
		if _, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
			return key, nil
		}); err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		id := claims.userID()
		if id == 0 {
			return utils.SendError(c, fiber.StatusUnauthorized, "token subject missing")
		}

		role := strings.ToLower(strings.TrimSpace(claims.Role))
		if role == "" {
			role = defaultRole
		}

		c.Locals(LocalUserID, id)
		c.Locals(LocalUserRole, role)
		return c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
