package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/iamasit07/soloq/internal/domain"
	"github.com/iamasit07/soloq/internal/transport/http/response"
	"github.com/iamasit07/soloq/pkg/httputil"
)

const identityKey = "identity"

// IdentityVerifier turns a bearer credential into a verified caller.
type IdentityVerifier interface {
	Verify(ctx context.Context, bearer string) (domain.Identity, error)
}

// AuthMiddleware rejects requests without a verifiable bearer token and
// stores the caller's identity on the context.
func AuthMiddleware(verifier IdentityVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := httputil.GetTokenFromRequest(c.Request)
		if err != nil {
			response.Error(c, domain.NewIdentityError(domain.CodeMissingIDToken, err))
			return
		}

		id, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			response.Error(c, err)
			return
		}

		c.Set(identityKey, id)
		c.Next()
	}
}

// IdentityFrom returns the caller set by AuthMiddleware.
func IdentityFrom(c *gin.Context) (domain.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return domain.Identity{}, false
	}
	id, ok := v.(domain.Identity)
	return id, ok
}
