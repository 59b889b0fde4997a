package regional

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
)

// mintBearerToken signs a short-lived HS256 JWT carrying the regional
// authority's expected claims, modeled on the teacher's authn package
// (authn/utils.go's DecryptToken, run in reverse: there the teacher
// verifies an inbound token against a shared secret; here the adapter
// mints an outbound one the same way).
func mintBearerToken(secret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"iss": "wien-oepnv-feed",
		"exp": time.Now().Add(ttl).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(secret))
	if err != nil {
		return "", errors.Wrap(err, "regional: mint bearer token")
	}
	return signed, nil
}
