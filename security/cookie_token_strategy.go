package security

import (
	"context"
	"fmt"
	"net/http"

	"github.com/carebridge/compliance-service/client"
	"github.com/carebridge/compliance-service/view"
	"github.com/shaj13/go-guardian/v2/auth"
	"gopkg.in/square/go-jose.v2/jwt"
)

func NewCookieTokenStrategy(platformClient client.PlatformClient) auth.Strategy {
	return &cookieTokenStrategyImpl{platformClient: platformClient}
}

type cookieTokenStrategyImpl struct {
	platformClient client.PlatformClient
}

func (a cookieTokenStrategyImpl) Authenticate(ctx context.Context, r *http.Request) (auth.Info, error) {
	cookie, err := r.Cookie(view.AccessTokenCookieName)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: access token cookie not found")
	}

	success, err := a.platformClient.CheckAuthToken(ctx, cookie.Value)
	if err != nil {
		return nil, err
	}

	if success {
		jt, err := jwt.ParseSigned(cookie.Value)
		if err != nil {
			return nil, fmt.Errorf("token parse error: %w", err)
		}
		userInfo := auth.NewDefaultUser("", "", []string{}, auth.Extensions{})
		if err := jt.UnsafeClaimsWithoutVerification(userInfo); err != nil {
			return nil, fmt.Errorf("claims extraction error: %w", err)
		}
		return userInfo, nil
	} else {
		return nil, fmt.Errorf("authentication failed, token from cookie is incorrect")
	}
}
