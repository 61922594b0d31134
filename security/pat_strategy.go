package security

import (
	"context"
	"fmt"
	"net/http"

	"github.com/carebridge/compliance-service/client"
	"github.com/shaj13/go-guardian/v2/auth"
)

const personalAccessTokenHeader = "X-Personal-Access-Token"

func NewPlatformPATStrategy(platformClient client.PlatformClient) auth.Strategy {
	return &platformPATStrategyImpl{platformClient: platformClient}
}

type platformPATStrategyImpl struct {
	platformClient client.PlatformClient
}

func (a platformPATStrategyImpl) Authenticate(ctx context.Context, r *http.Request) (auth.Info, error) {
	patHeader := r.Header.Get(personalAccessTokenHeader)
	if patHeader == "" {
		return nil, fmt.Errorf("authentication failed: %v is empty", personalAccessTokenHeader)
	}

	user, err := a.platformClient.GetUserByPAT(ctx, patHeader)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("authentication failed: %v is not valid", personalAccessTokenHeader)
	}

	return auth.NewDefaultUser(user.Name, user.Id, []string{}, auth.Extensions{}), nil
}
