package security

import (
	"context"
	"fmt"
	"net/http"

	"github.com/carebridge/compliance-service/client"
	"github.com/carebridge/compliance-service/secctx"
	"github.com/shaj13/go-guardian/v2/auth"
)

func NewPlatformApiKeyStrategy(platformClient client.PlatformClient) auth.Strategy {
	return &platformApiKeyStrategyImpl{platformClient: platformClient}
}

type platformApiKeyStrategyImpl struct {
	platformClient client.PlatformClient
}

func (a platformApiKeyStrategyImpl) Authenticate(ctx context.Context, r *http.Request) (auth.Info, error) {
	apiKeyHeader := r.Header.Get("api-key")
	if apiKeyHeader == "" {
		return nil, fmt.Errorf("authentication failed: %v is empty", "api-key")
	}

	apiKey, err := a.platformClient.GetApiKeyByKey(apiKeyHeader)
	if err != nil {
		return nil, err
	}
	if apiKey == nil || apiKey.Revoked {
		return nil, fmt.Errorf("authentication failed: %v is not valid", "api-key")
	}
	userExtensions := auth.Extensions{}
	for _, sysRole := range apiKey.Roles {
		userExtensions.Add(secctx.SystemRoleExt, sysRole)
	}

	return auth.NewDefaultUser(apiKey.Name, apiKey.Id, []string{}, userExtensions), nil
}
