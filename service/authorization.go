package service

import (
	"context"

	"github.com/carebridge/compliance-service/secctx"
)

// AuthorizationService answers permission questions for the request's
// security context. Any authenticated caller may read; management
// operations require the system administrator role or system access.
type AuthorizationService interface {
	HasReadPermission(ctx context.Context) (bool, error)
	HasManagementPermission(ctx context.Context) (bool, error)
}

func NewAuthorizationService() AuthorizationService {
	return &authorizationServiceImpl{}
}

type authorizationServiceImpl struct {
}

func (a *authorizationServiceImpl) HasReadPermission(ctx context.Context) (bool, error) {
	return true, nil
}

func (a *authorizationServiceImpl) HasManagementPermission(ctx context.Context) (bool, error) {
	if secctx.IsSystem(ctx) {
		return true, nil
	}
	return secctx.IsSysadm(ctx), nil
}
