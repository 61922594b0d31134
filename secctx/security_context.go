package secctx

import (
	"context"
	"net/http"
	"strings"

	"github.com/shaj13/go-guardian/v2/auth"
)

const SystemRoleExt = "systemRole"
const SysadmRole = "System administrator"

func MakeUserContext(r *http.Request) context.Context {
	user := auth.User(r)
	userId := user.GetID()

	sysadm := false
	for _, role := range user.GetExtensions().Values(SystemRoleExt) {
		if role == SysadmRole {
			sysadm = true
		}
	}

	return context.WithValue(r.Context(), "secCtx", securityContextImpl{
		userId:              userId,
		token:               getAuthorizationToken(r),
		apiKey:              getPlatformApiKey(r),
		personalAccessToken: getPersonalAccessToken(r),
		isSystem:            false,
		isSysadm:            sysadm,
	})
}

func MakeSysadminContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, "secCtx", securityContextImpl{userId: "system", isSystem: true, isSysadm: true})
}

func CreateSystemContext() context.Context {
	return MakeSysadminContext(context.Background())
}

type securityContextImpl struct {
	userId              string
	token               string
	apiKey              string
	personalAccessToken string
	isSystem            bool
	isSysadm            bool
}

func getAuthorizationToken(r *http.Request) string {
	if token := getTokenFromAuthHeader(r); token != "" {
		return token
	}
	return getTokenFromCookie(r)
}

func getPersonalAccessToken(r *http.Request) string {
	return r.Header.Get("X-Personal-Access-Token")
}

func getTokenFromAuthHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" || !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return ""
	}
	return strings.TrimSpace(authHeader[7:])
}

func getTokenFromCookie(r *http.Request) string {
	accessTokenCookie, err := r.Cookie("carebridge-access-token")
	if err != nil {
		return ""
	}
	return accessTokenCookie.Value
}

func getPlatformApiKey(r *http.Request) string {
	return r.Header.Get("api-key")
}

func IsSystem(ctx context.Context) bool {
	val := ctx.Value("secCtx")
	if val == nil {
		return false
	}
	return val.(securityContextImpl).isSystem
}

func IsSysadm(ctx context.Context) bool {
	val := ctx.Value("secCtx")
	if val == nil {
		return false
	}
	return val.(securityContextImpl).isSysadm
}

func GetUserId(ctx context.Context) string {
	val := ctx.Value("secCtx")
	if val == nil {
		return ""
	}
	return val.(securityContextImpl).userId
}

func GetUserToken(ctx context.Context) string {
	val := ctx.Value("secCtx")
	if val == nil {
		return ""
	}
	return val.(securityContextImpl).token
}

func GetApiKey(ctx context.Context) string {
	val := ctx.Value("secCtx")
	if val == nil {
		return ""
	}
	return val.(securityContextImpl).apiKey
}

func GetPersonalAccessToken(ctx context.Context) string {
	val := ctx.Value("secCtx")
	if val == nil {
		return ""
	}
	return val.(securityContextImpl).personalAccessToken
}
