package security

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/carebridge/compliance-service/secctx"
	"github.com/carebridge/compliance-service/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/square/go-jose.v2"
)

type stubPlatformClient struct {
	publicKey []byte
	apiKeys   map[string]*view.PlatformApiKeyView
}

func (s *stubPlatformClient) GetRsaPublicKey(ctx context.Context) (*view.PublicKey, error) {
	return &view.PublicKey{Value: s.publicKey}, nil
}

func (s *stubPlatformClient) GetApiKeyByKey(apiKey string) (*view.PlatformApiKeyView, error) {
	return s.apiKeys[apiKey], nil
}

func (s *stubPlatformClient) CheckAuthToken(ctx context.Context, token string) (bool, error) {
	return false, nil
}

func (s *stubPlatformClient) GetUserByPAT(ctx context.Context, token string) (*view.User, error) {
	return nil, nil
}

func (s *stubPlatformClient) GetFacilityById(ctx context.Context, facilityId string) (*view.Facility, error) {
	return nil, nil
}

func (s *stubPlatformClient) GetEpisodeRecords(ctx context.Context, facilityId, episodeId string) (*view.EpisodeRecords, error) {
	return nil, nil
}

func (s *stubPlatformClient) GetRecordDetails(ctx context.Context, facilityId, episodeId, recordSlug string) (*view.ClinicalRecord, error) {
	return nil, nil
}

func (s *stubPlatformClient) GetRecordRawData(ctx context.Context, facilityId, episodeId, recordSlug string) ([]byte, error) {
	return nil, nil
}

func setupTestStrategies(t *testing.T) *rsa.PrivateKey {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	cl := &stubPlatformClient{
		publicKey: x509.MarshalPKCS1PublicKey(&privateKey.PublicKey),
		apiKeys: map[string]*view.PlatformApiKeyView{
			"system-key":  {Id: "k1", Name: "platform", Roles: []string{secctx.SysadmRole}},
			"reader-key":  {Id: "k2", Name: "reporting", Roles: []string{"Viewer"}},
			"revoked-key": {Id: "k3", Name: "old", Revoked: true, Roles: []string{secctx.SysadmRole}},
		},
	}
	require.NoError(t, SetupGoGuardian(cl))
	return privateKey
}

func makeEventRequest() *http.Request {
	return httptest.NewRequest(http.MethodPost, "/api/v1/events/episodeReady", nil)
}

func TestSecureSystemAllowsSystemApiKey(t *testing.T) {
	setupTestStrategies(t)

	called := false
	handler := SecureSystem(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusAccepted)
	})

	r := makeEventRequest()
	r.Header.Set("api-key", "system-key")
	w := httptest.NewRecorder()
	handler(w, r)

	assert.True(t, called)
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestSecureSystemRejectsMissingApiKey(t *testing.T) {
	setupTestStrategies(t)

	called := false
	handler := SecureSystem(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	w := httptest.NewRecorder()
	handler(w, makeEventRequest())

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSecureSystemRejectsNonSystemApiKey(t *testing.T) {
	setupTestStrategies(t)

	called := false
	handler := SecureSystem(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	r := makeEventRequest()
	r.Header.Set("api-key", "reader-key")
	w := httptest.NewRecorder()
	handler(w, r)

	assert.False(t, called)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSecureSystemRejectsRevokedApiKey(t *testing.T) {
	setupTestStrategies(t)

	called := false
	handler := SecureSystem(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	r := makeEventRequest()
	r.Header.Set("api-key", "revoked-key")
	w := httptest.NewRecorder()
	handler(w, r)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// A validly signed platform JWT must not open the event endpoint, the
// platform has to present its api key there.
func TestSecureSystemRejectsBearerJwt(t *testing.T) {
	privateKey := setupTestStrategies(t)

	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.RS256, Key: privateKey},
		(&jose.SignerOptions{}).WithHeader("kid", "secret-id"))
	require.NoError(t, err)

	claims, err := json.Marshal(map[string]interface{}{
		"sub": "nurse-1",
		"iss": "care-platform",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)

	jws, err := signer.Sign(claims)
	require.NoError(t, err)
	token, err := jws.CompactSerialize()
	require.NoError(t, err)

	called := false
	handler := SecureSystem(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	r := makeEventRequest()
	r.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	w := httptest.NewRecorder()
	handler(w, r)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
