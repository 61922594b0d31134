package client

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/carebridge/compliance-service/exception"
	"github.com/carebridge/compliance-service/secctx"
	"github.com/carebridge/compliance-service/view"

	log "github.com/sirupsen/logrus"
	"gopkg.in/resty.v1"
)

// PlatformClient talks to the care platform (EHR) REST API.
type PlatformClient interface {
	GetRsaPublicKey(ctx context.Context) (*view.PublicKey, error)
	GetApiKeyByKey(apiKey string) (*view.PlatformApiKeyView, error)
	CheckAuthToken(ctx context.Context, token string) (bool, error)
	GetUserByPAT(ctx context.Context, token string) (*view.User, error)

	GetFacilityById(ctx context.Context, facilityId string) (*view.Facility, error)
	GetEpisodeRecords(ctx context.Context, facilityId, episodeId string) (*view.EpisodeRecords, error)
	GetRecordDetails(ctx context.Context, facilityId, episodeId, recordSlug string) (*view.ClinicalRecord, error)
	GetRecordRawData(ctx context.Context, facilityId, episodeId, recordSlug string) ([]byte, error)
}

func NewPlatformClient(platformUrl, accessToken string) PlatformClient {
	parsedPlatformUrl, err := url.Parse(platformUrl)
	platformHost := ""
	if err != nil {
		log.Errorf("Can't parse care platform url: %v", err)
	} else {
		platformHost = parsedPlatformUrl.Hostname()
	}

	tr := http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}
	cl := http.Client{Transport: &tr, Timeout: time.Second * 60}
	client := resty.NewWithClient(&cl)
	if platformHost != "" {
		client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(platformHost))
	}

	return &platformClientImpl{platformUrl: platformUrl, accessToken: accessToken, platformHost: platformHost, client: client}
}

type platformClientImpl struct {
	platformUrl  string
	accessToken  string
	platformHost string
	client       *resty.Client
}

func (p platformClientImpl) GetRsaPublicKey(ctx context.Context) (*view.PublicKey, error) {
	req := p.makeRequest(ctx)
	resp, err := req.Get(fmt.Sprintf("%s/api/v1/auth/publicKey", p.platformUrl))
	if err != nil || resp.StatusCode() != http.StatusOK {
		if authErr := checkUnauthorized(resp); authErr != nil {
			return nil, authErr
		}
		if resp.StatusCode() == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}

	publicKey := view.PublicKey{
		Value: resp.Body(),
	}
	return &publicKey, nil
}

func (p platformClientImpl) GetApiKeyByKey(apiKey string) (*view.PlatformApiKeyView, error) {
	tr := http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}
	cl := http.Client{Transport: &tr, Timeout: time.Second * 60}

	client := resty.NewWithClient(&cl)
	req := client.R()
	req.SetHeader("api-key", apiKey)

	resp, err := req.Get(fmt.Sprintf("%s/api/v1/auth/apiKey", p.platformUrl))
	if err != nil || resp.StatusCode() != http.StatusOK {
		if resp.StatusCode() == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}

	var apiKeyView view.PlatformApiKeyView
	err = json.Unmarshal(resp.Body(), &apiKeyView)
	if err != nil {
		return nil, err
	}

	return &apiKeyView, nil
}

func (p platformClientImpl) CheckAuthToken(ctx context.Context, token string) (bool, error) {
	tr := http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}
	cl := http.Client{Transport: &tr, Timeout: time.Second * 60}

	client := resty.NewWithClient(&cl)
	req := client.R()
	req.SetContext(ctx)
	req.SetHeader("Cookie", fmt.Sprintf("%s=%s", view.AccessTokenCookieName, token))

	resp, err := req.Get(fmt.Sprintf("%s/api/v1/auth/token", p.platformUrl))
	if err != nil || resp.StatusCode() != http.StatusOK {
		if authErr := checkUnauthorized(resp); authErr != nil {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (p platformClientImpl) GetUserByPAT(ctx context.Context, token string) (*view.User, error) {
	tr := http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}
	cl := http.Client{Transport: &tr, Timeout: time.Second * 60}

	client := resty.NewWithClient(&cl)
	req := client.R()
	req.SetContext(ctx)
	req.SetHeader("X-Personal-Access-Token", token)

	resp, err := req.Get(fmt.Sprintf("%s/api/v1/user", p.platformUrl))
	if err != nil || resp.StatusCode() != http.StatusOK {
		if authErr := checkUnauthorized(resp); authErr != nil {
			return nil, nil
		}
		return nil, err
	}

	var user view.User
	err = json.Unmarshal(resp.Body(), &user)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (p platformClientImpl) GetFacilityById(ctx context.Context, facilityId string) (*view.Facility, error) {
	req := p.makeRequest(ctx)
	resp, err := req.Get(fmt.Sprintf("%s/api/v1/facilities/%s", p.platformUrl, url.PathEscape(facilityId)))
	if err != nil {
		return nil, fmt.Errorf("failed to get facility %s: %s", facilityId, err.Error())
	}
	if resp.StatusCode() != http.StatusOK {
		if resp.StatusCode() == http.StatusNotFound {
			return nil, nil
		}
		if authErr := checkUnauthorized(resp); authErr != nil {
			return nil, authErr
		}
		return nil, fmt.Errorf("failed to get facility %s: status code %d %v", facilityId, resp.StatusCode(), resp.Body())
	}

	var facility view.Facility
	err = json.Unmarshal(resp.Body(), &facility)
	if err != nil {
		return nil, err
	}
	return &facility, nil
}

func (p platformClientImpl) GetEpisodeRecords(ctx context.Context, facilityId, episodeId string) (*view.EpisodeRecords, error) {
	req := p.makeRequest(ctx)
	resp, err := req.Get(fmt.Sprintf("%s/api/v1/facilities/%s/episodes/%s/records", p.platformUrl, url.PathEscape(facilityId), url.PathEscape(episodeId)))
	if err != nil {
		return nil, fmt.Errorf("failed to get records for episode %s in facility %s: %s", episodeId, facilityId, err.Error())
	}
	if resp.StatusCode() != http.StatusOK {
		if resp.StatusCode() == http.StatusNotFound {
			return nil, nil
		}
		if authErr := checkUnauthorized(resp); authErr != nil {
			return nil, authErr
		}
		return nil, fmt.Errorf("failed to get records for episode %s in facility %s: status code %d %v", episodeId, facilityId, resp.StatusCode(), resp.Body())
	}

	var records view.EpisodeRecords
	err = json.Unmarshal(resp.Body(), &records)
	if err != nil {
		return nil, err
	}
	return &records, nil
}

func (p platformClientImpl) GetRecordDetails(ctx context.Context, facilityId, episodeId, recordSlug string) (*view.ClinicalRecord, error) {
	req := p.makeRequest(ctx)
	resp, err := req.Get(fmt.Sprintf("%s/api/v1/facilities/%s/episodes/%s/records/%s", p.platformUrl, url.PathEscape(facilityId), url.PathEscape(episodeId), url.PathEscape(recordSlug)))
	if err != nil {
		return nil, fmt.Errorf("failed to get record %s for episode %s: %s", recordSlug, episodeId, err.Error())
	}
	if resp.StatusCode() != http.StatusOK {
		if resp.StatusCode() == http.StatusNotFound {
			return nil, nil
		}
		if authErr := checkUnauthorized(resp); authErr != nil {
			return nil, authErr
		}
		return nil, fmt.Errorf("failed to get record %s for episode %s: status code %d %v", recordSlug, episodeId, resp.StatusCode(), resp.Body())
	}

	var record view.ClinicalRecord
	err = json.Unmarshal(resp.Body(), &record)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (p platformClientImpl) GetRecordRawData(ctx context.Context, facilityId, episodeId, recordSlug string) ([]byte, error) {
	req := p.makeRequest(ctx)
	resp, err := req.Get(fmt.Sprintf("%s/api/v1/facilities/%s/episodes/%s/records/%s/raw", p.platformUrl, url.PathEscape(facilityId), url.PathEscape(episodeId), url.PathEscape(recordSlug)))
	if err != nil {
		return nil, fmt.Errorf("failed to get raw record %s for episode %s: %s", recordSlug, episodeId, err.Error())
	}
	if resp.StatusCode() != http.StatusOK {
		if resp.StatusCode() == http.StatusNotFound {
			return nil, nil
		}
		if authErr := checkUnauthorized(resp); authErr != nil {
			return nil, authErr
		}
		return nil, fmt.Errorf("failed to get raw record %s for episode %s: status code %d %v", recordSlug, episodeId, resp.StatusCode(), resp.Body())
	}

	return resp.Body(), nil
}

func (p platformClientImpl) makeRequest(ctx context.Context) *resty.Request {
	req := p.client.R()
	req.SetContext(ctx)

	if secctx.IsSystem(ctx) {
		req.SetHeader("api-key", p.accessToken)
	} else {
		if secctx.GetUserToken(ctx) != "" {
			req.SetHeader("Authorization", fmt.Sprintf("Bearer %s", secctx.GetUserToken(ctx)))
		} else if secctx.GetApiKey(ctx) != "" {
			req.SetHeader("api-key", secctx.GetApiKey(ctx))
		} else if secctx.GetPersonalAccessToken(ctx) != "" {
			req.SetHeader("X-Personal-Access-Token", secctx.GetPersonalAccessToken(ctx))
		}
	}
	return req
}

func checkUnauthorized(resp *resty.Response) error {
	if resp != nil && (resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden) {
		log.Errorf("Incorrect api key detected!")
		return &exception.CustomError{
			Status:  http.StatusFailedDependency,
			Code:    exception.NoPlatformAccess,
			Message: exception.NoPlatformAccessMsg,
			Params:  map[string]interface{}{"code": strconv.Itoa(resp.StatusCode())},
		}
	}
	return nil
}
