package careapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rxmeter/collector/internal/core/config"
	"github.com/rxmeter/collector/internal/core/domain"
)

// Client performs calls against the care pricing API.
type Client struct {
	cfg        config.APIConfig
	httpClient *http.Client
	creds      CredentialSource

	// Injection points for tests.
	sleep     func(context.Context, time.Duration) error
	newCallID func() string
}

// NewClient creates an API client using the provided credential source.
func NewClient(cfg config.APIConfig, creds CredentialSource) *Client {
	return &Client{
		cfg:   cfg,
		creds: creds,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		sleep:     sleepCtx,
		newCallID: uuid.NewString,
	}
}

// detailRequest builds the GET request for one work unit: static
// parameters plus per-unit fields and a fresh correlation id.
func (c *Client) detailRequest(
	ctx context.Context,
	unit domain.WorkUnit,
	creds domain.Credentials,
) (*http.Request, error) {
	params := url.Values{}
	params.Set("memberUuid", creds.MemberUUID)
	params.Set("category", "prescriptions")
	params.Set("searchRadius", strconv.Itoa(c.cfg.SearchRadius))
	params.Set("prescriptionInitialLoad", "true")
	params.Set("uuid", unit.Drug.CareUUID)
	params.Set("zipCode", unit.Location.Zip)
	params.Set("locationLat", strconv.FormatFloat(unit.Location.Lat, 'f', -1, 64))
	params.Set("locationLong", strconv.FormatFloat(unit.Location.Lng, 'f', -1, 64))
	params.Set("searchedQuery", searchedQuery(unit.Drug))
	params.Set("intentCallId", c.newCallID())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.DetailURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, creds)
	return req, nil
}

// searchRequest builds the GET request used to resolve a catalog code
// to its care resource uuid.
func (c *Client) searchRequest(
	ctx context.Context,
	query string,
	creds domain.Credentials,
) (*http.Request, error) {
	params := url.Values{}
	params.Set("memberUuid", creds.MemberUUID)
	params.Set("query", query)
	params.Set("page", "0")
	params.Set("size", "25")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.SearchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, creds)
	return req, nil
}

func (c *Client) setHeaders(req *http.Request, creds domain.Credentials) {
	req.Header.Set("accept", "*/*")
	req.Header.Set("content-type", "application/json; charset=utf-8")
	req.Header.Set("token", creds.Token)
	req.Header.Set("tz", "PDT")
	if c.cfg.Origin != "" {
		req.Header.Set("origin", c.cfg.Origin)
		req.Header.Set("referer", c.cfg.Origin+"/")
	}
}

func searchedQuery(d domain.Drug) string {
	if d.Name == "" {
		return "prescription"
	}
	return strings.ToLower(d.Name)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
