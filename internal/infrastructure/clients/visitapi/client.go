package visitapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/zahanati/dashboard-backend/pkg/config"
	apperrors "github.com/zahanati/dashboard-backend/pkg/errors"
	"github.com/zahanati/dashboard-backend/pkg/retry"
)

// DateLayout is the path segment format the upstream endpoint is keyed by.
const DateLayout = "20060102"

// RawVisit is one record exactly as the hospital information system sends
// it. Every field is a string; absent fields decode to "".
type RawVisit struct {
	MRNumber    string `json:"mrNumber"`
	VisitNum    string `json:"visitNum"`
	VisitType   string `json:"visitType"`
	VisitDate   string `json:"visitDate"`
	DoctCode    string `json:"doctCode"`
	ConsTime    string `json:"consTime"`
	ConsNo      string `json:"consNo"`
	ClinicCode  string `json:"clinicCode"`
	ClinicName  string `json:"clinicName"`
	ConsDoctor  string `json:"consDoctor"`
	VisitStatus string `json:"visitStatus"`
	AccompCode  string `json:"accompCode"`
	DoctConsDt  string `json:"doctConsDt"`
	DoctConsTm  string `json:"doctConsTm"`
	DeptCode    string `json:"deptCode"`
	DeptName    string `json:"deptName"`
	PatCatg     string `json:"patCatg"`
	PatCatgNm   string `json:"patCatgNm"`
	RefHosp     string `json:"refHosp"`
	RefHospName string `json:"refHospName"`
	NhiYn       string `json:"nhiYn"`
	PatSex      string `json:"patSex"`
	Status      string `json:"status"`
}

// Client fetches a date's worth of visit records.
type Client interface {
	// FetchVisits returns the raw records for one date. Transient transport
	// failures are retried a small bounded number of times; an HTTP error
	// status is returned as an external error without automatic retry.
	FetchVisits(ctx context.Context, date time.Time) ([]RawVisit, error)

	// CountForDate fetches the date's payload and returns only its length.
	// Used by the sync watcher to cheaply detect new upstream records.
	CountForDate(ctx context.Context, date time.Time) (int, error)
}

// HTTPClient talks to the real endpoint with basic auth.
type HTTPClient struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	retryCfg   retry.Config
}

// NewClient creates a visit API client from configuration.
func NewClient(cfg *config.VisitAPIConfig) *HTTPClient {
	return &HTTPClient{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: cfg.ConnectTimeout,
				}).DialContext,
			},
		},
		retryCfg: retry.FetchConfig(cfg.MaxRetries),
	}
}

type visitPayload struct {
	Data []RawVisit `json:"data"`
}

// FetchVisits implements Client.
func (c *HTTPClient) FetchVisits(ctx context.Context, date time.Time) ([]RawVisit, error) {
	endpoint := fmt.Sprintf("%s/%s", c.baseURL, date.Format(DateLayout))

	var payload visitPayload
	var statusErr error

	err := retry.Do(ctx, c.retryCfg, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.SetBasicAuth(c.username, c.password)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			// Transport-level failure, worth retrying.
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			statusErr = apperrors.NewExternalError(fmt.Sprintf("API Error: %d", resp.StatusCode), nil)
			return nil
		}
		statusErr = nil

		payload = visitPayload{}
		return json.NewDecoder(resp.Body).Decode(&payload)
	})
	if err != nil {
		return nil, apperrors.NewExternalError("visit api unreachable", err)
	}
	if statusErr != nil {
		return nil, statusErr
	}

	return payload.Data, nil
}

// CountForDate implements Client.
func (c *HTTPClient) CountForDate(ctx context.Context, date time.Time) (int, error) {
	visits, err := c.FetchVisits(ctx, date)
	if err != nil {
		return 0, err
	}
	return len(visits), nil
}
