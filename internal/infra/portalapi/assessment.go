package portalapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/yanqian/assessment-portal/internal/domain/assessment"
	"github.com/yanqian/assessment-portal/internal/domain/locations"
	apperrors "github.com/yanqian/assessment-portal/pkg/errors"
)

// SubmitAssessment implements assessment.Submitter.
func (c *Client) SubmitAssessment(ctx context.Context, payload assessment.Payload) (assessment.Result, error) {
	resp, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   c.endpoints.Submit,
		body:   payload,
		csrf:   true,
	})
	if err != nil {
		return assessment.Result{}, err
	}
	if !resp.ok() {
		return assessment.Result{}, statusError(c.endpoints.Submit, resp)
	}
	var result assessment.Result
	if err := json.Unmarshal(resp.body, &result); err != nil {
		return assessment.Result{}, apperrors.Wrap(apperrors.CodeDecodeError, "decode assessment result", err)
	}
	return result, nil
}

// Locations implements locations.Lookup. A body that is not a JSON array
// yields a nil slice.
func (c *Client) Locations(ctx context.Context, query string) ([]locations.Candidate, error) {
	resp, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   c.endpoints.Locations,
		query:  url.Values{"q": {query}},
	})
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, statusError(c.endpoints.Locations, resp)
	}
	trimmed := bytes.TrimSpace(resp.body)
	if !json.Valid(trimmed) {
		return nil, apperrors.Wrap(apperrors.CodeDecodeError, "location response is not JSON", nil)
	}
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, nil
	}
	var candidates []locations.Candidate
	if err := json.Unmarshal(trimmed, &candidates); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDecodeError, "decode location candidates", err)
	}
	return candidates, nil
}

var (
	_ assessment.Submitter = (*Client)(nil)
	_ locations.Lookup     = (*Client)(nil)
)
