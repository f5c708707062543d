package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/aiacademy/tutor/pkg/summarizer"
)

type SummaryService struct {
	Options []RequestOption
}

func NewSummaryService(opts ...RequestOption) SummaryService {
	return SummaryService{
		Options: opts,
	}
}

type Summary = summarizer.Result

func (r *SummaryService) New(ctx context.Context, lessonID string, opts ...RequestOption) (*Summary, error) {
	c := newRequestConfig(append(r.Options, opts...)...)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL+"/api/lessons/"+url.PathEscape(lessonID)+"/summary", nil)

	if err != nil {
		return nil, err
	}

	c.authorize(req)

	resp, err := c.Client.Do(req)

	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, convertError(resp)
	}

	var result Summary

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	if !result.Success {
		return &result, errors.New(result.Error)
	}

	return &result, nil
}
