package nutrition

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

const DefaultBaseURL = "https://api.nal.usda.gov/fdc"

var ErrMissingAPIKey = errors.New("fdc api key is not configured")

// FDCClient queries the USDA FoodData Central search endpoint.
type FDCClient struct {
	client   *resty.Client
	apiKey   string
	timeout  time.Duration
	pageSize int
}

type FDCConfig struct {
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	PageSize int
}

func NewFDCClient(cfg FDCConfig) *FDCClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 1
	}

	return &FDCClient{
		client:   resty.New().SetBaseURL(cfg.BaseURL).SetTimeout(cfg.Timeout),
		apiKey:   cfg.APIKey,
		timeout:  cfg.Timeout,
		pageSize: cfg.PageSize,
	}
}

func (c *FDCClient) Configured() bool {
	return c.apiKey != ""
}

type searchResponse struct {
	Foods []SearchFood `json:"foods"`
}

type SearchFood struct {
	Description   string         `json:"description"`
	FoodNutrients []FoodNutrient `json:"foodNutrients"`
}

type FoodNutrient struct {
	NutrientNumber nutrientNumber `json:"nutrientNumber"`
	Value          *float64       `json:"value"`
}

// nutrientNumber accepts both "208" and 208, the search API has returned
// either form depending on the data type of the food.
type nutrientNumber string

func (n *nutrientNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*n = nutrientNumber(s)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("nutrient number must be a string or number, got %s", string(data))
	}
	*n = nutrientNumber(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}

// Search returns the foods FDC ranks for query, best match first.
func (c *FDCClient) Search(ctx context.Context, query string) ([]SearchFood, error) {
	if !c.Configured() {
		return nil, ErrMissingAPIKey
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParams(map[string]string{
			"query":    query,
			"api_key":  c.apiKey,
			"pageSize": strconv.Itoa(c.pageSize),
		}).
		Get("/v1/foods/search")
	if err != nil {
		return nil, fmt.Errorf("fdc search request failed: %w", err)
	}

	if !res.IsSuccess() {
		return nil, fmt.Errorf("fdc search returned status %d", res.StatusCode())
	}

	var parsed searchResponse
	if err := json.Unmarshal(res.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("error parsing fdc search response: %w", err)
	}

	return parsed.Foods, nil
}
