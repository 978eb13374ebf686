package nutritionix

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/caloriebalance/tracker/internal/config"
	"github.com/caloriebalance/tracker/internal/domain/models"
)

// ErrServiceUnavailable wraps every transport or upstream failure.
var ErrServiceUnavailable = errors.New("nutrition service unavailable")

// ErrEmptyQuery is returned for blank meal descriptions.
var ErrEmptyQuery = errors.New("meal query is required")

const naturalNutrientsPath = "/v2/natural/nutrients"

// Client looks up nutrition facts for a natural-language meal description.
type Client interface {
	Lookup(ctx context.Context, query string) ([]models.FoodItem, error)
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
}

// NewClient builds a Nutritionix API client using the provided configuration values.
func NewClient(cfg config.NutritionixConfig) *APIClient {
	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("x-app-id", cfg.AppID).
		SetHeader("x-app-key", cfg.AppKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout)

	return &APIClient{httpClient: restyClient}
}

type nutrientsResponse struct {
	Foods []json.RawMessage `json:"foods"`
}

type apiError struct {
	Message string `json:"message"`
}

// Lookup posts the query to the natural nutrients endpoint and returns one
// item per recognised food. The raw upstream object is kept on each item.
func (c *APIClient) Lookup(ctx context.Context, query string) ([]models.FoodItem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	result := new(nutrientsResponse)
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]any{"query": query}).
		SetResult(result).
		SetError(apiErr).
		Post(naturalNutrientsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("%w: status=%d, message=%s", ErrServiceUnavailable, resp.StatusCode(), apiErr.Message)
	}

	items := make([]models.FoodItem, 0, len(result.Foods))
	for _, raw := range result.Foods {
		var item models.FoodItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, fmt.Errorf("%w: decode food: %v", ErrServiceUnavailable, err)
		}
		items = append(items, item)
	}

	return items, nil
}
