package providers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"

	"github.com/i474232898/temperature-dashboard/internal/models"
)

// DepartmentsClient reads the département list from a geo.api.gouv.fr compatible API.
type DepartmentsClient struct {
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewDepartmentsClient(client *resty.Client, baseURL string, backoff BackoffConfig) *DepartmentsClient {
	return &DepartmentsClient{
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: backoffOrDefault(backoff),
		},
		circuit: newCircuitBreaker("departments"),
	}
}

// GetAllDepartments returns every département in upstream order.
func (c *DepartmentsClient) GetAllDepartments(ctx context.Context) ([]models.Department, error) {
	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, func(req *resty.Request) (*resty.Response, error) {
		return req.
			SetHeader("Accept", "application/json").
			SetQueryParam("fields", "nom,code,codeRegion").
			Get(c.baseURL + "/departements")
	})
	if err != nil {
		return nil, fmt.Errorf("departments: %w", err)
	}

	var departments []models.Department
	if err := json.Unmarshal(resp.Body(), &departments); err != nil {
		return nil, fmt.Errorf("departments: decode response: %w", err)
	}
	return departments, nil
}
