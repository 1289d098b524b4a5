package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"

	"github.com/i474232898/temperature-dashboard/internal/common"
	"github.com/i474232898/temperature-dashboard/internal/models"
)

// maxRecords is the Opendatasoft ceiling on offset+limit.
const maxRecords = 10000

// TemperaturesClient reads daily département temperatures from an Opendatasoft
// explore v2.1 dataset.
type TemperaturesClient struct {
	baseURL  string
	dataset  string
	pageSize int
	httpCfg  HTTPClientConfig
	circuit  *gobreaker.CircuitBreaker
}

func NewTemperaturesClient(client *resty.Client, baseURL, dataset string, pageSize int, backoff BackoffConfig) *TemperaturesClient {
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 100
	}
	return &TemperaturesClient{
		baseURL:  baseURL,
		dataset:  dataset,
		pageSize: pageSize,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: backoffOrDefault(backoff),
		},
		circuit: newCircuitBreaker("temperatures"),
	}
}

// GetDepartmentsTemperatureForDate returns the observations of every département on date.
func (c *TemperaturesClient) GetDepartmentsTemperatureForDate(ctx context.Context, date time.Time) (models.TemperatureResults, error) {
	where := fmt.Sprintf("date_obs = date'%s'", common.FormatDay(date))
	return c.fetchAll(ctx, where)
}

// GetTemperaturesForDepartmentAndInterval returns the observations of one département
// between from and to inclusive, newest first.
func (c *TemperaturesClient) GetTemperaturesForDepartmentAndInterval(ctx context.Context, code string, from, to time.Time) (models.TemperatureResults, error) {
	where := fmt.Sprintf(
		"code_insee_departement = %s and date_obs >= date'%s' and date_obs <= date'%s'",
		quote(code), common.FormatDay(from), common.FormatDay(to),
	)
	return c.fetchAll(ctx, where)
}

func (c *TemperaturesClient) fetchAll(ctx context.Context, where string) (models.TemperatureResults, error) {
	var all models.TemperatureResults

	for offset := 0; ; {
		page, err := c.fetchPage(ctx, where, offset)
		if err != nil {
			return models.TemperatureResults{}, err
		}

		all.TotalCount = page.TotalCount
		all.Results = append(all.Results, page.Results...)
		offset += len(page.Results)

		if len(page.Results) == 0 || offset >= page.TotalCount || offset+c.pageSize > maxRecords {
			break
		}
	}

	if all.Results == nil {
		all.Results = []models.TemperatureDepartment{}
	}
	return all, nil
}

func (c *TemperaturesClient) fetchPage(ctx context.Context, where string, offset int) (models.TemperatureResults, error) {
	path := fmt.Sprintf("%s/api/explore/v2.1/catalog/datasets/%s/records", c.baseURL, c.dataset)

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, func(req *resty.Request) (*resty.Response, error) {
		return req.
			SetHeader("Accept", "application/json").
			SetQueryParams(map[string]string{
				"where":    where,
				"order_by": "date_obs desc",
				"limit":    strconv.Itoa(c.pageSize),
				"offset":   strconv.Itoa(offset),
			}).
			Get(path)
	})
	if err != nil {
		return models.TemperatureResults{}, fmt.Errorf("temperatures: %w", err)
	}

	var page models.TemperatureResults
	if err := json.Unmarshal(resp.Body(), &page); err != nil {
		return models.TemperatureResults{}, fmt.Errorf("temperatures: decode response: %w", err)
	}
	return page, nil
}

// quote escapes a string literal for an ODSQL where clause.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
