package charts

import (
	"encoding/json"
	"fmt"
	"html/template"
	"sync"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/i474232898/temperature-dashboard/internal/models"
)

const (
	lineColor   = "#f76b15"
	minInterval = 3
	seriesName  = "tmoy"
)

// LineChart turns daily observations into an echarts line chart of the mean temperature.
// Observations arrive newest first and are plotted oldest first.
type LineChart struct {
	id     string
	height string

	mu     sync.RWMutex
	labels []string
	values []float64
	option map[string]any
}

func NewLineChart(id string) *LineChart {
	return &LineChart{id: id, height: "300px"}
}

// SetData rebuilds the chart option from data. A nil slice leaves the chart untouched.
func (c *LineChart) SetData(data []models.TemperatureDepartment) error {
	if data == nil {
		return nil
	}

	labels := make([]string, len(data))
	values := make([]float64, len(data))
	for i, t := range data {
		j := len(data) - 1 - i
		labels[j] = t.Date
		values[j] = t.TMoy
	}

	option, err := buildOption(labels, values)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.labels, c.values, c.option = labels, values, option
	c.mu.Unlock()
	return nil
}

// Series returns the plotted labels and values, oldest first.
func (c *LineChart) Series() (labels []string, values []float64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.labels...), append([]float64(nil), c.values...)
}

// Option returns the echarts option, false before the first SetData.
func (c *LineChart) Option() (map[string]any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.option, c.option != nil
}

// OptionJSON returns the option serialised for the browser, "{}" before the first SetData.
func (c *LineChart) OptionJSON() (string, error) {
	option, ok := c.Option()
	if !ok {
		return "{}", nil
	}
	b, err := json.Marshal(option)
	if err != nil {
		return "", fmt.Errorf("marshal chart option: %w", err)
	}
	return string(b), nil
}

// Snippet renders the chart container and the script that initialises it once,
// applies the current option and resizes the chart with the window.
func (c *LineChart) Snippet() (ChartSnippet, error) {
	option, err := c.OptionJSON()
	if err != nil {
		return ChartSnippet{}, err
	}

	id := template.JSEscapeString(c.id)
	div := fmt.Sprintf(`<div id="%s" style="width:100%%;height:%s;"></div>`, template.HTMLEscapeString(c.id), c.height)
	script := fmt.Sprintf(
		`<script>(function(){var el=document.getElementById('%s');if(!el)return;`+
			`var c=echarts.getInstanceByDom(el)||echarts.init(el);var option=%s;c.setOption(option);`+
			`window.addEventListener('resize',function(){c.resize();});})();</script>`,
		id, option,
	)

	return ChartSnippet{
		ID:     c.id,
		Title:  "Mean temperature",
		Div:    div,
		Script: script,
		HTML:   div + "\n" + script,
	}, nil
}

// UpdateScript returns the JavaScript that pushes the current option into the live chart,
// or "" before the first SetData.
func (c *LineChart) UpdateScript() (string, error) {
	if _, ok := c.Option(); !ok {
		return "", nil
	}
	option, err := c.OptionJSON()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(
		`(function(){var el=document.getElementById('%s');if(!el)return;`+
			`var c=echarts.getInstanceByDom(el)||echarts.init(el);c.setOption(%s,true);})();`,
		template.JSEscapeString(c.id), option,
	), nil
}

func buildOption(labels []string, values []float64) (map[string]any, error) {
	items := make([]opts.LineData, len(values))
	for i, v := range values {
		items[i] = opts.LineData{Value: v}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
		charts.WithGridOpts(opts.Grid{Left: "30", Right: "10", Bottom: "20", Top: "10"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value"}),
	)
	line.SetXAxis(labels).
		AddSeries(seriesName, items).
		SetSeriesOptions(
			charts.WithLineChartOpts(opts.LineChart{Smooth: true, Symbol: "none"}),
			charts.WithLineStyleOpts(opts.LineStyle{Width: 1}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: lineColor}),
		)
	line.Validate()

	// opts.YAxis has no minInterval: round-trip through JSON to a plain map and set it there.
	raw, err := json.Marshal(line.JSON())
	if err != nil {
		return nil, fmt.Errorf("marshal chart option: %w", err)
	}
	var option map[string]any
	if err := json.Unmarshal(raw, &option); err != nil {
		return nil, fmt.Errorf("unmarshal chart option: %w", err)
	}

	for _, axis := range asObjects(option["yAxis"]) {
		axis["minInterval"] = minInterval
	}
	return option, nil
}

func asObjects(v any) []map[string]any {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
