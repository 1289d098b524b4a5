package charts

// ChartSnippet is an embeddable echarts fragment.
// Div holds the root element, Script initialises the chart inside it and HTML is both combined.
type ChartSnippet struct {
	ID     string
	Title  string
	Div    string
	Script string
	HTML   string
}
