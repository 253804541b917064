package main

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

const (
	requestEventName   = "taskboard.api.request"
	requestEventDomain = "app"

	attrRoute       = "http.route"
	attrMethod      = "http.method"
	attrStatusCode  = "http.status_code"
	attrTotalMillis = "taskboard.request.total_ms"
	attrErrorStage  = "taskboard.request.error_stage"
)

// logRecord is one logrus JSON line written by the gateway's request metrics.
type logRecord struct {
	EventName      string         `json:"event.name"`
	EventDomain    string         `json:"event.domain"`
	SeverityText   string         `json:"severity_text"`
	SeverityNumber int            `json:"severity_number"`
	Attributes     map[string]any `json:"attributes"`
}

type collector struct {
	eventName   string
	eventDomain string
	stats       metricsSummary
	skipped     int
}

type metricsSummary struct {
	Count          int
	SeverityCounts map[string]int
	StatusCounts   map[int]int
	Total          *numericStats
	Routes         map[string]*numericStats
	ErrorStages    map[string]int
	ErrorEvents    int
	WarnEvents     int
}

type numericStats struct {
	Count  int
	Sum    float64
	Min    float64
	Max    float64
	values []float64
}

type durationSummary struct {
	Count int     `json:"count"`
	Min   float64 `json:"min_ms"`
	Max   float64 `json:"max_ms"`
	Avg   float64 `json:"avg_ms"`
	P95   float64 `json:"p95_ms"`
}

type summaryOutput struct {
	EventName      string                     `json:"event_name"`
	EventDomain    string                     `json:"event_domain"`
	TotalEvents    int                        `json:"total_events"`
	SeverityCounts map[string]int             `json:"severity_counts"`
	StatusCounts   map[string]int             `json:"status_counts"`
	DurationMs     durationSummary            `json:"duration_ms"`
	Routes         map[string]durationSummary `json:"routes,omitempty"`
	ErrorStages    map[string]int             `json:"error_stages,omitempty"`
	ErrorEvents    int                        `json:"error_events"`
	WarnEvents     int                        `json:"warn_events"`
	SkippedLines   int                        `json:"skipped_lines"`
}

func newCollector(eventName, eventDomain string) *collector {
	return &collector{
		eventName:   eventName,
		eventDomain: eventDomain,
		stats: metricsSummary{
			SeverityCounts: make(map[string]int),
			StatusCounts:   make(map[int]int),
			Total:          newNumericStats(),
			Routes:         make(map[string]*numericStats),
			ErrorStages:    make(map[string]int),
		},
	}
}

// ingest reads one log line. Lines prefixed by a container name and a pipe,
// as docker compose prints them, are accepted too.
func (c *collector) ingest(line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}
	if pipe := strings.Index(trimmed, "|"); pipe >= 0 && !strings.HasPrefix(trimmed, "{") {
		trimmed = strings.TrimSpace(trimmed[pipe+1:])
	}

	rec, err := decodeRecord(trimmed)
	if err != nil {
		c.skipped++
		return
	}
	if rec.EventName != c.eventName {
		return
	}
	if c.eventDomain != "" && rec.EventDomain != c.eventDomain {
		return
	}
	c.addRecord(rec)
}

func decodeRecord(raw string) (logRecord, error) {
	var rec logRecord
	dec := sonic.ConfigStd.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&rec); err != nil {
		return logRecord{}, err
	}
	return rec, nil
}

func (c *collector) addRecord(rec logRecord) {
	c.stats.Count++

	severity := strings.ToUpper(strings.TrimSpace(rec.SeverityText))
	if severity == "" {
		severity = "UNSPECIFIED"
	}
	c.stats.SeverityCounts[severity]++
	switch severity {
	case "ERROR":
		c.stats.ErrorEvents++
	case "WARN", "WARNING":
		c.stats.WarnEvents++
	}

	if rec.Attributes == nil {
		return
	}
	if status, ok := asInt(rec.Attributes[attrStatusCode]); ok {
		c.stats.StatusCounts[status]++
	}
	if v, ok := asFloat(rec.Attributes[attrTotalMillis]); ok {
		c.stats.Total.add(v)
		route, _ := rec.Attributes[attrRoute].(string)
		if route != "" {
			if method, _ := rec.Attributes[attrMethod].(string); method != "" {
				route = method + " " + route
			}
			stat, ok := c.stats.Routes[route]
			if !ok {
				stat = newNumericStats()
				c.stats.Routes[route] = stat
			}
			stat.add(v)
		}
	}
	if stage, ok := rec.Attributes[attrErrorStage].(string); ok && stage != "" {
		c.stats.ErrorStages[stage]++
	}
}

func newNumericStats() *numericStats {
	return &numericStats{Min: math.MaxFloat64}
}

func (n *numericStats) add(value float64) {
	n.Count++
	n.Sum += value
	n.values = append(n.values, value)
	if value < n.Min {
		n.Min = value
	}
	if value > n.Max {
		n.Max = value
	}
}

func (n *numericStats) summary() durationSummary {
	if n == nil || n.Count == 0 {
		return durationSummary{}
	}
	sorted := append([]float64(nil), n.values...)
	sort.Float64s(sorted)
	idx := int(math.Ceil(0.95*float64(len(sorted)))) - 1
	return durationSummary{
		Count: n.Count,
		Min:   n.Min,
		Max:   n.Max,
		Avg:   n.Sum / float64(n.Count),
		P95:   sorted[idx],
	}
}

func (c *collector) summary() summaryOutput {
	statusCounts := make(map[string]int, len(c.stats.StatusCounts))
	for status, count := range c.stats.StatusCounts {
		statusCounts[strconv.Itoa(status)] = count
	}
	var routes map[string]durationSummary
	if len(c.stats.Routes) > 0 {
		routes = make(map[string]durationSummary, len(c.stats.Routes))
		for route, stat := range c.stats.Routes {
			routes[route] = stat.summary()
		}
	}
	severity := make(map[string]int, len(c.stats.SeverityCounts))
	for k, v := range c.stats.SeverityCounts {
		severity[k] = v
	}

	return summaryOutput{
		EventName:      c.eventName,
		EventDomain:    c.eventDomain,
		TotalEvents:    c.stats.Count,
		SeverityCounts: severity,
		StatusCounts:   statusCounts,
		DurationMs:     c.stats.Total.summary(),
		Routes:         routes,
		ErrorStages:    compactStringIntMap(c.stats.ErrorStages),
		ErrorEvents:    c.stats.ErrorEvents,
		WarnEvents:     c.stats.WarnEvents,
		SkippedLines:   c.skipped,
	}
}

func compactStringIntMap(in map[string]int) map[string]int {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (s summaryOutput) ShortString() string {
	return strings.Join([]string{
		"event=" + s.EventName,
		"total=" + strconv.Itoa(s.TotalEvents),
		"info=" + strconv.Itoa(s.SeverityCounts["INFO"]),
		"warn=" + strconv.Itoa(s.WarnEvents),
		"error=" + strconv.Itoa(s.ErrorEvents),
		"avg_ms=" + formatFloat(s.DurationMs.Avg),
		"p95_ms=" + formatFloat(s.DurationMs.P95),
		"max_ms=" + formatFloat(s.DurationMs.Max),
	}, " ")
}

func formatFloat(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func asInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case json.Number:
		i, err := v.Int64()
		return int(i), err == nil
	case string:
		i, err := strconv.Atoi(v)
		return i, err == nil
	default:
		return 0, false
	}
}
