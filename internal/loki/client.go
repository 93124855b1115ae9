// Package loki ships structured logs to a Loki push endpoint, used as an
// optional zap core alongside the service's normal stderr logging.
package loki

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"
)

// Entry represents a single log line for Loki.
type Entry struct {
	Timestamp time.Time         `json:"ts"`
	Line      string            `json:"line"`
	Labels    map[string]string `json:"labels,omitempty"`
}

// Batch pushes multiple entries in one request; Push groups them into one
// stream per distinct label set.
type Batch struct {
	Entries []Entry
}

// Client is a minimal Loki HTTP client using the push API.
type Client struct {
	Endpoint     string
	HTTP         *http.Client
	StaticLabels map[string]string
}

func New(endpoint string, static map[string]string) *Client {
	return &Client{Endpoint: endpoint, HTTP: &http.Client{Timeout: 5 * time.Second}, StaticLabels: static}
}

// Push converts entries into Loki's /loki/api/v1/push schema and sends them.
func (c *Client) Push(batch Batch) error {
	grouped := map[string][][2]string{}
	streamLabels := map[string]map[string]string{}
	for _, e := range batch.Entries {
		labels := map[string]string{}
		for k, v := range c.StaticLabels {
			labels[k] = v
		}
		for k, v := range e.Labels {
			labels[k] = v
		}
		labelStr := streamKey(labels)
		ts := e.Timestamp.UTC().UnixNano()
		grouped[labelStr] = append(grouped[labelStr], [2]string{formatNano(ts), e.Line})
		streamLabels[labelStr] = labels
	}

	streams := make([]map[string]interface{}, 0, len(grouped))
	for l, values := range grouped {
		streams = append(streams, map[string]interface{}{"stream": streamLabels[l], "values": values})
	}
	body := map[string]interface{}{"streams": streams}

	buf := &bytes.Buffer{}
	gz := gzip.NewWriter(buf)
	if err := json.NewEncoder(gz).Encode(body); err != nil {
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, c.Endpoint+"/loki/api/v1/push", buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}

// streamKey serializes a label set into Loki's {k="v",...} stream selector,
// with keys sorted so equal label sets give equal keys.
func streamKey(labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	labelStr := "{"
	for i, k := range keys {
		if i > 0 {
			labelStr += ","
		}
		labelStr += k + "=\"" + labels[k] + "\""
	}
	labelStr += "}"
	return labelStr
}

func formatNano(n int64) string { return strconv.FormatInt(n, 10) }
