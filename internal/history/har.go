package history

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/pb33f/harhar"

	"github.com/prasenjit/go-requester/internal/models"
)

const harVersion = "1.2"

// Creator identifies the exporting application in HAR files
var Creator = harhar.Creator{Name: "go-requester", Version: "dev"}

// ExportHAR returns every entry, oldest first, as a HAR log
func (s *Service) ExportHAR() (*harhar.HAR, error) {
	entries, err := s.store.GetAllEntries()
	if err != nil {
		return nil, err
	}

	har := &harhar.HAR{Log: harhar.Log{
		Version: harVersion,
		Creator: Creator,
		Pages:   []harhar.Page{},
		Entries: make([]harhar.Entry, 0, len(entries)),
	}}
	for _, e := range entries {
		har.Log.Entries = append(har.Log.Entries, toHAREntry(e.Request))
	}
	return har, nil
}

func toHAREntry(req *models.RequestData) harhar.Entry {
	start := time.Now()
	if req.Timestamp > 0 {
		start = time.UnixMilli(req.Timestamp)
	}

	return harhar.Entry{
		Start:   start.UTC().Format(time.RFC3339Nano),
		Request: toHARRequest(req),
		Response: harhar.Response{
			HTTPVersion: "HTTP/1.1",
			HeadersSize: -1,
			BodySize:    -1,
		},
	}
}

func toHARRequest(req *models.RequestData) harhar.Request {
	hr := harhar.Request{
		Method:      strings.ToUpper(req.Type),
		URL:         req.FullURL(),
		HTTPVersion: "HTTP/1.1",
		Headers:     parseHeaderText(req.Header),
		QueryParams: queryPairs(req.Query()),
		Cookies:     []harhar.Cookie{},
		HeadersSize: -1,
		BodySize:    -1,
	}

	if !req.ContainBody() {
		return hr
	}

	raw := req.Raw
	if raw == nil {
		raw = req.BodyExample()
	}
	content, err := json.Marshal(raw)
	if err != nil {
		return hr
	}

	mime := "application/json"
	if len(req.Consumes) > 0 {
		mime = req.Consumes[0]
	}
	hr.Body = harhar.BodyType{MIMEType: mime, Content: string(content)}
	hr.BodySize = len(content)
	return hr
}

// parseHeaderText reads "Name: value" lines. Lines without a colon are ignored.
func parseHeaderText(text string) []harhar.NameValuePair {
	headers := []harhar.NameValuePair{}
	for _, line := range strings.Split(text, "\n") {
		name, value, ok := strings.Cut(line, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			continue
		}
		headers = append(headers, harhar.NameValuePair{Name: name, Value: strings.TrimSpace(value)})
	}
	return headers
}

func queryPairs(query string) []harhar.NameValuePair {
	pairs := []harhar.NameValuePair{}
	_, raw, found := strings.Cut(query, "?")
	if !found {
		return pairs
	}
	for _, piece := range strings.Split(raw, "&") {
		name, value, _ := strings.Cut(piece, "=")
		pairs = append(pairs, harhar.NameValuePair{Name: name, Value: value})
	}
	return pairs
}
