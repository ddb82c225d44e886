package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/mohae/deepcopy"

	"github.com/prasenjit/go-requester/internal/textutil"
)

// FileRef describes a file picked as a raw request body. Its content is never read here.
type FileRef struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType,omitempty"`
}

// RequestData is a single request built from a Swagger operation
type RequestData struct {
	ID          int32              `json:"id,omitempty"` // Dedup identity, set by HashID
	Type        string             `json:"type"`         // Lowercase HTTP method
	Host        string             `json:"host,omitempty"`
	URL         string             `json:"url"` // Path only, no host and no query
	Parameters  Parameters         `json:"parameters"`
	Definitions map[string]*Schema `json:"definitions,omitempty"`
	Consumes    []string           `json:"consumes,omitempty"`
	Produces    []string           `json:"produces,omitempty"`
	Header      string             `json:"header,omitempty"`
	Raw         any                `json:"raw,omitempty"` // Edited or generated body value
	Binary      *FileRef           `json:"binary,omitempty"`
	Timestamp   int64              `json:"timestamp,omitempty"` // Unix millis, set by HashID
	Editable    bool               `json:"editable"`            // URL was blank at construction
}

// NewRequestData creates a request for an operation. host may be empty.
func NewRequestData(method, url string, parameters []Parameter, definitions map[string]*Schema, host string) *RequestData {
	r := &RequestData{
		Type:        method,
		Host:        host,
		URL:         url,
		Parameters:  parameters,
		Definitions: definitions,
		Editable:    textutil.IsBlank(url),
	}
	r.init()
	return r
}

// DefaultRequestData returns an empty, editable GET request
func DefaultRequestData() *RequestData {
	return NewRequestData("get", "", nil, map[string]*Schema{}, "")
}

func (r *RequestData) init() {
	params := make(Parameters, 0, len(r.Parameters))
	for _, p := range r.Parameters {
		if p == nil {
			continue
		}
		if c := p.Common(); isFalsy(c.Value) {
			c.Value = nil
		}
		params = append(params, p)
	}
	r.Parameters = params
}

// Query returns the URL followed by every query parameter in declaration order
func (r *RequestData) Query() string {
	params := r.Params(InQuery)
	if len(params) == 0 {
		return r.URL
	}

	var b strings.Builder
	b.WriteString(r.URL)
	b.WriteByte('?')
	for i, p := range params {
		c := p.Common()
		b.WriteString(c.Name)
		b.WriteByte('=')
		if !isFalsy(c.Value) {
			b.WriteString(formatValue(c.Value))
		}
		if i < len(params)-1 {
			b.WriteByte('&')
		}
	}
	return b.String()
}

// SetQuery applies a "path?k=v&..." string. The path is only taken when the
// request is editable. Every query parameter is overwritten, so names missing
// from val are cleared. Values are copied without decoding.
func (r *RequestData) SetQuery(val string) {
	path, rawQuery, found := strings.Cut(val, "?")
	if r.Editable {
		r.URL = path
	}
	if !found {
		return
	}

	values := make(map[string]any)
	for _, piece := range strings.Split(rawQuery, "&") {
		key, value, ok := strings.Cut(piece, "=")
		if !ok {
			values[key] = nil
			continue
		}
		values[key] = value
	}

	for _, p := range r.Params(InQuery) {
		c := p.Common()
		c.Value = values[c.Name]
	}
}

// BodyStr returns the pretty printed JSON body, generating an example on first use
func (r *RequestData) BodyStr() string {
	if !r.ContainBody() {
		return ""
	}
	if r.Raw == nil {
		r.Raw = r.BodyExample()
	}

	data, err := marshalJSON(r.Raw)
	if err != nil {
		return ""
	}
	return textutil.PrettyJSON(string(data))
}

// SetBodyStr replaces the body when value is a JSON object or array.
// Anything else, such as half typed JSON, keeps the previous body.
func (r *RequestData) SetBodyStr(value string) {
	if v, ok := textutil.ParseJSON(value); ok {
		r.Raw = v
	}
}

// BodyExample generates a sample for the body parameter schema, nil without one
func (r *RequestData) BodyExample() any {
	var example any
	for _, p := range r.Parameters {
		body, ok := p.(*BodyParameter)
		if !ok {
			continue
		}
		example = r.BodyJSONExample(body.Schema)
	}
	return example
}

// BodyJSONExample generates a sample value for schema, resolving $ref against Definitions
func (r *RequestData) BodyJSONExample(schema *Schema) any {
	return newExampleWalker(r.Definitions).walk(schema)
}

// SupportBody reports whether the method may carry a body
func (r *RequestData) SupportBody() bool {
	return r.Type != "get" && r.Type != "head"
}

// ContainBody reports whether the operation declares a body parameter
func (r *RequestData) ContainBody() bool {
	return len(r.Params(InBody)) > 0
}

// Params returns the parameters located in any of inTypes, in order
func (r *RequestData) Params(inTypes ...InType) []Parameter {
	result := make([]Parameter, 0)
	for _, p := range r.Parameters {
		for _, in := range inTypes {
			if p.In() == in {
				result = append(result, p)
				break
			}
		}
	}
	return result
}

// Includes reports whether needle occurs, ignoring case, in the URL, parameters, body or header
func (r *RequestData) Includes(needle string) bool {
	params, _ := marshalJSON(r.Parameters)
	raw, _ := marshalJSON(r.Raw)
	haystack := strings.Join([]string{r.URL, string(params), string(raw), r.Header}, "\n")
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// FullURL joins host and query without adjusting slashes
func (r *RequestData) FullURL() string {
	return r.Host + r.Query()
}

// HashID stamps the request and derives its dedup identity from host, url and
// method. Parameter values do not take part.
func (r *RequestData) HashID() int32 {
	r.Timestamp = clock().UnixMilli()
	r.ID = hashString(r.Host + r.URL + r.Type)
	return r.ID
}

// Clone returns a deep copy, used to open an editor from an operation template
func (r *RequestData) Clone() *RequestData {
	return deepcopy.Copy(r).(*RequestData)
}

// UnmarshalJSON restores a stored request. The body keeps its key order.
func (r *RequestData) UnmarshalJSON(data []byte) error {
	type plain RequestData
	aux := struct {
		*plain
		Raw json.RawMessage `json:"raw,omitempty"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	r.Raw = nil
	if len(aux.Raw) > 0 {
		raw, ok := textutil.DecodeJSON(string(aux.Raw))
		if !ok {
			return fmt.Errorf("invalid raw body")
		}
		r.Raw = raw
	}
	return nil
}

// hashString is the 31 multiplier string hash over UTF-16 code units with
// int32 wraparound. Stored history ids depend on it staying bit-exact.
func hashString(s string) int32 {
	var hash int32
	for _, unit := range utf16.Encode([]rune(s)) {
		hash = hash*31 + int32(unit)
	}
	return hash
}

// isFalsy mirrors the values a form treats as "no value"
func isFalsy(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.Len() == 0
	case reflect.Bool:
		return !rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() == 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f == 0 || math.IsNaN(f)
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	default:
		return false
	}
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			if item != nil {
				parts[i] = formatValue(item)
			}
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(val)
	}
}

// marshalJSON encodes without HTML escaping so search and display see the literal text
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
