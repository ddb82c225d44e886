package models

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prasenjit/go-requester/internal/textutil"
)

func query(name string, value any) Parameter {
	return &QueryParameter{ParamCommon: ParamCommon{Name: name, Value: value}}
}

func TestNewRequestData_Defaults(t *testing.T) {
	r := NewRequestData("get", "/pets", nil, nil, "")

	require.NotNil(t, r.Parameters)
	assert.Empty(t, r.Parameters)
	assert.False(t, r.Editable)

	blank := NewRequestData("get", "  ", nil, nil, "")
	assert.True(t, blank.Editable)

	def := DefaultRequestData()
	assert.Equal(t, "get", def.Type)
	assert.True(t, def.Editable)
}

func TestNewRequestData_NormalizesFalsyValues(t *testing.T) {
	params := []Parameter{
		query("empty", ""),
		query("zero", 0),
		query("off", false),
		query("nan", math.NaN()),
		query("set", "x"),
		nil,
	}
	r := NewRequestData("get", "/pets", params, nil, "")

	require.Len(t, r.Parameters, 5)
	for _, p := range r.Parameters[:4] {
		assert.Nil(t, p.Common().Value, p.Common().Name)
	}
	assert.Equal(t, "x", r.Parameters[4].Common().Value)
}

func TestQuery(t *testing.T) {
	tests := []struct {
		name   string
		params []Parameter
		want   string
	}{
		{
			name:   "no query parameters",
			params: []Parameter{&PathParameter{ParamCommon: ParamCommon{Name: "id", Value: "7"}}},
			want:   "/pets",
		},
		{
			name:   "values in declaration order",
			params: []Parameter{query("b", "2"), query("a", "1")},
			want:   "/pets?b=2&a=1",
		},
		{
			name:   "missing value keeps the key",
			params: []Parameter{query("a", "1"), query("b", nil)},
			want:   "/pets?a=1&b=",
		},
		{
			name:   "non string values",
			params: []Parameter{query("n", 2.5), query("ok", true), query("tags", []any{"x", "y"})},
			want:   "/pets?n=2.5&ok=true&tags=x,y",
		},
		{
			name:   "no encoding",
			params: []Parameter{query("q", "a b&c")},
			want:   "/pets?q=a b&c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRequestData("get", "/pets", tt.params, nil, "")
			assert.Equal(t, tt.want, r.Query())
		})
	}
}

func TestSetQuery(t *testing.T) {
	t.Run("editable request takes the path", func(t *testing.T) {
		r := NewRequestData("get", "", []Parameter{query("a", nil)}, nil, "")
		r.SetQuery("/pets?a=1")

		assert.Equal(t, "/pets", r.URL)
		assert.Equal(t, "1", r.Parameters[0].Common().Value)
	})

	t.Run("editable request without query", func(t *testing.T) {
		r := NewRequestData("get", "", []Parameter{query("a", "keep")}, nil, "")
		r.SetQuery("/pets")

		assert.Equal(t, "/pets", r.URL)
		assert.Equal(t, "keep", r.Parameters[0].Common().Value)
	})

	t.Run("fixed request keeps its path", func(t *testing.T) {
		r := NewRequestData("get", "/pets", []Parameter{query("a", nil)}, nil, "")
		r.SetQuery("/other?a=1")

		assert.Equal(t, "/pets", r.URL)
		assert.Equal(t, "1", r.Parameters[0].Common().Value)
	})

	t.Run("no question mark leaves values alone", func(t *testing.T) {
		r := NewRequestData("get", "/pets", []Parameter{query("a", "keep")}, nil, "")
		r.SetQuery("a=1")

		assert.Equal(t, "keep", r.Parameters[0].Common().Value)
	})

	t.Run("absent keys are cleared", func(t *testing.T) {
		r := NewRequestData("get", "/pets", []Parameter{query("a", "1"), query("b", "2")}, nil, "")
		r.SetQuery("/pets?b=3")

		assert.Nil(t, r.Parameters[0].Common().Value)
		assert.Equal(t, "3", r.Parameters[1].Common().Value)
	})

	t.Run("pieces are split on the first equals", func(t *testing.T) {
		r := NewRequestData("get", "/pets", []Parameter{query("a", nil), query("b", nil), query("c", nil)}, nil, "")
		r.SetQuery("/pets?a=1&a=2&b&c=x=y%20")

		assert.Equal(t, "2", r.Parameters[0].Common().Value)
		assert.Nil(t, r.Parameters[1].Common().Value)
		assert.Equal(t, "x=y%20", r.Parameters[2].Common().Value)
	})

	t.Run("only query parameters change", func(t *testing.T) {
		path := &PathParameter{ParamCommon: ParamCommon{Name: "a", Value: "p"}}
		r := NewRequestData("get", "/pets", []Parameter{path, query("a", nil)}, nil, "")
		r.SetQuery("/pets?a=q")

		assert.Equal(t, "p", path.Value)
		assert.Equal(t, "q", r.Parameters[1].Common().Value)
	})
}

func TestQueryRoundTrip(t *testing.T) {
	r := NewRequestData("get", "/pets", []Parameter{query("limit", nil), query("sort", nil), query("page", nil)}, nil, "")

	r.SetQuery("/pets?sort=name&limit=10&page=2")

	assert.Equal(t, "/pets?limit=10&sort=name&page=2", r.Query())
}

func TestBodyStr(t *testing.T) {
	t.Run("no body parameter", func(t *testing.T) {
		r := NewRequestData("post", "/pets", []Parameter{query("a", nil)}, nil, "")
		assert.Equal(t, "", r.BodyStr())
		assert.Nil(t, r.Raw)
	})

	t.Run("example generated once and cached", func(t *testing.T) {
		body := &BodyParameter{
			ParamCommon: ParamCommon{Name: "body"},
			Schema: &Schema{Type: "object", Properties: map[string]*Schema{
				"name": {Type: "string"},
				"age":  {Type: "integer"},
			}},
		}
		r := NewRequestData("post", "/pets", []Parameter{body}, nil, "")

		str := r.BodyStr()
		assert.JSONEq(t, `{"name":"","age":0}`, str)
		assert.Contains(t, str, "\n  ")
		require.NotNil(t, r.Raw)

		r.Raw = map[string]any{"name": "rex"}
		assert.JSONEq(t, `{"name":"rex"}`, r.BodyStr())
	})

	t.Run("html characters are not escaped", func(t *testing.T) {
		r := NewRequestData("post", "/pets", []Parameter{&BodyParameter{Schema: &Schema{Type: "object"}}}, nil, "")
		r.Raw = map[string]any{"q": "<a&b>"}
		assert.Contains(t, r.BodyStr(), "<a&b>")
	})
}

func TestSetBodyStr(t *testing.T) {
	r := NewRequestData("post", "/pets", []Parameter{&BodyParameter{Schema: &Schema{Type: "object"}}}, nil, "")

	r.SetBodyStr(`{"name": "rex"}`)
	assert.Equal(t, object("name", "rex"), r.Raw)

	r.SetBodyStr(`{"name": "re`)
	assert.Equal(t, object("name", "rex"), r.Raw)

	r.SetBodyStr(`42`)
	assert.Equal(t, object("name", "rex"), r.Raw)

	r.SetBodyStr(`[1, 2]`)
	assert.Equal(t, []any{1.0, 2.0}, r.Raw)

	// typed key order is kept when the body is shown again
	r.SetBodyStr(`{"zeta": 1, "alpha": 2}`)
	assert.Equal(t, "{\n  \"zeta\": 1,\n  \"alpha\": 2\n}", r.BodyStr())
}

func TestSupportBody(t *testing.T) {
	tests := []struct {
		method string
		want   bool
	}{
		{"get", false},
		{"head", false},
		{"post", true},
		{"put", true},
		{"delete", true},
		{"patch", true},
		{"GET", true},
	}

	for _, tt := range tests {
		r := NewRequestData(tt.method, "/pets", nil, nil, "")
		assert.Equal(t, tt.want, r.SupportBody(), tt.method)
	}
}

func TestParamsAndContainBody(t *testing.T) {
	params := []Parameter{
		query("q1", nil),
		&PathParameter{ParamCommon: ParamCommon{Name: "id"}},
		&FormDataParameter{ParamCommon: ParamCommon{Name: "f"}},
		query("q2", nil),
	}
	r := NewRequestData("post", "/pets/{id}", params, nil, "")

	got := r.Params(InQuery, InPath)
	require.Len(t, got, 3)
	assert.Equal(t, "q1", got[0].Common().Name)
	assert.Equal(t, "id", got[1].Common().Name)
	assert.Equal(t, "q2", got[2].Common().Name)

	assert.Empty(t, r.Params())
	assert.False(t, r.ContainBody())

	r.Parameters = append(r.Parameters, &BodyParameter{ParamCommon: ParamCommon{Name: "body"}})
	assert.True(t, r.ContainBody())
}

func TestIncludes(t *testing.T) {
	newRequest := func() *RequestData {
		return NewRequestData("get", "/pets", []Parameter{query("limit", "10")}, nil, "")
	}

	tests := []struct {
		name   string
		mutate func(r *RequestData)
	}{
		{"url", func(r *RequestData) { r.URL = "/Foo/bar" }},
		{"parameter name", func(r *RequestData) { r.Parameters[0].Common().Name = "FOO" }},
		{"parameter value", func(r *RequestData) { r.Parameters[0].Common().Value = "xFooy" }},
		{"raw body", func(r *RequestData) { r.Raw = map[string]any{"k": "fOO"} }},
		{"header", func(r *RequestData) { r.Header = "X-Foo: 1" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRequest()
			assert.False(t, r.Includes("foo"))
			tt.mutate(r)
			assert.True(t, r.Includes("foo"))
		})
	}

	r := newRequest()
	r.Header = "tail"
	assert.True(t, r.Includes("null\ntail"), "fields are joined by newlines")
}

func TestFullURL(t *testing.T) {
	r := NewRequestData("get", "/pets", []Parameter{query("a", "1")}, nil, "http://api.test")
	assert.Equal(t, "http://api.test/pets?a=1", r.FullURL())

	r.Host = ""
	assert.Equal(t, "/pets?a=1", r.FullURL())
}

func withClock(t *testing.T, now time.Time) {
	t.Helper()
	saved := clock
	clock = func() time.Time { return now }
	t.Cleanup(func() { clock = saved })
}

func TestHashID(t *testing.T) {
	now := time.Date(2024, 3, 5, 7, 8, 9, 0, time.UTC)
	withClock(t, now)

	a := NewRequestData("get", "/pets", []Parameter{query("a", "1")}, nil, "http://api.test")
	b := NewRequestData("get", "/pets", []Parameter{query("a", "2")}, nil, "http://api.test")
	c := NewRequestData("post", "/pets", nil, nil, "http://api.test")

	id := a.HashID()
	assert.Equal(t, id, a.ID)
	assert.Equal(t, id, b.HashID())
	assert.NotEqual(t, id, c.HashID())
	assert.Equal(t, hashString("http://api.test/petsget"), id)
	assert.Equal(t, now.UnixMilli(), a.Timestamp)

	later := now.Add(time.Minute)
	clock = func() time.Time { return later }
	assert.Equal(t, id, a.HashID())
	assert.Equal(t, later.UnixMilli(), a.Timestamp)
}

func TestHashString(t *testing.T) {
	tests := []struct {
		in   string
		want int32
	}{
		{"", 0},
		{"abc", 96354},
		{"hello", 99162322},
		{"Aa", 2112},
		{"BB", 2112},
		{"polygenelubricants", math.MinInt32},
		{"😀", 1772899},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, hashString(tt.in), tt.in)
	}
}

func TestClone(t *testing.T) {
	body := &BodyParameter{ParamCommon: ParamCommon{Name: "body"}, Schema: &Schema{Type: "object"}}
	r := NewRequestData("post", "/pets", []Parameter{query("a", "1"), body}, map[string]*Schema{"Pet": {Type: "object"}}, "http://h")
	r.SetBodyStr(`{"name": "rex", "tags": ["a"]}`)

	c := r.Clone()
	c.Parameters[0].Common().Value = "2"
	c.Raw.(*textutil.Object).Set("name", "max")
	c.Raw.(*textutil.Object).Values["tags"].([]any)[0] = "b"
	c.Definitions["Pet"].Type = "string"

	assert.Equal(t, "1", r.Parameters[0].Common().Value)
	assert.Equal(t, object("name", "rex", "tags", []any{"a"}), r.Raw)
	assert.Equal(t, "object", r.Definitions["Pet"].Type)
	_, ok := c.Parameters[1].(*BodyParameter)
	assert.True(t, ok)
}
