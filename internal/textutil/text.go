package textutil

import (
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// IsBlank reports whether s is empty or whitespace only
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// ParseJSON parses s when it holds a JSON object or array.
// Scalars, partial input and invalid JSON all report false.
func ParseJSON(s string) (any, bool) {
	if !gjson.Valid(s) {
		return nil, false
	}
	res := gjson.Parse(s)
	if !res.IsObject() && !res.IsArray() {
		return nil, false
	}
	return fromResult(res), true
}

// DecodeJSON parses any JSON value. Objects come back as *Object in document order.
func DecodeJSON(s string) (any, bool) {
	if !gjson.Valid(s) {
		return nil, false
	}
	return fromResult(gjson.Parse(s)), true
}

func fromResult(res gjson.Result) any {
	switch {
	case res.IsObject():
		obj := NewObject(0)
		res.ForEach(func(key, value gjson.Result) bool {
			obj.Set(key.String(), fromResult(value))
			return true
		})
		return obj
	case res.IsArray():
		arr := make([]any, 0)
		res.ForEach(func(_, value gjson.Result) bool {
			arr = append(arr, fromResult(value))
			return true
		})
		return arr
	default:
		return res.Value()
	}
}

var prettyOptions = &pretty.Options{
	Width:    80,
	Prefix:   "",
	Indent:   "  ",
	SortKeys: false,
}

// PrettyJSON indents JSON text. Anything that is not valid JSON is returned as is.
func PrettyJSON(s string) string {
	if !gjson.Valid(s) {
		return s
	}
	return strings.TrimSuffix(string(pretty.PrettyOptions([]byte(s), prettyOptions)), "\n")
}
