package models

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// InType is the location a parameter is sent in
type InType string

// Supported parameter locations
const (
	InBody     InType = "body"
	InQuery    InType = "query"
	InFormData InType = "formData"
	InPath     InType = "path"
)

// FileType describes the upload shape of a form-data parameter
type FileType string

// Supported upload shapes
const (
	FileNone     FileType = "none"
	FileSingle   FileType = "file"
	FileMultiple FileType = "files"
)

// ParamCommon holds the fields every parameter carries regardless of location
type ParamCommon struct {
	Name        string `json:"name" yaml:"name"`
	Value       any    `json:"value,omitempty" yaml:"value,omitempty"` // Edited by the user, nil until set
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool   `json:"required" yaml:"required"`
	Type        string `json:"type,omitempty" yaml:"type,omitempty"`
	Format      string `json:"format,omitempty" yaml:"format,omitempty"`
}

// Parameter is a request parameter. The concrete type fixes its location.
type Parameter interface {
	In() InType
	Common() *ParamCommon
}

// BodyParameter is the JSON request body described by a schema
type BodyParameter struct {
	ParamCommon
	Schema *Schema `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// QueryParameter is sent in the query string
type QueryParameter struct {
	ParamCommon
}

// PathParameter is substituted into the URL path
type PathParameter struct {
	ParamCommon
}

// FormDataParameter is sent as multipart or urlencoded form content
type FormDataParameter struct {
	ParamCommon
	Items *Schema `json:"items,omitempty" yaml:"items,omitempty"`
}

// GenericParameter keeps parameters in locations the editor does not model (header, cookie)
type GenericParameter struct {
	ParamCommon
	Location InType `json:"in"`
}

func (p *BodyParameter) In() InType     { return InBody }
func (p *QueryParameter) In() InType    { return InQuery }
func (p *PathParameter) In() InType     { return InPath }
func (p *FormDataParameter) In() InType { return InFormData }
func (p *GenericParameter) In() InType  { return p.Location }

func (p *BodyParameter) Common() *ParamCommon     { return &p.ParamCommon }
func (p *QueryParameter) Common() *ParamCommon    { return &p.ParamCommon }
func (p *PathParameter) Common() *ParamCommon     { return &p.ParamCommon }
func (p *FormDataParameter) Common() *ParamCommon { return &p.ParamCommon }
func (p *GenericParameter) Common() *ParamCommon  { return &p.ParamCommon }

// FileType is computed on every call so later edits of Type or Items are reflected.
func (p *FormDataParameter) FileType() FileType {
	if p.Items != nil && p.Items.Type == "file" {
		return FileMultiple
	}
	if p.Type == "file" {
		return FileSingle
	}
	return FileNone
}

func (p *BodyParameter) MarshalJSON() ([]byte, error) {
	type plain BodyParameter
	return json.Marshal(struct {
		In InType `json:"in"`
		*plain
	}{InBody, (*plain)(p)})
}

func (p *QueryParameter) MarshalJSON() ([]byte, error) {
	type plain QueryParameter
	return json.Marshal(struct {
		In InType `json:"in"`
		*plain
	}{InQuery, (*plain)(p)})
}

func (p *PathParameter) MarshalJSON() ([]byte, error) {
	type plain PathParameter
	return json.Marshal(struct {
		In InType `json:"in"`
		*plain
	}{InPath, (*plain)(p)})
}

func (p *FormDataParameter) MarshalJSON() ([]byte, error) {
	type plain FormDataParameter
	return json.Marshal(struct {
		In InType `json:"in"`
		*plain
	}{InFormData, (*plain)(p)})
}

// NewParameter builds the variant matching in
func NewParameter(in InType, common ParamCommon) Parameter {
	switch in {
	case InBody:
		return &BodyParameter{ParamCommon: common}
	case InQuery:
		return &QueryParameter{ParamCommon: common}
	case InPath:
		return &PathParameter{ParamCommon: common}
	case InFormData:
		return &FormDataParameter{ParamCommon: common}
	default:
		return &GenericParameter{ParamCommon: common, Location: in}
	}
}

// DecodeParameter decodes a JSON parameter, dispatching on its "in" field
func DecodeParameter(data []byte) (Parameter, error) {
	in := InType(gjson.GetBytes(data, "in").String())
	p := NewParameter(in, ParamCommon{})
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("decode %s parameter: %w", in, err)
	}
	return p, nil
}

// Parameters is an ordered parameter list that survives a JSON round trip
type Parameters []Parameter

// UnmarshalJSON decodes each element into its location variant
func (ps *Parameters) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}

	out := make(Parameters, 0, len(raws))
	for _, raw := range raws {
		p, err := DecodeParameter(raw)
		if err != nil {
			return err
		}
		out = append(out, p)
	}
	*ps = out
	return nil
}
