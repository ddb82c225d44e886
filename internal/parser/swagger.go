package parser

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/prasenjit/go-requester/internal/models"
)

const parametersPrefix = "#/parameters/"

type swaggerDoc struct {
	Info struct {
		Title       string `yaml:"title"`
		Version     string `yaml:"version"`
		Description string `yaml:"description"`
	} `yaml:"info"`
	Host        string                      `yaml:"host"`
	BasePath    string                      `yaml:"basePath"`
	Schemes     []string                    `yaml:"schemes"`
	Consumes    []string                    `yaml:"consumes"`
	Produces    []string                    `yaml:"produces"`
	Paths       map[string]swaggerPathItem  `yaml:"paths"`
	Definitions map[string]*models.Schema   `yaml:"definitions"`
	Parameters  map[string]swaggerParameter `yaml:"parameters"`
}

type swaggerPathItem struct {
	Get        *swaggerOperation  `yaml:"get"`
	Put        *swaggerOperation  `yaml:"put"`
	Post       *swaggerOperation  `yaml:"post"`
	Delete     *swaggerOperation  `yaml:"delete"`
	Options    *swaggerOperation  `yaml:"options"`
	Head       *swaggerOperation  `yaml:"head"`
	Patch      *swaggerOperation  `yaml:"patch"`
	Parameters []swaggerParameter `yaml:"parameters"`
}

func (item swaggerPathItem) operations() map[string]*swaggerOperation {
	return map[string]*swaggerOperation{
		"get":     item.Get,
		"put":     item.Put,
		"post":    item.Post,
		"delete":  item.Delete,
		"options": item.Options,
		"head":    item.Head,
		"patch":   item.Patch,
	}
}

type swaggerOperation struct {
	OperationID string             `yaml:"operationId"`
	Summary     string             `yaml:"summary"`
	Description string             `yaml:"description"`
	Tags        []string           `yaml:"tags"`
	Consumes    []string           `yaml:"consumes"`
	Produces    []string           `yaml:"produces"`
	Parameters  []swaggerParameter `yaml:"parameters"`
}

type swaggerParameter struct {
	Ref         string         `yaml:"$ref"`
	Name        string         `yaml:"name"`
	In          string         `yaml:"in"`
	Description string         `yaml:"description"`
	Required    bool           `yaml:"required"`
	Type        string         `yaml:"type"`
	Format      string         `yaml:"format"`
	Default     any            `yaml:"default"`
	Schema      *models.Schema `yaml:"schema"`
	Items       *models.Schema `yaml:"items"`
}

func parseSwagger(data []byte, doc *models.Document) ([]*models.Operation, error) {
	var sw swaggerDoc
	if err := yaml.Unmarshal(data, &sw); err != nil {
		return nil, &ParseError{Code: SyntaxError, Message: "failed to decode swagger document", Cause: err}
	}

	doc.Title = sw.Info.Title
	doc.Version = sw.Info.Version
	doc.Description = sw.Info.Description
	doc.Host = swaggerHost(sw.Schemes, sw.Host, sw.BasePath)

	definitions := sw.Definitions
	if definitions == nil {
		definitions = map[string]*models.Schema{}
	}

	var ops []*models.Operation
	for pathPattern, item := range sw.Paths {
		for method, op := range item.operations() {
			if op == nil {
				continue
			}

			merged, err := sw.mergeParameters(item.Parameters, op.Parameters)
			if err != nil {
				return nil, &ParseError{
					Code:    ValidationError,
					Message: fmt.Sprintf("invalid parameters for %s %s", strings.ToUpper(method), pathPattern),
					Cause:   err,
				}
			}

			params := make([]models.Parameter, 0, len(merged))
			for _, sp := range merged {
				params = append(params, sp.toModel())
			}

			operation := newOperation(doc, method, pathPattern, op.OperationID, op.Summary, op.Description, op.Tags)
			operation.Request = models.NewRequestData(operation.Method, pathPattern, params, definitions, doc.Host)
			operation.Request.Consumes = firstNonEmpty(op.Consumes, sw.Consumes)
			operation.Request.Produces = firstNonEmpty(op.Produces, sw.Produces)
			ops = append(ops, operation)
		}
	}

	return ops, nil
}

// mergeParameters resolves refs and lets operation parameters override path ones by name and location
func (sw *swaggerDoc) mergeParameters(pathParams, opParams []swaggerParameter) ([]swaggerParameter, error) {
	var out []swaggerParameter
	index := make(map[string]int)

	for _, group := range [][]swaggerParameter{pathParams, opParams} {
		for _, sp := range group {
			resolved, err := sw.resolveParameter(sp)
			if err != nil {
				return nil, err
			}
			key := resolved.In + ":" + resolved.Name
			if i, ok := index[key]; ok {
				out[i] = resolved
				continue
			}
			index[key] = len(out)
			out = append(out, resolved)
		}
	}
	return out, nil
}

func (sw *swaggerDoc) resolveParameter(sp swaggerParameter) (swaggerParameter, error) {
	if sp.Ref == "" {
		return sp, nil
	}
	if !strings.HasPrefix(sp.Ref, parametersPrefix) {
		return sp, fmt.Errorf("unsupported parameter reference %q", sp.Ref)
	}
	target, ok := sw.Parameters[strings.TrimPrefix(sp.Ref, parametersPrefix)]
	if !ok {
		return sp, fmt.Errorf("unresolved parameter reference %q", sp.Ref)
	}
	return target, nil
}

func (sp swaggerParameter) toModel() models.Parameter {
	common := models.ParamCommon{
		Name:        sp.Name,
		Value:       sp.Default,
		Description: sp.Description,
		Required:    sp.Required,
		Type:        sp.Type,
		Format:      sp.Format,
	}
	p := models.NewParameter(models.InType(sp.In), common)
	switch v := p.(type) {
	case *models.BodyParameter:
		v.Schema = sp.Schema
	case *models.FormDataParameter:
		v.Items = sp.Items
	}
	return p
}

func swaggerHost(schemes []string, host, basePath string) string {
	basePath = strings.TrimSuffix(basePath, "/")
	if host == "" {
		return basePath
	}
	scheme := "http"
	if len(schemes) > 0 && schemes[0] != "" {
		scheme = schemes[0]
	}
	return scheme + "://" + strings.TrimSuffix(host, "/") + basePath
}

func firstNonEmpty(values ...[]string) []string {
	for _, v := range values {
		if len(v) > 0 {
			return v
		}
	}
	return nil
}
