package parser

import (
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/prasenjit/go-requester/internal/models"
)

const componentsPrefix = "#/components/schemas/"

func parseOpenAPI(data []byte, doc *models.Document) ([]*models.Operation, error) {
	loader := openapi3.NewLoader()

	spec, err := loader.LoadFromData(data)
	if err != nil {
		return nil, &ParseError{Code: SyntaxError, Message: "failed to parse OpenAPI document", Cause: err}
	}
	if err := spec.Validate(loader.Context); err != nil {
		return nil, &ParseError{Code: ValidationError, Message: "invalid OpenAPI document", Cause: err}
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &ParseError{Code: SyntaxError, Message: "failed to decode OpenAPI document", Cause: err}
	}
	definitions := componentSchemas(spec.Components, models.MappingValue(models.MappingValue(&root, "components"), "schemas"))
	pathNodes := models.MappingValue(&root, "paths")

	if spec.Info != nil {
		doc.Title = spec.Info.Title
		doc.Version = spec.Info.Version
		doc.Description = spec.Info.Description
	}
	if len(spec.Servers) > 0 && spec.Servers[0] != nil {
		doc.Host = strings.TrimSuffix(spec.Servers[0].URL, "/")
	}

	var ops []*models.Operation
	if spec.Paths == nil {
		return ops, nil
	}

	for pathPattern, item := range spec.Paths.Map() {
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			if op == nil {
				continue
			}

			operation := newOperation(doc, method, pathPattern, op.OperationID, op.Summary, op.Description, op.Tags)
			opNode := models.MappingValue(models.MappingValue(pathNodes, pathPattern), strings.ToLower(method))
			params, consumes := openAPIParameters(item.Parameters, op, opNode)
			operation.Request = models.NewRequestData(operation.Method, pathPattern, params, definitions, doc.Host)
			operation.Request.Consumes = consumes
			operation.Request.Produces = responseTypes(op)
			ops = append(ops, operation)
		}
	}

	return ops, nil
}

// componentSchemas converts components.schemas into definitions keyed by name.
// nodes is the matching part of the raw document, used for property order.
func componentSchemas(components *openapi3.Components, nodes *yaml.Node) map[string]*models.Schema {
	definitions := make(map[string]*models.Schema)
	if components == nil {
		return definitions
	}
	for name, ref := range components.Schemas {
		if schema := convertSchema(ref, models.MappingValue(nodes, name)); schema != nil {
			definitions[name] = schema
		}
	}
	return definitions
}

func openAPIParameters(pathParams openapi3.Parameters, op *openapi3.Operation, opNode *yaml.Node) ([]models.Parameter, []string) {
	var params []models.Parameter
	index := make(map[string]int)

	for _, group := range []openapi3.Parameters{pathParams, op.Parameters} {
		for _, ref := range group {
			if ref == nil || ref.Value == nil {
				continue
			}
			pv := ref.Value
			schema := convertSchema(pv.Schema, nil)
			common := models.ParamCommon{
				Name:        pv.Name,
				Value:       pv.Example,
				Description: pv.Description,
				Required:    pv.Required,
			}
			if schema != nil {
				common.Type = schema.Type
				common.Format = schema.Format
			}

			key := pv.In + ":" + pv.Name
			p := models.NewParameter(models.InType(pv.In), common)
			if i, ok := index[key]; ok {
				params[i] = p
				continue
			}
			index[key] = len(params)
			params = append(params, p)
		}
	}

	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return params, nil
	}

	body := op.RequestBody.Value
	content := models.MappingValue(models.MappingValue(opNode, "requestBody"), "content")
	mimes := make([]string, 0, len(body.Content))
	for mime := range body.Content {
		mimes = append(mimes, mime)
	}
	sort.Strings(mimes)

	for _, mime := range mimes {
		media := body.Content[mime]
		if media == nil || !isFormMime(mime) {
			continue
		}
		return append(params, formParameters(media.Schema)...), mimes
	}

	for _, mime := range mimes {
		media := body.Content[mime]
		if media == nil {
			continue
		}
		bp := &models.BodyParameter{
			ParamCommon: models.ParamCommon{
				Name:        "body",
				Description: body.Description,
				Required:    body.Required,
			},
			Schema: convertSchema(media.Schema, models.MappingValue(models.MappingValue(content, mime), "schema")),
		}
		return append(params, bp), mimes
	}

	return params, mimes
}

func formParameters(ref *openapi3.SchemaRef) []models.Parameter {
	if ref == nil || ref.Value == nil {
		return nil
	}

	required := make(map[string]bool, len(ref.Value.Required))
	for _, name := range ref.Value.Required {
		required[name] = true
	}

	names := make([]string, 0, len(ref.Value.Properties))
	for name := range ref.Value.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	params := make([]models.Parameter, 0, len(names))
	for _, name := range names {
		prop := convertSchema(ref.Value.Properties[name], nil)
		fp := &models.FormDataParameter{ParamCommon: models.ParamCommon{Name: name, Required: required[name]}}
		if prop != nil {
			fp.Type = prop.Type
			fp.Format = prop.Format
			fp.Description = prop.Description
			fp.Items = prop.Items
		}
		params = append(params, fp)
	}
	return params
}

// convertSchema maps a kin-openapi schema onto models.Schema. Refs are not followed.
// node is the schema in the raw document and may be nil; it only supplies property order.
func convertSchema(ref *openapi3.SchemaRef, node *yaml.Node) *models.Schema {
	if ref == nil {
		return nil
	}
	if ref.Ref != "" {
		target := ref.Ref
		if strings.HasPrefix(target, componentsPrefix) {
			target = models.DefinitionRef(strings.TrimPrefix(target, componentsPrefix))
		}
		return &models.Schema{Ref: target}
	}
	if ref.Value == nil {
		return nil
	}

	v := ref.Value
	out := &models.Schema{
		Type:        schemaType(v.Type),
		Format:      v.Format,
		Description: v.Description,
		Items:       convertSchema(v.Items, models.MappingValue(node, "items")),
	}
	if out.Type == "string" && out.Format == "binary" {
		out.Type, out.Format = "file", ""
	}
	if len(v.Properties) > 0 {
		propNodes := models.MappingValue(node, "properties")
		out.PropertyOrder = models.MappingKeys(propNodes)
		out.Properties = make(map[string]*models.Schema, len(v.Properties))
		for name, prop := range v.Properties {
			out.Properties[name] = convertSchema(prop, models.MappingValue(propNodes, name))
		}
	}
	return out
}

// schemaType picks the first type other than "null" from a type list
func schemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	for _, t := range types.Slice() {
		if t != "null" {
			return t
		}
	}
	return ""
}

func isFormMime(mime string) bool {
	return strings.HasPrefix(mime, "multipart/form-data") || strings.HasPrefix(mime, "application/x-www-form-urlencoded")
}

func responseTypes(op *openapi3.Operation) []string {
	if op.Responses == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, resp := range op.Responses.Map() {
		if resp == nil || resp.Value == nil {
			continue
		}
		for mime := range resp.Value.Content {
			if !seen[mime] {
				seen[mime] = true
				out = append(out, mime)
			}
		}
	}
	sort.Strings(out)
	return out
}
