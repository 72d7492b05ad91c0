// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"github.com/ManuGH/dnegrid/internal/schema"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/oasdiff/yaml"
)

// ErrUnknownRecord is returned when validating against a record name that is
// not part of the contract.
var ErrUnknownRecord = errors.New("unknown contract record")

const (
	componentPrefix = "#/components/schemas/"
	problemSchema   = "Problem"
	problemMIME     = "application/problem+json"
)

// OpenAPI builds the OpenAPI document describing the wire records and the
// endpoints that serve them. Component refs carry their resolved values so
// the document can validate payloads without a loader pass.
func OpenAPI() (*openapi3.T, error) {
	components, err := componentSchemas()
	if err != nil {
		return nil, err
	}

	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       "DNE Grid View",
			Description: "Configuration published by the react_dne_grid_view plugin.",
			Version:     schema.Version,
		},
		Components: &openapi3.Components{Schemas: openapi3.Schemas{}},
		Paths:      openapi3.NewPaths(),
	}
	for name, ref := range components {
		doc.Components.Schemas[name] = &openapi3.SchemaRef{Value: ref.Value}
	}
	doc.Components.Schemas[problemSchema] = &openapi3.SchemaRef{Value: problemValue()}

	cfgRef := components["DNEConfig"]
	problemRef := openapi3.NewSchemaRef(componentPrefix+problemSchema, problemValue())

	getConfig := openapi3.NewOperation()
	getConfig.OperationID = "getDNEConfig"
	getConfig.Tags = []string{"dne"}
	getConfig.Summary = "Current DNE grid configuration"
	getConfig.Responses = openapi3.NewResponses(
		openapi3.WithStatus(http.StatusOK, jsonResponse("Current configuration", cfgRef)),
	)
	doc.AddOperation("/api/v1/dne/config", http.MethodGet, getConfig)

	reload := openapi3.NewOperation()
	reload.OperationID = "reloadDNEConfig"
	reload.Tags = []string{"dne"}
	reload.Summary = "Reload the configuration file"
	reload.Responses = openapi3.NewResponses(
		openapi3.WithStatus(http.StatusOK, jsonResponse("Reloaded", openapi3.NewSchemaRef("", reloadValue()))),
		openapi3.WithStatus(http.StatusUnprocessableEntity, problemResponse("Configuration rejected", problemRef)),
	)
	doc.AddOperation("/api/v1/dne/config/reload", http.MethodPost, reload)

	getPlugin := openapi3.NewOperation()
	getPlugin.OperationID = "getPlugin"
	getPlugin.Tags = []string{"plugins"}
	getPlugin.Summary = "Plugin descriptor"
	getPlugin.Parameters = openapi3.Parameters{
		&openapi3.ParameterRef{Value: openapi3.NewPathParameter("name").WithSchema(openapi3.NewStringSchema())},
	}
	getPlugin.Responses = openapi3.NewResponses(
		openapi3.WithStatus(http.StatusOK, jsonResponse("Plugin descriptor", openapi3.NewSchemaRef("", openapi3.NewObjectSchema()))),
		openapi3.WithStatus(http.StatusNotFound, problemResponse("Unknown plugin", problemRef)),
	)
	doc.AddOperation("/api/v1/plugins/{name}", http.MethodGet, getPlugin)

	listPlugins := openapi3.NewOperation()
	listPlugins.OperationID = "listPlugins"
	listPlugins.Tags = []string{"plugins"}
	listPlugins.Summary = "Registered plugin descriptors"
	listPlugins.Responses = openapi3.NewResponses(
		openapi3.WithStatus(http.StatusOK, jsonResponse("Plugin descriptors",
			openapi3.NewSchemaRef("", openapi3.NewArraySchema().WithItems(openapi3.NewObjectSchema())))),
	)
	doc.AddOperation("/api/v1/plugins", http.MethodGet, listPlugins)

	frontend := openapi3.NewOperation()
	frontend.OperationID = "getFrontendConfig"
	frontend.Tags = []string{"plugins"}
	frontend.Summary = "Plugin configuration read by the web client"
	frontend.Responses = openapi3.NewResponses(
		openapi3.WithStatus(http.StatusOK, jsonResponse("Frontend configuration", openapi3.NewSchemaRef("", frontendValue(cfgRef)))),
	)
	doc.AddOperation("/config.json", http.MethodGet, frontend)

	selectionParams := openapi3.Parameters{
		queryParam("project", openapi3.NewStringSchema()),
		queryParam("branch", openapi3.NewStringSchema()),
		queryParam("view", openapi3.NewStringSchema()),
	}

	sel := openapi3.NewOperation()
	sel.OperationID = "getDNESelection"
	sel.Tags = []string{"dne"}
	sel.Summary = "Resolve a project/branch/view selection with defaults"
	sel.Parameters = append(append(openapi3.Parameters{}, selectionParams...), queryParam("length", openapi3.NewStringSchema()))
	sel.Responses = openapi3.NewResponses(
		openapi3.WithStatus(http.StatusOK, jsonResponse("Resolved selection", openapi3.NewSchemaRef("", selectionValue()))),
		openapi3.WithStatus(http.StatusNotFound, problemResponse("No project configured", problemRef)),
	)
	doc.AddOperation("/api/v1/dne/selection", http.MethodGet, sel)

	scheds := openapi3.NewOperation()
	scheds.OperationID = "getDNESchedulers"
	scheds.Tags = []string{"dne"}
	scheds.Summary = "Schedulers of the resolved project and branch"
	scheds.Parameters = selectionParams
	scheds.Responses = openapi3.NewResponses(
		openapi3.WithStatus(http.StatusOK, jsonResponse("Matching schedulers",
			openapi3.NewSchemaRef("", schedulersValue(components["Scheduler"])))),
		openapi3.WithStatus(http.StatusNotFound, problemResponse("No project configured", problemRef)),
	)
	doc.AddOperation("/api/v1/dne/schedulers", http.MethodGet, scheds)

	revisions := openapi3.NewOperation()
	revisions.OperationID = "listDNEConfigRevisions"
	revisions.Tags = []string{"dne"}
	revisions.Summary = "Applied configuration revisions, newest first"
	revisions.Parameters = openapi3.Parameters{
		queryParam("limit", openapi3.NewIntegerSchema().WithMin(1)),
	}
	revisions.Responses = openapi3.NewResponses(
		openapi3.WithStatus(http.StatusOK, jsonResponse("Revisions", openapi3.NewSchemaRef("", openapi3.NewObjectSchema()))),
		openapi3.WithStatus(http.StatusBadRequest, problemResponse("Invalid limit", problemRef)),
		openapi3.WithStatus(http.StatusNotFound, problemResponse("History disabled", problemRef)),
	)
	doc.AddOperation("/api/v1/dne/config/revisions", http.MethodGet, revisions)

	revision := openapi3.NewOperation()
	revision.OperationID = "getDNEConfigRevision"
	revision.Tags = []string{"dne"}
	revision.Summary = "One applied configuration revision"
	revision.Parameters = openapi3.Parameters{
		&openapi3.ParameterRef{Value: openapi3.NewPathParameter("id").WithSchema(openapi3.NewInt64Schema())},
	}
	revision.Responses = openapi3.NewResponses(
		openapi3.WithStatus(http.StatusOK, jsonResponse("Revision", openapi3.NewSchemaRef("", openapi3.NewObjectSchema()))),
		openapi3.WithStatus(http.StatusNotFound, problemResponse("Unknown revision or history disabled", problemRef)),
	)
	doc.AddOperation("/api/v1/dne/config/revisions/{id}", http.MethodGet, revision)

	return doc, nil
}

// OpenAPIJSON renders the document as indented JSON.
func OpenAPIJSON() ([]byte, error) {
	doc, err := OpenAPI()
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(doc, "", "  ")
}

// OpenAPIYAML renders the document as YAML.
func OpenAPIYAML() ([]byte, error) {
	doc, err := OpenAPI()
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(doc)
}

// ValidateDocument checks raw JSON against the contract record called name
// (for example "DNEConfig").
func ValidateDocument(name string, raw []byte) error {
	components, err := componentSchemas()
	if err != nil {
		return err
	}
	ref, ok := components[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRecord, name)
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	if err := ref.Value.VisitJSON(value, openapi3.MultiErrors()); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// componentSchemas returns a ref (with value) per record, keyed by client name.
func componentSchemas() (map[string]*openapi3.SchemaRef, error) {
	names := recordNames()
	refs := make(map[string]*openapi3.SchemaRef)
	byType := make(map[reflect.Type]*openapi3.SchemaRef)

	for _, rec := range Records() {
		obj := openapi3.NewObjectSchema()
		obj.Properties = openapi3.Schemas{}
		obj.AdditionalProperties = openapi3.AdditionalProperties{Has: boolPtr(false)}

		for _, f := range Fields(rec.Type) {
			prop, err := propertySchema(f.Type, byType, names)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", rec.Name, f.Name, err)
			}
			if f.Nullable {
				prop = nullable(prop)
			}
			obj.Properties[f.Name] = prop
			obj.Required = append(obj.Required, f.Name)
		}

		ref := openapi3.NewSchemaRef(componentPrefix+rec.Name, obj)
		refs[rec.Name] = ref
		byType[rec.Type] = ref
	}
	return refs, nil
}

func propertySchema(t reflect.Type, byType map[reflect.Type]*openapi3.SchemaRef, names map[reflect.Type]string) (*openapi3.SchemaRef, error) {
	switch t.Kind() {
	case reflect.String:
		return openapi3.NewSchemaRef("", openapi3.NewStringSchema()), nil
	case reflect.Bool:
		return openapi3.NewSchemaRef("", openapi3.NewBoolSchema()), nil
	case reflect.Slice:
		items, err := propertySchema(t.Elem(), byType, names)
		if err != nil {
			return nil, err
		}
		arr := openapi3.NewArraySchema()
		arr.Items = items
		return openapi3.NewSchemaRef("", arr), nil
	case reflect.Struct:
		if ref, ok := byType[t]; ok {
			return ref, nil
		}
		if name, ok := names[t]; ok {
			return nil, fmt.Errorf("record %s referenced before it is defined", name)
		}
		return nil, fmt.Errorf("unregistered record type %s", t)
	default:
		return nil, fmt.Errorf("unsupported kind %s", t.Kind())
	}
}

// nullable wraps a property so that null is accepted. A $ref cannot carry
// sibling keywords in OpenAPI 3.0, hence the allOf wrapper.
func nullable(prop *openapi3.SchemaRef) *openapi3.SchemaRef {
	if prop.Ref == "" {
		prop.Value.Nullable = true
		return prop
	}
	return openapi3.NewSchemaRef("", &openapi3.Schema{
		Nullable: true,
		AllOf:    openapi3.SchemaRefs{prop},
	})
}

func jsonResponse(desc string, ref *openapi3.SchemaRef) *openapi3.ResponseRef {
	return &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription(desc).WithJSONSchemaRef(ref)}
}

func problemResponse(desc string, ref *openapi3.SchemaRef) *openapi3.ResponseRef {
	resp := openapi3.NewResponse().WithDescription(desc)
	resp.Content = openapi3.NewContentWithSchemaRef(ref, []string{problemMIME})
	return &openapi3.ResponseRef{Value: resp}
}

func problemValue() *openapi3.Schema {
	s := openapi3.NewObjectSchema()
	s.Properties = openapi3.Schemas{
		"type":      openapi3.NewSchemaRef("", openapi3.NewStringSchema()),
		"title":     openapi3.NewSchemaRef("", openapi3.NewStringSchema()),
		"status":    openapi3.NewSchemaRef("", openapi3.NewIntegerSchema()),
		"code":      openapi3.NewSchemaRef("", openapi3.NewStringSchema()),
		"detail":    openapi3.NewSchemaRef("", openapi3.NewStringSchema()),
		"instance":  openapi3.NewSchemaRef("", openapi3.NewStringSchema()),
		"requestId": openapi3.NewSchemaRef("", openapi3.NewStringSchema()),
	}
	s.Required = []string{"type", "title", "status", "code", "requestId"}
	return s
}

func reloadValue() *openapi3.Schema {
	s := openapi3.NewObjectSchema()
	s.Properties = openapi3.Schemas{
		"epoch":  openapi3.NewSchemaRef("", openapi3.NewInt64Schema()),
		"source": openapi3.NewSchemaRef("", openapi3.NewStringSchema()),
	}
	s.Required = []string{"epoch"}
	return s
}

func frontendValue(cfgRef *openapi3.SchemaRef) *openapi3.Schema {
	plugins := openapi3.NewObjectSchema()
	plugins.Properties = openapi3.Schemas{"react_dne_grid_view": cfgRef}
	s := openapi3.NewObjectSchema()
	s.Properties = openapi3.Schemas{"plugins": openapi3.NewSchemaRef("", plugins)}
	s.Required = []string{"plugins"}
	return s
}

func selectionValue() *openapi3.Schema {
	s := openapi3.NewObjectSchema()
	s.Properties = openapi3.Schemas{}
	for _, name := range []string{"project", "branch", "view", "tag", "view_tag"} {
		s.Properties[name] = openapi3.NewSchemaRef("", openapi3.NewStringSchema())
	}
	s.Properties["length"] = openapi3.NewSchemaRef("", openapi3.NewIntegerSchema().WithMin(1))
	s.Required = []string{"project", "branch", "view", "length", "tag", "view_tag"}
	return s
}

func schedulersValue(schedRef *openapi3.SchemaRef) *openapi3.Schema {
	entry := openapi3.NewObjectSchema()
	entry.Properties = openapi3.Schemas{
		"scheduler":      schedRef,
		"next_run":       openapi3.NewSchemaRef("", openapi3.NewDateTimeSchema().WithNullable()),
		"next_force_run": openapi3.NewSchemaRef("", openapi3.NewDateTimeSchema().WithNullable()),
	}
	entry.Required = []string{"scheduler", "next_run", "next_force_run"}

	s := openapi3.NewObjectSchema()
	s.Properties = openapi3.Schemas{
		"tag":        openapi3.NewSchemaRef("", openapi3.NewStringSchema()),
		"schedulers": openapi3.NewSchemaRef("", openapi3.NewArraySchema().WithItems(entry)),
	}
	s.Required = []string{"tag", "schedulers"}
	return s
}

func queryParam(name string, schema *openapi3.Schema) *openapi3.ParameterRef {
	return &openapi3.ParameterRef{Value: openapi3.NewQueryParameter(name).WithSchema(schema)}
}

func boolPtr(b bool) *bool { return &b }
