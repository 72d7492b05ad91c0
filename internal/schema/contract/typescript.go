// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package contract derives the client-facing artifacts of the DNE
// configuration (TypeScript types and an OpenAPI document) from the Go
// records in package schema, so the browser definition is never edited by hand.
package contract

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/ManuGH/dnegrid/internal/schema"
)

// Record binds a Go record to the name the client uses for it.
type Record struct {
	Name string
	Type reflect.Type
}

// Records lists the wire records in dependency order.
func Records() []Record {
	return []Record{
		{Name: "DNEView", Type: reflect.TypeOf(schema.View{})},
		{Name: "DNEBranch", Type: reflect.TypeOf(schema.Branch{})},
		{Name: "DNEProject", Type: reflect.TypeOf(schema.Project{})},
		{Name: "ChangeFilter", Type: reflect.TypeOf(schema.ChangeFilter{})},
		{Name: "Scheduler", Type: reflect.TypeOf(schema.Scheduler{})},
		{Name: "DNEConfig", Type: reflect.TypeOf(schema.Config{})},
	}
}

// Field is one wire field of a record.
type Field struct {
	Name     string
	Type     reflect.Type
	Nullable bool
}

// Fields returns the wire fields of t in declaration order.
func Fields(t reflect.Type) []Field {
	fields := make([]Field, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := strings.Split(sf.Tag.Get("json"), ",")[0]
		if name == "-" {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		ft := sf.Type
		nullable := false
		if ft.Kind() == reflect.Pointer {
			nullable = true
			ft = ft.Elem()
		}
		fields = append(fields, Field{Name: name, Type: ft, Nullable: nullable})
	}
	return fields
}

func recordNames() map[reflect.Type]string {
	names := make(map[reflect.Type]string)
	for _, r := range Records() {
		names[r.Type] = r.Name
	}
	return names
}

// TypeScript renders the client-side type definitions.
func TypeScript() (string, error) {
	names := recordNames()

	var b strings.Builder
	b.WriteString("// Code generated by dnegrid schema; DO NOT EDIT.\n")
	fmt.Fprintf(&b, "// Schema version: %s\n", schema.Version)

	for _, rec := range Records() {
		fmt.Fprintf(&b, "\nexport type %s = {\n", rec.Name)
		for _, f := range Fields(rec.Type) {
			ts, err := tsType(f.Type, names)
			if err != nil {
				return "", fmt.Errorf("%s.%s: %w", rec.Name, f.Name, err)
			}
			if f.Nullable {
				ts += " | null"
			}
			fmt.Fprintf(&b, "  %s: %s,\n", f.Name, ts)
		}
		b.WriteString("};\n")
	}
	return b.String(), nil
}

func tsType(t reflect.Type, names map[reflect.Type]string) (string, error) {
	switch t.Kind() {
	case reflect.String:
		return "string", nil
	case reflect.Bool:
		return "boolean", nil
	case reflect.Int, reflect.Int32, reflect.Int64, reflect.Float64:
		return "number", nil
	case reflect.Slice:
		elem, err := tsType(t.Elem(), names)
		if err != nil {
			return "", err
		}
		return elem + "[]", nil
	case reflect.Struct:
		if name, ok := names[t]; ok {
			return name, nil
		}
		return "", fmt.Errorf("unregistered record type %s", t)
	default:
		return "", fmt.Errorf("unsupported kind %s", t.Kind())
	}
}
