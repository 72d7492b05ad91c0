// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package plugin keeps the web applications exposed to the browser client.
// Each application publishes one configuration object, which the client
// reads from config.plugins[<name>].
package plugin

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	// ErrDuplicatePlugin is returned when a name is registered twice.
	ErrDuplicatePlugin = errors.New("plugin already registered")

	// ErrInvalidPlugin is returned for applications without a name or config provider.
	ErrInvalidPlugin = errors.New("invalid plugin")

	// ErrNotFound is returned by Lookup for unknown names.
	ErrNotFound = errors.New("plugin not found")
)

// MenuGroup is a navigation entry contributed by a plugin.
type MenuGroup struct {
	Name       string  `json:"name"`
	Caption    string  `json:"caption"`
	Icon       string  `json:"icon"`
	Order      int     `json:"order"`
	Route      string  `json:"route"`
	ParentName *string `json:"parentName"`
}

// Route binds a client route to its menu group.
type Route struct {
	Route string `json:"route"`
	Group string `json:"group"`
}

// SettingItem is a single user-tunable setting.
type SettingItem struct {
	Type         string `json:"type"`
	Name         string `json:"name"`
	Caption      string `json:"caption"`
	DefaultValue any    `json:"defaultValue"`
}

// SettingGroup groups related settings.
type SettingGroup struct {
	Name    string        `json:"name"`
	Caption string        `json:"caption"`
	Items   []SettingItem `json:"items"`
}

// Application is a registered plugin. Config and Settings are called on
// every request so reloads are visible without re-registration.
type Application struct {
	Name        string
	Description string
	Config      func() any
	Menus       []MenuGroup
	Routes      []Route
	Settings    func() []SettingGroup
}

// Descriptor is the JSON view of an Application, without its config.
type Descriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Menus       []MenuGroup    `json:"menus"`
	Routes      []Route        `json:"routes"`
	Settings    []SettingGroup `json:"settings"`
}

// Descriptor returns the JSON view of a.
func (a Application) Descriptor() Descriptor {
	d := Descriptor{
		Name:        a.Name,
		Description: a.Description,
		Menus:       append([]MenuGroup{}, a.Menus...),
		Routes:      append([]Route{}, a.Routes...),
		Settings:    []SettingGroup{},
	}
	if a.Settings == nil {
		return d
	}
	for _, g := range a.Settings() {
		g.Items = append([]SettingItem{}, g.Items...)
		d.Settings = append(d.Settings, g)
	}
	return d
}

// Registry holds applications in registration order. It is safe for
// concurrent use.
type Registry struct {
	mu    sync.RWMutex
	order []string
	apps  map[string]Application
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{apps: make(map[string]Application)}
}

// Register adds app.
func (r *Registry) Register(app Application) error {
	if strings.TrimSpace(app.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidPlugin)
	}
	if app.Config == nil {
		return fmt.Errorf("%w: %s has no config provider", ErrInvalidPlugin, app.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.apps[app.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicatePlugin, app.Name)
	}
	r.apps[app.Name] = app
	r.order = append(r.order, app.Name)
	return nil
}

// Lookup returns the application registered as name.
func (r *Registry) Lookup(name string) (Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	app, ok := r.apps[name]
	if !ok {
		return Application{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return app, nil
}

// Applications returns every application in registration order.
func (r *Registry) Applications() []Application {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Application, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.apps[name])
	}
	return out
}

// FrontendConfig is the document served to the browser client.
type FrontendConfig struct {
	Plugins map[string]any `json:"plugins"`
}

// FrontendConfig collects the current config of every application.
func (r *Registry) FrontendConfig() FrontendConfig {
	apps := r.Applications()
	out := FrontendConfig{Plugins: make(map[string]any, len(apps))}
	for _, app := range apps {
		out.Plugins[app.Name] = app.Config()
	}
	return out
}
