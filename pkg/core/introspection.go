package core

import (
	"github.com/aretw0/introspection"
)

// TableState exposes the façade wiring for observability.
type TableState struct {
	Name           string `json:"name"`
	RepositoryType string `json:"repository_type"`
}

// State implements introspection.Introspectable.
func (t *Table) State() any {
	repoType := "unknown"
	if comp, ok := t.repo.(introspection.Component); ok {
		repoType = comp.ComponentType()
	}
	return TableState{
		Name:           t.name,
		RepositoryType: repoType,
	}
}

// ComponentType implements introspection.Component.
func (t *Table) ComponentType() string {
	return "table"
}

var _ introspection.Introspectable = (*Table)(nil)
var _ introspection.Component = (*Table)(nil)
