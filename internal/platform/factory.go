package platform

import (
	"github.com/aretw0/shelter/pkg/core"
)

// OpenTable opens the store at dir and binds it to one table.
//
//	users, err := platform.OpenTable("./data", "users", platform.WithSecrets(k, iv))
func OpenTable(dir, table string, opts ...Option) (*core.Table, error) {
	store, err := Open(dir, opts...)
	if err != nil {
		return nil, err
	}
	return core.NewTable(store, table)
}
