// Package all wires every built-in store backend into the store registry.
//
// It exists for side effects only: a blank import runs the init functions of
// each backend, making these kinds available to store.New:
//
//   - "postgres" (alias "postgresql")
//   - "sqlite"
//   - "mysql"
//   - "mssql" (alias "sqlserver")
//
// A binary that needs fewer backends can import them individually instead.
package all

import (
	_ "github.com/cadu1996/Sparkfy/internal/store/mssql"
	_ "github.com/cadu1996/Sparkfy/internal/store/mysql"
	_ "github.com/cadu1996/Sparkfy/internal/store/postgres"
	_ "github.com/cadu1996/Sparkfy/internal/store/sqlite"
)
