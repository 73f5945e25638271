package database

import (
	"errors"
	"fmt"
	"strings"
)

// ErrProceduresUnsupported is returned when the backend has no stored procedure support.
var ErrProceduresUnsupported = errors.New("stored procedures are not supported by this backend")

// Dialect captures the SQL differences between supported backends.
type Dialect string

const (
	DialectSQLServer Dialect = "sqlserver"
	DialectPostgres  Dialect = "postgres"
	DialectSQLite    Dialect = "sqlite"
)

// DialectFor maps a configured driver name to its dialect.
func DialectFor(driver string) Dialect {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres":
		return DialectPostgres
	case "sqlite":
		return DialectSQLite
	default:
		return DialectSQLServer
	}
}

// ProcedureCall renders a call to the named procedure with arity positional placeholders.
func (d Dialect) ProcedureCall(name string, arity int) (string, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", arity), ",")

	switch d {
	case DialectSQLServer:
		if arity == 0 {
			return "EXEC " + name, nil
		}
		return fmt.Sprintf("EXEC %s %s", name, placeholders), nil
	case DialectPostgres:
		return fmt.Sprintf("SELECT * FROM %s(%s)", name, placeholders), nil
	default:
		return "", ErrProceduresUnsupported
	}
}

// StagingTable is the session-scoped relation the write procedures read staged documents from.
func (d Dialect) StagingTable() string {
	if d == DialectSQLServer {
		return "#DocumentosTemp"
	}
	return "documentos_temp"
}

// CreateStagingTable returns the statements that prepare an empty staging table for the current session.
func (d Dialect) CreateStagingTable() []string {
	columns := "(NombreOriginal %s NOT NULL, Ruta %s NOT NULL, Tamano BIGINT NOT NULL, TipoMime %s NULL, Checksum CHAR(64) NULL, FechaSubida %s NOT NULL)"

	switch d {
	case DialectSQLServer:
		return []string{
			"IF OBJECT_ID('tempdb..#DocumentosTemp') IS NOT NULL DROP TABLE #DocumentosTemp",
			"CREATE TABLE #DocumentosTemp " + fmt.Sprintf(columns, "NVARCHAR(255)", "NVARCHAR(500)", "NVARCHAR(100)", "DATETIME2"),
		}
	case DialectPostgres:
		return []string{
			"CREATE TEMP TABLE IF NOT EXISTS documentos_temp " + fmt.Sprintf(columns, "VARCHAR(255)", "VARCHAR(500)", "VARCHAR(100)", "TIMESTAMP") + " ON COMMIT DROP",
		}
	default:
		return []string{
			"CREATE TEMP TABLE IF NOT EXISTS documentos_temp " + fmt.Sprintf(columns, "TEXT", "TEXT", "TEXT", "DATETIME"),
			"DELETE FROM documentos_temp",
		}
	}
}

// InsertStagingRow returns the parameterised insert for one staged document.
func (d Dialect) InsertStagingRow() string {
	return "INSERT INTO " + d.StagingTable() + " (NombreOriginal, Ruta, Tamano, TipoMime, Checksum, FechaSubida) VALUES (?, ?, ?, ?, ?, ?)"
}
