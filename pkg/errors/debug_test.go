package errors

import (
	stdErrors "errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestDumpReadsPgxError(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "ux_loads_inventory_project", TableName: "loads"}
	err := Wrap(CodeDependency, pgErr, "insert load")

	d := Dump(err)
	if d.Code != CodeDependency {
		t.Fatalf("expected dependency code, got %s", d.Code)
	}
	if d.PGCode != "23505" || d.PGConstraint != "ux_loads_inventory_project" {
		t.Fatalf("pg fields not captured: %+v", d)
	}
	if len(d.Chain) != 2 {
		t.Fatalf("expected chain of 2, got %d", len(d.Chain))
	}
}

func TestDumpReadsPqError(t *testing.T) {
	d := Dump(&pq.Error{Code: "40001", Table: "loads"})
	if d.PGCode != "40001" || d.PGTable != "loads" {
		t.Fatalf("pq fields not captured: %+v", d)
	}
}

func TestDumpFieldsSkipsEmptyValues(t *testing.T) {
	fields := Dump(stdErrors.New("boom")).Fields()
	if fields["error"] != "boom" {
		t.Fatalf("expected top message, got %v", fields["error"])
	}
	if _, ok := fields["pg_code"]; ok {
		t.Fatalf("pg_code should be omitted when empty")
	}
	if _, ok := fields["error_code"]; ok {
		t.Fatalf("error_code should be omitted for untyped errors")
	}
}

func TestDumpNil(t *testing.T) {
	if d := Dump(nil); d.TopMessage != "" {
		t.Fatalf("expected empty dump")
	}
}
