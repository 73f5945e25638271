package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	mssql "github.com/microsoft/go-mssqldb"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/cobach/sia-alumnos-api/internal/database"
	"github.com/cobach/sia-alumnos-api/internal/models"
	"github.com/cobach/sia-alumnos-api/internal/observability"
)

// Stored procedures owned by the database team.
const (
	ProcListStudents        = "ObtenerAlumnos"
	ProcStudentByEnrollment = "AlumnoConMatricula"
	ProcStudentByCodeOrCURP = "AlumnoConCurpOMatricula"
	ProcInsertStudent       = "InsertarAlumno"
	ProcUpdateStudent       = "ActualizarAlumno"
)

// StudentRepository reads and writes students through stored procedures.
type StudentRepository interface {
	List(ctx context.Context) ([]datatypes.JSONMap, error)
	GetByEnrollmentCode(ctx context.Context, code string) (datatypes.JSONMap, error)
	Lookup(ctx context.Context, enrollmentCode, nationalID *string) (datatypes.JSONMap, error)
	Insert(ctx context.Context, record models.StudentRecord, staging *models.StagingSet) (datatypes.JSONMap, error)
	Update(ctx context.Context, record models.StudentRecord, staging *models.StagingSet) (datatypes.JSONMap, error)
}

type studentRepository struct {
	provider *database.Provider
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(provider *database.Provider) StudentRepository {
	return &studentRepository{provider: provider}
}

func (r *studentRepository) List(ctx context.Context) ([]datatypes.JSONMap, error) {
	var rows []datatypes.JSONMap
	err := r.call(ctx, ProcListStudents, func(conn *gorm.DB, stmt string) error {
		var err error
		rows, err = r.scanRows(conn.Raw(stmt))
		return err
	})
	return rows, err
}

func (r *studentRepository) GetByEnrollmentCode(ctx context.Context, code string) (datatypes.JSONMap, error) {
	return r.single(ctx, ProcStudentByEnrollment, code)
}

func (r *studentRepository) Lookup(ctx context.Context, enrollmentCode, nationalID *string) (datatypes.JSONMap, error) {
	return r.single(ctx, ProcStudentByCodeOrCURP, enrollmentCode, nationalID)
}

func (r *studentRepository) Insert(ctx context.Context, record models.StudentRecord, staging *models.StagingSet) (datatypes.JSONMap, error) {
	return r.write(ctx, ProcInsertStudent, record, staging)
}

func (r *studentRepository) Update(ctx context.Context, record models.StudentRecord, staging *models.StagingSet) (datatypes.JSONMap, error) {
	return r.write(ctx, ProcUpdateStudent, record, staging)
}

func (r *studentRepository) single(ctx context.Context, procedure string, args ...interface{}) (datatypes.JSONMap, error) {
	var row datatypes.JSONMap
	err := r.call(ctx, procedure, func(conn *gorm.DB, stmt string) error {
		rows, err := r.scanRows(conn.Raw(stmt, args...))
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return gorm.ErrRecordNotFound
		}
		row = rows[0]
		return nil
	}, args...)
	if err != nil {
		return nil, err
	}
	return row, nil
}

// write stages the documents and runs the procedure inside one transaction on a dedicated connection.
func (r *studentRepository) write(ctx context.Context, procedure string, record models.StudentRecord, staging *models.StagingSet) (datatypes.JSONMap, error) {
	params := record.Positional()
	if len(params) != models.StudentParamCount {
		return nil, fmt.Errorf("%s expects %d parameters, got %d", procedure, models.StudentParamCount, len(params))
	}

	var row datatypes.JSONMap
	err := r.call(ctx, procedure, func(conn *gorm.DB, stmt string) error {
		return conn.Transaction(func(tx *gorm.DB) error {
			if err := r.stage(tx, staging); err != nil {
				return err
			}

			rows, err := r.scanRows(tx.Raw(stmt, params...))
			if err != nil {
				return err
			}
			if len(rows) > 0 {
				row = rows[0]
			}
			return nil
		})
	}, params...)
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (r *studentRepository) stage(tx *gorm.DB, staging *models.StagingSet) error {
	dialect := r.provider.Dialect()
	for _, stmt := range dialect.CreateStagingTable() {
		if err := tx.Exec(stmt).Error; err != nil {
			return fmt.Errorf("prepare staging table: %w", err)
		}
	}

	insert := dialect.InsertStagingRow()
	for _, doc := range staging.Records() {
		if err := tx.Exec(insert, doc.OriginalName, doc.StoragePath, doc.SizeBytes, doc.MimeType, doc.Checksum, doc.UploadedAt).Error; err != nil {
			return fmt.Errorf("stage document %q: %w", doc.OriginalName, err)
		}
	}
	return nil
}

func (r *studentRepository) call(ctx context.Context, procedure string, fn func(conn *gorm.DB, stmt string) error, args ...interface{}) error {
	stmt, err := r.provider.Dialect().ProcedureCall(procedure, len(args))
	if err != nil {
		return err
	}

	start := time.Now()
	err = r.provider.Scope(ctx, func(conn *gorm.DB) error {
		return fn(conn, stmt)
	})

	outcome := "ok"
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		outcome = "error"
	}
	observability.ProcedureLatency().WithLabelValues(procedure, outcome).Observe(time.Since(start).Seconds())

	return err
}

func (r *studentRepository) scanRows(query *gorm.DB) ([]datatypes.JSONMap, error) {
	var raw []map[string]interface{}
	if err := query.Scan(&raw).Error; err != nil {
		return nil, err
	}

	rows := make([]datatypes.JSONMap, 0, len(raw))
	for _, item := range raw {
		row := make(datatypes.JSONMap, len(item))
		for column, value := range item {
			row[column] = r.columnValue(value)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// columnValue turns driver byte slices into JSON friendly values.
func (r *studentRepository) columnValue(value interface{}) interface{} {
	raw, ok := value.([]byte)
	if !ok {
		return value
	}

	if r.provider.Dialect() == database.DialectSQLServer && len(raw) == 16 {
		var guid mssql.UniqueIdentifier
		if err := guid.Scan(raw); err == nil {
			return guid.String()
		}
	}
	return string(raw)
}
