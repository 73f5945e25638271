package models

import "time"

// StudentParamCount is the arity of the InsertarAlumno and ActualizarAlumno procedures.
const StudentParamCount = 37

// Allowed codes for enumerated student attributes.
const (
	SexMale   = "H"
	SexFemale = "M"

	MaritalSingle   = "S"
	MaritalMarried  = "C"
	MaritalDivorced = "D"
	MaritalWidowed  = "V"
)

// DefaultLocalityID is used when a write does not name a locality.
const DefaultLocalityID = "B0572553-592A-4A46-B730-000022504801"

// StudentRecord is a normalized student enrollment profile ready to be written.
// Field order mirrors the positional parameter list of the write procedures.
type StudentRecord struct {
	ID              *string
	NationalID      string
	EnrollmentCode  *string
	FirstName       string
	PaternalSurname string
	MaternalSurname string
	BirthDate       time.Time
	Sex             string
	Phone           string
	Email           string
	SiteID          int
	MaritalStatus   string
	NationalityID   int
	SpeaksLanguage  bool
	LanguageID      *int
	HasScholarship  bool
	Scholarship     *string
	IsWorkerChild   bool
	CapturedBy      *string
	ProcessedOn     *time.Time
	CapturedAt      *time.Time
	RoleID          *int
	HasAllergies    bool
	Allergies       *string
	BloodType       string
	HasDisability   bool
	Disability      *string
	Guardian        Guardian
	Address         Address
}

// Guardian holds the optional guardian contact of a student.
type Guardian struct {
	FirstName       *string
	PaternalSurname *string
	MaternalSurname *string
	Phone           *string
}

// Address is the postal address of a student.
type Address struct {
	PostalCode     string
	Street         string
	CrossStreets   *string
	ExteriorNumber string
	InteriorNumber *string
	LocalityID     string
}

// Positional serializes the record into the procedure parameter order.
func (r StudentRecord) Positional() []interface{} {
	return []interface{}{
		r.ID,
		r.NationalID,
		r.EnrollmentCode,
		r.FirstName,
		r.PaternalSurname,
		r.MaternalSurname,
		r.BirthDate,
		r.Sex,
		r.Phone,
		r.Email,
		r.SiteID,
		r.MaritalStatus,
		r.NationalityID,
		r.SpeaksLanguage,
		r.LanguageID,
		r.HasScholarship,
		r.Scholarship,
		r.IsWorkerChild,
		r.CapturedBy,
		r.ProcessedOn,
		r.CapturedAt,
		r.RoleID,
		r.HasAllergies,
		r.Allergies,
		r.BloodType,
		r.HasDisability,
		r.Disability,
		r.Guardian.FirstName,
		r.Guardian.PaternalSurname,
		r.Guardian.MaternalSurname,
		r.Guardian.Phone,
		r.Address.PostalCode,
		r.Address.Street,
		r.Address.CrossStreets,
		r.Address.ExteriorNumber,
		r.Address.InteriorNumber,
		r.Address.LocalityID,
	}
}
