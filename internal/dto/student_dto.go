package dto

import "gorm.io/datatypes"

// StudentForm is the multipart form accepted by the insert and update endpoints.
// Every value arrives as text and is normalized after validation.
type StudentForm struct {
	ID              string `form:"id" validate:"omitempty,max=64"`
	CURP            string `form:"curp" validate:"required,len=18,alphanum,uppercase"`
	Matricula       string `form:"matricula" validate:"omitempty,len=15"`
	Nombre          string `form:"nombre" validate:"required,max=80"`
	ApellidoPaterno string `form:"apellidoPaterno" validate:"required,max=50"`
	ApellidoMaterno string `form:"apellidoMaterno" validate:"required,max=50"`
	FechaNacimiento string `form:"fechaNacimiento" validate:"required,datetime=2006-01-02"`
	Sexo            string `form:"sexo" validate:"required,oneof=H M"`
	Telefono        string `form:"telefono" validate:"required,number,min=10,max=15"`
	Correo          string `form:"correo" validate:"required,email,max=80"`
	IdSede          string `form:"idSede" validate:"required,intrange=1-4"`
	EstadoCivil     string `form:"estadoCivil" validate:"required,oneof=S C D V"`
	IdNacionalidad  string `form:"idNacionalidad" validate:"required,intrange=1-4"`

	HablaLengua      string `form:"hablaLengua" validate:"required,boolflag"`
	IdLengua         string `form:"idLengua"`
	TieneBeca        string `form:"tieneBeca" validate:"required,boolflag"`
	QueBeca          string `form:"queBeca"`
	HijoDeTrabajador string `form:"hijoDeTrabajador" validate:"required,boolflag"`

	IdCapturo    string `form:"idCapturo" validate:"omitempty,uuid_rfc4122"`
	FechaTramite string `form:"fechaTramite" validate:"omitempty,datetime=2006-01-02"`
	FechaCaptura string `form:"fechaCaptura" validate:"omitempty,datetime=2006-01-02"`
	IdRol        string `form:"idRol" validate:"omitempty,intrange=1-32767"`

	TieneAlergias     string `form:"tieneAlergias" validate:"required,boolflag"`
	Alergias          string `form:"alergias"`
	TipoSangre        string `form:"tipoSangre" validate:"required,bloodtype"`
	TieneDiscapacidad string `form:"tieneDiscapacidad" validate:"required,boolflag"`
	Discapacidad      string `form:"discapacidad"`

	NombreTutor          string `form:"nombreTutor" validate:"omitempty,max=80"`
	ApellidoPaternoTutor string `form:"apellidoPaternoTutor" validate:"omitempty,max=50"`
	ApellidoMaternoTutor string `form:"apellidoMaternoTutor" validate:"omitempty,max=50"`
	TelefonoTutor        string `form:"telefonoTutor" validate:"omitempty,number,min=10,max=15"`

	CodigoPostal   string `form:"codigoPostal" validate:"required,number,min=5,max=10"`
	Calle          string `form:"calle" validate:"required,max=100"`
	EntreCalles    string `form:"entreCalles" validate:"omitempty,max=100"`
	NumeroExterior string `form:"numeroExterior" validate:"required,number,min=1,max=10"`
	NumeroInterior string `form:"numeroInterior" validate:"omitempty,max=10"`
	IdLocalidad    string `form:"idLocalidad" validate:"omitempty,uuid_rfc4122"`
}

// StudentWriteResponse is returned after a successful insert or update.
type StudentWriteResponse struct {
	Row       datatypes.JSONMap  `json:"alumno,omitempty"`
	Documents []DocumentResponse `json:"documentos"`
}

// DocumentResponse describes one document staged by a write.
type DocumentResponse struct {
	OriginalName string `json:"nombreOriginal"`
	StoragePath  string `json:"ruta"`
	SizeBytes    int64  `json:"tamano"`
}

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
