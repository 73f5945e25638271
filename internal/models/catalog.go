package models

// Language is an entry of the indigenous languages catalog.
type Language struct {
	ID   int    `gorm:"column:Id;primaryKey" json:"id"`
	Name string `gorm:"column:Nombre" json:"name"`
}

// Locality is an entry of the localities catalog. Identifiers are GUIDs.
type Locality struct {
	ID   string `gorm:"column:Id;primaryKey" json:"id"`
	Name string `gorm:"column:NombreLocalidad" json:"name"`
}

// BloodType is an entry of the blood types catalog.
type BloodType struct {
	ID   int    `gorm:"column:Id;primaryKey" json:"id"`
	Name string `gorm:"column:Nombre" json:"name"`
}
