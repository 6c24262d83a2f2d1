package repository

import (
	"fmt"

	"github.com/sakif/plantando/internal/apperror"
)

// ErrReferenced is returned when a write breaks a foreign key: deleting a row
// that other rows still point to, or pointing at a row that does not exist.
// Services usually replace its message with one that names the resource.
var ErrReferenced = apperror.Conflict("Conflito: o registro está referenciado por outros dados.")

// apiFields maps column names to the field names clients see.
var apiFields = map[string]string{
	"id_registro": "idRegistro",
	"senha_hash":  "senha",
}

// UniqueViolation builds the Conflict reported for a unique-constraint
// failure on the given column.
func UniqueViolation(column string) *apperror.AppError {
	field := column
	if f, ok := apiFields[column]; ok {
		field = f
	}
	return apperror.ConflictOn(field, fmt.Sprintf("Conflito: o campo '%s' já existe.", field))
}
