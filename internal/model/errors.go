package model

import (
	"errors"
	"fmt"
)

// Domain sentinel errors. Callers discriminate with errors.Is.
var (
	// ErrInvalidInput marks malformed line-item fields. Rejected locally,
	// never persisted.
	ErrInvalidInput = errors.New("entrada invalida")

	// ErrPropuestaNoEncontrada marks a load of an unknown proposal id.
	// The caller's in-memory quote stays untouched.
	ErrPropuestaNoEncontrada = errors.New("propuesta no encontrada")

	// ErrClienteNoEncontrado is a non-fatal warning: a load whose client no
	// longer exists in the directory proceeds with an empty client reference.
	ErrClienteNoEncontrado = errors.New("cliente no encontrado en el directorio")

	// ErrPersistencia marks a store write failure. The in-memory aggregate
	// remains authoritative; the caller should re-attempt the save as a
	// whole (header upsert and item replace are independent store calls, so
	// a partial write is possible).
	ErrPersistencia = errors.New("error de persistencia")
)

func errInvalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}
