package store

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")

	ErrUsernameTaken  = errors.New("username already registered")
	ErrEmailTaken     = errors.New("email already registered")
	ErrAffiliateTaken = errors.New("affiliate id already in use")
	ErrNameTaken      = errors.New("name already in use")

	// ErrInvalidReference is returned when a foreign key points nowhere,
	// e.g. an unknown user type option id.
	ErrInvalidReference = errors.New("invalid reference")

	ErrUnknownReferrer = fmt.Errorf("referring user: %w", ErrInvalidReference)
	ErrUnknownUserType = fmt.Errorf("user type option: %w", ErrInvalidReference)
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

var uniqueConstraints = map[string]error{
	"users_username_key":         ErrUsernameTaken,
	"users_email_key":            ErrEmailTaken,
	"users_affiliate_id_key":     ErrAffiliateTaken,
	"user_type_options_name_key": ErrNameTaken,
}

var foreignKeyConstraints = map[string]error{
	"users_referring_affiliate_id_fkey":               ErrUnknownReferrer,
	"user_user_type_options_user_type_option_id_fkey": ErrUnknownUserType,
}

// translateError maps postgres constraint violations to store sentinels.
// Other errors are returned unchanged.
func translateError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch string(pqErr.Code) {
	case pqUniqueViolation:
		if mapped, ok := uniqueConstraints[pqErr.Constraint]; ok {
			return mapped
		}
	case pqForeignKeyViolation:
		if mapped, ok := foreignKeyConstraints[pqErr.Constraint]; ok {
			return mapped
		}
		return ErrInvalidReference
	}
	return err
}
