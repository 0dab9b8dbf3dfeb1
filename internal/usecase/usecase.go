package usecase

import (
	"errors"
	"strings"
	"time"

	"medical-records/internal/domain/entity"
	"medical-records/pkg/jwt"
	"medical-records/pkg/validator"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

var (
	ErrInvalidDateFormat = errors.New("invalid date format, use YYYY-MM-DD")
)

// uniqueColumns maps each unique index to the column list SQLite reports
// when it is violated ("UNIQUE constraint failed: <columns>").
var uniqueColumns = map[string]string{
	entity.ConstraintMemberPublicID:              "members.member_id",
	entity.ConstraintMemberNameDOB:               "members.name, members.date_of_birth",
	entity.ConstraintUserUsername:                "users.username",
	entity.ConstraintUserEmail:                   "users.email",
	entity.CareKindDoctor.UniqueConstraint():     "doctors.member_id, doctors.name",
	entity.CareKindMedication.UniqueConstraint(): "medications.member_id, medications.name",
	entity.CareKindDiagnosis.UniqueConstraint():  "diagnoses.member_id, diagnoses.name",
}

// isDuplicateKeyError checks if the error is a unique violation on the
// specified constraint. PostgreSQL names the constraint; SQLite names the
// columns, which are looked up in uniqueColumns.
func isDuplicateKeyError(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// PostgreSQL error code 23505 = unique_violation
		return pgErr.Code == "23505" && strings.Contains(strings.ToLower(pgErr.ConstraintName), strings.ToLower(constraintName))
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		if liteErr.ExtendedCode != sqlite3.ErrConstraintUnique && liteErr.ExtendedCode != sqlite3.ErrConstraintPrimaryKey {
			return false
		}
		columns, ok := uniqueColumns[constraintName]
		return ok && strings.TrimPrefix(liteErr.Error(), "UNIQUE constraint failed: ") == columns
	}

	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// isForeignKeyError checks if the error is a foreign key violation
// containing the specified constraint name. SQLite does not name the
// failing key, so any violation matches there.
func isForeignKeyError(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// PostgreSQL error code 23503 = foreign_key_violation
		return pgErr.Code == "23503" && strings.Contains(strings.ToLower(pgErr.ConstraintName), strings.ToLower(constraintName))
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}

	return errors.Is(err, gorm.ErrForeignKeyViolated)
}

// actorID returns the acting user's ID for audit rows and ownership columns,
// or nil when the request is anonymous.
func actorID(actor jwt.Identity) *uuid.UUID {
	if actor.UserID == uuid.Nil {
		return nil
	}
	id := actor.UserID
	return &id
}

func parseDate(value string) (time.Time, error) {
	t, err := time.Parse(validator.DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, ErrInvalidDateFormat
	}
	return t, nil
}

// normalizeName lower-cases the name, trims it and collapses inner runs of
// whitespace.
func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
