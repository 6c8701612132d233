// Package sqlxrepos implements the storage contracts on PostgreSQL with sqlx.
package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/escola/core"
)

// postgres error codes
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

type baseRepository struct {
	exec core.DBExecutor
}

func (repo baseRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

// inTx runs fn inside a transaction, unless svcExec already carries one which is then reused.
func (repo baseRepository) inTx(ctx context.Context, svcExec []core.DBExecutor, fn func(exec core.DBExecutor) error) error {
	if len(svcExec) > 0 {
		return fn(svcExec[0])
	}
	db, ok := repo.exec.(core.DB)
	if !ok {
		return fn(repo.exec)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}
	return nil
}

// trapNoRowsErr maps "no rows" err to notFound
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func pqCode(err error) (string, string) {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		return string(pqErr.Code), pqErr.Constraint
	}
	return "", ""
}

func isUniqueViolation(err error) bool {
	code, _ := pqCode(err)
	return code == uniqueViolation
}

// trapFKErr turns a foreign key violation on table into a validation error on the referencing column.
func trapFKErr(err error, table, msg string) error {
	code, constraint := pqCode(err)
	if code != foreignKeyViolation {
		return errors.Wrap(err, msg)
	}
	// postgres names FK constraints <table>_<column>_fkey
	field := strings.TrimSuffix(strings.TrimPrefix(constraint, table+"_"), "_fkey")
	return core.NewValidationError(err, core.FieldError{Field: field, Error: "referenced record not found"})
}

// orderBy builds an ORDER BY clause from the whitelisted orderings, always ending with fallback.
func orderBy(ordering []core.DBOrdering, fallback string, allowed ...string) string {
	orderList := make([]string, 0, len(ordering)+1)
	for _, ord := range core.AllowedOrderings(ordering, allowed...) {
		orderList = append(orderList, ord.String())
	}
	orderList = append(orderList, fallback)
	return " ORDER BY " + strings.Join(orderList, ", ")
}

// conditions accumulates WHERE clauses written with "?" bind vars; slice args are expanded by sqlx.In.
type conditions struct {
	conds []string
	args  []interface{}
}

func (c *conditions) add(cond string, args ...interface{}) {
	c.conds = append(c.conds, cond)
	c.args = append(c.args, args...)
}

// build appends the WHERE clause and suffix to base and rebinds it for postgres.
func (c *conditions) build(base, suffix string) (string, []interface{}, error) {
	q := base
	if len(c.conds) > 0 {
		q += " WHERE " + strings.Join(c.conds, " AND ")
	}
	q, args, err := sqlx.In(q+suffix, c.args...)
	if err != nil {
		return "", nil, errors.Wrap(err, "building query")
	}
	return sqlx.Rebind(sqlx.DOLLAR, q), args, nil
}

// dateColumn selects a DATE column as YYYY-MM-DD text under its own name.
func dateColumn(col string) string {
	return "to_char(" + col + ", 'YYYY-MM-DD') AS " + col
}

// deleteByID deletes the rows of table with the given ids and returns how many went away.
func deleteByID(ctx context.Context, exec core.DBExecutor, table string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return 0, nil
	}

	res, err := exec.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ANY($1)", pq.Array(valid))
	if err != nil {
		return 0, errors.Wrapf(err, "deleting %s rows", table)
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "counting deleted rows")
	}
	return int(cnt), nil
}
