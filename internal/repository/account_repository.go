package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/cinema-ticketing/internal/model"
)

// AccountRepo provides persistence for the `accounts` table. Clients,
// admins and staff all live in this one table; the role column is the
// only thing that tells them apart, so uniqueness of the login spans
// every role at once.
type AccountRepo struct{ DB *sql.DB }

// NewAccountRepo returns an AccountRepo bound to the given database.
func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{DB: db} }

const accountColumns = "id,login,password,role,is_active,created_at,updated_at"

func scanAccount(row *sql.Row) (model.Account, error) {
	var a model.Account
	err := row.Scan(&a.ID, &a.Login, &a.Password, &a.Role, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// Create inserts an account and returns its generated ID. A violation
// of the login uniqueness constraint is reported as ErrLoginExists,
// distinct from any other store failure.
func (r *AccountRepo) Create(ctx context.Context, login, password, role string) (uint64, error) {
	login = strings.TrimSpace(login)
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO accounts (login, password, role) VALUES (?,?,?)",
		login, password, role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrLoginExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches an account by id.
func (r *AccountRepo) GetByID(ctx context.Context, id uint64) (model.Account, error) {
	a, err := scanAccount(r.DB.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, ErrAccountNotFound
	}
	return a, err
}

// GetByLogin fetches an account by its exact login.
func (r *AccountRepo) GetByLogin(ctx context.Context, login string) (model.Account, error) {
	a, err := scanAccount(r.DB.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE login=? LIMIT 1", strings.TrimSpace(login)))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, ErrAccountNotFound
	}
	return a, err
}

// SearchByLoginPrefix returns all accounts whose login starts with the
// given prefix, ordered by login for deterministic output. Wildcard
// characters in the prefix are escaped so they match literally.
func (r *AccountRepo) SearchByLoginPrefix(ctx context.Context, prefix string) ([]model.Account, error) {
	esc := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(strings.TrimSpace(prefix))
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE login LIKE ? ORDER BY login", esc+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	accounts := make([]model.Account, 0)
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.ID, &a.Login, &a.Password, &a.Role, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}

// Update changes an account's login and password. The role and the
// active flag are deliberately untouched; activation goes through
// SetActive so the reservation gate has a single mutation path.
func (r *AccountRepo) Update(ctx context.Context, id uint64, login, password string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE accounts SET login=?, password=? WHERE id=?",
		strings.TrimSpace(login), password, id)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrLoginExists
		}
		return err
	}
	return r.confirmExists(ctx, res, id)
}

// SetActive flips the is_active flag. Deactivation does not touch
// tickets the account already holds; it only gates new bookings.
func (r *AccountRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE accounts SET is_active=? WHERE id=?", active, id)
	if err != nil {
		return err
	}
	return r.confirmExists(ctx, res, id)
}

// Delete removes an account. Tickets referencing it are left in place;
// they carry their own copy of the booking data and stay valid.
func (r *AccountRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM accounts WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// confirmExists distinguishes "row missing" from "update was a no-op":
// MySQL reports zero affected rows in both cases, so a probe settles it.
func (r *AccountRepo) confirmExists(ctx context.Context, res sql.Result, id uint64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var one int
	err = r.DB.QueryRowContext(ctx, "SELECT 1 FROM accounts WHERE id=? LIMIT 1", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrAccountNotFound
	}
	return err
}

// GetTx fetches an account inside the given transaction. The
// reservation engine uses this for its eligibility checks so that the
// account state it sees is the state the booking commits against.
func (r *AccountRepo) GetTx(ctx context.Context, tx Tx, id uint64) (model.Account, error) {
	stx, err := unwrapTx(tx)
	if err != nil {
		return model.Account{}, err
	}
	var a model.Account
	err = stx.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE id=? LIMIT 1", id).
		Scan(&a.ID, &a.Login, &a.Password, &a.Role, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, ErrAccountNotFound
	}
	return a, err
}
