package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/posa/jerseyapp/internal/model"
	"github.com/posa/jerseyapp/internal/storage"
)

//go:embed schema.sql
var schema string

// unitLockID is the advisory lock key that serializes ingestion units
const unitLockID = 7_440_101

const uniqueViolation = "23505"

const defaultTxTimeout = 30 * time.Second

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Storage persists players and registrations in PostgreSQL
type Storage struct {
	db *sql.DB
	q  querier
}

// Open connects to PostgreSQL using the lib/pq driver and verifies the connection
func Open(ctx context.Context, dsn string) (*Storage, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return New(db), nil
}

// New wraps an existing database handle
func New(db *sql.DB) *Storage {
	return &Storage{db: db, q: db}
}

// Migrate creates the tables if they do not exist
func (s *Storage) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// Close closes the database handle
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

var (
	_ storage.Storage = (*Storage)(nil)
	_ storage.Pinger  = (*Storage)(nil)
)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO players (id, full_name, jersey_number, parent_email, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			jersey_number = EXCLUDED.jersey_number,
			parent_email = EXCLUDED.parent_email
	`, string(player.ID), player.FullName, nullInt(player.JerseyNumber), player.ParentEmail, createdAt(player.CreatedAt))
	if err != nil {
		if isUniqueViolation(err, "uq_fullname") {
			return model.ErrPlayerNameTaken
		}
		return fmt.Errorf("save player: %w", err)
	}
	return nil
}

const playerColumns = `id, full_name, jersey_number, parent_email, created_at`

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE id = $1`, string(id))
	return scanPlayer(row)
}

func (s *Storage) GetPlayerByName(ctx context.Context, fullName string) (*model.Player, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE full_name = $1`, fullName)
	return scanPlayer(row)
}

func (s *Storage) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+playerColumns+` FROM players ORDER BY full_name`)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	players := []*model.Player{}
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	return players, nil
}

// DeletePlayer relies on ON DELETE CASCADE to remove registrations
func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM players WHERE id = $1`, string(id)); err != nil {
		return fmt.Errorf("delete player: %w", err)
	}
	return nil
}

// Registration operations

func (s *Storage) SaveRegistration(ctx context.Context, reg *model.Registration) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO registrations (id, player_id, program, division, sport, season,
			order_number, order_date, promo_code, confirmation_sent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			program = EXCLUDED.program,
			division = EXCLUDED.division,
			sport = EXCLUDED.sport,
			season = EXCLUDED.season,
			order_number = EXCLUDED.order_number,
			order_date = EXCLUDED.order_date,
			promo_code = EXCLUDED.promo_code,
			confirmation_sent = EXCLUDED.confirmation_sent
	`,
		string(reg.ID), string(reg.PlayerID), reg.Program, reg.Division, reg.Sport, reg.Season,
		nullString(reg.OrderNumber), nullTime(reg.OrderDate), nullString(reg.PromoCode),
		reg.ConfirmationSent, createdAt(reg.CreatedAt),
	)
	if err != nil {
		switch {
		case isUniqueViolation(err, "uq_player_sport_season"):
			return model.ErrRegistrationExists
		case isForeignKeyViolation(err):
			return model.ErrPlayerNotFound
		}
		return fmt.Errorf("save registration: %w", err)
	}
	return nil
}

const registrationColumns = `id, player_id, program, division, sport, season,
	order_number, order_date, promo_code, confirmation_sent, created_at`

func (s *Storage) GetRegistrationByKey(ctx context.Context, key model.RegistrationKey) (*model.Registration, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT `+registrationColumns+` FROM registrations
		WHERE player_id = $1 AND division = $2 AND season = $3 AND sport = $4
	`, string(key.PlayerID), key.Division, key.Season, key.Sport)
	return scanRegistration(row)
}

func (s *Storage) ListRegistrationsByDivision(ctx context.Context, division string) ([]*model.Registration, error) {
	return s.listRegistrations(ctx, `WHERE division = $1`, division)
}

func (s *Storage) ListRegistrationsForPlayer(ctx context.Context, playerID model.PlayerID) ([]*model.Registration, error) {
	return s.listRegistrations(ctx, `WHERE player_id = $1`, string(playerID))
}

func (s *Storage) listRegistrations(ctx context.Context, where string, arg any) ([]*model.Registration, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations `+where+` ORDER BY created_at, id`, arg)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	regs := []*model.Registration{}
	for rows.Next() {
		r, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return regs, nil
}

// User operations

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO users (email, password_hash, created_at) VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash
	`, user.Email, user.PasswordHash, createdAt(user.CreatedAt))
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := s.q.QueryRowContext(ctx,
		`SELECT email, password_hash, created_at FROM users WHERE email = $1`, email,
	).Scan(&u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (s *Storage) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.q.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// Units of work

// RunInTx runs fn in a database transaction holding the unit advisory lock.
// The transaction is rolled back if fn returns an error.
func (s *Storage) RunInTx(ctx context.Context, fn func(ctx context.Context, tx storage.Storage) error) error {
	if _, ok := s.q.(*sql.Tx); ok {
		return fn(ctx, s)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTxTimeout)
		defer cancel()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, unitLockID); err != nil {
		return fmt.Errorf("acquire unit lock: %w", err)
	}

	if err := fn(ctx, &Storage{db: s.db, q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// scanning helpers

type scanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row scanner) (*model.Player, error) {
	var (
		p      model.Player
		id     string
		jersey sql.NullInt64
	)
	if err := row.Scan(&id, &p.FullName, &jersey, &p.ParentEmail, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("scan player: %w", err)
	}
	p.ID = model.PlayerID(id)
	if jersey.Valid {
		p.JerseyNumber = model.JerseyPtr(int(jersey.Int64))
	}
	return &p, nil
}

func scanRegistration(row scanner) (*model.Registration, error) {
	var (
		r           model.Registration
		id          string
		playerID    string
		orderNumber sql.NullString
		orderDate   sql.NullTime
		promoCode   sql.NullString
	)
	err := row.Scan(&id, &playerID, &r.Program, &r.Division, &r.Sport, &r.Season,
		&orderNumber, &orderDate, &promoCode, &r.ConfirmationSent, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("scan registration: %w", err)
	}
	r.ID = model.RegistrationID(id)
	r.PlayerID = model.PlayerID(playerID)
	r.OrderNumber = orderNumber.String
	r.PromoCode = promoCode.String
	if orderDate.Valid {
		d := orderDate.Time
		r.OrderDate = &d
	}
	return &r, nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return string(pqErr.Code) == uniqueViolation && pqErr.Constraint == constraint
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code.Name() == "foreign_key_violation"
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func createdAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
