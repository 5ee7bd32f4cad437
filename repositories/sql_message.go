package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"roomchat/domain"
	"roomchat/errors"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// SQLMessageRepository is the database/sql backend of the message store,
// for SQLite (mattn/go-sqlite3) and Postgres (pgx stdlib).
type SQLMessageRepository struct {
	mu     sync.Mutex
	db     *sql.DB
	driver string
	log    *slog.Logger
	now    func() time.Time
}

// OpenSQLMessageRepository opens dsn with driver and runs the migrations.
func OpenSQLMessageRepository(ctx context.Context, driver, dsn string, log *slog.Logger) (*SQLMessageRepository, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == DriverSQLite {
		// An in-memory database only lives as long as its single connection.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err = db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	repo := &SQLMessageRepository{
		db:     db,
		driver: driver,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
	if err = repo.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return repo, nil
}

func (s *SQLMessageRepository) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS messages (
			room       TEXT   NOT NULL,
			seq        BIGINT NOT NULL,
			sender     TEXT   NOT NULL,
			kind       TEXT   NOT NULL,
			content    TEXT   NOT NULL,
			created_at BIGINT NOT NULL,
			PRIMARY KEY (room, seq)
		)`,
	}
	for _, query := range migrations {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Append reads the current maximum sequence of the room and inserts the next
// one inside a single transaction, serialized by mu.
func (s *SQLMessageRepository) Append(ctx context.Context, room, sender string, kind domain.Kind, content string) (domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	defer func() { _ = tx.Rollback() }()

	var last int64
	row := tx.QueryRowContext(ctx, s.rebind(`SELECT COALESCE(MAX(seq), 0) FROM messages WHERE room = ?`), room)
	if err = row.Scan(&last); err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}

	message := domain.Message{
		ID:        uint64(last) + 1,
		Room:      room,
		Sender:    sender,
		Kind:      kind,
		Content:   content,
		CreatedAt: s.now(),
	}
	_, err = tx.ExecContext(ctx,
		s.rebind(`INSERT INTO messages (room, seq, sender, kind, content, created_at) VALUES (?, ?, ?, ?, ?, ?)`),
		message.Room, int64(message.ID), message.Sender, message.Kind.String(), message.Content, message.CreatedAt.UnixNano())
	if err != nil {
		s.log.Error("Failed to persist message", "room", room, "error", err)
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	if err = tx.Commit(); err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	return message, nil
}

func (s *SQLMessageRepository) History(ctx context.Context, room string) ([]domain.Message, error) {
	return s.Since(ctx, room, 0, 0)
}

// Since returns up to limit messages with an id greater than afterID.
// Ids are stored as BIGINT, so nothing lies after math.MaxInt64.
func (s *SQLMessageRepository) Since(ctx context.Context, room string, afterID uint64, limit int) ([]domain.Message, error) {
	if afterID >= math.MaxInt64 {
		return make([]domain.Message, 0), nil
	}
	query := `SELECT seq, sender, kind, content, created_at FROM messages WHERE room = ? AND seq > ? ORDER BY seq`
	args := []any{room, int64(afterID)}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	messages := make([]domain.Message, 0)
	for rows.Next() {
		var (
			seq       int64
			kind      string
			createdAt int64
			message   = domain.Message{Room: room}
		)
		if err = rows.Scan(&seq, &message.Sender, &kind, &message.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
		}
		message.ID = uint64(seq)
		message.Kind = domain.ParseKind(kind)
		message.CreatedAt = time.Unix(0, createdAt).UTC()
		messages = append(messages, message)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	return messages, nil
}

func (s *SQLMessageRepository) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *SQLMessageRepository) Close() error {
	return s.db.Close()
}

// rebind turns '?' placeholders into '$n' for Postgres.
func (s *SQLMessageRepository) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
