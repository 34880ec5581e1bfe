// Package history stores completed sleep sessions in SQLite.
package history

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/sweeney/wakelight/internal/alarm"
)

// FileName is the database file inside the data directory.
const FileName = "despertador.db"

// Store is an append-only log of alarm.Record rows.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer; also keeps ":memory:" databases on a single connection.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS alarmas (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		fecha_apagado TEXT NOT NULL,
		hora_apagado TEXT NOT NULL,
		hora_alarma TEXT NOT NULL,
		tiempo_dormido INTEGER NOT NULL,
		imagen_path TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_alarmas_created_at ON alarmas(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append inserts rec and returns it with its id and creation time.
func (s *Store) Append(ctx context.Context, rec alarm.Record) (alarm.Record, error) {
	if rec.ImagePath == "" {
		rec.ImagePath = alarm.NoImage
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO alarmas (fecha_apagado, hora_apagado, hora_alarma, tiempo_dormido, imagen_path)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.OffDate, rec.OffTime, rec.AlarmTime, rec.SleptMinutes, rec.ImagePath,
	)
	if err != nil {
		return alarm.Record{}, fmt.Errorf("insert session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return alarm.Record{}, fmt.Errorf("session id: %w", err)
	}
	rec.ID = id

	if err := s.db.QueryRowContext(ctx, `SELECT created_at FROM alarmas WHERE id = ?`, id).Scan(&rec.CreatedAt); err != nil {
		return alarm.Record{}, fmt.Errorf("read session: %w", err)
	}
	return rec, nil
}

// Recent returns up to limit sessions, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]alarm.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, fecha_apagado, hora_apagado, hora_alarma, tiempo_dormido, imagen_path, created_at
		 FROM alarmas ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	recs := []alarm.Record{}
	for rows.Next() {
		var r alarm.Record
		var created sql.NullString
		if err := rows.Scan(&r.ID, &r.OffDate, &r.OffTime, &r.AlarmTime, &r.SleptMinutes, &r.ImagePath, &created); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		r.CreatedAt = created.String
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return recs, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
