package repos

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// SessionStorage implements fiber.Storage on the sessions table so admin
// sessions survive restarts.
type SessionStorage struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewSessionStorage(db *sqlx.DB) *SessionStorage {
	return &SessionStorage{db: db, now: time.Now}
}

// Get returns nil, nil for missing or expired keys.
func (s *SessionStorage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	var row struct {
		V         []byte `db:"v"`
		ExpiresAt int64  `db:"expires_at"`
	}
	err := s.db.Get(&row, s.db.Rebind(`SELECT v, expires_at FROM sessions WHERE k = ?`), key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if row.ExpiresAt != 0 && row.ExpiresAt <= s.now().Unix() {
		return nil, nil
	}
	return row.V, nil
}

// Set stores val; exp <= 0 means no expiry.
func (s *SessionStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	var expiresAt int64
	if exp > 0 {
		expiresAt = s.now().Add(exp).Unix()
	}
	q := `INSERT INTO sessions(k, v, expires_at) VALUES (?, ?, ?)
	  ON CONFLICT(k) DO UPDATE SET v = excluded.v, expires_at = excluded.expires_at`
	if s.db.DriverName() == DriverMySQL {
		q = `INSERT INTO sessions(k, v, expires_at) VALUES (?, ?, ?)
	  ON DUPLICATE KEY UPDATE v = VALUES(v), expires_at = VALUES(expires_at)`
	}
	_, err := s.db.Exec(s.db.Rebind(q), key, val, expiresAt)
	return err
}

func (s *SessionStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	_, err := s.db.Exec(s.db.Rebind(`DELETE FROM sessions WHERE k = ?`), key)
	return err
}

func (s *SessionStorage) Reset() error {
	_, err := s.db.Exec(`DELETE FROM sessions`)
	return err
}

// Close is a no-op: the *sqlx.DB is owned by the caller.
func (s *SessionStorage) Close() error { return nil }

// DeleteExpired removes expired sessions and reports how many went.
func (s *SessionStorage) DeleteExpired() (int64, error) {
	res, err := s.db.Exec(s.db.Rebind(`DELETE FROM sessions WHERE expires_at != 0 AND expires_at <= ?`), s.now().Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
