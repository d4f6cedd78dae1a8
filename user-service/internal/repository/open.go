package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// MemoryURL selects the in-process store.
const MemoryURL = "memory://"

// Open returns the repository named by url together with its close function.
// Postgres URLs are pinged and migrated before use.
func Open(ctx context.Context, url string, logger *logrus.Logger) (UserRepository, func() error, error) {
	if url == "" || strings.HasPrefix(url, MemoryURL) {
		logger.Warn("using in-memory user repository; data is lost on restart")
		return NewMemoryUserRepository(), func() error { return nil }, nil
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}
	if err := Migrate(db, logger); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return NewPostgresUserRepository(db), db.Close, nil
}
