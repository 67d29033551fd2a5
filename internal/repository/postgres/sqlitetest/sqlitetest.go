// Package sqlitetest opens in-memory SQLite databases with the BookNook schema
// for repository tests.
package sqlitetest

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var schema = []string{
	`CREATE TABLE profiles (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		email TEXT,
		bio TEXT,
		photo_url TEXT,
		club_url TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE clubs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		join_code TEXT NOT NULL UNIQUE,
		url TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE club_members (
		club_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		role TEXT NOT NULL,
		joined_at DATETIME,
		PRIMARY KEY (club_id, user_id)
	)`,
	`CREATE TABLE discussions (
		id TEXT PRIMARY KEY,
		club_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		image_url TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE comments (
		id TEXT PRIMARY KEY,
		discussion_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at DATETIME
	)`,
	`CREATE TABLE books (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		author TEXT NOT NULL,
		thumbnail TEXT NOT NULL DEFAULT '',
		created_at DATETIME
	)`,
	`CREATE TABLE club_books (
		id TEXT PRIMARY KEY,
		club_id TEXT NOT NULL,
		book_id TEXT NOT NULL,
		created_at DATETIME,
		UNIQUE (club_id, book_id)
	)`,
	`CREATE TABLE reviews (
		id TEXT PRIMARY KEY,
		book_id TEXT NOT NULL,
		c_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		review_text TEXT NOT NULL,
		rating INTEGER NOT NULL,
		created_at DATETIME,
		updated_at DATETIME,
		UNIQUE (user_id, book_id, c_id)
	)`,
	`CREATE TABLE review_comments (
		id TEXT PRIMARY KEY,
		reviews_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at DATETIME
	)`,
	`CREATE TABLE event (
		id TEXT PRIMARY KEY,
		club_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		start_date DATETIME NOT NULL,
		end_date DATETIME NOT NULL,
		created_at DATETIME
	)`,
	`CREATE TABLE notifications (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		club_id TEXT,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		type TEXT NOT NULL,
		is_read BOOLEAN NOT NULL DEFAULT 0,
		dedup_key TEXT NOT NULL,
		created_at DATETIME,
		UNIQUE (user_id, dedup_key)
	)`,
	`CREATE TABLE notification_jobs (
		id TEXT PRIMARY KEY,
		club_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		type TEXT NOT NULL,
		dedup_key TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0,
		max_attempts INTEGER NOT NULL DEFAULT 5,
		next_attempt_at DATETIME,
		last_error TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
}

// Open returns a fresh database that lives until the test ends.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, statement := range schema {
		if err := db.Exec(statement).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}
