// Package store archives completed analyses in a local SQLite database so
// past runs can be listed without re-fetching anything.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/anatolykoptev/go_tube/internal/engine"
)

// AnalysisRecord is a single archived analysis run.
type AnalysisRecord struct {
	ID        int64  `json:"id"`
	VideoID   string `json:"video_id"`
	Title     string `json:"title"`
	Channel   string `json:"channel,omitempty"`
	Language  string `json:"language"`
	Segments  int    `json:"segments"`
	Comments  int    `json:"comments"`
	Degraded  bool   `json:"degraded"`
	Reason    string `json:"reason,omitempty"`
	CreatedAt string `json:"created_at"`
}

// HistoryListResult is the output of ListAnalyses.
type HistoryListResult struct {
	Analyses []AnalysisRecord `json:"analyses"`
	Total    int              `json:"total"`
}

var (
	historyDB   *sql.DB
	historyOnce sync.Once
	historyErr  error
)

// openHistoryDB opens (or creates) the SQLite history database. The path
// comes from config; an unset path lands in ~/.go_tube.
func openHistoryDB() (*sql.DB, error) {
	historyOnce.Do(func() {
		dbPath := engine.Cfg.HistoryPath
		if dbPath == "" {
			dbPath = filepath.Join(os.Getenv("HOME"), ".go_tube", "history.db")
		}
		if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
			historyErr = fmt.Errorf("history: mkdir %s: %w", filepath.Dir(dbPath), err)
			return
		}
		db, err := sql.Open("sqlite", dbPath)
		if err != nil {
			historyErr = fmt.Errorf("history: open db: %w", err)
			return
		}
		db.SetMaxOpenConns(1) // SQLite: single writer
		if err := initHistorySchema(db); err != nil {
			historyErr = fmt.Errorf("history: init schema: %w", err)
			return
		}
		historyDB = db
	})
	return historyDB, historyErr
}

// initHistorySchema creates the analyses table if it doesn't exist.
func initHistorySchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS analyses (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		video_id   TEXT NOT NULL,
		title      TEXT NOT NULL,
		channel    TEXT,
		language   TEXT NOT NULL,
		segments   INTEGER NOT NULL,
		comments   INTEGER NOT NULL,
		degraded   INTEGER NOT NULL DEFAULT 0,
		reason     TEXT,
		created_at TEXT NOT NULL
	)`)
	return err
}

// RecordAnalysis archives one completed run and returns its row id.
func RecordAnalysis(_ context.Context, rec AnalysisRecord) (int64, error) {
	if rec.VideoID == "" {
		return 0, errors.New("history: video_id is required")
	}

	db, err := openHistoryDB()
	if err != nil {
		return 0, err
	}

	degraded := 0
	if rec.Degraded {
		degraded = 1
	}
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := db.Exec(
		`INSERT INTO analyses (video_id, title, channel, language, segments, comments, degraded, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.VideoID, rec.Title, rec.Channel, rec.Language,
		rec.Segments, rec.Comments, degraded, rec.Reason, now,
	)
	if err != nil {
		return 0, fmt.Errorf("history: insert: %w", err)
	}

	id, _ := res.LastInsertId()
	return id, nil
}

// ListAnalyses returns the most recent archived runs, optionally filtered by
// video id.
func ListAnalyses(_ context.Context, videoID string, limit int) (*HistoryListResult, error) {
	db, err := openHistoryDB()
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 50
	} else if limit > 100 {
		limit = 100
	}

	var rows *sql.Rows
	if videoID != "" {
		rows, err = db.Query(
			`SELECT id, video_id, title, channel, language, segments, comments, degraded, reason, created_at
			 FROM analyses WHERE video_id = ? ORDER BY created_at DESC LIMIT ?`,
			videoID, limit,
		)
	} else {
		rows, err = db.Query(
			`SELECT id, video_id, title, channel, language, segments, comments, degraded, reason, created_at
			 FROM analyses ORDER BY created_at DESC LIMIT ?`,
			limit,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	defer rows.Close()

	var recs []AnalysisRecord
	for rows.Next() {
		var r AnalysisRecord
		var channel, reason sql.NullString
		var degraded int
		if err := rows.Scan(&r.ID, &r.VideoID, &r.Title, &channel, &r.Language,
			&r.Segments, &r.Comments, &degraded, &reason, &r.CreatedAt); err != nil {
			continue
		}
		r.Channel = channel.String
		r.Reason = reason.String
		r.Degraded = degraded != 0
		recs = append(recs, r)
	}

	var total int
	if videoID != "" {
		db.QueryRow(`SELECT COUNT(*) FROM analyses WHERE video_id = ?`, videoID).Scan(&total) //nolint:errcheck
	} else {
		db.QueryRow(`SELECT COUNT(*) FROM analyses`).Scan(&total) //nolint:errcheck
	}

	if recs == nil {
		recs = []AnalysisRecord{}
	}
	return &HistoryListResult{Analyses: recs, Total: total}, nil
}
