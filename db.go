package main

import (
	"database/sql"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS stats_rows (
		admission_date TEXT PRIMARY KEY,
		first_admitted INTEGER NOT NULL DEFAULT 0,
		last_admitted  INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS stats_meta (
		id         INTEGER PRIMARY KEY CHECK (id = 1),
		fetched_at DATETIME NOT NULL
	);
	`
	_, err = db.Exec(schema)
	if err != nil {
		return nil, err
	}

	return db, nil
}

// SaveSnapshot replaces the stored snapshot with snap in one transaction, so
// a reader never observes a half-written refresh.
func SaveSnapshot(db *sql.DB, snap *StatsSnapshot) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM stats_rows`); err != nil {
		return err
	}

	stmt, err := tx.Prepare(
		`INSERT OR REPLACE INTO stats_rows (admission_date, first_admitted, last_admitted) VALUES (?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range snap.Rows {
		if _, err := stmt.Exec(row.Date.Format(dateLayout), row.FirstAdmitted, row.LastAdmitted); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(
		`INSERT INTO stats_meta (id, fetched_at) VALUES (1, ?)
		 ON CONFLICT (id) DO UPDATE SET fetched_at = excluded.fetched_at`,
		snap.FetchedAt.UTC(),
	); err != nil {
		return err
	}
	return tx.Commit()
}

// LoadSnapshot reads the stored snapshot. A missing snapshot returns
// (nil, nil); corrupted rows surface as an error so the caller can refetch.
func LoadSnapshot(db *sql.DB) (*StatsSnapshot, error) {
	var fetchedAt time.Time
	err := db.QueryRow(`SELECT fetched_at FROM stats_meta WHERE id = 1`).Scan(&fetchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(
		`SELECT admission_date, first_admitted, last_admitted FROM stats_rows ORDER BY admission_date`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snap := &StatsSnapshot{FetchedAt: fetchedAt}
	for rows.Next() {
		var dateStr string
		var day ThroughputDay
		if err := rows.Scan(&dateStr, &day.FirstAdmitted, &day.LastAdmitted); err != nil {
			return nil, err
		}
		date, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			return nil, err
		}
		day.Date = date
		snap.Rows = append(snap.Rows, day)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(snap.Rows, func(i, j int) bool { return snap.Rows[i].Date.Before(snap.Rows[j].Date) })
	return snap, nil
}
