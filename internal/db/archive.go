package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"gnss-survey/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

// Archive stores raw ingested position fixes in SQLite, keyed by the
// source log they came from. Computed corrections are never persisted.
type Archive struct {
	conn *sql.DB
}

// Open opens (and if necessary bootstraps) a fix archive.
func Open(dbPath string) (*Archive, error) {
	// Enable WAL mode and other optimizations via connection string
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000", dbPath)

	conn, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1) // SQLite works best with single writer
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	a := &Archive{conn: conn}
	if err := a.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return a, nil
}

// initialize creates tables and indexes
func (a *Archive) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS fixes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		timestamp TEXT,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		altitude REAL,
		fix_quality TEXT NOT NULL,
		num_satellites INTEGER,
		hdop REAL,
		ingested_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_fixes_source ON fixes(source);
	CREATE INDEX IF NOT EXISTS idx_fixes_quality ON fixes(fix_quality);
	`

	_, err := a.conn.Exec(schema)
	return err
}

// Close closes the database connection
func (a *Archive) Close() error {
	return a.conn.Close()
}

// InsertFixes archives the GGA records of a parsed log that carry usable
// coordinates. Other sentence types hold no position and are skipped.
func (a *Archive) InsertFixes(source string, records []models.Fix) (int64, error) {
	tx, err := a.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO fixes
		(source, timestamp, latitude, longitude, altitude, fix_quality, num_satellites, hdop)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	var count int64
	for _, r := range records {
		if r.Type != models.SentenceGGA || !r.GGA.HasPosition() {
			continue
		}
		g := r.GGA
		_, err := stmt.Exec(
			source, g.Timestamp, g.Latitude, g.Longitude,
			g.Altitude, string(g.FixQuality), g.NumSatellites, g.HDOP,
		)
		if err != nil {
			return count, err
		}
		count++
	}

	return count, tx.Commit()
}

// ArchiveQuery filters archived fixes.
type ArchiveQuery struct {
	Source  string
	Quality models.FixQuality
	Limit   int
}

// QueryFixes returns archived fixes as GGA records, newest first, ready
// for the statistics aggregator or the correction calculator.
func (a *Archive) QueryFixes(q ArchiveQuery) ([]models.Fix, error) {
	var conditions []string
	var args []interface{}

	baseQuery := `
		SELECT timestamp, latitude, longitude, altitude, fix_quality, num_satellites, hdop
		FROM fixes
	`

	if q.Source != "" {
		conditions = append(conditions, "source = ?")
		args = append(args, q.Source)
	}
	if q.Quality != "" {
		conditions = append(conditions, "fix_quality = ?")
		args = append(args, string(q.Quality))
	}

	if len(conditions) > 0 {
		baseQuery += " WHERE " + strings.Join(conditions, " AND ")
	}

	baseQuery += " ORDER BY id DESC"

	if q.Limit > 0 {
		baseQuery += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	rows, err := a.conn.Query(baseQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.Fix
	for rows.Next() {
		var g models.GGAFix
		var timestamp sql.NullString
		var altitude, hdop sql.NullFloat64
		var numSats sql.NullInt64
		var qualityName string

		err := rows.Scan(
			&timestamp, &g.Latitude, &g.Longitude,
			&altitude, &qualityName, &numSats, &hdop,
		)
		if err != nil {
			return nil, err
		}

		if timestamp.Valid {
			g.Timestamp = timestamp.String
		}
		if altitude.Valid {
			v := altitude.Float64
			g.Altitude = &v
		}
		if numSats.Valid {
			v := int(numSats.Int64)
			g.NumSatellites = &v
		}
		if hdop.Valid {
			v := hdop.Float64
			g.HDOP = &v
		}
		g.FixQuality = models.FixQuality(qualityName)

		results = append(results, models.Fix{Type: models.SentenceGGA, GGA: &g})
	}

	return results, rows.Err()
}

// SourceInfo summarizes one archived source log.
type SourceInfo struct {
	Source string `json:"source"`
	Fixes  int64  `json:"fixes"`
}

// Sources lists archived source logs with their fix counts.
func (a *Archive) Sources() ([]SourceInfo, error) {
	rows, err := a.conn.Query(`SELECT source, COUNT(*) FROM fixes GROUP BY source ORDER BY source`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []SourceInfo
	for rows.Next() {
		var s SourceInfo
		if err := rows.Scan(&s.Source, &s.Fixes); err != nil {
			return nil, err
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// Stats returns archive statistics
func (a *Archive) Stats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var totalFixes int64
	if err := a.conn.QueryRow("SELECT COUNT(*) FROM fixes").Scan(&totalFixes); err != nil {
		return nil, err
	}
	stats["total_fixes"] = totalFixes

	var totalSources int64
	if err := a.conn.QueryRow("SELECT COUNT(DISTINCT source) FROM fixes").Scan(&totalSources); err != nil {
		return nil, err
	}
	stats["total_sources"] = totalSources

	qualityCounts := make(map[string]int64)
	rows, err := a.conn.Query("SELECT fix_quality, COUNT(*) FROM fixes GROUP BY fix_quality")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var q string
		var c int64
		if err := rows.Scan(&q, &c); err != nil {
			return nil, err
		}
		qualityCounts[q] = c
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	stats["fix_quality_counts"] = qualityCounts

	return stats, nil
}
