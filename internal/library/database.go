package library

import (
	"database/sql"
	"fmt"
	"time"

	"replay/pkg/models"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// Database is a persistent cache of decoded track metadata keyed by file
// path. Rescanning an unchanged file (same size and modification time) reuses
// the cached row instead of re-probing the audio stream. It is safe for
// concurrent use because the underlying *sql.DB is concurrency-safe.
type Database struct {
	conn   *sql.DB
	logger *logrus.Logger

	lookupStmt *sql.Stmt
	storeStmt  *sql.Stmt
	removeStmt *sql.Stmt
}

// Open opens (or creates) the cache database at the provided path and ensures
// the schema exists. Caller should Close() it when finished.
func Open(dbPath string, logger *logrus.Logger) (*Database, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?cache=shared&mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open library database: %w", err)
	}

	// SQLite works better with fewer connections
	conn.SetMaxOpenConns(5)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(15 * time.Minute)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA temp_store=memory;",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			logger.WithError(err).WithField("pragma", pragma).Warn("Failed to set pragma")
		}
	}

	db := &Database{
		conn:   conn,
		logger: logger,
	}

	if err := db.createTables(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	if err := db.prepareStatements(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	logger.WithField("db_path", dbPath).Debug("Library cache initialized")
	return db, nil
}

// createTables creates the tracks table and its indices if they do not
// already exist. Idempotent.
func (db *Database) createTables() error {
	tracksTable := `
	CREATE TABLE IF NOT EXISTS tracks (
		id TEXT PRIMARY KEY,
		path TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		artist TEXT,
		album TEXT,
		duration REAL NOT NULL,
		file_size INTEGER NOT NULL,
		mod_time INTEGER NOT NULL,
		has_artwork BOOLEAN DEFAULT FALSE,
		artwork_id TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	if _, err := db.conn.Exec(tracksTable); err != nil {
		return err
	}
	_, err := db.conn.Exec("CREATE INDEX IF NOT EXISTS idx_tracks_path ON tracks(path);")
	return err
}

func (db *Database) prepareStatements() error {
	var err error

	db.lookupStmt, err = db.conn.Prepare(
		"SELECT id, title, artist, album, duration, has_artwork, artwork_id FROM tracks WHERE path = ? AND file_size = ? AND mod_time = ?")
	if err != nil {
		return err
	}

	db.storeStmt, err = db.conn.Prepare(`
		INSERT INTO tracks (id, path, title, artist, album, duration, file_size, mod_time, has_artwork, artwork_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			id = excluded.id,
			title = excluded.title,
			artist = excluded.artist,
			album = excluded.album,
			duration = excluded.duration,
			file_size = excluded.file_size,
			mod_time = excluded.mod_time,
			has_artwork = excluded.has_artwork,
			artwork_id = excluded.artwork_id`)
	if err != nil {
		return err
	}

	db.removeStmt, err = db.conn.Prepare("DELETE FROM tracks WHERE path = ?")
	return err
}

// Lookup returns the cached track for path when its recorded size and
// modification time still match the file on disk.
func (db *Database) Lookup(path string, size int64, modTime time.Time) (*models.Track, bool) {
	var (
		id         string
		track      models.Track
		artist     sql.NullString
		album      sql.NullString
		artworkID  sql.NullString
		hasArtwork bool
	)

	row := db.lookupStmt.QueryRow(path, size, modTime.Unix())
	err := row.Scan(&id, &track.Title, &artist, &album, &track.Duration, &hasArtwork, &artworkID)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		db.logger.WithError(err).WithField("path", path).Warn("Library cache lookup failed")
		return nil, false
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, false
	}

	track.ID = parsed
	track.Artist = artist.String
	track.Album = album.String
	track.Path = path
	track.FileSize = size
	track.HasArtwork = hasArtwork
	track.ArtworkID = artworkID.String
	track.Seek = models.NewSeekMap(track.Duration)
	return &track, true
}

// Store upserts a track's metadata keyed by its path.
func (db *Database) Store(track *models.Track, modTime time.Time) error {
	_, err := db.storeStmt.Exec(
		track.ID.String(), track.Path, track.Title, track.Artist, track.Album,
		track.Duration, track.FileSize, modTime.Unix(), track.HasArtwork, track.ArtworkID)
	if err != nil {
		return fmt.Errorf("failed to store track metadata: %w", err)
	}
	return nil
}

// Remove drops the cached row for path. Removing an unknown path is a no-op.
func (db *Database) Remove(path string) error {
	if _, err := db.removeStmt.Exec(path); err != nil {
		return fmt.Errorf("failed to remove track metadata: %w", err)
	}
	return nil
}

// Close closes prepared statements and the connection.
func (db *Database) Close() error {
	for _, stmt := range []*sql.Stmt{db.lookupStmt, db.storeStmt, db.removeStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return db.conn.Close()
}
