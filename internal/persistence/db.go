// Package persistence stores generated maps in SQL. SQLite is the default;
// a postgres:// DSN selects PostgreSQL.
package persistence

import (
	"cmp"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/talgya/hexforge/internal/ruleset"
	"github.com/talgya/hexforge/internal/world"
)

// ErrNotFound is returned for map ids the store does not hold.
var ErrNotFound = errors.New("map not found")

// DB wraps a SQL connection for map storage.
type DB struct {
	conn *sqlx.DB
}

// Summary describes a stored map without its tiles.
type Summary struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Seed      int64         `json:"seed"`
	Tiles     int           `json:"tiles"`
	CreatedAt time.Time     `json:"created_at"`
	Preview   world.Preview `json:"preview"`
}

// Open opens or creates the database named by dsn. Anything that is not a
// postgres URL is taken as a SQLite file path.
func Open(dsn string) (*DB, error) {
	driver, source := driverFor(dsn)
	conn, err := sqlx.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

func driverFor(dsn string) (driver, source string) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgres", dsn
	}
	if strings.Contains(dsn, "?") {
		return "sqlite", dsn
	}
	return "sqlite", dsn + "?_journal_mode=WAL&_busy_timeout=5000"
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS maps (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		shape TEXT NOT NULL,
		archetype TEXT NOT NULL,
		seed BIGINT NOT NULL,
		tile_count INTEGER NOT NULL,
		params_json TEXT NOT NULL,
		preview_json TEXT NOT NULL,
		created_at BIGINT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS map_tiles (
		map_id TEXT NOT NULL,
		idx INTEGER NOT NULL,
		q INTEGER NOT NULL,
		r INTEGER NOT NULL,
		terrain TEXT NOT NULL,
		features_json TEXT NOT NULL,
		resource TEXT NOT NULL,
		resource_amount INTEGER NOT NULL,
		improvement TEXT NOT NULL,
		continent_id INTEGER NOT NULL,
		city_state_start INTEGER NOT NULL,
		PRIMARY KEY (map_id, idx)
	);

	CREATE TABLE IF NOT EXISTS map_starts (
		map_id TEXT NOT NULL,
		idx INTEGER NOT NULL,
		q INTEGER NOT NULL,
		r INTEGER NOT NULL,
		nation TEXT NOT NULL,
		usage TEXT NOT NULL,
		PRIMARY KEY (map_id, idx)
	);

	CREATE INDEX IF NOT EXISTS idx_maps_created ON maps(created_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

type mapRow struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Shape       string `db:"shape"`
	Archetype   string `db:"archetype"`
	Seed        int64  `db:"seed"`
	TileCount   int    `db:"tile_count"`
	ParamsJSON  string `db:"params_json"`
	PreviewJSON string `db:"preview_json"`
	CreatedAt   int64  `db:"created_at"`
}

type tileRow struct {
	Idx            int    `db:"idx"`
	Q              int    `db:"q"`
	R              int    `db:"r"`
	Terrain        string `db:"terrain"`
	FeaturesJSON   string `db:"features_json"`
	Resource       string `db:"resource"`
	ResourceAmount int    `db:"resource_amount"`
	Improvement    string `db:"improvement"`
	ContinentID    int    `db:"continent_id"`
	CityStateStart int    `db:"city_state_start"`
}

type startRow struct {
	Idx    int    `db:"idx"`
	Q      int    `db:"q"`
	R      int    `db:"r"`
	Nation string `db:"nation"`
	Usage  string `db:"usage"`
}

const mapColumns = "id, name, shape, archetype, seed, tile_count, params_json, preview_json, created_at"

// SaveMap stores m under a new id and returns the id.
func (db *DB) SaveMap(m *world.Map) (string, error) {
	id := uuid.NewString()
	paramsJSON, err := json.Marshal(m.Params)
	if err != nil {
		return "", fmt.Errorf("encode params: %w", err)
	}
	previewJSON, err := json.Marshal(m.Preview())
	if err != nil {
		return "", fmt.Errorf("encode preview: %w", err)
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	name := cmp.Or(m.Params.Name, m.Params.Archetype.String()+" map")
	_, err = tx.Exec(tx.Rebind(`INSERT INTO maps (`+mapColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		id, name, m.Params.Shape.String(), m.Params.Archetype.String(), m.Params.Seed,
		m.Len(), string(paramsJSON), string(previewJSON), time.Now().UnixMilli(),
	)
	if err != nil {
		return "", fmt.Errorf("insert map: %w", err)
	}

	stmt, err := tx.Preparex(tx.Rebind(`INSERT INTO map_tiles
		(map_id, idx, q, r, terrain, features_json, resource, resource_amount,
		 improvement, continent_id, city_state_start)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	size := len(paramsJSON) + len(previewJSON)
	for i, t := range m.Tiles {
		featuresJSON, _ := json.Marshal(t.Features)
		if t.Features == nil {
			featuresJSON = []byte("[]")
		}
		size += len(featuresJSON)

		cityState := 0
		if t.CityStateStart {
			cityState = 1
		}

		_, err := stmt.Exec(
			id, i, t.Coord.Q, t.Coord.R, t.Terrain, string(featuresJSON),
			t.Resource, t.ResourceAmount, t.Improvement, t.ContinentID, cityState,
		)
		if err != nil {
			return "", fmt.Errorf("insert tile %v: %w", t.Coord, err)
		}
	}

	for i, s := range m.StartingLocations {
		_, err := tx.Exec(tx.Rebind(`INSERT INTO map_starts (map_id, idx, q, r, nation, usage)
			VALUES (?, ?, ?, ?, ?, ?)`),
			id, i, s.Coord.Q, s.Coord.R, s.Nation, s.Usage.String(),
		)
		if err != nil {
			return "", fmt.Errorf("insert start %s: %w", s.Nation, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	slog.Info("map saved", "id", id, "name", name, "tiles", humanize.Comma(int64(m.Len())),
		"starts", len(m.StartingLocations), "size", humanize.Bytes(uint64(size)))
	return id, nil
}

func (db *DB) mapRow(id string) (*mapRow, error) {
	var row mapRow
	err := db.conn.Get(&row, db.conn.Rebind("SELECT "+mapColumns+" FROM maps WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// LoadMap rebuilds a stored map against rules.
func (db *DB) LoadMap(id string, rules *ruleset.Ruleset) (*world.Map, error) {
	row, err := db.mapRow(id)
	if err != nil {
		return nil, err
	}

	snap := &world.Snapshot{}
	if err := json.Unmarshal([]byte(row.ParamsJSON), &snap.Params); err != nil {
		return nil, fmt.Errorf("decode params of %s: %w", id, err)
	}

	var tiles []tileRow
	err = db.conn.Select(&tiles, db.conn.Rebind(`SELECT idx, q, r, terrain, features_json, resource,
		resource_amount, improvement, continent_id, city_state_start
		FROM map_tiles WHERE map_id = ? ORDER BY idx`), id)
	if err != nil {
		return nil, fmt.Errorf("load tiles of %s: %w", id, err)
	}
	snap.Tiles = make([]world.Tile, len(tiles))
	for i, tr := range tiles {
		t := world.Tile{
			Coord:          world.HexCoord{Q: tr.Q, R: tr.R},
			Terrain:        tr.Terrain,
			Resource:       tr.Resource,
			ResourceAmount: tr.ResourceAmount,
			Improvement:    tr.Improvement,
			ContinentID:    tr.ContinentID,
			CityStateStart: tr.CityStateStart != 0,
		}
		if err := json.Unmarshal([]byte(tr.FeaturesJSON), &t.Features); err != nil {
			return nil, fmt.Errorf("decode features at %v: %w", t.Coord, err)
		}
		if len(t.Features) == 0 {
			t.Features = nil
		}
		snap.Tiles[i] = t
	}

	var starts []startRow
	err = db.conn.Select(&starts, db.conn.Rebind(`SELECT idx, q, r, nation, usage
		FROM map_starts WHERE map_id = ? ORDER BY idx`), id)
	if err != nil {
		return nil, fmt.Errorf("load starts of %s: %w", id, err)
	}
	for _, sr := range starts {
		s := world.StartingLocation{Coord: world.HexCoord{Q: sr.Q, R: sr.R}, Nation: sr.Nation}
		if err := s.Usage.UnmarshalText([]byte(sr.Usage)); err != nil {
			return nil, fmt.Errorf("decode start of %s: %w", sr.Nation, err)
		}
		snap.Starts = append(snap.Starts, s)
	}

	m, err := world.FromSnapshot(snap, rules)
	if err != nil {
		return nil, fmt.Errorf("rebuild %s: %w", id, err)
	}
	return m, nil
}

func (row *mapRow) summary() (Summary, error) {
	s := Summary{
		ID:        row.ID,
		Name:      row.Name,
		Seed:      row.Seed,
		Tiles:     row.TileCount,
		CreatedAt: time.UnixMilli(row.CreatedAt).UTC(),
	}
	if err := json.Unmarshal([]byte(row.PreviewJSON), &s.Preview); err != nil {
		return s, fmt.Errorf("decode preview of %s: %w", row.ID, err)
	}
	return s, nil
}

// Preview returns the summary of one map without loading its tiles.
func (db *DB) Preview(id string) (*Summary, error) {
	row, err := db.mapRow(id)
	if err != nil {
		return nil, err
	}
	s, err := row.summary()
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListPreviews returns the most recent maps, newest first.
func (db *DB) ListPreviews(limit int) ([]Summary, error) {
	var rows []mapRow
	err := db.conn.Select(&rows,
		db.conn.Rebind("SELECT "+mapColumns+" FROM maps ORDER BY created_at DESC, id LIMIT ?"),
		limit,
	)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(rows))
	for i := range rows {
		s, err := rows[i].summary()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// DeleteMap removes a map with its tiles and starts.
func (db *DB) DeleteMap(id string) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(tx.Rebind("DELETE FROM maps WHERE id = ?"), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	for _, table := range []string{"map_tiles", "map_starts"} {
		if _, err := tx.Exec(tx.Rebind("DELETE FROM "+table+" WHERE map_id = ?"), id); err != nil {
			return fmt.Errorf("delete from %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("map deleted", "id", id)
	return nil
}
