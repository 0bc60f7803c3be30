package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/i474232898/current-weather/internal/weather"
)

// SQLiteStore wraps the SQLite connection.
type SQLiteStore struct {
	conn *sql.DB
}

var _ weather.Store = (*SQLiteStore)(nil)

// NewSQLite opens or creates an SQLite database at the given path.
// Use ":memory:" for a throwaway database.
func NewSQLite(path string) (*SQLiteStore, error) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	dsn := path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// A single connection serializes writers and keeps ":memory:" databases
	// shared across queries.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}
	db := &SQLiteStore{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *SQLiteStore) Close() error {
	return db.conn.Close()
}

// Ping verifies the connection.
func (db *SQLiteStore) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cities (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		country TEXT NOT NULL DEFAULT '',
		lat REAL NOT NULL DEFAULT 0,
		lon REAL NOT NULL DEFAULT 0,
		UNIQUE(name, country)
	);
	CREATE TABLE IF NOT EXISTS current_weathers (
		city_id INTEGER PRIMARY KEY REFERENCES cities(id) ON DELETE CASCADE,
		temperature REAL NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		icon TEXT NOT NULL DEFAULT '',
		condition_id INTEGER NOT NULL DEFAULT 0,
		data_time INTEGER NOT NULL,
		pressure REAL NOT NULL DEFAULT 0,
		humidity INTEGER NOT NULL DEFAULT 0,
		rain_volume_3h REAL NOT NULL DEFAULT 0,
		visibility REAL NOT NULL DEFAULT 0,
		wind_speed REAL NOT NULL DEFAULT 0,
		wind_degrees REAL NOT NULL DEFAULT 0
	);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// --- City Methods ---

// GetOrCreateCity finds a city by name and country, or creates it.
func (db *SQLiteStore) GetOrCreateCity(ctx context.Context, city weather.City) (weather.City, bool, error) {
	var existing weather.City
	err := db.conn.QueryRowContext(ctx,
		"SELECT id, name, country, lat, lon FROM cities WHERE name = ? AND country = ?",
		city.Name, city.Country,
	).Scan(&existing.ID, &existing.Name, &existing.Country, &existing.Lat, &existing.Lon)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return weather.City{}, false, err
	}

	res, err := db.conn.ExecContext(ctx,
		"INSERT INTO cities (name, country, lat, lon) VALUES (?, ?, ?, ?)",
		city.Name, city.Country, city.Lat, city.Lon,
	)
	if err != nil {
		return weather.City{}, false, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return weather.City{}, false, err
	}
	city.ID = id
	return city, true, nil
}

// GetCity returns a city by id.
func (db *SQLiteStore) GetCity(ctx context.Context, cityID int64) (weather.City, error) {
	var c weather.City
	err := db.conn.QueryRowContext(ctx,
		"SELECT id, name, country, lat, lon FROM cities WHERE id = ?", cityID,
	).Scan(&c.ID, &c.Name, &c.Country, &c.Lat, &c.Lon)
	if errors.Is(err, sql.ErrNoRows) {
		return weather.City{}, ErrCityNotFound
	}
	return c, err
}

// GetCities returns all cities ordered by id.
func (db *SQLiteStore) GetCities(ctx context.Context) ([]weather.City, error) {
	rows, err := db.conn.QueryContext(ctx, "SELECT id, name, country, lat, lon FROM cities ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cities []weather.City
	for rows.Next() {
		var c weather.City
		if err := rows.Scan(&c.ID, &c.Name, &c.Country, &c.Lat, &c.Lon); err != nil {
			return nil, err
		}
		cities = append(cities, c)
	}
	return cities, rows.Err()
}

// DeleteCity removes a city; its weather record goes with it.
func (db *SQLiteStore) DeleteCity(ctx context.Context, cityID int64) error {
	res, err := db.conn.ExecContext(ctx, "DELETE FROM cities WHERE id = ?", cityID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCityNotFound
	}
	return nil
}

// --- Current Weather Methods ---

// GetByCityOnce returns the city joined with its weather record.
func (db *SQLiteStore) GetByCityOnce(ctx context.Context, cityID int64) (weather.CityAndCurrentWeather, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT "+cityWeatherColumns+" FROM current_weathers w JOIN cities c ON c.id = w.city_id WHERE w.city_id = ?",
		cityID,
	)
	v, err := scanCityWeather(row)
	if errors.Is(err, sql.ErrNoRows) {
		return weather.CityAndCurrentWeather{}, ErrNotFound
	}
	return v, err
}

// GetAll returns every city that has a weather record, ordered by city id.
func (db *SQLiteStore) GetAll(ctx context.Context) ([]weather.CityAndCurrentWeather, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+cityWeatherColumns+" FROM current_weathers w JOIN cities c ON c.id = w.city_id ORDER BY w.city_id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []weather.CityAndCurrentWeather{}
	for rows.Next() {
		v, err := scanCityWeather(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Upsert inserts the record or updates the existing one, in one transaction.
func (db *SQLiteStore) Upsert(ctx context.Context, cw weather.CurrentWeather) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := upsert(ctx, sqliteWriter{tx}, cw); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// DeleteCurrentWeather removes the weather record of a city, if any.
func (db *SQLiteStore) DeleteCurrentWeather(ctx context.Context, cityID int64) error {
	_, err := db.conn.ExecContext(ctx, "DELETE FROM current_weathers WHERE city_id = ?", cityID)
	return err
}

type sqliteWriter struct {
	tx *sql.Tx
}

func (w sqliteWriter) insertCurrentWeather(ctx context.Context, cw weather.CurrentWeather) (bool, error) {
	res, err := w.tx.ExecContext(ctx, `
		INSERT INTO current_weathers (
			city_id, temperature, description, icon, condition_id, data_time,
			pressure, humidity, rain_volume_3h, visibility, wind_speed, wind_degrees
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(city_id) DO NOTHING`,
		weatherArgs(cw)...,
	)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (w sqliteWriter) updateCurrentWeather(ctx context.Context, cw weather.CurrentWeather) error {
	args := weatherArgs(cw)
	// city_id moves from the first to the last placeholder.
	args = append(args[1:], args[0])
	res, err := w.tx.ExecContext(ctx, `
		UPDATE current_weathers SET
			temperature = ?, description = ?, icon = ?, condition_id = ?, data_time = ?,
			pressure = ?, humidity = ?, rain_volume_3h = ?, visibility = ?, wind_speed = ?, wind_degrees = ?
		WHERE city_id = ?`,
		args...,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
