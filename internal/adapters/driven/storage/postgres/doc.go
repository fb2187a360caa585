// Package postgres stores profiles in PostgreSQL with PostGIS geometry.
//
// Measurement arrays are double precision[] columns and positions are
// geometry(Point,4326) values built with ST_MakePoint, so the table can be
// queried spatially by other tools. Access goes through a pgxpool.Pool.
// Connection failures are reported as domain.ErrStoreUnavailable.
package postgres
