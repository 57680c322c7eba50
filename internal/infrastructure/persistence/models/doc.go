// Package models contains the GORM persistence models that map to database tables.
// Domain entities carry no ORM tags. Each model converts to and from its domain
// entity with ToDomain and FromDomain, and repositories only ever persist models.
//
// The authoritative schema lives in the SQL migrations. Model tags mirror it
// closely enough for AutoMigrate to build an equivalent SQLite schema in tests.
package models
