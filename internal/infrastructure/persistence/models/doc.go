// Package models maps the commission tables to GORM structs. Domain entities
// carry no ORM tags; each model converts to and from its entity with
// ToDomain and FromDomain, and repositories only ever hand entities out.
package models
