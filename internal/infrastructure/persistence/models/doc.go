// Package models contains GORM persistence models that map to database tables.
// Domain entities stay free of ORM tags; each model converts to and from its
// domain type with ToDomain / FromDomain.
//
// Tables:
//   - companies, company_memberships
//   - clients
//   - debts, debt_history
package models
