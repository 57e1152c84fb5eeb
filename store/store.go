// Package store provides persistence implementations for approval workflows.
// The WorkflowStore interface is defined in the parent approvalflow package
// (../store_interface.go) to avoid import cycles between the two packages.
//
// This package contains concrete implementations:
//   - MemoryStore: In-memory backend for tests and single-process use
//   - DynamoDBStore: AWS DynamoDB backend, single-table design (schema.go)
//   - PostgresStore: PostgreSQL backend using pgx (postgres_schema.go)
//
// Every implementation writes a Transition atomically and rejects it with a
// CONFLICT error when any record's version has moved since it was read.
package store
