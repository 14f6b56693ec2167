// Package sql provides the SQLite statement builders and the database/sql
// backed dialect driver used by litemap.
//
// # Builder Types
//
//   - Builder: low-level SQL string builder with identifier quoting
//   - Selector: SELECT builder with predicates, ordering and pagination
//   - InsertBuilder: INSERT builder with DEFAULT VALUES and ON CONFLICT support
//   - UpdateBuilder: UPDATE builder with SET and WHERE clauses
//   - DeleteBuilder: DELETE builder with WHERE predicates
//
// Identifiers are quoted with double quotes and arguments are bound as "?"
// placeholders:
//
//	query, args := sql.Select("id", "name").
//		From(sql.Table("users")).
//		Where(sql.And(sql.EQ("status", "active"), sql.GT("age", 18))).
//		OrderBy(sql.Desc("created_at")).
//		Limit(10).
//		Query()
//	// SELECT "id", "name" FROM "users" WHERE "status" = ? AND "age" > ? ORDER BY "created_at" DESC LIMIT ?
//
// # Predicates
//
//	sql.EQ("name", "john")                 // "name" = ?
//	sql.NEQ("status", "deleted")           // "status" <> ?
//	sql.Like("email", "admin%")            // "email" LIKE ?
//	sql.IsNull("deleted_at")               // "deleted_at" IS NULL
//	sql.In("status", "active", "pending")  // "status" IN (?, ?)
//	sql.In("status")                       // FALSE
//
// Upserts name the conflict target and the columns to overwrite:
//
//	sql.Insert("settings").
//		Columns("key", "value").
//		Values("theme", "dark").
//		OnConflict("key").
//		UpdateSet("value")
//	// INSERT INTO "settings" ("key", "value") VALUES (?, ?) ON CONFLICT ("key") DO UPDATE SET "value" = excluded."value"
//
// # Drivers
//
// Driver adapts a *database/sql.DB to dialect.Driver. StatsDriver and
// DebugDriver wrap any dialect.Driver with statement statistics and
// statement logging.
package sql
