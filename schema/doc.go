// Package schema derives table descriptions from Go struct types.
//
// A description ([Table]) is built once per struct type and flag set by
// [Describe] and cached by a [Cache]. It lists the mapped columns in
// declaration order, the primary key, the indexes, and the table variant
// (ordinary, WITHOUT ROWID, or an FTS3/FTS4/FTS5 virtual table). Descriptions
// are immutable and shared; downstream caches compare them by pointer.
//
// # Struct Tags
//
// Exported fields are mapped by default. The `litemap` tag renames a column
// and adds constraints:
//
//	type OrderLine struct {
//	    ID        int64 `litemap:"Id,pk,autoinc"`
//	    OrderID   int64 `litemap:"OrderId,index=IX_OrderProduct:1"`
//	    ProductID int64 `litemap:"ProductId,index=IX_OrderProduct:2"`
//	    Quantity  int
//	    UnitPrice float64
//	    Status    OrderLineStatus
//	    Scratch   string `litemap:"-"`
//	}
//
// Recognized options:
//
//   - pk: part of the primary key
//   - autoinc: integer key assigned by the engine
//   - notnull: NOT NULL (keys are always NOT NULL)
//   - unique: unique index on the column
//   - index, index=Name, index=Name:Order: (composite) index membership
//   - collate=NOCASE: column collation
//   - default=0: DEFAULT clause, written as-is
//   - size=40: maximum length, declared as varchar(40)
//   - type=decimal: explicit declared type
//
// # Table Options
//
// Table-level settings come from optional interfaces on the struct type:
//
//	func (WantsNoRowID) Config() schema.Config {
//	    return schema.Config{Table: "WantsNoRowId", WithoutRowID: true}
//	}
//
//	func (Track) Indexes() []index.Index {
//	    return []index.Index{
//	        index.Fields("Album", "Position").Unique(),
//	    }
//	}
//
// # Value Mapping
//
// Integers, booleans and enums are stored as INTEGER, floats as REAL,
// strings and UUIDs as TEXT, byte slices as BLOB and time.Time as INTEGER
// Unix nanoseconds. Pointer fields map NULL to nil. Types implementing
// driver.Valuer and sql.Scanner are passed through to the engine.
package schema
