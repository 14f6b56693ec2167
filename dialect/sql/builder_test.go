package sql

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuilder(t *testing.T) {
	tests := []struct {
		input     Querier
		wantQuery string
		wantArgs  []any
	}{
		{
			input:     Select().From(Table("users")),
			wantQuery: `SELECT * FROM "users"`,
		},
		{
			input:     Select("id", "name").From(Table("users")).Where(EQ("name", "a8m")),
			wantQuery: `SELECT "id", "name" FROM "users" WHERE "name" = ?`,
			wantArgs:  []any{"a8m"},
		},
		{
			input: Select().From(Table("users")).
				Where(EQ("name", "a8m")).
				Where(Or(GT("age", 30), IsNull("age"))),
			wantQuery: `SELECT * FROM "users" WHERE "name" = ? AND ("age" > ? OR "age" IS NULL)`,
			wantArgs:  []any{"a8m", 30},
		},
		{
			input:     Select().Count().From(Table("users")).Where(Not(Like("name", "a%"))),
			wantQuery: `SELECT COUNT(*) FROM "users" WHERE NOT ("name" LIKE ?)`,
			wantArgs:  []any{"a%"},
		},
		{
			input:     Select().From(Table("users")).OrderBy("name", Desc("age")).Limit(10).Offset(20),
			wantQuery: `SELECT * FROM "users" ORDER BY "name", "age" DESC LIMIT ? OFFSET ?`,
			wantArgs:  []any{10, 20},
		},
		{
			input:     Select().From(Table("users")).Offset(5),
			wantQuery: `SELECT * FROM "users" LIMIT -1 OFFSET ?`,
			wantArgs:  []any{5},
		},
		{
			input:     Select().From(Table("users")).Where(In("id", 1, 2, 3)).Where(NotNull("name")),
			wantQuery: `SELECT * FROM "users" WHERE "id" IN (?, ?, ?) AND "name" IS NOT NULL`,
			wantArgs:  []any{1, 2, 3},
		},
		{
			input:     Select().From(Table("users")).Where(In("id")),
			wantQuery: `SELECT * FROM "users" WHERE FALSE`,
		},
		{
			input:     Select().From(Table("users")).Where(NotIn("id")),
			wantQuery: `SELECT * FROM "users" WHERE TRUE`,
		},
		{
			input:     Select().From(Table("users")).Where(And(NEQ("a", 1), LTE("b", 2), GTE("c", 3), LT("d", 4))),
			wantQuery: `SELECT * FROM "users" WHERE "a" <> ? AND "b" <= ? AND "c" >= ? AND "d" < ?`,
			wantArgs:  []any{1, 2, 3, 4},
		},
		{
			input:     Select(Table("users").C("name")).From(Table("users")),
			wantQuery: `SELECT "users"."name" FROM "users"`,
		},
		{
			input:     Select().From(Table(`we"ird`)),
			wantQuery: `SELECT * FROM "we""ird"`,
		},
		{
			input:     Insert("users").Columns("name", "age").Values("a8m", 10).Values("foo", 20),
			wantQuery: `INSERT INTO "users" ("name", "age") VALUES (?, ?), (?, ?)`,
			wantArgs:  []any{"a8m", 10, "foo", 20},
		},
		{
			input:     Insert("users").Default(),
			wantQuery: `INSERT INTO "users" DEFAULT VALUES`,
		},
		{
			input:     Insert("users").Columns("id", "name").Values(1, "a8m").OnConflict("id").UpdateSet("name"),
			wantQuery: `INSERT INTO "users" ("id", "name") VALUES (?, ?) ON CONFLICT ("id") DO UPDATE SET "name" = excluded."name"`,
			wantArgs:  []any{1, "a8m"},
		},
		{
			input:     Insert("users").Columns("id").Values(1).OnConflict("id"),
			wantQuery: `INSERT INTO "users" ("id") VALUES (?) ON CONFLICT ("id") DO NOTHING`,
			wantArgs:  []any{1},
		},
		{
			input:     Insert("users").Columns("id", "name").Values(1, "a8m").OnConflict("id").UpdateSet("name").DoNothing(),
			wantQuery: `INSERT INTO "users" ("id", "name") VALUES (?, ?) ON CONFLICT ("id") DO NOTHING`,
			wantArgs:  []any{1, "a8m"},
		},
		{
			input:     Update("users").Set("name", "foo").Set("age", 10).Where(EQ("id", 1)),
			wantQuery: `UPDATE "users" SET "name" = ?, "age" = ? WHERE "id" = ?`,
			wantArgs:  []any{"foo", 10, 1},
		},
		{
			input:     Delete("users"),
			wantQuery: `DELETE FROM "users"`,
		},
		{
			input: Delete("users").
				Where(Or(
					And(EQ("name", "foo"), EQ("age", 10)),
					And(EQ("name", "bar"), EQ("age", 20)),
				)),
			wantQuery: `DELETE FROM "users" WHERE ("name" = ? AND "age" = ? OR "name" = ? AND "age" = ?)`,
			wantArgs:  []any{"foo", 10, "bar", 20},
		},
		{
			input:     Raw(`PRAGMA table_info("users")`),
			wantQuery: `PRAGMA table_info("users")`,
		},
	}
	for i, tt := range tests {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			query, args := tt.input.Query()
			require.Equal(t, tt.wantQuery, query)
			require.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestBuilder_Repeatable(t *testing.T) {
	p := EQ("name", "a8m")
	s := Select().From(Table("users")).Where(p)
	q1, args1 := s.Query()
	q2, args2 := s.Query()
	require.Equal(t, q1, q2)
	require.Equal(t, args1, args2)
	require.Len(t, args2, 1)
}

func TestBuilder_MissingFrom(t *testing.T) {
	s := Select("id")
	query, _ := s.Query()
	require.Equal(t, `SELECT "id"`, query)
	require.EqualError(t, s.Err(), "sql: missing FROM clause")
}

func TestUpdateBuilder_Empty(t *testing.T) {
	require.True(t, Update("users").Empty())
	require.False(t, Update("users").Set("a", 1).Empty())
}

func TestQuote(t *testing.T) {
	require.Equal(t, `"OrderLine"`, Quote("OrderLine"))
	require.Equal(t, `"a""b"`, Quote(`a"b`))
	require.Equal(t, `"x" ASC`, Asc("x"))
	b := &Builder{}
	b.Ident("*").Comma().Ident("a(b)").Comma().Ident(`"q"`).Comma().Ident("c")
	require.Equal(t, `*, "a(b)", """q""", "c"`, b.String())

	query, _ := Select("COUNT(*)", Table("t").C("a(b)"), "c").From(Table("t")).Where(EQ("a(b)", 1)).Query()
	require.Equal(t, `SELECT COUNT(*), "t"."a(b)", "c" FROM "t" WHERE "a(b)" = ?`, query)
	query, _ = Update("t").Set("a(b)", 1).Query()
	require.Equal(t, `UPDATE "t" SET "a(b)" = ?`, query)
}

func BenchmarkSelectBuilder(b *testing.B) {
	b.ReportAllocs()
	for b.Loop() {
		Select("id", "name", "email").
			From(Table("users")).
			Where(EQ("active", true)).
			Where(In("role", "admin", "owner")).
			OrderBy(Desc("created_at")).
			Limit(10).
			Query()
	}
}

func BenchmarkInsertBuilder(b *testing.B) {
	b.ReportAllocs()
	for b.Loop() {
		Insert("users").
			Columns("id", "age", "first_name", "last_name").
			Values(1, 30, "Ariel", "Mashraki").
			OnConflict("id").
			UpdateSet("age", "first_name", "last_name").
			Query()
	}
}
