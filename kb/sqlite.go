package kb

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/huichen/huoyan/types"
)

var identifierRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// 存放在SQLite表中的知识库，每行一个三元组
type Relational struct {
	db *sql.DB

	lookupQuery string
	countQuery  string
}

func OpenRelational(path string, table string, columns []string) (*Relational, error) {
	if !identifierRegexp.MatchString(table) {
		return nil, types.NewError(types.ErrCodeConfig, "invalid sql_table_name %q", table)
	}
	if len(columns) != 3 {
		return nil, types.NewError(types.ErrCodeConfig, "sql_column_names needs subject, relation and object, got %v", columns)
	}
	for _, column := range columns {
		if !identifierRegexp.MatchString(column) {
			return nil, types.NewError(types.ErrCodeConfig, "invalid sql column name %q", column)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, types.WrapError(err, types.ErrCodeConfig, "open kb %s", path)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, types.WrapError(err, types.ErrCodeConfig, "open kb %s", path)
	}

	subject, relation, object := columns[0], columns[1], columns[2]
	return &Relational{
		db: db,
		lookupQuery: fmt.Sprintf("SELECT %s, %s, %s FROM %s WHERE %s = ? ORDER BY rowid",
			subject, relation, object, table, relation),
		countQuery: fmt.Sprintf("SELECT %s, COUNT(*) FROM %s GROUP BY %s", subject, table, subject),
	}, nil
}

func (r *Relational) LookupRelations(ctx context.Context, relation string) ([]types.Triple, error) {
	rows, err := r.db.QueryContext(ctx, r.lookupQuery, relation)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	triples := []types.Triple{}
	for rows.Next() {
		var triple types.Triple
		if err := rows.Scan(&triple.Subject, &triple.Relation, &triple.Object); err != nil {
			return nil, err
		}
		// 宾语可能以N-Triples字面量的形式存放
		if strings.HasPrefix(triple.Object, `"`) {
			if value, lang, err := parseObject(triple.Object); err == nil {
				triple.Object, triple.Lang = value, lang
			}
		}
		triples = append(triples, triple)
	}
	return triples, rows.Err()
}

func (r *Relational) RelationCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, r.countQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var subject string
		var count int
		if err := rows.Scan(&subject, &count); err != nil {
			return nil, err
		}
		counts[subject] = count
	}
	return counts, rows.Err()
}

func (r *Relational) Close() error {
	return r.db.Close()
}
