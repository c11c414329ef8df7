package database

import (
	"database/sql"
	"strconv"
	"strings"

	"github.com/Kellerman81/go_case_tables/logger"
	"github.com/pkg/errors"
)

var ErrNoResult = errors.New("no result")

type Query struct {
	Select    string
	Where     string
	WhereArgs []interface{}
	OrderBy   string
	Limit     uint64
	Offset    uint64
	InnerJoin string
}

func debugQueries() bool {
	return strings.EqualFold(DBLogLevel, "debug")
}

func buildquery(columns string, table string, qu Query, count bool) string {
	var query strings.Builder
	query.WriteString("select ")

	if qu.InnerJoin != "" {
		if strings.Contains(columns, table+".") {
			query.WriteString(columns + " from " + table)
		} else {
			if count {
				query.WriteString("count(*) from " + table)
			} else {
				query.WriteString(table + ".* from " + table)
			}
		}
		query.WriteString(" inner join " + qu.InnerJoin)
	} else {
		query.WriteString(columns + " from " + table)
	}
	if qu.Where != "" {
		query.WriteString(" where " + qu.Where)
	}
	if qu.OrderBy != "" && !count {
		query.WriteString(" order by " + qu.OrderBy)
	}
	if qu.Limit != 0 {
		if qu.Offset != 0 {
			query.WriteString(" limit " + strconv.Itoa(int(qu.Offset)) + ", " + strconv.Itoa(int(qu.Limit)))
		} else {
			query.WriteString(" limit " + strconv.Itoa(int(qu.Limit)))
		}
	}
	return query.String()
}

// CountRows counts the rows matching qu, ignoring its limit and offset.
func CountRows(table string, qu Query) (int, error) {
	qu.Offset = 0
	qu.Limit = 0
	query := buildquery("count(*)", table, qu, true)
	if debugQueries() {
		logger.Log.Debug("query count: ", query, " -args: ", qu.WhereArgs)
	}
	var counter int
	if err := DB.Get(&counter, query, qu.WhereArgs...); err != nil {
		logger.Log.Error("Query: ", query, " error: ", err)
		return 0, err
	}
	return counter, nil
}

// queryStructs runs the select for qu and scans every row into a T.
func queryStructs[T any](columns string, table string, qu Query) ([]T, error) {
	if qu.Select != "" {
		columns = qu.Select
	}
	query := buildquery(columns, table, qu, false)
	if debugQueries() {
		logger.Log.Debug("query: ", query, " -args: ", qu.WhereArgs)
	}
	rows, err := DB.Queryx(query, qu.WhereArgs...)
	if err != nil {
		logger.Log.Error("Query: ", query, " error: ", err)
		return nil, err
	}
	defer rows.Close()

	result := make([]T, 0, qu.Limit)
	for rows.Next() {
		var item T
		if err := rows.StructScan(&item); err != nil {
			logger.Log.Error("Query2: ", query, " error: ", err)
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

func getStruct[T any](columns string, table string, qu Query) (T, error) {
	qu.Limit = 1
	var empty T
	results, err := queryStructs[T](columns, table, qu)
	if err != nil {
		return empty, err
	}
	if len(results) == 0 {
		return empty, ErrNoResult
	}
	return results[0], nil
}

// namedInsert inserts arg using the :name placeholders of query and returns the new id.
func namedInsert(query string, arg interface{}) (int64, error) {
	if debugQueries() {
		logger.Log.Debug("insert: ", query)
	}
	result, err := DB.NamedExec(query, arg)
	if err != nil {
		logger.Log.Error("Insert: ", query, " error: ", err)
		return 0, err
	}
	return result.LastInsertId()
}

func DeleteRow(table string, qu Query) (sql.Result, error) {
	query := "DELETE FROM " + table
	if qu.Where != "" {
		query += " where " + qu.Where
	}
	if debugQueries() {
		logger.Log.Debug("delete: ", query, " -args: ", qu.WhereArgs)
	}
	result, err := DB.Exec(query, qu.WhereArgs...)
	if err != nil {
		logger.Log.Error("Delete: ", table, " where: ", qu.Where, " whereargs: ", qu.WhereArgs, " error: ", err)
	}
	return result, err
}
