package main

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
)

// printRows renders rows as a simple pipe-delimited table to stdout. The
// driver does not surface column names on the wire (spec.md §6 carries no
// header line), so columns print as positional indices.
func printRows(rows *sql.Rows) {
	columns, err := rows.Columns()
	if err != nil {
		log.Fatal(err)
	}

	header := make([]string, len(columns))
	for i := range columns {
		header[i] = fmt.Sprintf("col%d", i)
	}
	fmt.Println(strings.Join(header, " | "))

	dest := make([]interface{}, len(columns))
	ptrs := make([]interface{}, len(columns))
	for i := range dest {
		ptrs[i] = &dest[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			log.Fatal(err)
		}
		cells := make([]string, len(dest))
		for i, v := range dest {
			if v == nil {
				cells[i] = "NULL"
			} else {
				cells[i] = fmt.Sprintf("%v", v)
			}
		}
		fmt.Println(strings.Join(cells, " | "))
	}
	if err := rows.Err(); err != nil {
		log.Fatal(err)
	}
}
