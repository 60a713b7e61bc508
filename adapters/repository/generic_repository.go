package repository

import (
	"github.com/cloudcopper/mesher/ports"
)

// iterateAll scans every row of query as T,
// until callback returns false or error
func iterateAll[T any](query ports.DB, callback func(model *T) (bool, error)) error {
	rows, err := query.Model(new(T)).Rows()
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var model T
		if err := query.ScanRows(rows, &model); err != nil {
			return err
		}

		ok, err := callback(&model)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
	}

	return rows.Err()
}
