// Package repository adapts the reference store to the matching engine.
package repository

import (
	"context"
	"time"

	"automated-identity-matching/internal/models"
	"automated-identity-matching/pkg/database"
	errs "automated-identity-matching/pkg/errors"
	"automated-identity-matching/pkg/logging"
)

// referenceQuery materializes the flat reference extract. Every row is
// one identity assessment with its multivalued history columns. The
// table name is misspelled in the production schema; keep it verbatim.
const referenceQuery = `
SELECT cia.user_id,
       cia.data_birth_year, cia.data_birth_month, cia.data_birth_day,
       cia.data_name_first, cia.data_name_last, cia.data_phone_num,
       cia.data_address_street, cia.data_address_city,
       cia.data_address_postal, cia.data_address_subdivision,
       cia.addresses_list, cia.dob_list, cia.name_list, cia.phone_list
FROM cognito_identity_assesment_flat cia`

// SQLRepository reads reference rows from the relational store. It is
// the engine's ReferenceSource.
type SQLRepository struct {
	db  *database.DB
	log *logging.ComponentLogger
}

func NewSQLRepository(db *database.DB, log *logging.Logger) *SQLRepository {
	r := &SQLRepository{db: db}
	if log != nil {
		r.log = log.WithComponent("repository")
	}
	return r
}

// FetchReferenceRows runs the batch extraction query. The whole result
// set is materialized; the engine derives a fresh normalized snapshot
// from it on every invocation.
func (r *SQLRepository) FetchReferenceRows(ctx context.Context) ([]models.ReferenceRow, error) {
	qctx, cancel := r.db.ReadContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := r.db.Conn().QueryContext(qctx, referenceQuery)
	if err != nil {
		return nil, errs.NewDB("repository.FetchReferenceRows", "query reference extract", err)
	}
	defer rows.Close()

	var out []models.ReferenceRow
	for rows.Next() {
		var row models.ReferenceRow
		if err := rows.Scan(
			&row.UserID,
			&row.BirthYear, &row.BirthMonth, &row.BirthDay,
			&row.FirstName, &row.LastName, &row.PhoneNum,
			&row.AddressStreet, &row.AddressCity,
			&row.AddressPostal, &row.AddressSubdiv,
			&row.AddressesList, &row.DOBList, &row.NameList, &row.PhoneList,
		); err != nil {
			return nil, errs.NewDB("repository.FetchReferenceRows", "scan reference row", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.NewDB("repository.FetchReferenceRows", "iterate reference rows", err)
	}

	if r.log != nil {
		r.log.Info("fetched reference extract",
			logging.Int("rows", len(out)),
			logging.Duration("query_duration", time.Since(start)),
		)
	}
	return out, nil
}
