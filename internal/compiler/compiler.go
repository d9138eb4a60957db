// Package compiler runs the batch compilation pipeline end to end:
// normalization, validation, aggregation, identifier stamping and XML
// assembly. Compile is pure and synchronous; with a fixed clock the same
// request produces the same bytes.
package compiler

import (
	"time"

	"github.com/tlf-hub/sdd-xml-generator/internal/aggregate"
	"github.com/tlf-hub/sdd-xml-generator/internal/identifier"
	"github.com/tlf-hub/sdd-xml-generator/internal/message"
	"github.com/tlf-hub/sdd-xml-generator/internal/models"
	"github.com/tlf-hub/sdd-xml-generator/internal/normalize"
	"github.com/tlf-hub/sdd-xml-generator/internal/profile"
	"github.com/tlf-hub/sdd-xml-generator/internal/validate"
	apperrors "github.com/tlf-hub/sdd-xml-generator/pkg/errors"
	"github.com/tlf-hub/sdd-xml-generator/pkg/logger"
)

// Options tune one compilation run
type Options struct {
	// Profile selects the message variant
	Profile profile.MessageProfile
	// CollectionDate overrides the requested collection date; when empty
	// the first row's due date is used
	CollectionDate string
	// FlowID is embedded in the message id when set
	FlowID string
	// DatePolicy controls unparseable-date handling
	DatePolicy normalize.DatePolicy
	// Now fixes the clock; the zero value means the wall clock
	Now time.Time
}

// Request is one complete compilation input
type Request struct {
	Company models.CompanyProfile
	Rows    []models.RawCollectionRow
	Options Options
}

// Result is the compiled batch and its serialized form
type Result struct {
	XML      []byte
	Filename string
	Batch    *models.CollectionBatch
}

// Compile turns raw collection rows into a serialized message. Any
// error aborts the whole batch; no partial output is produced.
func Compile(req Request) (*Result, error) {
	log := logger.GetGlobalLogger().WithComponent("compiler")

	now := req.Options.Now
	if now.IsZero() {
		now = time.Now()
	}

	if err := req.Company.Validate(); err != nil {
		return nil, err
	}
	if len(req.Rows) == 0 {
		return nil, apperrors.IngestionError(apperrors.CodeEmptyInput, "collection rows", nil)
	}

	normRows, err := normalizeRows(req.Rows, req.Options.DatePolicy, now)
	if err != nil {
		return nil, err
	}
	if err := validate.Rows(normRows, req.Options.Profile.RequiredRowFields); err != nil {
		return nil, err
	}

	collectionDate, err := resolveCollectionDate(req.Options, normRows, now)
	if err != nil {
		return nil, err
	}

	txs := aggregate.ByDebtor(normRows)

	gen := identifier.NewGenerator(now, req.Options.FlowID)
	gen.Stamp(txs, req.Company.MandatePrefix)

	batch := &models.CollectionBatch{
		Company:        req.Company,
		MessageID:      gen.MessageID(),
		PaymentInfoID:  gen.PaymentInfoID(),
		CreationTime:   now,
		CollectionDate: collectionDate,
		SequenceType:   batchSequenceType(txs),
		Transactions:   txs,
	}

	xmlBytes, err := message.Assemble(batch, req.Options.Profile)
	if err != nil {
		return nil, err
	}

	log.WithFields(logger.Fields{
		"message_id":   batch.MessageID,
		"transactions": batch.TransactionCount(),
		"control_sum":  batch.ControlSum().StringFixed(2),
	}).Info("Compiled collection batch")

	return &Result{
		XML:      xmlBytes,
		Filename: message.Filename(req.Options.Profile, now),
		Batch:    batch,
	}, nil
}

// normalizeRows converts every raw row, failing on the first bad value
// with its 1-based file row number.
func normalizeRows(rows []models.RawCollectionRow, policy normalize.DatePolicy, now time.Time) ([]models.NormalizedRow, error) {
	out := make([]models.NormalizedRow, 0, len(rows))
	for i := range rows {
		raw := &rows[i]

		amount, err := normalize.Amount(raw.Amount)
		if err != nil {
			return nil, rowError(err, raw.SourceRow)
		}

		dueDate, err := optionalDate(raw.DueDate, policy, now)
		if err != nil {
			return nil, rowError(err, raw.SourceRow)
		}
		signatureDate, err := optionalDate(raw.SignatureDate, policy, now)
		if err != nil {
			return nil, rowError(err, raw.SourceRow)
		}

		seqType, err := models.ParseSequenceType(raw.SequenceType)
		if err != nil {
			return nil, rowError(err, raw.SourceRow)
		}

		out = append(out, models.NormalizedRow{
			Name:          raw.DebtorName(),
			TaxCode:       raw.TaxCode,
			Address:       raw.Address,
			PostalCode:    raw.PostalCode,
			City:          raw.City,
			Province:      raw.Province,
			Country:       raw.Country,
			IBAN:          normalize.IBAN(raw.IBAN),
			BIC:           raw.BIC,
			Amount:        amount,
			Reference:     raw.Reference,
			SignatureDate: signatureDate,
			DueDate:       dueDate,
			MandateRef:    raw.MandateRef,
			SequenceType:  seqType,
			SourceRow:     raw.SourceRow,
		})
	}
	return out, nil
}

// optionalDate normalizes a date, leaving an absent value absent. An
// empty optional column is a validation concern, not a parse failure.
func optionalDate(raw string, policy normalize.DatePolicy, now time.Time) (string, error) {
	if raw == "" {
		return "", nil
	}
	return normalize.DateAt(raw, policy, now)
}

// resolveCollectionDate picks the requested collection date: the
// explicit option wins, then the first row's due date.
func resolveCollectionDate(opts Options, rows []models.NormalizedRow, now time.Time) (string, error) {
	if opts.CollectionDate != "" {
		return normalize.DateAt(opts.CollectionDate, normalize.DateReject, now)
	}
	for _, row := range rows {
		if row.DueDate != "" {
			return row.DueDate, nil
		}
	}
	return "", apperrors.ConfigurationError(apperrors.CodeMissingConfig, "collection_date", nil).
		WithSuggestion("pass --collection-date or add a due-date column to the rows")
}

// batchSequenceType is the sequence type of the whole payment block,
// taken from the first transaction that carries one.
func batchSequenceType(txs []models.DebtorTransaction) models.SequenceType {
	for _, tx := range txs {
		if tx.SequenceType.IsValid() {
			return tx.SequenceType
		}
	}
	return models.SequenceRecurring
}

func rowError(err error, row int) error {
	if genErr, ok := apperrors.AsGeneratorError(err); ok {
		return apperrors.RowError(genErr, row)
	}
	return err
}
