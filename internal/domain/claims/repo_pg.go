package claims

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const claimCols = `id, claim_number, bill_id, policy_id, patient_id,
	claim_amount, approved_amount, status, denial_reason,
	submitted_at, resolved_at, created_at, updated_at`

func (r *repoPG) scanClaim(row pgx.Row) (*Claim, error) {
	var c Claim
	err := row.Scan(&c.ID, &c.ClaimNumber, &c.BillID, &c.PolicyID, &c.PatientID,
		&c.ClaimAmount, &c.ApprovedAmount, &c.Status, &c.DenialReason,
		&c.SubmittedAt, &c.ResolvedAt, &c.CreatedAt, &c.UpdatedAt)
	return &c, err
}

func (r *repoPG) Create(ctx context.Context, c *Claim) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO insurance_claim (id, claim_number, bill_id, policy_id, patient_id,
			claim_amount, approved_amount, status, denial_reason, submitted_at, resolved_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		c.ID, c.ClaimNumber, c.BillID, c.PolicyID, c.PatientID,
		c.ClaimAmount, c.ApprovedAmount, c.Status, c.DenialReason, c.SubmittedAt, c.ResolvedAt)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Claim, error) {
	return r.scanClaim(r.conn(ctx).QueryRow(ctx, `SELECT `+claimCols+` FROM insurance_claim WHERE id = $1`, id))
}

func (r *repoPG) GetByClaimNumber(ctx context.Context, claimNumber string) (*Claim, error) {
	return r.scanClaim(r.conn(ctx).QueryRow(ctx, `SELECT `+claimCols+` FROM insurance_claim WHERE claim_number = $1`, claimNumber))
}

func (r *repoPG) Update(ctx context.Context, c *Claim) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE insurance_claim SET claim_amount=$2, approved_amount=$3, status=$4,
			denial_reason=$5, submitted_at=$6, resolved_at=$7, updated_at=NOW()
		WHERE id = $1`,
		c.ID, c.ClaimAmount, c.ApprovedAmount, c.Status,
		c.DenialReason, c.SubmittedAt, c.ResolvedAt)
	return err
}

func (r *repoPG) ListByBill(ctx context.Context, billID uuid.UUID, limit, offset int) ([]*Claim, int, error) {
	return r.list(ctx, `bill_id`, billID, limit, offset)
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Claim, int, error) {
	return r.list(ctx, `patient_id`, patientID, limit, offset)
}

func (r *repoPG) list(ctx context.Context, column string, id uuid.UUID, limit, offset int) ([]*Claim, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM insurance_claim WHERE `+column+` = $1`, id).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+claimCols+` FROM insurance_claim WHERE `+column+` = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, id, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Claim
	for rows.Next() {
		c, err := r.scanClaim(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, nil
}

func (r *repoPG) AddDocument(ctx context.Context, doc *SupportingDocument) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO claim_document (id, claim_id, document, added_at)
		VALUES ($1,$2,$3,$4)`,
		doc.ID, doc.ClaimID, doc.Document, doc.AddedAt)
	return err
}

func (r *repoPG) GetDocuments(ctx context.Context, claimID uuid.UUID) ([]SupportingDocument, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, claim_id, document, added_at
		FROM claim_document WHERE claim_id = $1 ORDER BY added_at`, claimID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []SupportingDocument
	for rows.Next() {
		var d SupportingDocument
		if err := rows.Scan(&d.ID, &d.ClaimID, &d.Document, &d.AddedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, nil
}
