package insurance

import (
	"context"
	"time"

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

type policyRepoPG struct{ pool *pgxpool.Pool }

func NewPolicyRepoPG(pool *pgxpool.Pool) PolicyRepository { return &policyRepoPG{pool: pool} }

func (r *policyRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const policyCols = `id, policy_number, patient_id, provider_name, name,
	coverage, expiration_date, cancellation_date, status, created_at, updated_at`

func (r *policyRepoPG) scanPolicy(row pgx.Row) (*HeldInsurancePolicy, error) {
	var (
		p           HeldInsurancePolicy
		coverageDoc []byte
		status      string
	)
	err := row.Scan(&p.id, &p.policyNumber, &p.patientID, &p.providerName, &p.name,
		&coverageDoc, &p.expirationDate, &p.cancellationDate, &status, &p.createdAt, &p.updatedAt)
	if err != nil {
		return nil, err
	}
	p.status = PolicyStatus(status)
	if p.coverage, err = UnmarshalCoverage(coverageDoc); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *policyRepoPG) Create(ctx context.Context, p *HeldInsurancePolicy) error {
	coverageDoc, err := MarshalCoverage(p.coverage)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO insurance_policy (id, policy_number, patient_id, provider_name, name,
			coverage, expiration_date, cancellation_date, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		p.id, p.policyNumber, p.patientID, p.providerName, p.name,
		coverageDoc, p.expirationDate, p.cancellationDate, p.status)
	return err
}

func (r *policyRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*HeldInsurancePolicy, error) {
	return r.scanPolicy(r.conn(ctx).QueryRow(ctx, `SELECT `+policyCols+` FROM insurance_policy WHERE id = $1`, id))
}

func (r *policyRepoPG) GetByPolicyNumber(ctx context.Context, policyNumber string) (*HeldInsurancePolicy, error) {
	return r.scanPolicy(r.conn(ctx).QueryRow(ctx, `SELECT `+policyCols+` FROM insurance_policy WHERE policy_number = $1`, policyNumber))
}

func (r *policyRepoPG) Update(ctx context.Context, p *HeldInsurancePolicy) error {
	coverageDoc, err := MarshalCoverage(p.coverage)
	if err != nil {
		return err
	}
	now := time.Now()
	_, err = r.conn(ctx).Exec(ctx, `
		UPDATE insurance_policy SET name=$2, coverage=$3,
			expiration_date=$4, cancellation_date=$5, status=$6, updated_at=$7
		WHERE id = $1`,
		p.id, p.name, coverageDoc,
		p.expirationDate, p.cancellationDate, p.status, now)
	if err == nil {
		p.updatedAt = now
	}
	return err
}

func (r *policyRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*HeldInsurancePolicy, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM insurance_policy WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+policyCols+` FROM insurance_policy WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*HeldInsurancePolicy
	for rows.Next() {
		p, err := r.scanPolicy(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}
