package billing

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

const billCols = `id, bill_number, patient_id, policy_id, inpatient, emergency, resident,
	status, payment_method, settled_amount, created_at, updated_at`

const itemCols = `id, bill_id, description, category, quantity, unit_price, total_price,
	claimable, diagnosis_code, procedure_code, accident_type, created_at`

func scanBill(row pgx.Row) (*Bill, error) {
	var b Bill
	err := row.Scan(&b.ID, &b.BillNumber, &b.PatientID, &b.PolicyID, &b.Inpatient, &b.Emergency, &b.Resident,
		&b.Status, &b.PaymentMethod, &b.SettledAmount, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func scanItem(row pgx.Row) (*LineItem, error) {
	var li LineItem
	err := row.Scan(&li.ID, &li.BillID, &li.Description, &li.Category, &li.Quantity, &li.UnitPrice, &li.TotalPrice,
		&li.Claimable, &li.Diagnosis, &li.Procedure, &li.Accident, &li.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &li, nil
}

func (r *repoPG) Create(ctx context.Context, b *Bill) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO bill (id, bill_number, patient_id, policy_id, inpatient, emergency, resident,
			status, payment_method, settled_amount)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		b.ID, b.BillNumber, b.PatientID, b.PolicyID, b.Inpatient, b.Emergency, b.Resident,
		b.Status, b.PaymentMethod, b.SettledAmount)
	if err != nil {
		return err
	}
	for _, li := range b.Items {
		if err := r.AddItem(ctx, li); err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) AddItem(ctx context.Context, li *LineItem) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO bill_line_item (id, bill_id, description, category, quantity, unit_price,
			total_price, claimable, diagnosis_code, procedure_code, accident_type)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		li.ID, li.BillID, li.Description, li.Category, li.Quantity, li.UnitPrice,
		li.TotalPrice, li.Claimable, li.Diagnosis, li.Procedure, li.Accident)
	return err
}

func (r *repoPG) loadItems(ctx context.Context, b *Bill) error {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+itemCols+` FROM bill_line_item WHERE bill_id = $1 ORDER BY created_at`, b.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		li, err := scanItem(rows)
		if err != nil {
			return err
		}
		b.Items = append(b.Items, li)
	}
	b.RecalculateCharges()
	return rows.Err()
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Bill, error) {
	b, err := scanBill(r.conn(ctx).QueryRow(ctx, `SELECT `+billCols+` FROM bill WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *repoPG) GetByBillNumber(ctx context.Context, billNumber string) (*Bill, error) {
	b, err := scanBill(r.conn(ctx).QueryRow(ctx, `SELECT `+billCols+` FROM bill WHERE bill_number = $1`, billNumber))
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *repoPG) Update(ctx context.Context, b *Bill) error {
	now := time.Now()
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE bill SET policy_id=$2, status=$3, payment_method=$4, settled_amount=$5, updated_at=$6
		WHERE id = $1`,
		b.ID, b.PolicyID, b.Status, b.PaymentMethod, b.SettledAmount, now)
	if err == nil {
		b.UpdatedAt = now
	}
	return err
}

func (r *repoPG) list(ctx context.Context, where string, arg interface{}, limit, offset int) ([]*Bill, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM bill WHERE `+where, arg).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+billCols+` FROM bill WHERE `+where+` ORDER BY created_at DESC LIMIT $2 OFFSET $3`, arg, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var bills []*Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, 0, err
		}
		bills = append(bills, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for _, b := range bills {
		if err := r.loadItems(ctx, b); err != nil {
			return nil, 0, err
		}
	}
	return bills, total, nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Bill, int, error) {
	return r.list(ctx, `patient_id = $1`, patientID, limit, offset)
}

func (r *repoPG) ListByStatus(ctx context.Context, status BillingStatus, limit, offset int) ([]*Bill, int, error) {
	return r.list(ctx, `status = $1`, status, limit, offset)
}
