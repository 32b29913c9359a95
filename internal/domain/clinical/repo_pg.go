package clinical

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/hms/hms/internal/domain/insurance"
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

const (
	kindVisit        = "VISIT"
	kindConsultation = "CONSULTATION"
)

func (r *repoPG) CreateVisit(ctx context.Context, v *Visit) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO encounter (id, patient_id, kind, ward, emergency, admitted_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		v.id, v.patientID, kindVisit, v.ward, v.emergency, v.admittedAt)
	if err != nil {
		return err
	}
	return r.saveCharges(ctx, v.id, v.charges)
}

func (r *repoPG) GetVisit(ctx context.Context, id uuid.UUID) (*Visit, error) {
	var v Visit
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, patient_id, ward, emergency, admitted_at, discharged_at
		FROM encounter WHERE id = $1 AND kind = $2`, id, kindVisit).
		Scan(&v.id, &v.patientID, &v.ward, &v.emergency, &v.admittedAt, &v.dischargedAt)
	if err != nil {
		return nil, err
	}
	v.charges, err = r.loadCharges(ctx, id)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *repoPG) UpdateVisit(ctx context.Context, v *Visit) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE encounter SET discharged_at=$2, updated_at=$3 WHERE id = $1`,
		v.id, v.dischargedAt, time.Now())
	if err != nil {
		return err
	}
	return r.saveCharges(ctx, v.id, v.charges)
}

func (r *repoPG) CreateConsultation(ctx context.Context, c *Consultation) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO encounter (id, patient_id, kind, seen_at)
		VALUES ($1,$2,$3,$4)`,
		c.id, c.patientID, kindConsultation, c.seenAt)
	if err != nil {
		return err
	}
	return r.saveCharges(ctx, c.id, c.charges)
}

func (r *repoPG) GetConsultation(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	var c Consultation
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, patient_id, seen_at
		FROM encounter WHERE id = $1 AND kind = $2`, id, kindConsultation).
		Scan(&c.id, &c.patientID, &c.seenAt)
	if err != nil {
		return nil, err
	}
	c.charges, err = r.loadCharges(ctx, id)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repoPG) UpdateConsultation(ctx context.Context, c *Consultation) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE encounter SET updated_at=$2 WHERE id = $1`, c.id, time.Now())
	if err != nil {
		return err
	}
	return r.saveCharges(ctx, c.id, c.charges)
}

// saveCharges rewrites the encounter's charge rows in aggregate order.
func (r *repoPG) saveCharges(ctx context.Context, encounterID uuid.UUID, charges []ChargeItem) error {
	if _, err := r.conn(ctx).Exec(ctx, `DELETE FROM encounter_charge WHERE encounter_id = $1`, encounterID); err != nil {
		return err
	}
	for i, ch := range charges {
		var diagnosis, procedure *string
		if code := ch.DiagnosisCode(); code != "" {
			diagnosis = &code
		}
		if code := ch.ProcedureCode(); code != "" {
			procedure = &code
		}
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO encounter_charge (id, encounter_id, position, description, category,
				amount, diagnosis_code, procedure_code, accident_type)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			uuid.New(), encounterID, i, ch.description, ch.category,
			ch.charges, diagnosis, procedure, ch.accident)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) loadCharges(ctx context.Context, encounterID uuid.UUID) ([]ChargeItem, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT description, category, amount, diagnosis_code, procedure_code, accident_type
		FROM encounter_charge WHERE encounter_id = $1 ORDER BY position`, encounterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var charges []ChargeItem
	for rows.Next() {
		var (
			item                 ChargeItem
			amount               decimal.Decimal
			diagnosis, procedure *string
			accident             *insurance.AccidentType
		)
		if err := rows.Scan(&item.description, &item.category, &amount, &diagnosis, &procedure, &accident); err != nil {
			return nil, err
		}
		item.charges = amount
		// stored codes were validated on the way in, hydrate them directly
		if diagnosis != nil {
			item.diagnosis = &DiagnosticCode{code: *diagnosis}
		}
		if procedure != nil {
			item.procedure = &ProcedureCode{code: *procedure}
		}
		item.accident = accident
		charges = append(charges, item)
	}
	return charges, rows.Err()
}
