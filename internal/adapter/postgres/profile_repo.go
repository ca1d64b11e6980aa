package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"wellness/internal/domain"
)

// GetProfile returns the stored profile, or nil when the user has none.
func (d *DB) GetProfile(ctx context.Context, userID int64) (*domain.UserProfile, error) {
	row := d.sql.QueryRowContext(ctx,
		`SELECT user_id, weight_kg, height_cm, age, gender, activity_level, goal,
			medical_conditions, medications, breastfeeding, cycle_phase, created_at, updated_at
		FROM user_profiles WHERE user_id=$1;`, userID)

	var (
		p                 domain.UserProfile
		weight, height    sql.NullFloat64
		age               sql.NullInt64
		gender, cycle     sql.NullString
		activity, goal    string
		conditions, drugs []string
	)
	err := row.Scan(&p.UserID, &weight, &height, &age, &gender, &activity, &goal,
		pq.Array(&conditions), pq.Array(&drugs), &p.Breastfeeding, &cycle, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if weight.Valid {
		p.WeightKG = &weight.Float64
	}
	if height.Valid {
		p.HeightCM = &height.Float64
	}
	if age.Valid {
		a := int(age.Int64)
		p.Age = &a
	}
	if gender.Valid {
		g := domain.Gender(gender.String)
		p.Gender = &g
	}
	if cycle.Valid {
		c := domain.CyclePhase(cycle.String)
		p.CyclePhase = &c
	}
	p.ActivityLevel = domain.ActivityLevel(activity)
	p.Goal = domain.Goal(goal)
	p.MedicalConditions = conditions
	p.Medications = drugs
	return &p, nil
}

// SaveProfile inserts or replaces the user's profile. Histories are not
// stored here; they come from the log and weight tables.
func (d *DB) SaveProfile(ctx context.Context, p *domain.UserProfile) error {
	var gender, cycle sql.NullString
	if p.Gender != nil {
		gender = sql.NullString{String: string(*p.Gender), Valid: true}
	}
	if p.CyclePhase != nil {
		cycle = sql.NullString{String: string(*p.CyclePhase), Valid: true}
	}
	var age sql.NullInt64
	if p.Age != nil {
		age = sql.NullInt64{Int64: int64(*p.Age), Valid: true}
	}

	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO user_profiles(user_id, weight_kg, height_cm, age, gender, activity_level, goal,
			medical_conditions, medications, breastfeeding, cycle_phase, created_at, updated_at)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (user_id) DO UPDATE SET
			weight_kg=EXCLUDED.weight_kg, height_cm=EXCLUDED.height_cm, age=EXCLUDED.age,
			gender=EXCLUDED.gender, activity_level=EXCLUDED.activity_level, goal=EXCLUDED.goal,
			medical_conditions=EXCLUDED.medical_conditions, medications=EXCLUDED.medications,
			breastfeeding=EXCLUDED.breastfeeding, cycle_phase=EXCLUDED.cycle_phase,
			updated_at=EXCLUDED.updated_at;`,
		p.UserID, nullFloat(p.WeightKG), nullFloat(p.HeightCM), age, gender,
		string(p.ActivityLevel), string(p.Goal),
		pq.Array(nonNil(p.MedicalConditions)), pq.Array(nonNil(p.Medications)),
		p.Breastfeeding, cycle, p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	)
	return err
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

// nonNil keeps NOT NULL array columns from receiving SQL NULL.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
