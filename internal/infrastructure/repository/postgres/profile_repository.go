package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/player-scout/internal/domain/profile"
	qb "github.com/riskibarqy/player-scout/internal/platform/querybuilder"
)

const profileTable = "player_profiles"

var (
	profileSelectColumns = qb.ColumnsOf(profileTableModel{})
	profileUpsertSuffix  = buildProfileUpsertSuffix()
)

type ProfileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Upsert(ctx context.Context, item profile.Profile) (profile.Profile, error) {
	query, args, err := qb.InsertModel(profileTable, newProfileInsertModel(item), profileUpsertSuffix)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("build upsert profile query: %w", err)
	}

	var row profileTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return profile.Profile{}, fmt.Errorf("upsert profile name_key=%s: %w", item.NameKey, err)
	}

	return row.toDomain(), nil
}

func (r *ProfileRepository) GetByNameKey(ctx context.Context, nameKey string) (profile.Profile, bool, error) {
	return r.getOne(ctx, qb.Eq("name_key", nameKey), "name_key")
}

func (r *ProfileRepository) GetByID(ctx context.Context, id string) (profile.Profile, bool, error) {
	return r.getOne(ctx, qb.Eq("public_id", id), "public_id")
}

func (r *ProfileRepository) getOne(ctx context.Context, cond qb.Condition, label string) (profile.Profile, bool, error) {
	query, args, err := qb.Select(profileSelectColumns...).From(profileTable).
		Where(cond).
		Limit(1).
		ToSQL()
	if err != nil {
		return profile.Profile{}, false, fmt.Errorf("build select profile by %s query: %w", label, err)
	}

	var row profileTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return profile.Profile{}, false, nil
		}
		return profile.Profile{}, false, fmt.Errorf("select profile by %s: %w", label, err)
	}

	return row.toDomain(), true, nil
}

func (r *ProfileRepository) List(ctx context.Context, filter profile.Filter) ([]profile.Profile, error) {
	query, args, err := profileListQuery(filter)
	if err != nil {
		return nil, fmt.Errorf("build list profiles query: %w", err)
	}

	var rows []profileTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	out := make([]profile.Profile, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *ProfileRepository) CountByNationality(ctx context.Context) ([]profile.NationalityCount, error) {
	query, args, err := qb.Select("COALESCE(nationality, '') AS nationality", "COUNT(*) AS players").
		From(profileTable).
		GroupBy("COALESCE(nationality, '')").
		OrderBy("players DESC", "nationality").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build count profiles by nationality query: %w", err)
	}

	var rows []nationalityCountModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("count profiles by nationality: %w", err)
	}

	out := make([]profile.NationalityCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, profile.NationalityCount{
			Nationality: row.Nationality,
			Players:     row.Players,
		})
	}
	return out, nil
}

func (r *ProfileRepository) SaveScoutingReport(ctx context.Context, id, report string) error {
	query, args, err := qb.Update(profileTable).
		Set("scouting_report", report).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("public_id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build save scouting report query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("save scouting report profile_id=%s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("read save scouting report affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("save scouting report profile_id=%s: not found", id)
	}

	return nil
}

func (r *ProfileRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

func profileListQuery(filter profile.Filter) (string, []any, error) {
	conditions := make([]qb.Condition, 0, 4)
	if key := profile.NameKey(filter.Name); key != "" {
		conditions = append(conditions, qb.ILike("name_key", key))
	}
	switch nationality := strings.TrimSpace(filter.Nationality); {
	case strings.EqualFold(nationality, profile.UnknownNationality):
		conditions = append(conditions, qb.IsNull("nationality"))
	case nationality != "":
		conditions = append(conditions, qb.Expr("LOWER(nationality) = LOWER(?)", nationality))
	}
	if position := strings.TrimSpace(filter.Position); position != "" {
		conditions = append(conditions, qb.Expr("LOWER(position) = LOWER(?)", position))
	}
	if filter.MaxAge > 0 {
		conditions = append(conditions, qb.Lte("age", filter.MaxAge))
	}

	builder := qb.Select(profileSelectColumns...).From(profileTable).
		Where(conditions...).
		OrderBy("name", "id")
	if filter.Limit > 0 {
		builder = builder.Limit(filter.Limit)
	}
	return builder.ToSQL()
}

// buildProfileUpsertSuffix replaces every resolved column on conflict. The
// public id and creation time of the first insert are kept, and a stored
// scouting report survives a refresh that carries none.
func buildProfileUpsertSuffix() string {
	keep := map[string]bool{
		"public_id":       true,
		"name_key":        true,
		"scouting_report": true,
	}

	sets := make([]string, 0, 24)
	for _, column := range qb.ColumnsOf(profileInsertModel{}) {
		if keep[column] {
			continue
		}
		sets = append(sets, column+" = EXCLUDED."+column)
	}
	sets = append(sets,
		"scouting_report = COALESCE(EXCLUDED.scouting_report, "+profileTable+".scouting_report)",
		"updated_at = NOW()",
	)

	return "ON CONFLICT (name_key) DO UPDATE SET " + strings.Join(sets, ", ") +
		" RETURNING " + strings.Join(profileSelectColumns, ", ")
}
