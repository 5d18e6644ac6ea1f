package profile

import "context"

// Repository describes profile persistence needs from use cases.
type Repository interface {
	// Upsert inserts or replaces the profile keyed by NameKey and returns the
	// stored row. The public id, creation time and an existing scouting report
	// survive a replace.
	Upsert(ctx context.Context, item Profile) (Profile, error)
	GetByNameKey(ctx context.Context, nameKey string) (Profile, bool, error)
	GetByID(ctx context.Context, id string) (Profile, bool, error)
	List(ctx context.Context, filter Filter) ([]Profile, error)
	CountByNationality(ctx context.Context) ([]NationalityCount, error)
	SaveScoutingReport(ctx context.Context, id, report string) error
	Ping(ctx context.Context) error
}
