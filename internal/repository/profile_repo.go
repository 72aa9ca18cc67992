package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ember-dating/engine/internal/db"
	"github.com/ember-dating/engine/internal/scoring"
)

// ProfileRepository reads profile records and produces scoring snapshots.
// The engine never mutates scoring inputs; the only writes here are the
// liveness gate and the account status, each owned by its dedicated flow.
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new repository bound to the given DB connection.
func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

// GetByID returns the profile, or gorm.ErrRecordNotFound. Not-found is
// distinct from a profile with all-null optional fields: the hard filters
// stay permissive on missing data but a missing profile is an error.
func (r *ProfileRepository) GetByID(ctx context.Context, id uint64) (*db.Profile, error) {
	var p db.Profile
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// Snapshot returns the read-only scoring projection for the user.
func (r *ProfileRepository) Snapshot(ctx context.Context, id uint64) (scoring.Snapshot, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return scoring.Snapshot{}, err
	}
	return SnapshotOf(p), nil
}

// SnapshotOf converts a profile row into its scoring projection.
func SnapshotOf(p *db.Profile) scoring.Snapshot {
	s := scoring.Snapshot{
		ID:                  p.ID,
		MatchRadiusKm:       p.MatchRadiusKm,
		Intent:              p.Intent,
		InterestedInGenders: p.InterestedIn,
		Gender:              p.Gender,
		Interests:           p.Interests,
		LastActiveAt:        p.LastActiveAt,
	}
	if p.Lat != nil && p.Lon != nil {
		s.Location = &scoring.LatLon{Lat: *p.Lat, Lon: *p.Lon}
	}
	return s
}

// SetLivenessPassed records the face-liveness gate outcome.
func (r *ProfileRepository) SetLivenessPassed(ctx context.Context, id uint64, passed bool) error {
	return r.db.WithContext(ctx).
		Model(&db.Profile{}).
		Where("id = ?", id).
		Update("liveness_passed", passed).Error
}

// SetAccountStatus moves the account between active and suspended.
func (r *ProfileRepository) SetAccountStatus(ctx context.Context, id uint64, status string) error {
	return r.db.WithContext(ctx).
		Model(&db.Profile{}).
		Where("id = ?", id).
		Update("account_status", status).Error
}
