// Package repository declares the storage contracts the service layer depends
// on. Implementations live in the sqlite and postgres subpackages and must
// translate missing rows into apperror.ErrNotFound and uniqueness violations
// into apperror.ErrConflict.
package repository

import (
	"context"

	"github.com/sakif/ysws-hunt/internal/model"
)

// UserRepository persists local accounts for authenticated identities.
type UserRepository interface {
	// Upsert inserts the user if (Provider, ProviderID) is new, otherwise
	// refreshes email, display name and avatar. ID, Username and timestamps
	// are written back into user.
	Upsert(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// CredentialRepository is the password identity provider's store.
type CredentialRepository interface {
	CreateCredential(ctx context.Context, cred *model.Credential) error
	GetCredential(ctx context.Context, email string) (*model.Credential, error)
}

type ProjectRepository interface {
	CreateProject(ctx context.Context, project *model.Project) error
	// GetProject returns the project with maker and category joined,
	// regardless of status.
	GetProject(ctx context.Context, id string) (*model.Project, error)
	// ListApproved returns approved projects, newest first.
	ListApproved(ctx context.Context) ([]model.Project, error)
}

type CategoryRepository interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	GetCategory(ctx context.Context, id string) (*model.Category, error)
}

type VoteRepository interface {
	// ToggleVote flips userID's vote on projectID in one transaction and
	// reports whether a vote exists afterwards. The counter is adjusted by
	// exactly one in the same transaction as the vote row change.
	ToggleVote(ctx context.Context, projectID, userID string) (bool, error)
	ListVotedProjectIDs(ctx context.Context, userID string) ([]string, error)
}

type FeatureRepository interface {
	// GetFeatured returns the project featured on date (YYYY-MM-DD).
	GetFeatured(ctx context.Context, date string) (*model.Project, error)
	// CreateFeature fails with apperror.ErrConflict if date already has one.
	CreateFeature(ctx context.Context, feature *model.DailyFeature) error
	// NextFeatureCandidate returns the most-voted approved project that has
	// never been featured, oldest first on ties.
	NextFeatureCandidate(ctx context.Context) (*model.Project, error)
}

// ProjectStore is everything the project service needs.
type ProjectStore interface {
	ProjectRepository
	CategoryRepository
	VoteRepository
	FeatureRepository
}

// Store is a complete backing store, owned by the server for its lifetime.
type Store interface {
	UserRepository
	CredentialRepository
	ProjectStore
	Ping(ctx context.Context) error
	Close() error
}
