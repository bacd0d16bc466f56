package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/sakif/ysws-hunt/internal/apperror"
	"github.com/sakif/ysws-hunt/internal/model"
	"github.com/sakif/ysws-hunt/internal/repository"
)

// fakeStore is an in-memory repository.ProjectStore and AccountStore.
// Set the *Err fields to simulate store failures.
type fakeStore struct {
	mu sync.Mutex

	nextID      int
	users       map[string]*model.User
	credentials map[string]*model.Credential
	projects    map[string]*model.Project
	categories  map[string]model.Category
	votes       map[[2]string]bool // {userID, projectID}
	features    map[string]string  // date -> projectID

	listErr   error
	createErr error
	toggleErr error
}

var (
	_ repository.ProjectStore = (*fakeStore)(nil)
	_ AccountStore            = (*fakeStore)(nil)
)

func newFakeStore() *fakeStore {
	f := &fakeStore{
		users:       map[string]*model.User{},
		credentials: map[string]*model.Credential{},
		projects:    map[string]*model.Project{},
		categories:  map[string]model.Category{},
		votes:       map[[2]string]bool{},
		features:    map[string]string{},
	}
	for _, c := range repository.DefaultCategories {
		f.categories[c.ID] = c
	}
	return f
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeStore) Upsert(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Provider == user.Provider && u.ProviderID == user.ProviderID {
			u.Email, u.DisplayName, u.AvatarURL = user.Email, user.DisplayName, user.AvatarURL
			u.UpdatedAt = time.Now()
			*user = *u
			return nil
		}
	}
	user.ID = f.id("user")
	user.CreatedAt, user.UpdatedAt = time.Now(), time.Now()
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeStore) CreateCredential(_ context.Context, cred *model.Credential) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.credentials[cred.Email]; ok {
		return apperror.Conflict("credential", cred.Email)
	}
	stored := *cred
	f.credentials[cred.Email] = &stored
	return nil
}

func (f *fakeStore) GetCredential(_ context.Context, email string) (*model.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.credentials[email]
	if !ok {
		return nil, apperror.NotFound("credential", email)
	}
	return c, nil
}

func (f *fakeStore) CreateProject(_ context.Context, p *model.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	p.ID = f.id("project")
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	if p.Status == "" {
		p.Status = model.StatusPending
	}
	p.VotesCount = 0
	stored := *p
	f.projects[p.ID] = &stored
	return nil
}

// addProject stores p as-is, for tests that need approved projects.
func (f *fakeStore) addProject(p model.Project) *model.Project {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == "" {
		p.ID = f.id("project")
	}
	f.projects[p.ID] = &p
	return &p
}

func (f *fakeStore) GetProject(_ context.Context, id string) (*model.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok {
		return nil, apperror.NotFound("project", id)
	}
	copied := *p
	return &copied, nil
}

func (f *fakeStore) ListApproved(context.Context) ([]model.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []model.Project
	for _, p := range f.projects {
		if p.Status == model.StatusApproved {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) ListCategories(context.Context) ([]model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Category, 0, len(f.categories))
	for _, c := range f.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) GetCategory(_ context.Context, id string) (*model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.categories[id]
	if !ok {
		return nil, apperror.NotFound("category", id)
	}
	return &c, nil
}

func (f *fakeStore) ToggleVote(_ context.Context, projectID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.toggleErr != nil {
		return false, f.toggleErr
	}
	p, ok := f.projects[projectID]
	if !ok {
		return false, apperror.NotFound("project", projectID)
	}
	key := [2]string{userID, projectID}
	if f.votes[key] {
		delete(f.votes, key)
		p.VotesCount--
		return false, nil
	}
	f.votes[key] = true
	p.VotesCount++
	return true, nil
}

func (f *fakeStore) ListVotedProjectIDs(_ context.Context, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for key := range f.votes {
		if key[0] == userID {
			ids = append(ids, key[1])
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (f *fakeStore) GetFeatured(_ context.Context, date string) (*model.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.features[date]
	if !ok {
		return nil, apperror.NotFound("daily feature", date)
	}
	copied := *f.projects[id]
	return &copied, nil
}

func (f *fakeStore) CreateFeature(_ context.Context, feature *model.DailyFeature) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.features[feature.Date]; ok {
		return apperror.Conflict("daily feature", feature.Date)
	}
	f.features[feature.Date] = feature.ProjectID
	return nil
}

func (f *fakeStore) NextFeatureCandidate(context.Context) (*model.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	featured := map[string]bool{}
	for _, id := range f.features {
		featured[id] = true
	}
	var best *model.Project
	for _, p := range f.projects {
		if p.Status != model.StatusApproved || featured[p.ID] {
			continue
		}
		if best == nil || p.VotesCount > best.VotesCount ||
			(p.VotesCount == best.VotesCount && p.CreatedAt.Before(best.CreatedAt)) {
			best = p
		}
	}
	if best == nil {
		return nil, apperror.NotFound("feature candidate", "any")
	}
	copied := *best
	return &copied, nil
}

func (f *fakeStore) projectCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.projects)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
