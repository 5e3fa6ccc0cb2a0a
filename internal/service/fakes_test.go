package service

import (
	"context"
	"sort"
	"time"

	"app/internal/model"
	"app/internal/plan"
	"app/internal/repository"
	"app/internal/storage"
)

// fakeStore is the shared in-memory backing for the repository fakes. The
// clock field stands in for the database's insertion timestamps so billing
// window tests can move time around.
type fakeStore struct {
	companies map[string]*model.Company
	users     map[string]*model.User
	files     map[string]*model.File
	objects   map[string]*storage.Object
	clock     time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		companies: make(map[string]*model.Company),
		users:     make(map[string]*model.User),
		files:     make(map[string]*model.File),
		objects:   make(map[string]*storage.Object),
		clock:     time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

type fakeCompanyRepo struct{ s *fakeStore }

func (r *fakeCompanyRepo) Create(ctx context.Context, c *model.Company) error {
	cp := *c
	cp.CreatedAt = r.s.clock
	cp.UpdatedAt = r.s.clock
	r.s.companies[c.ID] = &cp
	return nil
}

func (r *fakeCompanyRepo) GetByID(ctx context.Context, id string) (*model.Company, error) {
	c, ok := r.s.companies[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCompanyRepo) GetByEmail(ctx context.Context, email string) (*model.Company, error) {
	for _, c := range r.s.companies {
		if c.Email == email {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeCompanyRepo) GetByVerificationToken(ctx context.Context, token string) (*model.Company, error) {
	for _, c := range r.s.companies {
		if c.VerificationToken != nil && *c.VerificationToken == token {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeCompanyRepo) UpdateProfile(ctx context.Context, id, name, country, industry string) error {
	c := r.s.companies[id]
	c.Name, c.Country, c.Industry = name, country, industry
	return nil
}

func (r *fakeCompanyRepo) MarkVerified(ctx context.Context, id string) error {
	c := r.s.companies[id]
	c.IsVerified = true
	c.VerificationToken = nil
	c.VerificationExpiresAt = nil
	return nil
}

func (r *fakeCompanyRepo) SetVerification(ctx context.Context, id, token string, expiresAt time.Time, resendCount int, firstResendAt time.Time) error {
	c := r.s.companies[id]
	c.VerificationToken = &token
	c.VerificationExpiresAt = &expiresAt
	c.LinkResendCount = resendCount
	c.FirstResendAt = &firstResendAt
	return nil
}

func (r *fakeCompanyRepo) SetPasswordHash(ctx context.Context, id, hash string) error {
	r.s.companies[id].PasswordHash = hash
	return nil
}

func (r *fakeCompanyRepo) SetBilling(ctx context.Context, id string, p plan.Plan, windowStart time.Time, charges plan.Charges) error {
	c := r.s.companies[id]
	c.SubscriptionPlan = p
	c.SubscriptionUpdateDate = windowStart
	c.PremiumCharge = charges.Premium
	c.ExtraUserCharge = charges.ExtraUser
	c.ExtraFileCharge = charges.ExtraFile
	return nil
}

func (r *fakeCompanyRepo) SetCharges(ctx context.Context, id string, charges plan.Charges) error {
	c := r.s.companies[id]
	c.PremiumCharge = charges.Premium
	c.ExtraUserCharge = charges.ExtraUser
	c.ExtraFileCharge = charges.ExtraFile
	return nil
}

func (r *fakeCompanyRepo) AddUserID(ctx context.Context, companyID, userID string) error {
	c := r.s.companies[companyID]
	for _, id := range c.UserIDs {
		if id == userID {
			return nil
		}
	}
	c.UserIDs = append(c.UserIDs, userID)
	return nil
}

func (r *fakeCompanyRepo) RemoveUserID(ctx context.Context, companyID, userID string) (bool, error) {
	c := r.s.companies[companyID]
	for i, id := range c.UserIDs {
		if id == userID {
			c.UserIDs = append(c.UserIDs[:i], c.UserIDs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeCompanyRepo) AddFileID(ctx context.Context, companyID, fileID string) error {
	c := r.s.companies[companyID]
	for _, id := range c.FileIDs {
		if id == fileID {
			return nil
		}
	}
	c.FileIDs = append(c.FileIDs, fileID)
	return nil
}

func (r *fakeCompanyRepo) RemoveFileID(ctx context.Context, companyID, fileID string) (bool, error) {
	c := r.s.companies[companyID]
	for i, id := range c.FileIDs {
		if id == fileID {
			c.FileIDs = append(c.FileIDs[:i], c.FileIDs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type fakeUserRepo struct{ s *fakeStore }

func (r *fakeUserRepo) CreateWithinWindowLimit(ctx context.Context, u *model.User, windowStart, windowEnd time.Time, maxUsers int) error {
	if maxUsers > 0 {
		count := 0
		for _, existing := range r.s.users {
			if existing.CompanyID == u.CompanyID &&
				!existing.CreatedAt.Before(windowStart) && existing.CreatedAt.Before(windowEnd) {
				count++
			}
		}
		if count >= maxUsers {
			return repository.ErrUserLimitExceeded
		}
	}
	cp := *u
	cp.CreatedAt = r.s.clock
	cp.UpdatedAt = r.s.clock
	r.s.users[u.ID] = &cp
	u.CreatedAt = cp.CreatedAt
	u.UpdatedAt = cp.UpdatedAt
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByVerificationToken(ctx context.Context, token string) (*model.User, error) {
	for _, u := range r.s.users {
		if u.VerificationToken != nil && *u.VerificationToken == token {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) ListByCompany(ctx context.Context, companyID string) ([]model.User, error) {
	var out []model.User
	for _, u := range r.s.users {
		if u.CompanyID == companyID {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeUserRepo) MarkVerified(ctx context.Context, id string) error {
	u := r.s.users[id]
	u.IsVerified = true
	return nil
}

func (r *fakeUserRepo) CompleteSignIn(ctx context.Context, id, firstName, lastName, passwordHash string) error {
	u := r.s.users[id]
	u.FirstName = firstName
	u.LastName = lastName
	u.PasswordHash = &passwordHash
	return nil
}

func (r *fakeUserRepo) AddFileID(ctx context.Context, userID, fileID string) error {
	u, ok := r.s.users[userID]
	if !ok {
		return nil
	}
	for _, id := range u.FileIDs {
		if id == fileID {
			return nil
		}
	}
	u.FileIDs = append(u.FileIDs, fileID)
	return nil
}

func (r *fakeUserRepo) RemoveFileID(ctx context.Context, userID, fileID string) (bool, error) {
	u, ok := r.s.users[userID]
	if !ok {
		return false, nil
	}
	for i, id := range u.FileIDs {
		if id == fileID {
			u.FileIDs = append(u.FileIDs[:i], u.FileIDs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id string) error {
	delete(r.s.users, id)
	return nil
}

type fakeFileRepo struct{ s *fakeStore }

func (r *fakeFileRepo) Create(ctx context.Context, f *model.File) error {
	cp := *f
	cp.CreatedAt = r.s.clock
	cp.UpdatedAt = r.s.clock
	if cp.Permissions == nil {
		cp.Permissions = []model.Grant{}
	}
	r.s.files[f.ID] = &cp
	f.CreatedAt = cp.CreatedAt
	f.UpdatedAt = cp.UpdatedAt
	return nil
}

func (r *fakeFileRepo) GetByID(ctx context.Context, id string) (*model.File, error) {
	f, ok := r.s.files[id]
	if !ok {
		return nil, nil
	}
	cp := *f
	return &cp, nil
}

func (r *fakeFileRepo) sortedByCompany(companyID string) []model.File {
	var out []model.File
	for _, f := range r.s.files {
		if f.OwnerCompanyID == companyID {
			out = append(out, *f)
		}
	}
	// Newest first, matching the repository's ORDER BY created_at DESC.
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *fakeFileRepo) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]model.File, error) {
	all := r.sortedByCompany(companyID)
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *fakeFileRepo) ListAllByCompany(ctx context.Context, companyID string) ([]model.File, error) {
	return r.sortedByCompany(companyID), nil
}

func (r *fakeFileRepo) ListByOwner(ctx context.Context, companyID, userID string) ([]model.File, error) {
	var out []model.File
	for _, f := range r.sortedByCompany(companyID) {
		if f.OwnerUserID == userID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeFileRepo) CountByCompany(ctx context.Context, companyID string) (int, error) {
	return len(r.sortedByCompany(companyID)), nil
}

func (r *fakeFileRepo) UpdatePermissions(ctx context.Context, fileID string, grants []model.Grant) error {
	f := r.s.files[fileID]
	f.Permissions = append([]model.Grant(nil), grants...)
	return nil
}

func (r *fakeFileRepo) Delete(ctx context.Context, id string) error {
	delete(r.s.files, id)
	return nil
}

func (r *fakeFileRepo) DeleteByOwner(ctx context.Context, companyID, userID string) (int64, error) {
	var n int64
	for id, f := range r.s.files {
		if f.OwnerCompanyID == companyID && f.OwnerUserID == userID {
			delete(r.s.files, id)
			n++
		}
	}
	return n, nil
}

type fakeUsageRepo struct{ s *fakeStore }

func (r *fakeUsageRepo) CountUsersInWindow(ctx context.Context, companyID string, start, end time.Time) (int, error) {
	count := 0
	for _, u := range r.s.users {
		if u.CompanyID == companyID && !u.CreatedAt.Before(start) && u.CreatedAt.Before(end) {
			count++
		}
	}
	return count, nil
}

func (r *fakeUsageRepo) CountFilesInWindow(ctx context.Context, companyID string, start, end time.Time) (int, error) {
	count := 0
	for _, f := range r.s.files {
		if f.OwnerCompanyID == companyID && !f.CreatedAt.Before(start) && f.CreatedAt.Before(end) {
			count++
		}
	}
	return count, nil
}

type fakeObjectStore struct{ s *fakeStore }

func (o *fakeObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	o.s.objects[key] = &storage.Object{Data: append([]byte(nil), data...), ContentType: contentType}
	return nil
}

func (o *fakeObjectStore) Get(ctx context.Context, key string) (*storage.Object, error) {
	obj, ok := o.s.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return obj, nil
}

func (o *fakeObjectStore) Delete(ctx context.Context, key string) error {
	delete(o.s.objects, key)
	return nil
}

type fakeNotifier struct {
	sent []string
	err  error
}

func (n *fakeNotifier) SendVerificationLink(ctx context.Context, recipient, displayName, link string) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, recipient)
	return nil
}
