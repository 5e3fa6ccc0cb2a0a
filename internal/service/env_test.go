package service

import (
	"time"

	"app/internal/model"
	"app/internal/plan"
	"app/internal/storage"

	"github.com/rs/zerolog"
)

// testEnv wires the services against the in-memory fakes with a controllable
// clock.
type testEnv struct {
	store       *fakeStore
	companyRepo *fakeCompanyRepo
	userRepo    *fakeUserRepo
	fileRepo    *fakeFileRepo
	usageRepo   *fakeUsageRepo
	objects     *fakeObjectStore
	notifier    *fakeNotifier

	subscriptions SubscriptionService
	users         UserService
	files         FileService
	auth          AuthService
}

func newTestEnv() *testEnv {
	store := newFakeStore()
	env := &testEnv{
		store:       store,
		companyRepo: &fakeCompanyRepo{s: store},
		userRepo:    &fakeUserRepo{s: store},
		fileRepo:    &fakeFileRepo{s: store},
		usageRepo:   &fakeUsageRepo{s: store},
		objects:     &fakeObjectStore{s: store},
		notifier:    &fakeNotifier{},
	}
	logger := zerolog.Nop()
	// Every observation moves the clock forward a second, so rows stamped
	// before a lookup land strictly inside a window ending at that lookup,
	// the way database insertion timestamps trail a later now().
	clock := func() time.Time {
		env.store.clock = env.store.clock.Add(time.Second)
		return env.store.clock
	}

	subs := NewSubscriptionService(env.companyRepo, env.usageRepo, logger).(*subscriptionService)
	subs.now = clock
	env.subscriptions = subs

	users := NewUserService(env.userRepo, env.companyRepo, env.fileRepo, env.subscriptions, env.objects, env.notifier,
		3*time.Minute, "http://localhost:3000", logger).(*userService)
	users.now = clock
	env.users = users

	files := NewFileService(env.fileRepo, env.companyRepo, env.userRepo, env.subscriptions, env.objects, logger).(*fileService)
	files.now = clock
	env.files = files

	auth := NewAuthService(env.companyRepo, env.userRepo, env.subscriptions, env.notifier, AuthConfig{
		JWTSecret:       "test-secret",
		JWTTTL:          time.Hour,
		VerificationTTL: 3 * time.Minute,
		ResendLimit:     3,
		ResendWindow:    24 * time.Hour,
		FrontendURL:     "http://localhost:3000",
	}, logger).(*authService)
	auth.now = clock
	env.auth = auth

	return env
}

// advance moves the fake clock forward.
func (e *testEnv) advance(d time.Duration) {
	e.store.clock = e.store.clock.Add(d)
}

// seedCompany inserts a verified company on the given plan with the billing
// window anchored at the current fake time.
func (e *testEnv) seedCompany(id string, tier plan.Plan) *model.Company {
	c := &model.Company{
		ID:                     id,
		Name:                   "Acme " + id,
		Email:                  id + "@example.com",
		PasswordHash:           "unused",
		IsVerified:             true,
		SubscriptionPlan:       tier,
		SubscriptionUpdateDate: e.store.clock,
	}
	e.store.companies[id] = c
	return c
}

// seedUser inserts a verified member of the company at the current fake time.
func (e *testEnv) seedUser(id, companyID string) *model.User {
	hash := "hashed"
	u := &model.User{
		ID:           id,
		Email:        id + "@example.com",
		PasswordHash: &hash,
		CompanyID:    companyID,
		IsVerified:   true,
		CreatedAt:    e.store.clock,
	}
	e.store.users[id] = u
	if c, ok := e.store.companies[companyID]; ok {
		c.UserIDs = append(c.UserIDs, id)
	}
	return u
}

// seedFile inserts a file row plus its blob at the current fake time.
func (e *testEnv) seedFile(id, companyID, ownerID string, grants []model.Grant) *model.File {
	if grants == nil {
		grants = []model.Grant{}
	}
	f := &model.File{
		ID:             id,
		StorageKey:     "files/" + companyID + "/" + id,
		FileName:       id + ".txt",
		Extension:      "txt",
		ContentType:    "text/plain",
		OwnerUserID:    ownerID,
		OwnerCompanyID: companyID,
		Permissions:    grants,
		CreatedAt:      e.store.clock,
	}
	e.store.files[id] = f
	e.store.objects[f.StorageKey] = &storage.Object{Data: []byte("content"), ContentType: "text/plain"}
	if c, ok := e.store.companies[companyID]; ok {
		c.FileIDs = append(c.FileIDs, id)
	}
	return f
}

func companyPrincipal(c *model.Company) model.Principal {
	return model.Principal{Kind: model.PrincipalCompany, ID: c.ID, CompanyID: c.ID, Plan: c.SubscriptionPlan}
}

func memberPrincipal(u *model.User) model.Principal {
	return model.Principal{Kind: model.PrincipalMember, ID: u.ID, CompanyID: u.CompanyID}
}
