package auth_test

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/goliatone/go-repository-bun"
	auth "github.com/goliatone/go-session-auth"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// fakeClock is a manually advanced Clock
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// memoryUsers is a stateful in memory stand-in for the users repository
type memoryUsers struct {
	auth.Users
	mu      sync.Mutex
	byEmail map[string]*auth.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{
		byEmail: map[string]*auth.User{},
	}
}

func (s *memoryUsers) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user, ok := s.byEmail[identifier]; ok {
		return copyUser(user), nil
	}

	for _, user := range s.byEmail {
		if user.Username == identifier || user.ID.String() == identifier {
			return copyUser(user), nil
		}
	}

	return nil, repository.NewRecordNotFound().WithMetadata(map[string]any{
		"identifier": identifier,
	})
}

func (s *memoryUsers) UpsertUnverified(ctx context.Context, record *auth.User) (*auth.User, error) {
	return s.UpsertUnverifiedTx(ctx, nil, record)
}

func (s *memoryUsers) UpsertUnverifiedTx(ctx context.Context, tx bun.IDB, record *auth.User) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byEmail[record.Email]; ok && existing.IsVerified() {
		return nil, auth.ErrUserExists
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	s.byEmail[record.Email] = copyUser(record)
	return copyUser(record), nil
}

func (s *memoryUsers) GetByVerifyToken(ctx context.Context, token string) (*auth.User, error) {
	return s.GetByVerifyTokenTx(ctx, nil, token)
}

func (s *memoryUsers) GetByVerifyTokenTx(ctx context.Context, tx bun.IDB, token string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.byEmail {
		if user.VerifyToken != "" && user.VerifyToken == token {
			return copyUser(user), nil
		}
	}

	return nil, repository.NewRecordNotFound().WithMetadata(map[string]any{
		"verify_token": token,
	})
}

func (s *memoryUsers) ConsumeVerifyToken(ctx context.Context, token string, verifiedAt time.Time) (*auth.User, error) {
	return s.ConsumeVerifyTokenTx(ctx, nil, token, verifiedAt)
}

func (s *memoryUsers) ConsumeVerifyTokenTx(ctx context.Context, tx bun.IDB, token string, verifiedAt time.Time) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.byEmail {
		if user.VerifyToken != "" && user.VerifyToken == token {
			user.EmailVerifiedAt = &verifiedAt
			user.VerifyToken = ""
			user.VerifyTokenExpiry = nil
			return copyUser(user), nil
		}
	}

	return nil, repository.NewRecordNotFound().WithMetadata(map[string]any{
		"verify_token": token,
	})
}

func copyUser(u *auth.User) *auth.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

// memoryRepo implements auth.RepositoryManager over memoryUsers
type memoryRepo struct {
	users *memoryUsers
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: newMemoryUsers()}
}

func (m *memoryRepo) Users() auth.Users { return m.users }

func (m *memoryRepo) Validate() error { return nil }

func (m *memoryRepo) MustValidate() {}

func (m *memoryRepo) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return f(ctx, bun.Tx{})
	}
}

// captureMailer records outbound mail and can be told to fail
type captureMailer struct {
	mu   sync.Mutex
	sent []auth.MailMessage
	err  error
}

func (m *captureMailer) Send(ctx context.Context, msg auth.MailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *captureMailer) Sent() []auth.MailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]auth.MailMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

// memorySessions is an in memory SessionStore for tests that do not need
// a Redis instance
type memorySessions struct {
	mu       sync.Mutex
	sessions map[string]*auth.SessionObject
	clock    auth.Clock
}

func newMemorySessions(clock auth.Clock) *memorySessions {
	return &memorySessions{
		sessions: map[string]*auth.SessionObject{},
		clock:    clock,
	}
}

func (s *memorySessions) Create(ctx context.Context, session *auth.SessionObject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return nil
}

func (s *memorySessions) Get(ctx context.Context, sessionID string) (*auth.SessionObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, auth.ErrSessionNotFound
	}

	if session.Expired(s.clock.Now()) {
		delete(s.sessions, sessionID)
		return nil, auth.ErrSessionNotFound
	}

	return session, nil
}

func (s *memorySessions) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// MockAuthenticator implements auth.Authenticator
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Login(ctx context.Context, identifier, password string) (*auth.SessionObject, error) {
	args := m.Called(ctx, identifier, password)
	session, _ := args.Get(0).(*auth.SessionObject)
	return session, args.Error(1)
}

func (m *MockAuthenticator) CheckSession(ctx context.Context, sessionID string) (*auth.SessionObject, error) {
	args := m.Called(ctx, sessionID)
	session, _ := args.Get(0).(*auth.SessionObject)
	return session, args.Error(1)
}

func (m *MockAuthenticator) SignOut(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

// MockLoginPayload implements auth.LoginPayload
type MockLoginPayload struct {
	Identifier string
	Password   string
}

func (m MockLoginPayload) GetIdentifier() string {
	return m.Identifier
}

func (m MockLoginPayload) GetPassword() string {
	return m.Password
}

// MockContext mocks the router.Context
type MockContext struct {
	mock.Mock
	NextCalled bool
}

func (m *MockContext) Next() error {
	m.NextCalled = true
	return nil
}

func (m *MockContext) Context() context.Context {
	args := m.Called()
	c, ok := args.Get(0).(context.Context)
	if !ok {
		panic("arg needs to be context.Context")
	}
	return c
}

func (m *MockContext) SetContext(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockContext) Path() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Method() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Body() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *MockContext) Status(code int) router.Context {
	m.Called(code)
	return m
}

func (m *MockContext) SendString(s string) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MockContext) Send(b []byte) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockContext) JSON(code int, val any) error {
	args := m.Called(code, val)
	return args.Error(0)
}

func (m *MockContext) NoContent(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) Render(name string, bind any, layout ...string) error {
	if len(layout) > 0 {
		args := m.Called(name, bind, layout[0])
		return args.Error(0)
	}
	args := m.Called(name, bind)
	return args.Error(0)
}

func (m *MockContext) Redirect(path string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(path, status)
		return args.Error(0)
	}
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockContext) RedirectToRoute(name string, data router.ViewContext, status ...int) error {
	if len(status) > 0 {
		args := m.Called(name, data, status[0])
		return args.Error(0)
	}
	args := m.Called(name, data)
	return args.Error(0)
}

func (m *MockContext) RedirectBack(fallback string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(fallback, status)
		return args.Error(0)
	}
	args := m.Called(fallback)
	return args.Error(0)
}

func (m *MockContext) SetHeader(key, val string) router.Context {
	m.Called(key, val)
	return m
}

func (m *MockContext) Header(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Get(key string, defaultValue any) any {
	args := m.Called(key, defaultValue)
	return args.Get(0)
}

func (m *MockContext) GetBool(key string, defaultValue bool) bool {
	args := m.Called(key, defaultValue)
	return args.Bool(0)
}

func (m *MockContext) GetInt(key string, def int) int {
	args := m.Called(key, def)
	return args.Int(0)
}

func (m *MockContext) Set(key string, val any) {
	m.Called(key, val)
}

func (m *MockContext) Bind(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindJSON(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindXML(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindQuery(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) CookieParser(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) Cookie(cookie *router.Cookie) {
	m.Called(cookie)
}

func (m *MockContext) Cookies(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Param(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) ParamsInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Query(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) QueryInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Queries() map[string]string {
	args := m.Called()
	return args.Get(0).(map[string]string)
}

func (m *MockContext) GetString(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		m.Called(key, value[0])
		return nil
	}
	args := m.Called(key)
	return args.Get(0)
}

func (m *MockContext) OriginalURL() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) OnNext(callback func() error) {
	m.Called(callback)
}

func (m *MockContext) Referer() string {
	args := m.Called()
	return args.String(0)
}
