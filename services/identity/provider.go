package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"sync"
	"time"

	"movieverse/internal/database"
	"movieverse/models"

	"github.com/go-pkgz/auth/v2/token"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const tokenIssuer = "movieverse"

var (
	// ErrInvalidCredentials is returned on a failed sign-in attempt.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken is returned when signing up with an already registered email.
	ErrEmailTaken = errors.New("email already registered")
)

type userStore interface {
	Create(ctx context.Context, email, passwordHash string) (*models.User, error)
	ByEmail(ctx context.Context, email string) (*models.User, error)
}

var _ userStore = (*database.UserRepository)(nil)

// Provider owns the session's identity: anonymous until a user signs in,
// authenticated afterwards. Interested components subscribe to be told when
// the identity changes; the returned unsubscribe func must be called on
// teardown.
type Provider struct {
	users userStore
	jwt   *token.Service

	mu      sync.Mutex
	current models.Identity
	subs    map[int]func(models.Identity)
	nextSub int
}

// NewProvider returns a provider with an anonymous starting identity.
// secret signs the session tokens handed out on sign-in; sessionTTL
// bounds their lifetime.
func NewProvider(users userStore, secret string, sessionTTL time.Duration) *Provider {
	if sessionTTL <= 0 {
		sessionTTL = 30 * 24 * time.Hour
	}
	jwtService := token.NewService(token.Opts{
		SecretReader: token.SecretFunc(func(string) (string, error) {
			return secret, nil
		}),
		TokenDuration: sessionTTL,
		Issuer:        tokenIssuer,
		DisableXSRF:   true,
	})

	return &Provider{
		users: users,
		jwt:   jwtService,
		subs:  make(map[int]func(models.Identity)),
	}
}

// Current returns the session's identity.
func (p *Provider) Current() models.Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Subscribe registers fn to be called after every identity change. The
// returned func removes the subscription; calling it more than once is safe.
func (p *Provider) Subscribe(fn func(models.Identity)) func() {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			p.mu.Unlock()
		})
	}
}

// SignUp registers a new account. The session identity is not changed; the
// caller signs in separately.
func (p *Provider) SignUp(ctx context.Context, email, password string) (*models.User, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, &models.ValidationError{Field: "email", Reason: "not a valid address"}
	}
	if len(password) < 8 {
		return nil, &models.ValidationError{Field: "password", Reason: "must be at least 8 characters"}
	}

	if _, err := p.users.ByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := p.users.Create(ctx, email, string(hash))
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// SignIn verifies the credentials, switches the session identity to the
// user, notifies subscribers and returns a signed session token.
func (p *Provider) SignIn(ctx context.Context, email, password string) (string, error) {
	user, err := p.users.ByEmail(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("look up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}

	sessionToken, err := p.issueToken(user)
	if err != nil {
		return "", err
	}

	p.setIdentity(models.Identity{UserID: user.ID})
	return sessionToken, nil
}

// SignOut drops back to the anonymous identity and notifies subscribers.
func (p *Provider) SignOut() {
	p.setIdentity(models.Anonymous)
}

// Parse validates a session token and returns the identity it carries.
func (p *Provider) Parse(sessionToken string) (models.Identity, error) {
	claims, err := p.jwt.Parse(sessionToken)
	if err != nil {
		return models.Anonymous, fmt.Errorf("parse session token: %w", err)
	}
	if claims.User == nil || claims.User.ID == "" {
		return models.Anonymous, errors.New("session token has no user")
	}
	return models.Identity{UserID: claims.User.ID}, nil
}

func (p *Provider) issueToken(user *models.User) (string, error) {
	claims := token.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			ID:        uuid.NewString(),
			Audience:  jwt.ClaimStrings{tokenIssuer},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(30 * 24 * time.Hour)),
		},
		User: &token.User{ID: user.ID, Name: user.Email},
	}

	sessionToken, err := p.jwt.Token(claims)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return sessionToken, nil
}

// setIdentity swaps the current identity and notifies subscribers outside
// the lock. A no-op change does not notify.
func (p *Provider) setIdentity(next models.Identity) {
	p.mu.Lock()
	if p.current == next {
		p.mu.Unlock()
		return
	}
	p.current = next
	subs := make([]func(models.Identity), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	p.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
}
