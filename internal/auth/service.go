package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"matchday/internal/gateway"
	"matchday/internal/logger"
	"matchday/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrValidation         = errors.New("invalid request")
	ErrUserNotFound       = errors.New("user not found")
)

const minPasswordLength = 6

// UserStore is the slice of the gateway auth needs.
type UserStore interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	MaxUserID(ctx context.Context) (int64, error)
	InsertUser(ctx context.Context, user *models.User) error
	UpdateUserProfile(ctx context.Context, id int64, update models.ProfileUpdate) error
}

type Service struct {
	Gateway   UserStore
	Sessions  *SessionStore
	JWTSecret []byte
	TokenTTL  time.Duration
	Logger    *logger.Logger
}

func NewService(gw UserStore, sessions *SessionStore, secret string, ttl time.Duration, log *logger.Logger) *Service {
	return &Service{
		Gateway:   gw,
		Sessions:  sessions,
		JWTSecret: []byte(secret),
		TokenTTL:  ttl,
		Logger:    log,
	}
}

// SignUp creates an account with a bcrypt password hash. Ids follow the
// store's max(id)+1 convention.
func (s *Service) SignUp(ctx context.Context, req models.SignUpRequest) (*models.User, error) {
	if req.Nom == "" || req.Prenom == "" || req.Email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: all fields are required", ErrValidation)
	}
	if len(req.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}

	if _, err := s.Gateway.GetUserByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gateway.ErrNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	maxID, err := s.Gateway.MaxUserID(ctx)
	if err != nil {
		return nil, fmt.Errorf("allocate user id: %w", err)
	}

	user := &models.User{
		ID:       maxID + 1,
		Nom:      req.Nom,
		Prenom:   req.Prenom,
		Email:    req.Email,
		Password: string(hash),
	}
	if err := s.Gateway.InsertUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.Logger.Info("AUTH", fmt.Sprintf("user %d registered (%s)", user.ID, user.Email))
	return user, nil
}

// SignIn verifies the password against its bcrypt hash and opens a session.
func (s *Service) SignIn(ctx context.Context, req models.SignInRequest) (*models.Session, error) {
	if req.Email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	user, err := s.Gateway.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	sessionID := uuid.NewString()
	if err := s.Sessions.Save(ctx, sessionID, user.ID, user.IsAdmin); err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	token, err := s.signToken(sessionID, user)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	s.Logger.Info("AUTH", fmt.Sprintf("user %d signed in", user.ID))
	return &models.Session{
		ID:      sessionID,
		UserID:  user.ID,
		IsAdmin: user.IsAdmin,
		Token:   token,
	}, nil
}

// SignOut closes the session named by the token's sid claim.
func (s *Service) SignOut(ctx context.Context, sessionID string) error {
	return s.Sessions.Delete(ctx, sessionID)
}

func (s *Service) Profile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.Gateway.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("fetch user %d: %w", userID, err)
	}
	return user, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID int64, update models.ProfileUpdate) error {
	if update.Nom == "" || update.Prenom == "" || update.Email == "" {
		return fmt.Errorf("%w: all fields are required", ErrValidation)
	}
	if err := s.Gateway.UpdateUserProfile(ctx, userID, update); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

type sessionClaims struct {
	SessionID string `json:"sid"`
	IsAdmin   bool   `json:"admin"`
	jwt.RegisteredClaims
}

func (s *Service) signToken(sessionID string, user *models.User) (string, error) {
	claims := sessionClaims{
		SessionID: sessionID,
		IsAdmin:   user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.TokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.JWTSecret)
}

// verifyToken checks the signature and that the session is still open.
func (s *Service) verifyToken(ctx context.Context, rawToken string) (userID int64, isAdmin bool, sessionID string, err error) {
	token, err := jwt.ParseWithClaims(rawToken, &sessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.JWTSecret, nil
	})
	if err != nil || !token.Valid {
		return 0, false, "", ErrSessionNotFound
	}

	claims, ok := token.Claims.(*sessionClaims)
	if !ok {
		return 0, false, "", ErrSessionNotFound
	}

	userID, isAdmin, err = s.Sessions.Get(ctx, claims.SessionID)
	if err != nil {
		return 0, false, "", err
	}
	return userID, isAdmin, claims.SessionID, nil
}
