// Package auth orchestrates the token lifecycle: credential login, access
// token refresh, logout via revocation, request authorization, and the
// out-of-band email-verification and password-reset flows.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"chat_backend/internal/lib/actiontoken"
	"chat_backend/internal/lib/jwt"
	sl "chat_backend/internal/lib/logger"
	"chat_backend/internal/lib/passhash"
	"chat_backend/internal/lib/templates"
	"chat_backend/internal/models"
	"chat_backend/internal/storage"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrUserNotFound       = errors.New("user not found")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrWrongTokenType     = errors.New("wrong token type")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrServiceUnavailable = errors.New("service unavailable")
)

type VerifyOutcome string

const (
	OutcomeVerified        VerifyOutcome = "verification_complete"
	OutcomeAlreadyVerified VerifyOutcome = "already_verified"
)

// Identity is the validated caller identity admitted to the request context.
type Identity struct {
	UserID    string
	Email     string
	Role      string
	JTI       string
	ExpiresAt time.Time
}

type UserSaver interface {
	SaveUser(ctx context.Context, user models.User) (uuid.UUID, error)
	SetEmailVerified(ctx context.Context, uid uuid.UUID) error
	UpdatePasswordHash(ctx context.Context, uid uuid.UUID, passHash string) error
}

type UserProvider interface {
	User(ctx context.Context, email string) (models.User, error)
	UserByID(ctx context.Context, uid uuid.UUID) (models.User, error)
}

type RevocationStore interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type MailPublisher interface {
	SendMessage(ctx context.Context, msg models.EmailMessage) error
}

// Options carries the auth-specific tunables threaded in from config at
// process start.
type Options struct {
	VerificationMaxAge time.Duration
	ResetMaxAge        time.Duration
	RotateRefresh      bool
	FrontendDomain     string
}

type Auth struct {
	log         *slog.Logger
	usrSaver    UserSaver
	usrProvider UserProvider
	revocations RevocationStore
	tokens      *jwt.Manager
	actions     *actiontoken.Codec
	mail        MailPublisher
	opts        Options
}

func New(
	log *slog.Logger,
	userSaver UserSaver,
	userProvider UserProvider,
	revocations RevocationStore,
	tokens *jwt.Manager,
	actions *actiontoken.Codec,
	mail MailPublisher,
	opts Options,
) *Auth {
	return &Auth{
		log:         log,
		usrSaver:    userSaver,
		usrProvider: userProvider,
		revocations: revocations,
		tokens:      tokens,
		actions:     actions,
		mail:        mail,
		opts:        opts,
	}
}

// Register creates an unverified account and queues the verification email.
// A delivery failure is logged but does not fail the signup; the user can
// request the email again later.
func (a *Auth) Register(
	ctx context.Context,
	email, username, firstName, lastName, password string,
) (uuid.UUID, error) {
	const op = "auth.Register"

	log := a.log.With(slog.String("op", op))

	passHash, err := passhash.Hash(password)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	uid, err := a.usrSaver.SaveUser(ctx, models.User{
		Email:     email,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
		Role:      models.RoleUser,
		PassHash:  passHash,
	})
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			log.Warn("user already exists")
			return uuid.Nil, ErrUserExists
		}

		log.Error("failed to save user", sl.Err(err))
		return uuid.Nil, ErrServiceUnavailable
	}

	if err := a.sendVerificationEmail(ctx, log, email); err != nil {
		log.Error("failed to send verification email", sl.Err(err))
	}

	log.Info("user registered", slog.String("uid", uid.String()))

	return uid, nil
}

// ResendVerification queues another verification email for an account whose
// first one was lost or expired. Verified accounts are left alone and the
// call still succeeds.
func (a *Auth) ResendVerification(ctx context.Context, email string) error {
	const op = "auth.ResendVerification"

	log := a.log.With(slog.String("op", op))

	user, err := a.usrProvider.User(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found")
			return ErrUserNotFound
		}

		log.Error("failed to get user", sl.Err(err))
		return ErrServiceUnavailable
	}

	if user.IsVerified {
		log.Info("user already verified, nothing to send")
		return nil
	}

	if err := a.sendVerificationEmail(ctx, log, email); err != nil {
		log.Error("failed to send verification email", sl.Err(err))
		return ErrServiceUnavailable
	}

	log.Info("verification email queued", slog.String("uid", user.UID.String()))

	return nil
}

// Login verifies credentials and mints an access+refresh pair. Unknown email
// and wrong password produce the same error so responses cannot be used to
// probe for accounts.
func (a *Auth) Login(
	ctx context.Context,
	email, password string,
) (accessToken, refreshToken string, user models.User, err error) {
	const op = "auth.Login"

	log := a.log.With(slog.String("op", op))

	user, err = a.usrProvider.User(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found")
			return "", "", models.User{}, ErrInvalidCredentials
		}

		log.Error("failed to get user", sl.Err(err))
		return "", "", models.User{}, ErrServiceUnavailable
	}

	if !user.IsVerified {
		return "", "", models.User{}, ErrEmailNotVerified
	}

	if !passhash.Verify(password, user.PassHash) {
		log.Info("invalid credentials")
		return "", "", models.User{}, ErrInvalidCredentials
	}

	accessToken, err = a.tokens.NewAccessToken(user)
	if err != nil {
		log.Error("failed to generate access token", sl.Err(err))
		return "", "", models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	refreshToken, err = a.tokens.NewRefreshToken(user)
	if err != nil {
		log.Error("failed to generate refresh token", sl.Err(err))
		return "", "", models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged in successfully", slog.String("uid", user.UID.String()))

	return accessToken, refreshToken, user, nil
}

// Refresh exchanges a valid refresh token for a new access token. When
// rotation is enabled a new refresh token is issued as well and the old
// one's id is revoked for its remaining lifetime; otherwise newRefreshToken
// is empty and the presented token stays usable until it expires.
func (a *Auth) Refresh(
	ctx context.Context,
	refreshToken string,
) (accessToken, newRefreshToken string, err error) {
	const op = "auth.Refresh"

	log := a.log.With(slog.String("op", op))

	claims, err := a.validateToken(ctx, refreshToken, true)
	if err != nil {
		log.Warn("refresh token rejected", sl.Err(err))
		return "", "", err
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return "", "", jwt.ErrInvalid
	}

	user, err := a.usrProvider.UserByID(ctx, uid)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return "", "", ErrInvalidCredentials
		}

		log.Error("failed to load user", sl.Err(err))
		return "", "", ErrServiceUnavailable
	}

	accessToken, err = a.tokens.NewAccessToken(user)
	if err != nil {
		log.Error("failed to generate access token", sl.Err(err))
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	if a.opts.RotateRefresh {
		newRefreshToken, err = a.tokens.NewRefreshToken(user)
		if err != nil {
			log.Error("failed to generate refresh token", sl.Err(err))
			return "", "", fmt.Errorf("%s: %w", op, err)
		}

		if err := a.revocations.Revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
			log.Error("failed to revoke rotated refresh token", sl.Err(err))
			return "", "", ErrServiceUnavailable
		}
	}

	log.Info("tokens refreshed", slog.String("uid", user.UID.String()))

	return accessToken, newRefreshToken, nil
}

// Logout revokes the presented access token for the time it has left. Any
// later validation of that exact token fails even though signature and
// expiry would still pass.
func (a *Auth) Logout(ctx context.Context, accessToken string) error {
	const op = "auth.Logout"

	log := a.log.With(slog.String("op", op))

	claims, err := a.validateToken(ctx, accessToken, false)
	if err != nil {
		log.Warn("access token rejected", sl.Err(err))
		return err
	}

	if err := a.revocations.Revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
		log.Error("failed to revoke token", sl.Err(err))
		return ErrServiceUnavailable
	}

	log.Info("user logged out", slog.String("jti", claims.ID))

	return nil
}

// Authorize runs the full validation pipeline over an access token and
// returns the identity it carries. Role membership is checked by the caller.
func (a *Auth) Authorize(ctx context.Context, accessToken string) (Identity, error) {
	claims, err := a.validateToken(ctx, accessToken, false)
	if err != nil {
		return Identity{}, err
	}

	return Identity{
		UserID:    claims.Subject,
		Email:     claims.Email,
		Role:      claims.Role,
		JTI:       claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Profile loads the account for an already-authorized caller.
func (a *Auth) Profile(ctx context.Context, userID string) (models.User, error) {
	const op = "auth.Profile"

	log := a.log.With(slog.String("op", op))

	uid, err := uuid.Parse(userID)
	if err != nil {
		return models.User{}, ErrUserNotFound
	}

	user, err := a.usrProvider.UserByID(ctx, uid)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.User{}, ErrUserNotFound
		}

		log.Error("failed to load user", sl.Err(err))
		return models.User{}, ErrServiceUnavailable
	}

	return user, nil
}

// validateToken is the ordered pipeline shared by Authorize, Refresh and
// Logout: signature and expiry (inside Parse), token class, then revocation.
// A revocation-store failure rejects the token; it never fails open.
func (a *Auth) validateToken(ctx context.Context, tokenStr string, wantRefresh bool) (*jwt.Claims, error) {
	claims, err := a.tokens.Parse(tokenStr)
	if err != nil {
		return nil, err
	}

	if claims.Refresh != wantRefresh {
		return nil, ErrWrongTokenType
	}

	revoked, err := a.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		a.log.Error("revocation check failed", sl.Err(err))
		return nil, ErrServiceUnavailable
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	return claims, nil
}

// VerifyEmail completes registration for the account named in the token.
// Calling it again with the same valid token reports OutcomeAlreadyVerified
// and leaves the account untouched.
func (a *Auth) VerifyEmail(ctx context.Context, token string) (VerifyOutcome, error) {
	const op = "auth.VerifyEmail"

	log := a.log.With(slog.String("op", op))

	data, err := a.actions.Parse(actiontoken.PurposeEmailVerification, token, a.opts.VerificationMaxAge)
	if err != nil {
		log.Warn("verification token rejected", sl.Err(err))
		return "", err
	}

	email, ok := data["email"]
	if !ok || email == "" {
		return "", actiontoken.ErrInvalid
	}

	user, err := a.usrProvider.User(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return "", ErrUserNotFound
		}

		log.Error("failed to get user", sl.Err(err))
		return "", ErrServiceUnavailable
	}

	if user.IsVerified {
		return OutcomeAlreadyVerified, nil
	}

	if err := a.usrSaver.SetEmailVerified(ctx, user.UID); err != nil {
		log.Error("failed to mark user as verified", sl.Err(err))
		return "", ErrServiceUnavailable
	}

	if err := a.sendWelcomeEmail(ctx, user); err != nil {
		log.Error("failed to send welcome email", sl.Err(err))
	}

	log.Info("email verified", slog.String("uid", user.UID.String()))

	return OutcomeVerified, nil
}

// PasswordResetRequest issues a reset token and queues the reset email. It
// succeeds from the caller's point of view no matter what: the account is
// never looked up, so the response carries no information about whether the
// email is registered.
func (a *Auth) PasswordResetRequest(ctx context.Context, email string) {
	const op = "auth.PasswordResetRequest"

	log := a.log.With(slog.String("op", op))

	token, err := a.actions.Issue(actiontoken.PurposePasswordReset, map[string]string{"email": email})
	if err != nil {
		log.Error("failed to issue reset token", sl.Err(err))
		return
	}

	link := fmt.Sprintf("http://%s/reset-password?token=%s", a.opts.FrontendDomain, token)

	body, err := templates.Render(templates.PasswordReset, map[string]string{
		"Email": email,
		"Link":  link,
	})
	if err != nil {
		log.Error("failed to render reset email", sl.Err(err))
		return
	}

	err = a.mail.SendMessage(ctx, models.EmailMessage{
		To:      []string{email},
		Subject: "Reset Your Password",
		Body:    body,
	})
	if err != nil {
		log.Error("failed to queue reset email", sl.Err(err))
		return
	}

	log.Info("password reset email queued")
}

// PasswordResetConfirm replaces the account's password digest. Outstanding
// session tokens are not revoked on password change; they remain valid until
// their own expiry.
func (a *Auth) PasswordResetConfirm(
	ctx context.Context,
	token, newPassword, confirmPassword string,
) error {
	const op = "auth.PasswordResetConfirm"

	log := a.log.With(slog.String("op", op))

	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}

	data, err := a.actions.Parse(actiontoken.PurposePasswordReset, token, a.opts.ResetMaxAge)
	if err != nil {
		log.Warn("reset token rejected", sl.Err(err))
		return err
	}

	email, ok := data["email"]
	if !ok || email == "" {
		return actiontoken.ErrInvalid
	}

	user, err := a.usrProvider.User(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return ErrUserNotFound
		}

		log.Error("failed to get user", sl.Err(err))
		return ErrServiceUnavailable
	}

	passHash, err := passhash.Hash(newPassword)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := a.usrSaver.UpdatePasswordHash(ctx, user.UID, passHash); err != nil {
		log.Error("failed to update password hash", sl.Err(err))
		return ErrServiceUnavailable
	}

	log.Info("password reset", slog.String("uid", user.UID.String()))

	return nil
}

func (a *Auth) sendVerificationEmail(ctx context.Context, log *slog.Logger, email string) error {
	token, err := a.actions.Issue(actiontoken.PurposeEmailVerification, map[string]string{"email": email})
	if err != nil {
		return err
	}

	link := fmt.Sprintf("http://%s/verify-email/%s", a.opts.FrontendDomain, token)

	body, err := templates.Render(templates.EmailVerification, map[string]string{
		"Email": email,
		"Link":  link,
	})
	if err != nil {
		return err
	}

	return a.mail.SendMessage(ctx, models.EmailMessage{
		To:      []string{email},
		Subject: "Verify Your Email",
		Body:    body,
	})
}

func (a *Auth) sendWelcomeEmail(ctx context.Context, user models.User) error {
	body, err := templates.Render(templates.Welcome, map[string]string{
		"Name":      user.Username,
		"LoginLink": fmt.Sprintf("http://%s/login", a.opts.FrontendDomain),
	})
	if err != nil {
		return err
	}

	return a.mail.SendMessage(ctx, models.EmailMessage{
		To:      []string{user.Email},
		Subject: "Welcome! Your account is verified",
		Body:    body,
	})
}
