package service

import (
	"context"
	"errors"
	"strings"

	"github.com/nhle/collab-todo/internal/apperr"
	"github.com/nhle/collab-todo/internal/auth"
	"github.com/nhle/collab-todo/internal/collab"
	"github.com/nhle/collab-todo/internal/model"
	"github.com/nhle/collab-todo/internal/notify"
	"github.com/nhle/collab-todo/internal/store"
)

// RegisterInput is the payload of Register.
type RegisterInput struct {
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginInput is the payload of Login. Identifier is an email or user name.
type LoginInput struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// LoginResult carries the issued session credential.
type LoginResult struct {
	User  model.UserSummary `json:"user"`
	Token string            `json:"token"`
}

// ResetPasswordInput is the payload of ResetPassword.
type ResetPasswordInput struct {
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// Register creates an account. The welcome email must be delivered before
// the user is stored.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	userName := strings.ToLower(strings.TrimSpace(in.UserName))
	email := collab.NormalizeEmail(in.Email)
	if userName == "" || email == "" || in.Password == "" {
		return nil, apperr.InvalidInput("Missing value")
	}
	if !collab.ValidEmail(email) {
		return nil, apperr.InvalidInput(email + " is not a valid email!")
	}

	if _, err := s.store.GetUserByUserName(ctx, userName); err == nil {
		return nil, apperr.Conflict("userName already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Internal("checking user name", err)
	}
	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil, apperr.Conflict("Email already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Internal("checking email", err)
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &model.User{UserName: userName, Email: email, PasswordHash: hash}

	msg, err := notify.WelcomeEmail(email, userName)
	if err != nil {
		return nil, apperr.Internal("rendering welcome email", err)
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.Warn("welcome email failed", "email", email, "err", err)
		return nil, apperr.Dependency("User creation failed: could not send welcome email", err)
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("User already exists")
		}
		return nil, apperr.Internal("creating user", err)
	}

	s.logger.Info("user registered", "user", user.ID)
	return user, nil
}

// Login verifies credentials and issues a session token.
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	identifier := strings.ToLower(strings.TrimSpace(in.Identifier))
	if identifier == "" || in.Password == "" {
		return nil, apperr.InvalidInput("Missing values")
	}

	user, err := s.findByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}

	ok, err := auth.CheckPassword(user.PasswordHash, in.Password)
	if err != nil {
		return nil, apperr.Internal("checking password", err)
	}
	if !ok {
		return nil, apperr.Unauthenticated("Invalid credentials", nil)
	}

	token, err := s.tokens.IssueSession(model.Identity{
		UserID:   user.ID,
		UserName: user.UserName,
		Email:    user.Email,
	})
	if err != nil {
		return nil, apperr.Internal("issuing session", err)
	}

	return &LoginResult{User: user.Summary(), Token: token}, nil
}

func (s *Service) findByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	user, err := s.store.GetUserByEmail(ctx, identifier)
	if errors.Is(err, store.ErrNotFound) {
		user, err = s.store.GetUserByUserName(ctx, identifier)
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Internal("looking up user", err)
	}
	return user, nil
}

// GenerateOTP stores a fresh password-reset code for the actor and emails
// it. A previous code is overwritten.
func (s *Service) GenerateOTP(ctx context.Context, actor model.Identity) error {
	user, err := s.loadUser(ctx, actor.UserID)
	if err != nil {
		return err
	}

	otp, err := auth.GenerateOTP()
	if err != nil {
		return apperr.Internal("generating otp", err)
	}
	expires := s.now().Add(s.otpTTL)
	user.OTP = &otp
	user.OTPExpiresAt = &expires

	if err := s.store.UpdateUser(ctx, *user); err != nil {
		return apperr.Internal("storing otp", err)
	}

	if err := s.sender.Send(ctx, notify.OTPEmail(user.Email, otp, s.otpTTL)); err != nil {
		s.logger.Warn("otp email failed", "user", user.ID, "err", err)
		return apperr.Dependency("Could not send OTP email. Please try again.", err)
	}
	return nil
}

// ResetPassword replaces the actor's password when otp matches an
// unexpired code, then clears the code.
func (s *Service) ResetPassword(ctx context.Context, actor model.Identity, in ResetPasswordInput) error {
	otp := strings.TrimSpace(in.OTP)
	if otp == "" || in.NewPassword == "" {
		return apperr.InvalidInput("OTP and new password are required")
	}

	user, err := s.loadUser(ctx, actor.UserID)
	if err != nil {
		return err
	}

	if user.OTP == nil || user.OTPExpiresAt == nil {
		return apperr.InvalidInput("OTP not generated. Please request a new one.")
	}
	if *user.OTP != otp {
		return apperr.InvalidInput("Invalid OTP")
	}
	if user.OTPExpiresAt.Before(s.now()) {
		return apperr.InvalidInput("OTP has expired. Please request a new one.")
	}

	hash, err := hashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.OTP = nil
	user.OTPExpiresAt = nil

	if err := s.store.UpdateUser(ctx, *user); err != nil {
		return apperr.Internal("updating password", err)
	}
	return nil
}

// hashPassword maps an over-long password to InvalidInput.
func hashPassword(password string) (string, error) {
	hash, err := auth.HashPassword(password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return "", apperr.InvalidInput("Password must be at most 72 bytes long")
	}
	if err != nil {
		return "", apperr.Internal("hashing password", err)
	}
	return hash, nil
}
