package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/animerch/internal/hash"
	"github.com/Skotchmaster/animerch/internal/models"
	"github.com/Skotchmaster/animerch/internal/repo"
	"github.com/Skotchmaster/animerch/internal/tokens"
	"github.com/Skotchmaster/animerch/internal/transport"
)

const (
	msgMissingFields = "Please fill out all required fields."
	msgUserExists    = "User already exists with this email"
	msgBadLogin      = "Invalid credentials"
)

type AuthService struct {
	Repo   *repo.GormRepo
	Tokens *tokens.Issuer
}

func (s *AuthService) SignupCustomer(ctx context.Context, req transport.SignupCustomerRequest) (*models.User, error) {
	u := &models.User{
		Username: strings.TrimSpace(req.Username),
		Email:    strings.TrimSpace(req.Email),
		Role:     models.RoleCustomer,
	}
	if u.Username == "" || u.Email == "" || req.Password == "" {
		return nil, validation(msgMissingFields)
	}
	if err := s.register(ctx, u, req.Password); err != nil {
		return nil, err
	}
	return u, nil
}

// SignupSeller creates a seller whose shop starts out pending verification.
func (s *AuthService) SignupSeller(ctx context.Context, req transport.SignupSellerRequest) (*models.User, error) {
	u := &models.User{
		Username: strings.TrimSpace(req.Username),
		Email:    strings.TrimSpace(req.Email),
		Role:     models.RoleSeller,
		SellerDetails: &models.SellerDetails{
			ShopName:           strings.TrimSpace(req.ShopName),
			GSTNumber:          strings.TrimSpace(req.GSTNumber),
			BusinessAddress:    strings.TrimSpace(req.BusinessAddress),
			Description:        req.Description,
			VerificationStatus: models.VerificationPending,
		},
	}
	d := u.SellerDetails
	if u.Username == "" || u.Email == "" || req.Password == "" ||
		d.ShopName == "" || d.GSTNumber == "" || d.BusinessAddress == "" {
		return nil, validation(msgMissingFields)
	}
	if err := s.register(ctx, u, req.Password); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) register(ctx context.Context, u *models.User, password string) error {
	taken, err := s.Repo.EmailTaken(ctx, u.Email)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, msgUserExists)
	}

	hashed, err := hash.HashPassword(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hashed

	if err := s.Repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, msgUserExists)
		}
		return err
	}
	return nil
}

// Login checks the credentials and returns a signed bearer token. Unknown
// email and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req transport.LoginRequest) (string, *models.User, error) {
	u, err := s.Repo.FindUserByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if repo.IsNotFound(err) {
			return "", nil, fmt.Errorf("%w: %s", ErrInvalidCredentials, msgBadLogin)
		}
		return "", nil, err
	}
	if !hash.CheckPassword(u.PasswordHash, req.Password) {
		return "", nil, fmt.Errorf("%w: %s", ErrInvalidCredentials, msgBadLogin)
	}

	token, _, err := s.Tokens.Issue(u.ID, u.Role)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	u, err := s.Repo.GetUser(ctx, userID)
	if err != nil {
		return nil, notFound(err, "User not found")
	}
	return u, nil
}
