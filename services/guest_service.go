package services

import (
	"context"
	"strings"

	"loyaltystay/constants"
	"loyaltystay/dto"
	"loyaltystay/errors"
	"loyaltystay/models"
	"loyaltystay/services/logger"
	"loyaltystay/validator"

	"golang.org/x/crypto/bcrypt"
)

// GuestService finds or creates the guest a booking is for.
type GuestService struct {
	guests GuestStore
	logger logger.Logger
}

func NewGuestService(guests GuestStore, log logger.Logger) *GuestService {
	return &GuestService{guests: guests, logger: log}
}

func hashPassword(password string) (string, error) {
	if err := validator.ValidatePassword(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Unknown("Failed to hash password", err)
	}
	return string(hash), nil
}

// ResolveGuest returns the signed-in user, the user matching the email, or
// a new guest record. SignUp promotes a guest record to a full account.
func (s *GuestService) ResolveGuest(ctx context.Context, companyID, userID uint, g dto.GuestRequest) (*models.User, error) {
	if userID != 0 {
		u, err := s.guests.GetUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		if u.CompanyID != companyID {
			return nil, errors.NotFound("User not found")
		}
		return u, nil
	}

	email := strings.ToLower(strings.TrimSpace(g.Email))
	if err := validator.ValidateEmail(email); err != nil {
		return nil, err
	}

	u, err := s.guests.FindUserByEmail(ctx, companyID, email)
	switch {
	case err == nil:
		if g.SignUp == 1 && u.PermissionLogin == constants.PermissionLoginGuest {
			hash, err := hashPassword(g.Password)
			if err != nil {
				return nil, err
			}
			u.Password = hash
			u.PermissionLogin = constants.PermissionLoginAccount
			if err := s.guests.UpdateUser(ctx, u); err != nil {
				return nil, err
			}
			s.logger.Info("guest %d promoted to account", u.ID)
		}
		return u, nil
	case !errors.IsCode(err, errors.ErrCodeNotFound):
		return nil, err
	}

	u = &models.User{
		CompanyID:       companyID,
		Email:           email,
		FirstName:       g.FirstName,
		LastName:        g.LastName,
		PhoneNumber:     g.Phone,
		PermissionLogin: constants.PermissionLoginGuest,
		Role:            constants.RoleGuest,
		Status:          constants.StatusActive,
	}
	if g.SignUp == 1 {
		hash, err := hashPassword(g.Password)
		if err != nil {
			return nil, err
		}
		u.Password = hash
		u.PermissionLogin = constants.PermissionLoginAccount
		u.Role = constants.RoleMember
	}
	if err := s.guests.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ResolveAddress returns the guest's existing address or stores a new one.
func (s *GuestService) ResolveAddress(ctx context.Context, user *models.User, existingID *uint, addr *dto.AddressRequest) (*models.UserAddress, error) {
	if existingID != nil {
		a, err := s.guests.GetAddress(ctx, *existingID)
		if err != nil {
			return nil, err
		}
		if a.UserID != user.ID {
			return nil, errors.BadRequest("Address does not belong to guest")
		}
		return a, nil
	}
	if addr == nil {
		return nil, errors.BadRequest("Address is required")
	}
	a := &models.UserAddress{
		UserID:     user.ID,
		Line1:      addr.Line1,
		Line2:      addr.Line2,
		City:       addr.City,
		State:      addr.State,
		PostalCode: addr.PostalCode,
		Country:    strings.ToUpper(addr.Country),
	}
	if err := s.guests.CreateAddress(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}
