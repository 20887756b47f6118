package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "github.com/Fidiestro/sanse-backend/internal/errors"
	"github.com/Fidiestro/sanse-backend/internal/models"
	"github.com/Fidiestro/sanse-backend/internal/notifier"
	"github.com/Fidiestro/sanse-backend/internal/pagination"
)

// Referral codes avoid ambiguous characters (0/O, 1/I/L).
const referralAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"
const referralCodeLength = 6

// userService handles registration, authentication and account management.
type userService struct {
	db     *gorm.DB
	notify notifier.Notifier
	audit  AuditServicer
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB, notify notifier.Notifier, audit AuditServicer) UserServicer {
	return &userService{db: db, notify: notify, audit: audit}
}

func generateReferralCode() (string, error) {
	var b strings.Builder
	b.WriteString("SC-")
	for i := 0; i < referralCodeLength; i++ {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(referralAlphabet))))
		if err != nil {
			return "", err
		}
		b.WriteByte(referralAlphabet[idx.Int64()])
	}
	return b.String(), nil
}

// Register creates a new account with its referral code and a registration
// request for the admin review queue. An optional referral code links the
// account to its referrer.
func (s *userService) Register(email, password, fullName, phone, document, referralCode string) (*models.User, error) {
	if email == "" || password == "" || fullName == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "email, password and full name are required")
	}
	if len(password) < 8 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "password must be at least 8 characters")
	}

	var count int64
	if err := s.db.Model(&models.User{}).
		Where("email = ?", strings.ToLower(email)).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateEmail
	}

	var referredBy *uint
	if referralCode != "" {
		var referrer models.User
		if err := s.db.Where("referral_code = ?", strings.ToUpper(referralCode)).
			First(&referrer).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.ErrInvalidReferralCode
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		referredBy = &referrer.ID
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var user *models.User
	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Retry on the slim chance of a code collision.
		var code string
		for attempt := 0; attempt < 5; attempt++ {
			code, err = generateReferralCode()
			if err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			var taken int64
			if err := tx.Model(&models.User{}).
				Where("referral_code = ?", code).
				Count(&taken).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if taken == 0 {
				break
			}
		}

		user = &models.User{
			Email:          strings.ToLower(email),
			Password:       string(hashed),
			FullName:       fullName,
			Phone:          phone,
			DocumentNumber: document,
			Role:           models.RoleUser,
			Status:         models.UserStatusActive,
			ReferralCode:   code,
			ReferredBy:     referredBy,
		}
		if err := tx.Create(user).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		reg := &models.RegistrationRequest{
			UserID: user.ID,
			Status: models.RegistrationPending,
		}
		if err := tx.Create(reg).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify.Notify(context.Background(),
		fmt.Sprintf("New registration: %s (%s)", fullName, strings.ToLower(email)))
	return user, nil
}

// AttemptLogin verifies credentials and rejects blocked accounts. Both a
// missing account and a wrong password yield the same error.
func (s *userService) AttemptLogin(email, password string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	if user.Status == models.UserStatusBlocked {
		return nil, apperrors.ErrAccountBlocked
	}

	s.audit.Log(user.ID, "login", "user", user.ID, "")
	return &user, nil
}

// GetUserByID retrieves a user by ID.
func (s *userService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email.
func (s *userService) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// UpdateProfile changes the mutable profile fields.
func (s *userService) UpdateProfile(userID uint, fullName, phone string) (*models.User, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if fullName != "" {
		updates["full_name"] = fullName
		user.FullName = fullName
	}
	if phone != "" {
		updates["phone"] = phone
		user.Phone = phone
	}
	if len(updates) == 0 {
		return user, nil
	}
	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return user, nil
}

// ChangePassword verifies the current password before replacing it.
func (s *userService) ChangePassword(userID uint, currentPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "password must be at least 8 characters")
	}
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(currentPassword)); err != nil {
		return apperrors.ErrInvalidCredentials
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.db.Model(user).Update("password", string(hashed)).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.audit.Log(userID, "change_password", "user", userID, "")
	return nil
}

// SetMonthlyGoal updates the savings goal shown on the dashboard.
func (s *userService) SetMonthlyGoal(userID uint, goal int64) error {
	if goal < 0 {
		return apperrors.ErrInvalidInput
	}
	res := s.db.Model(&models.User{}).Where("id = ?", userID).Update("monthly_goal", goal)
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// ListUsers returns all accounts for the admin panel.
func (s *userService) ListUsers(page pagination.PageRequest) (*pagination.PageResponse[models.User], error) {
	page.Defaults()

	var total int64
	if err := s.db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var users []models.User
	if err := s.db.Order("created_at DESC").
		Scopes(pagination.Paginate(page)).
		Find(&users).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(users, page.Page, page.PageSize, total)
	return &resp, nil
}

// SetUserStatus blocks or unblocks an account. Accounts are never deleted.
func (s *userService) SetUserStatus(adminID, userID uint, status models.UserStatus) error {
	if status != models.UserStatusActive && status != models.UserStatusBlocked {
		return apperrors.ErrInvalidInput
	}
	res := s.db.Model(&models.User{}).Where("id = ?", userID).Update("status", status)
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}

	s.audit.Log(adminID, "set_user_status", "user", userID, string(status))
	return nil
}

// ListRegistrations returns the onboarding review queue.
func (s *userService) ListRegistrations(status *models.RegistrationStatus, page pagination.PageRequest) (*pagination.PageResponse[models.RegistrationRequest], error) {
	page.Defaults()

	query := s.db.Model(&models.RegistrationRequest{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var regs []models.RegistrationRequest
	if err := query.Preload("User").
		Order("created_at ASC").
		Scopes(pagination.Paginate(page)).
		Find(&regs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(regs, page.Page, page.PageSize, total)
	return &resp, nil
}

// ProcessRegistration resolves one onboarding review. Rejection blocks the
// account.
func (s *userService) ProcessRegistration(adminID, requestID uint, approve bool, notes string) (*models.RegistrationRequest, error) {
	now := time.Now()
	var reg models.RegistrationRequest

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&reg, requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrRegistrationNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if reg.Status != models.RegistrationPending {
			return apperrors.ErrAlreadyProcessed
		}

		next := models.RegistrationApproved
		if !approve {
			next = models.RegistrationRejected
			if err := tx.Model(&models.User{}).
				Where("id = ?", reg.UserID).
				Update("status", models.UserStatusBlocked).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}

		reg.Status = next
		reg.AdminNotes = notes
		reg.ProcessedAt = &now
		reg.ProcessedBy = &adminID
		if err := tx.Model(&reg).Updates(map[string]interface{}{
			"status":       next,
			"admin_notes":  notes,
			"processed_at": now,
			"processed_by": adminID,
		}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Log(adminID, "process_registration", "registration_request", requestID,
		fmt.Sprintf("approve=%t", approve))
	return &reg, nil
}
