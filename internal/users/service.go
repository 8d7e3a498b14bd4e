package users

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/victorybazaar/victorybazaar-backend/pkg/db"
	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	pkgerrors "github.com/victorybazaar/victorybazaar-backend/pkg/errors"
	"github.com/victorybazaar/victorybazaar-backend/pkg/logger"
	"github.com/victorybazaar/victorybazaar-backend/pkg/pagination"
	"github.com/victorybazaar/victorybazaar-backend/pkg/types"
)

const (
	firebaseUIDConstraint = "users_firebase_uid_key"
	emailConstraint       = "users_email_key"
)

type Service interface {
	Sync(ctx context.Context, subject string, input SyncInput) (*models.User, bool, error)
	GetProfile(ctx context.Context, uid string) (*models.User, error)
	UpdateProfile(ctx context.Context, uid string, input ProfileUpdate) (*models.User, error)
	GetPreferences(ctx context.Context, uid string) (*types.Preferences, error)
	UpdatePreferences(ctx context.Context, uid string, input PreferencesUpdate) (*types.Preferences, error)
	Loyalty(ctx context.Context, uid string) (*LoyaltyInfo, error)
	AwardPointsWithTx(ctx context.Context, tx *gorm.DB, uid string, points int) error

	List(ctx context.Context, filter ListFilter, params pagination.Params) (*UserList, error)
	Get(ctx context.Context, id string) (*models.User, error)
	UpdateStatus(ctx context.Context, id string, status enums.UserStatus) (*models.User, error)
}

type service struct {
	repo *Repository
	logg *logger.Logger
	now  func() time.Time
}

func NewService(repo *Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if logg == nil {
		logg = logger.New(logger.Options{ServiceName: "users", Output: io.Discard})
	}
	return &service{repo: repo, logg: logg, now: time.Now}, nil
}

// Sync mirrors the provider identity locally, creating the user on first
// login. The bool result reports whether a user was created.
func (s *service) Sync(ctx context.Context, subject string, input SyncInput) (*models.User, bool, error) {
	fu := input.FirebaseUser
	fu.UID = strings.TrimSpace(fu.UID)
	if fu.UID == "" {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "firebase user data is required")
	}
	if subject != fu.UID {
		return nil, false, pkgerrors.New(pkgerrors.CodeForbidden, "token subject does not match firebase user")
	}
	email := strings.ToLower(strings.TrimSpace(fu.Email))
	now := s.now().UTC()

	existing, err := s.repo.FindByFirebaseUID(ctx, fu.UID)
	switch {
	case err == nil:
		user, err := s.refresh(ctx, existing, fu, email, now)
		return user, false, err
	case !db.IsNotFound(err):
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	user := &models.User{
		FirebaseUID: fu.UID,
		Email:       email,
		Phone:       input.AdditionalData.Phone,
		Profile: models.UserProfile{
			FullName:    strings.TrimSpace(input.AdditionalData.FullName),
			DisplayName: strings.TrimSpace(fu.DisplayName),
			PhotoURL:    strings.TrimSpace(fu.PhotoURL),
		},
		Preferences:   types.DefaultPreferences(),
		Loyalty:       models.Loyalty{Tier: enums.TierSilver, JoinedAt: now},
		Status:        enums.UserStatusActive,
		LastLogin:     &now,
		EmailVerified: fu.EmailVerified,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, firebaseUIDConstraint) {
			// Lost a race with a concurrent first login.
			if existing, findErr := s.repo.FindByFirebaseUID(ctx, fu.UID); findErr == nil {
				user, err := s.refresh(ctx, existing, fu, email, now)
				return user, false, err
			}
		}
		if db.IsUniqueViolation(err, emailConstraint) {
			return nil, false, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	s.logg.Info(s.logg.WithUserID(ctx, fu.UID), "user created from identity provider")
	return user, true, nil
}

func (s *service) refresh(ctx context.Context, user *models.User, fu FirebaseUser, email string, now time.Time) (*models.User, error) {
	if user.Status == enums.UserStatusSuspended || user.Status == enums.UserStatusDeleted {
		return nil, pkgerrors.Newf(pkgerrors.CodeForbidden, "account is %s", user.Status)
	}
	updates := map[string]any{
		"email":          email,
		"email_verified": fu.EmailVerified,
		"last_login":     now,
	}
	user.Email = email
	user.EmailVerified = fu.EmailVerified
	user.LastLogin = &now
	if name := strings.TrimSpace(fu.DisplayName); name != "" {
		updates["display_name"] = name
		user.Profile.DisplayName = name
	}
	if photo := strings.TrimSpace(fu.PhotoURL); photo != "" {
		updates["photo_url"] = photo
		user.Profile.PhotoURL = photo
	}
	if err := s.repo.Update(ctx, user.ID, updates); err != nil {
		if db.IsUniqueViolation(err, emailConstraint) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
	}
	return user, nil
}

func (s *service) GetProfile(ctx context.Context, uid string) (*models.User, error) {
	user, err := s.repo.FindByFirebaseUID(ctx, uid)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func (s *service) UpdateProfile(ctx context.Context, uid string, input ProfileUpdate) (*models.User, error) {
	user, err := s.GetProfile(ctx, uid)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if p := input.Profile; p != nil {
		set := func(column string, value *string, field *string) {
			if value == nil {
				return
			}
			v := strings.TrimSpace(*value)
			if v == "" {
				return
			}
			updates[column] = v
			*field = v
		}
		set("full_name", p.FullName, &user.Profile.FullName)
		set("display_name", p.DisplayName, &user.Profile.DisplayName)
		set("photo_url", p.PhotoURL, &user.Profile.PhotoURL)
		set("gender", p.Gender, &user.Profile.Gender)
		set("bio", p.Bio, &user.Profile.Bio)
		if p.DateOfBirth != nil {
			if p.DateOfBirth.After(s.now()) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "date of birth cannot be in the future")
			}
			updates["date_of_birth"] = *p.DateOfBirth
			user.Profile.DateOfBirth = p.DateOfBirth
		}
	}
	if input.Phone != nil {
		phone := strings.TrimSpace(*input.Phone)
		if phone != "" && (user.Phone == nil || *user.Phone != phone) {
			updates["phone"] = phone
			updates["phone_verified"] = false
			user.Phone = &phone
			user.PhoneVerified = false
		}
	}
	if len(updates) == 0 {
		return user, nil
	}
	if err := s.repo.Update(ctx, user.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
	}
	return user, nil
}

func (s *service) GetPreferences(ctx context.Context, uid string) (*types.Preferences, error) {
	user, err := s.GetProfile(ctx, uid)
	if err != nil {
		return nil, err
	}
	return &user.Preferences, nil
}

func (s *service) UpdatePreferences(ctx context.Context, uid string, input PreferencesUpdate) (*types.Preferences, error) {
	user, err := s.GetProfile(ctx, uid)
	if err != nil {
		return nil, err
	}
	prefs := user.Preferences
	if input.Language != nil && strings.TrimSpace(*input.Language) != "" {
		prefs.Language = strings.TrimSpace(*input.Language)
	}
	if input.Currency != nil && *input.Currency != "" {
		currency, err := enums.ParseCurrency(strings.ToUpper(*input.Currency))
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		prefs.Currency = string(currency)
	}
	if input.Theme != nil && *input.Theme != "" {
		theme := enums.Theme(*input.Theme)
		if !theme.IsValid() {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid theme %q", *input.Theme)
		}
		prefs.Theme = string(theme)
	}
	if n := input.Notifications; n != nil {
		apply := func(value *bool, field *bool) {
			if value != nil {
				*field = *value
			}
		}
		apply(n.Email, &prefs.Notifications.Email)
		apply(n.SMS, &prefs.Notifications.SMS)
		apply(n.Push, &prefs.Notifications.Push)
		apply(n.Promotional, &prefs.Notifications.Promotional)
	}

	if err := s.repo.UpdatePreferences(ctx, user.ID, prefs); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update preferences")
	}
	return &prefs, nil
}

func (s *service) Loyalty(ctx context.Context, uid string) (*LoyaltyInfo, error) {
	user, err := s.GetProfile(ctx, uid)
	if err != nil {
		return nil, err
	}
	return loyaltyInfo(user.Loyalty), nil
}

func loyaltyInfo(l models.Loyalty) *LoyaltyInfo {
	info := &LoyaltyInfo{
		Points:   l.Points,
		Tier:     l.Tier,
		JoinedAt: l.JoinedAt,
		Progress: 100,
	}
	var (
		next      enums.LoyaltyTier
		threshold int
	)
	switch l.Tier {
	case enums.TierSilver:
		next, threshold = enums.TierGold, enums.GoldPointsThreshold
	case enums.TierGold:
		next, threshold = enums.TierPlatinum, enums.PlatinumPointsThreshold
	default:
		return info
	}
	info.NextTier = &next
	info.PointsToNextTier = max(threshold-l.Points, 0)
	info.Progress = math.Min(math.Round(float64(l.Points)/float64(threshold)*10000)/100, 100)
	return info
}

// AwardPointsWithTx credits points inside the caller's transaction. Users
// that never synced are skipped.
func (s *service) AwardPointsWithTx(ctx context.Context, tx *gorm.DB, uid string, points int) error {
	if points <= 0 {
		return nil
	}
	found, err := s.repo.WithTx(tx).AddPoints(ctx, uid, points)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "award loyalty points")
	}
	if !found {
		s.logg.Warn(s.logg.WithUserID(ctx, uid), "loyalty points skipped for unknown user")
	}
	return nil
}

func (s *service) List(ctx context.Context, filter ListFilter, params pagination.Params) (*UserList, error) {
	params = params.Normalize(pagination.DefaultLimit)
	users, total, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	if users == nil {
		users = []models.User{}
	}
	return &UserList{Users: users, Pagination: pagination.NewMeta(params, total)}, nil
}

func (s *service) Get(ctx context.Context, id string) (*models.User, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	user, err := s.repo.FindByID(ctx, parsed)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func (s *service) UpdateStatus(ctx context.Context, id string, status enums.UserStatus) (*models.User, error) {
	if !status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid user status %q", status)
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Status == status {
		return user, nil
	}
	if err := s.repo.Update(ctx, user.ID, map[string]any{"status": status}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user status")
	}
	user.Status = status
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"user_id": user.FirebaseUID, "status": string(status)}), "user status updated")
	return user, nil
}
