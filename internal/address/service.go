// Package address manages a user's saved delivery addresses.
package address

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/victorybazaar/victorybazaar-backend/pkg/db"
	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	pkgerrors "github.com/victorybazaar/victorybazaar-backend/pkg/errors"
	"github.com/victorybazaar/victorybazaar-backend/pkg/logger"
)

const oneDefaultConstraint = "addresses_one_default_per_user"

type Service interface {
	List(ctx context.Context, userID string) ([]models.Address, error)
	Create(ctx context.Context, userID string, input Input) (*models.Address, error)
	Default(ctx context.Context, userID string) (*models.Address, error)
	Update(ctx context.Context, userID, addressID string, patch Patch) (*models.Address, error)
	Delete(ctx context.Context, userID, addressID string) error
	SetDefault(ctx context.Context, userID, addressID string) (*models.Address, error)
	Validate(input Input) ValidationResult
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo     *Repository
	tx       txRunner
	validate *validator.Validate
	logg     *logger.Logger
}

func NewService(repo *Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		logg = logger.New(logger.Options{ServiceName: "address", Output: io.Discard})
	}
	return &service{repo: repo, tx: tx, validate: validator.New(), logg: logg}, nil
}

func (s *service) List(ctx context.Context, userID string) ([]models.Address, error) {
	out, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	if out == nil {
		out = []models.Address{}
	}
	return out, nil
}

// Create saves the address. The user's first address, or one flagged
// default, becomes the sole default.
func (s *service) Create(ctx context.Context, userID string, input Input) (*models.Address, error) {
	input = input.normalize()
	if err := s.check(input); err != nil {
		return nil, err
	}
	kind, err := enums.ParseAddressType(input.Type)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}

	addr := &models.Address{
		UserID:       userID,
		Type:         kind,
		FullName:     input.FullName,
		Phone:        input.Phone,
		AddressLine1: input.AddressLine1,
		AddressLine2: input.AddressLine2,
		City:         input.City,
		State:        input.State,
		ZipCode:      input.ZipCode,
		Country:      input.Country,
		Landmark:     input.Landmark,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		count, err := repo.Count(ctx, userID)
		if err != nil {
			return err
		}
		addr.IsDefault = count == 0 || input.IsDefault
		if addr.IsDefault {
			if err := repo.ClearDefault(ctx, userID); err != nil {
				return err
			}
		}
		return repo.Create(ctx, addr)
	})
	if err != nil {
		return nil, s.writeError(err, "create address")
	}
	return addr, nil
}

// Default returns the flagged default, falling back to the oldest address.
func (s *service) Default(ctx context.Context, userID string) (*models.Address, error) {
	addr, err := s.repo.FindDefault(ctx, userID)
	if err == nil {
		return addr, nil
	}
	if !db.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load default address")
	}
	addr, err = s.repo.Oldest(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no address found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	return addr, nil
}

func (s *service) Update(ctx context.Context, userID, addressID string, patch Patch) (*models.Address, error) {
	addr, err := s.owned(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}

	merged := Input{
		Type:         string(addr.Type),
		FullName:     addr.FullName,
		Phone:        addr.Phone,
		AddressLine1: addr.AddressLine1,
		AddressLine2: addr.AddressLine2,
		City:         addr.City,
		State:        addr.State,
		ZipCode:      addr.ZipCode,
		Country:      addr.Country,
		Landmark:     addr.Landmark,
	}
	for _, f := range []struct {
		value *string
		field *string
	}{
		{patch.Type, &merged.Type},
		{patch.FullName, &merged.FullName},
		{patch.Phone, &merged.Phone},
		{patch.AddressLine1, &merged.AddressLine1},
		{patch.AddressLine2, &merged.AddressLine2},
		{patch.City, &merged.City},
		{patch.State, &merged.State},
		{patch.ZipCode, &merged.ZipCode},
		{patch.Country, &merged.Country},
		{patch.Landmark, &merged.Landmark},
	} {
		if f.value != nil {
			*f.field = *f.value
		}
	}
	merged = merged.normalize()
	if err := s.check(merged); err != nil {
		return nil, err
	}
	kind, err := enums.ParseAddressType(merged.Type)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}

	updates := map[string]any{
		"type":          kind,
		"full_name":     merged.FullName,
		"phone":         merged.Phone,
		"address_line1": merged.AddressLine1,
		"address_line2": merged.AddressLine2,
		"city":          merged.City,
		"state":         merged.State,
		"zip_code":      merged.ZipCode,
		"country":       merged.Country,
		"landmark":      merged.Landmark,
	}
	// Unflagging the default is ignored; another address must be promoted instead.
	promote := patch.IsDefault != nil && *patch.IsDefault && !addr.IsDefault
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if promote {
			if err := repo.ClearDefault(ctx, userID); err != nil {
				return err
			}
			updates["is_default"] = true
		}
		return repo.Update(ctx, addr.ID, updates)
	})
	if err != nil {
		return nil, s.writeError(err, "update address")
	}
	return s.owned(ctx, userID, addressID)
}

// Delete removes the address. Removing the default promotes the oldest
// remaining address.
func (s *service) Delete(ctx context.Context, userID, addressID string) error {
	addr, err := s.owned(ctx, userID, addressID)
	if err != nil {
		return err
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		deleted, err := repo.Delete(ctx, userID, addr.ID)
		if err != nil {
			return err
		}
		if !deleted {
			return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		if !addr.IsDefault {
			return nil
		}
		next, err := repo.Oldest(ctx, userID)
		if err != nil {
			if db.IsNotFound(err) {
				return nil
			}
			return err
		}
		return repo.MarkDefault(ctx, next.ID)
	})
	if err != nil {
		return s.writeError(err, "delete address")
	}
	return nil
}

func (s *service) SetDefault(ctx context.Context, userID, addressID string) (*models.Address, error) {
	addr, err := s.owned(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}
	if addr.IsDefault {
		return addr, nil
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.ClearDefault(ctx, userID); err != nil {
			return err
		}
		return repo.MarkDefault(ctx, addr.ID)
	})
	if err != nil {
		return nil, s.writeError(err, "set default address")
	}
	addr.IsDefault = true
	return addr, nil
}

// Validate checks an address without saving it.
func (s *service) Validate(input Input) ValidationResult {
	input = input.normalize()
	var errs []FieldError
	for _, f := range []struct{ name, value string }{
		{"fullName", input.FullName},
		{"phone", input.Phone},
		{"addressLine1", input.AddressLine1},
		{"city", input.City},
		{"state", input.State},
		{"zipCode", input.ZipCode},
	} {
		if f.value == "" {
			errs = append(errs, FieldError{Field: f.name, Message: f.name + " is required"})
		}
	}
	if input.Phone != "" && s.validate.Var(input.Phone, "number,len=10") != nil {
		errs = append(errs, FieldError{Field: "phone", Message: "phone must be a 10-digit number"})
	}
	if input.ZipCode != "" && strings.EqualFold(input.Country, "india") && !validPIN(s.validate, input.ZipCode) {
		errs = append(errs, FieldError{Field: "zipCode", Message: "zipCode must be a 6-digit PIN code"})
	}
	if input.Type != "" {
		if _, err := enums.ParseAddressType(input.Type); err != nil {
			errs = append(errs, FieldError{Field: "type", Message: "type must be one of home, work, other"})
		}
	}
	if errs == nil {
		errs = []FieldError{}
	}
	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

func (s *service) check(input Input) error {
	result := s.Validate(input)
	if result.Valid {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid address").WithDetails(result.Errors)
}

func (s *service) owned(ctx context.Context, userID, addressID string) (*models.Address, error) {
	id, err := uuid.Parse(addressID)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	addr, err := s.repo.FindOwned(ctx, userID, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	return addr, nil
}

func (s *service) writeError(err error, action string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	if db.IsUniqueViolation(err, oneDefaultConstraint) {
		return pkgerrors.New(pkgerrors.CodeConflict, "default address changed concurrently")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}

func validPIN(v *validator.Validate, zip string) bool {
	return v.Var(zip, "number,len=6") == nil && zip[0] != '0'
}

// normalizePhone drops separators and an Indian country prefix.
func normalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch r {
		case ' ', '-', '(', ')', '.':
			continue
		}
		b.WriteRune(r)
	}
	phone := b.String()
	switch {
	case strings.HasPrefix(phone, "+91") && len(phone) == 13:
		return phone[3:]
	case strings.HasPrefix(phone, "0") && len(phone) == 11:
		return phone[1:]
	}
	return phone
}
