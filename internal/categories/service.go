package categories

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/victorybazaar/victorybazaar-backend/pkg/db"
	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
	pkgerrors "github.com/victorybazaar/victorybazaar-backend/pkg/errors"
)

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// Service exposes category reads and operator management.
type Service interface {
	List(ctx context.Context) ([]models.Category, error)
	Featured(ctx context.Context) ([]models.Category, error)
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
	Create(ctx context.Context, input CategoryInput) (*models.Category, error)
	Update(ctx context.Context, id string, input CategoryInput) (*models.Category, error)
	Delete(ctx context.Context, id string) error
}

// CategoryInput is used for both create and update; a blank slug is derived from the name.
type CategoryInput struct {
	Name        string
	Slug        string
	Description string
	Image       string
	Featured    bool
	Active      *bool
	SortOrder   int
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("category repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]models.Category, error) {
	rows, err := s.repo.ListActive(ctx, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return nonNil(rows), nil
}

func (s *service) Featured(ctx context.Context) ([]models.Category, error) {
	rows, err := s.repo.ListActive(ctx, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list featured categories")
	}
	return nonNil(rows), nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	category, err := s.repo.FindBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return nil, mapFindError(err)
	}
	return category, nil
}

func (s *service) Create(ctx context.Context, input CategoryInput) (*models.Category, error) {
	category := &models.Category{Active: true}
	if err := apply(category, input); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, mapWriteError(err)
	}
	return category, nil
}

func (s *service) Update(ctx context.Context, id string, input CategoryInput) (*models.Category, error) {
	categoryID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	category, err := s.repo.FindByID(ctx, categoryID)
	if err != nil {
		return nil, mapFindError(err)
	}
	if err := apply(category, input); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, category); err != nil {
		return nil, mapWriteError(err)
	}
	return category, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	categoryID, err := parseID(id)
	if err != nil {
		return err
	}
	found, err := s.repo.Delete(ctx, categoryID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete category")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	return nil
}

func apply(category *models.Category, input CategoryInput) error {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	slug := Slugify(input.Slug)
	if slug == "" {
		slug = Slugify(name)
	}
	if slug == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}
	category.Name = name
	category.Slug = slug
	category.Description = strings.TrimSpace(input.Description)
	category.Image = strings.TrimSpace(input.Image)
	category.Featured = input.Featured
	category.SortOrder = input.SortOrder
	if input.Active != nil {
		category.Active = *input.Active
	}
	return nil
}

// Slugify lower-cases s and joins alphanumeric runs with hyphens.
func Slugify(s string) string {
	return strings.Trim(slugInvalid.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-"), "-")
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	return id, nil
}

func mapFindError(err error) error {
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
}

func mapWriteError(err error) error {
	if db.IsUniqueViolation(err, "categories_slug_key") {
		return pkgerrors.New(pkgerrors.CodeConflict, "category slug already exists")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save category")
}

func nonNil(rows []models.Category) []models.Category {
	if rows == nil {
		return []models.Category{}
	}
	return rows
}
