package wishlist

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/victorybazaar/victorybazaar-backend/internal/products"
	"github.com/victorybazaar/victorybazaar-backend/pkg/db"
	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	pkgerrors "github.com/victorybazaar/victorybazaar-backend/pkg/errors"
)

const (
	suggestionLimit    = 10
	suggestionBackfill = 5
	defaultShareText   = "Check out my wishlist on Victory Bazaar!"
	notesMaxLength     = 200
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// cartAdder is the slice of the cart service used by move-to-cart.
type cartAdder interface {
	AddItemWithTx(ctx context.Context, tx *gorm.DB, userID string, productID uuid.UUID, quantity int) error
}

// Service manages a user's saved products.
type Service interface {
	GetWishlist(ctx context.Context, userID string) (*models.Wishlist, error)
	AddItem(ctx context.Context, userID string, input AddItemInput) (*models.Wishlist, error)
	RemoveItem(ctx context.Context, userID, productID string) (*models.Wishlist, error)
	Clear(ctx context.Context, userID string) (*models.Wishlist, error)
	UpdatePriority(ctx context.Context, userID, productID, priority string) (*models.Wishlist, error)
	UpdateVisibility(ctx context.Context, userID string, public bool) (*models.Wishlist, error)
	MoveToCart(ctx context.Context, userID, productID string, quantity int) (*models.Wishlist, error)
	Suggestions(ctx context.Context, userID string) ([]models.Product, error)
	Analytics(ctx context.Context, userID string) (*Analytics, error)
	Share(ctx context.Context, userID, message string) (*ShareLink, error)
	GetPublic(ctx context.Context, ownerID string) (*models.Wishlist, error)
	RecordPurchasesWithTx(ctx context.Context, tx *gorm.DB, userID string, productIDs []uuid.UUID) error
}

type AddItemInput struct {
	ProductID string
	Notes     string
	Priority  string
}

// Analytics summarises a wishlist for its owner.
type Analytics struct {
	TotalItems        int             `json:"totalItems"`
	TotalItemsAdded   int             `json:"totalItemsAdded"`
	ItemsPurchased    int             `json:"itemsPurchased"`
	LastPurchasedAt   *time.Time      `json:"lastPurchased,omitempty"`
	HighPriorityItems int             `json:"highPriorityItems"`
	TotalValue        decimal.Decimal `json:"totalValue"`
	AveragePrice      decimal.Decimal `json:"averagePrice"`
	Categories        map[string]int  `json:"categories"`
	OldestItem        *time.Time      `json:"oldestItem,omitempty"`
}

type ShareItem struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image,omitempty"`
}

type ShareLink struct {
	URL     string      `json:"shareUrl"`
	Message string      `json:"message"`
	Items   []ShareItem `json:"items"`
}

type service struct {
	repo        *Repository
	products    *products.Repository
	cart        cartAdder
	tx          txRunner
	frontendURL string
	now         func() time.Time
}

// NewService wires the wishlist service. frontendURL prefixes share links.
func NewService(repo *Repository, productRepo *products.Repository, cart cartAdder, tx txRunner, frontendURL string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wishlist repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if cart == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:        repo,
		products:    productRepo,
		cart:        cart,
		tx:          tx,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		now:         time.Now,
	}, nil
}

func (s *service) GetWishlist(ctx context.Context, userID string) (*models.Wishlist, error) {
	var list *models.Wishlist
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		list, err = s.repo.WithTx(tx).GetOrCreate(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist")
		}
		return nil
	})
	return normalize(list), err
}

func (s *service) AddItem(ctx context.Context, userID string, input AddItemInput) (*models.Wishlist, error) {
	productID, err := products.ParseID(input.ProductID)
	if err != nil {
		return nil, err
	}
	priority, err := enums.ParseWishlistPriority(strings.ToLower(strings.TrimSpace(input.Priority)))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid priority")
	}
	notes := strings.TrimSpace(input.Notes)
	if len(notes) > notesMaxLength {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "notes cannot exceed %d characters", notesMaxLength)
	}

	return s.mutate(ctx, userID, func(tx *gorm.DB, repo *Repository, list *models.Wishlist) error {
		if _, err := s.products.WithTx(tx).FindByID(ctx, productID); err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		now := s.now().UTC()
		if existing := findItem(list, productID); existing != nil {
			if err := repo.RefreshItem(ctx, existing.ID, notes, priority, now); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update wishlist item")
			}
			return nil
		}
		item := models.WishlistItem{
			WishlistID: list.ID,
			ProductID:  productID,
			Notes:      notes,
			Priority:   priority,
			AddedAt:    now,
		}
		if err := repo.InsertItem(ctx, &item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert wishlist item")
		}
		if err := repo.IncrementAdded(ctx, list.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count wishlist item")
		}
		return nil
	})
}

func (s *service) RemoveItem(ctx context.Context, userID, productID string) (*models.Wishlist, error) {
	id, err := uuid.Parse(strings.TrimSpace(productID))
	if err != nil {
		return s.GetWishlist(ctx, userID)
	}
	return s.mutate(ctx, userID, func(_ *gorm.DB, repo *Repository, list *models.Wishlist) error {
		if err := repo.DeleteItem(ctx, list.ID, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete wishlist item")
		}
		return nil
	})
}

func (s *service) Clear(ctx context.Context, userID string) (*models.Wishlist, error) {
	return s.mutate(ctx, userID, func(_ *gorm.DB, repo *Repository, list *models.Wishlist) error {
		if err := repo.DeleteItems(ctx, list.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear wishlist")
		}
		return nil
	})
}

func (s *service) UpdatePriority(ctx context.Context, userID, productID, priority string) (*models.Wishlist, error) {
	value := enums.WishlistPriority(strings.ToLower(strings.TrimSpace(priority)))
	if !value.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid priority %q", priority)
	}
	id, err := uuid.Parse(strings.TrimSpace(productID))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in wishlist")
	}
	return s.mutate(ctx, userID, func(_ *gorm.DB, repo *Repository, list *models.Wishlist) error {
		item := findItem(list, id)
		if item == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "item not in wishlist")
		}
		if err := repo.SetPriority(ctx, item.ID, value); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update priority")
		}
		return nil
	})
}

func (s *service) UpdateVisibility(ctx context.Context, userID string, public bool) (*models.Wishlist, error) {
	return s.mutate(ctx, userID, func(_ *gorm.DB, repo *Repository, list *models.Wishlist) error {
		if err := repo.SetPublic(ctx, list.ID, public); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update visibility")
		}
		return nil
	})
}

// MoveToCart adds the saved product to the cart and drops it from the
// wishlist in one transaction. A failed cart add leaves the item saved.
func (s *service) MoveToCart(ctx context.Context, userID, productID string, quantity int) (*models.Wishlist, error) {
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	id, err := uuid.Parse(strings.TrimSpace(productID))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in wishlist")
	}
	return s.mutate(ctx, userID, func(tx *gorm.DB, repo *Repository, list *models.Wishlist) error {
		if findItem(list, id) == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "item not in wishlist")
		}
		if err := s.cart.AddItemWithTx(ctx, tx, userID, id, quantity); err != nil {
			return err
		}
		if err := repo.DeleteItem(ctx, list.ID, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete wishlist item")
		}
		return nil
	})
}

// Suggestions recommends active products from the wishlist's categories,
// topping up with trending products when there are too few.
func (s *service) Suggestions(ctx context.Context, userID string) ([]models.Product, error) {
	list, err := s.repo.FindByUser(ctx, userID)
	if err != nil && !db.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist")
	}

	var (
		exclude    []uuid.UUID
		categories []string
	)
	if list != nil {
		seen := map[string]struct{}{}
		for _, item := range list.Items {
			exclude = append(exclude, item.ProductID)
			if item.Product == nil {
				continue
			}
			if _, ok := seen[item.Product.Category]; !ok {
				seen[item.Product.Category] = struct{}{}
				categories = append(categories, item.Product.Category)
			}
		}
	}

	suggestions := []models.Product{}
	if len(categories) > 0 {
		found, err := s.products.ActiveInCategories(ctx, categories, exclude, suggestionLimit)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load suggestions")
		}
		suggestions = append(suggestions, found...)
	}
	if len(suggestions) >= suggestionBackfill {
		return suggestions, nil
	}

	for _, p := range suggestions {
		exclude = append(exclude, p.ID)
	}
	trending, err := s.products.ActiveTrending(ctx, exclude, suggestionLimit-len(suggestions))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load trending")
	}
	return append(suggestions, trending...), nil
}

func (s *service) Analytics(ctx context.Context, userID string) (*Analytics, error) {
	list, err := s.GetWishlist(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := &Analytics{
		TotalItems:      len(list.Items),
		TotalItemsAdded: list.TotalItemsAdded,
		ItemsPurchased:  list.ItemsPurchased,
		LastPurchasedAt: list.LastPurchasedAt,
		TotalValue:      decimal.Zero,
		AveragePrice:    decimal.Zero,
		Categories:      map[string]int{},
	}
	priced := 0
	for i := range list.Items {
		item := list.Items[i]
		if item.Priority == enums.PriorityHigh {
			out.HighPriorityItems++
		}
		if out.OldestItem == nil || item.AddedAt.Before(*out.OldestItem) {
			added := item.AddedAt
			out.OldestItem = &added
		}
		if item.Product == nil {
			continue
		}
		priced++
		out.TotalValue = out.TotalValue.Add(item.Product.Price)
		out.Categories[item.Product.Category]++
	}
	if priced > 0 {
		out.AveragePrice = out.TotalValue.Div(decimal.NewFromInt(int64(priced))).Round(2)
	}
	return out, nil
}

func (s *service) Share(ctx context.Context, userID, message string) (*ShareLink, error) {
	list, err := s.GetWishlist(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !list.IsPublic {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidState, "wishlist must be public to share")
	}
	message = strings.TrimSpace(message)
	if message == "" {
		message = defaultShareText
	}
	items := make([]ShareItem, 0, len(list.Items))
	for _, item := range list.Items {
		if item.Product == nil {
			continue
		}
		items = append(items, ShareItem{
			ProductID: item.ProductID,
			Name:      item.Product.Name,
			Price:     item.Product.Price,
			Image:     item.Product.PrimaryImage(),
		})
	}
	return &ShareLink{
		URL:     fmt.Sprintf("%s/wishlist/%s", s.frontendURL, userID),
		Message: message,
		Items:   items,
	}, nil
}

func (s *service) GetPublic(ctx context.Context, ownerID string) (*models.Wishlist, error) {
	list, err := s.repo.FindByUser(ctx, ownerID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "wishlist not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist")
	}
	if !list.IsPublic {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "wishlist not found")
	}
	return normalize(list), nil
}

// RecordPurchasesWithTx credits purchased products that were on the wishlist.
func (s *service) RecordPurchasesWithTx(ctx context.Context, tx *gorm.DB, userID string, productIDs []uuid.UUID) error {
	if _, err := s.repo.WithTx(tx).RecordPurchases(ctx, userID, productIDs, s.now().UTC()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record wishlist purchases")
	}
	return nil
}

type mutation func(tx *gorm.DB, repo *Repository, list *models.Wishlist) error

func (s *service) mutate(ctx context.Context, userID string, fn mutation) (*models.Wishlist, error) {
	var out *models.Wishlist
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		list, err := repo.GetOrCreate(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist")
		}
		if err := fn(tx, repo, list); err != nil {
			return err
		}
		ok, err := repo.BumpVersion(ctx, list.ID, list.Version)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "bump wishlist version")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "wishlist was modified concurrently, retry")
		}
		out, err = repo.FindByUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload wishlist")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return normalize(out), nil
}

func findItem(list *models.Wishlist, productID uuid.UUID) *models.WishlistItem {
	for i := range list.Items {
		if list.Items[i].ProductID == productID {
			return &list.Items[i]
		}
	}
	return nil
}

// normalize keeps items newest first and never nil.
func normalize(list *models.Wishlist) *models.Wishlist {
	if list == nil {
		return nil
	}
	if list.Items == nil {
		list.Items = []models.WishlistItem{}
	}
	sort.SliceStable(list.Items, func(i, j int) bool {
		return list.Items[i].AddedAt.After(list.Items[j].AddedAt)
	})
	return list
}
