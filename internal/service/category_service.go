package service

import (
	"context"
	"errors"
	"strings"

	"github.com/andreivl23/TaskBot/internal/model"
	"github.com/andreivl23/TaskBot/internal/repository"
)

// ErrEmptyCategoryName means no usable category name was provided.
var ErrEmptyCategoryName = errors.New("category name is empty")

// ErrDuplicateCategory means the user already has this category
// (case-insensitive).
var ErrDuplicateCategory = errors.New("category already exists")

// CategoryService provides helpers around categories.
type CategoryService struct {
	repo *repository.CategoryRepository
}

func NewCategoryService(repo *repository.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

// Create adds a category for the user. Names are stored lower-cased and
// trimmed, matching the uniqueness rule of (user, lower(name)).
func (s *CategoryService) Create(ctx context.Context, user *model.User, name, description string) (*model.Category, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, ErrEmptyCategoryName
	}

	exists, err := s.repo.ExistsByName(ctx, user.ID, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateCategory
	}

	category := model.Category{UserID: user.ID, Name: name, Description: description}
	if err := s.repo.Create(ctx, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *CategoryService) List(ctx context.Context, user *model.User) ([]model.Category, error) {
	return s.repo.ListByUser(ctx, user.ID)
}

// Get returns the user's category by id, so a callback carrying a stale or
// foreign id cannot attach someone else's category.
func (s *CategoryService) Get(ctx context.Context, user *model.User, id uint) (*model.Category, error) {
	return s.repo.GetByID(ctx, user.ID, id)
}
