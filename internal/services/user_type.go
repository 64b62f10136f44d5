package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/creatorhub/apiserver/internal/store"
	"github.com/creatorhub/apiserver/types"
)

// UserTypeRepository defines persistence operations for user type options.
type UserTypeRepository interface {
	ListActive(ctx context.Context) ([]types.UserTypeOption, error)
	Get(ctx context.Context, id int64) (types.UserTypeOption, error)
	Create(ctx context.Context, option types.UserTypeOption) (types.UserTypeOption, error)
	Update(ctx context.Context, option types.UserTypeOption) (types.UserTypeOption, error)
}

// UserTypeInput is the writable part of a user type option. A nil IsActive
// keeps the current flag on update and means true on create.
type UserTypeInput struct {
	Name        string
	Description *string
	IsActive    *bool
}

type UserTypeService struct {
	repo UserTypeRepository
}

func NewUserTypeService(repo UserTypeRepository) *UserTypeService {
	return &UserTypeService{repo: repo}
}

func (s *UserTypeService) ListActive(ctx context.Context) ([]types.UserTypeOption, error) {
	return s.repo.ListActive(ctx)
}

func (s *UserTypeService) Create(ctx context.Context, in UserTypeInput) (types.UserTypeOption, error) {
	option, err := applyUserTypeInput(types.UserTypeOption{IsActive: true}, in)
	if err != nil {
		return types.UserTypeOption{}, err
	}
	created, err := s.repo.Create(ctx, option)
	if err != nil {
		return types.UserTypeOption{}, translateStoreError(err)
	}
	return created, nil
}

func (s *UserTypeService) Update(ctx context.Context, id int64, in UserTypeInput) (types.UserTypeOption, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.UserTypeOption{}, notFound("User type option not found")
		}
		return types.UserTypeOption{}, err
	}
	option, err := applyUserTypeInput(current, in)
	if err != nil {
		return types.UserTypeOption{}, err
	}
	updated, err := s.repo.Update(ctx, option)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.UserTypeOption{}, notFound("User type option not found")
		}
		return types.UserTypeOption{}, translateStoreError(err)
	}
	return updated, nil
}

func applyUserTypeInput(option types.UserTypeOption, in UserTypeInput) (types.UserTypeOption, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || utf8.RuneCountInString(name) > maxFieldLength {
		return types.UserTypeOption{}, validation("name is required and must be at most 255 characters")
	}
	if in.Description != nil && utf8.RuneCountInString(*in.Description) > maxLongField {
		return types.UserTypeOption{}, validation("description is too long")
	}
	option.Name = name
	option.Description = in.Description
	if in.IsActive != nil {
		option.IsActive = *in.IsActive
	}
	return option, nil
}
