package repositories

import (
	"context"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/maxaizer/jobalert/internal/entities"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

type UpsertResult string

const (
	UserCreated UpsertResult = "created"
	UserUpdated UpsertResult = "updated"
)

var ErrUserNotFound = errors.New("user not found")

type Users struct {
	db       *gorm.DB
	validate *validator.Validate
}

func NewUsersRepository(db *gorm.DB) *Users {
	return &Users{db: db, validate: validator.New()}
}

// Upsert creates an active profile, or overwrites the preferences of the
// profile with the same email keeping its id, creation time and active flag.
func (repo *Users) Upsert(ctx context.Context, user entities.User) (UpsertResult, error) {
	user.Email = strings.TrimSpace(user.Email)
	if err := repo.validate.Struct(user); err != nil {
		return "", errors.Wrap(err, "invalid user profile")
	}

	var result UpsertResult
	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing entities.User
		err := tx.Where("email = ?", user.Email).First(&existing).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			user.ID = 0
			user.Active = true
			result = UserCreated
			return tx.Create(&user).Error
		}
		if err != nil {
			return err
		}

		existing.JobRoles = user.JobRoles
		existing.JobTypes = user.JobTypes
		existing.Locations = user.Locations
		result = UserUpdated
		return tx.Save(&existing).Error
	})

	if err != nil {
		return "", err
	}
	return result, nil
}

func (repo *Users) Active(ctx context.Context) ([]entities.User, error) {
	var users []entities.User
	if err := repo.db.WithContext(ctx).Where("active = ?", true).Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (repo *Users) All(ctx context.Context) ([]entities.User, error) {
	var users []entities.User
	if err := repo.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (repo *Users) ByEmail(ctx context.Context, email string) (*entities.User, error) {
	var user entities.User
	err := repo.db.WithContext(ctx).Where("email = ?", strings.TrimSpace(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (repo *Users) SetActive(ctx context.Context, email string, active bool) error {
	res := repo.db.WithContext(ctx).Model(&entities.User{}).
		Where("email = ?", strings.TrimSpace(email)).
		Update("active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.Wrap(ErrUserNotFound, email)
	}
	return nil
}

// DistinctRoles returns the sorted set of roles across active users.
func (repo *Users) DistinctRoles(ctx context.Context) ([]string, error) {
	users, err := repo.Active(ctx)
	if err != nil {
		return nil, err
	}

	roles := lo.Uniq(lo.FlatMap(users, func(user entities.User, _ int) []string {
		return user.JobRoles
	}))
	sort.Strings(roles)
	return roles, nil
}

func (repo *Users) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := repo.db.WithContext(ctx).Model(&entities.User{}).Where("active = ?", true).Count(&count).Error
	return count, err
}
