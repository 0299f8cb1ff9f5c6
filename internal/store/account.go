package store

import (
	"errors"

	"github.com/AndreiGania/101478350-lab-test1-chat-app/internal/auth"
	"github.com/AndreiGania/101478350-lab-test1-chat-app/internal/models"

	"gorm.io/gorm"
)

var (
	ErrUsernameTaken      = errors.New("username taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// AccountStore 封装账号相关的持久化逻辑，聊天核心不直接接触它。
type AccountStore struct {
	db *gorm.DB
}

func NewAccountStore(db *gorm.DB) *AccountStore {
	return &AccountStore{db: db}
}

// CreateAccount 创建新账号；用户名冲突返回 ErrUsernameTaken。
func (s *AccountStore) CreateAccount(username, firstname, lastname, password string) (*models.User, error) {
	var count int64
	if err := s.db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrUsernameTaken
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := models.User{Username: username, Firstname: firstname, Lastname: lastname, PasswordHash: hash}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// VerifyCredentials 校验用户名密码，失败统一返回 ErrInvalidCredentials。
func (s *AccountStore) VerifyCredentials(username, password string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.VerifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// FindByID 按主键查询账号，供认证中间件使用。
func (s *AccountStore) FindByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsernames 返回按用户名排序的在册用户目录。
func (s *AccountStore) ListUsernames() ([]string, error) {
	var names []string
	if err := s.db.Model(&models.User{}).Order("username asc").Pluck("username", &names).Error; err != nil {
		return nil, err
	}
	return names, nil
}
