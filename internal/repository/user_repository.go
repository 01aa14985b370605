package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/taskhive/taskhive-api/internal/models"
	"golang.org/x/crypto/bcrypt"
)

type UserRepository interface {
	CreateUser(name, email, password string, avatar *string) (models.User, error)
	AuthenticateUser(email, password string) (models.User, error)
	GetUserByID(userID string) (models.User, error)
	GetUserByEmail(email string) (models.User, error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

func (u *userRepository) CreateUser(name, email, password string, avatar *string) (models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Avatar:       avatar,
	}

	const query = `
		INSERT INTO users (name, email, password_hash, avatar)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at;
	`
	err = u.db.QueryRow(query, user.Name, user.Email, user.PasswordHash, user.Avatar).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return models.User{}, err
	}

	return user, nil
}

func (u *userRepository) AuthenticateUser(email, password string) (models.User, error) {
	var user models.User

	const query = `
		SELECT id, name, email, password_hash, avatar, created_at
		FROM users
		WHERE email = $1;
	`
	err := u.db.QueryRow(query, strings.ToLower(strings.TrimSpace(email))).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Avatar,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, errors.New("invalid credentials")
		}
		return models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, errors.New("invalid credentials")
	}

	return user, nil
}

func (u *userRepository) GetUserByID(userID string) (models.User, error) {
	var user models.User

	const query = `
		SELECT id, name, email, password_hash, avatar, created_at
		FROM users
		WHERE id = $1;
	`
	err := u.db.QueryRow(query, userID).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Avatar,
		&user.CreatedAt,
	)
	if err != nil {
		return models.User{}, err
	}

	return user, nil
}

func (u *userRepository) GetUserByEmail(email string) (models.User, error) {
	var user models.User

	const query = `
		SELECT id, name, email, password_hash, avatar, created_at
		FROM users
		WHERE email = $1;
	`
	err := u.db.QueryRow(query, strings.ToLower(strings.TrimSpace(email))).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Avatar,
		&user.CreatedAt,
	)
	if err != nil {
		return models.User{}, err
	}

	return user, nil
}
