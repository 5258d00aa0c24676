// Package seed loads a small set of sample users.
package seed

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"user-crud-service/internal/usecase/user"
	pkgerrors "user-crud-service/pkg/errors"
)

// Sample is one user to load.
type Sample struct {
	Name  string
	Email string
	Age   int
}

// DefaultSamples are the users loaded by the seed command.
var DefaultSamples = []Sample{
	{Name: "João Silva", Email: "joao@email.com", Age: 25},
	{Name: "Maria Santos", Email: "maria@email.com", Age: 30},
	{Name: "Pedro Costa", Email: "pedro@email.com", Age: 28},
}

// Result counts what a Run did.
type Result struct {
	Deleted int
	Created int
	Skipped int
}

// Run creates samples through uc. With reset, every existing user is deleted
// first. Samples whose email is already taken are skipped.
func Run(ctx context.Context, uc user.Usecase, samples []Sample, reset bool, log *zap.Logger) (Result, error) {
	var res Result

	if reset {
		existing, err := uc.ListUsers(ctx, user.ListUsersRequest{})
		if err != nil {
			return res, fmt.Errorf("list users: %w", err)
		}
		for _, u := range existing.Users {
			if _, err := uc.DeleteUser(ctx, user.DeleteUserRequest{ID: u.ID}); err != nil {
				return res, fmt.Errorf("delete user %d: %w", u.ID, err)
			}
			res.Deleted++
		}
	}

	for _, s := range samples {
		created, err := uc.CreateUser(ctx, user.CreateUserRequest{
			Input: user.UserInput{Name: &s.Name, Email: &s.Email, Age: &s.Age},
		})

		var exists *pkgerrors.AlreadyExistsError
		switch {
		case errors.As(err, &exists):
			log.Info("sample user already present", zap.String("email", s.Email))
			res.Skipped++
		case err != nil:
			return res, fmt.Errorf("create user %s: %w", s.Email, err)
		default:
			log.Info("sample user created", zap.Int64("id", created.ID), zap.String("email", created.Email))
			res.Created++
		}
	}

	return res, nil
}
