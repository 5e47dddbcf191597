// Package redisrepo provides a Redis-backed users.Repo. Each account is a
// hash keyed by email, with secondary index keys for the federated lookup
// paths (display name and Google provider ID).
package redisrepo

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/hvella/go-session-server/users"
)

var _ users.Repo = (*Repo)(nil)

const (
	userKeyPrefix   = "user:"
	nameKeyPrefix   = "user_name:"
	googleKeyPrefix = "user_google:"
)

const (
	fieldName         = "name"
	fieldAge          = "age"
	fieldPasswordHash = "password_hash"
	fieldRole         = "role"
	fieldGoogleID     = "google_id"
	fieldRefreshToken = "refresh_token"
)

type Repo struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Repo {
	return &Repo{rdb: rdb}
}

func userKey(email string) string    { return userKeyPrefix + email }
func nameKey(name string) string     { return nameKeyPrefix + name }
func googleKey(googleID string) string { return googleKeyPrefix + googleID }

func (r *Repo) Create(ctx context.Context, user *users.User) error {
	return r.Upsert(ctx, user)
}

func (r *Repo) Upsert(ctx context.Context, user *users.User) error {
	fields := map[string]interface{}{
		fieldName:         user.Name,
		fieldAge:          user.Age,
		fieldPasswordHash: user.PasswordHash,
		fieldRole:         string(user.Role),
		fieldGoogleID:     user.GoogleID,
		fieldRefreshToken: user.RefreshToken,
	}

	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, userKey(user.Email), fields)
	if user.Name != "" {
		pipe.Set(ctx, nameKey(user.Name), user.Email, 0)
	}
	if user.GoogleID != "" {
		pipe.Set(ctx, googleKey(user.GoogleID), user.Email, 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "[redisrepo.Upsert] pipeline exec")
	}
	return nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	fields, err := r.rdb.HGetAll(ctx, userKey(email)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "[redisrepo.GetByEmail] hgetall")
	}
	if len(fields) == 0 {
		return nil, users.ErrNotFound
	}

	age, _ := strconv.Atoi(fields[fieldAge])
	return &users.User{
		Email:        email,
		Name:         fields[fieldName],
		Age:          age,
		PasswordHash: fields[fieldPasswordHash],
		Role:         users.Role(fields[fieldRole]),
		GoogleID:     fields[fieldGoogleID],
		RefreshToken: fields[fieldRefreshToken],
	}, nil
}

func (r *Repo) SetRefreshToken(ctx context.Context, email, refreshToken string) error {
	exists, err := r.rdb.Exists(ctx, userKey(email)).Result()
	if err != nil {
		return errors.Wrap(err, "[redisrepo.SetRefreshToken] exists")
	}
	if exists == 0 {
		return users.ErrNotFound
	}

	if err := r.rdb.HSet(ctx, userKey(email), fieldRefreshToken, refreshToken).Err(); err != nil {
		return errors.Wrap(err, "[redisrepo.SetRefreshToken] hset")
	}
	return nil
}

func (r *Repo) FindFederated(ctx context.Context, name, email, googleID string) (*users.User, error) {
	if name != "" {
		if user, err := r.lookupIndex(ctx, nameKey(name)); err == nil {
			return user, nil
		} else if !errors.Is(err, users.ErrNotFound) {
			return nil, err
		}
	}

	if email != "" {
		if user, err := r.GetByEmail(ctx, email); err == nil {
			return user, nil
		} else if !errors.Is(err, users.ErrNotFound) {
			return nil, err
		}
	}

	if googleID != "" {
		if user, err := r.lookupIndex(ctx, googleKey(googleID)); err == nil {
			return user, nil
		} else if !errors.Is(err, users.ErrNotFound) {
			return nil, err
		}
	}

	return nil, users.ErrNotFound
}

func (r *Repo) lookupIndex(ctx context.Context, key string) (*users.User, error) {
	email, err := r.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, users.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[redisrepo.lookupIndex] get")
	}
	return r.GetByEmail(ctx, email)
}
