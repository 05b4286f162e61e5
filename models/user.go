package models

import (
	"context"
	"time"

	"github.com/go-pg/pg/v10"
	"github.com/pkg/errors"
)

type User struct {
	tableName struct{} `pg:"library_user"`

	UserID    int64     `pg:"user_id,pk"`
	Name      string    `pg:"name,use_zero"`
	CreatedAt time.Time `pg:"created_at,default:now()"`
}

func GetAllUsers(ctx context.Context, db *pg.DB) ([]*User, error) {
	var users []*User
	err := db.Model(&users).
		Context(ctx).
		Order("user_id asc").
		Select()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get users")
	}
	return users, nil
}
