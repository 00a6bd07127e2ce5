package users

import (
	"time"

	"github.com/uptrace/bun"
)

// User is the persisted entity. It is owned by the persistence gateway;
// everything handed to callers or the cache is a projection of it.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Email     string    `bun:"email,notnull"`
	Name      string    `bun:"name,notnull"`
	Age       *int      `bun:"age"`
	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// Request carries the caller supplied fields for create and update.
// On update every field replaces the stored value, including a nil Age.
type Request struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Age   *int   `json:"age,omitempty"`
}

// apply overwrites the mutable fields of u with the request values.
func (r Request) apply(u *User) {
	u.Email = r.Email
	u.Name = r.Name
	u.Age = copyInt(r.Age)
}

// Response is a read-only snapshot of a User.
type Response struct {
	ID        int64     `json:"id" msgpack:"id"`
	Email     string    `json:"email" msgpack:"email"`
	Name      string    `json:"name" msgpack:"name"`
	Age       *int      `json:"age,omitempty" msgpack:"age"`
	CreatedAt time.Time `json:"createdAt" msgpack:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" msgpack:"updated_at"`
}

// NewResponse projects u into a Response. The result shares no memory with u.
func NewResponse(u User) Response {
	return Response{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Age:       copyInt(u.Age),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}
