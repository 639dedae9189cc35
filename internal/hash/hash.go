package hash

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinCost     = bcrypt.MinCost
	MaxCost     = bcrypt.MaxCost
	DefaultCost = bcrypt.DefaultCost

	// MaxPasswordBytes is the most bcrypt will look at.
	MaxPasswordBytes = 72
)

var ErrPasswordTooLong = errors.New("password is longer than 72 bytes")

// Hasher hashes passwords with bcrypt at one work factor.
type Hasher struct {
	cost int
}

// New returns a Hasher for cost. Zero means DefaultCost; anything else is
// clamped to the range bcrypt accepts.
func New(cost int) *Hasher {
	switch {
	case cost == 0:
		cost = DefaultCost
	case cost < MinCost:
		cost = MinCost
	case cost > MaxCost:
		cost = MaxCost
	}
	return &Hasher{cost: cost}
}

func (h *Hasher) Cost() int { return h.cost }

func (h *Hasher) Hash(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hashbytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashbytes), nil
}

func (h *Hasher) Check(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NeedsRehash reports whether hash was made at another cost, or is not a
// bcrypt hash at all.
func (h *Hasher) NeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	return err != nil || cost != h.cost
}
