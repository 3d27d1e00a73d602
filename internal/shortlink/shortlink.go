// Package shortlink turns coupon row ids into opaque out-link codes.
package shortlink

import (
	"errors"
	"fmt"

	"github.com/speps/go-hashids/v2"
)

const DefaultMinLength = 6

var ErrInvalidCode = errors.New("invalid short link code")

type Codec struct {
	h *hashids.HashID
}

func New(salt string, minLength int) (*Codec, error) {
	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	hd := hashids.NewData()
	hd.Salt = salt
	hd.MinLength = minLength

	h, err := hashids.NewWithData(hd)
	if err != nil {
		return nil, fmt.Errorf("shortlink: %w", err)
	}
	return &Codec{h: h}, nil
}

func (c *Codec) Encode(id int64) (string, error) {
	if id < 0 {
		return "", fmt.Errorf("shortlink: negative id %d", id)
	}
	return c.h.EncodeInt64([]int64{id})
}

// Decode accepts only codes this codec could have produced.
func (c *Codec) Decode(code string) (int64, error) {
	ids, err := c.h.DecodeInt64WithError(code)
	if err != nil || len(ids) != 1 {
		return 0, ErrInvalidCode
	}
	if again, err := c.h.EncodeInt64(ids); err != nil || again != code {
		return 0, ErrInvalidCode
	}
	return ids[0], nil
}
