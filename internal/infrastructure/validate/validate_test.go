package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type sample struct {
	Sender string `json:"sender" validate:"max=5"`
	Mode   string `json:"mode" validate:"required,oneof=check-in check-out"`
}

func TestStruct(t *testing.T) {
	req := require.New(t)

	req.NoError(Struct(sample{Sender: "ab", Mode: "check-in"}))
	req.NoError(Struct(sample{Sender: "", Mode: "check-out"}))

	err := Struct(sample{Sender: "abcdef", Mode: "check-in"})
	req.Error(err)
	req.Contains(err.Error(), "sender must be at most 5 characters")

	err = Struct(sample{Sender: "a", Mode: "dance"})
	req.Error(err)
	req.Contains(err.Error(), "mode must be one of [check-in check-out]")
}

func TestStructCountsCharactersNotBytes(t *testing.T) {
	req := require.New(t)

	req.NoError(Struct(sample{Sender: strings.Repeat("é", 5), Mode: "check-in"}))
}
