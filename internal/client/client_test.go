package client

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDialUnreachableAddressErrors(t *testing.T) {
	_, err := Dial("127.0.0.1:1")
	require.Error(t, err)
}
