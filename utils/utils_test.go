// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadBytes(t *testing.T) {
	require := require.New(t)

	filename := filepath.Join(t.TempDir(), "SaveBytes")
	key := []byte{1, 2, 3, 4}
	require.NoError(SaveBytes(filename, key))
	require.FileExists(filename)

	b, err := LoadBytes(filename, len(key))
	require.NoError(err)
	require.Equal(key, b)

	_, err = LoadBytes(filename, 32)
	require.ErrorIs(err, ErrInvalidSize)
}

func TestLoadBytesMissingFile(t *testing.T) {
	_, err := LoadBytes(filepath.Join(t.TempDir(), "missing"), -1)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		amt  *uint256.Int
		want string
	}{
		{amt: uint256.NewInt(0), want: "0"},
		{amt: uint256.NewInt(1), want: "0.000000000000000001"},
		{amt: uint256.NewInt(1_500_000_000_000_000_000), want: "1.5"},
		{amt: uint256.NewInt(2_000_000_000_000_000_000), want: "2"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			require := require.New(t)
			require.Equal(tt.want, FormatAmount(tt.amt))

			parsed, err := ParseAmount(tt.want)
			require.NoError(err)
			require.Equal(tt.amt, parsed)
		})
	}
}

func TestParseAmountInvalid(t *testing.T) {
	for _, s := range []string{"abc", "-1", "0.0000000000000000001", "1.2.3"} {
		_, err := ParseAmount(s)
		require.ErrorIs(t, err, ErrInvalidAmount, s)
	}
}

func TestGetPort(t *testing.T) {
	require := require.New(t)
	port, err := GetPort("http://127.0.0.1:9650/ext")
	require.NoError(err)
	require.Equal("9650", port)
	host, err := GetHost("http://127.0.0.1:9650/ext")
	require.NoError(err)
	require.Equal("127.0.0.1", host)
}
