// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package remote

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEndpoint(t *testing.T) {
	ep, err := ParseEndpoint("backup@replica.example.com")
	require.NoError(t, err)
	require.Equal(t, Endpoint{User: "backup", Host: "replica.example.com"}, ep)
}

func TestParseEndpointRejectsBareHost(t *testing.T) {
	for _, target := range []string{"replica.example.com", "@host", "user@", ""} {
		_, err := ParseEndpoint(target)
		require.Error(t, err, "target %q", target)
	}
}

func TestCatalogMatch(t *testing.T) {
	catalog := "backup/tank@remote_2024_01_02_00_00_00\n" +
		"backup/tank/home@remote_2024_01_02_00_00_00\n"

	require.Equal(t, "backup/tank@remote_2024_01_02_00_00_00",
		catalogMatch(catalog, "tank@remote_2024_01_02_00_00_00"))

	// Same pool name on both sides.
	require.Equal(t, "tank@remote_2024_01_02_00_00_00",
		catalogMatch("tank@remote_2024_01_02_00_00_00\n", "tank@remote_2024_01_02_00_00_00"))
}

func TestCatalogMatchNeedsTransferRoot(t *testing.T) {
	// A recursive transfer stamps every child dataset with the same
	// label. Children landing alone must not pass for the root.
	catalog := "backup/tank/home@remote_2024_01_02_00_00_00\n" +
		"backup/tank@remote_2024_01_01_00_00_00\n"

	require.Empty(t, catalogMatch(catalog, "tank@remote_2024_01_02_00_00_00"))
}
