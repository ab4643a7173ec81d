package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPackageManifest_SetKeepsUnknownFields(t *testing.T) {
	m, err := NewPackageManifest("/host/package.json", []byte(`{
  "name": "host",
  "scripts": {"build": "ng build"},
  "devDependencies": {"typescript": "~4.2.0"}
}`))
	require.NoError(t, err)

	require.NoError(t, m.Set(DevDependencies, "@playwright/test", "^1.14.1"))
	require.NoError(t, m.Set(DevDependencies, "typescript", "^4.3.5"))
	require.True(t, m.Dirty())

	version, ok := m.Get(DevDependencies, "@playwright/test")
	require.True(t, ok)
	require.Equal(t, "^1.14.1", version)

	require.Equal(t, map[string]string{
		"typescript":       "^4.3.5",
		"@playwright/test": "^1.14.1",
	}, m.Section(DevDependencies))

	reparsed, err := NewPackageManifest(m.Path, m.Bytes())
	require.NoError(t, err)
	build, ok := reparsed.Get("scripts", "build")
	require.True(t, ok)
	require.Equal(t, "ng build", build)
}

func TestPackageManifest_DottedNames(t *testing.T) {
	m, err := NewPackageManifest("/host/package.json", nil)
	require.NoError(t, err)

	require.NoError(t, m.Set(DevDependencies, "lodash.merge", "^4.6.2"))

	version, ok := m.Get(DevDependencies, "lodash.merge")
	require.True(t, ok)
	require.Equal(t, "^4.6.2", version)
	require.Equal(t, map[string]string{"lodash.merge": "^4.6.2"}, m.Section(DevDependencies))
}

func TestPackageManifest_SameValueIsNoop(t *testing.T) {
	m, err := NewPackageManifest("/host/package.json", []byte(`{"devDependencies":{"ts-node":"^10.2.1"}}`))
	require.NoError(t, err)

	require.NoError(t, m.Set(DevDependencies, "ts-node", "^10.2.1"))
	require.False(t, m.Dirty())
}

func TestPackageManifest_Invalid(t *testing.T) {
	_, err := NewPackageManifest("/host/package.json", []byte(`{"name": `))
	require.Error(t, err)

	_, err = NewPackageManifest("/host/package.json", []byte(`[]`))
	require.Error(t, err)
}

func TestPackageManifest_BytesIsStable(t *testing.T) {
	m, err := NewPackageManifest("/host/package.json", []byte(`{"name":"host"}`))
	require.NoError(t, err)
	require.NoError(t, m.Set(DevDependencies, "ts-node", "^10.2.1"))

	first := m.Bytes()
	again, err := NewPackageManifest(m.Path, first)
	require.NoError(t, err)
	require.NoError(t, again.Set(DevDependencies, "ts-node", "^10.2.1"))
	require.Equal(t, string(first), string(again.Bytes()))
}
