package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-typeprovider-cache/protocol"
)

// UpdateGoldenEnv, when set to a non-empty value, makes CompareWithGolden
// rewrite golden files instead of comparing.
const UpdateGoldenEnv = "TPCACHE_UPDATE_GOLDEN"

// HostFixture is the on-disk description of a FakeHost.
type HostFixture struct {
	Assemblies       []protocol.RdAssembly                              `json:"assemblies"`
	Types            []protocol.RdType                                  `json:"types"`
	Contents         map[protocol.EntityID]protocol.RdTypeContent       `json:"contents"`
	NestedTypes      map[protocol.EntityID][]protocol.EntityID          `json:"nested_types"`
	StaticParameters map[protocol.EntityID][]protocol.RdParameter       `json:"static_parameters"`
	Parameters       []protocol.RdParameter                             `json:"parameters"`
	TypeAttributes   map[protocol.EntityID][]protocol.RdCustomAttribute `json:"type_attributes"`
}

// LoadFixture loads test data from a fixture file.
// The path is relative to the test package directory.
func LoadFixture(t *testing.T, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture from %s: %v", path, err)
	}

	return data
}

// LoadFixtureJSON loads JSON test data from a fixture file and unmarshals it.
// The path is relative to the test package directory.
func LoadFixtureJSON(t *testing.T, path string, dest any) {
	t.Helper()

	data := LoadFixture(t, path)
	if err := json.Unmarshal(data, dest); err != nil {
		t.Fatalf("failed to unmarshal JSON fixture from %s: %v", path, err)
	}
}

// LoadHostFixture builds a FakeHost from a JSON HostFixture file.
func LoadHostFixture(t *testing.T, path string) *FakeHost {
	t.Helper()

	var fx HostFixture
	LoadFixtureJSON(t, path, &fx)
	return fx.Build()
}

// Build returns a FakeHost populated with the fixture.
func (fx HostFixture) Build() *FakeHost {
	h := NewFakeHost()
	for _, a := range fx.Assemblies {
		h.AddAssembly(a)
	}
	for _, ty := range fx.Types {
		h.AddType(ty)
	}
	for id, c := range fx.Contents {
		h.SetContent(id, c)
	}
	for id, nested := range fx.NestedTypes {
		h.SetNestedTypes(id, nested...)
	}
	for id, params := range fx.StaticParameters {
		h.SetStaticParameters(id, params...)
	}
	for _, p := range fx.Parameters {
		h.AddParameter(p)
	}
	for id, attrs := range fx.TypeAttributes {
		h.SetCustomAttributes(protocol.KindType, id, attrs...)
	}
	return h
}

// LoadGolden loads expected test output from a golden file.
// The path is relative to the test package directory.
func LoadGolden(t *testing.T, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load golden file from %s: %v", path, err)
	}

	return data
}

// WriteGolden writes test output to a golden file.
// This should typically only be called when updating golden files.
// The path is relative to the test package directory.
func WriteGolden(t *testing.T, path string, data []byte) {
	t.Helper()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create directory %s: %v", dir, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write golden file to %s: %v", path, err)
	}
}

// CompareWithGolden compares actual data with expected data from a golden file.
// If the golden file doesn't exist, or UpdateGoldenEnv is set, it writes
// the actual data instead.
func CompareWithGolden(t *testing.T, path string, actual []byte) {
	t.Helper()

	if os.Getenv(UpdateGoldenEnv) != "" {
		WriteGolden(t, path, actual)
		return
	}

	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.Logf("Golden file %s does not exist, creating it", path)
			WriteGolden(t, path, actual)
			return
		}
		t.Fatalf("failed to read golden file %s: %v", path, err)
	}

	if string(actual) != string(expected) {
		t.Errorf("output mismatch for %s:\nExpected:\n%s\nActual:\n%s", path, expected, actual)
	}
}

// FixturePath constructs a path to a fixture file relative to the testdata directory.
func FixturePath(filename string) string {
	return filepath.Join("testdata", filename)
}

// GoldenPath constructs a path to a golden file relative to the testdata directory.
func GoldenPath(filename string) string {
	return filepath.Join("testdata", "golden", filename)
}
