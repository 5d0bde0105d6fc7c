package recorder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/entrhq/replay/pkg/types"
)

// TestCaseStore persists saved test cases as JSON files, one per case,
// under <dataDir>/testcases. File names are the test case id.
type TestCaseStore struct {
	dir string
}

// NewTestCaseStore creates a store rooted at dataDir, creating the
// testcases directory if needed.
func NewTestCaseStore(dataDir string) (*TestCaseStore, error) {
	dir := filepath.Join(dataDir, "testcases")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create test case directory: %w", err)
	}
	return &TestCaseStore{dir: dir}, nil
}

// Save writes a test case to disk, overwriting any previous version.
func (s *TestCaseStore) Save(tc *types.TestCase) error {
	if tc.ID == "" {
		return fmt.Errorf("test case has no id")
	}
	data, err := json.MarshalIndent(tc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode test case: %w", err)
	}
	if err := os.WriteFile(s.path(tc.ID), data, 0640); err != nil {
		return fmt.Errorf("failed to write test case: %w", err)
	}
	return nil
}

// Get loads one test case by id.
func (s *TestCaseStore) Get(id string) (*types.TestCase, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("test case %s not found", id)
		}
		return nil, fmt.Errorf("failed to read test case: %w", err)
	}
	var tc types.TestCase
	if err := json.Unmarshal(data, &tc); err != nil {
		return nil, fmt.Errorf("failed to decode test case %s: %w", id, err)
	}
	return &tc, nil
}

// List loads every stored test case, newest first.
func (s *TestCaseStore) List() ([]*types.TestCase, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list test cases: %w", err)
	}

	cases := make([]*types.TestCase, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		tc, err := s.Get(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			// a corrupt file should not hide the rest
			continue
		}
		cases = append(cases, tc)
	}

	sort.Slice(cases, func(i, j int) bool {
		return cases[i].CreatedAt.After(cases[j].CreatedAt)
	})
	return cases, nil
}

// Delete removes a stored test case. Deleting a missing case is a no-op.
func (s *TestCaseStore) Delete(id string) error {
	err := os.Remove(s.path(id))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete test case: %w", err)
	}
	return nil
}

func (s *TestCaseStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}
