package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

const bucketProjects = "projects"

// ErrInvalidProject is returned when a project name is not of the form
// "user/repo".
var ErrInvalidProject = errors.New("project name must be user/repo")

// Project is one catalog entry.
type Project struct {
	// Name is "user/repo", the repository's location under the project root.
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	Description string    `json:"description"`
	Updated     time.Time `json:"updated"`
}

// Store is an open catalog.
type Store struct {
	db *bolt.DB
}

// Open opens the catalog at path, creating it unless readOnly is set. It
// waits at most a second for another process holding the file.
func Open(path string, readOnly bool) (*Store, error) {
	db, err := bolt.Open(path, 0644, &bolt.Options{Timeout: time.Second, ReadOnly: readOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to open project catalog %q: %w", path, err)
	}

	if !readOnly {
		err = db.Update(func(tx *bolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists([]byte(bucketProjects))
			return err
		})
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize project catalog %q: %w", path, err)
		}
	}

	return &Store{db: db}, nil
}

// Close releases the catalog file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put adds or replaces a project.
func (s *Store) Put(project Project) error {
	user, repo, ok := strings.Cut(project.Name, "/")
	if !ok || user == "" || repo == "" || strings.Contains(repo, "/") {
		return fmt.Errorf("failed to store project %q: %w", project.Name, ErrInvalidProject)
	}

	value, err := json.Marshal(project)
	if err != nil {
		return fmt.Errorf("failed to encode project %q: %w", project.Name, err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketProjects)).Put([]byte(project.Name), value)
	})
}

// Projects lists at most limit projects, most recently updated first. A
// limit of zero or less lists all of them.
func (s *Store) Projects(limit int) ([]Project, error) {
	var projects []Project

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketProjects))
		if b == nil {
			return nil
		}

		return b.ForEach(func(k, v []byte) error {
			var project Project
			if err := json.Unmarshal(v, &project); err != nil {
				return fmt.Errorf("failed to decode project %q: %w", k, err)
			}
			projects = append(projects, project)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(projects, func(i, j int) bool {
		return projects[i].Updated.After(projects[j].Updated)
	})
	if limit > 0 && len(projects) > limit {
		projects = projects[:limit]
	}

	return projects, nil
}
