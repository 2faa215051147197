package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// Source supplies the enrolled reference set in a read-once fetch at
// startup.
type Source interface {
	Fetch(ctx context.Context) ([]Person, error)
}

// FileSource reads the reference set from a local JSON file.
type FileSource struct {
	Path string
}

// Fetch reads and decodes the file.
func (s FileSource) Fetch(ctx context.Context) ([]Person, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, err
	}
	var people []Person
	if err := json.Unmarshal(data, &people); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.Path, err)
	}
	return people, nil
}

// HTTPSource fetches the reference set from a JSON endpoint.
type HTTPSource struct {
	URL  string
	HTTP *http.Client
}

// NewHTTPSource creates a source with a bounded request timeout.
func NewHTTPSource(url string) HTTPSource {
	return HTTPSource{
		URL:  url,
		HTTP: &http.Client{Timeout: 10 * time.Second},
	}
}

// Fetch requests and decodes the roster document.
func (s HTTPSource) Fetch(ctx context.Context) ([]Person, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("roster fetch: status %d", resp.StatusCode)
	}

	var people []Person
	if err := json.NewDecoder(resp.Body).Decode(&people); err != nil {
		return nil, fmt.Errorf("decode roster body: %w", err)
	}
	return people, nil
}

// Load fetches from src and builds the roster, failing open: any fetch
// error yields an empty roster (every code resolves to visitor) so a dead
// reference source never blocks startup. The error is returned for the
// caller to log once.
func Load(ctx context.Context, src Source) (*Roster, error) {
	people, err := src.Fetch(ctx)
	if err != nil {
		return New(nil), err
	}
	return New(people), nil
}
