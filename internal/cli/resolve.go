package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/domain"
	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/repository"
)

func resolveSession(ctx context.Context, a *App, id string) (*domain.Session, error) {
	if id == "" {
		return nil, errors.New("--session is required")
	}
	s, err := a.Sessions.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("session %s not found; create one with 'nuudle session create'", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	return s, nil
}

// readContext loads a session context from a JSON file, or from stdin when
// path is "-". An empty path yields an empty context.
func readContext(stdin io.Reader, path string) (domain.SessionContext, error) {
	if path == "" {
		return domain.SessionContext{}, nil
	}

	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading context: %w", err)
	}

	sc := domain.SessionContext{}
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parsing context %s: %w", path, err)
	}
	return sc, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
