package network

import (
	"fmt"
	"strings"

	"github.com/chrisdamba/distsim/internal/models"
)

// UnresolvedError reports a depot reference that matches neither an id nor a name.
type UnresolvedError struct {
	Ref     string
	Context string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("%s: %q does not match any depot id or name", e.Context, e.Ref)
}

func (e *UnresolvedError) Unwrap() error { return models.ErrUnknownDepot }

// Resolver maps depot references (ids or names) to depot ids.
type Resolver struct {
	byID   map[string]string
	byName map[string]string
	order  []string
}

func NewResolver(depots []models.Depot) *Resolver {
	r := &Resolver{
		byID:   make(map[string]string, len(depots)),
		byName: make(map[string]string, len(depots)),
		order:  make([]string, 0, len(depots)),
	}
	for _, d := range depots {
		r.byID[d.ID] = d.ID
		if name := normalizeName(d.Name); name != "" {
			r.byName[name] = d.ID
		}
		r.order = append(r.order, d.ID)
	}
	return r
}

// Resolve matches ref against depot ids first, then case-insensitively against names.
func (r *Resolver) Resolve(ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}
	if id, ok := r.byID[ref]; ok {
		return id, true
	}
	id, ok := r.byName[normalizeName(ref)]
	return id, ok
}

// MustResolve is Resolve with an *UnresolvedError for unknown references.
func (r *Resolver) MustResolve(ref, context string) (string, error) {
	id, ok := r.Resolve(ref)
	if !ok {
		return "", &UnresolvedError{Ref: ref, Context: context}
	}
	return id, nil
}

// ParseMapping resolves a delimited depot list ("1,2", "North; South", "1|South").
// Duplicates are dropped and input order is kept.
func (r *Resolver) ParseMapping(list, context string) ([]string, error) {
	tokens := strings.FieldsFunc(list, func(c rune) bool {
		return c == ',' || c == ';' || c == '|'
	})

	seen := make(map[string]bool, len(tokens))
	ids := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if strings.TrimSpace(tok) == "" {
			continue
		}
		id, err := r.MustResolve(tok, context)
		if err != nil {
			return nil, err
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%s: %w", context, models.ErrEmptyMapping)
	}
	return ids, nil
}

// All returns every depot id in input order.
func (r *Resolver) All() []string {
	return append([]string(nil), r.order...)
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
