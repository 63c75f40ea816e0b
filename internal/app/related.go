package app

import (
	"context"
	"slices"

	"douro_cms/internal/domain"
)

// Related returns the properties id points at, in relation order.
func (s *PropertyService) Related(ctx context.Context, id string) ([]domain.Property, error) {
	if _, err := s.repo.FindProperty(ctx, id, false); err != nil {
		return nil, err
	}
	ids, err := s.repo.RelatedIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []domain.Property{}, nil
	}
	return s.repo.FindProperties(ctx, ids)
}

// AddRelated unions ids into the related set of id.
func (s *PropertyService) AddRelated(ctx context.Context, id string, ids []string) ([]string, error) {
	current, err := s.currentRelated(ctx, id)
	if err != nil {
		return nil, err
	}
	add, err := s.resolve(ctx, id, ids)
	if err != nil {
		return nil, err
	}
	return s.replaceRelated(ctx, id, dedupe(append(current, add...)))
}

// RemoveRelated drops ids from the related set; unknown ids are ignored.
func (s *PropertyService) RemoveRelated(ctx context.Context, id string, ids []string) ([]string, error) {
	current, err := s.currentRelated(ctx, id)
	if err != nil {
		return nil, err
	}
	next := slices.DeleteFunc(current, func(r string) bool { return slices.Contains(ids, r) })
	return s.replaceRelated(ctx, id, next)
}

// SetRelated replaces the related set. An empty ids clears it.
func (s *PropertyService) SetRelated(ctx context.Context, id string, ids []string) ([]string, error) {
	if _, err := s.repo.FindProperty(ctx, id, false); err != nil {
		return nil, err
	}
	next, err := s.resolve(ctx, id, ids)
	if err != nil {
		return nil, err
	}
	return s.replaceRelated(ctx, id, next)
}

func (s *PropertyService) currentRelated(ctx context.Context, id string) ([]string, error) {
	if _, err := s.repo.FindProperty(ctx, id, false); err != nil {
		return nil, err
	}
	return s.repo.RelatedIDs(ctx, id)
}

func (s *PropertyService) replaceRelated(ctx context.Context, id string, ids []string) ([]string, error) {
	if ids == nil {
		ids = []string{}
	}
	if err := s.repo.ReplaceRelated(ctx, id, ids); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return ids, nil
}

// resolve dedupes ids, rejects self, and fails with every id that does not
// resolve to a stored property.
func (s *PropertyService) resolve(ctx context.Context, self string, ids []string) ([]string, error) {
	ids = dedupe(ids)
	if self != "" && slices.Contains(ids, self) {
		return nil, domain.Invalid("related_ids", "a property cannot be related to itself")
	}
	if len(ids) == 0 {
		return ids, nil
	}
	found, err := s.repo.ExistingPropertyIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	var missing []string
	for _, id := range ids {
		if !slices.Contains(found, id) {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, &domain.RelationError{Missing: missing}
	}
	return ids, nil
}

// dedupe keeps the first occurrence of every non-empty id.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
