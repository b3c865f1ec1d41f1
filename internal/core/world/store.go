package world

import (
	"github.com/wildersim/wilder/internal/core/models"
)

// TransformMap is the in-memory authoritative transform store. Access
// follows the simulation-goroutine contract of the components reading
// it, so it carries no locking.
type TransformMap struct {
	transforms map[models.EntityID]models.Transform
}

func NewTransformMap() *TransformMap {
	return &TransformMap{transforms: make(map[models.EntityID]models.Transform)}
}

func (s *TransformMap) Transform(id models.EntityID) (models.Transform, bool) {
	t, ok := s.transforms[id]
	return t, ok
}

func (s *TransformMap) SetTransform(id models.EntityID, t models.Transform) {
	s.transforms[id] = t
}

func (s *TransformMap) Delete(id models.EntityID) {
	delete(s.transforms, id)
}

func (s *TransformMap) Entities() []models.EntityID {
	out := make([]models.EntityID, 0, len(s.transforms))
	for id := range s.transforms {
		out = append(out, id)
	}
	return out
}

func (s *TransformMap) Len() int { return len(s.transforms) }
