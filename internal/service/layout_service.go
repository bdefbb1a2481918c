package service

import (
	"errors"
	"sync"

	"github.com/law-cbt/cbt-backend/internal/model"
)

// Layout errors.
var (
	ErrNoVisiblePanels = errors.New("at least one panel must stay visible")
	ErrUnknownPanel    = errors.New("unknown panel id")
)

// Split ratio clamp bounds in percent.
const (
	splitRatioMin = 10
	splitRatioMax = 90
)

// generationSource exposes the session generation used as the panel
// remount key.
type generationSource interface {
	Generation() int64
}

// LayoutService tracks the workspace panel arrangement. Layout is
// ephemeral UI state; it is held in memory only.
type LayoutService struct {
	mu         sync.Mutex
	order      []model.PanelID
	visible    []model.PanelID
	splitRatio int
	session    generationSource
}

func NewLayoutService(session generationSource) *LayoutService {
	all := []model.PanelID{model.PanelQuestion, model.PanelLaw, model.PanelAnswer, model.PanelMemo}
	return &LayoutService{
		order:      all,
		visible:    []model.PanelID{model.PanelQuestion, model.PanelAnswer},
		splitRatio: 50,
		session:    session,
	}
}

// State returns a snapshot of the current arrangement.
func (s *LayoutService) State() *model.LayoutState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// SetVisible replaces the visible panel set, preserving order. The
// set can never be emptied.
func (s *LayoutService) SetVisible(panels []model.PanelID) (*model.LayoutState, error) {
	if len(panels) == 0 {
		return nil, ErrNoVisiblePanels
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	requested := make(map[model.PanelID]bool, len(panels))
	for _, p := range panels {
		if !s.knownPanel(p) {
			return nil, ErrUnknownPanel
		}
		requested[p] = true
	}

	visible := make([]model.PanelID, 0, len(requested))
	for _, p := range s.order {
		if requested[p] {
			visible = append(visible, p)
		}
	}
	s.visible = visible
	return s.snapshot(), nil
}

// Rotate permutes the visible panels in place inside the full order:
// two panels swap, three rotate clockwise. With one visible panel the
// call is a no-op.
func (s *LayoutService) Rotate() *model.LayoutState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.visible) >= 2 {
		rotated := make([]model.PanelID, len(s.visible))
		copy(rotated, s.visible[1:])
		rotated[len(rotated)-1] = s.visible[0]

		// Reassign rotated panels to the slots the visible panels
		// occupy in the full ordering.
		slot := 0
		for i, p := range s.order {
			if s.isVisible(p) {
				s.order[i] = rotated[slot]
				slot++
			}
		}
		s.visible = rotated
	}
	return s.snapshot()
}

// SetSplit adjusts the divider position, clamped to 10–90%.
func (s *LayoutService) SetSplit(ratio int) *model.LayoutState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ratio < splitRatioMin {
		ratio = splitRatioMin
	}
	if ratio > splitRatioMax {
		ratio = splitRatioMax
	}
	s.splitRatio = ratio
	return s.snapshot()
}

func (s *LayoutService) knownPanel(p model.PanelID) bool {
	for _, known := range s.order {
		if known == p {
			return true
		}
	}
	return false
}

func (s *LayoutService) isVisible(p model.PanelID) bool {
	for _, v := range s.visible {
		if v == p {
			return true
		}
	}
	return false
}

func (s *LayoutService) snapshot() *model.LayoutState {
	order := make([]model.PanelID, len(s.order))
	copy(order, s.order)
	visible := make([]model.PanelID, len(s.visible))
	copy(visible, s.visible)

	var generation int64
	if s.session != nil {
		generation = s.session.Generation()
	}
	return &model.LayoutState{
		Order:      order,
		Visible:    visible,
		SplitRatio: s.splitRatio,
		Generation: generation,
	}
}
